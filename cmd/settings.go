package cmd

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/restream/internal/config"
	"github.com/smazurov/restream/internal/ingest"
	"github.com/spf13/cobra"
)

// settingFlags maps the flags of "settings save" to settings fields.
var settingFlags = []struct {
	name  string
	usage string
	field func(*config.Settings) *string
}{
	{"rtmp-url", "RTMP server URL, may contain {stream_key}", func(s *config.Settings) *string { return &s.RTMPURL }},
	{"stream-key", "Stream key", func(s *config.Settings) *string { return &s.StreamKey }},
	{"hdmi-device", "Program video capture device", func(s *config.Settings) *string { return &s.HDMIDevice }},
	{"line-device", "Program audio capture device", func(s *config.Settings) *string { return &s.LineDevice }},
	{"camera-device", "Camera overlay capture device", func(s *config.Settings) *string { return &s.CameraDevice }},
	{"mic-device", "Microphone capture device", func(s *config.Settings) *string { return &s.MicDevice }},
	{"mic-mode", "Microphone channel mode (normal, stereo)", func(s *config.Settings) *string { return &s.MicMode }},
	{"ingest-service", "Streaming service (twitch, custom)", func(s *config.Settings) *string { return &s.IngestService }},
}

// CreateSettingsCmd creates the settings command.
func CreateSettingsCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the broadcast settings",
		Long: `Reads and writes the broadcast settings file, by default ` +
			`$XDG_CONFIG_HOME/broadcast-terminal.toml. Values missing from the file fall back to ` +
			`the RTMP_URL, STREAM_KEY, HDMI_DEVICE, LINE_DEVICE, CAMERA_DEVICE, MIC_DEVICE, MIC_MODE ` +
			`and INGEST_SERVICE environment variables.`,
	}
	cmd.PersistentFlags().StringVar(&path, "file", "", "Settings file (default $XDG_CONFIG_HOME/"+config.SettingsFile+")")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := settingsFile(path)
			if err != nil {
				return err
			}
			s, err := config.LoadSettings(file)
			if err != nil {
				return err
			}
			if s.StreamKey != "" {
				s.StreamKey = strings.Repeat("*", 8)
			}
			data, err := toml.Marshal(s)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", file)
			_, err = out.Write(data)
			return err
		},
	}

	save := &cobra.Command{
		Use:   "save",
		Short: "Change settings and save them",
		Long:  `Sets the settings given as flags, keeps all others and writes the file with mode 0600.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := settingsFile(path)
			if err != nil {
				return err
			}
			s, err := config.LoadSettings(file)
			if err != nil {
				return err
			}
			changed := 0
			for _, f := range settingFlags {
				if !cmd.Flags().Changed(f.name) {
					continue
				}
				value, _ := cmd.Flags().GetString(f.name)
				*f.field(&s) = value
				changed++
			}
			if _, err := ingest.ParseService(s.IngestService); err != nil {
				return err
			}
			if err := s.Save(file); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d setting(s) to %s\n", changed, file)
			return nil
		},
	}
	for _, f := range settingFlags {
		save.Flags().String(f.name, "", f.usage)
	}

	cmd.AddCommand(show, save)
	return cmd
}

func settingsFile(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return config.SettingsPath()
}
