package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/smazurov/restream/internal/devices"
	"github.com/spf13/cobra"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	return newDevicesCmd(devices.NewDetector())
}

func newDevicesCmd(detector devices.Detector) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List capture devices for the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch devices.Kind(kind) {
			case "", devices.KindVideo, devices.KindAudio:
			default:
				return fmt.Errorf("invalid kind %q (want video or audio)", kind)
			}

			found, err := devices.List(detector)
			if err != nil {
				if len(found) == 0 {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tPATH\tNAME\tID")
			for _, dev := range found {
				if kind != "" && string(dev.Kind) != kind {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", dev.Kind, dev.Path, dev.Name, dev.ID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only list video or audio devices")
	return cmd
}
