package cmd

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/smazurov/restream/internal/config"
	"github.com/smazurov/restream/internal/ingest"
	"github.com/spf13/cobra"
)

// CreateIngestsCmd creates the ingests command.
func CreateIngestsCmd() *cobra.Command {
	var (
		path         string
		filter       string
		probe        bool
		probeTimeout time.Duration
		selectName   string
		catalogURL   string
	)

	cmd := &cobra.Command{
		Use:   "ingests",
		Short: "List the ingest servers of the streaming service",
		Long: `Fetches the ingest list of the configured streaming service. With --probe every ` +
			`ingest is dialed and the RTMP connect round trip is measured, fastest first. ` +
			`--select stores the URL of an ingest as the RTMP URL of the settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := settingsFile(path)
			if err != nil {
				return err
			}
			settings, err := config.LoadSettings(file)
			if err != nil {
				return err
			}
			service, err := ingest.ParseService(settings.IngestService)
			if err != nil {
				return err
			}

			var opts []ingest.Option
			if catalogURL != "" {
				opts = append(opts, ingest.WithURL(catalogURL))
			}
			client, err := ingest.NewClient(service, opts...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			catalog, err := client.Fetch(ctx)
			if err != nil {
				return err
			}
			if filter != "" {
				catalog = catalog.Filter(filter)
			}

			if selectName != "" {
				selected, ok := catalog.Find(selectName)
				if !ok {
					return fmt.Errorf("no ingest named %q", selectName)
				}
				settings.RTMPURL = selected.URLTemplate
				settings.IngestService = string(service)
				if err := settings.Save(file); err != nil {
					return fmt.Errorf("save settings: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "RTMP URL set to %s\n", selected.URLTemplate)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if !probe {
				fmt.Fprintln(w, "NAME\tURL\tAVAILABLE")
				for _, ing := range catalog {
					fmt.Fprintf(w, "%s\t%s\t%t\n", ing.Name, ing.URLTemplate, ing.Available())
				}
				return w.Flush()
			}

			results := ingest.ProbeAll(ctx, catalog.Available(), probeTimeout)
			slices.SortStableFunc(results, compareProbes)
			fmt.Fprintln(w, "NAME\tRTT\tURL")
			for _, r := range results {
				rtt := r.RTT.Round(time.Millisecond).String()
				if r.Error != "" {
					rtt = "error: " + r.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Ingest.Name, rtt, r.Ingest.URLTemplate)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "Settings file (default $XDG_CONFIG_HOME/"+config.SettingsFile+")")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show ingests whose name contains this")
	cmd.Flags().BoolVar(&probe, "probe", false, "Measure the RTMP connect time of every available ingest")
	cmd.Flags().DurationVar(&probeTimeout, "probe-timeout", 3*time.Second, "Timeout per probed ingest")
	cmd.Flags().StringVar(&selectName, "select", "", "Save the ingest with this name as RTMP URL")
	cmd.Flags().StringVar(&catalogURL, "catalog-url", "", "Override the ingest list URL")
	_ = cmd.Flags().MarkHidden("catalog-url")

	return cmd
}

// compareProbes orders successful probes by round trip, failures last.
func compareProbes(a, b ingest.ProbeResult) int {
	switch {
	case a.Error != "" && b.Error != "":
		return 0
	case a.Error != "":
		return 1
	case b.Error != "":
		return -1
	default:
		return cmp.Compare(a.RTT, b.RTT)
	}
}
