package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"salescharts/internal/core"
)

func newRegionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "Print totals by sales region, largest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := core.ParseMetric(opts.metric)
			if err != nil {
				return err
			}
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			report, err := svc.Regions(cmd.Context(), opts.year, metric)
			if err != nil {
				return err
			}

			var total float64
			for _, r := range report.Regions {
				total += r.Value
			}
			table := newTable(cmd.OutOrStdout(), "Region", metric.Label(), "Share")
			for _, r := range report.Regions {
				share := "-"
				if total != 0 {
					share = fmt.Sprintf("%.1f%%", r.Value/total*100)
				}
				table.Append([]string{r.Region, formatValue(r.Value, metric), share})
			}
			table.SetFooter([]string{fmt.Sprintf("Total %d", report.Year), formatValue(total, metric), ""})
			table.Render()
			return nil
		},
	}
}
