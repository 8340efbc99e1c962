package main

import (
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"salescharts/internal/core"
)

func newSeriesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "series",
		Short: "Print the monthly series with year-over-year growth",
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := core.ParseMetric(opts.metric)
			if err != nil {
				return err
			}
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			cmp, err := svc.Compare(cmd.Context(), opts.year, metric)
			if err != nil {
				return err
			}

			table := newTable(cmd.OutOrStdout(), "Month", strconv.Itoa(cmp.Current.Year), strconv.Itoa(cmp.Prior.Year), "Growth")
			for i, label := range core.MonthLabels {
				table.Append([]string{
					label,
					formatValue(cmp.Current.Values[i], metric),
					formatValue(cmp.Prior.Values[i], metric),
					cmp.Growth[i].Label(),
				})
			}
			table.SetFooter([]string{
				"Total",
				formatValue(cmp.Current.Total(), metric),
				formatValue(cmp.Prior.Total(), metric),
				core.GrowthOf(cmp.Current.Total(), cmp.Prior.Total()).Label(),
			})
			table.Render()
			return nil
		},
	}
}

// newTable returns a table right-aligning every column but the first.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	aligns := make([]int, len(header))
	for i := range aligns {
		aligns[i] = tablewriter.ALIGN_RIGHT
	}
	aligns[0] = tablewriter.ALIGN_LEFT
	table.SetColumnAlignment(aligns)
	return table
}

func formatValue(v float64, metric core.Metric) string {
	if metric == core.MetricQuantity {
		return humanize.Comma(int64(v))
	}
	return humanize.FormatFloat("#,###.##", v)
}
