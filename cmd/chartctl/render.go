package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"salescharts/internal/chart"
	"salescharts/internal/core"
	"salescharts/internal/services"
)

func newRenderCmd(opts *options) *cobra.Command {
	var (
		kind    string
		format  string
		out     string
		compare bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one chart to a file",
		Long: `Render one chart kind (smooth, diamond, bar or region) for a year.
The format follows --format, or else the extension of --out. --out - writes
to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := chart.ParseKind(kind)
			if err != nil {
				return err
			}
			if format == "" && out != "-" {
				format = filepath.Ext(out)
			}
			f, err := chart.ParseFormat(format)
			if err != nil {
				return err
			}
			metric, err := core.ParseMetric(opts.metric)
			if err != nil {
				return err
			}

			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			q := services.ChartQuery{Kind: k, Year: opts.year, Metric: metric, Format: f, Compare: compare}
			if err := svc.Render(cmd.Context(), q, &buf); err != nil {
				return err
			}

			if out == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s)\n", out, humanize.Bytes(uint64(buf.Len())))
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", string(chart.KindSmooth), "chart kind: smooth, diamond, bar, region")
	cmd.Flags().StringVarP(&format, "format", "f", "", "png, svg or pdf (default from --out extension)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, or - for stdout")
	cmd.Flags().BoolVar(&compare, "compare", false, "draw the prior year alongside")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
