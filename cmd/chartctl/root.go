package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"salescharts/internal/chart"
	"salescharts/internal/cli"
	"salescharts/internal/config"
	"salescharts/internal/log"
	"salescharts/internal/services"
	"salescharts/internal/sheets/memory"
	"salescharts/internal/worker"
)

// options are the flags shared by every subcommand.
type options struct {
	input      string
	sheet      string
	year       int
	metric     string
	themeFile  string
	regionFile string
	verbose    bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "chartctl",
		Short: "Render sales charts from a spreadsheet",
		Long: `chartctl reads a sales spreadsheet (xlsx, csv or a Google Sheet given as
sheets:<spreadsheet id>) and renders monthly charts or prints the series.

Example usage:
  chartctl render --input sales.xlsx --kind bar --year 2024 --compare --out bar.png
  chartctl series --input sales.xlsx --year 2024
  chartctl regions --input sales.csv --metric quantity
  chartctl import --input sales.xlsx --direct`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.input, "input", "i", "", "spreadsheet file or sheets:<id> (default from SALES_FILE / DATA_BACKEND)")
	flags.StringVar(&opts.sheet, "sheet", "", "sheet name within the workbook (default first sheet)")
	flags.IntVarP(&opts.year, "year", "y", 0, "year to chart (default latest year with data)")
	flags.StringVarP(&opts.metric, "metric", "m", "amount", "metric: amount or quantity")
	flags.StringVar(&opts.themeFile, "theme", "", "YAML chart theme (default CHART_THEME_FILE)")
	flags.StringVar(&opts.regionFile, "regions", "", "YAML province to region overrides (default REGION_MAP_FILE)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging on stderr")

	root.AddCommand(
		newRenderCmd(opts),
		newSeriesCmd(opts),
		newRegionsCmd(opts),
		newImportCmd(opts),
	)
	return root
}

// init fills unset flags from the environment and sets up logging.
func (o *options) init() error {
	cli.LoadEnvFile()
	o.cfg = config.Load()

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	log.SetDefault(log.New(log.Config{Level: level, Component: "chartctl", Output: os.Stderr}))

	if o.input == "" {
		o.input = o.cfg.Source()
		if o.sheet == "" {
			o.sheet = o.cfg.SourceSheet()
		}
	}
	if o.themeFile == "" {
		o.themeFile = o.cfg.ChartThemeFile
	}
	if o.regionFile == "" {
		o.regionFile = o.cfg.RegionMapFile
	}
	if o.input == "" {
		return fmt.Errorf("no input: pass --input or set SALES_FILE")
	}
	return nil
}

// service loads the input into memory and builds a chart service over it.
func (o *options) service(ctx context.Context) (*services.ChartService, error) {
	reader, err := worker.OpenReader(ctx, o.input, o.sheet)
	if err != nil {
		return nil, err
	}
	store, err := memory.Load(ctx, reader)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", o.input, err)
	}
	if t, _ := store.ReadSales(ctx); t.BadDates > 0 || t.BadAmounts > 0 {
		slog.WarnContext(ctx, "Some cells could not be parsed",
			log.FieldSource, o.input,
			log.FieldBadDates, t.BadDates,
			log.FieldBadAmounts, t.BadAmounts)
	}
	theme, err := chart.LoadTheme(o.themeFile)
	if err != nil {
		return nil, err
	}
	renderer, err := chart.NewRenderer(theme)
	if err != nil {
		return nil, err
	}
	regions, err := services.LoadRegionTable(o.regionFile)
	if err != nil {
		return nil, err
	}
	return services.NewChartService(store, renderer, regions), nil
}
