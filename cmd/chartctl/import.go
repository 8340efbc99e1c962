package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"salescharts/internal/amqp"
	"salescharts/internal/storage"
	"salescharts/internal/worker"
)

func newImportCmd(opts *options) *cobra.Command {
	var (
		direct bool
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Queue an import of the input into SQLite, or run it now with --direct",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !direct {
				client, err := amqp.NewClient(opts.cfg.AMQPURL, opts.cfg.AMQPExchange, opts.cfg.AMQPQueue)
				if err != nil {
					return err
				}
				defer client.Close()
				jobID, err := client.PublishImport(cmd.Context(), opts.input, opts.sheet)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "queued import %s of %s\n", jobID, opts.input)
				return nil
			}

			if dbPath == "" {
				dbPath = opts.cfg.SQLiteDBPath
			}
			repo, err := storage.NewSQLiteRepository(dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			rec, err := worker.NewImportWorker(repo).Import(cmd.Context(), uuid.NewString(), opts.input, opts.sheet)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "imported %d rows from %s into %s (bad dates: %d, bad amounts: %d)\n",
				rec.RowsTotal, rec.Source, dbPath, rec.BadDates, rec.BadAmounts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&direct, "direct", false, "import into SQLite now instead of queueing a job")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database for --direct (default SQLITE_DB_PATH)")
	return cmd
}
