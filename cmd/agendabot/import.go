package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rahul/agendabot/internal/store"
)

func addImportCSV(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "import-csv <file>",
		Short: "One-shot import of a legacy agenda.csv into an empty store",
		Example: `
agendabot import-csv data/agenda.csv
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires exactly one CSV file")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loc, err := loadConfig(ro)
			if err != nil {
				return err
			}
			if cfg.Memory.Type == "memory" {
				return errors.New("import into the in-memory store would be lost on exit")
			}
			st, err := openStore(cfg, loc)
			if err != nil {
				return err
			}
			defer st.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := store.ImportCSV(context.Background(), st, f, time.Now(), loc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d items, skipped %d rows\n", res.Imported, res.Skipped)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
