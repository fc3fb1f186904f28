package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rushteam/sommelier/logging"
	"github.com/rushteam/sommelier/store"
)

var (
	importFrom string
	importTo   string
)

// catalogCmd 不需要模型与历史配置，只初始化日志。
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Catalog maintenance",
	PersistentPreRunE: func(*cobra.Command, []string) error {
		lc := logging.DefaultConfig()
		if logLevel != "" {
			lc.Level = logLevel
		}
		logging.Init(lc)
		return nil
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Parse a JSON catalog and store it in a SQLite database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := logger()

		f, err := os.Open(importFrom)
		if err != nil {
			return err
		}
		defer f.Close()
		wines, err := store.LoadCatalogJSON(f, log)
		if err != nil {
			return err
		}

		db, err := store.OpenSQLite(ctx, importTo)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := store.SaveSQLiteCatalog(ctx, db, wines); err != nil {
			return err
		}
		log.Info().Int("wines", len(wines)).Str("to", importTo).Msg("catalog imported")
		return nil
	},
}

func init() {
	catalogImportCmd.Flags().StringVar(&importFrom, "from", "", "JSON catalog file")
	catalogImportCmd.Flags().StringVar(&importTo, "to", "", "SQLite database path")
	_ = catalogImportCmd.MarkFlagRequired("from")
	_ = catalogImportCmd.MarkFlagRequired("to")
	catalogCmd.AddCommand(catalogImportCmd)
}
