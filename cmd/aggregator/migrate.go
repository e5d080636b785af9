package main

import (
	"log/slog"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/baxromumarov/job-aggregator/internal/store"
)

var migrateSeedFile string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the schema and optionally seed sites from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		slog.Info("migrations executed successfully", "driver", st.Driver())

		if migrateSeedFile == "" {
			return nil
		}
		sites, err := store.NewFileSites(migrateSeedFile).ListSites(ctx)
		if err != nil {
			return eris.Wrap(err, "read seed file")
		}
		for _, site := range sites {
			if err := st.SaveSite(ctx, site); err != nil {
				return eris.Wrapf(err, "seed site %s", site.ID)
			}
		}
		slog.Info("sites seeded", "count", len(sites), "file", migrateSeedFile)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateSeedFile, "seed", "", "YAML sites file to upsert into the sites table")
}
