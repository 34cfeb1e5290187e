package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bitmark-inc/covid-trends/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the postgres series table",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if t := viper.GetString("store.type"); t != storeTypePostgres {
		return fmt.Errorf("store type %q needs no migration", t)
	}

	ormDB, err := openPostgres()
	if err != nil {
		return err
	}
	defer ormDB.Close()

	if err := store.MigratePostgres(ormDB); err != nil {
		return err
	}
	log.WithField("prefix", logPrefix).Info("series table migrated")
	return nil
}
