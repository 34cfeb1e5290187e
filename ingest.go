package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bitmark-inc/covid-trends/ingest"
	"github.com/bitmark-inc/covid-trends/metrics"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Read every source once and save the merged series",
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sources, err := newSources()
	if err != nil {
		return err
	}

	svc, err := newServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	p := ingest.New(sources, svc.store, metrics.NewMetrics(), ingestOptions())
	if svc.areaSaver != nil {
		p.SetAreaSaver(svc.areaSaver)
	}

	result, err := p.Run(ctx)
	if err != nil {
		log.WithField("prefix", logPrefix).Errorf("ingest: %s", err)
		return err
	}

	cmd.Printf("run %s: %d series merged from %d fragments (%d of %d sources failed)\n",
		result.RunID, result.Series, result.Fragments, result.FailedSources, result.Sources)
	return nil
}
