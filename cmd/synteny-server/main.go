// Package main provides the synteny-server command, which serves the
// genome context services over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/syntenic/services/internal/httpapi"
	"github.com/syntenic/services/internal/services"
	"github.com/syntenic/services/internal/store"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// flagEnvs maps every flag to the environment variable it also reads
// from. Value priority: flag > environment > default.
var flagEnvs = map[string]string{
	"redis-host":     "REDIS_HOST",
	"redis-port":     "REDIS_PORT",
	"redis-db":       "REDIS_DB",
	"redis-password": "REDIS_PASSWORD",
	"http-host":      "HTTP_HOST",
	"http-port":      "HTTP_PORT",
	"fan-out-limit":  "FAN_OUT_LIMIT",
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:           "synteny-server",
		Short:         "Serve the genome context synteny services over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v)
		},
	}

	flags := cmd.Flags()
	flags.String("redis-host", "localhost", "Redis host")
	flags.Int("redis-port", 6379, "Redis port")
	flags.Int("redis-db", 0, "Redis database")
	flags.String("redis-password", "", "Redis password")
	flags.String("http-host", "", "host to serve HTTP on")
	flags.Int("http-port", 8080, "port to serve HTTP on")
	flags.Int("fan-out-limit", 8, "maximum concurrent pairwise computations per macro-synteny request")
	if err := bindFlags(v, flags); err != nil {
		panic(err)
	}
	return cmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, env := range flagEnvs {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			return err
		}
		if err := v.BindEnv(name, env); err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, v *viper.Viper) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, store.Options{
		Host:     v.GetString("redis-host"),
		Port:     v.GetInt("redis-port"),
		DB:       v.GetInt("redis-db"),
		Password: v.GetString("redis-password"),
	})
	if err != nil {
		return err
	}
	defer db.Close()

	// refuse to serve a database this build cannot read
	if err := db.CheckSchemaVersion(ctx); err != nil {
		return err
	}

	pairwise := services.NewPairwiseBlocks(db)
	macro := services.NewMacroSyntenyBlocks(db, pairwise)
	macro.SetLogger(logger)
	macro.SetFanOutLimit(v.GetInt("fan-out-limit"))
	geneSearch := services.NewGeneSearch(db)
	chromosomeSearch := services.NewChromosomeSearch(db)
	regions := services.NewRegionService(db)
	federator := services.NewSearchService(geneSearch, chromosomeSearch, regions)
	federator.SetLogger(logger)

	api := httpapi.NewServer(httpapi.Services{
		Chromosomes:      services.NewChromosomeService(db),
		ChromosomeSearch: chromosomeSearch,
		Regions:          regions,
		Genes:            services.NewGeneService(db),
		GeneSearch:       geneSearch,
		Micro:            services.NewMicroSyntenySearch(db),
		Pairwise:         pairwise,
		Macro:            macro,
		Search:           federator,
	}, logger)

	addr := fmt.Sprintf("%s:%d", v.GetString("http-host"), v.GetInt("http-port"))
	server := &http.Server{
		Addr:    addr,
		Handler: api.Router(),
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("serving", zap.String("addr", addr))
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
