// Package main provides the synteny-loader command, which populates the
// Redis database the synteny services read from, from either a Chado
// PostgreSQL database or a set of GFF files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/syntenic/services/internal/loader"
	"github.com/syntenic/services/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Every flag also reads from an environment variable; value priority is
// flag > environment > default.
var rootFlagEnvs = map[string]string{
	"redis-host":     "REDIS_HOST",
	"redis-port":     "REDIS_PORT",
	"redis-db":       "REDIS_DB",
	"redis-password": "REDIS_PASSWORD",
	"chunk-size":     "CHUNK_SIZE",
	"load-type":      "LOAD_TYPE",
	"no-save":        "NO_SAVE",
	"sequence-types": "SEQUENCE_TYPES",
}

var gffFlagEnvs = map[string]string{
	"genus":          "GENUS",
	"species":        "SPECIES",
	"strain":         "STRAIN",
	"chromosome-gff": "CHROMOSOME_GFF_FILE",
	"gene-gff":       "GENE_GFF_FILE",
	"gfa":            "GFA_FILE",
}

var chadoFlagEnvs = map[string]string{
	"postgres-database": "POSTGRES_DATABASE",
	"postgres-user":     "POSTGRES_USER",
	"postgres-password": "POSTGRES_PASSWORD",
	"postgres-host":     "POSTGRES_HOST",
	"postgres-port":     "POSTGRES_PORT",
	"uniquename":        "UNIQUENAME",
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:           "synteny-loader",
		Short:         "Load genome data into the synteny services' Redis database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("redis-host", "localhost", "Redis host")
	flags.Int("redis-port", 6379, "Redis port")
	flags.Int("redis-db", 0, "Redis database")
	flags.String("redis-password", "", "Redis password")
	flags.Int("chunk-size", loader.DefaultChunkSize, "batch size for pipelined writes")
	flags.String("load-type", string(loader.LoadTypeAppend), "how to handle existing data: new, reload, or append")
	flags.Bool("no-save", false, "don't save the Redis database to disk after loading")
	flags.StringSlice("sequence-types", loader.DefaultSequenceTypes, "feature types eligible as chromosomes")
	mustBind(v, flags, rootFlagEnvs)

	cmd.AddCommand(newGFFCmd(v))
	cmd.AddCommand(newChadoCmd(v))
	return cmd
}

func newGFFCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gff",
		Short: "Load from a chromosome GFF, a gene GFF, and a gene-family association file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLoader(cmd.Context(), v, func(ctx context.Context, l *loader.Loader, logger *zap.Logger) error {
				cfg := loader.GFFConfig{
					Genus:         v.GetString("genus"),
					Species:       v.GetString("species"),
					Strain:        v.GetString("strain"),
					ChromosomeGFF: v.GetString("chromosome-gff"),
					GeneGFF:       v.GetString("gene-gff"),
					GFA:           v.GetString("gfa"),
					SequenceTypes: v.GetStringSlice("sequence-types"),
				}
				if cfg.Genus == "" || cfg.Species == "" ||
					cfg.ChromosomeGFF == "" || cfg.GeneGFF == "" || cfg.GFA == "" {
					return fmt.Errorf("genus, species, chromosome-gff, gene-gff, and gfa are required")
				}
				return loader.LoadGFF(ctx, l, cfg, logger)
			})
		},
	}
	flags := cmd.Flags()
	flags.String("genus", "", "genus of the organism being loaded")
	flags.String("species", "", "species of the organism being loaded")
	flags.String("strain", "", "strain of the organism being loaded")
	flags.String("chromosome-gff", "", "GFF file to load chromosomes from (.gz ok)")
	flags.String("gene-gff", "", "GFF file to load genes from (.gz ok)")
	flags.String("gfa", "", "tab-separated gene to family association file (.gz ok)")
	mustBind(v, flags, gffFlagEnvs)
	return cmd
}

func newChadoCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chado",
		Short: "Load from a Chado PostgreSQL database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLoader(cmd.Context(), v, func(ctx context.Context, l *loader.Loader, logger *zap.Logger) error {
				cfg := loader.ChadoConfig{
					Database:      v.GetString("postgres-database"),
					User:          v.GetString("postgres-user"),
					Password:      v.GetString("postgres-password"),
					Host:          v.GetString("postgres-host"),
					Port:          v.GetInt("postgres-port"),
					UniqueName:    v.GetBool("uniquename"),
					SequenceTypes: v.GetStringSlice("sequence-types"),
				}
				if cfg.Database == "" {
					return fmt.Errorf("postgres-database is required")
				}
				return loader.LoadChado(ctx, l, cfg, logger)
			})
		},
	}
	flags := cmd.Flags()
	flags.String("postgres-database", "", "PostgreSQL database to load from")
	flags.String("postgres-user", "chado", "PostgreSQL user")
	flags.String("postgres-password", "", "PostgreSQL password")
	flags.String("postgres-host", "localhost", "PostgreSQL host")
	flags.Int("postgres-port", 5432, "PostgreSQL port")
	flags.Bool("uniquename", false, "name features by the uniquename column instead of name")
	mustBind(v, flags, chadoFlagEnvs)
	return cmd
}

func mustBind(v *viper.Viper, flags *pflag.FlagSet, envs map[string]string) {
	for name, env := range envs {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
		if err := v.BindEnv(name, env); err != nil {
			panic(err)
		}
	}
}

// withLoader opens the loader, runs the source-specific load, and closes
// the loader, saving to disk unless --no-save was given.
func withLoader(ctx context.Context, v *viper.Viper, load func(context.Context, *loader.Loader, *zap.Logger) error) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loadType, err := loader.ParseLoadType(v.GetString("load-type"))
	if err != nil {
		return err
	}
	l, err := loader.Open(ctx,
		store.Options{
			Host:     v.GetString("redis-host"),
			Port:     v.GetInt("redis-port"),
			DB:       v.GetInt("redis-db"),
			Password: v.GetString("redis-password"),
		},
		loader.Options{
			LoadType:  loadType,
			ChunkSize: v.GetInt("chunk-size"),
			NoSave:    v.GetBool("no-save"),
		},
		logger,
	)
	if err != nil {
		return err
	}

	if err := load(ctx, l, logger); err != nil {
		l.Close(ctx)
		return err
	}
	return l.Close(ctx)
}
