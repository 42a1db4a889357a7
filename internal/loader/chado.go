package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ChadoConfig locates a Chado PostgreSQL database to load from.
// UniqueName selects the feature table's uniquename column over its
// display name column.
type ChadoConfig struct {
	Database      string
	User          string
	Password      string
	Host          string
	Port          int
	UniqueName    bool
	SequenceTypes []string
}

func (cfg ChadoConfig) connString() string {
	parts := []string{
		fmt.Sprintf("dbname=%s", cfg.Database),
		fmt.Sprintf("user=%s", cfg.User),
	}
	if cfg.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", cfg.Password))
	}
	if cfg.Host != "" {
		parts = append(parts, fmt.Sprintf("host=%s", cfg.Host))
	}
	if cfg.Port != 0 {
		parts = append(parts, fmt.Sprintf("port=%d", cfg.Port))
	}
	return strings.Join(parts, " ")
}

func (cfg ChadoConfig) nameColumn() string {
	if cfg.UniqueName {
		return "uniquename"
	}
	return "name"
}

func (cfg ChadoConfig) sequenceTypes() []string {
	if len(cfg.SequenceTypes) == 0 {
		return DefaultSequenceTypes
	}
	return cfg.SequenceTypes
}

// LoadChado loads chromosomes and genes from a Chado database. A missing
// sequence-type, "gene", or "gene family" CV term is fatal; genes whose
// source feature is not among the loaded chromosomes are skipped.
func LoadChado(ctx context.Context, idx Indexer, cfg ChadoConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := pgx.Connect(ctx, cfg.connString())
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer conn.Close(ctx)

	chromosomeNames, err := transferChromosomes(ctx, conn, idx, cfg, logger)
	if err != nil {
		return err
	}
	return transferGenes(ctx, conn, idx, cfg, chromosomeNames, logger)
}

// cvterm resolves a CV term to its database id, optionally requiring a
// specific CV.
func cvterm(ctx context.Context, conn *pgx.Conn, name, cv string) (int, error) {
	query := "SELECT cvterm_id FROM cvterm WHERE name = $1"
	args := []any{name}
	if cv != "" {
		query += " AND cv_id = (SELECT cv_id FROM cv WHERE name = $2)"
		args = append(args, cv)
	}
	var id int
	err := conn.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("cvterm %q not found", name)
	}
	if err != nil {
		return 0, fmt.Errorf("load cvterm %q: %w", name, err)
	}
	return id, nil
}

type organism struct {
	genus   string
	species string
}

// transferChromosomes indexes every feature of an eligible sequence type
// and returns a feature id to name map for the gene transfer.
func transferChromosomes(ctx context.Context, conn *pgx.Conn, idx Indexer, cfg ChadoConfig, logger *zap.Logger) (map[int]string, error) {
	typeIDs := make([]int, 0, len(cfg.sequenceTypes()))
	for _, t := range cfg.sequenceTypes() {
		id, err := cvterm(ctx, conn, t, "sequence")
		if err != nil {
			return nil, err
		}
		typeIDs = append(typeIDs, id)
	}

	organisms := make(map[int]organism)
	rows, err := conn.Query(ctx, "SELECT organism_id, genus, species FROM organism")
	if err != nil {
		return nil, fmt.Errorf("load organisms: %w", err)
	}
	for rows.Next() {
		var (
			id int
			o  organism
		)
		if err := rows.Scan(&id, &o.genus, &o.species); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan organism: %w", err)
		}
		organisms[id] = o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load organisms: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT feature_id, %s, organism_id, seqlen FROM feature WHERE type_id = ANY($1)",
		cfg.nameColumn())
	rows, err = conn.Query(ctx, query, typeIDs)
	if err != nil {
		return nil, fmt.Errorf("load chromosomes: %w", err)
	}
	defer rows.Close()

	names := make(map[int]string)
	for rows.Next() {
		var (
			id         int
			name       string
			organismID int
			length     int64
		)
		if err := rows.Scan(&id, &name, &organismID, &length); err != nil {
			return nil, fmt.Errorf("scan chromosome: %w", err)
		}
		o := organisms[organismID]
		if err := idx.IndexChromosome(ctx, name, length, o.genus, o.species); err != nil {
			return nil, err
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load chromosomes: %w", err)
	}
	logger.Info("indexed chromosomes", zap.Int("count", len(names)))
	return names, nil
}

// transferGenes indexes every gene feature located on a loaded
// chromosome, with family assignments from the "gene family" featureprop.
func transferGenes(ctx context.Context, conn *pgx.Conn, idx Indexer, cfg ChadoConfig, chromosomeNames map[int]string, logger *zap.Logger) error {
	geneType, err := cvterm(ctx, conn, "gene", "sequence")
	if err != nil {
		return err
	}
	familyType, err := cvterm(ctx, conn, "gene family", "")
	if err != nil {
		return err
	}

	families := make(map[int]string)
	rows, err := conn.Query(ctx,
		"SELECT feature_id, value FROM featureprop WHERE type_id = $1", familyType)
	if err != nil {
		return fmt.Errorf("load gene families: %w", err)
	}
	for rows.Next() {
		var (
			id     int
			family string
		)
		if err := rows.Scan(&id, &family); err != nil {
			rows.Close()
			return fmt.Errorf("scan gene family: %w", err)
		}
		families[id] = family
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load gene families: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT fl.srcfeature_id, f.feature_id, f.%s, fl.fmin, fl.fmax, fl.strand "+
			"FROM featureloc fl, feature f "+
			"WHERE fl.feature_id = f.feature_id AND f.type_id = $1",
		cfg.nameColumn())
	rows, err = conn.Query(ctx, query, geneType)
	if err != nil {
		return fmt.Errorf("load genes: %w", err)
	}
	defer rows.Close()

	byChromosome := make(map[int][]Gene)
	for rows.Next() {
		var (
			chromosomeID int
			geneID       int
			gene         Gene
		)
		if err := rows.Scan(&chromosomeID, &geneID, &gene.Name, &gene.Fmin, &gene.Fmax, &gene.Strand); err != nil {
			return fmt.Errorf("scan gene: %w", err)
		}
		if _, ok := chromosomeNames[chromosomeID]; !ok {
			continue
		}
		gene.Family = families[geneID]
		byChromosome[chromosomeID] = append(byChromosome[chromosomeID], gene)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load genes: %w", err)
	}

	for chromosomeID, genes := range byChromosome {
		name := chromosomeNames[chromosomeID]
		if err := idx.IndexChromosomeGenes(ctx, name, genes); err != nil {
			return err
		}
		logger.Info("indexed genes",
			zap.String("chromosome", name),
			zap.Int("count", len(genes)))
	}
	return nil
}
