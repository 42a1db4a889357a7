package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"
)

// ErrSchemaVersion is returned when the stored schema version is outside
// this build's compatibility set. It is fatal at startup.
var ErrSchemaVersion = errors.New("incompatible schema version")

// StoredSchemaVersion reads the schema version of the connected
// database. A populated database that predates the version key is
// attributed AssumedLegacyVersion; an empty database returns "".
func (s *Store) StoredSchemaVersion(ctx context.Context) (string, error) {
	version, err := s.rdb.Get(ctx, VersionKey).Result()
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("read schema version: %w", err)
	}
	// no version key: decide between a legacy database and an empty one
	// by whether the indexes exist
	if s.indexExists(ctx, GeneIndex) && s.indexExists(ctx, ChromosomeIndex) {
		return AssumedLegacyVersion, nil
	}
	return "", nil
}

// CheckSchemaVersion verifies the stored schema version is one this
// build can read. Services call this at startup and refuse to run on a
// mismatch.
func (s *Store) CheckSchemaVersion(ctx context.Context) error {
	version, err := s.StoredSchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version == "" {
		return fmt.Errorf("no database found: %w", ErrSchemaVersion)
	}
	if !slices.Contains(CompatibleVersions, version) {
		return fmt.Errorf("stored schema version %s is not among compatible versions %v: %w",
			version, CompatibleVersions, ErrSchemaVersion)
	}
	return nil
}

func (s *Store) indexExists(ctx context.Context, index string) bool {
	_, err := s.rdb.FTInfo(ctx, index).Result()
	return err == nil
}
