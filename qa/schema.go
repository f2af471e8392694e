package qa

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

type Dialect string

const (
	DialectRedshift Dialect = "redshift"
	DialectPostgres Dialect = "postgres"
)

func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case DialectRedshift, DialectPostgres:
		return Dialect(s), nil
	}
	return "", fmt.Errorf("unknown dialect %q (want redshift or postgres)", s)
}

const createTable = `CREATE TABLE IF NOT EXISTS qa_assessments (
	id VARCHAR(255) PRIMARY KEY,
	conversation_id VARCHAR(255) NOT NULL UNIQUE,
	reviewer_id VARCHAR(255) NOT NULL DEFAULT 'system',
	rating VARCHAR(10),
	tags VARCHAR(1000) DEFAULT '',
	notes VARCHAR(65535),
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// Redshift has no secondary indexes; the sort key serves the
// conversation_id lookups and the latest-by-updated_at ordering.
const redshiftSortKey = `
SORTKEY(conversation_id, updated_at)`

// EnsureSchema creates qa_assessments if it does not exist. Safe to rerun.
func (s *Store) EnsureSchema(ctx context.Context, d Dialect) error {
	ddl := createTable
	if d == DialectRedshift {
		ddl += redshiftSortKey
	}

	if _, err := s.execute(ctx, ddl); err != nil {
		log.Error().Err(err).Str("dialect", string(d)).Msg("Failed to create qa_assessments")
		return err
	}

	log.Info().Str("dialect", string(d)).Msg("qa_assessments table ready")
	return nil
}
