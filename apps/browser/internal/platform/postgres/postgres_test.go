package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/cache", pgx5URL("postgres://u:p@db:5432/cache"))
	assert.Equal(t, "pgx5://u:p@db/cache?sslmode=disable", pgx5URL("postgresql://u:p@db/cache?sslmode=disable"))
	assert.Equal(t, "pgx5://already", pgx5URL("pgx5://already"))
}
