//go:build integration

package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/manorfm/cpa-auth/internal/infrastructure/database"
	"github.com/manorfm/cpa-auth/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countDomains(t *testing.T, db *database.Postgres) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(context.Background(), "SELECT COUNT(*) FROM domains").Scan(&n))
	return n
}

func TestPostgres_WithTx(t *testing.T) {
	db, _ := testutil.StartPostgres(t)
	ctx := context.Background()

	require.NoError(t, db.Ping())

	t.Run("commit on success", func(t *testing.T) {
		err := db.WithTx(ctx, func(tx database.DBTX) error {
			_, err := tx.Exec(ctx, `INSERT INTO domains (id, name, display_name, access_token) VALUES ('d1', 'one.example', 'One', 'x')`)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countDomains(t, db))
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTx(ctx, func(tx database.DBTX) error {
			if _, err := tx.Exec(ctx, `INSERT INTO domains (id, name, display_name, access_token) VALUES ('d2', 'two.example', 'Two', 'x')`); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, countDomains(t, db))
	})

	t.Run("rollback on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = db.WithTx(ctx, func(tx database.DBTX) error {
				_, _ = tx.Exec(ctx, `INSERT INTO domains (id, name, display_name, access_token) VALUES ('d3', 'three.example', 'Three', 'x')`)
				panic("boom")
			})
		})
		assert.Equal(t, 1, countDomains(t, db))
	})
}
