package sql

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydb/mysql-mcp/pkg/apperrors"
)

func TestValidateIdentifier(t *testing.T) {
	valid := []string{
		"users",
		"Users",
		"user_accounts",
		"t1",
		"_private",
		"$special",
		"table$2026",
		strings.Repeat("a", 64),
	}
	for _, name := range valid {
		t.Run("valid/"+name, func(t *testing.T) {
			assert.NoError(t, ValidateIdentifier(name))
		})
	}

	invalid := []string{
		"",
		strings.Repeat("a", 65),
		"user-accounts",
		"users table",
		"users;",
		"users`",
		"`users`",
		"users; DROP TABLE users",
		"users' OR '1'='1",
		"users\n",
		"schema.users", // qualification is ValidateTableName's job
	}
	for _, name := range invalid {
		t.Run("invalid/"+strings.ReplaceAll(name, "\n", "\\n"), func(t *testing.T) {
			err := ValidateIdentifier(name)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidIdentifier), "expected ErrInvalidIdentifier, got %v", err)
		})
	}
}

func TestValidateTableName(t *testing.T) {
	assert.NoError(t, ValidateTableName("users"))
	assert.NoError(t, ValidateTableName("analytics.events"))

	tests := []string{
		"a.b.c",
		".users",
		"users.",
		"analytics.ev;ents",
		"",
	}
	for _, name := range tests {
		err := ValidateTableName(name)
		require.Error(t, err, "name %q", name)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidIdentifier), "name %q: got %v", name, err)
	}
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, "`users`", QuoteIdentifier("users"))
	assert.Equal(t, "`analytics`.`events`", QuoteIdentifier("analytics.events"))
}

// Generated DDL built from a validated and quoted name must classify as the
// intended category. This ties the identifier guard to the statement gate.
func TestValidatedNamesProduceParseableDDL(t *testing.T) {
	for _, table := range []string{"users", "analytics.events", "_tmp$1"} {
		require.NoError(t, ValidateTableName(table))

		c, err := Classify("DROP TABLE IF EXISTS " + QuoteIdentifier(table))
		require.NoError(t, err, "table %q", table)
		assert.Equal(t, CategoryDropTable, c.Category)
	}

	c, err := Classify("DROP INDEX " + QuoteIdentifier("idx_name") + " ON " + QuoteIdentifier("users"))
	require.NoError(t, err)
	assert.Equal(t, CategoryDropIndex, c.Category)

	c, err = Classify("CREATE DATABASE IF NOT EXISTS " + QuoteIdentifier("analytics"))
	require.NoError(t, err)
	assert.Equal(t, CategoryCreateSchema, c.Category)
}
