package sql

import (
	"fmt"
	"regexp"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/relaydb/mysql-mcp/pkg/apperrors"
)

// maxIdentifierLength matches the MySQL limit for schema object names.
const maxIdentifierLength = 64

// identifierPattern is the MySQL unquoted-identifier charset. Anything a
// caller wants beyond this would need quoting, which we refuse: these names
// are interpolated into generated DDL.
var identifierPattern = regexp.MustCompile(`^[0-9a-zA-Z$_]+$`)

// ValidateIdentifier checks a caller-supplied table, index, or schema name
// before it is interpolated into generated SQL. The charset check alone makes
// injection impossible; the libinjection pass is kept as a second opinion so a
// future relaxation of the charset cannot silently drop it.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", apperrors.ErrInvalidIdentifier)
	}
	if len(name) > maxIdentifierLength {
		return fmt.Errorf("%w: %q exceeds %d characters", apperrors.ErrInvalidIdentifier, name, maxIdentifierLength)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q contains characters outside [0-9a-zA-Z$_]", apperrors.ErrInvalidIdentifier, name)
	}
	if isSQLi, fingerprint := libinjection.IsSQLi(name); isSQLi {
		return fmt.Errorf("%w: %q matches injection fingerprint %s", apperrors.ErrInvalidIdentifier, name, fingerprint)
	}
	return nil
}

// ValidateTableName accepts a bare table name or a schema-qualified
// "schema.table" and validates each part.
func ValidateTableName(name string) error {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return fmt.Errorf("%w: %q has more than one qualifier", apperrors.ErrInvalidIdentifier, name)
	}
	for _, part := range parts {
		if err := ValidateIdentifier(part); err != nil {
			return err
		}
	}
	return nil
}

// QuoteIdentifier backtick-quotes a validated identifier, quoting each part
// of a schema-qualified name separately.
func QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = "`" + part + "`"
	}
	return strings.Join(parts, ".")
}
