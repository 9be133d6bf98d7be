package sql

import (
	"fmt"

	"github.com/relaydb/mysql-mcp/pkg/apperrors"
)

// OperationKind names the command the caller invoked.
type OperationKind string

const (
	OpQuery        OperationKind = "query"
	OpInsert       OperationKind = "insert"
	OpUpdate       OperationKind = "update"
	OpDelete       OperationKind = "delete"
	OpCreateTable  OperationKind = "create_table"
	OpDropTable    OperationKind = "drop_table"
	OpCreateIndex  OperationKind = "create_index"
	OpDropIndex    OperationKind = "drop_index"
	OpDescribe     OperationKind = "describe"
	OpListTables   OperationKind = "list_tables"
	OpCreateSchema OperationKind = "create_schema"
)

// allowedCategories is the single policy table mapping each operation to the
// statement categories it may execute. Adding an operation requires adding an
// entry here; Authorize rejects operations it does not know.
var allowedCategories = map[OperationKind]map[StatementCategory]bool{
	OpQuery:        {CategorySelect: true},
	OpInsert:       {CategoryInsert: true},
	OpUpdate:       {CategoryUpdate: true},
	OpDelete:       {CategoryDelete: true},
	OpCreateTable:  {CategoryCreateTable: true},
	OpDropTable:    {CategoryDropTable: true},
	OpCreateIndex:  {CategoryCreateIndex: true},
	OpDropIndex:    {CategoryDropIndex: true},
	OpDescribe:     {CategoryDescribe: true},
	OpListTables:   {CategoryListTables: true},
	OpCreateSchema: {CategoryCreateSchema: true},
}

// destructiveOps are operations whose statements must carry a WHERE clause
// unless the caller explicitly confirms an unbounded run.
var destructiveOps = map[OperationKind]bool{
	OpUpdate: true,
	OpDelete: true,
}

// Authorize decides whether the classified statement may execute under the
// invoked operation. It is a pure decision function and never touches the
// database.
//
// An unsupported category fails with apperrors.ErrUnsupported; a category
// outside the operation's allowed set fails with apperrors.ErrCategoryMismatch;
// a destructive statement with no WHERE clause fails with
// apperrors.ErrUnbounded, which the dispatcher may downgrade when the caller
// confirmed the operation.
func Authorize(op OperationKind, c Classification) error {
	allowed, ok := allowedCategories[op]
	if !ok {
		return fmt.Errorf("unknown operation kind %q", op)
	}

	if c.Category == CategoryUnsupported {
		return fmt.Errorf("%w: operation %s", apperrors.ErrUnsupported, op)
	}
	if !allowed[c.Category] {
		return fmt.Errorf("%w: operation %s got %s", apperrors.ErrCategoryMismatch, op, c.Category)
	}
	if destructiveOps[op] && !c.HasCondition {
		return fmt.Errorf("%w: %s without WHERE clause affects every row", apperrors.ErrUnbounded, c.Category)
	}
	return nil
}
