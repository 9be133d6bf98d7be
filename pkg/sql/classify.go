// Package sql implements the statement safety gate: structural classification
// of SQL text, the operation/category policy table, and identifier validation
// for generated DDL.
package sql

import (
	"fmt"

	"github.com/pingcap/tidb/parser"
	"github.com/pingcap/tidb/parser/ast"
	_ "github.com/pingcap/tidb/parser/test_driver" // value expression impl for the parser

	"github.com/relaydb/mysql-mcp/pkg/apperrors"
)

// StatementCategory is the structural classification of a SQL statement's
// top-level intent, independent of its concrete table or column references.
type StatementCategory string

const (
	CategorySelect       StatementCategory = "select"
	CategoryInsert       StatementCategory = "insert"
	CategoryUpdate       StatementCategory = "update"
	CategoryDelete       StatementCategory = "delete"
	CategoryCreateTable  StatementCategory = "create_table"
	CategoryDropTable    StatementCategory = "drop_table"
	CategoryCreateIndex  StatementCategory = "create_index"
	CategoryDropIndex    StatementCategory = "drop_index"
	CategoryDescribe     StatementCategory = "describe"
	CategoryListTables   StatementCategory = "list_tables"
	CategoryCreateSchema StatementCategory = "create_schema"
	CategoryUnsupported  StatementCategory = "unsupported"
)

// Classification is the result of classifying one SQL statement.
type Classification struct {
	Category StatementCategory

	// HasCondition reports whether an UPDATE or DELETE carries a WHERE clause.
	// Always true for categories where the question does not apply.
	HasCondition bool
}

// Classify parses sqlText with the MySQL grammar and returns its category.
//
// The text must contain exactly one statement. Statement boundaries come from
// the parser, so semicolons inside string literals or comments never count.
// Statements that parse but use constructs outside the supported subset
// classify as CategoryUnsupported rather than being downgraded.
//
// Classify is a pure function and safe for concurrent use: a parser instance
// is not goroutine-safe, so each call builds its own.
func Classify(sqlText string) (Classification, error) {
	stmts, _, err := parser.New().ParseSQL(sqlText)
	if err != nil {
		return Classification{}, fmt.Errorf("%w: %v", apperrors.ErrParse, err)
	}
	if len(stmts) == 0 {
		return Classification{}, fmt.Errorf("%w: empty statement", apperrors.ErrParse)
	}
	if len(stmts) > 1 {
		return Classification{}, fmt.Errorf("%w: %d statements provided, exactly one required",
			apperrors.ErrParse, len(stmts))
	}
	return classifyNode(stmts[0]), nil
}

func classifyNode(node ast.StmtNode) Classification {
	switch stmt := node.(type) {
	case *ast.SelectStmt:
		// SELECT ... INTO OUTFILE/DUMPFILE/variables writes outside the
		// result set; never downgrade it to a plain select.
		if stmt.SelectIntoOpt != nil {
			return Classification{Category: CategoryUnsupported, HasCondition: true}
		}
		return Classification{Category: CategorySelect, HasCondition: true}

	case *ast.SetOprStmt:
		// UNION/EXCEPT/INTERSECT of selects reads like a select, unless any
		// arm carries INTO: the whole statement then writes outside the
		// result set.
		if setOprContainsInto(stmt.SelectList) {
			return Classification{Category: CategoryUnsupported, HasCondition: true}
		}
		return Classification{Category: CategorySelect, HasCondition: true}

	case *ast.InsertStmt:
		if stmt.IsReplace {
			// REPLACE deletes conflicting rows before inserting.
			return Classification{Category: CategoryUnsupported, HasCondition: true}
		}
		return Classification{Category: CategoryInsert, HasCondition: true}

	case *ast.UpdateStmt:
		return Classification{Category: CategoryUpdate, HasCondition: stmt.Where != nil}

	case *ast.DeleteStmt:
		return Classification{Category: CategoryDelete, HasCondition: stmt.Where != nil}

	case *ast.CreateTableStmt:
		return Classification{Category: CategoryCreateTable, HasCondition: true}

	case *ast.DropTableStmt:
		if stmt.IsView {
			return Classification{Category: CategoryUnsupported, HasCondition: true}
		}
		return Classification{Category: CategoryDropTable, HasCondition: true}

	case *ast.CreateIndexStmt:
		return Classification{Category: CategoryCreateIndex, HasCondition: true}

	case *ast.CreateDatabaseStmt:
		return Classification{Category: CategoryCreateSchema, HasCondition: true}

	case *ast.DropIndexStmt:
		return Classification{Category: CategoryDropIndex, HasCondition: true}

	case *ast.ShowStmt:
		return classifyShow(stmt)

	case *ast.ExplainStmt:
		// DESCRIBE t / DESC t parses as an explain wrapping SHOW COLUMNS.
		if show, ok := stmt.Stmt.(*ast.ShowStmt); ok {
			return classifyShow(show)
		}
		return Classification{Category: CategoryUnsupported, HasCondition: true}

	default:
		return Classification{Category: CategoryUnsupported, HasCondition: true}
	}
}

// setOprContainsInto walks every arm of a set operation, descending into
// nested set operations, and reports whether any select carries an INTO
// clause.
func setOprContainsInto(list *ast.SetOprSelectList) bool {
	if list == nil {
		return false
	}
	for _, sel := range list.Selects {
		switch s := sel.(type) {
		case *ast.SelectStmt:
			if s.SelectIntoOpt != nil {
				return true
			}
		case *ast.SetOprSelectList:
			if setOprContainsInto(s) {
				return true
			}
		}
	}
	return false
}

func classifyShow(stmt *ast.ShowStmt) Classification {
	switch stmt.Tp {
	case ast.ShowTables:
		return Classification{Category: CategoryListTables, HasCondition: true}
	case ast.ShowColumns:
		return Classification{Category: CategoryDescribe, HasCondition: true}
	default:
		return Classification{Category: CategoryUnsupported, HasCondition: true}
	}
}
