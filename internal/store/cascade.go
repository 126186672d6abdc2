package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"funnelhq.app/portal/internal/model"
	"github.com/jackc/pgx/v5"
)

// ErrNoSuccessor is returned when a reassign step runs without a successor account.
var ErrNoSuccessor = errors.New("reassign step requires a successor")

type cascadeStore struct {
	db *sql.DB
}

// NewCascadeStore runs deletion plan steps over database/sql. Table and column
// names come from the plan, so statements are built at runtime rather than
// generated.
func NewCascadeStore(db *sql.DB) CascadeStore {
	return &cascadeStore{db: db}
}

func (s *cascadeStore) Execute(ctx context.Context, step model.DeletionStep, accountID int64, successorID *int64) (int64, error) {
	if len(step.Columns) == 0 {
		return 0, fmt.Errorf("step %s has no columns", step.Name)
	}

	switch step.Action {
	case model.DeletionActionDelete:
		res, err := s.db.ExecContext(ctx, deleteStatement(step), accountID)
		if err != nil {
			return 0, fmt.Errorf("deleting from %s: %w", step.Table, err)
		}
		return res.RowsAffected()

	case model.DeletionActionReassign:
		if successorID == nil {
			return 0, ErrNoSuccessor
		}
		var total int64
		for _, column := range step.Columns {
			res, err := s.db.ExecContext(ctx, reassignStatement(step.Table, column), accountID, *successorID)
			if err != nil {
				return total, fmt.Errorf("reassigning %s.%s: %w", step.Table, column, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return total, err
			}
			total += n
		}
		return total, nil

	default:
		return 0, fmt.Errorf("step %s has unknown action %q", step.Name, step.Action)
	}
}

func deleteStatement(step model.DeletionStep) string {
	conds := make([]string, len(step.Columns))
	for i, column := range step.Columns {
		conds[i] = pgx.Identifier{column}.Sanitize() + " = $1"
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", pgx.Identifier{step.Table}.Sanitize(), strings.Join(conds, " OR "))
}

func reassignStatement(table, column string) string {
	col := pgx.Identifier{column}.Sanitize()
	return fmt.Sprintf("UPDATE %s SET %s = $2 WHERE %s = $1", pgx.Identifier{table}.Sanitize(), col, col)
}
