// Package repo is the sqlx data access for condominium records. List
// methods take the scope.Predicate computed by the guard and render it
// into the WHERE clause before pagination.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

var (
	// ErrInUse is returned on a foreign key violation.
	ErrInUse = errors.New("record in use")
	// ErrDuplicate is returned on a unique violation.
	ErrDuplicate = errors.New("duplicate record")
)

// scopeColumns names the columns a predicate is rendered against.
// UnitResident is empty for kinds that cannot be reached through a unit.
type scopeColumns struct {
	Owner        string
	Tenant       string
	UnitResident string
}

// where accumulates AND-ed conditions with numbered postgres placeholders.
type where struct {
	parts []string
	args  []any
}

// add appends cond, replacing every %[1]s with the placeholder bound to v.
func (w *where) add(cond string, v any) {
	w.args = append(w.args, v)
	w.parts = append(w.parts, fmt.Sprintf(cond, fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) raw(cond string) { w.parts = append(w.parts, cond) }

// scope renders pred. A None predicate renders FALSE so the query still
// runs and returns nothing.
func (w *where) scope(pred scope.Predicate, cols scopeColumns) {
	if pred.None {
		w.raw("FALSE")
		return
	}
	if pred.OwnerAccountID != "" {
		w.add(cols.Owner+" = %[1]s", pred.OwnerAccountID)
	}
	if pred.UnitResidentID != "" {
		if cols.UnitResident == "" {
			w.raw("FALSE")
		} else {
			w.add(cols.UnitResident+" = %[1]s", pred.UnitResidentID)
		}
	}
	if pred.TenantID != "" {
		w.add(cols.Tenant+" = %[1]s", pred.TenantID)
	}
}

func (w *where) String() string {
	if len(w.parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.parts, " AND ")
}

// next is the placeholder for an argument appended after the current ones.
func (w *where) next(offset int) string { return fmt.Sprintf("$%d", len(w.args)+offset) }

// listPage runs the page query and the count concurrently. from is the
// FROM clause including joins; selectCols the projected columns.
func listPage[T any](ctx context.Context, db *sqlx.DB, selectCols, from string, w *where, order string, limit, offset int) ([]T, int, error) {
	var (
		rows  []T
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := `SELECT ` + selectCols + ` FROM ` + from + w.String() +
			` ORDER BY ` + order + ` LIMIT ` + w.next(1) + ` OFFSET ` + w.next(2)
		return db.SelectContext(gctx, &rows, q, append(append([]any{}, w.args...), limit, offset)...)
	})
	g.Go(func() error {
		return db.GetContext(gctx, &total, `SELECT COUNT(*) FROM `+from+w.String(), w.args...)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrDuplicate
		case "23503":
			return ErrInUse
		}
	}
	return err
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func deleteByID(ctx context.Context, db *sqlx.DB, table, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	return affectedOne(res)
}

func namedUpdate(ctx context.Context, db *sqlx.DB, q string, arg any) error {
	res, err := db.NamedExecContext(ctx, q, arg)
	if err != nil {
		return translate(err)
	}
	return affectedOne(res)
}
