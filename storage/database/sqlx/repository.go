package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/orbitaplataforma/orbita/core"
)

// repository holds the default executor. Services running a transaction pass theirs per call.
type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// get runs a single-row query written with "?" placeholders. Slice args are expanded for IN clauses.
func (repo repository) get(ctx context.Context, exe core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return exe.GetContext(ctx, dest, exe.Rebind(query), args...)
}

// selectAll runs a query written with "?" placeholders. Slice args are expanded for IN clauses.
func (repo repository) selectAll(ctx context.Context, exe core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return exe.SelectContext(ctx, dest, exe.Rebind(query), args...)
}

func (repo repository) execute(ctx context.Context, exe core.DBExecutor, query string, args ...interface{}) (int64, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return 0, err
	}
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// executeNamed runs a query with ":field" parameters bound from arg's db tags.
func (repo repository) executeNamed(ctx context.Context, exe core.DBExecutor, query string, arg interface{}) (int64, error) {
	res, err := sqlx.NamedExecContext(ctx, exe, query, arg)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// trapNoRowsErr maps "no rows" errors to the domain's not found error
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func newID() string {
	return uuid.New().String()
}

// where builds an AND-ed WHERE clause.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
