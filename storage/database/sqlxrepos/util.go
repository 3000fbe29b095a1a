// Package sqlxrepos implements the repositories on a Postgres database.
package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// validIDs drops the ids postgres would refuse to cast to uuid.
func validIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}

func deleteByID(ctx context.Context, db *sqlx.DB, table string, ids []string) (int, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting "+table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted "+table)
	}
	return int(n), nil
}
