package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mwalimu/core/kid"
)

type kidRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Age           int            `db:"age"`
	Gender        null.String    `db:"gender"`
	Interests     pq.StringArray `db:"interests"`
	Personality   null.String    `db:"personality"`
	LearningStyle null.String    `db:"learning_style"`
	CreatedAt     time.Time      `db:"created_at"`
}

type kidRepository struct {
	db *sqlx.DB
}

var _ kid.Repository = (*kidRepository)(nil) // interface compliance check

func NewKidRepository(db *sqlx.DB) *kidRepository {
	return &kidRepository{db: db}
}

func (repo kidRepository) toRow(k kid.Kid) kidRow {
	interests := k.Interests
	if interests == nil {
		interests = []string{}
	}
	return kidRow{
		ID:            k.ID,
		Name:          k.Name,
		Age:           k.Age,
		Gender:        null.NewString(k.Gender, k.Gender != ""),
		Interests:     interests,
		Personality:   null.NewString(k.Personality, k.Personality != ""),
		LearningStyle: null.NewString(k.LearningStyle, k.LearningStyle != ""),
		CreatedAt:     k.CreatedAt.UTC(),
	}
}

func (repo kidRepository) fromRow(row kidRow) kid.Kid {
	interests := []string(row.Interests)
	if interests == nil {
		interests = []string{}
	}
	return kid.Kid{
		ID:            row.ID,
		Name:          row.Name,
		Age:           row.Age,
		Gender:        row.Gender.String,
		Interests:     interests,
		Personality:   row.Personality.String,
		LearningStyle: row.LearningStyle.String,
		CreatedAt:     row.CreatedAt.UTC(),
	}
}

// trapNoRowsErr maps psql "no rows" err to kid.ErrNotFound
func (repo kidRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return kid.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo kidRepository) CreateKid(ctx context.Context, k kid.Kid) (kid.Kid, error) {
	q := `INSERT INTO kids (id, name, age, gender, interests, personality, learning_style, created_at)
		VALUES (:id, :name, :age, :gender, :interests, :personality, :learning_style, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, repo.toRow(k)); err != nil {
		return kid.Kid{}, errors.Wrap(err, "inserting kid")
	}
	return repo.GetKid(ctx, k.ID)
}

func (repo kidRepository) QueryKids(ctx context.Context, filter *kid.QueryFilter) ([]kid.Kid, error) {
	q := "SELECT * FROM kids"
	var args []interface{}
	if !filter.IsEmpty() {
		q += " WHERE name ILIKE $1"
		args = append(args, "%"+filter.Search+"%")
	}
	q += " ORDER BY created_at"

	var rows []kidRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying kids")
	}
	kids := make([]kid.Kid, 0, len(rows))
	for _, row := range rows {
		kids = append(kids, repo.fromRow(row))
	}
	return kids, nil
}

func (repo kidRepository) GetKid(ctx context.Context, id string) (kid.Kid, error) {
	if !isUUID(id) {
		return kid.Kid{}, kid.ErrNotFound
	}
	var row kidRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM kids WHERE id = $1", id); err != nil {
		return kid.Kid{}, repo.trapNoRowsErr(err, "finding kid by ID")
	}
	return repo.fromRow(row), nil
}

func (repo kidRepository) UpdateKid(ctx context.Context, k kid.Kid) (kid.Kid, error) {
	q := `UPDATE kids SET name = :name, age = :age, gender = :gender, interests = :interests,
		personality = :personality, learning_style = :learning_style
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, repo.toRow(k))
	if err != nil {
		return kid.Kid{}, errors.Wrap(err, "updating kid")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return kid.Kid{}, kid.ErrNotFound
	}
	return repo.GetKid(ctx, k.ID)
}

// DeleteKidsByID relies on the tasks.kid_id foreign key to delete the kids' tasks.
func (repo kidRepository) DeleteKidsByID(ctx context.Context, ids []string) (int, error) {
	return deleteByID(ctx, repo.db, "kids", ids)
}
