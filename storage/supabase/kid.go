package supabase

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core/kid"
)

const kidsTable = "kids"

type kidRepository struct {
	clients ClientSource
}

var _ kid.Repository = (*kidRepository)(nil) // interface compliance check

// NewKidRepository resolves its client through clients on every call.
func NewKidRepository(clients ClientSource) *kidRepository {
	return &kidRepository{clients: clients}
}

func normalizeKids(kids []kid.Kid) []kid.Kid {
	for i := range kids {
		kids[i].CreatedAt = kids[i].CreatedAt.UTC()
		if kids[i].Interests == nil {
			kids[i].Interests = []string{}
		}
	}
	return kids
}

func (repo kidRepository) one(kids []kid.Kid) (kid.Kid, error) {
	if len(kids) == 0 {
		return kid.Kid{}, kid.ErrNotFound
	}
	return normalizeKids(kids)[0], nil
}

func (repo kidRepository) CreateKid(ctx context.Context, k kid.Kid) (kid.Kid, error) {
	var rows []kid.Kid
	if err := call(ctx, repo.clients, http.MethodPost, kidsTable, nil, k, &rows); err != nil {
		return kid.Kid{}, errors.Wrap(err, "inserting kid")
	}
	return repo.one(rows)
}

func (repo kidRepository) QueryKids(ctx context.Context, filter *kid.QueryFilter) ([]kid.Kid, error) {
	query := url.Values{"select": {"*"}, "order": {"created_at.asc"}}
	if !filter.IsEmpty() {
		query.Set("name", "ilike."+quote("*"+filter.Search+"*"))
	}

	rows := make([]kid.Kid, 0)
	if err := call(ctx, repo.clients, http.MethodGet, kidsTable, query, nil, &rows); err != nil {
		return nil, errors.Wrap(err, "querying kids")
	}
	return normalizeKids(rows), nil
}

func (repo kidRepository) GetKid(ctx context.Context, id string) (kid.Kid, error) {
	if _, err := uuid.Parse(id); err != nil {
		return kid.Kid{}, kid.ErrNotFound
	}
	var rows []kid.Kid
	query := url.Values{"select": {"*"}, "id": {eq(id)}}
	if err := call(ctx, repo.clients, http.MethodGet, kidsTable, query, nil, &rows); err != nil {
		return kid.Kid{}, errors.Wrap(err, "finding kid by ID")
	}
	return repo.one(rows)
}

func (repo kidRepository) UpdateKid(ctx context.Context, k kid.Kid) (kid.Kid, error) {
	var rows []kid.Kid
	if err := call(ctx, repo.clients, http.MethodPatch, kidsTable, url.Values{"id": {eq(k.ID)}}, k, &rows); err != nil {
		return kid.Kid{}, errors.Wrap(err, "updating kid")
	}
	return repo.one(rows)
}

// DeleteKidsByID relies on the tasks.kid_id foreign key to delete the kids' tasks.
func (repo kidRepository) DeleteKidsByID(ctx context.Context, ids []string) (int, error) {
	return deleteByID(ctx, repo.clients, kidsTable, ids)
}

func deleteByID(ctx context.Context, clients ClientSource, table string, ids []string) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	var rows []struct {
		ID string `json:"id"`
	}
	query := url.Values{"id": {in(valid)}, "select": {"id"}}
	if err := call(ctx, clients, http.MethodDelete, table, query, nil, &rows); err != nil {
		return 0, errors.Wrap(err, "deleting "+table)
	}
	return len(rows), nil
}
