package localstore

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/mwalimu/core/kid"
	"github.com/trezcool/mwalimu/core/task"
)

type kidRepository struct {
	db *DB
}

var _ kid.Repository = (*kidRepository)(nil) // interface compliance check

func NewKidRepository(db *DB) *kidRepository {
	return &kidRepository{db: db}
}

func copyKid(k kid.Kid) kid.Kid {
	if k.Interests != nil {
		k.Interests = append([]string{}, k.Interests...)
	}
	return k
}

func sortKids(kids []kid.Kid) {
	sort.SliceStable(kids, func(i, j int) bool {
		if kids[i].CreatedAt.Equal(kids[j].CreatedAt) {
			return kids[i].ID < kids[j].ID
		}
		return kids[i].CreatedAt.Before(kids[j].CreatedAt)
	})
}

func (repo *kidRepository) CreateKid(_ context.Context, k kid.Kid) (kid.Kid, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prev, existed := repo.db.kids[k.ID]
	k = copyKid(k)
	repo.db.kids[k.ID] = &k
	if err := repo.db.persist(); err != nil {
		if existed {
			repo.db.kids[k.ID] = prev
		} else {
			delete(repo.db.kids, k.ID)
		}
		return kid.Kid{}, err
	}
	return copyKid(k), nil
}

func (repo *kidRepository) QueryKids(_ context.Context, filter *kid.QueryFilter) ([]kid.Kid, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	kids := make([]kid.Kid, 0, len(repo.db.kids))
	for _, k := range repo.db.kids {
		if !filter.IsEmpty() && !strings.Contains(strings.ToLower(k.Name), strings.ToLower(filter.Search)) {
			continue
		}
		kids = append(kids, copyKid(*k))
	}
	sortKids(kids)
	return kids, nil
}

func (repo *kidRepository) GetKid(_ context.Context, id string) (kid.Kid, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if k, ok := repo.db.kids[id]; ok {
		return copyKid(*k), nil
	}
	return kid.Kid{}, kid.ErrNotFound
}

func (repo *kidRepository) UpdateKid(_ context.Context, k kid.Kid) (kid.Kid, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prev, ok := repo.db.kids[k.ID]
	if !ok {
		return kid.Kid{}, kid.ErrNotFound
	}
	k = copyKid(k)
	repo.db.kids[k.ID] = &k
	if err := repo.db.persist(); err != nil {
		repo.db.kids[k.ID] = prev
		return kid.Kid{}, err
	}
	return copyKid(k), nil
}

// DeleteKidsByID deletes the kids and their tasks.
func (repo *kidRepository) DeleteKidsByID(_ context.Context, ids []string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	kids := make(map[string]*kid.Kid)
	tasks := make(map[string]*task.Task)
	for _, id := range ids {
		k, ok := repo.db.kids[id]
		if !ok {
			continue
		}
		kids[id] = k
		delete(repo.db.kids, id)
		for tID, t := range repo.db.tasks {
			if t.KidID == id {
				tasks[tID] = t
				delete(repo.db.tasks, tID)
			}
		}
	}
	if len(kids) == 0 {
		return 0, nil
	}
	if err := repo.db.persist(); err != nil {
		for id, k := range kids {
			repo.db.kids[id] = k
		}
		for id, t := range tasks {
			repo.db.tasks[id] = t
		}
		return 0, err
	}
	return len(kids), nil
}
