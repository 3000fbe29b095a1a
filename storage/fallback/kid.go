package fallback

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/kid"
)

type kidRepository struct {
	primary kid.Repository
	local   kid.Repository
	log     core.Logger
}

var _ kid.Repository = (*kidRepository)(nil) // interface compliance check

func (repo *kidRepository) fallBack(op string, err error) bool {
	if !shouldFallBack(err, kid.ErrNotFound) {
		return false
	}
	logFallBack(repo.log, "kids", op, err)
	return true
}

func (repo *kidRepository) mirror(ctx context.Context, k kid.Kid) {
	_, err := repo.local.UpdateKid(ctx, k)
	if err == kid.ErrNotFound {
		_, err = repo.local.CreateKid(ctx, k)
	}
	if err != nil {
		repo.log.Warn("kids: mirroring to local store failed", err)
	}
}

// localOnly returns the local copy of a kid the hosted backend does not know,
// e.g. one created while the hosted backend was down.
func (repo *kidRepository) localOnly(ctx context.Context, id string, err error) (kid.Kid, bool) {
	if errors.Cause(err) != kid.ErrNotFound {
		return kid.Kid{}, false
	}
	k, lErr := repo.local.GetKid(ctx, id)
	return k, lErr == nil
}

func (repo *kidRepository) CreateKid(ctx context.Context, k kid.Kid) (kid.Kid, error) {
	created, err := repo.primary.CreateKid(ctx, k)
	if repo.fallBack("create", err) {
		return repo.local.CreateKid(ctx, k)
	}
	if err == nil {
		repo.mirror(ctx, created)
	}
	return created, err
}

func (repo *kidRepository) QueryKids(ctx context.Context, filter *kid.QueryFilter) ([]kid.Kid, error) {
	kids, err := repo.primary.QueryKids(ctx, filter)
	if repo.fallBack("query", err) {
		return repo.local.QueryKids(ctx, filter)
	}
	return kids, err
}

func (repo *kidRepository) GetKid(ctx context.Context, id string) (kid.Kid, error) {
	k, err := repo.primary.GetKid(ctx, id)
	if repo.fallBack("get", err) {
		return repo.local.GetKid(ctx, id)
	}
	if lk, ok := repo.localOnly(ctx, id, err); ok {
		return lk, nil
	}
	return k, err
}

func (repo *kidRepository) UpdateKid(ctx context.Context, k kid.Kid) (kid.Kid, error) {
	updated, err := repo.primary.UpdateKid(ctx, k)
	if repo.fallBack("update", err) {
		return repo.local.UpdateKid(ctx, k)
	}
	if _, ok := repo.localOnly(ctx, k.ID, err); ok {
		// push the local-only kid up now that the hosted backend answers
		updated, err = repo.primary.CreateKid(ctx, k)
		if repo.fallBack("push local kid", err) {
			return repo.local.UpdateKid(ctx, k)
		}
	}
	if err == nil {
		repo.mirror(ctx, updated)
	}
	return updated, err
}

func (repo *kidRepository) DeleteKidsByID(ctx context.Context, ids []string) (int, error) {
	n, err := repo.primary.DeleteKidsByID(ctx, ids)
	if repo.fallBack("delete", err) {
		return repo.local.DeleteKidsByID(ctx, ids)
	}
	if err == nil {
		if _, lErr := repo.local.DeleteKidsByID(ctx, ids); lErr != nil {
			repo.log.Warn("kids: mirroring delete to local store failed", lErr)
		}
	}
	return n, err
}
