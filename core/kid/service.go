package kid

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("kid not found")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateKid(ctx context.Context, k Kid) (Kid, error)
		// QueryKids returns kids ordered by creation date.
		// QueryFilter.Search does a case-insensitive match on Kid.Name.
		QueryKids(ctx context.Context, filter *QueryFilter) ([]Kid, error)
		GetKid(ctx context.Context, id string) (Kid, error)
		UpdateKid(ctx context.Context, k Kid) (Kid, error)
		// DeleteKidsByID deletes the kids and their tasks.
		DeleteKidsByID(ctx context.Context, ids []string) (int, error)
	}

	Service interface {
		Create(ctx context.Context, nk NewKid) (Kid, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Kid, error)
		GetByID(ctx context.Context, id string) (Kid, error)
		Update(ctx context.Context, id string, uk UpdateKid) (Kid, error)
		Delete(ctx context.Context, ids ...string) (int, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nk NewKid) (Kid, error) {
	interests := nk.Interests
	if interests == nil {
		interests = []string{}
	}
	k := Kid{
		ID:            uuid.New().String(),
		Name:          nk.Name,
		Age:           nk.Age,
		Gender:        nk.Gender,
		Interests:     interests,
		Personality:   nk.Personality,
		LearningStyle: nk.LearningStyle,
		CreatedAt:     NowFunc().UTC(),
	}
	return svc.repo.CreateKid(ctx, k)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Kid, error) {
	return svc.repo.QueryKids(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id string) (Kid, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Kid{}, ErrNotFound
	}
	return svc.repo.GetKid(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, uk UpdateKid) (Kid, error) {
	k, err := svc.GetByID(ctx, id)
	if err != nil {
		return Kid{}, err
	}
	return svc.repo.UpdateKid(ctx, uk.Apply(k))
}

func (svc *service) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return svc.repo.DeleteKidsByID(ctx, ids)
}
