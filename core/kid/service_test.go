package kid_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/kid"
	"github.com/trezcool/mwalimu/storage/localstore"
)

func newService(t *testing.T) kid.Service {
	db, err := localstore.Open("")
	require.NoError(t, err)
	return kid.NewService(localstore.NewKidRepository(db))
}

func newValidator() *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return validate
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	kid.NowFunc = func() time.Time { return now }
	defer func() { kid.NowFunc = time.Now }()

	k, err := svc.Create(ctx, kid.NewKid{Name: "Amani", Age: 9})
	require.NoError(t, err)
	_, err = uuid.Parse(k.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{}, k.Interests)
	assert.Equal(t, now, k.CreatedAt)

	got, err := svc.GetByID(ctx, k.ID)
	require.NoError(t, err)
	assert.Equal(t, k, got)
}

func TestService_GetByID(t *testing.T) {
	svc := newService(t)
	for _, id := range []string{"", "lol", uuid.New().String()} {
		_, err := svc.GetByID(context.Background(), id)
		assert.Equal(t, kid.ErrNotFound, err, id)
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	k, err := svc.Create(ctx, kid.NewKid{Name: "Amani", Age: 9, Personality: "shy", Interests: []string{"maps"}})
	require.NoError(t, err)

	empty := ""
	updated, err := svc.Update(ctx, k.ID, kid.UpdateKid{Age: 10, Personality: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Amani", updated.Name, "unset fields are kept")
	assert.Equal(t, 10, updated.Age)
	assert.Equal(t, "", updated.Personality, "an explicit empty personality clears it")
	assert.Equal(t, []string{"maps"}, updated.Interests)

	_, err = svc.Update(ctx, uuid.New().String(), kid.UpdateKid{Age: 3})
	assert.Equal(t, kid.ErrNotFound, err)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	k1, _ := svc.Create(ctx, kid.NewKid{Name: "Amani", Age: 9})
	k2, _ := svc.Create(ctx, kid.NewKid{Name: "Zawadi", Age: 6})

	n, err := svc.Delete(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.Delete(ctx, k1.ID, k2.ID, uuid.New().String())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	kids, err := svc.Query(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, kids)
}

func TestNewKid_Validate(t *testing.T) {
	validate := newValidator()
	tests := []struct {
		name    string
		data    kid.NewKid
		wantErr bool
	}{
		{name: "valid", data: kid.NewKid{Name: "Amani", Age: 9}},
		{name: "missing name", data: kid.NewKid{Name: "  ", Age: 9}, wantErr: true},
		{name: "too old", data: kid.NewKid{Name: "Amani", Age: 19}, wantErr: true},
		{name: "unknown gender", data: kid.NewKid{Name: "Amani", Age: 9, Gender: "robot"}, wantErr: true},
		{name: "gender is lowered", data: kid.NewKid{Name: "Amani", Age: 9, Gender: " MALE "}},
		{name: "unknown learning style", data: kid.NewKid{Name: "Amani", Age: 9, LearningStyle: "osmosis"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
