package settings_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/settings"
	"github.com/trezcool/mwalimu/storage/localstore"
)

type replaced struct {
	url, key string
}

func newService(t *testing.T, defaultPIN string) (settings.Service, *[]replaced) {
	db, err := localstore.Open("")
	require.NoError(t, err)
	var calls []replaced
	svc := settings.NewService(localstore.NewSettingsRepository(db), defaultPIN, func(url, key string) {
		calls = append(calls, replaced{url, key})
	})
	return svc, &calls
}

func TestService_VerifyPIN(t *testing.T) {
	ctx := context.Background()

	t.Run("configured default", func(t *testing.T) {
		svc, _ := newService(t, "2468")
		assert.NoError(t, svc.VerifyPIN(ctx, "2468"))
		assert.Equal(t, settings.ErrInvalidPIN, svc.VerifyPIN(ctx, settings.DefaultPIN))
	})

	t.Run("invalid default falls back", func(t *testing.T) {
		svc, _ := newService(t, "abc")
		assert.NoError(t, svc.VerifyPIN(ctx, settings.DefaultPIN))
	})
}

func TestService_ChangePIN(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, "1234")

	err := svc.ChangePIN(ctx, "1234", "12")
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), err)
	assert.Equal(t, "new_pin", vErr.Fields[0].Field)

	err = svc.ChangePIN(ctx, "0000", "4321")
	require.True(t, errors.As(err, &vErr), err)
	assert.Equal(t, "old_pin", vErr.Fields[0].Field)

	require.NoError(t, svc.ChangePIN(ctx, "1234", "4321"))
	assert.NoError(t, svc.VerifyPIN(ctx, "4321"))
	assert.Equal(t, settings.ErrInvalidPIN, svc.VerifyPIN(ctx, "1234"))
}

func TestService_ResetPIN(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, "1234")

	assert.Error(t, svc.ResetPIN(ctx, "12345"))
	require.NoError(t, svc.ResetPIN(ctx, "0007"))
	assert.NoError(t, svc.VerifyPIN(ctx, "0007"))
}

func TestService_Backend(t *testing.T) {
	ctx := context.Background()
	svc, calls := newService(t, "1234")

	b, err := svc.Backend(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.Backend{}, b)

	_, _, err = svc.BackendCredentials(ctx)
	assert.Equal(t, core.ErrMissingBackendKey, err)

	b, err = svc.SetBackend(ctx, "https://a.supabase.co", "key-1")
	require.NoError(t, err)
	assert.Equal(t, settings.Backend{URL: "https://a.supabase.co", HasKey: true}, b)
	assert.Empty(t, *calls, "nothing replaced on first set")

	url, key, err := svc.BackendCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://a.supabase.co", url)
	assert.Equal(t, "key-1", key)

	_, err = svc.SetBackend(ctx, "https://a.supabase.co", "key-1")
	require.NoError(t, err)
	assert.Empty(t, *calls, "same credentials are not a replacement")

	_, err = svc.SetBackend(ctx, "https://a.supabase.co", "key-2")
	require.NoError(t, err)
	assert.Equal(t, []replaced{{"https://a.supabase.co", "key-1"}}, *calls)
}
