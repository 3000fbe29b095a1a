// Package fallback composes a hosted store with the local store: the hosted store is used first,
// successful writes are mirrored locally and the local store serves the calls the hosted one fails.
package fallback

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/kid"
	"github.com/trezcool/mwalimu/core/task"
)

type (
	// Stores are the repositories of one storage backend.
	Stores struct {
		Name  string
		Kids  kid.Repository
		Tasks task.Repository
	}

	// PingFunc checks that a backend is reachable.
	PingFunc func(ctx context.Context) error
)

// Select pings the primary backend and composes it with local when it answers.
// local alone is returned when primary is unreachable.
func Select(ctx context.Context, primary Stores, ping PingFunc, local Stores, log core.Logger) Stores {
	if err := ping(ctx); err != nil {
		log.Warn("hosted backend unreachable, using local store only", err, map[string]interface{}{"backend": primary.Name})
		return local
	}
	return Compose(primary, local, log)
}

// Compose returns repositories that use primary first and fall back to local.
func Compose(primary, local Stores, log core.Logger) Stores {
	return Stores{
		Name:  primary.Name + "+" + local.Name,
		Kids:  &kidRepository{primary: primary.Kids, local: local.Kids, log: log},
		Tasks: &taskRepository{primary: primary.Tasks, local: local.Tasks, log: log},
	}
}

// shouldFallBack tells whether err is a backend failure rather than an answer
// (not found, validation) that the local store must not override.
func shouldFallBack(err error, answers ...error) bool {
	if err == nil {
		return false
	}
	cause := errors.Cause(err)
	for _, answer := range answers {
		if cause == answer {
			return false
		}
	}
	var vErr *core.ValidationError
	return !errors.As(err, &vErr)
}

// logFallBack warns about hosted backend failures. Missing credentials are expected until
// the parent saves them, so they are not logged.
func logFallBack(log core.Logger, table, op string, err error) {
	if errors.Cause(err) == core.ErrMissingBackendKey {
		return
	}
	log.Warn(table+": "+op+" failed on hosted backend, using local store", err)
}
