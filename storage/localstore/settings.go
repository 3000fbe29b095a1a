package localstore

import (
	"context"

	"github.com/trezcool/mwalimu/core/settings"
)

type settingsRepository struct {
	db *DB
}

var _ settings.Repository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *DB) *settingsRepository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) GetSettings(_ context.Context) (settings.Settings, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.settings == nil {
		return settings.Settings{}, settings.ErrNotFound
	}
	s := *repo.db.settings
	s.PINHash = append([]byte(nil), s.PINHash...)
	return s, nil
}

func (repo *settingsRepository) SaveSettings(_ context.Context, s settings.Settings) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	prev := repo.db.settings
	s.PINHash = append([]byte(nil), s.PINHash...)
	repo.db.settings = &s
	if err := repo.db.persist(); err != nil {
		repo.db.settings = prev
		return err
	}
	return nil
}
