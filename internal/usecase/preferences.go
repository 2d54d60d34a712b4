package usecase

import (
	"context"
	"time"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
)

// PreferencesService reads and patches the preferences companion.
type PreferencesService struct {
	prefs port.PreferencesRepository
	now   func() time.Time
}

func NewPreferencesService(prefs port.PreferencesRepository) *PreferencesService {
	return &PreferencesService{prefs: prefs, now: func() time.Time { return time.Now().UTC() }}
}

func (s *PreferencesService) Get(ctx context.Context, accountID string) (domain.Preferences, error) {
	p, err := s.prefs.GetByAccountID(ctx, accountID)
	if err != nil {
		return domain.Preferences{}, err
	}
	return *p, nil
}

// Update applies the patch and persists the merged record.
func (s *PreferencesService) Update(ctx context.Context, accountID string, patch domain.PreferencesPatch) (domain.Preferences, error) {
	p, err := s.prefs.GetByAccountID(ctx, accountID)
	if err != nil {
		return domain.Preferences{}, err
	}
	if err := patch.Apply(p); err != nil {
		return domain.Preferences{}, err
	}
	p.UpdatedAt = s.now()
	if err := s.prefs.Update(ctx, *p); err != nil {
		return domain.Preferences{}, err
	}
	return *p, nil
}
