package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/glabrego/deploytidy/internal/settings"
)

type Store interface {
	Get(ctx context.Context, defaults settings.Snapshot) (settings.Snapshot, error)
	Set(ctx context.Context, key string, value any) error
	SetAll(ctx context.Context, s settings.Snapshot) error
}

type Notifier interface {
	Notify(ctx context.Context, partial map[string]any) error
}

// Service connects the settings panel to the store and to running sessions.
type Service struct {
	store    Store
	notifier Notifier
	log      zerolog.Logger
}

// NewService accepts a nil notifier when no session is listening.
func NewService(store Store, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{store: store, notifier: notifier, log: log}
}

// LoadSettings never fails: an unreadable store yields the defaults.
func (s *Service) LoadSettings(ctx context.Context) settings.Snapshot {
	snapshot, err := s.store.Get(ctx, settings.Defaults())
	if err != nil {
		s.log.Warn().Err(err).Msg("load settings failed, using defaults")
		return settings.Defaults()
	}
	return snapshot
}

// UpdateSetting stores one field and announces it to running sessions.
func (s *Service) UpdateSetting(ctx context.Context, key string, value any) error {
	if !settings.IsKnownKey(key) {
		return fmt.Errorf("update setting %q: unknown key", key)
	}
	if key == settings.KeyExpansionLimit {
		value = settings.ClampLimit(value)
	}
	if err := s.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("save setting %q: %w", key, err)
	}
	s.broadcast(ctx, map[string]any{key: value})
	return nil
}

// ResetSettings writes every default and broadcasts the full record.
func (s *Service) ResetSettings(ctx context.Context) (settings.Snapshot, error) {
	defaults := settings.Defaults()
	if err := s.store.SetAll(ctx, defaults); err != nil {
		return settings.Snapshot{}, fmt.Errorf("reset settings: %w", err)
	}
	s.broadcast(ctx, defaults.Record())
	return defaults, nil
}

func (s *Service) broadcast(ctx context.Context, partial map[string]any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, partial); err != nil {
		s.log.Warn().Err(err).Int("keys", len(partial)).Msg("settings saved but not broadcast")
	}
}
