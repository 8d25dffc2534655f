// Package prefs stores client-wide display preferences.
package prefs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/weddingkeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/weddingkeeper/internal/logging"
)

// DarkModeKey holds the sticky dark-mode override. It is global, not scoped
// to a wedding.
const DarkModeKey = "dark_mode"

// Service reads and writes preferences. SystemDark reports the terminal's own
// preference and is consulted only while no override is stored.
type Service struct {
	repo       kv.Repository
	logger     logging.Logger
	systemDark func() bool
}

func NewService(repo kv.Repository, logger logging.Logger, systemDark func() bool) *Service {
	if systemDark == nil {
		systemDark = func() bool { return false }
	}
	return &Service{repo: repo, logger: logger, systemDark: systemDark}
}

// DarkMode returns the stored override, or the system preference when none
// is stored. An unreadable override is ignored.
func (s *Service) DarkMode(ctx context.Context) (bool, error) {
	v, ok, err := s.override(ctx)
	if err != nil {
		return false, err
	}
	if ok {
		return v, nil
	}
	return s.systemDark(), nil
}

// Overridden reports whether the user has picked a mode explicitly.
func (s *Service) Overridden(ctx context.Context) (bool, error) {
	_, ok, err := s.override(ctx)
	return ok, err
}

func (s *Service) SetDarkMode(ctx context.Context, dark bool) error {
	if err := s.repo.Set(ctx, DarkModeKey, []byte(strconv.FormatBool(dark))); err != nil {
		return fmt.Errorf("save dark mode: %w", err)
	}
	return nil
}

// Toggle flips the effective mode, stores it and returns the new value.
func (s *Service) Toggle(ctx context.Context) (bool, error) {
	dark, err := s.DarkMode(ctx)
	if err != nil {
		return false, err
	}
	if err := s.SetDarkMode(ctx, !dark); err != nil {
		return false, err
	}
	return !dark, nil
}

// Reset drops the override so the system preference applies again.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.repo.Delete(ctx, DarkModeKey); err != nil {
		return fmt.Errorf("reset dark mode: %w", err)
	}
	return nil
}

func (s *Service) override(ctx context.Context) (bool, bool, error) {
	raw, err := s.repo.Get(ctx, DarkModeKey)
	if err != nil {
		return false, false, fmt.Errorf("load dark mode: %w", err)
	}
	if raw == nil {
		return false, false, nil
	}
	v, err := strconv.ParseBool(string(raw))
	if err != nil {
		s.logger.Warn(ctx, "ignoring unreadable dark mode preference", "value", string(raw))
		return false, false, nil
	}
	return v, true, nil
}
