package prefs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/weddingkeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/weddingkeeper/internal/logging"
)

func TestService_DarkMode(t *testing.T) {
	ctx := context.Background()

	for _, system := range []bool{true, false} {
		repo := kv.NewMemoryRepository()
		s := NewService(repo, logging.Discard(), func() bool { return system })

		got, err := s.DarkMode(ctx)
		require.NoError(t, err)
		assert.Equal(t, system, got, "defaults to the system preference")

		overridden, err := s.Overridden(ctx)
		require.NoError(t, err)
		assert.False(t, overridden)

		require.NoError(t, s.SetDarkMode(ctx, !system))
		got, err = s.DarkMode(ctx)
		require.NoError(t, err)
		assert.Equal(t, !system, got, "override is sticky")

		raw, err := repo.Get(ctx, DarkModeKey)
		require.NoError(t, err)
		assert.Equal(t, []byte(boolString(!system)), raw)

		require.NoError(t, s.Reset(ctx))
		got, err = s.DarkMode(ctx)
		require.NoError(t, err)
		assert.Equal(t, system, got)
	}
}

func TestService_Toggle(t *testing.T) {
	ctx := context.Background()
	s := NewService(kv.NewMemoryRepository(), logging.Discard(), func() bool { return true })

	dark, err := s.Toggle(ctx)
	require.NoError(t, err)
	assert.False(t, dark)

	dark, err = s.Toggle(ctx)
	require.NoError(t, err)
	assert.True(t, dark)

	overridden, err := s.Overridden(ctx)
	require.NoError(t, err)
	assert.True(t, overridden)
}

func TestService_UnreadableValueFallsBack(t *testing.T) {
	ctx := context.Background()
	repo := kv.NewMemoryRepository()
	require.NoError(t, repo.Set(ctx, DarkModeKey, []byte("maybe")))

	s := NewService(repo, logging.Discard(), func() bool { return true })
	got, err := s.DarkMode(ctx)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestService_NilSystemDefaultsToLight(t *testing.T) {
	s := NewService(kv.NewMemoryRepository(), logging.Discard(), nil)
	got, err := s.DarkMode(context.Background())
	require.NoError(t, err)
	assert.False(t, got)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
