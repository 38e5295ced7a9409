package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-planteuf/framework/app"
	"github.com/km-arc/go-planteuf/framework/factory"
	"github.com/km-arc/go-planteuf/framework/providers"
)

func newApp(t *testing.T) *app.Application {
	t.Helper()
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("LOGGING_FILENAME", filepath.Join(t.TempDir(), "app.log"))
	t.Setenv("APP_ENV", "testing")

	a, err := app.New(factory.New(), filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)
	return a
}

func TestNew_RegistersFrameworkProviders(t *testing.T) {
	a := newApp(t)
	assert.Len(t, a.Providers.Providers(), 5)
	assert.False(t, a.Providers.Booted())

	require.NoError(t, a.Boot())
	assert.True(t, a.Providers.Booted())

	cfg, err := a.Config()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.DB.Path)
	assert.True(t, a.IsTesting())
	assert.False(t, a.IsProduction())

	_, err = a.Router()
	require.NoError(t, err)
	require.NoError(t, a.Close())
}

func TestClose_OnlyTouchesBuiltInstances(t *testing.T) {
	a := newApp(t)
	require.NoError(t, a.Close())
	assert.False(t, a.Resolved(providers.StoreKey))
}

func TestRun_StopsWhenContextEnds(t *testing.T) {
	a := newApp(t)
	t.Setenv("APP_PORT", "0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(app.ShutdownTimeout):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, a.Providers.Booted(), "Run boots on demand")
	require.NoError(t, a.Close())
}
