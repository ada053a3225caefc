package routes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gateway-server/internal/domain/account"
	"gateway-server/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const watchedRoutes = `
routes:
  - id: courses
    path: /api/courses
    upstreams: ["http://courses:8080"]
    permissions: [%s]
`

func writeRoutes(t *testing.T, path, permissions string) {
	t.Helper()
	doc := []byte(fmt.Sprintf(watchedRoutes, permissions))
	require.NoError(t, os.WriteFile(path, doc, 0o600))
}

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	writeRoutes(t, path, `"ADMIN"`)
	table, err := Load(path)
	require.NoError(t, err)

	m := metrics.New()
	w := NewWatcher(path, table, zap.NewNop(), m)

	writeRoutes(t, path, `"STUDENT"`)
	require.NoError(t, w.Reload())

	courses, _ := table.Lookup("courses")
	assert.True(t, courses.Policy().IsAuthorized(account.Account{Permission: account.PermissionStudent}))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RouteReloads.WithLabelValues(reloadOK)))
}

func TestWatcherReloadKeepsPoliciesOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	writeRoutes(t, path, `"ADMIN"`)
	table, err := Load(path)
	require.NoError(t, err)

	m := metrics.New()
	w := NewWatcher(path, table, zap.NewNop(), m)

	writeRoutes(t, path, `"ROOT"`)
	assert.Error(t, w.Reload())

	courses, _ := table.Lookup("courses")
	assert.Equal(t, []string{"ADMIN"}, courses.Policy().Declared())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RouteReloads.WithLabelValues(reloadError)))
}

func TestWatcherPicksUpFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	writeRoutes(t, path, `"ADMIN"`)
	table, err := Load(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(path, table, zap.NewNop(), nil)
	w.debounce = 10 * time.Millisecond
	require.NoError(t, w.Start(ctx))

	writeRoutes(t, path, `"*"`)

	courses, _ := table.Lookup("courses")
	require.Eventually(t, func() bool {
		return courses.Policy().IsGuestAllowed()
	}, 2*time.Second, 20*time.Millisecond)
}
