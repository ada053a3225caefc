package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRoutesCheckPrintsExpandedPermissions(t *testing.T) {
	path := writeFile(t, `
routes:
  - id: catalog
    path: /api/catalog
    upstreams: ["http://catalog:8080"]
    permissions: ["*"]
  - id: docs
    path: /docs
    upstreams: ["http://docs:8080"]
`)

	out, err := runRoot(t, "routes", "check", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "catalog")
	assert.Contains(t, out, "[GUEST,STUDENT,TEACHER,ADMIN]")
	assert.Contains(t, out, publicPermissions)
}

func TestRoutesCheckFailsOnUnknownPermission(t *testing.T) {
	path := writeFile(t, `
routes:
  - id: catalog
    path: /api/catalog
    upstreams: ["http://catalog:8080"]
    permissions: ["OWNER"]
`)

	_, err := runRoot(t, "routes", "check", "--file", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OWNER")
}

func TestLoadEnvFileMissingDefaultIsIgnored(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	assert.NoError(t, loadEnvFile(defaultEnvFile))
	assert.Error(t, loadEnvFile("missing.env"))
}
