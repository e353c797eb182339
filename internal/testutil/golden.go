package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UpdateGoldenEnv, when set, makes Golden rewrite the golden files instead of
// comparing against them.
const UpdateGoldenEnv = "CHATDO_UPDATE_GOLDEN"

// Golden compares got against testdata/<name>.golden.
// Line endings are normalized so checkouts with CRLF still match.
func Golden(t *testing.T, name string, got []byte) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")

	if os.Getenv(UpdateGoldenEnv) != "" {
		require.NoError(t, os.MkdirAll("testdata", 0o755))
		require.NoError(t, os.WriteFile(path, got, 0o644))
		return
	}

	want, err := os.ReadFile(path)
	require.NoError(t, err, "read golden file (set %s=1 to create it)\ngot:\n%s", UpdateGoldenEnv, got)

	assert.Equal(t, normalizeNewlines(string(want)), normalizeNewlines(string(got)), "output mismatch for %s", path)
}

// GoldenString is like Golden but takes a string.
func GoldenString(t *testing.T, name string, got string) {
	t.Helper()
	Golden(t, name, []byte(got))
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
