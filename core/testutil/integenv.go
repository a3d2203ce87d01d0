// Package testutil provides shared helpers for integration tests against the
// live Redmine and Entrez services.
package testutil

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// Keys read by the integration tests.
const (
	RedmineKeyVar  = "VEUPATH_TEST_REDMINE_KEY"
	EntrezEmailVar = "VEUPATH_TEST_ENTREZ_EMAIL"
)

var (
	integEnvOnce sync.Once
	integEnvVars map[string]string
)

// ParseEnv reads KEY=VALUE lines, ignoring blank lines and # comments.
func ParseEnv(r io.Reader) map[string]string {
	vars := map[string]string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if k, v, ok := strings.Cut(line, "="); ok {
			vars[strings.TrimSpace(k)] = strings.Trim(strings.TrimSpace(v), `"`)
		}
	}
	return vars
}

func loadIntegEnvFile() map[string]string {
	integEnvOnce.Do(func() {
		integEnvVars = map[string]string{}
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		f, err := os.Open(filepath.Join(home, ".config", "veupath-redmine", ".env.integ-test"))
		if err != nil {
			return
		}
		defer func() { _ = f.Close() }()
		integEnvVars = ParseEnv(f)
	})
	return integEnvVars
}

// IntegEnv returns the value of key from the environment, falling back to
// ~/.config/veupath-redmine/.env.integ-test if the env var is not set.
func IntegEnv(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return loadIntegEnvFile()[key]
}

// RequireIntegEnv skips t in short mode or when key has no value.
func RequireIntegEnv(t *testing.T, key string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	v := IntegEnv(key)
	if v == "" {
		t.Skipf("%s not set", key)
	}
	return v
}
