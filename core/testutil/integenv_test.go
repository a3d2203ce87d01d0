package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnv(t *testing.T) {
	t.Parallel()
	vars := ParseEnv(strings.NewReader(`
# Redmine
VEUPATH_TEST_REDMINE_KEY = abc123
VEUPATH_TEST_ENTREZ_EMAIL="me@example.org"
not a pair
`))
	assert.Equal(t, map[string]string{
		RedmineKeyVar:  "abc123",
		EntrezEmailVar: "me@example.org",
	}, vars)
}

func TestIntegEnv_PrefersEnvironment(t *testing.T) {
	t.Setenv("VEUPATH_TEST_SOMETHING", "set")
	assert.Equal(t, "set", IntegEnv("VEUPATH_TEST_SOMETHING"))
}
