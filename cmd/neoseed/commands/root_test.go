package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	neoseed "github.com/saulfrancisco-ruizacevedo/go-neoseed"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("uri", "", "")
	fs.String("user", "", "")
	fs.String("password", "", "")
	fs.String("database", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func withConfigFile(t *testing.T, path string) {
	t.Helper()
	old := configFile
	configFile = path
	t.Cleanup(func() { configFile = old })
}

// clearEnv blanks NEO4J_* variables; viper treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"NEO4J_URI", "NEO4J_USER", "NEO4J_PASSWORD", "NEO4J_DATABASE"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	withConfigFile(t, "")
	clearEnv(t)
	t.Setenv("NEO4J_PASSWORD", "secret")

	cfg, err := loadConfig(testFlags(t))

	require.NoError(t, err)
	def := neoseed.DefaultConfig()
	assert.Equal(t, def.URI, cfg.URI)
	assert.Equal(t, def.User, cfg.User)
	assert.Equal(t, def.Database, cfg.Database)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, def.ConnectTimeout, cfg.ConnectTimeout)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neoseed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
uri: bolt://file:7687
user: file-user
password: file-pass
database: filedb
connect_timeout: 3s
`), 0o600))
	withConfigFile(t, path)
	clearEnv(t)
	t.Setenv("NEO4J_USER", "env-user")
	t.Setenv("NEO4J_DATABASE", "envdb")

	cfg, err := loadConfig(testFlags(t, "--database", "flagdb"))

	require.NoError(t, err)
	assert.Equal(t, "bolt://file:7687", cfg.URI)
	assert.Equal(t, "env-user", cfg.User)
	assert.Equal(t, "file-pass", cfg.Password)
	assert.Equal(t, "flagdb", cfg.Database)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
}

func TestLoadConfig_MissingPassword(t *testing.T) {
	withConfigFile(t, "")
	clearEnv(t)

	_, err := loadConfig(testFlags(t))

	assert.ErrorIs(t, err, neoseed.ErrInvalidConfig)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	withConfigFile(t, filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := loadConfig(testFlags(t, "--password", "x"))

	assert.Error(t, err)
}

func TestLoadFixtures(t *testing.T) {
	old := fixturesFile
	t.Cleanup(func() { fixturesFile = old })

	fixturesFile = ""
	f, err := loadFixtures()
	require.NoError(t, err)
	assert.Len(t, f.Users, 4)

	fixturesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = loadFixtures()
	assert.Error(t, err)
}
