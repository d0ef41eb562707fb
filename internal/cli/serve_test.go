package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveFlagsCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("db", "snapforge.db", "")
	cmd.Flags().String("metrics-addr", "", "")
	cmd.Flags().Duration("min-interval", time.Minute, "")
	return cmd
}

func writeServeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestApplyConfig_FileValues(t *testing.T) {
	opts := &ServeOptions{
		RootOptions: &RootOptions{Database: "snapforge.db"},
		MinInterval: time.Minute,
	}
	opts.ConfigFile = writeServeConfig(t, `
database: /var/lib/snapforge.db
metrics_addr: ":9105"
min_interval: 30s
`)

	require.NoError(t, applyConfig(opts, serveFlagsCommand()))
	assert.Equal(t, "/var/lib/snapforge.db", opts.Database)
	assert.Equal(t, ":9105", opts.MetricsAddr)
	assert.Equal(t, 30*time.Second, opts.MinInterval)
}

func TestApplyConfig_FlagsWin(t *testing.T) {
	opts := &ServeOptions{
		RootOptions: &RootOptions{Database: "from-flag.db"},
		MinInterval: time.Minute,
	}
	opts.ConfigFile = writeServeConfig(t, `database: from-file.db`)

	cmd := serveFlagsCommand()
	require.NoError(t, cmd.Flags().Set("db", "from-flag.db"))

	require.NoError(t, applyConfig(opts, cmd))
	assert.Equal(t, "from-flag.db", opts.Database)
}

func TestApplyConfig_BadInterval(t *testing.T) {
	opts := &ServeOptions{RootOptions: &RootOptions{}}
	opts.ConfigFile = writeServeConfig(t, `min_interval: soon`)

	assert.Error(t, applyConfig(opts, serveFlagsCommand()))
}

func TestApplyConfig_NoFileIsNoop(t *testing.T) {
	opts := &ServeOptions{
		RootOptions: &RootOptions{Database: "snapforge.db"},
		MinInterval: time.Minute,
	}

	require.NoError(t, applyConfig(opts, serveFlagsCommand()))
	assert.Equal(t, "snapforge.db", opts.Database)
	assert.Equal(t, time.Minute, opts.MinInterval)
}

func TestServe_NoRulesConfigured(t *testing.T) {
	db := tempDB(t)
	seedAccounts(t, db)

	_, err := execute(t, "serve", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no snapshot rules configured")
}

func TestServe_BadFrequency(t *testing.T) {
	db := tempDB(t)
	seedAccounts(t, db)
	dir := t.TempDir()
	def := `
rules: [{
	id:            "bad-freq"
	source_entity: "Account"
	target_entity: "AccountSnapshot"
	frequency:     "fortnightly"
	mappings: [{source: "Name", target: "SnapshotName"}]
}]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.cue"), []byte(def), 0o644))
	_, err := execute(t, "rules", "load", dir, "--db", db)
	require.NoError(t, err)

	_, err = execute(t, "serve", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
