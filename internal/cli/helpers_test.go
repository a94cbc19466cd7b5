package cli

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// cliRun is one invocation of the root command against an in-memory fs.
type cliRun struct {
	fs     afero.Fs
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newCLIRun(t *testing.T, files map[string]string) *cliRun {
	t.Helper()
	color.NoColor = true
	for _, key := range []string{"MEDOO_DRIVER", "MEDOO_DSN", "MEDOO_PREFIX", "MEDOO_QUOTE", "MEDOO_VERBOSE", "DATABASE_URL"} {
		t.Setenv(key, "")
	}

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0644))
	}
	return &cliRun{fs: fs, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
}

func (r *cliRun) execute(args ...string) error {
	cmd := newRootCommand(&RootOptions{Fs: r.fs, Home: "/home/tester"})
	cmd.SetOut(r.stdout)
	cmd.SetErr(r.stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}
