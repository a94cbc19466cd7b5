package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "medoo", cmd.Use)
	assert.Equal(t, Version, cmd.Version)
	assert.Contains(t, cmd.Long, "parameterized")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, cmdName := range []string{"compile", "validate", "exec"} {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "driver", "dsn", "prefix", "quote"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue, name)
	}
}

func TestSubcommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	compileCmd, _, err := cmd.Find([]string{"compile"})
	require.NoError(t, err)
	outputFlag := compileCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	validateCmd, _, err := cmd.Find([]string{"validate"})
	require.NoError(t, err)
	require.NotNil(t, validateCmd.Flags().Lookup("strict"))

	execCmd, _, err := cmd.Find([]string{"exec"})
	require.NoError(t, err)
	txFlag := execCmd.Flags().Lookup("tx")
	require.NotNil(t, txFlag)
	assert.Equal(t, "false", txFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	run := newCLIRun(t, nil)

	err := run.execute("--format", "invalid", "compile", ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestConfigurationResolvedBeforeSubcommand(t *testing.T) {
	run := newCLIRun(t, map[string]string{
		"/home/tester/.medoo.yaml": "prefix: app_\nquote: double\n",
		"q.yaml":                   "select: {table: users, columns: [id]}\n",
	})

	require.NoError(t, run.execute("compile", "q.yaml"))
	assert.Contains(t, run.stdout.String(), `SELECT "id" FROM "app_users"`)
}

func TestConfigurationFlagOverridesFile(t *testing.T) {
	run := newCLIRun(t, map[string]string{
		"/home/tester/.medoo.yaml": "prefix: app_\n",
		"q.yaml":                   "select: {table: users, columns: [id]}\n",
	})

	require.NoError(t, run.execute("--prefix", "x_", "compile", "q.yaml"))
	assert.Contains(t, run.stdout.String(), "SELECT `id` FROM `x_users`")
}

func TestConfigurationErrorExitCode(t *testing.T) {
	run := newCLIRun(t, map[string]string{
		"q.yaml": "select: {table: users}\n",
	})

	err := run.execute("--quote", "brackets", "compile", "q.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "loading configuration")
}

func TestExplicitConfigFileMissing(t *testing.T) {
	run := newCLIRun(t, map[string]string{
		"q.yaml": "select: {table: users}\n",
	})

	err := run.execute("--config", "/nope/medoo.yaml", "compile", "q.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
