package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"run", "migrate", "check", "summary", "runs", "export", "schedule"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "faco-etl", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRangeCommands_RequireStartAndEnd(t *testing.T) {
	for _, c := range []string{"run", "summary", "export"} {
		cmd, _, err := rootCmd.Find([]string{c})
		require.NoError(t, err)
		for _, name := range []string{"start", "end"} {
			flag := cmd.Flags().Lookup(name)
			require.NotNil(t, flag, "%s should have --%s flag", c, name)
			assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag],
				"%s --%s should be required", c, name)
		}
	}
}

func TestRunCommand_Flags(t *testing.T) {
	flag := runCmd.Flags().Lookup("dry-run")
	require.NotNil(t, flag, "run command should have --dry-run flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestRunsCommand_HasList(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])

	flag := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "50", flag.DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	for _, name := range []string{"out", "local", "executive-only"} {
		assert.NotNil(t, exportCmd.Flags().Lookup(name), "export should have --%s flag", name)
	}
}

func TestScheduleCommand_Flags(t *testing.T) {
	flag := scheduleCmd.Flags().Lookup("run-now")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}
