package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/promptvault/promptvault/shared/testutils"
	"github.com/stretchr/testify/require"
)

func setupTestEnv(t *testing.T) {
	server := testutils.RunFakeCompletionServer(t, func(prompt string) string {
		return "**Answer** to: " + prompt
	})
	testutils.ResetConfigEnv(t)
	t.Setenv("PROMPTVAULT_DB_DRIVER", "sqlite")
	t.Setenv("PROMPTVAULT_DB_NAME", filepath.Join(t.TempDir(), "gpt4_db.db"))
	t.Setenv("PROMPTVAULT_API_KEY", "test-key")
	t.Setenv("PROMPTVAULT_ENDPOINT", server.URL)
}

func runCommand(t *testing.T, stdin string, args ...string) string {
	if args == nil {
		args = []string{}
	}
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestInteractiveSession(t *testing.T) {
	setupTestEnv(t)

	out := runCommand(t, "what is go?\nwhy?\nExit\n")
	require.Contains(t, out, "Database initialized successfully!")
	require.Contains(t, out, "Prompt: what is go?\nResponse: Answer to: what is go?\n")
	require.Contains(t, out, "Prompt: why?\nResponse: Answer to: why?\n")
	require.Contains(t, out, "Goodbye!")

	out = runCommand(t, "", "last")
	require.Contains(t, out, "Prompt: why?\nResponse: Answer to: why?\n")

	out = runCommand(t, "", "history", "-n", "10")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], "what is go?")
	require.Contains(t, lines[2], "Answer to: why?")
}

func TestLastWithEmptyStore(t *testing.T) {
	setupTestEnv(t)

	// Running the loop with an immediate exit creates the schema without storing anything
	out := runCommand(t, "exit\n")
	require.Contains(t, out, "Goodbye!")

	out = runCommand(t, "", "last")
	require.Contains(t, out, "No exchanges have been stored yet")
}

func TestStatusFullConfig(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("PROMPTVAULT_DB_PASSWORD", "hunter2")
	runCommand(t, "what is go?\nexit\n")

	out := runCommand(t, "", "status", "--full-config")
	require.Contains(t, out, "Deployment: gpt-4o (provider: azure)")
	require.Contains(t, out, "Stored Exchanges: 1\n")
	require.Contains(t, out, "\tdriver: sqlite\n")
	require.Contains(t, out, "\tpassword: REDACTED\n")
	require.Contains(t, out, "\tapi_key: REDACTED\n")
	require.NotContains(t, out, "hunter2")
	require.NotContains(t, out, "test-key")
}
