package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recon-ai/enumd/internal/cmd"
	"github.com/recon-ai/enumd/internal/config"
	"github.com/recon-ai/enumd/internal/flags"
)

func TestAddServer(t *testing.T) {
	tests := []struct {
		name            string
		args            []string
		expectedEntry   config.ServerEntry
		expectedOutputs []string
		expectedError   string
	}{
		{
			name: "basic server add",
			args: []string{"subfinder", "--cmd", "subfinder-mcp"},
			expectedEntry: config.ServerEntry{
				Name:    "subfinder",
				Command: "subfinder-mcp",
			},
			expectedOutputs: []string{
				"✓ Added server 'subfinder'",
			},
		},
		{
			name: "args env and working dir",
			args: []string{
				"amass",
				"--cmd", "python3",
				"--arg", "-m",
				"--arg", "amass_mcp",
				"--env", "AMASS_TIMEOUT=5",
				"--working-dir", "/opt/amass",
			},
			expectedEntry: config.ServerEntry{
				Name:       "amass",
				Command:    "python3",
				Args:       []string{"-m", "amass_mcp"},
				Env:        map[string]string{"AMASS_TIMEOUT": "5"},
				WorkingDir: "/opt/amass",
			},
			expectedOutputs: []string{
				"✓ Added server 'amass'",
			},
		},
		{
			name: "disabled server",
			args: []string{"zmap", "--cmd", "zmap-mcp", "--disabled"},
			expectedEntry: config.ServerEntry{
				Name:    "zmap",
				Command: "zmap-mcp",
				Enabled: boolPtr(false),
			},
			expectedOutputs: []string{
				"✓ Added server 'zmap'",
			},
		},
		{
			name:          "missing server name",
			args:          []string{"--cmd", "subfinder-mcp"},
			expectedError: "server name is required and cannot be empty",
		},
		{
			name:          "invalid env value",
			args:          []string{"subfinder", "--cmd", "subfinder-mcp", "--env", "NOEQUALS"},
			expectedError: "invalid --env value 'NOEQUALS'",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), ".enumd.toml")
			require.NoError(t, os.WriteFile(configPath, []byte("servers = []\n"), 0o644))

			output := &bytes.Buffer{}

			baseCmd := &cmd.BaseCmd{}
			c, err := NewAddCmd(baseCmd)
			require.NoError(t, err)
			c.SetOut(output)
			c.SetErr(output)
			c.SetArgs(tc.args)

			// Temporarily modify the config file flag value.
			previousConfigFile := flags.ConfigFile
			defer func() { flags.ConfigFile = previousConfigFile }()
			flags.ConfigFile = configPath

			err = c.Execute()

			if tc.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedError)
				return
			}

			require.NoError(t, err)

			outputStr := output.String()
			for _, expectedOutput := range tc.expectedOutputs {
				assert.Contains(t, outputStr, expectedOutput)
			}

			var parsed config.Config
			_, err = toml.DecodeFile(configPath, &parsed)
			require.NoError(t, err)
			require.Len(t, parsed.Servers, 1)
			assert.Equal(t, tc.expectedEntry, parsed.Servers[0])
		})
	}
}

func TestAddServer_ReplacesExistingEntry(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".enumd.toml")
	initialContent := `[[servers]]
name = "subfinder"
command = "old-command"
`
	require.NoError(t, os.WriteFile(configPath, []byte(initialContent), 0o644))

	baseCmd := &cmd.BaseCmd{}
	c, err := NewAddCmd(baseCmd)
	require.NoError(t, err)
	c.SetOut(&bytes.Buffer{})
	c.SetArgs([]string{"subfinder", "--cmd", "new-command"})

	previousConfigFile := flags.ConfigFile
	defer func() { flags.ConfigFile = previousConfigFile }()
	flags.ConfigFile = configPath

	require.NoError(t, c.Execute())

	var parsed config.Config
	_, err = toml.DecodeFile(configPath, &parsed)
	require.NoError(t, err)
	require.Len(t, parsed.Servers, 1)
	assert.Equal(t, "new-command", parsed.Servers[0].Command)
}

func boolPtr(b bool) *bool {
	return &b
}
