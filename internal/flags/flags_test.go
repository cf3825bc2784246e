package flags

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestInitConfigFile_EnvVars(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{
			name:     "env var value with extra white space",
			value:    "  /custom/path/config.toml  ",
			expected: "/custom/path/config.toml",
		},
		{
			name:     "env var missing",
			value:    "",
			expected: DefaultConfigFile,
		},
		{
			name:     "env var only white space",
			value:    "   ",
			expected: DefaultConfigFile,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvVarConfigFile, tc.value)
			t.Cleanup(func() {
				ConfigFile = ""
			})

			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			initConfigFile(fs)

			require.Equal(t, tc.expected, ConfigFile)

			flag := fs.Lookup(FlagNameConfigFile)
			require.NotNil(t, flag)
			require.Equal(t, tc.expected, flag.DefValue)
		})
	}
}

func TestInitLogger_EnvVars(t *testing.T) {
	t.Setenv(EnvVarLogLevel, "DEBUG")
	t.Setenv(EnvVarLogPath, "/tmp/enumd.log")
	t.Cleanup(func() {
		LogLevel = ""
		LogPath = ""
	})

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	initLogger(fs)

	require.Equal(t, "debug", LogLevel)
	require.Equal(t, "/tmp/enumd.log", LogPath)
	require.NotNil(t, fs.Lookup(FlagNameLogLevel))
	require.NotNil(t, fs.Lookup(FlagNameLogPath))
}
