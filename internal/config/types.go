package config

import (
	"fmt"
	"os"
	"strings"
)

var (
	_ Provider = (*DefaultLoader)(nil)
	_ Modifier = (*Config)(nil)
)

type Loader interface {
	Load(path string) (Modifier, error)
}

type Initializer interface {
	Init(path string) error
}

type Provider interface {
	Initializer
	Loader
}

type Modifier interface {
	AddServer(entry ServerEntry) error
	RemoveServer(name string) error
	ListServers() []ServerEntry
}

type DefaultLoader struct{}

// Config represents the .enumd.toml (or YAML equivalent) file structure.
type Config struct {
	Servers        []ServerEntry `toml:"servers"        yaml:"servers"`
	configFilePath string        `toml:"-"              yaml:"-"`
}

// ServerEntry is the launch configuration for a single MCP server.
// Entries are immutable once registered; registering the same name again
// replaces the previous entry (last-write-wins).
type ServerEntry struct {
	// Name is the unique name the server is referenced by.
	// e.g. 'amass-mcp'
	Name string `json:"name" toml:"name" yaml:"name"`

	// Command is the executable to launch.
	Command string `json:"command" toml:"command" yaml:"command"`

	// Args are passed to Command in order.
	Args []string `json:"args,omitempty" toml:"args,omitempty" yaml:"args,omitempty"`

	// Env holds environment overrides merged over the ambient environment.
	Env map[string]string `json:"env,omitempty" toml:"env,omitempty" yaml:"env,omitempty"`

	// WorkingDir is the working directory for the process, empty for inherited.
	WorkingDir string `json:"workingDir,omitempty" toml:"working_dir,omitempty" yaml:"working_dir,omitempty"`

	// Enabled controls whether the server participates in connect/fan-out
	// operations. Unset means enabled.
	Enabled *bool `json:"enabled,omitempty" toml:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the server should be started and targeted.
func (e ServerEntry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// Validate checks the structural validity of the entry.
func (e ServerEntry) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return NewErrInvalidValue("name", e.Name)
	}
	if strings.TrimSpace(e.Command) == "" {
		return fmt.Errorf("server '%s': %w", e.Name, NewErrInvalidValue("command", e.Command))
	}
	return nil
}

// Environ returns the process environment for this server: the ambient
// environment with the entry's overrides merged on top.
func (e ServerEntry) Environ() []string {
	overrides := make([]string, 0, len(e.Env))
	for k, v := range e.Env {
		overrides = append(overrides, fmt.Sprintf("%s=%s", k, v))
	}
	return mergeEnvs(os.Environ(), overrides)
}

func mergeEnvs(baseEnvs, overrideEnvs []string) []string {
	envMap := make(map[string]string, len(baseEnvs))

	for _, e := range baseEnvs {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}

	for _, e := range overrideEnvs {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}
