package daemon

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/recon-ai/enumd/internal/config"
)

// Dependencies contains required dependencies for the Daemon.
// NewDependencies should be used to create instances of Dependencies.
type Dependencies struct {
	// APIAddr specifies the network address for the API server to bind (e.g., "0.0.0.0:8090").
	APIAddr string

	// Logger for daemon and subcomponent operations.
	Logger hclog.Logger

	// ConfigLoader loads the server configuration file.
	ConfigLoader config.Loader
}

// NewDependencies creates and validates Dependencies.
func NewDependencies(
	logger hclog.Logger,
	cfgLoader config.Loader,
	apiAddr string,
) (Dependencies, error) {
	deps := Dependencies{
		APIAddr:      apiAddr,
		Logger:       logger,
		ConfigLoader: cfgLoader,
	}

	if err := deps.Validate(); err != nil {
		return Dependencies{}, err
	}

	return deps, nil
}

// Validate ensures all required dependencies are provided and valid.
func (d Dependencies) Validate() error {
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}
	if d.ConfigLoader == nil || reflect.ValueOf(d.ConfigLoader).IsNil() {
		return fmt.Errorf("config loader cannot be nil")
	}
	if err := validateAddr(d.APIAddr); err != nil {
		return fmt.Errorf("invalid API address '%s': %w", d.APIAddr, err)
	}
	return nil
}
