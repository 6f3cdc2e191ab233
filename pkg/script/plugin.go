package script

import (
	"context"

	"github.com/bft-labs/scriptd/pkg/log"
	"github.com/bft-labs/scriptd/pkg/settings"
)

// Plugin extends a Script with optional behavior that lives as long as one
// run: Initialize is called during Start, Shutdown during Stop.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize starts the plugin. ctx is cancelled when the script stops.
	// An error aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown releases the plugin's resources. Errors are logged only.
	Shutdown(ctx context.Context) error
}

// PluginConfig is handed to plugins on initialization.
type PluginConfig struct {
	Script      *Script
	Identity    settings.Identity
	StorageRoot string
	SessionID   string
	Logger      log.Logger
}
