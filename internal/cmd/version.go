package cmd

// version is overridden at build time via -ldflags.
var version = "0.1.0"

// Version returns the application version.
func Version() string {
	return version
}
