// Package config manages the user preferences of ephemeris-cfg.
//
// Preferences live in a YAML file at the platform's configuration
// location:
//   - Linux: $XDG_CONFIG_HOME/ephemeris/config.yaml or $HOME/.config/ephemeris/config.yaml
//   - macOS: $HOME/.config/ephemeris/config.yaml
//   - Windows: %LOCALAPPDATA%\ephemeris\config.yaml
//
// They control how the CLI sets up each configuration session: whether
// to look the location up automatically, which provider to ask and how
// long to wait, where to deliver the payload, and raw default values for
// settings fields. The settings schema itself is never modified.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    return err
//	}
//	if err := registry.Preferences.Set("provider", "city"); err != nil {
//	    return err
//	}
//	registry.Preferences.SetDefault("ShowInfo", "false")
//	if err := registry.Save(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
