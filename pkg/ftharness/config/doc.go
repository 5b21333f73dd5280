/*
Package config loads harness settings from YAML or JSON files.

Config wraps a map[string]any and provides typed accessors that return a
default when a key is missing or has the wrong type:

	cfg, err := config.FromFile("ftharness.yaml")
	if err != nil {
	    return err
	}
	cycles := cfg.Int("cycles", 10)
	slack := cfg.Section("window").Int64("slack", 15)

Settings maps a Config onto the typed run configuration, starting from
DefaultSettings:

	s, err := config.LoadSettings("ftharness.yaml")

Duration accepts a time.ParseDuration string or a number of seconds.
*/
package config
