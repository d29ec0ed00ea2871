package plan

import "fmt"

// ConfigError reports a structurally insufficient or inconsistent
// configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
