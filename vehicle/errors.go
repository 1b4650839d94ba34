package vehicle

import "fmt"

// ConfigError reports a malformed or inconsistent vehicle description. It is
// raised during construction, before the vehicle joins any tick, and is
// never retried: the loader drops the offending vehicle.
type ConfigError struct {
	Vehicle string
	Field   string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("vehicle %q: bad %s: %s", e.Vehicle, e.Field, e.Reason)
}

func configErrorf(vehicle, field, format string, args ...any) *ConfigError {
	return &ConfigError{Vehicle: vehicle, Field: field, Reason: fmt.Sprintf(format, args...)}
}
