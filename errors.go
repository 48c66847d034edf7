package lblgen

import "fmt"

// ConfigError reports an invalid combination of command line options or configuration values.
// It is always returned before any engine interaction takes place.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Msg
}

// configErrorf formats a *ConfigError.
func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// EngineError wraps a failure reported by the scene engine. Op names the engine operation.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s failed: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// engineErr wraps err in an *EngineError, or returns nil if err is nil.
func engineErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Op: op, Err: err}
}
