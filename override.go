package asynclog

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// liveKeys are the configuration keys a running logger can change in place.
// Every other key selects or sizes a backend and only applies at construction.
var liveKeys = map[string]bool{
	"level":                     true,
	"format":                    true,
	"pattern":                   true,
	"timestamp_format":          true,
	"timezone":                  true,
	"thread_name":               true,
	"capture_source":            true,
	"queue_capacity":            true,
	"auto_flush_interval_ms":    true,
	"heartbeat_interval_s":      true,
	"enable_console":            true,
	"console_target":            true,
	"enable_system_log":         true,
	"internal_errors_to_stderr": true,
}

// ApplyOverride applies string key-value overrides to the configuration.
// Each override should be in the format "key=value". All overrides are
// attempted and their errors combined.
//
// Example:
//
//	cfg := asynclog.DefaultConfig()
//	err := cfg.ApplyOverride(
//	    "directory=/var/log/app",
//	    "level=debug",
//	    "format=json",
//	)
func (c *Config) ApplyOverride(overrides ...string) error {
	var errs []error
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := applyConfigField(c, key, value); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return combineConfigErrors(errs)
	}
	return c.validate()
}

// ApplyConfigString reconfigures a running logger from "key=value" strings.
// Only keys that do not select or size the backend are accepted.
func (c *core) ApplyConfigString(overrides ...string) error {
	cfg := c.getConfig().Clone()

	var errs []error
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !liveKeys[key] {
			errs = append(errs, fmtErrorf("key '%s' cannot be changed on a running logger", key))
			continue
		}
		if err := applyConfigField(cfg, key, value); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return combineConfigErrors(errs)
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	return c.applyConfig(cfg)
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errors []error) error {
	if len(errors) == 0 {
		return nil
	}
	if len(errors) == 1 {
		return errors[0]
	}

	var sb strings.Builder
	sb.WriteString("asynclog: multiple configuration errors:")
	for i, err := range errors {
		// Remove prefix from individual errors to avoid duplication
		errMsg := strings.TrimPrefix(err.Error(), "asynclog: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField applies a single key-value override to a Config,
// parsing value according to the field's type.
func applyConfigField(cfg *Config, key, value string) error {
	field, ok := configFields(cfg)[key]
	if !ok {
		return fmtErrorf("unknown configuration key '%s'", key)
	}

	switch field.Kind() {
	case reflect.String:
		if key == "level" {
			if _, err := ParseLevel(value); err != nil {
				return fmtErrorf("invalid level value '%s': %w", value, err)
			}
		}
		field.SetString(value)
	case reflect.Int64:
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
		}
		field.SetInt(intVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
		}
		field.SetBool(boolVal)
	default:
		return fmtErrorf("unsupported type %v for key '%s'", field.Kind(), key)
	}
	return nil
}
