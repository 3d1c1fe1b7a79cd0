package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Section is a loosely typed TOML table. The [helix] table is decoded into a
// Section so consumers can read options with their own defaults.
type Section map[string]any

// Get returns the string value for key, or def when the key is absent.
func (s Section) Get(key, def string) string {
	raw, ok := s[key]
	if !ok || raw == nil {
		return def
	}
	switch v := raw.(type) {
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// GetInt returns the integer value for key, or def when the key is absent.
func (s Section) GetInt(key string, def int) (int, error) {
	raw, ok := s[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("%s: %v is not an integer", key, v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not an integer", key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s: unsupported value type %T", key, raw)
	}
}

// GetBool returns the boolean value for key, or def when the key is absent.
func (s Section) GetBool(key string, def bool) (bool, error) {
	raw, ok := s[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		}
		return false, fmt.Errorf("%s: %q is not a boolean", key, v)
	default:
		return false, fmt.Errorf("%s: unsupported value type %T", key, raw)
	}
}
