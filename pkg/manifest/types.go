package manifest

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// HandlerType enumerates the built-in handler names.
type HandlerType string

const (
	HandlerPrint HandlerType = "print"
	HandlerDump  HandlerType = "dump"
	HandlerRun   HandlerType = "run"
	HandlerNull  HandlerType = "null"
	HandlerRedis HandlerType = "redis"
	HandlerKafka HandlerType = "kafka"
)

// Options is one option record for a single handler invocation.
type Options map[string]any

// String returns o[key] as a string, or def when the key is absent.
func (o Options) String(key, def string) (string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("option %q: want string, got %T", key, v)
	}
	return s, nil
}

// Bool returns o[key] as a bool, or def when the key is absent.
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("option %q: want bool, got %T", key, v)
	}
	return b, nil
}

// Int returns o[key] as an int, or def when the key is absent.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return 0, fmt.Errorf("option %q: %w", key, err)
		}
		return i, nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("option %q: %v is not an integer", key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("option %q: want integer, got %T", key, v)
	}
}

// Strings returns o[key] as a string list, or def when the key is absent.
func (o Options) Strings(key string, def []string) ([]string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch xs := v.(type) {
	case []string:
		return xs, nil
	case []any:
		out := make([]string, 0, len(xs))
		for i, x := range xs {
			s, ok := x.(string)
			if !ok {
				return nil, fmt.Errorf("option %q[%d]: want string, got %T", key, i, x)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("option %q: want list of strings, got %T", key, v)
	}
}
