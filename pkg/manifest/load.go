package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Load reads a handler configuration file. The top level maps handler names to a
// single option object or a list of them. Names for which known returns false are
// dropped. Files ending in .toml are decoded as TOML, everything else as JSON.
func Load(path string, known func(string) bool) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return decodeTOML(b, known)
	}
	return decodeJSON(b, known)
}

func decodeJSON(b []byte, known func(string) bool) (Config, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Config{}, fmt.Errorf("json decode: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Config{}, errors.New("config must be a JSON object")
	}

	var cfg Config
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Config{}, fmt.Errorf("json decode: %w", err)
		}
		name := tok.(string)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return Config{}, fmt.Errorf("handler %q: %w", name, err)
		}
		if known != nil && !known(name) {
			continue
		}
		opts, err := toOptions(raw)
		if err != nil {
			return Config{}, fmt.Errorf("handler %q: %w", name, err)
		}
		cfg.Set(name, opts)
	}
	if _, err := dec.Token(); err != nil {
		return Config{}, fmt.Errorf("json decode: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Config{}, errors.New("json trailing content")
	}
	return cfg, nil
}

// TOML tables carry no reliable key order once decoded, so entries are sorted by name.
func decodeTOML(b []byte, known func(string) bool) (Config, error) {
	var doc map[string]any
	if err := toml.Unmarshal(b, &doc); err != nil {
		return Config{}, fmt.Errorf("toml decode: %w", err)
	}
	names := make([]string, 0, len(doc))
	for k := range doc {
		if known == nil || known(k) {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	var cfg Config
	for _, name := range names {
		opts, err := toOptions(doc[name])
		if err != nil {
			return Config{}, fmt.Errorf("handler %q: %w", name, err)
		}
		cfg.Set(name, opts)
	}
	return cfg, nil
}

func toOptions(v any) ([]Options, error) {
	switch x := v.(type) {
	case map[string]any:
		return []Options{Options(x)}, nil
	case []map[string]any:
		out := make([]Options, 0, len(x))
		for _, m := range x {
			out = append(out, Options(m))
		}
		return out, nil
	case []any:
		out := make([]Options, 0, len(x))
		for i, item := range x {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("option record %d: want object, got %T", i, item)
			}
			out = append(out, Options(m))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want object or list of objects, got %T", v)
	}
}
