// Package format renders configuration templates such as
// "/tmp/{method}.{obj[repository][name]}.log" against request fields.
//
// A replacement field is {root[key][index].attr!conv:spec}. Literal braces are
// written as {{ and }}. The spec follows the Python format mini-language
// ([[fill]align][sign][#][0][width][grouping][.precision][type]); nested
// replacement fields inside a spec are not supported.
package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrSyntax = errors.New("template syntax")
	ErrLookup = errors.New("template lookup")
)

// HeaderGetter is satisfied by http.Header.
type HeaderGetter interface {
	Get(key string) string
	Values(key string) []string
}

// Format expands every replacement field in tmpl using vars as root names.
func Format(tmpl string, vars map[string]any) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			b.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			b.WriteByte('}')
			i += 2
		case c == '}':
			return "", fmt.Errorf("%w: single '}' at offset %d", ErrSyntax, i)
		case c == '{':
			end, err := fieldEnd(tmpl, i+1)
			if err != nil {
				return "", err
			}
			s, err := expand(tmpl[i+1:end], vars)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
			i = end + 1
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// FormatAll expands each template in order.
func FormatAll(tmpls []string, vars map[string]any) ([]string, error) {
	out := make([]string, 0, len(tmpls))
	for _, t := range tmpls {
		s, err := Format(t, vars)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// fieldEnd returns the index of the '}' closing the field that starts at start.
// Braces inside [...] of the field name belong to the key.
func fieldEnd(tmpl string, start int) (int, error) {
	inBracket, inName := false, true
	for j := start; j < len(tmpl); j++ {
		c := tmpl[j]
		if inBracket {
			if c == ']' {
				inBracket = false
			}
			continue
		}
		switch c {
		case '[':
			inBracket = inName
		case '!', ':':
			inName = false
		case '{':
			return 0, fmt.Errorf("%w: nested '{' in field at offset %d", ErrSyntax, j)
		case '}':
			return j, nil
		}
	}
	return 0, fmt.Errorf("%w: unclosed '{' at offset %d", ErrSyntax, start-1)
}

type step struct {
	key     string
	bracket bool
}

func expand(field string, vars map[string]any) (string, error) {
	root, steps, rest, err := parseField(field)
	if err != nil {
		return "", err
	}

	var conv byte
	if rest != "" && rest[0] == '!' {
		if len(rest) < 2 || rest[1] == ':' {
			return "", fmt.Errorf("%w: missing conversion in %q", ErrSyntax, field)
		}
		conv, rest = rest[1], rest[2:]
		if conv != 's' && conv != 'r' && conv != 'a' {
			return "", fmt.Errorf("%w: unknown conversion %q", ErrSyntax, string(conv))
		}
	}
	var fs *spec
	switch {
	case rest == "":
	case rest[0] == ':':
		sp, err := parseSpec(rest[1:])
		if err != nil {
			return "", err
		}
		fs = &sp
	default:
		return "", fmt.Errorf("%w: bad field %q", ErrSyntax, field)
	}

	v, ok := vars[root]
	if !ok {
		return "", fmt.Errorf("%w: unknown name %q", ErrLookup, root)
	}
	path := root
	for _, st := range steps {
		if st.bracket {
			path += "[" + st.key + "]"
		} else {
			path += "." + st.key
		}
		v, err = index(v, st.key)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrLookup, path, err)
		}
	}

	var s string
	switch conv {
	case 0:
		if n, ok := number(v); ok && fs != nil {
			return fs.formatNumber(n)
		}
		s = render(v)
	case 's':
		s = render(v)
	default: // 'r', 'a'
		s = repr(v)
	}
	if fs == nil {
		return s, nil
	}
	return fs.formatString(s)
}

// parseField splits "root[a][b].c!r" into root, steps and the "!r" remainder.
func parseField(field string) (string, []step, string, error) {
	i := strings.IndexAny(field, "[.!:")
	if i < 0 {
		i = len(field)
	}
	root := field[:i]
	if root == "" {
		return "", nil, "", fmt.Errorf("%w: empty field name in %q", ErrSyntax, field)
	}

	var steps []step
	for i < len(field) {
		switch field[i] {
		case '[':
			j := strings.IndexByte(field[i:], ']')
			if j < 0 {
				return "", nil, "", fmt.Errorf("%w: missing ']' in %q", ErrSyntax, field)
			}
			steps = append(steps, step{key: field[i+1 : i+j], bracket: true})
			i += j + 1
		case '.':
			j := strings.IndexAny(field[i+1:], "[.!:")
			if j < 0 {
				j = len(field) - i - 1
			}
			name := field[i+1 : i+1+j]
			if name == "" {
				return "", nil, "", fmt.Errorf("%w: empty attribute in %q", ErrSyntax, field)
			}
			steps = append(steps, step{key: name})
			i += j + 1
		case '!', ':':
			return root, steps, field[i:], nil
		default:
			return "", nil, "", fmt.Errorf("%w: unexpected %q in %q", ErrSyntax, field[i], field)
		}
	}
	return root, steps, "", nil
}

func index(v any, key string) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		r, ok := x[key]
		if !ok {
			return nil, fmt.Errorf("no key %q", key)
		}
		return r, nil
	case map[string]string:
		r, ok := x[key]
		if !ok {
			return nil, fmt.Errorf("no key %q", key)
		}
		return r, nil
	case HeaderGetter:
		if len(x.Values(key)) == 0 {
			return nil, fmt.Errorf("no header %q", key)
		}
		return x.Get(key), nil
	case []any:
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("list index %q is not an integer", key)
		}
		if n < 0 {
			n += len(x)
		}
		if n < 0 || n >= len(x) {
			return nil, fmt.Errorf("index %s out of range (len %d)", key, len(x))
		}
		return x[n], nil
	case []string:
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("list index %q is not an integer", key)
		}
		if n < 0 {
			n += len(x)
		}
		if n < 0 || n >= len(x) {
			return nil, fmt.Errorf("index %s out of range (len %d)", key, len(x))
		}
		return x[n], nil
	default:
		return nil, fmt.Errorf("cannot index %T with %q", v, key)
	}
}

func render(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	case map[string]any, []any, map[string]string, []string:
		return repr(x)
	default:
		return fmt.Sprint(x)
	}
}

func repr(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
