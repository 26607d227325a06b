package format

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"
)

// spec is a parsed format spec:
//
//	[[fill]align][sign][#][0][width][grouping][.precision][type]
type spec struct {
	raw      string
	fill     rune
	align    byte // 0 when absent
	sign     byte // 0, '+', '-' or ' '
	alt      bool
	zero     bool
	width    int
	grouping byte // 0, ',' or '_'
	prec     int  // -1 when absent
	typ      byte // 0 when absent
}

func isAlign(c byte) bool { return c == '<' || c == '>' || c == '^' || c == '=' }

func parseSpec(s string) (spec, error) {
	sp := spec{raw: s, fill: ' ', prec: -1}
	rest := s

	if r, n := utf8.DecodeRuneInString(rest); n > 0 && len(rest) > n && isAlign(rest[n]) {
		sp.fill, sp.align = r, rest[n]
		rest = rest[n+1:]
	} else if len(rest) > 0 && isAlign(rest[0]) {
		sp.align = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 && strings.IndexByte("+- ", rest[0]) >= 0 {
		sp.sign = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 && rest[0] == '#' {
		sp.alt = true
		rest = rest[1:]
	}
	if len(rest) > 0 && rest[0] == '0' {
		sp.zero = true
		rest = rest[1:]
	}

	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i > 0 {
		w, err := strconv.Atoi(rest[:i])
		if err != nil {
			return spec{}, sp.errorf("bad width")
		}
		sp.width = w
		rest = rest[i:]
	}

	if len(rest) > 0 && (rest[0] == ',' || rest[0] == '_') {
		sp.grouping = rest[0]
		rest = rest[1:]
	}

	if len(rest) > 0 && rest[0] == '.' {
		i = 1
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 1 {
			return spec{}, sp.errorf("missing precision")
		}
		p, err := strconv.Atoi(rest[1:i])
		if err != nil {
			return spec{}, sp.errorf("bad precision")
		}
		sp.prec = p
		rest = rest[i:]
	}

	if len(rest) == 1 && strings.IndexByte("bdeEfFgGnosxX%", rest[0]) >= 0 {
		sp.typ = rest[0]
		rest = ""
	}
	if rest != "" {
		return spec{}, sp.errorf("unexpected %q", rest)
	}
	return sp, nil
}

func (sp spec) errorf(f string, args ...any) error {
	return fmt.Errorf("%w: format spec %q: %s", ErrSyntax, sp.raw, fmt.Sprintf(f, args...))
}

// formatString pads or truncates a rendered value. Strings align left by default.
func (sp spec) formatString(s string) (string, error) {
	switch {
	case sp.typ != 0 && sp.typ != 's':
		return "", sp.errorf("type %q needs a number", string(sp.typ))
	case sp.sign != 0:
		return "", sp.errorf("sign not allowed for strings")
	case sp.alt:
		return "", sp.errorf("alternate form not allowed for strings")
	case sp.grouping != 0:
		return "", sp.errorf("grouping not allowed for strings")
	case sp.align == '=':
		return "", sp.errorf("'=' alignment not allowed for strings")
	}

	if sp.prec >= 0 && utf8.RuneCountInString(s) > sp.prec {
		r := []rune(s)
		s = string(r[:sp.prec])
	}
	fill, align := sp.fill, sp.align
	if align == 0 {
		align = '<'
		if sp.zero {
			fill = '0'
		}
	}
	return pad("", s, fill, align, sp.width), nil
}

// formatNumber formats a JSON number. Numbers align right by default.
func (sp spec) formatNumber(n json.Number) (string, error) {
	text := n.String()
	isInt := !strings.ContainsAny(text, ".eE")

	typ := sp.typ
	if typ == 0 {
		switch {
		case isInt && sp.prec >= 0:
			return "", sp.errorf("precision not allowed for integers")
		case isInt:
			typ = 'd'
		case sp.prec >= 0:
			typ = 'g'
		}
	}

	var (
		neg    bool
		prefix string
		digits string
		every  = 3
	)
	switch typ {
	case 's':
		return "", sp.errorf("type 's' does not apply to numbers")

	case 'd', 'n', 'b', 'o', 'x', 'X':
		if !isInt {
			return "", sp.errorf("integer type %q for non-integer %s", string(typ), text)
		}
		if sp.prec >= 0 {
			return "", sp.errorf("precision not allowed for integers")
		}
		z, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return "", sp.errorf("bad integer %s", text)
		}
		neg = z.Sign() < 0
		z.Abs(z)

		base := 10
		switch typ {
		case 'b':
			base = 2
		case 'o':
			base = 8
		case 'x', 'X':
			base = 16
		}
		digits = z.Text(base)
		if typ == 'X' {
			digits = strings.ToUpper(digits)
		}
		if base != 10 {
			every = 4
			if sp.alt {
				prefix = "0" + string(typ)
			}
		}

	case 0:
		// Float without type or precision keeps its JSON text.
		neg = strings.HasPrefix(text, "-")
		digits = strings.TrimPrefix(text, "-")

	default:
		f, err := n.Float64()
		if err != nil {
			return "", sp.errorf("bad number %s", text)
		}
		neg = f < 0
		if neg {
			f = -f
		}
		prec := sp.prec
		if prec < 0 {
			prec = 6
		}
		switch typ {
		case '%':
			digits = strconv.FormatFloat(f*100, 'f', prec, 64) + "%"
		case 'f', 'F':
			digits = strconv.FormatFloat(f, 'f', prec, 64)
			if typ == 'F' {
				digits = strings.ToUpper(digits)
			}
		case 'g', 'G':
			if prec == 0 {
				prec = 1
			}
			digits = strconv.FormatFloat(f, typ, prec, 64)
		default: // 'e', 'E'
			digits = strconv.FormatFloat(f, typ, prec, 64)
		}
	}

	if sp.grouping != 0 {
		digits = group(digits, sp.grouping, every)
	}

	sign := ""
	switch {
	case neg:
		sign = "-"
	case sp.sign == '+':
		sign = "+"
	case sp.sign == ' ':
		sign = " "
	}

	fill, align := sp.fill, sp.align
	if align == 0 {
		align = '>'
		if sp.zero {
			fill, align = '0', '='
		}
	}
	return pad(sign+prefix, digits, fill, align, sp.width), nil
}

// group inserts sep into the leading run of digits, every digits from the right.
func group(digits string, sep byte, every int) string {
	end := 0
	for end < len(digits) && strings.IndexByte("0123456789abcdefABCDEF", digits[end]) >= 0 {
		end++
	}
	// Exponent and fraction markers stop the integer part.
	if i := strings.IndexAny(digits[:end], "eE"); i >= 0 && every == 3 {
		end = i
	}
	head, tail := digits[:end], digits[end:]
	if len(head) <= every {
		return digits
	}

	var b strings.Builder
	first := len(head) % every
	if first > 0 {
		b.WriteString(head[:first])
	}
	for i := first; i < len(head); i += every {
		if b.Len() > 0 {
			b.WriteByte(sep)
		}
		b.WriteString(head[i : i+every])
	}
	b.WriteString(tail)
	return b.String()
}

func pad(prefix, body string, fill rune, align byte, width int) string {
	n := width - utf8.RuneCountInString(prefix) - utf8.RuneCountInString(body)
	if n <= 0 {
		return prefix + body
	}
	f := string(fill)
	switch align {
	case '<':
		return prefix + body + strings.Repeat(f, n)
	case '^':
		return strings.Repeat(f, n/2) + prefix + body + strings.Repeat(f, n-n/2)
	case '=':
		return prefix + strings.Repeat(f, n) + body
	default:
		return strings.Repeat(f, n) + prefix + body
	}
}

// number reports v as a JSON number when it is numeric.
func number(v any) (json.Number, bool) {
	switch x := v.(type) {
	case json.Number:
		return x, true
	case int:
		return json.Number(strconv.Itoa(x)), true
	case int64:
		return json.Number(strconv.FormatInt(x, 10)), true
	case float64:
		return json.Number(strconv.FormatFloat(x, 'g', -1, 64)), true
	}
	return "", false
}
