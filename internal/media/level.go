package media

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLevelRMS extracts the per-channel rms values in dB from the serialized
// structure of a level element message, e.g.
//
//	level, endtime=(guint64)30000000, rms=(GValueArray)< -20.1, -20.3 >;
func ParseLevelRMS(structure string) ([]float64, error) {
	return parseDoubles(structure, "rms")
}

func parseDoubles(structure, field string) ([]float64, error) {
	raw, ok := structureField(structure, field)
	if !ok {
		return nil, fmt.Errorf("no %s field in %q", field, structure)
	}
	raw = stripTypeTag(raw)
	if len(raw) < 2 || !isList(raw[0], raw[len(raw)-1]) {
		return nil, fmt.Errorf("field %s is not a list: %q", field, raw)
	}
	body := strings.TrimSpace(raw[1 : len(raw)-1])
	if body == "" {
		return nil, fmt.Errorf("field %s is empty", field)
	}

	parts := strings.Split(body, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(stripTypeTag(strings.TrimSpace(part)), 64)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// structureField returns the raw value of a top-level field.
func structureField(structure, field string) (string, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(structure), ";")
	key := field + "="

	start := -1
	for off := 0; off < len(s); {
		i := strings.Index(s[off:], key)
		if i < 0 {
			return "", false
		}
		i += off
		if i > 0 && (s[i-1] == ' ' || s[i-1] == ',') {
			start = i + len(key)
			break
		}
		off = i + len(key)
	}
	if start < 0 {
		return "", false
	}

	rest := s[start:]
	depth := 0
	for j, r := range rest {
		switch r {
		case '<', '{', '[', '(':
			depth++
		case '>', '}', ']', ')':
			depth--
		case ',':
			if depth == 0 {
				return strings.TrimSpace(rest[:j]), true
			}
		}
	}
	return strings.TrimSpace(rest), true
}

// stripTypeTag drops a leading "(type)" annotation.
func stripTypeTag(v string) string {
	if strings.HasPrefix(v, "(") {
		if end := strings.IndexByte(v, ')'); end > 0 {
			return strings.TrimSpace(v[end+1:])
		}
	}
	return v
}

func isList(open, closing byte) bool {
	return open == '<' && closing == '>' ||
		open == '{' && closing == '}' ||
		open == '[' && closing == ']'
}
