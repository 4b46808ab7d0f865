package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every env tag.
const EnvPrefix = "RESTREAM_"

// LoadConfig fills the flat options struct pointed to by opts.
//
// Precedence is CLI flags > RESTREAM_ environment variables > TOML file. The
// file is named by a string field called Config; fields map into it with
// dotted toml tags such as `toml:"server.port"`. Fields whose flag was set on
// the command line, according to flags, are left alone. flags may be nil.
func LoadConfig(opts any, flags *pflag.FlagSet) error {
	v := reflect.ValueOf(opts)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: want pointer to struct, got %T", opts)
	}
	v = v.Elem()
	t := v.Type()

	changed := make(map[string]bool)
	if flags != nil {
		flags.Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	}

	var tree map[string]any
	if f := v.FieldByName("Config"); f.IsValid() && f.Kind() == reflect.String && f.String() != "" {
		data, err := os.ReadFile(f.String())
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &tree); err != nil {
				return fmt.Errorf("parse %s: %w", f.String(), err)
			}
		case !os.IsNotExist(err):
			return fmt.Errorf("read %s: %w", f.String(), err)
		}
	}

	for i := range t.NumField() {
		field, sf := v.Field(i), t.Field(i)
		if !field.CanSet() || changed[flagName(sf.Name)] {
			continue
		}

		if path := sf.Tag.Get("toml"); path != "" && tree != nil {
			if value := lookup(tree, path); value != nil {
				if err := setValue(field, value); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
		}
		if key := sf.Tag.Get("env"); key != "" {
			if s, ok := os.LookupEnv(EnvPrefix + key); ok && s != "" {
				if err := setString(field, s); err != nil {
					return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
				}
			}
		}
	}
	return nil
}

// flagName converts a field name to its kebab-case flag, "LogLevel" -> "log-level".
func flagName(field string) string {
	var b strings.Builder
	runes := []rune(field)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(runes[i-1]) || i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// lookup resolves a dotted path in a decoded TOML tree.
func lookup(tree map[string]any, path string) any {
	parts := strings.Split(path, ".")
	node := tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			return nil
		}
		node = next
	}
	return node[parts[len(parts)-1]]
}

var durationType = reflect.TypeFor[time.Duration]()

// setValue assigns a decoded TOML value to field.
func setValue(field reflect.Value, value any) error {
	if field.Type() == durationType {
		if s, ok := value.(string); ok {
			return setString(field, s)
		}
	}
	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
			return nil
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
			return nil
		}
	case reflect.Int, reflect.Int32, reflect.Int64:
		if n, ok := value.(int64); ok {
			field.SetInt(n)
			return nil
		}
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		if n, ok := value.(int64); ok && n >= 0 {
			field.SetUint(uint64(n))
			return nil
		}
	case reflect.Float64:
		switch n := value.(type) {
		case float64:
			field.SetFloat(n)
			return nil
		case int64:
			field.SetFloat(float64(n))
			return nil
		}
	case reflect.Slice:
		if arr, ok := value.([]any); ok && field.Type().Elem().Kind() == reflect.String {
			out := make([]string, 0, len(arr))
			for _, item := range arr {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("non-string list item %v", item)
				}
				out = append(out, s)
			}
			field.Set(reflect.ValueOf(out))
			return nil
		}
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// setString parses an environment value into field.
func setString(field reflect.Value, s string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported type %s", field.Type())
		}
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	default:
		return fmt.Errorf("unsupported type %s", field.Type())
	}
	return nil
}
