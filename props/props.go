/*
Package props holds string-keyed configuration properties, as read from YAML
files or command line flags, and converts them to typed values.
*/
package props

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

/*
ConfigurationError reports a property value that cannot be used: an unknown
enumerated value, a malformed number or a value out of range.
*/
type ConfigurationError struct {
	Property string
	Value    string
	Reason   string
}

func (ce *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid value %q for property %s: %s", ce.Value, ce.Property, ce.Reason)
}

/*
Properties maps property names to their string values. Missing keys take the
defaults provided by the getters.
*/
type Properties map[string]string

// New returns a copy of the given map as Properties.
func New(values map[string]string) Properties {
	p := make(Properties, len(values))
	for k, v := range values {
		p[k] = v
	}
	return p
}

/*
Read parses a YAML mapping of property names to scalar values. Nested values
are rejected.
*/
func Read(content []byte) (Properties, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("parsing properties: %v", err)
	}
	p := make(Properties, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case nil:
		case map[interface{}]interface{}, []interface{}:
			return nil, fmt.Errorf("parsing properties: property %s must have a scalar value", k)
		default:
			p[k] = fmt.Sprintf("%v", v)
		}
	}
	return p, nil
}

// ReadFile reads properties from the YAML file at the given path.
func ReadFile(path string) (Properties, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading properties file %s: %v", path, err)
	}
	return Read(content)
}

/*
Merge returns new properties with the values of p overridden by those of o.
*/
func (p Properties) Merge(o Properties) Properties {
	result := New(p)
	for k, v := range o {
		result[k] = v
	}
	return result
}

// Keys returns the property names sorted.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the value of the property or def if it is not set.
func (p Properties) String(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

/*
OneOf returns the value of the property, or def if it is not set. A value
that is not in the options, compared ignoring case, is a ConfigurationError.
The option is returned with its canonical spelling.
*/
func (p Properties) OneOf(key, def string, options ...string) (string, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(v), o) {
			return o, nil
		}
	}
	return "", &ConfigurationError{key, v, fmt.Sprintf("must be one of %s", strings.Join(options, ", "))}
}

// Int returns the integer value of the property or def if it is not set.
func (p Properties) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &ConfigurationError{key, v, "must be an integer"}
	}
	return i, nil
}

/*
PositiveInt returns the value of the property or def if it is not set. Values
below 1 are a ConfigurationError.
*/
func (p Properties) PositiveInt(key string, def int) (int, error) {
	i, err := p.Int(key, def)
	if err != nil {
		return 0, err
	}
	if i < 1 {
		return 0, &ConfigurationError{key, p[key], "must be a positive integer"}
	}
	return i, nil
}

// Float returns the float64 value of the property or def if it is not set.
func (p Properties) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, &ConfigurationError{key, v, "must be a number"}
	}
	return f, nil
}

// Bool returns the boolean value of the property or def if it is not set.
func (p Properties) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, &ConfigurationError{key, v, "must be true or false"}
	}
	return b, nil
}
