package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Characteristics is the evidence map rules are matched against.
// Values arrive from callers and from enrichment as loosely typed JSON, so
// accessors normalize across strings, numbers and booleans.
type Characteristics map[string]interface{}

// Merge returns a new map containing the receiver's entries with the delta's
// entries layered on top. Delta fields win on key collision - enrichment data
// is fresher than caller-supplied hints.
func (c Characteristics) Merge(delta Characteristics) Characteristics {
	merged := make(Characteristics, len(c)+len(delta))
	for k, v := range c {
		merged[k] = v
	}
	for k, v := range delta {
		merged[k] = v
	}
	return merged
}

// Clone returns a shallow copy.
func (c Characteristics) Clone() Characteristics {
	cloned := make(Characteristics, len(c))
	for k, v := range c {
		cloned[k] = v
	}
	return cloned
}

// GetString returns the value as a string, or "" when absent.
func (c Characteristics) GetString(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// GetFloat returns the value as a float64. Strings are parsed; absent or
// unparseable values return ok=false.
func (c Characteristics) GetFloat(key string) (float64, bool) {
	v, ok := c[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// IsTruthy reports whether the value is present and truthy:
// bool true, a non-zero number, or a non-empty string other than
// "false"/"0"/"no".
func (c Characteristics) IsTruthy(key string) bool {
	v, ok := c[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "false", "0", "no":
			return false
		}
		return true
	}
	return true
}
