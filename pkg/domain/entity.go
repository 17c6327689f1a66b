package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Entity is an extracted value that is either a single string or a list of strings.
type Entity struct {
	Value  string
	Values []string
	IsList bool
}

// Text builds a single-valued entity.
func Text(v string) Entity {
	return Entity{Value: v}
}

// List builds a list-valued entity.
func List(vs ...string) Entity {
	return Entity{Values: append([]string(nil), vs...), IsList: true}
}

// String joins list values with ", ".
func (e Entity) String() string {
	if e.IsList {
		return strings.Join(e.Values, ", ")
	}
	return e.Value
}

// Empty reports whether the entity carries no usable value.
func (e Entity) Empty() bool {
	if e.IsList {
		for _, v := range e.Values {
			if strings.TrimSpace(v) != "" {
				return false
			}
		}
		return true
	}
	return strings.TrimSpace(e.Value) == ""
}

// MarshalJSON encodes the entity as a JSON string or array.
func (e Entity) MarshalJSON() ([]byte, error) {
	if e.IsList {
		vs := e.Values
		if vs == nil {
			vs = []string{}
		}
		return json.Marshal(vs)
	}
	return json.Marshal(e.Value)
}

// UnmarshalJSON accepts a JSON string or an array of strings.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = Text(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("entity must be a string or a list of strings: %w", err)
	}
	*e = List(list...)
	return nil
}

// Entities maps extracted keys to their values.
type Entities map[string]Entity

// Get returns the string form of key, or "" when absent.
func (es Entities) Get(key string) string {
	if e, ok := es[key]; ok {
		return e.String()
	}
	return ""
}

// Has reports whether key is present with a non-empty value.
func (es Entities) Has(key string) bool {
	e, ok := es[key]
	return ok && !e.Empty()
}

// FromAny converts a loosely typed value (string, []string, []any) into an Entity.
func FromAny(v any) (Entity, error) {
	switch val := v.(type) {
	case nil:
		return Text(""), nil
	case string:
		return Text(val), nil
	case []string:
		return List(val...), nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprint(item))
		}
		return List(out...), nil
	case Entity:
		return val, nil
	default:
		return Text(fmt.Sprint(val)), nil
	}
}

func (es Entities) clone() Entities {
	if es == nil {
		return nil
	}
	out := make(Entities, len(es))
	for k, v := range es {
		if v.IsList {
			v.Values = append([]string(nil), v.Values...)
		}
		out[k] = v
	}
	return out
}
