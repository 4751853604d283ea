package querysql

import (
	"maps"
	"sync/atomic"
)

// Scalar type tags recognized in column definitions.
const (
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeObject  = "object"
	// TypeNone is the key for untagged columns.
	TypeNone = ""
)

// TypeMap maps scalar type tags to SQL type keywords. It is part of the
// template cache key.
type TypeMap map[string]string

// defaultTypes holds the process-wide default type map.
var defaultTypes atomic.Pointer[TypeMap]

func init() {
	tm := TypeMap{
		TypeInteger: "INTEGER",
		TypeFloat:   "REAL",
		TypeObject:  "TEXT",
		TypeNone:    "NONE",
	}
	defaultTypes.Store(&tm)
}

// DefaultTypeMap returns a copy of the process-wide default type map.
func DefaultTypeMap() TypeMap {
	return maps.Clone(*defaultTypes.Load())
}

// SetDefaultTypeMap replaces the process-wide default type map.
// Templates already cached under the old map stay valid: the map is part of
// their key.
func SetDefaultTypeMap(tm TypeMap) {
	clone := maps.Clone(tm)
	defaultTypes.Store(&clone)
}

// Lookup resolves a type tag. Tags "none" and "" both select the untagged
// entry.
func (tm TypeMap) Lookup(tag string) (string, bool) {
	if tag == "none" {
		tag = TypeNone
	}
	sqlType, ok := tm[tag]
	return sqlType, ok
}

// Merge returns a copy of tm with the entries of override applied on top.
func (tm TypeMap) Merge(override map[string]string) TypeMap {
	out := maps.Clone(tm)
	if out == nil {
		out = TypeMap{}
	}
	for tag, sqlType := range override {
		if tag == "none" {
			tag = TypeNone
		}
		out[tag] = sqlType
	}
	return out
}
