package mapping

import "sort"

// Value is the resolved classification of an element. An empty Value is
// not drawable.
type Value struct {
	Types []Type
}

func (v *Value) IsValid() bool {
	return len(v.Types) > 0
}

func (v *Value) Add(t Type) {
	v.Types = append(v.Types, t)
}

// AddTypes appends all types of o, except those where skip returns true.
// skip can be nil.
func (v *Value) AddTypes(o Value, skip func(Type) bool) {
	for _, t := range o.Types {
		if skip != nil && skip(t) {
			continue
		}
		v.Types = append(v.Types, t)
	}
}

// Finish sorts the types and removes duplicates.
func (v *Value) Finish() {
	if len(v.Types) < 2 {
		return
	}
	sort.Slice(v.Types, func(i, j int) bool { return v.Types[i] < v.Types[j] })
	types := v.Types[:1]
	for _, t := range v.Types[1:] {
		if t != types[len(types)-1] {
			types = append(types, t)
		}
	}
	v.Types = types
}

func (v Value) Has(t Type) bool {
	for _, vt := range v.Types {
		if vt == t {
			return true
		}
	}
	return false
}

// Copy returns a Value that does not share memory with v.
func (v Value) Copy() Value {
	if v.Types == nil {
		return Value{}
	}
	types := make([]Type, len(v.Types))
	copy(types, v.Types)
	return Value{Types: types}
}
