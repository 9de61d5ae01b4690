package mapping

import (
	osm "github.com/omniscale/go-osm"
)

const anyValue = "__any__"

// Classify returns all types whose tags match. A type matches if every key
// of its tags is present with one of the listed values (or any value for
// __any__). The returned Value is finished.
func (m *Mapping) Classify(tags osm.Tags) Value {
	v := Value{}
	if len(tags) == 0 {
		return v
	}
	for _, r := range m.rules {
		if r.match(tags) {
			v.Add(r.typ)
		}
	}
	v.Finish()
	return v
}

func (r *rule) match(tags osm.Tags) bool {
	for k, values := range r.tags {
		v, ok := tags[string(k)]
		if !ok {
			return false
		}
		found := false
		for _, want := range values {
			if string(want) == anyValue || string(want) == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
