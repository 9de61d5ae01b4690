package mapping

import (
	osm "github.com/omniscale/go-osm"
)

// TagFilter removes all tags that no type of the mapping needs. It is used
// while reading, to keep the cache small.
type TagFilter struct {
	keys    map[string]struct{}
	loadAll bool
}

func (m *Mapping) TagFilter() *TagFilter {
	f := &TagFilter{
		keys:    make(map[string]struct{}),
		loadAll: m.Conf.Tags.LoadAll,
	}
	for _, r := range m.rules {
		for k := range r.tags {
			f.keys[string(k)] = struct{}{}
		}
	}
	for _, k := range m.Conf.Tags.Include {
		f.keys[string(k)] = struct{}{}
	}
	// relation type decides between multipolygon and type inheritance
	f.keys["type"] = struct{}{}
	return f
}

// Filter removes unneeded tags in place. Returns whether any tag is left.
func (f *TagFilter) Filter(tags *osm.Tags) bool {
	if tags == nil || *tags == nil {
		return false
	}
	if f.loadAll {
		return len(*tags) > 0
	}
	for k := range *tags {
		if _, ok := f.keys[k]; !ok {
			delete(*tags, k)
		}
	}
	if len(*tags) == 0 {
		*tags = nil
		return false
	}
	return true
}
