package mapping

import (
	"io/ioutil"
	"strings"

	"github.com/omniscale/osmfeatures/mapping/config"

	"github.com/pkg/errors"
)

// Type is a semantic type code. Codes are assigned in the order the type
// names (and their implicit parents) appear in the mapping. 0 is no type.
type Type uint32

// GeomType is the geometry kind a type can be drawn as.
type GeomType uint8

const (
	PointGeom GeomType = 1 << iota
	LineGeom
	AreaGeom
)

func (g GeomType) String() string {
	switch g {
	case PointGeom:
		return "point"
	case LineGeom:
		return "line"
	case AreaGeom:
		return "area"
	}
	return "unknown"
}

func parseGeomType(s string) (GeomType, error) {
	switch s {
	case "point":
		return PointGeom, nil
	case "line", "linestring":
		return LineGeom, nil
	case "area", "polygon":
		return AreaGeom, nil
	}
	return 0, errors.Errorf("unknown geometry '%s'", s)
}

type rule struct {
	typ  Type
	tags config.KeyValues
}

type Mapping struct {
	Conf      config.Mapping
	names     []string
	byName    map[string]Type
	drawable  []GeomType
	rules     []rule
	boundary  Type
	coastline Type
}

func NewMapping(filename string) (*Mapping, error) {
	f, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	m, err := FromBytes(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading mapping %s", filename)
	}
	return m, nil
}

func FromBytes(data []byte) (*Mapping, error) {
	conf, err := config.Parse(data)
	if err != nil {
		return nil, err
	}
	m := &Mapping{
		Conf:   *conf,
		names:  []string{""},
		byName: make(map[string]Type),
		// type 0 is not drawable
		drawable: []GeomType{0},
	}
	if err := m.prepare(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mapping) prepare() error {
	for _, t := range m.Conf.Types {
		if t.Name == "" {
			return errors.New("type without name")
		}
		if len(t.Tags) == 0 {
			return errors.Errorf("type '%s' without tags", t.Name)
		}
		typ := m.register(t.Name)
		for _, g := range t.Geometry {
			geom, err := parseGeomType(g)
			if err != nil {
				return errors.Wrapf(err, "type '%s'", t.Name)
			}
			m.drawable[typ] |= geom
		}
		m.rules = append(m.rules, rule{typ: typ, tags: t.Tags})
	}
	if m.Conf.Boundary != "" {
		m.boundary = m.register(m.Conf.Boundary)
	}
	if m.Conf.Coastline != "" {
		m.coastline = m.register(m.Conf.Coastline)
	}
	return nil
}

// register returns the code of name, registering it and all of its
// parents (boundary-administrative-4 -> boundary, boundary-administrative).
func (m *Mapping) register(name string) Type {
	if t, ok := m.byName[name]; ok {
		return t
	}
	if i := strings.LastIndex(name, "-"); i > 0 {
		m.register(name[:i])
	}
	t := Type(len(m.names))
	m.names = append(m.names, name)
	m.drawable = append(m.drawable, 0)
	m.byName[name] = t
	return t
}

// Type returns the code for name, or 0 if name is unknown.
func (m *Mapping) Type(name string) Type {
	return m.byName[name]
}

// Name returns the type name of t.
func (m *Mapping) Name(t Type) string {
	if int(t) >= len(m.names) {
		return ""
	}
	return m.names[t]
}

func level(name string) int {
	if name == "" {
		return 0
	}
	return strings.Count(name, "-") + 1
}

// Truncate returns the ancestor of t with at most lvl levels.
func (m *Mapping) Truncate(t Type, lvl int) Type {
	name := m.Name(t)
	if level(name) <= lvl {
		return t
	}
	parts := strings.SplitN(name, "-", lvl+1)
	return m.byName[strings.Join(parts[:lvl], "-")]
}

// BoundaryType returns the administrative boundary type, 0 if none is
// configured.
func (m *Mapping) BoundaryType() Type {
	return m.boundary
}

// IsBoundary reports whether t is the boundary type or one of its
// children.
func (m *Mapping) IsBoundary(t Type) bool {
	if m.boundary == 0 {
		return false
	}
	return m.Truncate(t, level(m.names[m.boundary])) == m.boundary
}

// CoastlineType returns the coastline type, 0 if none is configured.
func (m *Mapping) CoastlineType() Type {
	return m.coastline
}

func (m *Mapping) IsDrawable(t Type, g GeomType) bool {
	if int(t) >= len(m.drawable) {
		return false
	}
	return m.drawable[t]&g != 0
}

// IsDrawableLike reports whether any type of v is drawable as g.
func (m *Mapping) IsDrawableLike(v Value, g GeomType) bool {
	for _, t := range v.Types {
		if m.IsDrawable(t, g) {
			return true
		}
	}
	return false
}

// RemoveNoDrawable removes all types from v that are not drawable as g.
// Returns whether any type is left.
func (m *Mapping) RemoveNoDrawable(v *Value, g GeomType) bool {
	types := v.Types[:0]
	for _, t := range v.Types {
		if m.IsDrawable(t, g) {
			types = append(types, t)
		}
	}
	v.Types = types
	return len(v.Types) > 0
}
