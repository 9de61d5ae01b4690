// Package feature defines the finished geographic features produced by the
// writer and the Emitter interface they are passed to.
package feature

import (
	"fmt"

	"github.com/omniscale/osmfeatures/element"
	"github.com/omniscale/osmfeatures/geom"
	"github.com/omniscale/osmfeatures/mapping"

	"github.com/paulmach/orb"
)

// Kind is the geometry kind of a Feature. It is fixed when the feature is
// created and always matches the Geometry.
type Kind uint8

const (
	Point Kind = iota + 1
	Line
	Area
)

func (k Kind) String() string {
	switch k {
	case Point:
		return "point"
	case Line:
		return "line"
	case Area:
		return "area"
	}
	return "unknown"
}

// OsmID references a source element of a feature.
type OsmID struct {
	Type element.Kind
	ID   int64
}

func (o OsmID) String() string {
	return fmt.Sprintf("%s/%d", o.Type, o.ID)
}

// Feature is a single output feature. Geometry is an orb.Point for Point,
// an orb.LineString for Line and an orb.Polygon for Area features. Polygon
// rings do not repeat their first point.
//
// Sources lists every element that contributed to the feature, the element
// that was processed first. Features are not modified after Emit.
type Feature struct {
	Kind     Kind
	Geometry orb.Geometry
	Types    []mapping.Type
	Sources  []OsmID
}

// NewPoint, NewLine and NewArea copy types so later changes to the
// originating value do not leak into emitted features.
func NewPoint(p orb.Point, types []mapping.Type, sources ...OsmID) *Feature {
	return &Feature{Kind: Point, Geometry: p, Types: copyTypes(types), Sources: sources}
}

func NewLine(ls orb.LineString, types []mapping.Type, sources ...OsmID) *Feature {
	return &Feature{Kind: Line, Geometry: ls, Types: copyTypes(types), Sources: sources}
}

func NewArea(poly orb.Polygon, types []mapping.Type, sources ...OsmID) *Feature {
	return &Feature{Kind: Area, Geometry: poly, Types: copyTypes(types), Sources: sources}
}

func copyTypes(types []mapping.Type) []mapping.Type {
	return append([]mapping.Type(nil), types...)
}

// Emitter receives finished features. An error returned by Emit aborts the
// run.
type Emitter interface {
	Emit(*Feature) error
}

// EmitterFunc adapts a func to the Emitter interface.
type EmitterFunc func(*Feature) error

func (f EmitterFunc) Emit(feat *Feature) error {
	return f(feat)
}

// Collector is an Emitter that keeps all features in memory.
type Collector struct {
	Features []*Feature
}

func (c *Collector) Emit(f *Feature) error {
	c.Features = append(c.Features, f)
	return nil
}

// ClosedPolygon returns a copy of poly with every ring closed, as required
// by GeoJSON and WKB.
func ClosedPolygon(poly orb.Polygon) orb.Polygon {
	result := make(orb.Polygon, len(poly))
	for i, r := range poly {
		result[i] = geom.CloseRing(r)
	}
	return result
}

// ClosedGeometry returns the geometry of f in the form exporters expect.
func (f *Feature) ClosedGeometry() orb.Geometry {
	if poly, ok := f.Geometry.(orb.Polygon); ok {
		return ClosedPolygon(poly)
	}
	return f.Geometry
}
