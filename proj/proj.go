package proj

import (
	"fmt"
	"math"

	osm "github.com/omniscale/go-osm"
	"github.com/paulmach/orb"
)

const pole = 6378137 * math.Pi // 20037508.342789244

func WgsToMerc(long, lat float64) (x, y float64) {
	x = long * pole / 180.0
	y = math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / math.Pi * pole
	return x, y
}

func MercToWgs(x, y float64) (long, lat float64) {
	long = 180.0 * x / pole
	lat = 180.0 / math.Pi * (2*math.Atan(math.Exp((y/pole)*math.Pi)) - math.Pi/2)
	return long, lat
}

// Projector converts cached WGS84 nodes into output coordinates.
type Projector struct {
	srid int
}

// NewProjector returns a Projector for srid. Only 4326 and 3857 are
// supported.
func NewProjector(srid int) (Projector, error) {
	if srid != 4326 && srid != 3857 {
		return Projector{}, fmt.Errorf("invalid srid %d. only 4326 and 3857 are supported", srid)
	}
	return Projector{srid: srid}, nil
}

func (p Projector) Srid() int {
	return p.srid
}

// Point returns the projected x/y of the node.
func (p Projector) Point(nd *osm.Node) orb.Point {
	if p.srid == 3857 {
		x, y := WgsToMerc(nd.Long, nd.Lat)
		return orb.Point{x, y}
	}
	return orb.Point{nd.Long, nd.Lat}
}
