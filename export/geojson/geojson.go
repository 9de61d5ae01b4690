// Package geojson writes features as newline-delimited GeoJSON.
package geojson

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/omniscale/osmfeatures/feature"
	"github.com/omniscale/osmfeatures/logging"
	"github.com/omniscale/osmfeatures/mapping"

	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

var log = logging.NewLogger("geojson")

// TypeNamer resolves type codes to their names. Implemented by
// mapping.Mapping.
type TypeNamer interface {
	Name(mapping.Type) string
}

// Writer is a feature.Emitter that writes one GeoJSON feature per line.
type Writer struct {
	mu    sync.Mutex
	w     *bufio.Writer
	c     io.Closer
	names TypeNamer
	count int
}

// NewWriter writes to w. w is not closed by Close.
func NewWriter(w io.Writer, names TypeNamer) *Writer {
	return &Writer{w: bufio.NewWriter(w), names: names}
}

// Create writes to a new file. "-" writes to stdout.
func Create(filename string, names TypeNamer) (*Writer, error) {
	if filename == "-" {
		return NewWriter(os.Stdout, names), nil
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrap(err, "creating geojson output")
	}
	w := NewWriter(f, names)
	w.c = f
	return w, nil
}

// Feature converts f into a GeoJSON feature. Polygon rings are closed.
func (w *Writer) Feature(f *feature.Feature) *geojson.Feature {
	gf := geojson.NewFeature(f.ClosedGeometry())
	types := make([]string, len(f.Types))
	for i, t := range f.Types {
		types[i] = w.names.Name(t)
	}
	ids := make([]string, len(f.Sources))
	for i, s := range f.Sources {
		ids[i] = s.String()
	}
	gf.Properties["kind"] = f.Kind.String()
	gf.Properties["types"] = types
	gf.Properties["osm_ids"] = ids
	return gf
}

func (w *Writer) Emit(f *feature.Feature) error {
	data, err := w.Feature(f).MarshalJSON()
	if err != nil {
		return errors.Wrapf(err, "encoding feature %v", f.Sources)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	w.count++
	return nil
}

// Close flushes all buffered features and closes the output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.w.Flush()
	if w.c != nil {
		if cerr := w.c.Close(); err == nil {
			err = cerr
		}
	}
	log.Printf("wrote %d features", w.count)
	return err
}
