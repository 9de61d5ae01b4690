// Package reader implements the first pass: it parses a PBF file and fills
// the OSMCache with all coordinates, tagged nodes, ways and tagged
// relations, including the member to relation indexes.
package reader

import (
	"context"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/go-osm/parser/pbf"
	osmcache "github.com/omniscale/osmfeatures/cache"
	"github.com/omniscale/osmfeatures/logging"
	"github.com/omniscale/osmfeatures/mapping"
	"github.com/omniscale/osmfeatures/stats"
	"github.com/omniscale/osmfeatures/util"

	"github.com/pkg/errors"
)

var log = logging.NewLogger("reader")

// Reader stores parsed element batches. All methods are safe for
// concurrent use.
type Reader struct {
	cache    *osmcache.OSMCache
	progress *stats.Statistics
	filter   *mapping.TagFilter
}

func New(cache *osmcache.OSMCache, progress *stats.Statistics, m *mapping.Mapping) *Reader {
	return &Reader{
		cache:    cache,
		progress: progress,
		filter:   m.TagFilter(),
	}
}

// Coords stores the positions of nds, tagged or not.
func (r *Reader) Coords(nds []osm.Node) error {
	if err := r.cache.Coords.PutCoords(nds); err != nil {
		return errors.Wrap(err, "writing coords")
	}
	r.progress.AddCoords(len(nds))
	return nil
}

// Nodes stores all tagged nodes. Nodes without any mapped tag are stored
// with empty tags, they can still get types from their relations.
func (r *Reader) Nodes(nds []osm.Node) error {
	for i := range nds {
		if len(nds[i].Tags) == 0 {
			nds[i].Tags = nil
			continue
		}
		if !r.filter.Filter(&nds[i].Tags) {
			nds[i].Tags = osm.Tags{}
		}
	}
	n, err := r.cache.Nodes.PutNodes(nds)
	if err != nil {
		return errors.Wrap(err, "writing nodes")
	}
	r.progress.AddNodes(n)
	return nil
}

// Ways stores all ways. Untagged ways are kept, they can be members of
// multipolygons.
func (r *Reader) Ways(ws []osm.Way) error {
	for i := range ws {
		r.filter.Filter(&ws[i].Tags)
	}
	if err := r.cache.Ways.PutWays(ws); err != nil {
		return errors.Wrap(err, "writing ways")
	}
	r.progress.AddWays(len(ws))
	return nil
}

// Relations stores and indexes all relations with at least one mapped tag.
func (r *Reader) Relations(rels []osm.Relation) error {
	numWithTags := 0
	for i := range rels {
		if r.filter.Filter(&rels[i].Tags) {
			numWithTags++
		}
	}
	if numWithTags == 0 {
		return nil
	}
	if err := r.cache.Relations.PutRelations(rels); err != nil {
		return errors.Wrap(err, "writing relations")
	}
	if err := r.cache.WayRelations.AddRelations(rels); err != nil {
		return errors.Wrap(err, "indexing way members")
	}
	if err := r.cache.NodeRelations.AddRelations(rels); err != nil {
		return errors.Wrap(err, "indexing node members")
	}
	r.progress.AddRelations(numWithTags)
	return nil
}

// readersForCpus returns the number of parser, relation, way, node and
// coord workers.
func readersForCpus(cpus int) (int, int, int, int, int) {
	cpuf := float64(cpus)
	quarter := int(math.Ceil(cpuf * 0.25))
	return int(math.Ceil(cpuf * 0.75)), quarter, quarter, quarter, quarter
}

// readProcs returns the worker counts, IMPOSM_READ_PROCS overrides them
// as parser:relations:ways:nodes:coords.
func readProcs() (nParser, nRels, nWays, nNodes, nCoords int) {
	nParser, nRels, nWays, nNodes, nCoords = readersForCpus(runtime.NumCPU())
	procConf := os.Getenv("IMPOSM_READ_PROCS")
	if procConf == "" {
		return
	}
	parts := strings.Split(procConf, ":")
	if len(parts) != 5 {
		log.Warnf("ignoring IMPOSM_READ_PROCS=%s, expected five values", procConf)
		return
	}
	n := make([]int, 5)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 1 {
			log.Warnf("ignoring IMPOSM_READ_PROCS=%s, invalid value %q", procConf, p)
			return
		}
		n[i] = v
	}
	return n[0], n[1], n[2], n[3], n[4]
}

// firstError keeps the first error and cancels the run. Workers keep
// draining their channels after an error so the parser can finish.
type firstError struct {
	mu     sync.Mutex
	err    error
	cancel context.CancelFunc
}

func (e *firstError) set(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	if e.err == nil {
		e.err = err
		e.cancel()
	}
	e.mu.Unlock()
}

func (e *firstError) get() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// ReadPbf parses filename into cache. Ways are only written after all
// nodes, relations after all ways.
func ReadPbf(ctx context.Context, cache *osmcache.OSMCache, progress *stats.Statistics,
	tagmapping *mapping.Mapping, filename string,
) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errs := &firstError{cancel: cancel}

	r := New(cache, progress, tagmapping)
	nParser, nRels, nWays, nNodes, nCoords := readProcs()

	nodes := make(chan []osm.Node, 4)
	coords := make(chan []osm.Node, 4)
	ways := make(chan []osm.Way, 4)
	relations := make(chan []osm.Relation, 4)

	coordsSynced := make(chan struct{})
	coordsSync := util.NewSyncPoint(nCoords+nNodes, func() {
		close(coordsSynced)
	})
	waysSynced := make(chan struct{})
	waysSync := util.NewSyncPoint(nWays, func() {
		close(waysSynced)
	})

	parser := pbf.New(f, pbf.Config{
		Coords:    coords,
		Nodes:     nodes,
		Ways:      ways,
		Relations: relations,
		OnFirstWay: func() {
			for i := 0; i < nCoords; i++ {
				coords <- nil
			}
			for i := 0; i < nNodes; i++ {
				nodes <- nil
			}
			<-coordsSynced
		},
		OnFirstRelation: func() {
			for i := 0; i < nWays; i++ {
				ways <- nil
			}
			<-waysSynced
		},
		Concurrency: nParser,
	})

	header, err := parser.Header()
	if err != nil {
		return errors.Wrapf(err, "reading header of %s", filename)
	}
	if header.Time.Unix() > 0 {
		log.Printf("reading %s with data till %v", filename, header.Time.Local())
	}

	waitWriter := sync.WaitGroup{}
	nodeWorker := func(in chan []osm.Node, store func([]osm.Node) error) {
		defer waitWriter.Done()
		for nds := range in {
			if nds == nil {
				coordsSync.Sync()
				continue
			}
			if errs.get() == nil {
				errs.set(store(nds))
			}
		}
	}
	for i := 0; i < nCoords; i++ {
		waitWriter.Add(1)
		go nodeWorker(coords, r.Coords)
	}
	for i := 0; i < nNodes; i++ {
		waitWriter.Add(1)
		go nodeWorker(nodes, r.Nodes)
	}
	for i := 0; i < nWays; i++ {
		waitWriter.Add(1)
		go func() {
			defer waitWriter.Done()
			for ws := range ways {
				if ws == nil {
					waysSync.Sync()
					continue
				}
				if errs.get() == nil {
					errs.set(r.Ways(ws))
				}
			}
		}()
	}
	for i := 0; i < nRels; i++ {
		waitWriter.Add(1)
		go func() {
			defer waitWriter.Done()
			for rels := range relations {
				if errs.get() == nil {
					errs.set(r.Relations(rels))
				}
			}
		}()
	}

	if err := parser.Parse(ctx); err != nil && ctx.Err() == nil {
		// the parser leaves all channels open after read errors
		return errors.Wrapf(err, "parsing %s", filename)
	}
	waitWriter.Wait()
	if err := errs.get(); err != nil {
		return err
	}
	return ctx.Err()
}
