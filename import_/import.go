/*
Package import_ runs the read, write and run commands: the first pass
fills the cache from a PBF file, the second pass assembles features from
the cache and writes them to GeoJSON and/or PostGIS.
*/
package import_

import (
	"context"
	"io"

	"github.com/omniscale/osmfeatures/cache"
	"github.com/omniscale/osmfeatures/config"
	"github.com/omniscale/osmfeatures/database"
	"github.com/omniscale/osmfeatures/database/postgis"
	"github.com/omniscale/osmfeatures/export/geojson"
	"github.com/omniscale/osmfeatures/feature"
	"github.com/omniscale/osmfeatures/logging"
	"github.com/omniscale/osmfeatures/mapping"
	"github.com/omniscale/osmfeatures/proj"
	"github.com/omniscale/osmfeatures/reader"
	"github.com/omniscale/osmfeatures/stats"
	"github.com/omniscale/osmfeatures/writer"

	"github.com/pkg/errors"
)

var log = logging.NewLogger("")

func Import(ctx context.Context, opts config.Options) error {
	logging.SetQuiet(opts.Quiet)
	logging.SetDebug(opts.Debug)

	tagmapping, err := mapping.NewMapping(opts.MappingFile)
	if err != nil {
		return errors.Wrap(err, "mapping file")
	}

	osmCache := cache.NewOSMCache(opts.CacheDir, opts.CacheBackend)
	defer osmCache.Close()

	step := log.StartStep("Imposm features")
	defer log.StopStep(step)

	if opts.Reads() {
		if err := read(ctx, opts, osmCache, tagmapping); err != nil {
			return err
		}
	}
	if opts.Writes() {
		if err := write(ctx, opts, osmCache, tagmapping); err != nil {
			return err
		}
	}
	return nil
}

func read(ctx context.Context, opts config.Options, osmCache *cache.OSMCache, tagmapping *mapping.Mapping) error {
	if osmCache.Exists() {
		if !opts.Overwritecache {
			return errors.Errorf("cache %s already exists, use -overwritecache", osmCache.Dir())
		}
		log.Printf("removing existing cache %s", osmCache.Dir())
		if err := osmCache.Remove(); err != nil {
			return errors.Wrap(err, "unable to remove cache")
		}
	}

	defer log.StopStep(log.StartStep("Reading OSM data"))
	if err := osmCache.Open(); err != nil {
		return err
	}
	progress := stats.StatsReporter()
	err := reader.ReadPbf(ctx, osmCache, progress, tagmapping, opts.PbfFile)
	progress.Stop()
	osmCache.Close()
	return err
}

func write(ctx context.Context, opts config.Options, osmCache *cache.OSMCache, tagmapping *mapping.Mapping) error {
	if !osmCache.Exists() {
		return errors.Errorf("no cache in %s, run read first", osmCache.Dir())
	}
	projector, err := proj.NewProjector(opts.Srid)
	if err != nil {
		return err
	}

	emitter, err := openEmitters(opts, tagmapping)
	if err != nil {
		return err
	}

	defer log.StopStep(log.StartStep("Writing features"))
	if err := osmCache.Open(); err != nil {
		emitter.Abort()
		return err
	}
	progress := stats.StatsReporter()
	w := writer.NewShardedWriter(osmCache, tagmapping, emitter, opts.Shards, writer.Options{
		MatchHolesToRings: opts.MatchHoles,
		StrictOuter:       opts.StrictOuter,
		Projector:         projector,
		Progress:          progress,
	})
	err = w.Run(ctx)
	progress.Stop()
	if err != nil {
		emitter.Abort()
		return err
	}
	return emitter.Close()
}

// emitters fans out every feature to all configured outputs.
type emitters struct {
	geojson *geojson.Writer
	postgis *postgis.PostGIS
}

func openEmitters(opts config.Options, tagmapping *mapping.Mapping) (*emitters, error) {
	e := &emitters{}
	if opts.Output != "" {
		w, err := geojson.Create(opts.Output, tagmapping)
		if err != nil {
			return nil, err
		}
		e.geojson = w
	}
	if opts.Connection != "" {
		pg, err := postgis.New(database.Config{
			ConnectionParams: opts.Connection,
			Srid:             opts.Srid,
		}, tagmapping)
		if err == nil {
			err = pg.Open()
		}
		if err != nil {
			e.Abort()
			return nil, errors.Wrap(err, "opening PostGIS")
		}
		e.postgis = pg
	}
	return e, nil
}

func (e *emitters) Emit(f *feature.Feature) error {
	if e.geojson != nil {
		if err := e.geojson.Emit(f); err != nil {
			return err
		}
	}
	if e.postgis != nil {
		if err := e.postgis.Emit(f); err != nil {
			return err
		}
	}
	return nil
}

func (e *emitters) Close() error {
	var err error
	for _, c := range e.closers() {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Abort discards the PostGIS transaction. GeoJSON output is kept.
func (e *emitters) Abort() {
	if e.postgis != nil {
		if err := e.postgis.Abort(); err != nil {
			log.Errorf("aborting PostGIS import: %s", err)
		}
		e.postgis = nil
	}
	if e.geojson != nil {
		e.geojson.Close()
		e.geojson = nil
	}
}

func (e *emitters) closers() []io.Closer {
	var closers []io.Closer
	if e.geojson != nil {
		closers = append(closers, e.geojson)
	}
	if e.postgis != nil {
		closers = append(closers, e.postgis)
	}
	return closers
}
