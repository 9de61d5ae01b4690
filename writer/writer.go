package writer

import (
	"context"

	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmfeatures/cache"
	"github.com/omniscale/osmfeatures/element"
	"github.com/omniscale/osmfeatures/feature"

	"golang.org/x/sync/errgroup"
)

// ShardedWriter runs the second pass over all cached nodes, ways and
// relations. Elements are distributed to shards by id; every shard has its
// own Assembler and RelationTypeCache. All shards emit into one
// FeatureBuffer, so the Emitter is only called from a single goroutine.
type ShardedWriter struct {
	osmCache   *cache.OSMCache
	classifier Classifier
	emitter    feature.Emitter
	shards     int
	opts       Options
}

func NewShardedWriter(
	osmCache *cache.OSMCache,
	classifier Classifier,
	emitter feature.Emitter,
	shards int,
	opts Options,
) *ShardedWriter {
	if shards < 1 {
		shards = 1
	}
	return &ShardedWriter{
		osmCache:   osmCache,
		classifier: classifier,
		emitter:    emitter,
		shards:     shards,
		opts:       opts,
	}
}

// Run processes all elements. The first error of any shard cancels the
// run and is returned.
func (w *ShardedWriter) Run(ctx context.Context) error {
	buf := NewFeatureBuffer(w.emitter)
	g, ctx := errgroup.WithContext(ctx)

	inputs := make([]chan element.RawElement, w.shards)
	for i := range inputs {
		in := make(chan element.RawElement, 256)
		inputs[i] = in
		asm := NewAssembler(w.osmCache, w.classifier, NewRelationTypeCache(w.classifier), buf, w.opts)
		g.Go(func() error {
			return runShard(ctx, asm, in)
		})
	}

	g.Go(func() error {
		defer func() {
			for _, in := range inputs {
				close(in)
			}
		}()
		return w.dispatch(ctx, inputs)
	})

	err := g.Wait()
	if bufErr := buf.Close(); err == nil {
		err = bufErr
	}
	return err
}

func runShard(ctx context.Context, asm *Assembler, in <-chan element.RawElement) error {
	for {
		select {
		case elem, ok := <-in:
			if !ok {
				return nil
			}
			if err := asm.Process(elem); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *ShardedWriter) dispatch(ctx context.Context, inputs []chan element.RawElement) error {
	send := func(id int64, elem element.RawElement) error {
		select {
		case inputs[shardOf(id, len(inputs))] <- elem:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	log.Printf("processing nodes")
	err := w.osmCache.Nodes.ForEach(func(n *osm.Node) error {
		return send(n.ID, element.FromNode(n))
	})
	if err != nil {
		return err
	}
	log.Printf("processing ways")
	err = w.osmCache.Ways.ForEach(func(way *osm.Way) error {
		return send(way.ID, element.FromWay(way))
	})
	if err != nil {
		return err
	}
	log.Printf("processing relations")
	return w.osmCache.Relations.ForEach(func(r *osm.Relation) error {
		return send(r.ID, element.FromRelation(r))
	})
}

func shardOf(id int64, shards int) int {
	if id < 0 {
		id = -id
	}
	return int(id % int64(shards))
}
