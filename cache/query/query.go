// Package query implements the query-cache command. It prints cached
// nodes, ways and relations as JSON.
package query

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmfeatures/cache"

	"github.com/pkg/errors"
)

type nodes map[string]*node
type ways map[string]*way
type relations map[string]*relation

type node struct {
	osm.Node
	Relations relations `json:"relations,omitempty"`
}

type way struct {
	osm.Way
	Nodes     nodes     `json:"nodes,omitempty"`
	Relations relations `json:"relations,omitempty"`
}

type relation struct {
	osm.Relation
	Ways ways `json:"ways,omitempty"`
}

type result struct {
	Nodes     nodes     `json:"nodes,omitempty"`
	Ways      ways      `json:"ways,omitempty"`
	Relations relations `json:"relations,omitempty"`
}

type options struct {
	nodeID, wayID, relID int64
	full, deps           bool
}

func collectRelations(osmCache *cache.OSMCache, ids []int64, recurse bool) (relations, error) {
	rels := make(relations)
	for _, id := range ids {
		sid := strconv.FormatInt(id, 10)
		rel, err := osmCache.GetRelation(id)
		if err == cache.NotFound {
			rels[sid] = nil
			continue
		} else if err != nil {
			return nil, err
		}
		rels[sid] = &relation{Relation: *rel}
		if recurse {
			memberWayIds := []int64{}
			for _, m := range rel.Members {
				if m.Type == osm.WayMember {
					memberWayIds = append(memberWayIds, m.ID)
				}
			}
			rels[sid].Ways, err = collectWays(osmCache, memberWayIds, true, false)
			if err != nil {
				return nil, err
			}
		}
	}
	return rels, nil
}

func collectWays(osmCache *cache.OSMCache, ids []int64, recurse, deps bool) (ways, error) {
	ws := make(ways)
	for _, id := range ids {
		sid := strconv.FormatInt(id, 10)
		w, err := osmCache.GetWay(id)
		if err == cache.NotFound {
			ws[sid] = nil
			continue
		} else if err != nil {
			return nil, err
		}
		ws[sid] = &way{Way: *w}
		if recurse {
			if ws[sid].Nodes, err = collectNodes(osmCache, w.Refs, false); err != nil {
				return nil, err
			}
		}
		if deps {
			rels, err := osmCache.WayRelations.Get(id)
			if err != nil {
				return nil, err
			}
			if len(rels) != 0 {
				if ws[sid].Relations, err = collectRelations(osmCache, rels, false); err != nil {
					return nil, err
				}
			}
		}
	}
	return ws, nil
}

func collectNodes(osmCache *cache.OSMCache, ids []int64, deps bool) (nodes, error) {
	ns := make(nodes)
	for _, id := range ids {
		sid := strconv.FormatInt(id, 10)
		n, err := osmCache.Nodes.GetNode(id)
		if err != cache.NotFound && err != nil {
			return nil, err
		}
		if n == nil {
			n, err = osmCache.GetCoord(id)
			if err == cache.NotFound {
				ns[sid] = nil
				continue
			} else if err != nil {
				return nil, err
			}
		}
		ns[sid] = &node{Node: *n}
		if deps {
			rels, err := osmCache.NodeRelations.Get(id)
			if err != nil {
				return nil, err
			}
			if len(rels) != 0 {
				if ns[sid].Relations, err = collectRelations(osmCache, rels, false); err != nil {
					return nil, err
				}
			}
		}
	}
	return ns, nil
}

func query(osmCache *cache.OSMCache, o options) (*result, error) {
	if o.full && o.deps {
		return nil, errors.New("cannot use -full and -deps option together")
	}
	var err error
	res := &result{}
	if o.relID != -1 {
		if res.Relations, err = collectRelations(osmCache, []int64{o.relID}, o.full); err != nil {
			return nil, err
		}
	}
	if o.wayID != -1 {
		if res.Ways, err = collectWays(osmCache, []int64{o.wayID}, o.full, o.deps); err != nil {
			return nil, err
		}
	}
	if o.nodeID != -1 {
		if res.Nodes, err = collectNodes(osmCache, []int64{o.nodeID}, o.deps); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Query parses args, looks up the requested elements and writes them as
// indented JSON to out.
func Query(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("query-cache", flag.ContinueOnError)
	o := options{}
	flags.Int64Var(&o.nodeID, "node", -1, "node")
	flags.Int64Var(&o.wayID, "way", -1, "way")
	flags.Int64Var(&o.relID, "rel", -1, "relation")
	flags.BoolVar(&o.full, "full", false, "recurse into relations/ways")
	flags.BoolVar(&o.deps, "deps", false, "show relations containing the node/way")
	cachedir := flags.String("cachedir", "/tmp/imposm-features", "cache directory")
	backend := flags.String("cache-backend", cache.BadgerBackend, "cache backend (badger or leveldb)")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s query-cache:\n\n", os.Args[0])
		flags.PrintDefaults()
		fmt.Fprintln(os.Stderr, "\nQuery cache for nodes/ways/relations.")
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	osmCache := cache.NewOSMCache(*cachedir, *backend)
	if !osmCache.Exists() {
		return errors.Errorf("no cache in %s", *cachedir)
	}
	if err := osmCache.Open(); err != nil {
		return err
	}
	defer osmCache.Close()

	res, err := query(osmCache, o)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
