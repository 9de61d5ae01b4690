// Package binary encodes cached OSM elements as compact varint records.
//
// All records are written with gogo/protobuf's proto.Buffer primitives:
// unsigned varints for counts and coordinates, zigzag varints for delta
// encoded ids and length prefixed strings for tags and roles.
package binary

import (
	"sort"

	"github.com/gogo/protobuf/proto"
	osm "github.com/omniscale/go-osm"
	"github.com/pkg/errors"
)

const COORD_FACTOR float64 = 11930464.7083 // ((2<<31)-1)/360.0

func CoordToInt(coord float64) uint32 {
	return uint32((coord + 180.0) * COORD_FACTOR)
}

func IntToCoord(coord uint32) float64 {
	return float64((float64(coord) / COORD_FACTOR) - 180.0)
}

// maxCount limits decoded slice lengths so a corrupt record can not
// trigger huge allocations.
const maxCount = 1 << 24

var errCount = errors.New("invalid element count")

func encodeCoord(buf *proto.Buffer, long, lat float64) error {
	if err := buf.EncodeVarint(uint64(CoordToInt(long))); err != nil {
		return err
	}
	return buf.EncodeVarint(uint64(CoordToInt(lat)))
}

func decodeCoord(buf *proto.Buffer) (long, lat float64, err error) {
	x, err := buf.DecodeVarint()
	if err != nil {
		return 0, 0, err
	}
	y, err := buf.DecodeVarint()
	if err != nil {
		return 0, 0, err
	}
	return IntToCoord(uint32(x)), IntToCoord(uint32(y)), nil
}

func decodeCount(buf *proto.Buffer) (int, error) {
	n, err := buf.DecodeVarint()
	if err != nil {
		return 0, err
	}
	if n > maxCount {
		return 0, errCount
	}
	return int(n), nil
}

// encodeTags writes the tags sorted by key, so equal tags always result in
// equal records.
func encodeTags(buf *proto.Buffer, tags osm.Tags) error {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if err := buf.EncodeVarint(uint64(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		if err := buf.EncodeStringBytes(k); err != nil {
			return err
		}
		if err := buf.EncodeStringBytes(tags[k]); err != nil {
			return err
		}
	}
	return nil
}

func decodeTags(buf *proto.Buffer) (osm.Tags, error) {
	n, err := decodeCount(buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	tags := make(osm.Tags, n)
	for i := 0; i < n; i++ {
		k, err := buf.DecodeStringBytes()
		if err != nil {
			return nil, err
		}
		v, err := buf.DecodeStringBytes()
		if err != nil {
			return nil, err
		}
		tags[k] = v
	}
	return tags, nil
}

// encodeDeltas writes ids as zigzag encoded differences to their
// predecessor.
func encodeDeltas(buf *proto.Buffer, ids []int64) error {
	if err := buf.EncodeVarint(uint64(len(ids))); err != nil {
		return err
	}
	last := int64(0)
	for _, id := range ids {
		if err := buf.EncodeZigzag64(uint64(id - last)); err != nil {
			return err
		}
		last = id
	}
	return nil
}

func decodeDeltas(buf *proto.Buffer) ([]int64, error) {
	n, err := decodeCount(buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	ids := make([]int64, n)
	last := int64(0)
	for i := range ids {
		d, err := buf.DecodeZigzag64()
		if err != nil {
			return nil, err
		}
		last += int64(d)
		ids[i] = last
	}
	return ids, nil
}

// MarshalCoord encodes the position of node. The id is part of the key,
// not the record.
func MarshalCoord(node *osm.Node) []byte {
	buf := proto.NewBuffer(make([]byte, 0, 10))
	encodeCoord(buf, node.Long, node.Lat)
	return buf.Bytes()
}

func UnmarshalCoord(id int64, data []byte) (*osm.Node, error) {
	long, lat, err := decodeCoord(proto.NewBuffer(data))
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal coord")
	}
	node := &osm.Node{Long: long, Lat: lat}
	node.ID = id
	return node, nil
}

func MarshalNode(node *osm.Node) ([]byte, error) {
	buf := proto.NewBuffer(nil)
	if err := encodeCoord(buf, node.Long, node.Lat); err != nil {
		return nil, err
	}
	if err := encodeTags(buf, node.Tags); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalNode(data []byte) (*osm.Node, error) {
	buf := proto.NewBuffer(data)
	long, lat, err := decodeCoord(buf)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal node")
	}
	tags, err := decodeTags(buf)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal node tags")
	}
	node := &osm.Node{Long: long, Lat: lat}
	node.Tags = tags
	return node, nil
}

func MarshalWay(way *osm.Way) ([]byte, error) {
	buf := proto.NewBuffer(nil)
	if err := encodeDeltas(buf, way.Refs); err != nil {
		return nil, err
	}
	if err := encodeTags(buf, way.Tags); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalWay(data []byte) (*osm.Way, error) {
	buf := proto.NewBuffer(data)
	refs, err := decodeDeltas(buf)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal way refs")
	}
	tags, err := decodeTags(buf)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal way tags")
	}
	way := &osm.Way{Refs: refs}
	way.Tags = tags
	return way, nil
}

func MarshalRelation(relation *osm.Relation) ([]byte, error) {
	buf := proto.NewBuffer(nil)
	ids := make([]int64, len(relation.Members))
	for i, m := range relation.Members {
		ids[i] = m.ID
	}
	if err := encodeDeltas(buf, ids); err != nil {
		return nil, err
	}
	for _, m := range relation.Members {
		if err := buf.EncodeVarint(uint64(m.Type)); err != nil {
			return nil, err
		}
		if err := buf.EncodeStringBytes(m.Role); err != nil {
			return nil, err
		}
	}
	if err := encodeTags(buf, relation.Tags); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalRelation(data []byte) (*osm.Relation, error) {
	buf := proto.NewBuffer(data)
	ids, err := decodeDeltas(buf)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal relation members")
	}
	relation := &osm.Relation{}
	if len(ids) > 0 {
		relation.Members = make([]osm.Member, len(ids))
	}
	for i := range ids {
		typ, err := buf.DecodeVarint()
		if err != nil {
			return nil, errors.Wrap(err, "unmarshal relation member type")
		}
		if typ > osm.RelationMember {
			return nil, errors.Errorf("unmarshal relation: invalid member type %d", typ)
		}
		role, err := buf.DecodeStringBytes()
		if err != nil {
			return nil, errors.Wrap(err, "unmarshal relation member role")
		}
		relation.Members[i] = osm.Member{ID: ids[i], Type: osm.MemberType(typ), Role: role}
	}
	tags, err := decodeTags(buf)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal relation tags")
	}
	relation.Tags = tags
	return relation, nil
}

// MarshalIdRefs encodes a sorted id list, e.g. the relations of a way.
func MarshalIdRefs(refs []int64) []byte {
	buf := proto.NewBuffer(make([]byte, 0, len(refs)*2+1))
	encodeDeltas(buf, refs)
	return buf.Bytes()
}

func UnmarshalIdRefs(data []byte) ([]int64, error) {
	refs, err := decodeDeltas(proto.NewBuffer(data))
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal id refs")
	}
	return refs, nil
}
