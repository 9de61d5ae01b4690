package element

import (
	"fmt"
	"sort"
	"strconv"

	osm "github.com/omniscale/go-osm"
)

// Kind is the OSM element type of a RawElement.
type Kind string

const (
	NODE     Kind = "node"
	WAY      Kind = "way"
	RELATION Kind = "relation"
)

// MemberKind maps a Kind to the go-osm member type.
func (k Kind) MemberKind() osm.MemberType {
	switch k {
	case WAY:
		return osm.WayMember
	case RELATION:
		return osm.RelationMember
	}
	return osm.NodeMember
}

// KindOfMember is the inverse of Kind.MemberKind.
func KindOfMember(t osm.MemberType) Kind {
	switch t {
	case osm.WayMember:
		return WAY
	case osm.RelationMember:
		return RELATION
	}
	return NODE
}

// RawMember is a relation member as delivered by the tokenizer.
type RawMember struct {
	Type string
	Ref  string
	Role string
}

// RawElement is a single tagged OSM element before any id is resolved.
// Refs holds the node refs of a way, Members the members of a relation.
// Ids are kept as strings since parsing them is part of processing the
// element; a malformed id aborts the run.
type RawElement struct {
	Kind    Kind
	ID      string
	Tags    osm.Tags
	Refs    []string
	Members []RawMember
}

// IDError is returned for ids that are not non-negative integers.
type IDError struct {
	Kind  Kind
	Field string
	Value string
}

func (e *IDError) Error() string {
	return fmt.Sprintf("malformed %s %s: %q", e.Kind, e.Field, e.Value)
}

func parseID(kind Kind, field, s string) (int64, error) {
	id, err := strconv.ParseUint(s, 10, 63)
	if err != nil {
		return 0, &IDError{Kind: kind, Field: field, Value: s}
	}
	return int64(id), nil
}

// ParseID returns the numeric id of the element.
func (e *RawElement) ParseID() (int64, error) {
	return parseID(e.Kind, "id", e.ID)
}

// ParseRefs returns the numeric node refs of a way.
func (e *RawElement) ParseRefs() ([]int64, error) {
	refs := make([]int64, len(e.Refs))
	for i, r := range e.Refs {
		id, err := parseID(e.Kind, "ref", r)
		if err != nil {
			return nil, err
		}
		refs[i] = id
	}
	return refs, nil
}

// ParseMemberRef returns the numeric ref of a relation member.
func (e *RawElement) ParseMemberRef(m RawMember) (int64, error) {
	return parseID(e.Kind, "member ref", m.Ref)
}

// FromNode converts a cached node into a RawElement.
func FromNode(n *osm.Node) RawElement {
	return RawElement{
		Kind: NODE,
		ID:   strconv.FormatInt(n.ID, 10),
		Tags: n.Tags,
	}
}

// FromWay converts a cached way into a RawElement.
func FromWay(w *osm.Way) RawElement {
	refs := make([]string, len(w.Refs))
	for i, r := range w.Refs {
		refs[i] = strconv.FormatInt(r, 10)
	}
	return RawElement{
		Kind: WAY,
		ID:   strconv.FormatInt(w.ID, 10),
		Tags: w.Tags,
		Refs: refs,
	}
}

// FromRelation converts a cached relation into a RawElement.
func FromRelation(r *osm.Relation) RawElement {
	members := make([]RawMember, len(r.Members))
	for i, m := range r.Members {
		members[i] = RawMember{
			Type: string(KindOfMember(m.Type)),
			Ref:  strconv.FormatInt(m.ID, 10),
			Role: m.Role,
		}
	}
	return RawElement{
		Kind:    RELATION,
		ID:      strconv.FormatInt(r.ID, 10),
		Tags:    r.Tags,
		Members: members,
	}
}

// IdRefs is a sorted set of ids referencing Id, e.g. all relations
// that contain a way.
type IdRefs struct {
	Id   int64
	Refs []int64
}

func (idRefs *IdRefs) Add(ref int64) {
	i := sort.Search(len(idRefs.Refs), func(i int) bool {
		return idRefs.Refs[i] >= ref
	})
	if i < len(idRefs.Refs) && idRefs.Refs[i] >= ref {
		if idRefs.Refs[i] > ref {
			idRefs.Refs = append(idRefs.Refs, 0)
			copy(idRefs.Refs[i+1:], idRefs.Refs[i:])
			idRefs.Refs[i] = ref
		} // else already inserted
	} else {
		idRefs.Refs = append(idRefs.Refs, ref)
	}
}
