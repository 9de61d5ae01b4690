package writer

import (
	"fmt"

	"github.com/omniscale/osmfeatures/element"
)

// MembershipError is returned when an element is not a member of a relation
// that was found through the element's own relation index. Store and index
// contradict each other and the run can not continue.
type MembershipError struct {
	RelationID int64
	Kind       element.Kind
	ID         int64
}

func (e *MembershipError) Error() string {
	return fmt.Sprintf("%s %d is not a member of relation %d", e.Kind, e.ID, e.RelationID)
}

// AmbiguousOuterError is returned in strict mode when a way is an outer
// member of more than one multipolygon.
type AmbiguousOuterError struct {
	WayID     int64
	Relations []int64
}

func (e *AmbiguousOuterError) Error() string {
	return fmt.Sprintf("way %d is outer member of multiple multipolygons %v", e.WayID, e.Relations)
}
