package scene

import (
	"errors"
	"fmt"
)

var (
	// ErrStructuralViolation is the sentinel wrapped by every StructuralViolationError. It signals
	// input the upstream loader must never produce; a scene is never built from such input.
	ErrStructuralViolation = errors.New("scene: structural violation")

	// ErrInvalidScene is returned when the post-construction self check of a ConsolidatedScene fails.
	ErrInvalidScene = errors.New("scene: invalid consolidated scene")
)

// ViolationKind classifies a structural violation.
type ViolationKind int

const (
	// ViolationIndexOutOfRange is a local index that references a vertex outside its own geometry.
	ViolationIndexOutOfRange ViolationKind = iota
	// ViolationPartialTriangle is an index count that is not a multiple of 3.
	ViolationPartialTriangle
	// ViolationAttributeLength is a normal or texcoord array longer than the position array.
	ViolationAttributeLength
	// ViolationOffsetOverflow is a scene whose total vertex or index count does not fit in a u32 offset.
	ViolationOffsetOverflow
	// ViolationGeometryOutOfRange is an instance referencing a geometry id that does not exist.
	ViolationGeometryOutOfRange
)

func (k ViolationKind) String() string {
	switch k {
	case ViolationIndexOutOfRange:
		return "index out of range"
	case ViolationPartialTriangle:
		return "partial triangle"
	case ViolationAttributeLength:
		return "attribute length mismatch"
	case ViolationOffsetOverflow:
		return "offset overflow"
	case ViolationGeometryOutOfRange:
		return "geometry id out of range"
	default:
		return fmt.Sprintf("violation(%d)", int(k))
	}
}

// StructuralViolationError describes a precondition failure attributable to the upstream loader.
// Geometry and Instance are -1 when not applicable.
type StructuralViolationError struct {
	Kind ViolationKind

	// Geometry is the position of the offending geometry in consolidation order.
	Geometry int
	// GeometryName is the offending geometry's name, if any.
	GeometryName string
	// Instance is the position of the offending instance in link order.
	Instance int
	// Position is the element position inside the offending array (e.g. the index slot).
	Position int

	// Value is the offending value and Limit the exclusive bound it violated.
	Value uint64
	Limit uint64
}

func (e *StructuralViolationError) Error() string {
	var where string
	switch {
	case e.Instance >= 0:
		where = fmt.Sprintf("instance %d", e.Instance)
	case e.GeometryName != "":
		where = fmt.Sprintf("geometry %d (%s)", e.Geometry, e.GeometryName)
	default:
		where = fmt.Sprintf("geometry %d", e.Geometry)
	}
	return fmt.Sprintf("%s: %s: %s at position %d: value %d, limit %d",
		ErrStructuralViolation, where, e.Kind, e.Position, e.Value, e.Limit)
}

func (e *StructuralViolationError) Unwrap() error {
	return ErrStructuralViolation
}
