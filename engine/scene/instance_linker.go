package scene

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
)

// Instance is one placement of a geometry in the scene, as delivered by the scene loader.
type Instance struct {
	// GeometryID is the position of the placed geometry in consolidation order.
	GeometryID uint32
	// Transform is the object-to-world matrix (column-major).
	Transform common.Mat4
	// Flags are the optional per-instance flags.
	Flags geometry.InstanceFlags
}

// InstanceOption is a functional option for configuring an Instance via NewInstance.
type InstanceOption func(*Instance)

// WithTransform is an option builder that sets the object-to-world matrix of the Instance.
//
// Parameters:
//   - m: the column-major transform
//
// Returns:
//   - InstanceOption: a function that applies the transform option to an instance
func WithTransform(m common.Mat4) InstanceOption {
	return func(i *Instance) {
		i.Transform = m
	}
}

// WithTRS is an option builder that sets the Instance transform from translation, Euler rotation and scale.
//
// Parameters:
//   - translate: translation in world space
//   - rotate: rotation angles in radians around X, Y and Z
//   - scale: scale factors along each axis
//
// Returns:
//   - InstanceOption: a function that applies the transform option to an instance
func WithTRS(translate, rotate, scale common.Vec3) InstanceOption {
	return func(i *Instance) {
		i.Transform = common.TRS(translate, rotate, scale)
	}
}

// WithFlags is an option builder that sets the flags of the Instance.
//
// Parameters:
//   - flags: the flag bitmask
//
// Returns:
//   - InstanceOption: a function that applies the flags option to an instance
func WithFlags(flags geometry.InstanceFlags) InstanceOption {
	return func(i *Instance) {
		i.Flags = flags
	}
}

// NewInstance creates an Instance of the given geometry placed with the identity transform
// unless an option overrides it.
//
// Parameters:
//   - geometryID: the referenced geometry id
//   - options: a variadic list of InstanceOption functions
//
// Returns:
//   - Instance: the configured instance
func NewInstance(geometryID uint32, options ...InstanceOption) Instance {
	inst := Instance{
		GeometryID: geometryID,
		Transform:  common.IdentityMat4(),
	}
	for _, opt := range options {
		opt(&inst)
	}
	return inst
}

// Linkage is the output of the instance linker: parallel instance descriptor and transform arrays.
type Linkage struct {
	// Instances holds one descriptor per input instance, in input order.
	Instances []geometry.InstanceDescriptor
	// Transforms holds one matrix per instance; Instances[i].TransformID == i.
	Transforms []geometry.Transform
}

// Link maps each instance to its geometry descriptor and records its transform. Every instance owns
// exactly one transform entry, even when several instances place the same geometry with the same matrix.
//
// Parameters:
//   - instances: the ordered scene instances
//   - geometryCount: the number of consolidated geometries
//
// Returns:
//   - *Linkage: the instance descriptors and transforms
//   - error: a *StructuralViolationError if an instance references a missing geometry
func Link(instances []Instance, geometryCount int) (*Linkage, error) {
	l := &Linkage{
		Instances:  make([]geometry.InstanceDescriptor, len(instances)),
		Transforms: make([]geometry.Transform, len(instances)),
	}
	for i, inst := range instances {
		if uint64(inst.GeometryID) >= uint64(geometryCount) {
			return nil, &StructuralViolationError{
				Kind:     ViolationGeometryOutOfRange,
				Geometry: -1,
				Instance: i,
				Value:    uint64(inst.GeometryID),
				Limit:    uint64(geometryCount),
			}
		}
		l.Instances[i] = geometry.InstanceDescriptor{
			GeometryID:  inst.GeometryID,
			TransformID: uint32(i),
			Flags:       inst.Flags,
		}
		l.Transforms[i] = geometry.Transform{Matrix: inst.Transform}
	}
	return l, nil
}
