// Package manifest loads YAML scene manifests describing procedural or inline geometries and the
// instances that place them, and turns them into the inputs of scene.NewConsolidatedScene.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/primitive"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/chewxy/math32"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// KindMesh marks a geometry whose arrays are given inline in the manifest.
const KindMesh primitive.Kind = "mesh"

// maxManifestSize bounds the size of a manifest file read by Load.
const maxManifestSize = 64 << 20

// ErrInvalidManifest is returned when a manifest parses but cannot describe a scene.
var ErrInvalidManifest = errors.New("manifest: invalid manifest")

// Manifest is the root document of a scene manifest.
type Manifest struct {
	Name       string     `yaml:"name"`
	LogLevel   string     `yaml:"log_level"`
	Workers    int        `yaml:"workers"`
	Validate   *bool      `yaml:"validate"`
	Geometries []Geometry `yaml:"geometries"`
	Groups     []Group    `yaml:"groups"`
	Instances  []Instance `yaml:"instances"`
}

// Geometry describes one geometry record, either procedural (box, cube, plane, sphere) or an inline mesh.
type Geometry struct {
	Name     string  `yaml:"name"`
	Kind     string  `yaml:"kind"`
	Size     float32 `yaml:"size"`
	Segments int     `yaml:"segments"`
	Rings    int     `yaml:"rings"`
	Material uint32  `yaml:"material"`

	// DropNormals and DropTexCoords strip the generated attributes so the normalizer defaults apply.
	DropNormals   bool `yaml:"drop_normals"`
	DropTexCoords bool `yaml:"drop_texcoords"`

	Positions [][]float32 `yaml:"positions"`
	Normals   [][]float32 `yaml:"normals"`
	TexCoords [][]float32 `yaml:"texcoords"`
	Indices   []uint32    `yaml:"indices"`
}

// Placement is a translate/rotate/scale triple. Rotation is in degrees; an omitted scale is 1.
type Placement struct {
	Translate Triple `yaml:"translate"`
	Rotate    Triple `yaml:"rotate"`
	Scale     Triple `yaml:"scale"`
}

// Triple is a vector written either as a sequence or as a single scalar applied to every component.
type Triple []float32

// UnmarshalYAML implements yaml.Unmarshaler for Triple.
func (t *Triple) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var f float32
		if err := value.Decode(&f); err != nil {
			return err
		}
		*t = Triple{f}
		return nil
	}
	var fs []float32
	if err := value.Decode(&fs); err != nil {
		return err
	}
	*t = fs
	return nil
}

// Group is a named parent transform shared by several instances.
type Group struct {
	Name      string `yaml:"name"`
	Placement `yaml:",inline"`
}

// Instance places a geometry, referenced by name, in the scene.
type Instance struct {
	Geometry  string   `yaml:"geometry"`
	Group     string   `yaml:"group"`
	Flags     []string `yaml:"flags"`
	Placement `yaml:",inline"`
}

// Load reads and parses a manifest file.
//
// Parameters:
//   - path: the manifest file path
//
// Returns:
//   - *Manifest: the parsed manifest
//   - error: error if the file cannot be read or parsed
func Load(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: reading %s: %w", path, err)
	}
	if info.Size() > maxManifestSize {
		return nil, fmt.Errorf("manifest: %s is %d bytes, limit %d", path, info.Size(), maxManifestSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: reading %s: %w", path, err)
	}
	m, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a manifest from r. Unknown fields are rejected.
//
// Parameters:
//   - r: the YAML source
//
// Returns:
//   - *Manifest: the parsed manifest
//   - error: error if the document is malformed
func Parse(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("manifest: parsing: %w", err)
	}

	if m.Name == "" {
		m.Name = "scene"
	}
	if m.Workers == 0 {
		m.Workers = 1
	}
	if m.Workers < 0 {
		return nil, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidManifest, m.Workers)
	}
	if m.LogLevel == "" {
		m.LogLevel = "info"
	}
	return &m, nil
}

// Level returns the parsed log level of the manifest.
//
// Returns:
//   - zapcore.Level: the log level
//   - error: error if the level name is unknown
func (m *Manifest) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(m.LogLevel)
	if err != nil {
		return lvl, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	return lvl, nil
}

// Options returns the scene builder options described by the manifest.
//
// Returns:
//   - []scene.SceneBuilderOption: name, worker count and validation options
func (m *Manifest) Options() []scene.SceneBuilderOption {
	opts := []scene.SceneBuilderOption{
		scene.WithName(m.Name),
		scene.WithWorkers(common.Coalesce(m.Workers, 1)),
	}
	if m.Validate != nil {
		opts = append(opts, scene.WithValidation(*m.Validate))
	}
	return opts
}

// Build resolves geometry names and groups and produces the geometry records and instances in
// manifest order.
//
// Returns:
//   - []geometry.Geometry: the geometry records, in load order
//   - []scene.Instance: the instances, in manifest order
//   - error: error if a geometry cannot be built or a reference does not resolve
func (m *Manifest) Build() ([]geometry.Geometry, []scene.Instance, error) {
	ids := make(map[string]uint32, len(m.Geometries))
	geoms := make([]geometry.Geometry, 0, len(m.Geometries))
	for i := range m.Geometries {
		entry := &m.Geometries[i]
		name := entry.Name
		if name == "" {
			name = fmt.Sprintf("geometry_%d", i)
		}
		if _, dup := ids[name]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate geometry name %q", ErrInvalidManifest, name)
		}

		g, err := entry.build(name)
		if err != nil {
			return nil, nil, fmt.Errorf("geometry %q: %w", name, err)
		}
		ids[name] = uint32(len(geoms))
		geoms = append(geoms, g)
	}

	groups := make(map[string]common.Mat4, len(m.Groups))
	for _, grp := range m.Groups {
		if _, dup := groups[grp.Name]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate group name %q", ErrInvalidManifest, grp.Name)
		}
		mat, err := grp.Placement.matrix()
		if err != nil {
			return nil, nil, fmt.Errorf("group %q: %w", grp.Name, err)
		}
		groups[grp.Name] = mat
	}

	instances := make([]scene.Instance, 0, len(m.Instances))
	for i, entry := range m.Instances {
		id, ok := ids[entry.Geometry]
		if !ok {
			return nil, nil, fmt.Errorf("%w: instance %d references unknown geometry %q", ErrInvalidManifest, i, entry.Geometry)
		}

		local, err := entry.Placement.matrix()
		if err != nil {
			return nil, nil, fmt.Errorf("instance %d: %w", i, err)
		}
		world := local
		if entry.Group != "" {
			parent, ok := groups[entry.Group]
			if !ok {
				return nil, nil, fmt.Errorf("%w: instance %d references unknown group %q", ErrInvalidManifest, i, entry.Group)
			}
			common.Mul4(world[:], parent[:], local[:])
		}

		var flags geometry.InstanceFlags
		for _, name := range entry.Flags {
			f, err := geometry.ParseInstanceFlag(name)
			if err != nil {
				return nil, nil, fmt.Errorf("instance %d: %w", i, err)
			}
			flags |= f
		}

		instances = append(instances, scene.NewInstance(id, scene.WithTransform(world), scene.WithFlags(flags)))
	}

	return geoms, instances, nil
}

func (entry *Geometry) build(name string) (geometry.Geometry, error) {
	var g geometry.Geometry
	if primitive.Kind(entry.Kind) == KindMesh {
		var err error
		if g.Positions, err = vec3s(entry.Positions, "positions"); err != nil {
			return g, err
		}
		if g.Normals, err = vec3s(entry.Normals, "normals"); err != nil {
			return g, err
		}
		if g.TexCoords, err = vec2s(entry.TexCoords, "texcoords"); err != nil {
			return g, err
		}
		g.Indices = entry.Indices
		g.Name = name
		g.MaterialID = entry.Material
	} else {
		if len(entry.Positions) > 0 || len(entry.Indices) > 0 {
			return g, fmt.Errorf("%w: inline arrays require kind %q", ErrInvalidManifest, KindMesh)
		}
		var err error
		g, err = primitive.New(name, primitive.Kind(entry.Kind), primitive.Params{
			Size:       entry.Size,
			Segments:   entry.Segments,
			Rings:      entry.Rings,
			MaterialID: entry.Material,
		})
		if err != nil {
			return g, err
		}
	}

	if entry.DropNormals {
		g.Normals = nil
	}
	if entry.DropTexCoords {
		g.TexCoords = nil
	}
	return g, nil
}

func (p Placement) matrix() (common.Mat4, error) {
	t, err := vec3(p.Translate, "translate", 0)
	if err != nil {
		return common.Mat4{}, err
	}
	r, err := vec3(p.Rotate, "rotate", 0)
	if err != nil {
		return common.Mat4{}, err
	}
	s, err := vec3(p.Scale, "scale", 1)
	if err != nil {
		return common.Mat4{}, err
	}
	for i := range r {
		r[i] *= degToRad
	}
	return common.TRS(t, r, s), nil
}

const degToRad = math32.Pi / 180

// vec3 converts an optional triple, a single value is splatted to all three components.
func vec3(v Triple, field string, def float32) (common.Vec3, error) {
	switch len(v) {
	case 0:
		return common.Vec3{def, def, def}, nil
	case 1:
		return common.Vec3{v[0], v[0], v[0]}, nil
	case 3:
		return common.Vec3{v[0], v[1], v[2]}, nil
	default:
		return common.Vec3{}, fmt.Errorf("%w: %s needs 1 or 3 components, got %d", ErrInvalidManifest, field, len(v))
	}
}

func vec3s(vs [][]float32, field string) ([]common.Vec3, error) {
	if len(vs) == 0 {
		return nil, nil
	}
	out := make([]common.Vec3, len(vs))
	for i, v := range vs {
		if len(v) != 3 {
			return nil, fmt.Errorf("%w: %s[%d] needs 3 components, got %d", ErrInvalidManifest, field, i, len(v))
		}
		out[i] = common.Vec3{v[0], v[1], v[2]}
	}
	return out, nil
}

func vec2s(vs [][]float32, field string) ([]common.Vec2, error) {
	if len(vs) == 0 {
		return nil, nil
	}
	out := make([]common.Vec2, len(vs))
	for i, v := range vs {
		if len(v) != 2 {
			return nil, fmt.Errorf("%w: %s[%d] needs 2 components, got %d", ErrInvalidManifest, field, i, len(v))
		}
		out[i] = common.Vec2{v[0], v[1]}
	}
	return out, nil
}
