package xfile

import (
	"github.com/Faultbox/xofkit/pkg/math"
)

const (
	// MaxTexCoordSets is the number of texture coordinate channels a mesh may carry.
	MaxTexCoordSets = 4
	// MaxColorSets is the number of vertex color channels a mesh may carry.
	MaxColorSets = 4

	// DummyRootName names the synthetic root inserted above multiple top-level frames.
	DummyRootName = "$dummy_root"
)

// Face is one polygon as indices into a vertex attribute array.
// It holds at least three indices and is not triangulated.
type Face []uint32

// Triangles fans the polygon into triangles around its first index.
func (f Face) Triangles() [][3]uint32 {
	if len(f) < 3 {
		return nil
	}
	tris := make([][3]uint32, 0, len(f)-2)
	for i := 1; i+1 < len(f); i++ {
		tris = append(tris, [3]uint32{f[0], f[i], f[i+1]})
	}
	return tris
}

// TexEntry is a texture referenced by a material.
type TexEntry struct {
	Name        string
	IsNormalMap bool
}

// Material is either an inline definition or a named reference to a
// scene-global material.
type Material struct {
	Name        string
	IsReference bool
	// SceneIndex is the index into Scene.GlobalMaterials that a reference
	// resolved to, or -1.
	SceneIndex int

	Diffuse          math.Color4
	SpecularExponent float32
	Specular         math.Color3
	Emissive         math.Color3
	Textures         []TexEntry
}

// BoneWeight is one vertex influence.
type BoneWeight struct {
	Vertex uint32
	Weight float32
}

// Bone binds mesh vertices to the frame of the same name.
type Bone struct {
	Name    string
	Weights []BoneWeight
	Offset  math.Mat4 // inverse bind pose
}

// SkinHeader mirrors the XSkinMeshHeader object.
type SkinHeader struct {
	MaxWeightsPerVertex uint32
	MaxWeightsPerFace   uint32
	NumBones            uint32
}

// Mesh is a polygon mesh with parallel attribute arrays.
type Mesh struct {
	Name string

	Positions []math.Vec3
	PosFaces  []Face

	Normals     []math.Vec3
	NormalFaces []Face

	TexCoords   [MaxTexCoordSets][]math.Vec2
	NumTextures int

	Colors       [MaxColorSets][]math.Color4
	NumColorSets int

	// FaceMaterials holds one material index per face once a material
	// list has been read.
	FaceMaterials []uint32
	Materials     []Material

	Bones      []Bone
	SkinHeader *SkinHeader
}

// HasNormals reports whether the mesh carries normals.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0
}

// TriangleCount returns the number of triangles after fan triangulation.
func (m *Mesh) TriangleCount() int {
	total := 0
	for _, f := range m.PosFaces {
		if len(f) >= 3 {
			total += len(f) - 2
		}
	}
	return total
}

// Node is a frame in the scene hierarchy.
type Node struct {
	Name      string
	Transform math.Mat4
	Children  []*Node
	Meshes    []*Mesh

	index  int // position in Scene arena
	parent int // arena index of the parent, -1 for the root
}

// VectorKey is a timed position or scale key.
type VectorKey struct {
	Time  float64
	Value math.Vec3
}

// QuatKey is a timed rotation key.
type QuatKey struct {
	Time  float64
	Value math.Quat
}

// MatrixKey is a timed full-transform key.
type MatrixKey struct {
	Time  float64
	Value math.Mat4
}

// AnimBone holds the keyframe tracks for one frame. A bone may carry both
// matrix keys and position/rotation/scale keys; consumers should prefer the
// matrix track when present.
type AnimBone struct {
	Name       string
	PosKeys    []VectorKey
	RotKeys    []QuatKey
	ScaleKeys  []VectorKey
	MatrixKeys []MatrixKey
}

// KeyCount returns the total number of keys across all tracks.
func (b *AnimBone) KeyCount() int {
	return len(b.PosKeys) + len(b.RotKeys) + len(b.ScaleKeys) + len(b.MatrixKeys)
}

// Duration returns the latest key time on any track.
func (b *AnimBone) Duration() float64 {
	var d float64
	for _, k := range b.PosKeys {
		d = max(d, k.Time)
	}
	for _, k := range b.RotKeys {
		d = max(d, k.Time)
	}
	for _, k := range b.ScaleKeys {
		d = max(d, k.Time)
	}
	for _, k := range b.MatrixKeys {
		d = max(d, k.Time)
	}
	return d
}

// Animation is a named AnimationSet.
type Animation struct {
	Name  string
	Bones []*AnimBone
}

// Duration returns the latest key time across all bones, in ticks.
func (a *Animation) Duration() float64 {
	var d float64
	for _, b := range a.Bones {
		d = max(d, b.Duration())
	}
	return d
}

// Scene is a fully decoded X file. It is not modified after Parse returns.
type Scene struct {
	Header Header

	Root               *Node
	GlobalMeshes       []*Mesh
	GlobalMaterials    []Material
	Animations         []*Animation
	AnimTicksPerSecond uint32

	nodes []*Node // arena, depth-first order
}

// Nodes returns every node in depth-first order, root first.
func (s *Scene) Nodes() []*Node {
	return s.nodes
}

// Parent returns the parent of n, or nil for the root.
func (s *Scene) Parent(n *Node) *Node {
	if n == nil || n.parent < 0 || n.parent >= len(s.nodes) {
		return nil
	}
	return s.nodes[n.parent]
}

// FindNode returns the first node with the given name in depth-first order,
// or nil if none matches.
func (s *Scene) FindNode(name string) *Node {
	for _, n := range s.nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// WorldTransform returns n's transform composed with all of its ancestors.
func (s *Scene) WorldTransform(n *Node) math.Mat4 {
	m := n.Transform
	for p := s.Parent(n); p != nil; p = s.Parent(p) {
		m = p.Transform.Mul(m)
	}
	return m
}

// Meshes returns every mesh in the scene: frame meshes in node order
// followed by global meshes.
func (s *Scene) Meshes() []*Mesh {
	var meshes []*Mesh
	for _, n := range s.nodes {
		meshes = append(meshes, n.Meshes...)
	}
	return append(meshes, s.GlobalMeshes...)
}

// Empty reports whether the file held no frames, meshes, materials or animations.
func (s *Scene) Empty() bool {
	return s.Root == nil && len(s.GlobalMeshes) == 0 &&
		len(s.GlobalMaterials) == 0 && len(s.Animations) == 0
}
