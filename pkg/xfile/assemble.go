package xfile

import (
	"go.uber.org/zap"

	"github.com/Faultbox/xofkit/pkg/math"
)

// builder collects parsed objects and assembles the final Scene.
type builder struct {
	log *zap.Logger

	nodes []*Node // creation order until finish rebuilds it
	root  *Node
	dummy bool

	meshes         []*Mesh
	materials      []Material
	animations     []*Animation
	ticksPerSecond uint32
}

func newBuilder(log *zap.Logger) *builder {
	return &builder{log: log}
}

func (b *builder) newNode(name string) *Node {
	n := &Node{Name: name, Transform: math.Identity(), index: len(b.nodes), parent: -1}
	b.nodes = append(b.nodes, n)
	return n
}

func (b *builder) attach(parent, child *Node) {
	child.parent = parent.index
	parent.Children = append(parent.Children, child)
}

// addFrame creates a frame under parent, or at top level when parent is nil.
// A second top-level frame moves the existing root under a synthetic root.
func (b *builder) addFrame(name string, parent *Node) *Node {
	n := b.newNode(name)
	if parent != nil {
		b.attach(parent, n)
		return n
	}

	switch {
	case b.root == nil:
		b.root = n
		return n
	case !b.dummy:
		old := b.root
		b.root = b.newNode(DummyRootName)
		b.dummy = true
		b.attach(b.root, old)
		b.log.Debug("multiple top-level frames, inserted synthetic root",
			zap.String("first", old.Name), zap.String("second", name))
	}
	b.attach(b.root, n)
	return n
}

func (b *builder) finish(opts Options) *Scene {
	s := &Scene{
		Root:               b.root,
		GlobalMeshes:       b.meshes,
		GlobalMaterials:    b.materials,
		Animations:         b.animations,
		AnimTicksPerSecond: b.ticksPerSecond,
	}
	if s.Root != nil {
		if opts.FilterHierarchy {
			b.filterHierarchy(s.Root)
		}
		if opts.PruneEmptyFrames {
			b.pruneEmptyFrames(s.Root)
		}
	}
	s.nodes = buildArena(s.Root)
	b.resolveMaterials(s)
	return s
}

// filterHierarchy folds a single unnamed mesh-carrying child into a
// mesh-less parent. Exporters such as kwXport emit these in-between frames.
// The child's own children move up with it.
func (b *builder) filterHierarchy(n *Node) {
	if len(n.Children) == 1 && len(n.Meshes) == 0 {
		child := n.Children[0]
		if child.Name == "" && len(child.Meshes) > 0 {
			n.Meshes = append(n.Meshes, child.Meshes...)
			n.Transform = n.Transform.Mul(child.Transform)
			n.Children = child.Children
			b.log.Debug("merged anonymous child frame",
				zap.String("parent", n.Name), zap.Int("meshes", len(child.Meshes)))
		}
	}
	for _, c := range n.Children {
		b.filterHierarchy(c)
	}
}

// pruneEmptyFrames drops unnamed leaves that carry nothing.
func (b *builder) pruneEmptyFrames(n *Node) {
	var kept []*Node
	for _, c := range n.Children {
		b.pruneEmptyFrames(c)
		if c.Name == "" && len(c.Children) == 0 && len(c.Meshes) == 0 && c.Transform.IsIdentity() {
			b.log.Debug("pruned empty frame", zap.String("parent", n.Name))
			continue
		}
		kept = append(kept, c)
	}
	n.Children = kept
}

// buildArena lists the tree depth-first and rewrites the index links.
func buildArena(root *Node) []*Node {
	if root == nil {
		return nil
	}
	var nodes []*Node
	var walk func(n *Node, parent int)
	walk = func(n *Node, parent int) {
		n.index = len(nodes)
		n.parent = parent
		nodes = append(nodes, n)
		for _, c := range n.Children {
			walk(c, n.index)
		}
	}
	walk(root, -1)
	return nodes
}

// resolveMaterials points every material reference at the global material
// of the same name. The first definition wins when names repeat.
func (b *builder) resolveMaterials(s *Scene) {
	byName := make(map[string]int, len(s.GlobalMaterials))
	for i, m := range s.GlobalMaterials {
		if _, dup := byName[m.Name]; !dup {
			byName[m.Name] = i
		}
	}

	for _, mesh := range s.Meshes() {
		for i := range mesh.Materials {
			m := &mesh.Materials[i]
			if !m.IsReference {
				continue
			}
			idx, ok := byName[m.Name]
			if !ok {
				b.log.Debug("unresolved material reference",
					zap.String("material", m.Name), zap.String("mesh", mesh.Name))
				idx = -1
			}
			m.SceneIndex = idx
		}
	}
}
