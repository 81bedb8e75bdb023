package xfile

import (
	"fmt"
	"strings"
)

// Severity ranks a lint issue.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Issue is a problem Check found in an otherwise well-formed scene.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// rotationTolerance is how far a rotation key's norm may stray from 1.
const rotationTolerance = 1e-3

// Check reports problems a consumer would trip over that Parse accepts:
// out-of-range indices, dangling references and non-unit rotations.
func (s *Scene) Check() []Issue {
	c := &checker{scene: s}
	for _, n := range s.nodes {
		path := s.nodePath(n)
		for i, m := range n.Meshes {
			c.mesh(path+"/"+meshLabel(i, m), m)
		}
	}
	for i, m := range s.GlobalMeshes {
		c.mesh(meshLabel(i, m), m)
	}
	for _, a := range s.Animations {
		c.animation(a)
	}
	return c.issues
}

func meshLabel(i int, m *Mesh) string {
	if m.Name != "" {
		return "mesh " + m.Name
	}
	return fmt.Sprintf("mesh #%d", i)
}

func (s *Scene) nodePath(n *Node) string {
	var parts []string
	for ; n != nil; n = s.Parent(n) {
		name := n.Name
		if name == "" {
			name = "<unnamed>"
		}
		parts = append(parts, name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

type checker struct {
	scene  *Scene
	issues []Issue
}

func (c *checker) add(sev Severity, path, format string, args ...any) {
	c.issues = append(c.issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
}

// faces reports faces indexing past count, once per array.
func (c *checker) faces(path, what string, faces []Face, count int) {
	bad, first := 0, -1
	for i, f := range faces {
		for _, idx := range f {
			if int(idx) >= count {
				if first < 0 {
					first = i
				}
				bad++
				break
			}
		}
	}
	if bad > 0 {
		c.add(SeverityError, path, "%d %s faces index past %d entries (first: face %d)", bad, what, count, first)
	}
}

func (c *checker) mesh(path string, m *Mesh) {
	c.faces(path, "position", m.PosFaces, len(m.Positions))
	if len(m.NormalFaces) > 0 {
		c.faces(path, "normal", m.NormalFaces, len(m.Normals))
	}

	if len(m.FaceMaterials) > 0 {
		bad := 0
		for _, idx := range m.FaceMaterials {
			if int(idx) >= len(m.Materials) {
				bad++
			}
		}
		if bad > 0 {
			c.add(SeverityError, path, "%d face material indices past %d materials", bad, len(m.Materials))
		}
	}
	for _, mat := range m.Materials {
		if mat.IsReference && mat.SceneIndex < 0 {
			c.add(SeverityWarning, path, "material reference %q is unresolved", mat.Name)
		}
	}

	for _, bone := range m.Bones {
		if c.scene.FindNode(bone.Name) == nil {
			c.add(SeverityWarning, path, "bone %q names no frame", bone.Name)
		}
		bad := 0
		for _, w := range bone.Weights {
			if int(w.Vertex) >= len(m.Positions) {
				bad++
			}
		}
		if bad > 0 {
			c.add(SeverityError, path, "bone %q has %d weights past %d vertices", bone.Name, bad, len(m.Positions))
		}
	}
	if m.SkinHeader != nil && int(m.SkinHeader.NumBones) != len(m.Bones) {
		c.add(SeverityWarning, path, "skin header declares %d bones, mesh has %d",
			m.SkinHeader.NumBones, len(m.Bones))
	}
}

func (c *checker) animation(a *Animation) {
	for _, bone := range a.Bones {
		path := "animation " + a.Name + "/" + bone.Name
		if c.scene.FindNode(bone.Name) == nil {
			c.add(SeverityWarning, path, "track names no frame")
		}
		bad := 0
		for _, k := range bone.RotKeys {
			if l := k.Value.Length(); l < 1-rotationTolerance || l > 1+rotationTolerance {
				bad++
			}
		}
		if bad > 0 {
			c.add(SeverityWarning, path, "%d rotation keys are not unit quaternions", bad)
		}
	}
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
