package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Faultbox/xofkit/pkg/math"
	"github.com/Faultbox/xofkit/pkg/xfile"
)

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ExitOnError)
}

// reportWriter aligns tab-separated columns in command output.
type reportWriter struct {
	*tabwriter.Writer
}

func newReportWriter(w io.Writer) *reportWriter {
	return &reportWriter{tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (w *reportWriter) line(format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

func displayName(name string) string {
	if name == "" {
		return "<unnamed>"
	}
	return name
}

func writeInfo(w *reportWriter, name string, s *xfile.Scene) {
	var verts, faces, tris int
	meshes := s.Meshes()
	for _, m := range meshes {
		verts += len(m.Positions)
		faces += len(m.PosFaces)
		tris += m.TriangleCount()
	}

	w.line("File:\t%s", name)
	w.line("Version:\t%s", s.Header.Version())
	w.line("Encoding:\t%s (%q)", s.Header.Encoding, s.Header.Encoding.Tag())
	w.line("Float size:\t%d bits", s.Header.FloatSize*8)
	w.line("Frames:\t%d", len(s.Nodes()))
	w.line("Meshes:\t%d (%d global)", len(meshes), len(s.GlobalMeshes))
	w.line("Materials:\t%d global", len(s.GlobalMaterials))
	w.line("Vertices:\t%d", verts)
	w.line("Faces:\t%d (%d triangles)", faces, tris)
	w.line("Animations:\t%d", len(s.Animations))
	if s.AnimTicksPerSecond > 0 {
		w.line("Ticks/sec:\t%d", s.AnimTicksPerSecond)
	}
	if s.Empty() {
		w.line("(empty scene)")
	}
}

func writeTree(w *reportWriter, s *xfile.Scene) {
	if s.Root == nil {
		w.line("(no frames)")
	}

	var walk func(n *xfile.Node, depth int)
	walk = func(n *xfile.Node, depth int) {
		label := strings.Repeat("  ", depth) + displayName(n.Name)
		if len(n.Meshes) > 0 {
			label += fmt.Sprintf(" [%d mesh]", len(n.Meshes))
		}
		w.line("%s", label)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	if s.Root != nil {
		walk(s.Root, 0)
	}

	if len(s.GlobalMeshes) > 0 {
		w.line("(global) [%d mesh]", len(s.GlobalMeshes))
	}
}

func writeMeshes(w *reportWriter, s *xfile.Scene) {
	w.line("FRAME\tMESH\tVERTS\tFACES\tTRIS\tNORMALS\tUV\tCOLORS\tMATS\tBONES")
	row := func(frame string, m *xfile.Mesh) {
		w.line("%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d",
			frame, displayName(m.Name), len(m.Positions), len(m.PosFaces), m.TriangleCount(),
			len(m.Normals), m.NumTextures, m.NumColorSets, len(m.Materials), len(m.Bones))
	}
	for _, n := range s.Nodes() {
		for _, m := range n.Meshes {
			row(displayName(n.Name), m)
		}
	}
	for _, m := range s.GlobalMeshes {
		row("(global)", m)
	}
}

func formatColor3(c math.Color3) string {
	return fmt.Sprintf("%.3f %.3f %.3f", c.R, c.G, c.B)
}

func formatColor4(c math.Color4) string {
	return fmt.Sprintf("%.3f %.3f %.3f %.3f", c.R, c.G, c.B, c.A)
}

func writeMaterial(w *reportWriter, indent string, i int, mat xfile.Material) {
	if mat.IsReference {
		target := "unresolved"
		if mat.SceneIndex >= 0 {
			target = fmt.Sprintf("global #%d", mat.SceneIndex)
		}
		w.line("%s#%d %s -> %s", indent, i, displayName(mat.Name), target)
		return
	}

	w.line("%s#%d %s", indent, i, displayName(mat.Name))
	w.line("%s  diffuse\t%s", indent, formatColor4(mat.Diffuse))
	w.line("%s  specular\t%s (power %.2f)", indent, formatColor3(mat.Specular), mat.SpecularExponent)
	w.line("%s  emissive\t%s", indent, formatColor3(mat.Emissive))
	for _, tex := range mat.Textures {
		kind := "texture"
		if tex.IsNormalMap {
			kind = "normalmap"
		}
		w.line("%s  %s\t%s", indent, kind, tex.Name)
	}
}

func writeMaterials(w *reportWriter, s *xfile.Scene) {
	w.line("Global materials: %d", len(s.GlobalMaterials))
	for i, mat := range s.GlobalMaterials {
		writeMaterial(w, "  ", i, mat)
	}

	for _, m := range s.Meshes() {
		if len(m.Materials) == 0 {
			continue
		}
		w.line("Mesh %s: %d materials", displayName(m.Name), len(m.Materials))
		for i, mat := range m.Materials {
			writeMaterial(w, "  ", i, mat)
		}
	}
}

func writeAnims(w *reportWriter, s *xfile.Scene) {
	if s.AnimTicksPerSecond > 0 {
		w.line("Ticks per second: %d", s.AnimTicksPerSecond)
	}
	if len(s.Animations) == 0 {
		w.line("(no animations)")
		return
	}

	for _, a := range s.Animations {
		w.line("%s: %d tracks, duration %g", displayName(a.Name), len(a.Bones), a.Duration())
		for _, b := range a.Bones {
			w.line("  %s\tpos %d\trot %d\tscale %d\tmatrix %d",
				displayName(b.Name), len(b.PosKeys), len(b.RotKeys), len(b.ScaleKeys), len(b.MatrixKeys))
		}
	}
}

func writePose(w *reportWriter, s *xfile.Scene, tick float64) {
	if len(s.Animations) == 0 {
		w.line("(no animations)")
		return
	}

	for _, a := range s.Animations {
		w.line("%s @ %g:", displayName(a.Name), tick)
		pose := s.Pose(a, tick)
		for _, n := range s.Nodes() {
			m, ok := pose[n]
			if !ok {
				continue
			}
			p := m.Translation()
			w.line("  %s	translation %.3f %.3f %.3f", displayName(n.Name), p.X, p.Y, p.Z)
		}
	}
}
