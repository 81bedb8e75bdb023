package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/xofkit/internal/assets"
	"github.com/Faultbox/xofkit/internal/config"
	"github.com/Faultbox/xofkit/pkg/xfile"
)

const robotX = `xof 0303txt 0032
Material Red {
 1.0;0.0;0.0;1.0;;
 8.0;
 0.0;0.0;0.0;;
 0.0;0.0;0.0;;
 TextureFilename { "red.bmp"; }
}

Frame Root {
 Frame Arm {
  Mesh ArmMesh {
   3;
   0.0;0.0;0.0;,
   1.0;0.0;0.0;,
   0.0;1.0;0.0;;
   1;
   3;0,1,2;;
   MeshMaterialList {
    1;
    1;
    0;;
    { Red }
   }
  }
 }
 Frame Leg {
 }
}

AnimTicksPerSecond {
 30;
}

AnimationSet Wave {
 Animation {
  { Arm }
  AnimationKey {
   2;
   2;
   0;3;0.0,0.0,0.0;;,
   5;3;1.0,0.0,0.0;;;
  }
 }
}
`

func newTestManager(t *testing.T, files map[string]string) *assets.Manager {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	cfg := config.Default()
	cfg.Assets.SearchPaths = []string{dir}
	m, err := newManager(cfg)
	if err != nil {
		t.Fatalf("newManager failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func loadRobot(t *testing.T) *xfile.Scene {
	t.Helper()
	m := newTestManager(t, map[string]string{"robot.x": robotX})
	s, err := m.LoadScene("robot.x")
	if err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}
	return s
}

func render(t *testing.T, report func(w *reportWriter)) string {
	t.Helper()
	var buf bytes.Buffer
	w := newReportWriter(&buf)
	report(w)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	return buf.String()
}

func requireContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, s := range want {
		if !strings.Contains(out, s) {
			t.Errorf("expected %q in output:\n%s", s, out)
		}
	}
}

func TestWriteInfo(t *testing.T) {
	s := loadRobot(t)
	out := render(t, func(w *reportWriter) { writeInfo(w, "robot.x", s) })

	requireContains(t, out,
		"robot.x",
		"3.3",
		"Text",
		"32 bits",
		"Frames:      3",
		"Vertices:    3",
		"1 triangles",
		"Ticks/sec:   30",
	)
	if strings.Contains(out, "empty scene") {
		t.Error("robot scene reported as empty")
	}
}

func TestWriteTree(t *testing.T) {
	s := loadRobot(t)
	out := render(t, func(w *reportWriter) { writeTree(w, s) })

	want := "Root\n  Arm [1 mesh]\n  Leg\n"
	if out != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, out)
	}
}

func TestWriteMeshes(t *testing.T) {
	s := loadRobot(t)
	out := render(t, func(w *reportWriter) { writeMeshes(w, s) })

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and 1 row, got %d lines:\n%s", len(lines), out)
	}
	fields := strings.Fields(lines[1])
	want := []string{"Arm", "ArmMesh", "3", "1", "1", "0", "0", "0", "1", "0"}
	if strings.Join(fields, " ") != strings.Join(want, " ") {
		t.Errorf("expected row %v, got %v", want, fields)
	}
}

func TestWriteMaterials(t *testing.T) {
	s := loadRobot(t)
	out := render(t, func(w *reportWriter) { writeMaterials(w, s) })

	requireContains(t, out,
		"Global materials: 1",
		"#0 Red",
		"1.000 0.000 0.000 1.000",
		"red.bmp",
		"Mesh ArmMesh: 1 materials",
		"#0 Red -> global #0",
	)
}

func TestWriteAnims(t *testing.T) {
	s := loadRobot(t)
	out := render(t, func(w *reportWriter) { writeAnims(w, s) })

	requireContains(t, out,
		"Ticks per second: 30",
		"Wave: 1 tracks, duration 5",
		"Arm",
		"pos 2",
	)

	empty := render(t, func(w *reportWriter) { writeAnims(w, &xfile.Scene{}) })
	requireContains(t, empty, "(no animations)")
}

func TestWritePose(t *testing.T) {
	s := loadRobot(t)
	out := render(t, func(w *reportWriter) { writePose(w, s, 2.5) })

	requireContains(t, out, "Wave @ 2.5:", "Arm", "translation 0.500 0.000 0.000")
	if strings.Contains(out, "Leg") {
		t.Errorf("unanimated frame in pose output:\n%s", out)
	}
}

func TestCheckScenes(t *testing.T) {
	m := newTestManager(t, map[string]string{
		"robot.x":  robotX,
		"broken.x": "xof 0303txt 0032\nFrame Root {\n",
	})

	paths := []string{"robot.x", "broken.x", "missing.x"}
	results, err := checkScenes(context.Background(), m, paths, 2)
	if err != nil {
		t.Fatalf("checkScenes failed: %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}

	if results[0].Err != nil || len(results[0].Issues) != 0 {
		t.Errorf("expected robot.x to be clean, got %v %v", results[0].Err, results[0].Issues)
	}
	var fe *xfile.FormatError
	if !errors.As(results[1].Err, &fe) {
		t.Errorf("expected FormatError for broken.x, got %v", results[1].Err)
	}
	if !errors.Is(results[2].Err, assets.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing.x, got %v", results[2].Err)
	}

	var failed bool
	out := render(t, func(w *reportWriter) { failed = writeCheck(w, results) })
	if !failed {
		t.Error("expected the batch to fail")
	}
	requireContains(t, out, "ok", "robot.x", "FAIL", "broken.x", "3 files, 2 failed, 0 warnings")
}

func TestCheckScenes_Canceled(t *testing.T) {
	m := newTestManager(t, map[string]string{"robot.x": robotX})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := checkScenes(ctx, m, []string{"robot.x"}, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWriteCheck_Clean(t *testing.T) {
	results := []checkResult{{Path: "a.x"}, {Path: "b.x", Issues: []xfile.Issue{
		{Severity: xfile.SeverityWarning, Path: "Root", Message: "non-unit rotation"},
	}}}

	var failed bool
	out := render(t, func(w *reportWriter) { failed = writeCheck(w, results) })
	if failed {
		t.Error("warnings alone should not fail the batch")
	}
	requireContains(t, out, "WARN", "non-unit rotation", "2 files, 0 failed, 1 warnings")
}
