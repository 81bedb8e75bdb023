package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
	if !m.IsIdentity() {
		t.Error("IsIdentity() = false for Identity()")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestMulOrder(t *testing.T) {
	// Parent scales, child translates: the child offset is scaled too.
	parent := Scale(2, 2, 2)
	child := Translate(1, 0, 0)

	got := parent.Mul(child).TransformVec3(Vec3{})
	want := Vec3{2, 0, 0}
	if got != want {
		t.Errorf("(parent*child) origin = %v, want %v", got, want)
	}
}

func TestTransformVec3(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		in   Vec3
		want Vec3
	}{
		{"translate", Translate(10, 20, 30), Vec3{1, 2, 3}, Vec3{11, 22, 33}},
		{"scale", Scale(2, 3, 4), Vec3{1, 1, 1}, Vec3{2, 3, 4}},
		{"identity", Identity(), Vec3{5, 6, 7}, Vec3{5, 6, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformVec3(tt.in); got != tt.want {
				t.Errorf("TransformVec3(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTranslation(t *testing.T) {
	m := Translate(5, 10, 15)
	if got := m.Translation(); got != (Vec3{5, 10, 15}) {
		t.Errorf("Translation() = %v, want (5, 10, 15)", got)
	}
}

func TestIsIdentity(t *testing.T) {
	near := Identity()
	near[5] += 1e-8
	if !near.IsIdentity() {
		t.Error("nearly-identity matrix should count as identity")
	}
	if Translate(0, 1, 0).IsIdentity() {
		t.Error("translation should not count as identity")
	}
}

func TestQuat(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}.Normalize()
	if math.Abs(float64(q.Length()-1)) > 1e-4 {
		t.Errorf("normalized length = %v, want 1", q.Length())
	}

	if !QuatIdentity().ToMat4().ApproxEqual(Identity(), 1e-6) {
		t.Error("identity quaternion should produce identity matrix")
	}

	// Zero quaternion normalizes to identity rather than NaN.
	if got := (Quat{}).Normalize(); got != QuatIdentity() {
		t.Errorf("zero quat Normalize() = %v, want identity", got)
	}
}

func TestBounds(t *testing.T) {
	lo, hi, ok := Bounds([]Vec3{{1, -2, 3}, {-1, 5, 0}, {0, 0, 9}})
	if !ok {
		t.Fatal("Bounds reported empty input")
	}
	if lo != (Vec3{-1, -2, 0}) || hi != (Vec3{1, 5, 9}) {
		t.Errorf("Bounds = %v..%v", lo, hi)
	}

	if _, _, ok := Bounds(nil); ok {
		t.Error("Bounds(nil) should report ok=false")
	}
}

func TestSlerp(t *testing.T) {
	half := float32(math.Sqrt2 / 2)
	a := QuatIdentity()
	b := Quat{Z: 1} // 180 degrees about Z

	tests := []struct {
		name string
		t    float32
		want Quat
	}{
		{"start", 0, a},
		{"end", 1, b},
		{"midpoint", 0.5, Quat{Z: half, W: half}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Slerp(b, tt.t)
			if d := got.Dot(tt.want); math.Abs(math.Abs(float64(d))-1) > 1e-4 {
				t.Errorf("Slerp(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}

	// Opposite signs describe the same rotation; the short path is taken.
	got := a.Slerp(Quat{W: -1}, 0.5)
	if math.Abs(float64(got.W)) < 0.999 {
		t.Errorf("expected identity for sign-flipped endpoints, got %v", got)
	}
}

func TestVec3Lerp(t *testing.T) {
	got := Vec3{0, 2, 4}.Lerp(Vec3{10, 4, 0}, 0.25)
	if got != (Vec3{2.5, 2.5, 3}) {
		t.Errorf("Lerp = %v", got)
	}
}
