package xfile

import (
	"sort"

	"github.com/Faultbox/xofkit/pkg/math"
)

// Sample returns the bone's local transform at time t, in ticks. A matrix
// track wins over position, rotation and scale tracks when both exist.
// Times before the first key clamp to it, times after the last clamp to
// the last. ok is false when the bone has no keys.
func (b *AnimBone) Sample(t float64) (m math.Mat4, ok bool) {
	if len(b.MatrixKeys) > 0 {
		i, j, f := bracket(len(b.MatrixKeys), func(i int) float64 { return b.MatrixKeys[i].Time }, t)
		m0, m1 := b.MatrixKeys[i].Value, b.MatrixKeys[j].Value
		for k := range m {
			m[k] = m0[k] + f*(m1[k]-m0[k])
		}
		return m, true
	}
	if b.KeyCount() == 0 {
		return math.Identity(), false
	}

	pos := sampleVector(b.PosKeys, t, math.Vec3{})
	scale := sampleVector(b.ScaleKeys, t, math.Vec3{X: 1, Y: 1, Z: 1})
	rot := math.QuatIdentity()
	if n := len(b.RotKeys); n > 0 {
		i, j, f := bracket(n, func(i int) float64 { return b.RotKeys[i].Time }, t)
		rot = b.RotKeys[i].Value.Slerp(b.RotKeys[j].Value, f)
	}

	return math.Translate(pos.X, pos.Y, pos.Z).
		Mul(rot.ToMat4()).
		Mul(math.Scale(scale.X, scale.Y, scale.Z)), true
}

func sampleVector(keys []VectorKey, t float64, def math.Vec3) math.Vec3 {
	if len(keys) == 0 {
		return def
	}
	i, j, f := bracket(len(keys), func(i int) float64 { return keys[i].Time }, t)
	return keys[i].Value.Lerp(keys[j].Value, f)
}

// bracket finds the keys surrounding t and the blend factor between them.
// Keys are assumed sorted by time.
func bracket(n int, timeAt func(int) float64, t float64) (i, j int, f float32) {
	next := sort.Search(n, func(k int) bool { return timeAt(k) > t })
	switch {
	case next == 0:
		return 0, 0, 0
	case next == n:
		return n - 1, n - 1, 0
	}
	i, j = next-1, next
	span := timeAt(j) - timeAt(i)
	if span <= 0 {
		return i, i, 0
	}
	return i, j, float32((t - timeAt(i)) / span)
}

// Pose returns every animated node's local transform at time t. Nodes the
// animation does not name keep their static transforms and are omitted.
func (s *Scene) Pose(a *Animation, t float64) map[*Node]math.Mat4 {
	pose := make(map[*Node]math.Mat4, len(a.Bones))
	for _, b := range a.Bones {
		n := s.FindNode(b.Name)
		if n == nil {
			continue
		}
		if m, ok := b.Sample(t); ok {
			pose[n] = m
		}
	}
	return pose
}
