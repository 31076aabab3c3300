package math

import "testing"

func testFrustum() Frustum {
	cw := NewMat4CameraToWorld(Vec3{0, 0, 0}, NewVec3Forward(), NewVec3Up())
	return NewFrustum(cw, DegToRad(60), 1.5, 0.5, 50)
}

func TestFrustumPlanesFaceInward(t *testing.T) {
	f := testFrustum()
	inside := Vec3{0, 0, 10}
	for i, p := range f.Planes {
		if p.SignedDistance(inside) <= 0 {
			t.Fatalf("plane %d does not face the interior", i)
		}
	}
	for _, p := range []Vec3{{0, 0, -1}, {0, 0, 60}, {100, 0, 10}, {0, -100, 10}} {
		if f.ContainsPoint(p) {
			t.Fatalf("point %v reported inside", p)
		}
	}
}

func TestFrustumCullingMatchesPlaneTest(t *testing.T) {
	f := testFrustum()
	seed := uint32(1337)
	rnd := func() float32 {
		seed = seed*1664525 + 1013904223
		return float32((seed>>8)&0xFFFF) / 65535.0
	}
	for i := 0; i < 500; i++ {
		box := NewAABB(
			Vec3{(rnd() - 0.5) * 120, (rnd() - 0.5) * 60, (rnd() - 0.2) * 80},
			Vec3{0.1 + rnd()*3, 0.1 + rnd()*3, 0.1 + rnd()*3},
		)
		outside := false
		margin := float32(0)
		for _, p := range f.Planes {
			r := Abs(p.Normal.X)*box.Extents.X + Abs(p.Normal.Y)*box.Extents.Y + Abs(p.Normal.Z)*box.Extents.Z
			s := p.SignedDistance(box.Center)
			if s < -r {
				outside = true
			}
			if s+r < margin {
				margin = s + r
			}
		}
		if f.ContainsAABB(box) == outside {
			t.Fatalf("box %v: ContainsAABB=%v but brute force outside=%v", box, f.ContainsAABB(box), outside)
		}
		if margin < -1e-3 {
			// Every corner of a culled box lies behind at least one plane.
			for _, c := range box.Corners() {
				if f.ContainsPoint(c) {
					t.Fatalf("culled box %v has visible corner %v", box, c)
				}
			}
		}
	}
}

func TestFrustumFarClamp(t *testing.T) {
	cw := NewMat4CameraToWorld(Vec3{}, NewVec3Forward(), NewVec3Up())
	f := NewFrustum(cw, DegToRad(60), 1, 2, 1)
	near := f.PlaneCenter(FRUSTUM_NEAR)
	far := f.PlaneCenter(FRUSTUM_FAR)
	if d := far.Z - near.Z; Abs(d-0.001) > 1e-4 {
		t.Fatalf("far-near distance = %v", d)
	}
}

func TestClassifyAABB(t *testing.T) {
	f := testFrustum()
	if got := f.ClassifyAABB(NewAABB(Vec3{0, 0, 10}, Vec3{0.5, 0.5, 0.5})); got != INSIDE {
		t.Fatalf("got %v", got)
	}
	if got := f.ClassifyAABB(NewAABB(Vec3{0, 0, 0.5}, Vec3{1, 1, 1})); got != INTERSECTING {
		t.Fatalf("got %v", got)
	}
	if got := f.ClassifyAABB(NewAABB(Vec3{0, 0, -10}, Vec3{1, 1, 1})); got != OUTSIDE {
		t.Fatalf("got %v", got)
	}
}

func TestAABBTransformAffine(t *testing.T) {
	b := NewAABB(Vec3{1, 0, 0}, Vec3{1, 2, 3})
	m := NewMat4RotationAxis(Vec3{0, 1, 0}, HALF_PI).Mul(NewMat4Translation(Vec3{0, 5, 0}))
	got := b.TransformAffine(m)
	if !got.Center.Compare(Vec3{0, 5, -1}, testTolerance) {
		t.Fatalf("center = %v", got.Center)
	}
	if !got.Extents.Compare(Vec3{3, 2, 1}, testTolerance) {
		t.Fatalf("extents = %v", got.Extents)
	}
}
