package math

import "testing"

const testTolerance float32 = 1e-4

func TestColumnMajorRoundTrip(t *testing.T) {
	m := NewMat4TRS(Vec3{1, 2, 3}, NewQuatFromAxisAngle(Vec3{0.3, 1, -0.2}, 0.9), Vec3{2, 0.5, 1.5})
	var buf [16]float32
	m.StoreColumnMajor(buf[:])

	// First column of the row-major matrix lands in the first four floats.
	for r := 0; r < 4; r++ {
		if buf[r] != m.Data[r*4] {
			t.Fatalf("buf[%d] = %v, want %v", r, buf[r], m.Data[r*4])
		}
	}

	back := LoadColumnMajor(buf[:])
	if back != m {
		t.Fatalf("round trip changed the matrix:\n%v\n%v", back.Data, m.Data)
	}
}

func TestMulIdentity(t *testing.T) {
	m := NewMat4Translation(Vec3{4, 5, 6}).Mul(NewMat4Scale(Vec3{2, 2, 2}))
	if !m.Mul(NewMat4Identity()).Compare(m, 0) || !NewMat4Identity().Mul(m).Compare(m, 0) {
		t.Fatal("identity multiplication changed the matrix")
	}
}

func TestTranslationAppliesToRowVectors(t *testing.T) {
	p := Vec3{1, 1, 1}.Transform(NewMat4Translation(Vec3{1, 2, 3}))
	if !p.Compare(Vec3{2, 3, 4}, testTolerance) {
		t.Fatalf("got %v", p)
	}
}

func TestTRSOrder(t *testing.T) {
	// Scale, then rotate 90 degrees around Y, then translate.
	m := NewMat4TRS(Vec3{10, 0, 0}, NewQuatFromAxisAngle(Vec3{0, 1, 0}, HALF_PI), Vec3{2, 2, 2})
	p := Vec3{1, 0, 0}.Transform(m)
	if !p.Compare(Vec3{10, 0, -2}, testTolerance) {
		t.Fatalf("got %v", p)
	}
}

func TestQuaternionMatchesAxisMatrix(t *testing.T) {
	axis := Vec3{1, 2, 3}
	q := NewQuatFromAxisAngle(axis, 1.1).ToMat4()
	a := NewMat4RotationAxis(axis, 1.1)
	if !q.Compare(a, testTolerance) {
		t.Fatalf("quaternion matrix %v differs from axis matrix %v", q.Data, a.Data)
	}
}

func TestQuaternionMulComposesLikeMatrices(t *testing.T) {
	a := NewQuatFromAxisAngle(Vec3{0, 1, 0}, 0.7)
	b := NewQuatFromAxisAngle(Vec3{1, 0, 0}, -0.4)
	got := a.Mul(b).ToMat4()
	want := a.ToMat4().Mul(b.ToMat4())
	if !got.Compare(want, testTolerance) {
		t.Fatalf("got %v want %v", got.Data, want.Data)
	}
}

func TestInverse(t *testing.T) {
	m := NewMat4TRS(Vec3{-3, 2, 8}, NewQuatFromAxisAngle(Vec3{1, 1, 0}, 0.5), Vec3{1, 3, 2})
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("matrix should be invertible")
	}
	if !m.Mul(inv).Compare(NewMat4Identity(), testTolerance) {
		t.Fatalf("m * inv = %v", m.Mul(inv).Data)
	}

	if _, ok := (Mat4{}).Inverse(); ok {
		t.Fatal("zero matrix reported invertible")
	}
}

func TestCameraToWorldInverseIsLookAt(t *testing.T) {
	eye := Vec3{-5, 3, -5}
	target := Vec3{0, 0, 0}
	cw := NewMat4CameraToWorld(eye, target.Sub(eye), NewVec3Up())
	view := NewMat4LookAtLH(eye, target, NewVec3Up())
	if !cw.InverseAffine().Compare(view, testTolerance) {
		t.Fatalf("inverse affine %v != look at %v", cw.InverseAffine().Data, view.Data)
	}
	if !cw.Mul(view).Compare(NewMat4Identity(), testTolerance) {
		t.Fatal("camera to world times view should be the identity")
	}
}

func TestLookAtDegenerateUp(t *testing.T) {
	// Looking straight down the up vector must not produce NaNs.
	view := NewMat4LookAtLH(Vec3{0, 10, 0}, Vec3{0, 0, 0}, NewVec3Up())
	for i, v := range view.Data {
		if v != v {
			t.Fatalf("element %d is NaN", i)
		}
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	p := NewMat4PerspectiveFovLH(DegToRad(60), 16.0/9.0, 0.1, 500)
	near := Vec4{0, 0, 0.1, 1}.Transform(p)
	far := Vec4{0, 0, 500, 1}.Transform(p)
	if Abs(near.Z/near.W) > testTolerance {
		t.Fatalf("near depth = %v", near.Z/near.W)
	}
	if Abs(far.Z/far.W-1) > testTolerance {
		t.Fatalf("far depth = %v", far.Z/far.W)
	}
}

func TestOrthographicMapsBoxToClip(t *testing.T) {
	o := NewMat4OrthographicOffCenterLH(0, 1920, 1080, 0, 0, 1)
	tl := Vec3{0, 0, 0}.Transform(o)
	br := Vec3{1920, 1080, 1}.Transform(o)
	if !tl.Compare(Vec3{-1, 1, 0}, testTolerance) {
		t.Fatalf("top left = %v", tl)
	}
	if !br.Compare(Vec3{1, -1, 1}, testTolerance) {
		t.Fatalf("bottom right = %v", br)
	}
}

func TestNormalizeSafe(t *testing.T) {
	fb := Vec3{0, 1, 0}
	if got := (Vec3{}).NormalizeSafe(fb); got != fb {
		t.Fatalf("zero vector gave %v", got)
	}
	if got := (Vec3{3, 0, 4}).NormalizeSafe(fb); !got.Compare(Vec3{0.6, 0, 0.8}, testTolerance) {
		t.Fatalf("got %v", got)
	}
}

func TestAlign(t *testing.T) {
	cases := []struct {
		v, a, up, down uint64
	}{
		{0, 256, 0, 0},
		{1, 256, 256, 0},
		{256, 256, 256, 256},
		{257, 256, 512, 256},
		{11184810, 65536, 11206656, 11141120},
	}
	for _, c := range cases {
		if got := AlignUp(c.v, c.a); got != c.up {
			t.Errorf("AlignUp(%d, %d) = %d, want %d", c.v, c.a, got, c.up)
		}
		if got := AlignDown(c.v, c.a); got != c.down {
			t.Errorf("AlignDown(%d, %d) = %d, want %d", c.v, c.a, got, c.down)
		}
	}
}
