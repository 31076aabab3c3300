package math

import "testing"

func TestTransformCachesLocalUntilChanged(t *testing.T) {
	tr := NewTransformFromPosition(Vec3{1, 2, 3})
	if !tr.GetLocal().Compare(NewMat4Translation(Vec3{1, 2, 3}), 1e-6) {
		t.Fatalf("local = %+v", tr.GetLocal())
	}
	if tr.IsDirty {
		t.Fatal("local matrix not cached")
	}
	tr.SetScale(Vec3{2, 2, 2})
	if !tr.IsDirty {
		t.Fatal("scale change did not mark the transform dirty")
	}
	p := Vec3{1, 0, 0}.Transform(tr.GetLocal())
	if !p.Compare(Vec3{3, 2, 3}, 1e-5) {
		t.Fatalf("scaled point = %+v", p)
	}
}

func TestTransformWorldAppliesParent(t *testing.T) {
	parent := NewTransformFromPosition(Vec3{10, 0, 0})
	child := NewTransformFromPosition(Vec3{0, 1, 0})
	child.Parent = parent
	p := Vec3{0, 0, 0}.Transform(child.GetWorld())
	if !p.Compare(Vec3{10, 1, 0}, 1e-5) {
		t.Fatalf("world origin = %+v", p)
	}
	var missing *Transform
	if !missing.GetWorld().Compare(NewMat4Identity(), 0) {
		t.Fatal("nil transform is not the identity")
	}
}
