package math

import "testing"

func TestAABBPositiveVertex(t *testing.T) {
	box := NewAABB(NewVec3Zero(), Vec3{1, 1, 1})
	got := box.PositiveVertex(Vec3{1, -1, 1})
	want := Vec3{1, -1, 1}
	if got.Compare(want, K_FLOAT_EPSILON) == false {
		t.Fatalf("PositiveVertex = %+v, want %+v", got, want)
	}
}

func TestPlaneDistanceToPoint(t *testing.T) {
	plane := NewPlaneFromPointNormal(NewVec3Zero(), Vec3{0, 1, 0})
	if d := plane.DistanceToPoint(Vec3{0, 5, 0}); d <= 0 {
		t.Fatalf("expected point above plane to have positive distance, got %f", d)
	}
	if d := plane.DistanceToPoint(Vec3{0, -5, 0}); d >= 0 {
		t.Fatalf("expected point below plane to have negative distance, got %f", d)
	}
}

func TestFrustumIntersectsSphereTrivialCases(t *testing.T) {
	proj := NewMat4Perspective(K_QUARTER_PI, 1.0, 0.1, 100.0)
	view := NewMat4LookAt(NewVec3Zero(), Vec3{0, 0, -1}, Vec3{0, 1, 0})
	vp := view.Mul(proj)
	frustum := NewFrustumFromViewProjection(vp)

	inFront := Sphere{Center: Vec3{0, 0, -10}, Radius: 1}
	if !frustum.IntersectsSphere(inFront) {
		t.Fatalf("expected sphere in front of camera to intersect frustum")
	}

	behind := Sphere{Center: Vec3{0, 0, 10}, Radius: 1}
	if frustum.IntersectsSphere(behind) {
		t.Fatalf("expected sphere behind camera to be culled")
	}
}
