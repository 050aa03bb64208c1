package math

// Plane is a half-space boundary in Hessian normal form: Normal.Dot(p) + D >= 0
// for any point p on the positive (inside) side of the plane.
type Plane struct {
	Normal Vec3
	D      float32
}

func NewPlaneFromPointNormal(point, normal Vec3) Plane {
	n := normal.Normalized()
	return Plane{Normal: n, D: -n.Dot(point)}
}

// DistanceToPoint returns the signed distance from p to the plane. Positive
// means p is on the inside (positive) half-space.
func (p Plane) DistanceToPoint(point Vec3) float32 {
	return p.Normal.Dot(point) + p.D
}

func (p Plane) normalized() Plane {
	length := p.Normal.Length()
	if length == 0 {
		return p
	}
	inv := 1.0 / length
	return Plane{Normal: p.Normal.MulScalar(inv), D: p.D * inv}
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min Vec3
	Max Vec3
}

func NewAABB(center, halfExtents Vec3) AABB {
	return AABB{Min: center.Sub(halfExtents), Max: center.Add(halfExtents)}
}

func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).MulScalar(0.5)
}

func (b AABB) HalfExtents() Vec3 {
	return b.Max.Sub(b.Min).MulScalar(0.5)
}

// PositiveVertex returns the box corner furthest along normal; used by the
// plane/AABB test below (Akenine-Moller "p-vertex" trick).
func (b AABB) PositiveVertex(normal Vec3) Vec3 {
	v := b.Min
	if normal.X >= 0 {
		v.X = b.Max.X
	}
	if normal.Y >= 0 {
		v.Y = b.Max.Y
	}
	if normal.Z >= 0 {
		v.Z = b.Max.Z
	}
	return v
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center Vec3
	Radius float32
}

// Frustum is the six half-space planes of a view-projection volume, in the
// order left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustumFromViewProjection extracts the six clip planes from a combined
// view-projection matrix using row-vector convention (v' = v * M, matching
// this package's Mat4 layout where translation occupies row 3).
func NewFrustumFromViewProjection(viewProjection Mat4) Frustum {
	m := viewProjection.Data

	// With v' = v * M, clip coordinate i is the dot product of v with
	// column i of M, so the planes are built from columns.
	row := func(i int) Vec3 {
		return Vec3{m[0*4+i], m[1*4+i], m[2*4+i]}
	}
	rowW := func(i int) float32 {
		return m[3*4+i]
	}

	combine := func(a, b Vec3, wa, wb float32) Plane {
		return Plane{Normal: Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}, D: wa + wb}.normalized()
	}
	subtract := func(a, b Vec3, wa, wb float32) Plane {
		return Plane{Normal: Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}, D: wa - wb}.normalized()
	}

	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	w0, w1, w2, w3 := rowW(0), rowW(1), rowW(2), rowW(3)

	return Frustum{Planes: [6]Plane{
		combine(r3, r0, w3, w0),  // left
		subtract(r3, r0, w3, w0), // right
		combine(r3, r1, w3, w1),  // bottom
		subtract(r3, r1, w3, w1), // top
		nearPlane(r2, w2),
		subtract(r3, r2, w3, w2), // far
	}}
}

func nearPlane(r2 Vec3, w2 float32) Plane {
	return Plane{Normal: r2, D: w2}.normalized()
}

// IntersectsAABB returns true if the box is at least partially inside the
// frustum (standard p-vertex rejection test: if the positive vertex is
// outside any plane, the whole box is outside).
func (f Frustum) IntersectsAABB(box AABB) bool {
	for _, plane := range f.Planes {
		p := box.PositiveVertex(plane.Normal)
		if plane.DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere returns true if the sphere is at least partially inside
// the frustum.
func (f Frustum) IntersectsSphere(s Sphere) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(s.Center) < -s.Radius {
			return false
		}
	}
	return true
}

// IntersectsPoint returns true if the point lies inside every plane.
func (f Frustum) IntersectsPoint(point Vec3) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(point) < 0 {
			return false
		}
	}
	return true
}
