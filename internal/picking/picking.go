// Package picking maps a view-space click to the mesh triangle under it.
package picking

import (
	"math"

	"uv-mask-maker/internal/mathutil"
	"uv-mask-maker/internal/mesh"
)

const epsilon = 1e-9

// Ray is a half-line from Origin along Dir. Dir need not be normalized;
// hit distances are in units of Dir.
type Ray struct {
	Origin, Dir mathutil.Vec3
}

// At returns the point at distance t.
func (r Ray) At(t float64) mathutil.Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// IntersectTriangle tests r against triangle (a, b, c) from both sides
// (Möller–Trumbore). Hits behind the origin are misses.
func IntersectTriangle(r Ray, a, b, c mathutil.Vec3) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if det > -epsilon && det < epsilon {
		return 0, false
	}
	inv := 1 / det

	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t <= epsilon {
		return 0, false
	}
	return t, true
}

// PickTriangle returns the nearest triangle of s hit by r. Ties go to the
// lower triangle index.
func PickTriangle(r Ray, s *mesh.Snapshot) (tri int, t float64, ok bool) {
	best := math.Inf(1)
	tri = -1
	for i, f := range s.Triangles {
		a := mathutil.V32(s.Positions[f[0]])
		b := mathutil.V32(s.Positions[f[1]])
		c := mathutil.V32(s.Positions[f[2]])
		if d, hit := IntersectTriangle(r, a, b, c); hit && d < best {
			best = d
			tri = i
		}
	}
	if tri < 0 {
		return -1, 0, false
	}
	return tri, best, true
}

// Camera is an orthographic orbit view that frames a mesh's bounding
// sphere in a w x h viewport.
type Camera struct {
	Yaw   float64 // degrees around Y
	Pitch float64 // degrees around X
	Zoom  float64 // 1 frames the whole mesh, 0 means 1
}

// Ray returns the view ray through viewport pixel (x, y), with y growing
// downwards as in image coordinates.
func (c Camera) Ray(s *mesh.Snapshot, x, y float64, w, h int) Ray {
	lo, hi := mathutil.Bounds(s.Positions)
	center := lo.Add(hi).Scale(0.5)
	radius := hi.Sub(lo).Len() / 2
	if radius < epsilon {
		radius = 1
	}
	zoom := c.Zoom
	if zoom <= 0 {
		zoom = 1
	}

	span := float64(min(w, h))
	if span < 1 {
		span = 1
	}
	perPixel := 2 * radius / span / zoom
	local := mathutil.Vec3{
		(x - float64(w)/2) * perPixel,
		(float64(h)/2 - y) * perPixel,
		2*radius + 1,
	}

	rot := mathutil.Orbit(c.Yaw, c.Pitch)
	return Ray{
		Origin: center.Add(rot.MulVec3(local)),
		Dir:    rot.MulVec3(mathutil.Vec3{0, 0, -1}),
	}
}
