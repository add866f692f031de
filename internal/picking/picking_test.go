package picking

import (
	"math"
	"testing"

	"uv-mask-maker/internal/mathutil"
	"uv-mask-maker/internal/mesh"
	"uv-mask-maker/internal/testmesh"
)

func TestIntersectTriangle(t *testing.T) {
	a := mathutil.Vec3{0, 0, 0}
	b := mathutil.Vec3{1, 0, 0}
	c := mathutil.Vec3{0, 1, 0}

	tests := []struct {
		name string
		ray  Ray
		hit  bool
		dist float64
	}{
		{"front", Ray{mathutil.Vec3{0.2, 0.2, 5}, mathutil.Vec3{0, 0, -1}}, true, 5},
		{"back side", Ray{mathutil.Vec3{0.2, 0.2, -2}, mathutil.Vec3{0, 0, 1}}, true, 2},
		{"outside", Ray{mathutil.Vec3{0.8, 0.8, 5}, mathutil.Vec3{0, 0, -1}}, false, 0},
		{"behind origin", Ray{mathutil.Vec3{0.2, 0.2, 5}, mathutil.Vec3{0, 0, 1}}, false, 0},
		{"parallel", Ray{mathutil.Vec3{0.2, 0.2, 0}, mathutil.Vec3{1, 0, 0}}, false, 0},
	}
	for _, tt := range tests {
		d, ok := IntersectTriangle(tt.ray, a, b, c)
		if ok != tt.hit {
			t.Errorf("%s: expected hit=%v, got %v", tt.name, tt.hit, ok)
			continue
		}
		if ok && math.Abs(d-tt.dist) > 1e-9 {
			t.Errorf("%s: expected distance %v, got %v", tt.name, tt.dist, d)
		}
	}
}

func TestPickTriangleNearest(t *testing.T) {
	s := &mesh.Snapshot{}
	testmesh.Quad(s, [4][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}, testmesh.UVRect(0, 0, 0.5, 1))
	testmesh.Quad(s, [4][3]float32{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}, testmesh.UVRect(0.5, 0, 1, 1))

	r := Ray{Origin: mathutil.Vec3{0.7, 0.2, 5}, Dir: mathutil.Vec3{0, 0, -1}}
	tri, d, ok := PickTriangle(r, s)
	if !ok {
		t.Fatal("expected a hit")
	}
	// the z=1 quad is closer; (0.7, 0.2) lies in its first triangle
	if tri != 2 {
		t.Errorf("expected triangle 2, got %d", tri)
	}
	if math.Abs(d-4) > 1e-9 {
		t.Errorf("expected distance 4, got %v", d)
	}

	r.Origin = mathutil.Vec3{5, 5, 5}
	if _, _, ok := PickTriangle(r, s); ok {
		t.Error("expected a miss")
	}
}

func TestCameraRay(t *testing.T) {
	s := testmesh.TwoIslands()

	// centre of the viewport looks at the bounds centre, which is the gap
	// between the two quads
	r := Camera{}.Ray(s, 50, 50, 100, 100)
	if math.Abs(r.Origin[0]-1.5) > 1e-9 || math.Abs(r.Origin[1]-0.5) > 1e-9 {
		t.Errorf("expected ray through (1.5, 0.5), got %v", r.Origin)
	}
	if r.Dir != (mathutil.Vec3{0, 0, -1}) {
		t.Errorf("expected -Z view direction, got %v", r.Dir)
	}
	if _, _, ok := PickTriangle(r, s); ok {
		t.Error("expected the gap between islands to miss")
	}

	// radius is half the diagonal of the 3x1 bounds
	radius := math.Sqrt(3*3+1*1) / 2
	perPixel := 2 * radius / 100
	x := 50 + (0.5-1.5)/perPixel
	tri, _, ok := PickTriangle(Camera{}.Ray(s, x, 50, 100, 100), s)
	if !ok || tri > 1 {
		t.Errorf("expected a hit on the left quad, got %d %v", tri, ok)
	}

	// turned around, the view direction flips
	back := Camera{Yaw: 180}.Ray(s, 50, 50, 100, 100)
	if back.Dir[2] < 0.999 {
		t.Errorf("expected +Z view direction, got %v", back.Dir)
	}
}
