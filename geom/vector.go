// Package geom provides the 3-vector arithmetic shared by every photon
// transport component: positions, directions, and the spherical-grid
// bookkeeping that depends on them.
package geom

import "gonum.org/v1/gonum/spatial/r3"

// Vector is a position or direction in the simulation's Cartesian frame.
type Vector = r3.Vec

// Zero is the origin / zero direction.
var Zero = Vector{X: 0, Y: 0, Z: 0}

// New builds a vector from components.
func New(x, y, z float64) Vector {
	return Vector{X: x, Y: y, Z: z}
}

// Norm returns the Euclidean length of v.
func Norm(v Vector) float64 {
	return r3.Norm(v)
}

// Unit returns v scaled to unit length. The zero vector is returned unchanged.
func Unit(v Vector) Vector {
	n := Norm(v)
	if n == 0 {
		return v
	}
	return r3.Scale(1/n, v)
}

// Dot returns the scalar (inner) product of a and b.
func Dot(a, b Vector) float64 {
	return r3.Dot(a, b)
}

// Cross returns the vector (cross) product of a and b.
func Cross(a, b Vector) Vector {
	return r3.Cross(a, b)
}

// Add returns a+b.
func Add(a, b Vector) Vector {
	return r3.Add(a, b)
}

// Scale returns s*v.
func Scale(s float64, v Vector) Vector {
	return r3.Scale(s, v)
}

// AlongRay returns the point reached by travelling distance s from origin
// along unit direction dir: origin + s*dir.
func AlongRay(origin Vector, dir Vector, s float64) Vector {
	return Add(origin, Scale(s, dir))
}

// CosAngle returns the cosine of the angle between a and b, assuming both
// are already unit vectors (the hot paths here never renormalize).
func CosAngle(a, b Vector) float64 {
	return Dot(a, b)
}
