// Package math32 provides portable float32 vector kernels.
// This is an internal package - external users should use the distance package.
package math32

import "math"

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var ret float32
	for i := range a {
		ret += a[i] * b[i]
	}
	return ret
}

// SquaredL2 calculates the squared L2 (Euclidean) distance.
func SquaredL2(a, b []float32) float32 {
	var distance float32
	for i := range a {
		diff := a[i] - b[i]
		distance += diff * diff
	}
	return distance
}

// L1 calculates the Manhattan distance.
func L1(a, b []float32) float32 {
	var distance float32
	for i := range a {
		diff := a[i] - b[i]
		if diff < 0 {
			diff = -diff
		}
		distance += diff
	}
	return distance
}

// Sqrt returns the square root of x as a float32.
func Sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// ScaleInPlace multiplies all elements of a by scalar.
func ScaleInPlace(a []float32, scalar float32) {
	for i := range a {
		a[i] *= scalar
	}
}

// AddScaledInPlace adds scalar*b to a element-wise.
//
// Used for weighted centroid accumulation.
func AddScaledInPlace(a []float32, b []float32, scalar float32) {
	for i := range a {
		a[i] += scalar * b[i]
	}
}
