//go:build !amd64

package search

// hasAcceleratedFeature reports false on every non-amd64 host: the
// teacher's own SIMD kernels are amd64-only (simd/memchr_fallback.go
// takes the same posture for its generic path).
func hasAcceleratedFeature() bool {
	return false
}
