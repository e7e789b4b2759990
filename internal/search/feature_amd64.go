//go:build amd64

package search

import "golang.org/x/sys/cpu"

// hasAcceleratedFeature mirrors simd/memchr_amd64.go's feature-gated
// dispatch: SSE4.1 is the baseline the teacher's own byte-search kernels
// require, so a program whose literal prefix table is built on a host
// that has it is tagged as a candidate for an accelerated match-time
// search.
func hasAcceleratedFeature() bool {
	return cpu.X86.HasSSE41
}
