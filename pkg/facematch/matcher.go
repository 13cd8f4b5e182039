// Package facematch compares face descriptors produced by the extractor
// against enrolled descriptors and picks the closest one.
package facematch

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

// DescriptorSize is the descriptor length produced by the extractor.
const DescriptorSize = 128

// DefaultThreshold is the maximum euclidean distance at which two
// descriptors are treated as the same person.
const DefaultThreshold = 0.6

// ErrDimensionMismatch is reported for candidates whose vector length differs from the probe.
var ErrDimensionMismatch = errors.New("descriptor dimension mismatch")

// FeatureVector is a face descriptor as produced by the extractor.
type FeatureVector []float32

// Candidate is one enrolled descriptor considered during matching.
type Candidate struct {
	DescriptorID uuid.UUID
	IdentityID   uuid.UUID
	Vector       FeatureVector
}

// Match is the winning candidate of a FindBestMatch call.
type Match struct {
	Index        int
	DescriptorID uuid.UUID
	IdentityID   uuid.UUID
	Distance     float64
}

// DimensionMismatchError describes a candidate that was left out of the scan.
type DimensionMismatchError struct {
	Index        int
	DescriptorID uuid.UUID
	IdentityID   uuid.UUID
	Expected     int
	Actual       int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("descriptor %s: expected %d components, got %d", e.DescriptorID, e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Unwrap() error {
	return ErrDimensionMismatch
}

// Distance returns the euclidean distance between a and b.
// Both vectors must have the same length.
func Distance(a, b FeatureVector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	return floats.Distance(toFloat64(a, nil), toFloat64(b, nil), 2), nil
}

// FindBestMatch scans candidates in order and returns the one closest to probe
// whose distance is strictly below threshold. When several candidates share the
// smallest distance, the first one in input order wins.
//
// Candidates with a vector length different from the probe are skipped and
// returned in the second value so the caller can log them. A nil match means
// nothing qualified.
func FindBestMatch(probe FeatureVector, candidates []Candidate, threshold float64) (*Match, []*DimensionMismatchError) {
	var (
		best    *Match
		skipped []*DimensionMismatchError
	)
	if len(candidates) == 0 {
		return nil, nil
	}

	p := toFloat64(probe, nil)
	buf := make([]float64, len(probe))

	for i, c := range candidates {
		if len(c.Vector) != len(probe) {
			skipped = append(skipped, &DimensionMismatchError{
				Index:        i,
				DescriptorID: c.DescriptorID,
				IdentityID:   c.IdentityID,
				Expected:     len(probe),
				Actual:       len(c.Vector),
			})
			continue
		}

		d := floats.Distance(p, toFloat64(c.Vector, buf), 2)
		// Written as a negation so a NaN distance or threshold never qualifies
		if !(d < threshold) {
			continue
		}
		// Strict comparison keeps the earliest candidate on ties.
		if best == nil || d < best.Distance {
			best = &Match{
				Index:        i,
				DescriptorID: c.DescriptorID,
				IdentityID:   c.IdentityID,
				Distance:     d,
			}
		}
	}

	return best, skipped
}

func toFloat64(v FeatureVector, dst []float64) []float64 {
	if cap(dst) < len(v) {
		dst = make([]float64, len(v))
	}
	dst = dst[:len(v)]
	for i, x := range v {
		dst[i] = float64(x)
	}
	return dst
}
