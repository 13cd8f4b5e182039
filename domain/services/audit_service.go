package services

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditReport summarizes the health of the descriptor store.
type AuditReport struct {
	CheckedAt              time.Time   `json:"checked_at"`
	ExpectedDimension      int         `json:"expected_dimension"`
	TotalIdentities        int64       `json:"total_identities"`
	TotalDescriptors       int         `json:"total_descriptors"`
	MismatchedDescriptors  []uuid.UUID `json:"mismatched_descriptors"`
	IdentitiesWithoutFaces int64       `json:"identities_without_faces"`
}

// Healthy reports whether the audit found no integrity problems.
func (r *AuditReport) Healthy() bool {
	return len(r.MismatchedDescriptors) == 0 && r.IdentitiesWithoutFaces == 0
}

type AuditService interface {
	AuditDescriptors(ctx context.Context) (*AuditReport, error)
}
