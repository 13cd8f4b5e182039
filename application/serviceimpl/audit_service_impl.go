package serviceimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"faceauth/domain/repositories"
	"faceauth/domain/services"
	"faceauth/pkg/logger"
)

type AuditServiceImpl struct {
	identityRepo   repositories.IdentityRepository
	descriptorRepo repositories.DescriptorRepository
	dimension      int
}

func NewAuditService(
	identityRepo repositories.IdentityRepository,
	descriptorRepo repositories.DescriptorRepository,
	dimension int,
) services.AuditService {
	return &AuditServiceImpl{
		identityRepo:   identityRepo,
		descriptorRepo: descriptorRepo,
		dimension:      dimension,
	}
}

// AuditDescriptors reports stored descriptors whose length differs from the
// configured size and identities left without any descriptor.
func (s *AuditServiceImpl) AuditDescriptors(ctx context.Context) (*services.AuditReport, error) {
	descriptors, err := s.descriptorRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", services.ErrStoreRead, err)
	}

	totalIdentities, err := s.identityRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", services.ErrStoreRead, err)
	}

	orphans, err := s.identityRepo.CountWithoutDescriptors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", services.ErrStoreRead, err)
	}

	report := &services.AuditReport{
		CheckedAt:              time.Now(),
		ExpectedDimension:      s.dimension,
		TotalIdentities:        totalIdentities,
		TotalDescriptors:       len(descriptors),
		MismatchedDescriptors:  []uuid.UUID{},
		IdentitiesWithoutFaces: orphans,
	}
	for _, d := range descriptors {
		if len(d.Vector.Slice()) != s.dimension {
			report.MismatchedDescriptors = append(report.MismatchedDescriptors, d.ID)
		}
	}

	data := map[string]interface{}{
		"identities":               report.TotalIdentities,
		"descriptors":              report.TotalDescriptors,
		"mismatched_descriptors":   len(report.MismatchedDescriptors),
		"identities_without_faces": report.IdentitiesWithoutFaces,
	}
	if report.Healthy() {
		logger.Info(logger.CategoryFace, "audit_completed", "Descriptor audit passed", data)
	} else {
		logger.Warn(logger.CategoryFace, "audit_problems", "Descriptor audit found integrity problems", data)
	}

	return report, nil
}
