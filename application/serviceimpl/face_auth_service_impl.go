package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"faceauth/domain/models"
	"faceauth/domain/repositories"
	"faceauth/domain/services"
	"faceauth/pkg/facematch"
	"faceauth/pkg/logger"
)

// MaxDisplayNameLength bounds RenameIdentity input, in characters.
const MaxDisplayNameLength = 100

// FaceAuthConfig carries the matching settings
type FaceAuthConfig struct {
	Threshold          float64
	Dimension          int
	DefaultDisplayName string
}

type FaceAuthServiceImpl struct {
	identityRepo   repositories.IdentityRepository
	descriptorRepo repositories.DescriptorRepository
	extractor      services.Extractor
	config         FaceAuthConfig
}

// NewFaceAuthService wires the resolver. extractor may be nil when
// server-side extraction is disabled; AuthenticateImage then fails.
func NewFaceAuthService(
	identityRepo repositories.IdentityRepository,
	descriptorRepo repositories.DescriptorRepository,
	extractor services.Extractor,
	config FaceAuthConfig,
) services.FaceAuthService {
	if config.Dimension <= 0 {
		config.Dimension = facematch.DescriptorSize
	}
	return &FaceAuthServiceImpl{
		identityRepo:   identityRepo,
		descriptorRepo: descriptorRepo,
		extractor:      extractor,
		config:         config,
	}
}

func failed(reason services.FailureReason, err error) *services.AuthOutcome {
	return &services.AuthOutcome{
		Status: services.AuthStatusFailed,
		Reason: reason,
		Err:    err,
	}
}

func (s *FaceAuthServiceImpl) Authenticate(ctx context.Context, probe facematch.FeatureVector) *services.AuthOutcome {
	start := time.Now()

	outcome := s.authenticate(ctx, probe)

	data := map[string]interface{}{
		"status":   string(outcome.Status),
		"duration": time.Since(start).String(),
	}
	switch outcome.Status {
	case services.AuthStatusFailed:
		data["reason"] = string(outcome.Reason)
		logger.AuthError("authenticate_failed", "Face authentication failed", outcome.Err, data)
	case services.AuthStatusLoggedIn:
		data["identity_id"] = outcome.IdentityID().String()
		data["distance"] = outcome.Distance
		logger.Auth("authenticate_logged_in", "Face matched existing identity", data)
	case services.AuthStatusEnrolled:
		data["identity_id"] = outcome.IdentityID().String()
		logger.Auth("authenticate_enrolled", "Enrolled new identity", data)
	}

	return outcome
}

func (s *FaceAuthServiceImpl) authenticate(ctx context.Context, probe facematch.FeatureVector) *services.AuthOutcome {
	if len(probe) == 0 {
		return failed(services.ReasonNoFaceDetected, services.ErrNoFaceDetected)
	}
	if len(probe) != s.config.Dimension {
		return failed(services.ReasonInvalidInput, fmt.Errorf("%w: descriptor has %d components, expected %d",
			services.ErrInvalidInput, len(probe), s.config.Dimension))
	}

	stored, err := s.descriptorRepo.ListAll(ctx)
	if err != nil {
		return failed(services.ReasonStoreRead, fmt.Errorf("%w: %w", services.ErrStoreRead, err))
	}

	candidates := make([]facematch.Candidate, len(stored))
	for i, d := range stored {
		candidates[i] = facematch.Candidate{
			DescriptorID: d.ID,
			IdentityID:   d.IdentityID,
			Vector:       d.Vector.Slice(),
		}
	}

	match, skipped := facematch.FindBestMatch(probe, candidates, s.config.Threshold)
	for _, m := range skipped {
		logger.Warn(logger.CategoryFace, "descriptor_dimension_mismatch", "Skipped stored descriptor with wrong length", map[string]interface{}{
			"descriptor_id": m.DescriptorID.String(),
			"identity_id":   m.IdentityID.String(),
			"expected":      m.Expected,
			"actual":        m.Actual,
		})
	}

	if match != nil {
		identity, err := s.identityRepo.GetByID(ctx, match.IdentityID)
		if err != nil {
			return failed(services.ReasonStoreRead, fmt.Errorf("%w: identity %s: %w", services.ErrStoreRead, match.IdentityID, err))
		}
		return &services.AuthOutcome{
			Status:   services.AuthStatusLoggedIn,
			Identity: identity,
			Distance: match.Distance,
		}
	}

	return s.enroll(ctx, probe)
}

func (s *FaceAuthServiceImpl) enroll(ctx context.Context, probe facematch.FeatureVector) *services.AuthOutcome {
	identity := &models.Identity{IsNewlyEnrolled: true}
	if s.config.DefaultDisplayName != "" {
		name := s.config.DefaultDisplayName
		identity.DisplayName = &name
	}
	descriptor := &models.FaceDescriptor{
		Vector: pgvector.NewVector(append([]float32(nil), probe...)),
	}

	if err := s.descriptorRepo.Enroll(ctx, identity, descriptor); err != nil {
		return failed(services.ReasonStoreWrite, fmt.Errorf("%w: %w", services.ErrStoreWrite, err))
	}

	return &services.AuthOutcome{
		Status:   services.AuthStatusEnrolled,
		Identity: identity,
	}
}

func (s *FaceAuthServiceImpl) AuthenticateImage(ctx context.Context, imageData []byte, mimeType string) *services.AuthOutcome {
	if len(imageData) == 0 {
		return failed(services.ReasonInvalidInput, fmt.Errorf("%w: empty image", services.ErrInvalidInput))
	}
	if s.extractor == nil {
		outcome := failed(services.ReasonExtractorError, services.ErrExtractorNotReady)
		logger.FaceError("extract_unavailable", "Face extraction is disabled", outcome.Err, nil)
		return outcome
	}

	probe, err := s.extractor.Extract(ctx, imageData, mimeType)
	if err != nil {
		if errors.Is(err, services.ErrNoFaceDetected) {
			return failed(services.ReasonNoFaceDetected, err)
		}
		logger.FaceError("extract_failed", "Face extraction failed", err, map[string]interface{}{
			"mime_type": mimeType,
			"size":      len(imageData),
		})
		return failed(services.ReasonExtractorError, err)
	}

	return s.Authenticate(ctx, probe)
}

func (s *FaceAuthServiceImpl) RenameIdentity(ctx context.Context, identityID uuid.UUID, displayName string) (*models.Identity, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, fmt.Errorf("%w: display name is empty", services.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return nil, fmt.Errorf("%w: display name longer than %d characters", services.ErrInvalidInput, MaxDisplayNameLength)
	}

	identity, err := s.identityRepo.Rename(ctx, identityID, name)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %w", services.ErrStoreWrite, err)
	}

	logger.Auth("identity_renamed", "Identity display name updated", map[string]interface{}{
		"identity_id": identityID.String(),
	})
	return identity, nil
}

func (s *FaceAuthServiceImpl) GetIdentity(ctx context.Context, identityID uuid.UUID) (*models.Identity, error) {
	identity, err := s.identityRepo.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %w", services.ErrStoreRead, err)
	}
	return identity, nil
}
