package serviceimpl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"faceauth/domain/models"
	"faceauth/domain/repositories"
	"faceauth/infrastructure/memory"
	"faceauth/pkg/utils"
)

type brokenRevocations struct{}

func (brokenRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return errors.New("redis down")
}

func (brokenRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return false, errors.New("redis down")
}

func TestSessionService_IssueValidateRevoke(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(memory.NewRevocations(), "test-secret", time.Hour)
	identity := &models.Identity{ID: uuid.New()}

	token, expiresAt, err := svc.IssueToken(identity)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 || time.Until(expiresAt) > time.Hour {
		t.Errorf("unexpected expiry %s", expiresAt)
	}

	got, err := svc.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if got.ID != identity.ID {
		t.Errorf("token carries identity %s, want %s", got.ID, identity.ID)
	}

	if err := svc.Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := svc.ValidateToken(ctx, token); !errors.Is(err, utils.ErrRevokedToken) {
		t.Errorf("expected ErrRevokedToken after logout, got %v", err)
	}
}

func TestSessionService_RejectsForeignAndExpiredTokens(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(memory.NewRevocations(), "test-secret", time.Hour)
	id := uuid.New()

	foreign, _, _ := utils.GenerateToken(id, "other-secret", time.Hour)
	if _, err := svc.ValidateToken(ctx, foreign); !errors.Is(err, utils.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}

	expired, _, _ := utils.GenerateToken(id, "test-secret", -time.Minute)
	if _, err := svc.ValidateToken(ctx, expired); !errors.Is(err, utils.ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}

	if _, err := svc.ValidateToken(ctx, ""); !errors.Is(err, utils.ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
}

func TestSessionService_FailsClosedWhenRevocationsUnavailable(t *testing.T) {
	svc := NewSessionService(brokenRevocations{}, "test-secret", time.Hour)

	token, _, err := svc.IssueToken(&models.Identity{ID: uuid.New()})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := svc.ValidateToken(context.Background(), token); !errors.Is(err, utils.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

// orphanedIdentities reports identities without descriptors, which the
// memory store cannot produce on its own
type orphanedIdentities struct {
	repositories.IdentityRepository
	orphans int64
}

func (o orphanedIdentities) CountWithoutDescriptors(ctx context.Context) (int64, error) {
	return o.orphans, nil
}

func TestAuditService(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	good := &models.Identity{}
	if err := store.Descriptors().Enroll(ctx, good, &models.FaceDescriptor{Vector: pgvector.NewVector(vectorAt(0))}); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	bad := &models.FaceDescriptor{Vector: pgvector.NewVector([]float32{1, 2, 3})}
	if err := store.Descriptors().Enroll(ctx, &models.Identity{}, bad); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	identities := orphanedIdentities{IdentityRepository: store.Identities(), orphans: 1}
	report, err := NewAuditService(identities, store.Descriptors(), 128).AuditDescriptors(ctx)
	if err != nil {
		t.Fatalf("AuditDescriptors failed: %v", err)
	}
	if report.TotalIdentities != 2 || report.TotalDescriptors != 2 {
		t.Errorf("unexpected totals: identities=%d descriptors=%d", report.TotalIdentities, report.TotalDescriptors)
	}
	if len(report.MismatchedDescriptors) != 1 || report.MismatchedDescriptors[0] != bad.ID {
		t.Errorf("expected the 3-component descriptor to be flagged, got %v", report.MismatchedDescriptors)
	}
	if report.IdentitiesWithoutFaces != 1 {
		t.Errorf("expected 1 identity without faces, got %d", report.IdentitiesWithoutFaces)
	}
	if report.Healthy() {
		t.Error("expected unhealthy report")
	}
}
