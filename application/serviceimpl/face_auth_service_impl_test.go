package serviceimpl

import (
	"context"
	"errors"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"faceauth/domain/models"
	"faceauth/domain/repositories"
	"faceauth/domain/services"
	"faceauth/infrastructure/memory"
	"faceauth/pkg/facematch"
	"faceauth/pkg/logger"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "faceauth-logs")
	if err != nil {
		panic(err)
	}
	if err := logger.Init(dir, false); err != nil {
		panic(err)
	}
	code := m.Run()
	logger.Default().Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

// vectorAt returns a descriptor at euclidean distance d from the zero vector.
func vectorAt(d float32) facematch.FeatureVector {
	v := make(facematch.FeatureVector, facematch.DescriptorSize)
	v[0] = d
	return v
}

func defaultConfig() FaceAuthConfig {
	return FaceAuthConfig{
		Threshold:          facematch.DefaultThreshold,
		Dimension:          facematch.DescriptorSize,
		DefaultDisplayName: "New User",
	}
}

func newTestService(store *memory.Store, extractor services.Extractor) services.FaceAuthService {
	return NewFaceAuthService(store.Identities(), store.Descriptors(), extractor, defaultConfig())
}

type failingDescriptors struct {
	repositories.DescriptorRepository
	listErr   error
	enrollErr error
}

func (f *failingDescriptors) ListAll(ctx context.Context) ([]models.FaceDescriptor, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.DescriptorRepository.ListAll(ctx)
}

func (f *failingDescriptors) Enroll(ctx context.Context, identity *models.Identity, descriptor *models.FaceDescriptor) error {
	if f.enrollErr != nil {
		return f.enrollErr
	}
	return f.DescriptorRepository.Enroll(ctx, identity, descriptor)
}

type stubExtractor struct {
	vector facematch.FeatureVector
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, imageData []byte, mimeType string) (facematch.FeatureVector, error) {
	return s.vector, s.err
}

func TestAuthenticate_EmptyStoreEnrolls(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestService(store, nil)

	outcome := svc.Authenticate(ctx, vectorAt(0.1))
	if outcome.Status != services.AuthStatusEnrolled {
		t.Fatalf("expected enrolled, got %s (%v)", outcome.Status, outcome.Err)
	}
	if outcome.IdentityID() == uuid.Nil {
		t.Fatal("expected enrolled identity id")
	}
	if !outcome.Identity.IsNewlyEnrolled {
		t.Error("expected enrolled identity to be flagged as new")
	}
	if outcome.Identity.Name() != "New User" {
		t.Errorf("expected default display name, got %q", outcome.Identity.Name())
	}

	descriptors, _ := store.Descriptors().GetByIdentity(ctx, outcome.IdentityID())
	if len(descriptors) != 1 {
		t.Errorf("expected 1 descriptor for new identity, got %d", len(descriptors))
	}
}

func TestAuthenticate_SameProbeLogsIn(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestService(store, nil)

	probe := vectorAt(0.2)
	enrolled := svc.Authenticate(ctx, probe)
	if enrolled.Status != services.AuthStatusEnrolled {
		t.Fatalf("expected enrolled, got %s", enrolled.Status)
	}

	again := svc.Authenticate(ctx, probe)
	if again.Status != services.AuthStatusLoggedIn {
		t.Fatalf("expected logged in, got %s (%v)", again.Status, again.Err)
	}
	if again.IdentityID() != enrolled.IdentityID() {
		t.Errorf("logged in as %s, want %s", again.IdentityID(), enrolled.IdentityID())
	}
	if again.Distance > 1e-9 {
		t.Errorf("expected distance ~0, got %v", again.Distance)
	}

	count, _ := store.Identities().Count(ctx)
	if count != 1 {
		t.Errorf("expected a single identity, got %d", count)
	}
}

func TestAuthenticate_ClosestIdentityWins(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	a := &models.Identity{IsNewlyEnrolled: true}
	b := &models.Identity{IsNewlyEnrolled: true}
	// B is enrolled first so input order alone cannot pick A
	if err := store.Descriptors().Enroll(ctx, b, &models.FaceDescriptor{Vector: pgvector.NewVector(vectorAt(0.55))}); err != nil {
		t.Fatalf("Enroll B failed: %v", err)
	}
	if err := store.Descriptors().Enroll(ctx, a, &models.FaceDescriptor{Vector: pgvector.NewVector(vectorAt(0.45))}); err != nil {
		t.Fatalf("Enroll A failed: %v", err)
	}

	outcome := newTestService(store, nil).Authenticate(ctx, vectorAt(0))
	if outcome.Status != services.AuthStatusLoggedIn {
		t.Fatalf("expected logged in, got %s", outcome.Status)
	}
	if outcome.IdentityID() != a.ID {
		t.Errorf("expected identity A, got %s", outcome.IdentityID())
	}
	if math.Abs(outcome.Distance-0.45) > 1e-6 {
		t.Errorf("expected distance 0.45, got %v", outcome.Distance)
	}
}

func TestAuthenticate_SkipsMalformedDescriptor(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	broken := &models.Identity{}
	if err := store.Descriptors().Enroll(ctx, broken, &models.FaceDescriptor{Vector: pgvector.NewVector([]float32{0, 0, 0})}); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	outcome := newTestService(store, nil).Authenticate(ctx, vectorAt(0))
	if outcome.Status != services.AuthStatusEnrolled {
		t.Fatalf("expected malformed descriptor to be skipped and probe enrolled, got %s", outcome.Status)
	}
	if outcome.IdentityID() == broken.ID {
		t.Error("malformed descriptor must never win")
	}
}

func TestAuthenticate_Failures(t *testing.T) {
	readErr := errors.New("connection reset")
	writeErr := errors.New("disk full")

	tests := []struct {
		name      string
		probe     facematch.FeatureVector
		listErr   error
		enrollErr error
		reason    services.FailureReason
		wantErr   error
	}{
		{name: "empty probe", probe: facematch.FeatureVector{}, reason: services.ReasonNoFaceDetected, wantErr: services.ErrNoFaceDetected},
		{name: "wrong length probe", probe: facematch.FeatureVector{1, 2}, reason: services.ReasonInvalidInput, wantErr: services.ErrInvalidInput},
		{name: "store read", probe: vectorAt(0), listErr: readErr, reason: services.ReasonStoreRead, wantErr: readErr},
		{name: "store write", probe: vectorAt(0), enrollErr: writeErr, reason: services.ReasonStoreWrite, wantErr: writeErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.NewStore()
			descriptors := &failingDescriptors{
				DescriptorRepository: store.Descriptors(),
				listErr:              tt.listErr,
				enrollErr:            tt.enrollErr,
			}
			svc := NewFaceAuthService(store.Identities(), descriptors, nil, defaultConfig())

			outcome := svc.Authenticate(ctx, tt.probe)
			if outcome.Status != services.AuthStatusFailed {
				t.Fatalf("expected failed, got %s", outcome.Status)
			}
			if outcome.Reason != tt.reason {
				t.Errorf("expected reason %s, got %s", tt.reason, outcome.Reason)
			}
			if !errors.Is(outcome.Err, tt.wantErr) {
				t.Errorf("expected error wrapping %v, got %v", tt.wantErr, outcome.Err)
			}

			count, _ := store.Identities().Count(ctx)
			if count != 0 {
				t.Errorf("failed attempt left %d identities behind", count)
			}
		})
	}
}

func TestAuthenticate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := newTestService(memory.NewStore(), nil).Authenticate(ctx, vectorAt(0))
	if outcome.Status != services.AuthStatusFailed || outcome.Reason != services.ReasonStoreRead {
		t.Fatalf("expected store read failure, got %s/%s", outcome.Status, outcome.Reason)
	}
	if !errors.Is(outcome.Err, context.Canceled) {
		t.Errorf("expected context.Canceled to propagate, got %v", outcome.Err)
	}
}

func TestAuthenticateImage(t *testing.T) {
	ctx := context.Background()

	t.Run("no face", func(t *testing.T) {
		svc := newTestService(memory.NewStore(), &stubExtractor{err: services.ErrNoFaceDetected})
		outcome := svc.AuthenticateImage(ctx, []byte("frame"), "image/jpeg")
		if outcome.Reason != services.ReasonNoFaceDetected {
			t.Errorf("expected no face reason, got %s", outcome.Reason)
		}
	})

	t.Run("extractor error", func(t *testing.T) {
		svc := newTestService(memory.NewStore(), &stubExtractor{err: errors.New("timeout")})
		outcome := svc.AuthenticateImage(ctx, []byte("frame"), "image/jpeg")
		if outcome.Reason != services.ReasonExtractorError {
			t.Errorf("expected extractor error reason, got %s", outcome.Reason)
		}
	})

	t.Run("extraction disabled", func(t *testing.T) {
		svc := newTestService(memory.NewStore(), nil)
		outcome := svc.AuthenticateImage(ctx, []byte("frame"), "image/jpeg")
		if !errors.Is(outcome.Err, services.ErrExtractorNotReady) {
			t.Errorf("expected ErrExtractorNotReady, got %v", outcome.Err)
		}
	})

	t.Run("empty image", func(t *testing.T) {
		svc := newTestService(memory.NewStore(), &stubExtractor{vector: vectorAt(0)})
		outcome := svc.AuthenticateImage(ctx, nil, "image/jpeg")
		if outcome.Reason != services.ReasonInvalidInput {
			t.Errorf("expected invalid input reason, got %s", outcome.Reason)
		}
	})

	t.Run("enrolls extracted face", func(t *testing.T) {
		svc := newTestService(memory.NewStore(), &stubExtractor{vector: vectorAt(0.3)})
		outcome := svc.AuthenticateImage(ctx, []byte("frame"), "image/jpeg")
		if outcome.Status != services.AuthStatusEnrolled {
			t.Errorf("expected enrolled, got %s (%v)", outcome.Status, outcome.Err)
		}
	})
}

func TestRenameIdentity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestService(store, nil)

	enrolled := svc.Authenticate(ctx, vectorAt(0))
	if enrolled.Status != services.AuthStatusEnrolled {
		t.Fatalf("expected enrolled, got %s", enrolled.Status)
	}
	id := enrolled.IdentityID()

	for _, name := range []string{"", "   ", "\t\n", strings.Repeat("x", MaxDisplayNameLength+1)} {
		if _, err := svc.RenameIdentity(ctx, id, name); !errors.Is(err, services.ErrInvalidInput) {
			t.Errorf("rename %q: expected ErrInvalidInput, got %v", name, err)
		}
	}

	renamed, err := svc.RenameIdentity(ctx, id, "  Alice ")
	if err != nil {
		t.Fatalf("RenameIdentity failed: %v", err)
	}
	if renamed.Name() != "Alice" {
		t.Errorf("expected trimmed name Alice, got %q", renamed.Name())
	}
	if renamed.IsNewlyEnrolled {
		t.Error("expected rename to clear the newly enrolled flag")
	}

	loggedIn := svc.Authenticate(ctx, vectorAt(0))
	if loggedIn.Identity.Name() != "Alice" || loggedIn.Identity.IsNewlyEnrolled {
		t.Errorf("login does not reflect rename: %+v", loggedIn.Identity)
	}

	if _, err := svc.RenameIdentity(ctx, uuid.New(), "Bob"); !errors.Is(err, services.ErrIdentityNotFound) {
		t.Errorf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestGetIdentity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestService(store, nil)

	enrolled := svc.Authenticate(ctx, vectorAt(0))

	got, err := svc.GetIdentity(ctx, enrolled.IdentityID())
	if err != nil {
		t.Fatalf("GetIdentity failed: %v", err)
	}
	if got.ID != enrolled.IdentityID() {
		t.Errorf("got identity %s, want %s", got.ID, enrolled.IdentityID())
	}

	if _, err := svc.GetIdentity(ctx, uuid.New()); !errors.Is(err, services.ErrIdentityNotFound) {
		t.Errorf("expected ErrIdentityNotFound, got %v", err)
	}
}
