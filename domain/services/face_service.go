package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"faceauth/domain/models"
	"faceauth/pkg/facematch"
)

// Custom errors for face authentication
var (
	ErrNoFaceDetected    = errors.New("no face detected in frame")
	ErrExtractorNotReady = errors.New("face extractor is not ready")
	ErrStoreRead         = errors.New("failed to read descriptor store")
	ErrStoreWrite        = errors.New("failed to write descriptor store")
	ErrInvalidInput      = errors.New("invalid input")
	ErrIdentityNotFound  = errors.New("identity not found")
)

// AuthStatus is the terminal state of one authentication attempt.
type AuthStatus string

const (
	AuthStatusLoggedIn AuthStatus = "logged_in"
	AuthStatusEnrolled AuthStatus = "enrolled"
	AuthStatusFailed   AuthStatus = "failed"
)

// FailureReason is logged for failed attempts. It is never shown to the user.
type FailureReason string

const (
	ReasonNoFaceDetected FailureReason = "no_face_detected"
	ReasonExtractorError FailureReason = "extractor_error"
	ReasonStoreRead      FailureReason = "store_read_error"
	ReasonStoreWrite     FailureReason = "store_write_error"
	ReasonInvalidInput   FailureReason = "invalid_input"
)

// AuthOutcome is the result of Authenticate.
//
// LoggedIn carries the matched identity and its distance, Enrolled carries the
// freshly created identity, Failed carries Reason and the underlying Err.
type AuthOutcome struct {
	Status   AuthStatus
	Identity *models.Identity
	Distance float64
	Reason   FailureReason
	Err      error
}

// IdentityID returns the identity of a LoggedIn or Enrolled outcome.
func (o *AuthOutcome) IdentityID() uuid.UUID {
	if o == nil || o.Identity == nil {
		return uuid.Nil
	}
	return o.Identity.ID
}

// Succeeded reports whether the attempt ended in LoggedIn or Enrolled.
func (o *AuthOutcome) Succeeded() bool {
	return o != nil && (o.Status == AuthStatusLoggedIn || o.Status == AuthStatusEnrolled)
}

// Extractor turns a captured frame into a face descriptor.
type Extractor interface {
	Extract(ctx context.Context, imageData []byte, mimeType string) (facematch.FeatureVector, error)
}

// FaceAuthService resolves a face descriptor to an identity, enrolling unknown faces.
type FaceAuthService interface {
	// Authenticate matches probe against every enrolled descriptor and logs in
	// the closest identity under the threshold, or enrolls a new one.
	Authenticate(ctx context.Context, probe facematch.FeatureVector) *AuthOutcome

	// AuthenticateImage runs the extractor on a frame, then Authenticate.
	AuthenticateImage(ctx context.Context, imageData []byte, mimeType string) *AuthOutcome

	// RenameIdentity sets the display name and clears the newly-enrolled flag.
	RenameIdentity(ctx context.Context, identityID uuid.UUID, displayName string) (*models.Identity, error)

	// GetIdentity returns an identity by ID
	GetIdentity(ctx context.Context, identityID uuid.UUID) (*models.Identity, error)
}
