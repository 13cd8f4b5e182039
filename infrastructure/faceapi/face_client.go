package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"faceauth/domain/services"
	"faceauth/pkg/facematch"
)

// ErrDimensionMismatch is returned by Init when the service reports an
// embedding size different from the configured descriptor size.
var ErrDimensionMismatch = errors.New("face API embedding dimension does not match configuration")

// State of the extractor handle
type State string

const (
	StateNotReady State = "not_ready"
	StateReady    State = "ready"
	StateFailed   State = "failed"
)

// DetectedFace represents a detected face from the API
type DetectedFace struct {
	// Bounding box (normalized 0-1)
	BboxX      float64 `json:"bbox_x"`
	BboxY      float64 `json:"bbox_y"`
	BboxWidth  float64 `json:"bbox_width"`
	BboxHeight float64 `json:"bbox_height"`

	Embedding  []float32 `json:"embedding"`
	Confidence float64   `json:"confidence"`
}

// ExtractResponse is the response from face extraction
type ExtractResponse struct {
	Success bool           `json:"success"`
	Faces   []DetectedFace `json:"faces"`
	Error   string         `json:"error,omitempty"`

	ProcessingTimeMs int `json:"processing_time_ms"`
}

// HealthResponse is the response from health check
type HealthResponse struct {
	Status       string `json:"status"`
	Model        string `json:"model"`
	Version      string `json:"version"`
	EmbeddingDim int    `json:"embedding_dim"`
}

// Extractor is a handle on the face detection service. It must be
// initialised once with Init before Extract is used.
type Extractor struct {
	baseURL    string
	dimension  int
	httpClient *http.Client

	mu      sync.RWMutex
	state   State
	model   string
	lastErr error
}

// NewExtractor creates an extractor handle in the not_ready state
func NewExtractor(baseURL string, dimension int, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Extractor{
		baseURL:   strings.TrimRight(baseURL, "/"),
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		state: StateNotReady,
	}
}

// Init probes the service and checks that its embedding size matches.
// Calling Init again retries after a failure.
func (e *Extractor) Init(ctx context.Context) error {
	health, err := e.Health(ctx)
	if err == nil && health.Status != "ok" {
		err = fmt.Errorf("face API reported status %q", health.Status)
	}
	if err == nil && health.EmbeddingDim != 0 && health.EmbeddingDim != e.dimension {
		err = fmt.Errorf("%w: service=%d configured=%d", ErrDimensionMismatch, health.EmbeddingDim, e.dimension)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = StateFailed
		e.lastErr = err
		return err
	}
	e.state = StateReady
	e.model = health.Model
	e.lastErr = nil
	return nil
}

// State returns the current handle state and the last init error
func (e *Extractor) State() (State, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state, e.lastErr
}

// Model returns the model name reported at init
func (e *Extractor) Model() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

// Extract returns the descriptor of the most confident face in the image.
func (e *Extractor) Extract(ctx context.Context, imageData []byte, mimeType string) (facematch.FeatureVector, error) {
	if state, _ := e.State(); state != StateReady {
		return nil, services.ErrExtractorNotReady
	}

	result, err := e.ExtractFacesFromBytes(ctx, imageData, mimeType)
	if err != nil {
		return nil, err
	}

	face := bestFace(result.Faces)
	if face == nil {
		return nil, services.ErrNoFaceDetected
	}
	return facematch.FeatureVector(face.Embedding), nil
}

func bestFace(faces []DetectedFace) *DetectedFace {
	var best *DetectedFace
	for i := range faces {
		if len(faces[i].Embedding) == 0 {
			continue
		}
		if best == nil || faces[i].Confidence > best.Confidence {
			best = &faces[i]
		}
	}
	return best
}

// ExtractFacesFromBytes extracts faces from image bytes
func (e *Extractor) ExtractFacesFromBytes(ctx context.Context, imageData []byte, mimeType string) (*ExtractResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract-bytes", bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call face API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("face API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ExtractResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("face extraction failed: %s", result.Error)
	}

	return &result, nil
}

// Health checks if the face API is healthy
func (e *Extractor) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call health API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}

	var result HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}
