package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"faceauth/domain/repositories"
	"faceauth/infrastructure/faceapi"
	"faceauth/infrastructure/redis"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db             *gorm.DB
	redisClient    *redis.RedisClient
	extractor      *faceapi.Extractor
	identityRepo   repositories.IdentityRepository
	descriptorRepo repositories.DescriptorRepository
}

// NewHealthHandler creates a new health handler. db, redisClient and
// extractor may be nil when the component is disabled.
func NewHealthHandler(
	db *gorm.DB,
	redisClient *redis.RedisClient,
	extractor *faceapi.Extractor,
	identityRepo repositories.IdentityRepository,
	descriptorRepo repositories.DescriptorRepository,
) *HealthHandler {
	return &HealthHandler{
		db:             db,
		redisClient:    redisClient,
		extractor:      extractor,
		identityRepo:   identityRepo,
		descriptorRepo: descriptorRepo,
	}
}

// ComponentHealth represents health status of a component
type ComponentHealth struct {
	Status  string `json:"status"` // "ok", "error", "unavailable"
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// DetailedHealthResponse represents detailed health check response
type DetailedHealthResponse struct {
	Status     string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
	Metrics    *HealthMetrics             `json:"metrics,omitempty"`
}

// HealthMetrics reports the size of the descriptor store
type HealthMetrics struct {
	Identities  int64 `json:"identities"`
	Descriptors int64 `json:"descriptors"`
}

// Health is the liveness probe
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now(),
	})
}

// DetailedHealth checks every dependency. The store is critical, the
// rest only degrade the service.
func (h *HealthHandler) DetailedHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()

	response := DetailedHealthResponse{
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
	}

	allHealthy := true
	hasCriticalFailure := false

	dbHealth := h.checkDatabase(ctx)
	response.Components["database"] = dbHealth
	if dbHealth.Status == "error" {
		hasCriticalFailure = true
	}

	redisHealth := h.checkRedis(ctx)
	response.Components["redis"] = redisHealth
	if redisHealth.Status == "error" {
		allHealthy = false
	}

	faceHealth := h.checkFaceAPI(ctx)
	response.Components["face_api"] = faceHealth
	if faceHealth.Status == "error" {
		allHealthy = false
	}

	if !hasCriticalFailure {
		metrics, err := h.getMetrics(ctx)
		if err != nil {
			response.Components["store"] = ComponentHealth{Status: "error", Message: "Store read failed: " + err.Error()}
			hasCriticalFailure = true
		} else {
			response.Metrics = metrics
		}
	}

	if hasCriticalFailure {
		response.Status = "unhealthy"
	} else if !allHealthy {
		response.Status = "degraded"
	} else {
		response.Status = "healthy"
	}

	statusCode := fiber.StatusOK
	if response.Status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(response)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.db == nil {
		return ComponentHealth{
			Status:  "unavailable",
			Message: "In-memory store",
		}
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Failed to get database connection: " + err.Error(),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Database ping failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Connected",
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkRedis(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.redisClient == nil {
		return ComponentHealth{
			Status:  "unavailable",
			Message: "Redis not configured",
		}
	}

	if err := h.redisClient.Ping(ctx); err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Redis ping failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Connected",
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkFaceAPI(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.extractor == nil {
		return ComponentHealth{
			Status:  "unavailable",
			Message: "Face API disabled",
		}
	}

	if state, err := h.extractor.State(); state != faceapi.StateReady {
		msg := "Extractor " + string(state)
		if err != nil {
			msg += ": " + err.Error()
		}
		return ComponentHealth{Status: "error", Message: msg}
	}

	health, err := h.extractor.Health(ctx)
	if err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Face API health check failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Model: " + health.Model + ", Version: " + health.Version,
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) getMetrics(ctx context.Context) (*HealthMetrics, error) {
	identities, err := h.identityRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	descriptors, err := h.descriptorRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &HealthMetrics{
		Identities:  identities,
		Descriptors: descriptors,
	}, nil
}
