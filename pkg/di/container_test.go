package di

import (
	"context"
	"os"
	"testing"
	"time"

	"faceauth/domain/services"
	"faceauth/pkg/config"
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
	os.RemoveAll(dir)
	os.Exit(code)
}

func memoryConfig() *config.Config {
	return &config.Config{
		JWT:   config.JWTConfig{Secret: "test-secret", TTL: time.Hour},
		Redis: config.RedisConfig{Enabled: false},
		FaceAPI: config.FaceAPIConfig{
			Enabled: false,
			Timeout: time.Second,
		},
		Matching: config.MatchingConfig{
			Threshold: facematch.DefaultThreshold,
			Dimension: facematch.DescriptorSize,
		},
		Store:     config.StoreConfig{Driver: config.StoreDriverMemory},
		Scheduler: config.SchedulerConfig{AuditCron: "0 3 * * *"},
	}
}

func TestContainer_InitializeWithMemoryStore(t *testing.T) {
	c := NewContainer()
	c.Config = memoryConfig()

	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer c.Cleanup()

	if c.DB != nil || c.MemoryStore == nil {
		t.Fatal("expected memory store to be used")
	}
	if c.Extractor != nil {
		t.Error("expected no extractor when face API is disabled")
	}
	if _, ok := c.EventScheduler.ListJobs()[auditJobID]; !ok {
		t.Error("expected descriptor audit to be scheduled")
	}

	outcome := c.FaceAuthService.Authenticate(context.Background(), make(facematch.FeatureVector, facematch.DescriptorSize))
	if outcome.Status != services.AuthStatusEnrolled {
		t.Fatalf("expected enrollment through the container, got %s (%v)", outcome.Status, outcome.Err)
	}

	token, _, err := c.SessionService.IssueToken(outcome.Identity)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if err := c.SessionService.Revoke(context.Background(), token); err != nil {
		t.Errorf("expected in-memory revocation when redis is disabled, got %v", err)
	}

	deps := c.GetHandlerDependencies()
	if deps.IdentityRepository == nil || deps.DescriptorRepository == nil {
		t.Error("handler dependencies missing repositories")
	}
}

func TestContainer_RejectsInvalidAuditCron(t *testing.T) {
	c := NewContainer()
	c.Config = memoryConfig()
	c.Config.Scheduler.AuditCron = "every day"

	if err := c.Initialize(); err == nil {
		c.Cleanup()
		t.Fatal("expected invalid audit cron to fail initialization")
	}
}
