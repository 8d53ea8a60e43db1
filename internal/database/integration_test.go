package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/cadencehq/ppmtrack/internal/database"
	"github.com/cadencehq/ppmtrack/internal/models"
	"github.com/cadencehq/ppmtrack/internal/services"
	"github.com/cadencehq/ppmtrack/internal/types"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// TestWithPostgres runs migrations, seeding and a version-guarded update
// cycle against a real PostgreSQL container.
func TestWithPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	if err := wait.ForListeningPort("5432/tcp").
		WithStartupTimeout(60 * time.Second).
		WaitUntilReady(ctx, pgContainer); err != nil {
		t.Fatalf("Container not ready: %v", err)
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to build connection string: %v", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Migration failed: %v", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	// Seeding is idempotent.
	if err := database.Seed(db); err != nil {
		t.Fatalf("Second seed failed: %v", err)
	}
	var workerTypes int64
	db.Model(&models.WorkerType{}).Count(&workerTypes)
	if workerTypes != 3 {
		t.Errorf("Expected 3 seeded worker types, got %d", workerTypes)
	}

	// Full optimistic-lock cycle against the real dialect.
	portfolio := models.Portfolio{Name: "Integration"}
	portfolio.Version = 1
	if err := db.Create(&portfolio).Error; err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	program := models.Program{PortfolioID: portfolio.ID, Name: "Integration"}
	program.Version = 1
	if err := db.Create(&program).Error; err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	project := models.Project{
		ProgramID: program.ID,
		Name:      "Integration",
		StartDate: types.NewDate(2026, 1, 1),
		EndDate:   types.NewDate(2026, 12, 31),
	}
	project.Version = 1
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	name := "Whole Year"
	start := types.NewDate(2026, 1, 1)
	end := types.NewDate(2026, 12, 31)
	phase, err := services.CreatePhase(db, project.ID, services.PhasePayload{
		Name:      &name,
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		t.Fatalf("CreatePhase failed: %v", err)
	}

	renamed := "Renamed"
	if _, err := services.UpdatePhase(db, project.ID, phase.ID, 1, services.PhasePayload{
		Name: &renamed,
	}); err != nil {
		t.Fatalf("UpdatePhase failed: %v", err)
	}

	// Stale version must lose.
	stale := "Stale"
	if _, err := services.UpdatePhase(db, project.ID, phase.ID, 1, services.PhasePayload{
		Name: &stale,
	}); err == nil {
		t.Error("Expected stale update to fail")
	}

	var stored models.Phase
	if err := db.First(&stored, phase.ID).Error; err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if stored.Name != "Renamed" || stored.Version != 2 {
		t.Errorf("Unexpected stored state: name=%s version=%d", stored.Name, stored.Version)
	}
}
