package services_test

import (
	"testing"
	"time"

	"github.com/cadencehq/ppmtrack/internal/database"
	"github.com/cadencehq/ppmtrack/internal/models"
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func testDate(y int, m time.Month, d int) types.Date {
	return types.NewDate(y, m, d)
}

func testDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// createTestProject creates a portfolio/program/project chain spanning the
// given dates and returns the project.
func createTestProject(t *testing.T, db *gorm.DB, start, end types.Date) *models.Project {
	portfolio := models.Portfolio{Name: "Test Portfolio"}
	portfolio.Version = 1
	if err := db.Create(&portfolio).Error; err != nil {
		t.Fatalf("Failed to create portfolio: %v", err)
	}

	program := models.Program{PortfolioID: portfolio.ID, Name: "Test Program"}
	program.Version = 1
	if err := db.Create(&program).Error; err != nil {
		t.Fatalf("Failed to create program: %v", err)
	}

	project := models.Project{
		ProgramID: program.ID,
		Name:      "Test Project",
		StartDate: start,
		EndDate:   end,
	}
	project.Version = 1
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}

	return &project
}

// createTestPhase inserts a phase row directly, bypassing validation.
func createTestPhase(t *testing.T, db *gorm.DB, projectID uint64, name string, start, end types.Date) *models.Phase {
	phase := models.Phase{
		ProjectID: projectID,
		Name:      name,
		StartDate: start,
		EndDate:   end,
	}
	phase.Version = 1
	if err := db.Create(&phase).Error; err != nil {
		t.Fatalf("Failed to create phase: %v", err)
	}
	return &phase
}

// createTestResource inserts a resource row.
func createTestResource(t *testing.T, db *gorm.DB, name string) *models.Resource {
	resource := models.Resource{Name: name}
	resource.Version = 1
	if err := db.Create(&resource).Error; err != nil {
		t.Fatalf("Failed to create resource: %v", err)
	}
	return &resource
}
