// Package testutil holds fixtures shared by the test suites.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/kid"
	"github.com/trezcool/mwalimu/core/plan"
	"github.com/trezcool/mwalimu/core/task"
	"github.com/trezcool/mwalimu/storage/database"
)

// OpenDB opens and migrates the test database configured by the TEST_DATABASE_* variables.
// The calling test is skipped when TEST_DATABASE_HOST is not set.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if os.Getenv("TEST_DATABASE_HOST") == "" {
		t.Skip("TEST_DATABASE_HOST not set")
	}
	if err := os.Setenv("ENV", "TEST"); err != nil {
		t.Fatalf("os.Setenv(): %v", err)
	}
	conf := core.NewConfig()

	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("database.CreateIfNotExist(): %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("database.Open(): %v", err)
	}
	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("database.Migrate(): %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec("TRUNCATE kids CASCADE")
		_ = db.Close()
	})
	return db
}

func CreateKid(t *testing.T, repo kid.Repository, name string, age int, createdAt ...time.Time) kid.Kid {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	k, err := repo.CreateKid(context.Background(), kid.Kid{
		ID:            uuid.New().String(),
		Name:          name,
		Age:           age,
		Interests:     []string{"reading"},
		LearningStyle: "visual",
		CreatedAt:     tstamp.Truncate(time.Microsecond),
	})
	if err != nil {
		t.Fatalf("createKid() failed: %v", err)
	}
	return k
}

// CreateTask creates a pending task for kidID; planText, when set, is parsed into steps.
func CreateTask(t *testing.T, repo task.Repository, kidID, title, planText string, createdAt ...time.Time) task.Task {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	tstamp = tstamp.Truncate(time.Microsecond)
	tsk := task.Task{
		ID:         uuid.New().String(),
		Title:      title,
		KidID:      kidID,
		Priority:   task.PriorityMedium,
		Status:     task.StatusPending,
		Recurrence: task.RecurrenceNone,
		Plan:       planText,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	}
	if planText != "" {
		tsk.PlanSteps = plan.Parse(planText)
	}
	tsk, err := repo.CreateTask(context.Background(), tsk)
	if err != nil {
		t.Fatalf("createTask() failed: %v", err)
	}
	return tsk
}
