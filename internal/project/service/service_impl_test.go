package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/projectnest/projectnest/internal/clock"
	"github.com/projectnest/projectnest/internal/project/domain"
	projectrepo "github.com/projectnest/projectnest/internal/project/repository"
	projectservice "github.com/projectnest/projectnest/internal/project/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE projects (
			id BIGINT PRIMARY KEY,
			lead_id BIGINT,
			user_id BIGINT,
			topic TEXT NOT NULL DEFAULT '',
			mode TEXT NOT NULL DEFAULT 'self_service',
			status TEXT NOT NULL DEFAULT 'draft',
			unlocked BOOLEAN NOT NULL DEFAULT FALSE,
			locked BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_projects_lead_id ON projects(lead_id)`,
		`CREATE TABLE leads (
			id BIGINT PRIMARY KEY,
			user_id BIGINT,
			email TEXT NOT NULL DEFAULT '',
			topic TEXT NOT NULL DEFAULT '',
			converted BOOLEAN NOT NULL DEFAULT FALSE,
			project_id BIGINT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema exec failed: %v", err)
		}
	}
	return db
}

func newService(t *testing.T, db *gorm.DB) (domain.Service, *snowflake.Node) {
	t.Helper()

	node, err := snowflake.NewNode(20)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	svc := projectservice.New(projectservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewSystemClock(),
		Repo:  projectrepo.Provide(),
	})
	return svc, node
}

func seedProject(t *testing.T, db *gorm.DB, id snowflake.ID, owner *snowflake.ID) {
	t.Helper()
	now := time.Now().UTC()
	err := db.Exec(
		`INSERT INTO projects (id, user_id, topic, mode, status, unlocked, locked, created_at, updated_at)
		 VALUES (?, ?, 'campus delivery app', 'self_service', 'active', TRUE, FALSE, ?, ?)`,
		id, owner, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
}

func TestClaimAssignsOwnerlessProject(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc, node := newService(t, db)

	projectID := node.Generate()
	userID := node.Generate()
	seedProject(t, db, projectID, nil)

	project, err := svc.Claim(ctx, projectID, userID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if project.UserID == nil || *project.UserID != userID {
		t.Fatalf("project not assigned to claimer")
	}
}

func TestClaimIsIdempotentForOwner(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc, node := newService(t, db)

	projectID := node.Generate()
	userID := node.Generate()
	seedProject(t, db, projectID, &userID)

	project, err := svc.Claim(ctx, projectID, userID)
	if err != nil {
		t.Fatalf("re-claim by owner: %v", err)
	}
	if project.UserID == nil || *project.UserID != userID {
		t.Fatalf("owner lost the project on re-claim")
	}
}

func TestClaimRejectsSecondClaimer(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc, node := newService(t, db)

	projectID := node.Generate()
	owner := node.Generate()
	seedProject(t, db, projectID, &owner)

	if _, err := svc.Claim(ctx, projectID, node.Generate()); err != domain.ErrAlreadyClaimed {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
}

func TestClaimUnknownProject(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc, node := newService(t, db)

	if _, err := svc.Claim(ctx, node.Generate(), node.Generate()); err != domain.ErrProjectNotFound {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc, node := newService(t, db)

	projectID := node.Generate()
	seedProject(t, db, projectID, nil)

	project, err := svc.Get(ctx, projectID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if project.ID != projectID || project.Topic != "campus delivery app" {
		t.Fatalf("unexpected project: %+v", project)
	}

	if _, err := svc.Get(ctx, node.Generate()); err != domain.ErrProjectNotFound {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}
