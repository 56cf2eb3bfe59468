package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound = errors.New("project_not_found")
	ErrLeadNotFound    = errors.New("lead_not_found")
	ErrAlreadyClaimed  = errors.New("project_already_claimed")
)

// Patch is the entitlement change a settled payment applies to a project.
// Applying the same patch twice leaves the row unchanged.
type Patch struct {
	Unlock bool
	Mode   Mode
	Status ProjectStatus
	// Lock, when set, overrides the topic lock flag.
	Lock *bool
}

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*Project, error)
	// Claim assigns an ownerless project to userID.
	Claim(ctx context.Context, id, userID snowflake.ID) (*Project, error)
}

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Project, error)
	FindByLeadID(ctx context.Context, db *gorm.DB, leadID snowflake.ID) (*Project, error)
	Insert(ctx context.Context, db *gorm.DB, project *Project) error
	ApplyPatch(ctx context.Context, db *gorm.DB, id snowflake.ID, patch Patch, now time.Time) error
	Claim(ctx context.Context, db *gorm.DB, id, userID snowflake.ID, now time.Time) (bool, error)

	FindLeadByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Lead, error)
	MarkLeadConverted(ctx context.Context, db *gorm.DB, leadID, projectID snowflake.ID, now time.Time) error
}
