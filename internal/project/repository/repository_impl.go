package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/projectnest/projectnest/internal/project/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Project, error) {
	var item domain.Project
	err := db.WithContext(ctx).Raw(
		`SELECT id, lead_id, user_id, topic, mode, status, unlocked, locked,
			created_at, updated_at
		 FROM projects
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByLeadID(ctx context.Context, db *gorm.DB, leadID snowflake.ID) (*domain.Project, error) {
	var item domain.Project
	err := db.WithContext(ctx).Raw(
		`SELECT id, lead_id, user_id, topic, mode, status, unlocked, locked,
			created_at, updated_at
		 FROM projects
		 WHERE lead_id = ?
		 LIMIT 1`,
		leadID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO projects (
			id, lead_id, user_id, topic, mode, status, unlocked, locked,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.LeadID,
		project.UserID,
		project.Topic,
		project.Mode,
		project.Status,
		project.Unlocked,
		project.Locked,
		project.CreatedAt,
		project.UpdatedAt,
	).Error
}

func (r *repo) ApplyPatch(ctx context.Context, db *gorm.DB, id snowflake.ID, patch domain.Patch, now time.Time) error {
	if patch.Lock != nil {
		return db.WithContext(ctx).Exec(
			`UPDATE projects
			 SET unlocked = ?, mode = ?, status = ?, locked = ?, updated_at = ?
			 WHERE id = ?`,
			patch.Unlock,
			patch.Mode,
			patch.Status,
			*patch.Lock,
			now,
			id,
		).Error
	}
	return db.WithContext(ctx).Exec(
		`UPDATE projects
		 SET unlocked = ?, mode = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		patch.Unlock,
		patch.Mode,
		patch.Status,
		now,
		id,
	).Error
}

// Claim assigns ownership only while user_id is still null.
func (r *repo) Claim(ctx context.Context, db *gorm.DB, id, userID snowflake.ID, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE projects
		 SET user_id = ?, updated_at = ?
		 WHERE id = ? AND user_id IS NULL`,
		userID,
		now,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindLeadByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Lead, error) {
	var item domain.Lead
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, email, topic, converted, project_id, created_at, updated_at
		 FROM leads
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) MarkLeadConverted(ctx context.Context, db *gorm.DB, leadID, projectID snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE leads
		 SET converted = TRUE, project_id = ?, updated_at = ?
		 WHERE id = ?`,
		projectID,
		now,
		leadID,
	).Error
}
