package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	projectdomain "github.com/projectnest/projectnest/internal/project/domain"
	"gorm.io/gorm"
)

const (
	demoLeadEmail = "demo@projectnest.local"
	demoLeadTopic = "Design and Implementation of a Campus Delivery App"
)

// EnsureDemoData seeds one lead and one unlocked project so a fresh local
// environment has something to check out against. It is a no-op when the
// tables already hold data.
func EnsureDemoData(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Raw("SELECT COUNT(1) FROM leads").Scan(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		lead := projectdomain.Lead{
			ID:        node.Generate(),
			Email:     demoLeadEmail,
			Topic:     demoLeadTopic,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Exec(
			`INSERT INTO leads (id, email, topic, converted, created_at, updated_at)
			 VALUES (?, ?, ?, FALSE, ?, ?)`,
			lead.ID, lead.Email, lead.Topic, now, now,
		).Error; err != nil {
			return err
		}

		return tx.Exec(
			`INSERT INTO projects (id, topic, mode, status, unlocked, locked, created_at, updated_at)
			 VALUES (?, ?, 'self_service', 'draft', FALSE, FALSE, ?, ?)`,
			node.Generate(), "Design and Implementation of a Student Result Portal", now, now,
		).Error
	})
}
