package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Mode string

const (
	ModeSelfService Mode = "self_service"
	ModeFullService Mode = "full_service"
)

type ProjectStatus string

const (
	StatusDraft      ProjectStatus = "draft"
	StatusActive     ProjectStatus = "active"
	StatusInProgress ProjectStatus = "in_progress"
)

// Project is purchased access to one piece of project material. UserID is
// nil until someone claims it; LeadID links back to the lead it was
// synthesized from and is unique so a lead converts at most once.
type Project struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	LeadID    *snowflake.ID `json:"lead_id" gorm:"uniqueIndex"`
	UserID    *snowflake.ID `json:"user_id"`
	Topic     string        `json:"topic" gorm:"type:text"`
	Mode      Mode          `json:"mode" gorm:"type:text;not null"`
	Status    ProjectStatus `json:"status" gorm:"type:text;not null"`
	Unlocked  bool          `json:"unlocked" gorm:"not null"`
	Locked    bool          `json:"locked" gorm:"not null"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

// Lead is a topic request that has not been paid for yet.
type Lead struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	UserID    *snowflake.ID `json:"user_id"`
	Email     string        `json:"email" gorm:"type:text"`
	Topic     string        `json:"topic" gorm:"type:text"`
	Converted bool          `json:"converted" gorm:"not null"`
	ProjectID *snowflake.ID `json:"project_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (Lead) TableName() string { return "leads" }
