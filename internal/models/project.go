package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DefaultProjectName        = "My Documents"
	DefaultProjectDescription = "Your personal document collection"
)

type Project struct {
	ID          uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID                   `gorm:"type:uuid;not null;index;uniqueIndex:uq_projects_user_name" json:"user_id"`
	Name        string                      `gorm:"size:255;not null;uniqueIndex:uq_projects_user_name" json:"name"`
	Description *string                     `gorm:"size:500" json:"description"`
	Tags        datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	IsDefault   bool                        `gorm:"not null;default:false" json:"is_default"`
	IsArchived  bool                        `gorm:"not null;default:false;index" json:"is_archived"`
	CreatedAt   time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
	User        User                        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
