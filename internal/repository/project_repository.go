package repository

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return translate(conn(ctx, r.db).Omit("User").Create(project).Error)
}

// SetAsDefault makes projectID the only default project of the user.
func (r *ProjectRepository) SetAsDefault(ctx context.Context, userID, projectID uuid.UUID) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Project{}).
			Scopes(ForUser(userID)).
			Where("is_default = ?", true).
			Update("is_default", false).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Project{}).
			Scopes(ForUser(userID)).
			Where("id = ?", projectID).
			Update("is_default", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("project %s not found for user %s", projectID, userID)
		}
		return nil
	})
}

func (r *ProjectRepository) ListForUser(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]models.Project, error) {
	var projects []models.Project
	q := conn(ctx, r.db).Scopes(ForUser(userID))
	if !includeArchived {
		q = q.Where("is_archived = ?", false)
	}
	err := q.Order("created_at DESC").Find(&projects).Error
	return projects, err
}
