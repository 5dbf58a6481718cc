package services

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProjectService provisions default projects on sign-up and lists a user's
// projects.
type ProjectService struct {
	projects ProjectStore
}

func NewProjectService(projects ProjectStore) *ProjectService {
	return &ProjectService{projects: projects}
}

func (s *ProjectService) CreateDefaultProject(ctx context.Context, userID uuid.UUID) (*models.Project, error) {
	description := models.DefaultProjectDescription
	project := &models.Project{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        models.DefaultProjectName,
		Description: &description,
		Tags:        datatypes.JSONSlice[string]{},
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) SetAsDefault(ctx context.Context, userID, projectID uuid.UUID) error {
	return s.projects.SetAsDefault(ctx, userID, projectID)
}

func (s *ProjectService) ListProjects(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]models.Project, error) {
	projects, err := s.projects.ListForUser(ctx, userID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}
