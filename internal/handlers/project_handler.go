package handlers

import (
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	projects, err := h.projectService.ListProjects(c.UserContext(), userID, c.QueryBool("include_archived", false))
	if err != nil {
		return err
	}

	resp := make([]dto.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		tags := []string(p.Tags)
		if tags == nil {
			tags = []string{}
		}
		resp = append(resp, dto.ProjectResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Tags:        tags,
			IsDefault:   p.IsDefault,
			IsArchived:  p.IsArchived,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return c.JSON(resp)
}
