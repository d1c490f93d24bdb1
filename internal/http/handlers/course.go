package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/vici-backend/internal/http/response"
	"github.com/yungbote/vici-backend/internal/services"
)

type CourseHandler struct {
	catalogService services.CatalogService
}

func NewCourseHandler(catalogService services.CatalogService) *CourseHandler {
	return &CourseHandler{catalogService: catalogService}
}

// GET /api/courses
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.catalogService.ListCourses(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, courses)
}

// POST /api/courses
func (h *CourseHandler) Create(c *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required,max=200"`
		Module  string `json:"module" binding:"max=200"`
		XP      int    `json:"xp" binding:"min=0,max=10000"`
		VideoID string `json:"videoId" binding:"max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	course, err := h.catalogService.CreateCourse(c.Request.Context(), services.CourseInput{
		Title:   req.Title,
		Module:  req.Module,
		XP:      req.XP,
		VideoID: req.VideoID,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, course)
}

// DELETE /api/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCourse(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Course deleted"})
}
