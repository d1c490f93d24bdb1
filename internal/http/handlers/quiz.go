package handlers

import (
	"github.com/gin-gonic/gin"

	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/http/response"
	"github.com/yungbote/vici-backend/internal/services"
)

type QuizHandler struct {
	catalogService services.CatalogService
}

func NewQuizHandler(catalogService services.CatalogService) *QuizHandler {
	return &QuizHandler{catalogService: catalogService}
}

// GET /api/quizzes/:lessonId
func (h *QuizHandler) GetByLesson(c *gin.Context) {
	quiz, err := h.catalogService.GetQuizByLesson(c.Request.Context(), c.Param("lessonId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, quiz)
}

// POST /api/quizzes
func (h *QuizHandler) Create(c *gin.Context) {
	var req struct {
		LessonID  string               `json:"lessonId" binding:"required"`
		Questions []types.QuizQuestion `json:"questions" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	quiz, err := h.catalogService.CreateQuiz(c.Request.Context(), req.LessonID, req.Questions)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, quiz)
}

// DELETE /api/quizzes/:id
func (h *QuizHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteQuiz(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Quiz deleted"})
}
