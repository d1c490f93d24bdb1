package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/vici-backend/internal/http/response"
	"github.com/yungbote/vici-backend/internal/services"
)

type PostHandler struct {
	forumService services.ForumService
}

func NewPostHandler(forumService services.ForumService) *PostHandler {
	return &PostHandler{forumService: forumService}
}

// GET /api/posts
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.forumService.ListPosts(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, posts)
}

// POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	var req struct {
		Content  string `json:"content" binding:"required"`
		Category string `json:"category" binding:"max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	post, err := h.forumService.CreatePost(c.Request.Context(), req.Content, req.Category)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, post)
}

// PUT /api/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content  *string `json:"content"`
		Category *string `json:"category" binding:"omitempty,max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	post, err := h.forumService.UpdatePost(c.Request.Context(), id, req.Content, req.Category)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, post)
}

// DELETE /api/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.forumService.DeletePost(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Post deleted"})
}

// PUT /api/posts/:id/like
func (h *PostHandler) ToggleLike(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	liked, err := h.forumService.ToggleLike(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"liked": liked})
}

// POST /api/posts/:id/comments
func (h *PostHandler) Comment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	comment, err := h.forumService.AddComment(c.Request.Context(), id, req.Content)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, comment)
}

// PUT /api/posts/:id/flag
func (h *PostHandler) Flag(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Flagged *bool `json:"flagged"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondInvalid(c, err)
			return
		}
	}
	flagged := true
	if req.Flagged != nil {
		flagged = *req.Flagged
	}
	post, err := h.forumService.FlagPost(c.Request.Context(), id, flagged)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, post)
}
