package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/vici-backend/internal/http/response"
	"github.com/yungbote/vici-backend/internal/platform/apierr"
	"github.com/yungbote/vici-backend/internal/platform/logger"
	"github.com/yungbote/vici-backend/internal/services"
)

// multipartOverhead covers form fields and boundaries around the file part.
const multipartOverhead = 1 << 20

type VaultHandler struct {
	log            *logger.Logger
	vaultService   services.VaultService
	maxUploadBytes int64
}

func NewVaultHandler(log *logger.Logger, vaultService services.VaultService, maxUploadBytes int64) *VaultHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = services.DefaultMaxUploadBytes
	}
	return &VaultHandler{
		log:            log.With("handler", "VaultHandler"),
		vaultService:   vaultService,
		maxUploadBytes: maxUploadBytes,
	}
}

// POST /api/study-vault/upload (multipart: file, userId, title, category)
func (h *VaultHandler) Upload(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.RespondErr(c, apierr.BadRequest("File exceeds the upload limit"))
			return
		}
		response.RespondErr(c, apierr.BadRequest("No file received"))
		return
	}
	if fh.Size > h.maxUploadBytes {
		response.RespondErr(c, apierr.BadRequest("File exceeds the upload limit"))
		return
	}

	ownerID := rd.UserID
	if raw := strings.TrimSpace(c.PostForm("userId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondErr(c, apierr.BadRequest("Invalid userId"))
			return
		}
		ownerID = id
	}

	f, err := fh.Open()
	if err != nil {
		response.RespondErr(c, apierr.BadRequest("Could not read uploaded file"))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		response.RespondErr(c, apierr.BadRequest("Could not read uploaded file"))
		return
	}

	res, err := h.vaultService.Upload(c.Request.Context(), services.UploadInput{
		OwnerID:  ownerID,
		Title:    c.PostForm("title"),
		Category: c.PostForm("category"),
		FileName: fh.Filename,
		MIMEType: detectMIME(fh.Header.Get("Content-Type"), fh.Filename, data),
		Data:     data,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	msg := "Material indexed! +50 XP"
	if !res.XPCredited {
		msg = "Material indexed!"
	}
	response.RespondCreated(c, gin.H{
		"message":    msg,
		"data":       res.Material,
		"xp":         res.XP,
		"xpCredited": res.XPCredited,
	})
}

// detectMIME trusts the part header unless it is missing or generic.
func detectMIME(declared, filename string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

// POST /api/study-vault/generate-study-material
func (h *VaultHandler) Generate(c *gin.Context) {
	var req struct {
		MaterialID string `json:"materialId" binding:"required,uuid"`
		Type       string `json:"type" binding:"required"`
		Count      int    `json:"count" binding:"min=0,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	materialID, _ := uuid.Parse(req.MaterialID)
	res, err := h.vaultService.GenerateArtifact(c.Request.Context(), services.GenerateInput{
		MaterialID: materialID,
		Type:       req.Type,
		Count:      req.Count,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/study-vault/repair-extraction/:id
func (h *VaultHandler) Repair(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	m, err := h.vaultService.Repair(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Text extracted", "data": m})
}

// GET /api/study-vault/user/:userId
func (h *VaultHandler) ListByUser(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	items, err := h.vaultService.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, items)
}

// GET /api/study-vault/:id/artifacts
func (h *VaultHandler) ListArtifacts(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	items, err := h.vaultService.ListArtifacts(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, items)
}

// DELETE /api/study-vault/:id
func (h *VaultHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.vaultService.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Material deleted"})
}
