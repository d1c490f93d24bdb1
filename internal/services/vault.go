package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/vici-backend/internal/data/repos"
	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/observability"
	"github.com/yungbote/vici-backend/internal/platform/apierr"
	"github.com/yungbote/vici-backend/internal/platform/ctxutil"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/extract"
	"github.com/yungbote/vici-backend/internal/platform/gemini"
	"github.com/yungbote/vici-backend/internal/platform/logger"
	"github.com/yungbote/vici-backend/internal/platform/storage"
)

const (
	DefaultVaultFolder    = "vici_study_vault"
	DefaultMaxUploadBytes = 10 << 20
	UploadXP              = 50
	GenerationXP          = 20
	MinGenerationChars    = 10
	MaxGenerationChars    = 25000
	DefaultArtifactCount  = 10
	MaxArtifactCount      = 30

	generationSystemPrompt = "You are a study assistant for university students. Be accurate, concise and faithful to the notes you are given."
)

type VaultConfig struct {
	Folder         string
	MaxUploadBytes int64
	StorageTimeout time.Duration
	ExtractTimeout time.Duration
}

type UploadInput struct {
	OwnerID  uuid.UUID
	Title    string
	Category string
	FileName string
	MIMEType string
	Data     []byte
}

type UploadResult struct {
	Material   *types.StudyMaterial `json:"data"`
	XP         int                  `json:"xp"`
	XPCredited bool                 `json:"xpCredited"`
}

type GenerateInput struct {
	MaterialID uuid.UUID
	Type       string
	Count      int
}

type GenerateResult struct {
	Artifact   *types.StudyArtifact `json:"artifact,omitempty"`
	Content    string               `json:"data"`
	XP         int                  `json:"xp"`
	XPCredited bool                 `json:"xpCredited"`
}

type VaultService interface {
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)
	Repair(ctx context.Context, materialID uuid.UUID) (*types.StudyMaterial, error)
	GenerateArtifact(ctx context.Context, in GenerateInput) (*GenerateResult, error)
	Delete(ctx context.Context, materialID uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*types.StudyMaterial, error)
	ListArtifacts(ctx context.Context, materialID uuid.UUID) ([]*types.StudyArtifact, error)
}

type vaultService struct {
	db           *gorm.DB
	log          *logger.Logger
	materialRepo repos.MaterialRepo
	artifactRepo repos.ArtifactRepo
	store        storage.Storage
	extractor    extract.Extractor
	ai           gemini.Client
	progress     ProgressService
	metrics      *observability.Metrics
	cfg          VaultConfig
}

func NewVaultService(
	db *gorm.DB,
	log *logger.Logger,
	materialRepo repos.MaterialRepo,
	artifactRepo repos.ArtifactRepo,
	store storage.Storage,
	extractor extract.Extractor,
	ai gemini.Client,
	progress ProgressService,
	metrics *observability.Metrics,
	cfg VaultConfig,
) VaultService {
	if strings.TrimSpace(cfg.Folder) == "" {
		cfg.Folder = DefaultVaultFolder
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.StorageTimeout <= 0 {
		cfg.StorageTimeout = storage.DefaultTimeout
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = extract.DefaultTimeout
	}
	return &vaultService{
		db:           db,
		log:          log.With("service", "VaultService"),
		materialRepo: materialRepo,
		artifactRepo: artifactRepo,
		store:        store,
		extractor:    extractor,
		ai:           ai,
		progress:     progress,
		metrics:      metrics,
		cfg:          cfg,
	}
}

// extraction is the tagged outcome of one extraction attempt.
type extraction struct {
	Text   string
	Err    error
	Reason string
}

func (e extraction) ok() bool { return e.Err == nil }

func (s *vaultService) extract(ctx context.Context, name, mimeType string, data []byte) extraction {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ExtractTimeout)
	defer cancel()
	text, err := s.extractor.Extract(ctx, extract.Document{Name: name, MIMEType: mimeType, Data: data})
	if err != nil {
		return extraction{Err: err, Reason: extractionReason(err)}
	}
	return extraction{Text: text}
}

// extractionReason turns an extractor error into a message safe to store and show.
func extractionReason(err error) string {
	switch {
	case errors.Is(err, extract.ErrEmpty):
		return "The file is empty"
	case errors.Is(err, extract.ErrNoText):
		return "No readable text found in this document"
	case errors.Is(err, extract.ErrUnsupported):
		return "This file type is not supported for text extraction"
	case errors.Is(err, context.DeadlineExceeded):
		return "Text extraction timed out"
	default:
		return "Text extraction failed"
	}
}

func (s *vaultService) authorize(ctx context.Context, ownerID uuid.UUID) error {
	rd, err := requireActor(ctx)
	if err != nil {
		return err
	}
	if rd.UserID != ownerID && !rd.IsAdmin() {
		return apierr.Forbidden("You do not have access to this material")
	}
	return nil
}

func (s *vaultService) loadMaterial(ctx context.Context, id uuid.UUID) (*types.StudyMaterial, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	m, err := s.materialRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if m == nil {
		return nil, apierr.NotFound("Material not found")
	}
	if err := s.authorize(ctx, m.UserID); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *vaultService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if len(in.Data) == 0 {
		return nil, apierr.BadRequest("No file received")
	}
	if in.OwnerID == uuid.Nil {
		return nil, apierr.BadRequest("User ID required")
	}
	if int64(len(in.Data)) > s.cfg.MaxUploadBytes {
		return nil, apierr.BadRequest(fmt.Sprintf("File exceeds the %d MB limit", s.cfg.MaxUploadBytes>>20))
	}
	if err := s.authorize(ctx, in.OwnerID); err != nil {
		return nil, err
	}

	fileName := path.Base(strings.TrimSpace(in.FileName))
	if fileName == "." || fileName == "/" {
		fileName = "upload"
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = fileName
	}
	mimeType := strings.TrimSpace(in.MIMEType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	putCtx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	putCtx, span := observability.StartSpan(putCtx, "vault.store", attribute.Int("vici.size_bytes", len(in.Data)))
	obj, err := s.store.Put(putCtx, storage.ObjectKey(s.cfg.Folder, in.OwnerID.String(), fileName), mimeType, in.Data)
	observability.EndSpan(span, err)
	cancel()
	if err != nil {
		s.metrics.ObserveUpload("storage_error")
		s.log.For(ctx).Error("Upload to storage failed", "owner_id", in.OwnerID, "error", err)
		return nil, apierr.Storage("Failed to store file. Please try again.", err)
	}

	ex := s.extract(ctx, fileName, mimeType, in.Data)
	m := &types.StudyMaterial{
		UserID:     in.OwnerID,
		Title:      title,
		FileURL:    obj.URL,
		FileType:   mimeType,
		StorageKey: obj.Key,
		Category:   strings.TrimSpace(in.Category),
		SizeBytes:  int64(len(in.Data)),
	}
	if ex.ok() {
		m.Status = types.MaterialTextExtracted
		m.ExtractedText = ex.Text
		s.metrics.ObserveExtraction("upload", "ok")
	} else {
		m.Status = types.MaterialExtractionFailed
		m.ExtractionError = ex.Reason
		s.metrics.ObserveExtraction("upload", "failed")
		s.log.For(ctx).Warn("Extraction failed on upload", "owner_id", in.OwnerID, "mime", mimeType, "error", ex.Err)
	}

	if _, err := s.materialRepo.Create(dbctx.New(ctx), m); err != nil {
		s.metrics.ObserveUpload("db_error")
		s.log.For(ctx).Error("Persist material failed", "owner_id", in.OwnerID, "error", err)
		delCtx, cancel := context.WithTimeout(context.Background(), s.cfg.StorageTimeout)
		if dErr := s.store.Delete(delCtx, obj.Key); dErr != nil {
			s.log.For(ctx).Warn("Orphaned storage object", "key", obj.Key, "error", dErr)
		}
		cancel()
		return nil, apierr.Internal(err)
	}
	s.metrics.ObserveUpload("ok")

	res := &UploadResult{Material: m}
	xp, err := s.progress.ApplyXpToUser(ctx, in.OwnerID, XpEvent{
		Amount: UploadXP,
		Action: "uploaded study material",
		Detail: title,
		Source: "upload",
	})
	if err != nil {
		s.log.For(ctx).Warn("Upload XP credit failed", "owner_id", in.OwnerID, "material_id", m.ID, "error", err)
	} else {
		res.XP = xp.XP
		res.XPCredited = true
	}
	return res, nil
}

func (s *vaultService) Repair(ctx context.Context, materialID uuid.UUID) (*types.StudyMaterial, error) {
	m, err := s.loadMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if m.Status != types.MaterialExtractionFailed {
		return nil, apierr.Conflict("Text is already available for this material")
	}

	data, err := s.readObject(ctx, m.StorageKey)
	if err != nil {
		s.metrics.ObserveExtraction("repair", "failed")
		s.log.For(ctx).Warn("Repair could not read stored object", "material_id", m.ID, "error", err)
		return nil, apierr.Extraction("Could not read the stored file", err)
	}
	ex := s.extract(ctx, path.Base(m.StorageKey), m.FileType, data)
	if !ex.ok() {
		s.metrics.ObserveExtraction("repair", "failed")
		return nil, apierr.Extraction(ex.Reason, ex.Err)
	}
	if err := s.materialRepo.SetExtraction(dbctx.New(ctx), m.ID, types.MaterialTextExtracted, ex.Text, ""); err != nil {
		return nil, apierr.Internal(err)
	}
	s.metrics.ObserveExtraction("repair", "ok")
	m.Status = types.MaterialTextExtracted
	m.ExtractedText = ex.Text
	m.ExtractionError = ""
	return m, nil
}

func (s *vaultService) readObject(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	defer cancel()
	rc, err := s.store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("stored object exceeds %d bytes", s.cfg.MaxUploadBytes)
	}
	return data, nil
}

func (s *vaultService) GenerateArtifact(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	kind := strings.ToLower(strings.TrimSpace(in.Type))
	if kind != types.ArtifactSummary && kind != types.ArtifactFlashcards {
		return nil, apierr.BadRequest("type must be summary or flashcards")
	}
	m, err := s.loadMaterial(ctx, in.MaterialID)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(m.ExtractedText)
	if !m.HasText() || utf8.RuneCountInString(text) < MinGenerationChars {
		return nil, apierr.NoContent("Limited readable text extracted. Try a text-heavy PDF for best results.")
	}

	prompt := BuildArtifactPrompt(kind, ClampCount(in.Count), TruncateRunes(text, MaxGenerationChars))
	started := time.Now()
	genCtx, span := observability.StartSpan(ctx, "vault.generate",
		attribute.String("vici.artifact_type", kind),
		attribute.Int("vici.prompt_runes", utf8.RuneCountInString(prompt)),
	)
	raw, err := s.ai.GenerateText(genCtx, generationSystemPrompt, prompt)
	observability.EndSpan(span, err)
	if err != nil {
		s.log.For(ctx).Warn("Generation failed", "material_id", m.ID, "type", kind, "error", err)
		if errors.Is(err, gemini.ErrRateLimited) {
			s.metrics.ObserveGeneration(kind, "rate_limited", time.Since(started))
			return nil, apierr.RateLimited("The AI tutor is at its rate limit. Please try again in a minute.", err)
		}
		s.metrics.ObserveGeneration(kind, "failed", time.Since(started))
		return nil, apierr.Generation("Failed to generate content. The document may be too large or complex.", err)
	}
	content := StripFences(raw)
	if content == "" {
		s.metrics.ObserveGeneration(kind, "empty", time.Since(started))
		return nil, apierr.Generation("The AI returned an empty response. Please try again.", gemini.ErrEmptyOutput)
	}
	s.metrics.ObserveGeneration(kind, "ok", time.Since(started))

	res := &GenerateResult{Content: content}
	artifact, err := s.artifactRepo.Create(dbctx.New(ctx), &types.StudyArtifact{
		MaterialID: m.ID,
		UserID:     m.UserID,
		Type:       kind,
		Content:    content,
	})
	if err != nil {
		s.log.For(ctx).Warn("Persist artifact failed", "material_id", m.ID, "error", err)
	} else {
		res.Artifact = artifact
	}

	creditTo := m.UserID
	if rd := ctxutil.GetRequestData(ctx); rd != nil {
		creditTo = rd.UserID
	}
	xp, err := s.progress.ApplyXpToUser(ctx, creditTo, XpEvent{
		Amount: GenerationXP,
		Action: "generated " + kind,
		Detail: m.Title,
		Source: "generation",
	})
	if err != nil {
		s.log.For(ctx).Warn("Generation XP credit failed", "user_id", creditTo, "error", err)
	} else {
		res.XP = xp.XP
		res.XPCredited = true
	}
	return res, nil
}

func (s *vaultService) Delete(ctx context.Context, materialID uuid.UUID) error {
	m, err := s.loadMaterial(ctx, materialID)
	if err != nil {
		return err
	}
	if m.StorageKey != "" {
		delCtx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
		if err := s.store.Delete(delCtx, m.StorageKey); err != nil {
			s.log.For(ctx).Warn("Storage delete failed, removing record anyway", "material_id", m.ID, "key", m.StorageKey, "error", err)
		}
		cancel()
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.materialRepo.Delete(dbctx.Context{Ctx: ctx, Tx: tx}, m.ID)
	})
	if err != nil {
		return apierr.Internal(err)
	}
	return nil
}

func (s *vaultService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*types.StudyMaterial, error) {
	if err := s.authorize(ctx, ownerID); err != nil {
		return nil, err
	}
	out, err := s.materialRepo.ListByUser(dbctx.New(ctx), ownerID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return out, nil
}

func (s *vaultService) ListArtifacts(ctx context.Context, materialID uuid.UUID) ([]*types.StudyArtifact, error) {
	m, err := s.loadMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	out, err := s.artifactRepo.ListByMaterial(dbctx.New(ctx), m.ID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return out, nil
}

func ClampCount(n int) int {
	switch {
	case n <= 0:
		return DefaultArtifactCount
	case n > MaxArtifactCount:
		return MaxArtifactCount
	default:
		return n
	}
}

func BuildArtifactPrompt(kind string, count int, text string) string {
	if kind == types.ArtifactFlashcards {
		return fmt.Sprintf("Generate %d useful flashcards from these study notes. Respond with only a valid JSON array where each element has \"front\" and \"back\" string fields.\n\n%s", count, text)
	}
	return fmt.Sprintf("Create a clear, structured summary of these study notes as %d concise bullet points, each starting with \"- \".\n\n%s", count, text)
}

// StripFences removes markdown code fences around model output.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func TruncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
