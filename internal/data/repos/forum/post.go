package forum

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type PostRepo interface {
	Create(dbc dbctx.Context, post *types.Post) (*types.Post, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Post, error)
	// List returns posts newest first with comments (oldest first) and likes preloaded.
	List(dbc dbctx.Context, limit int) ([]*types.Post, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error

	AddComment(dbc dbctx.Context, comment *types.PostComment) (*types.PostComment, error)

	HasLike(dbc dbctx.Context, postID uuid.UUID, username string) (bool, error)
	AddLike(dbc dbctx.Context, postID uuid.UUID, username string) error
	RemoveLike(dbc dbctx.Context, postID uuid.UUID, username string) error
}

type postRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostRepo(db *gorm.DB, baseLog *logger.Logger) PostRepo {
	return &postRepo{db: db, log: baseLog.With("repo", "PostRepo")}
}

func preloadThread(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Likes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

func (r *postRepo) Create(dbc dbctx.Context, post *types.Post) (*types.Post, error) {
	if err := dbc.DB(r.db).Omit("Comments", "Likes").Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

func (r *postRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Post, error) {
	var p types.Post
	err := preloadThread(dbc.DB(r.db)).Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepo) List(dbc dbctx.Context, limit int) ([]*types.Post, error) {
	out := []*types.Post{}
	q := preloadThread(dbc.DB(r.db)).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Post{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes the post together with its comments and likes.
func (r *postRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	txx := dbc.DB(r.db)
	if err := txx.Where("post_id = ?", id).Delete(&types.PostComment{}).Error; err != nil {
		return err
	}
	if err := txx.Where("post_id = ?", id).Delete(&types.PostLike{}).Error; err != nil {
		return err
	}
	return txx.Where("id = ?", id).Delete(&types.Post{}).Error
}

func (r *postRepo) AddComment(dbc dbctx.Context, comment *types.PostComment) (*types.PostComment, error) {
	if err := dbc.DB(r.db).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

func (r *postRepo) HasLike(dbc dbctx.Context, postID uuid.UUID, username string) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.PostLike{}).
		Where("post_id = ? AND username = ?", postID, username).
		Count(&n).Error
	return n > 0, err
}

func (r *postRepo) AddLike(dbc dbctx.Context, postID uuid.UUID, username string) error {
	return dbc.DB(r.db).Create(&types.PostLike{PostID: postID, Username: username, CreatedAt: time.Now().UTC()}).Error
}

func (r *postRepo) RemoveLike(dbc dbctx.Context, postID uuid.UUID, username string) error {
	return dbc.DB(r.db).Where("post_id = ? AND username = ?", postID, username).Delete(&types.PostLike{}).Error
}
