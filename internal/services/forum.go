package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/vici-backend/internal/data/repos"
	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/apierr"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

const (
	maxPostRunes    = 5000
	maxCommentRunes = 1000
	postListLimit   = 100
)

// PostView is a post as the forum renders it: liker usernames inline.
type PostView struct {
	*types.Post
	Likes []string `json:"likes"`
}

func newPostView(p *types.Post) *PostView {
	if p.Comments == nil {
		p.Comments = []*types.PostComment{}
	}
	return &PostView{Post: p, Likes: p.LikedBy()}
}

type ForumService interface {
	ListPosts(ctx context.Context) ([]*PostView, error)
	CreatePost(ctx context.Context, content, category string) (*PostView, error)
	UpdatePost(ctx context.Context, id uuid.UUID, content, category *string) (*PostView, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	ToggleLike(ctx context.Context, id uuid.UUID) (liked bool, err error)
	AddComment(ctx context.Context, id uuid.UUID, content string) (*types.PostComment, error)
	FlagPost(ctx context.Context, id uuid.UUID, flagged bool) (*PostView, error)
}

type forumService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	postRepo repos.PostRepo
	activity ActivityService
}

func NewForumService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, postRepo repos.PostRepo, activity ActivityService) ForumService {
	return &forumService{
		db:       db,
		log:      log.With("service", "ForumService"),
		userRepo: userRepo,
		postRepo: postRepo,
		activity: activity,
	}
}

func cleanText(s string, max int, field string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apierr.BadRequest(field + " is required")
	}
	if utf8.RuneCountInString(s) > max {
		return "", apierr.BadRequest(field + " is too long")
	}
	return s, nil
}

func (s *forumService) ListPosts(ctx context.Context) ([]*PostView, error) {
	posts, err := s.postRepo.List(dbctx.New(ctx), postListLimit)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	out := make([]*PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, newPostView(p))
	}
	return out, nil
}

func (s *forumService) CreatePost(ctx context.Context, content, category string) (*PostView, error) {
	rd, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	content, err = cleanText(content, maxPostRunes, "Content")
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	author, err := s.userRepo.GetByID(dbc, rd.UserID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if author == nil {
		return nil, apierr.Unauthorized("Account no longer exists")
	}
	post, err := s.postRepo.Create(dbc, &types.Post{
		Username: author.Username,
		Avatar:   author.Avatar,
		Content:  content,
		Category: strings.TrimSpace(category),
	})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	s.activity.Record(ctx, author.Username, author.Avatar, "posted in the forum", post.Category)
	return newPostView(post), nil
}

// loadOwned fetches the post and checks the caller may modify it.
func (s *forumService) loadOwned(ctx context.Context, id uuid.UUID, allowAdmin bool) (*types.Post, error) {
	rd, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if post == nil {
		return nil, apierr.NotFound("Post not found")
	}
	if sameUsername(post.Username, rd.Username) || (allowAdmin && rd.IsAdmin()) {
		return post, nil
	}
	return nil, apierr.Forbidden("You can only modify your own posts")
}

func (s *forumService) UpdatePost(ctx context.Context, id uuid.UUID, content, category *string) (*PostView, error) {
	if _, err := s.loadOwned(ctx, id, false); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if content != nil {
		c, err := cleanText(*content, maxPostRunes, "Content")
		if err != nil {
			return nil, err
		}
		updates["content"] = c
	}
	if category != nil && strings.TrimSpace(*category) != "" {
		updates["category"] = strings.TrimSpace(*category)
	}
	if len(updates) == 0 {
		return nil, apierr.BadRequest("Nothing to update")
	}
	dbc := dbctx.New(ctx)
	if err := s.postRepo.UpdateFields(dbc, id, updates); err != nil {
		return nil, apierr.Internal(err)
	}
	post, err := s.postRepo.GetByID(dbc, id)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if post == nil {
		return nil, apierr.NotFound("Post not found")
	}
	return newPostView(post), nil
}

func (s *forumService) DeletePost(ctx context.Context, id uuid.UUID) error {
	if _, err := s.loadOwned(ctx, id, true); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.postRepo.Delete(dbctx.Context{Ctx: ctx, Tx: tx}, id)
	})
	if err != nil {
		return apierr.Internal(err)
	}
	return nil
}

func (s *forumService) ToggleLike(ctx context.Context, id uuid.UUID) (bool, error) {
	rd, err := requireActor(ctx)
	if err != nil {
		return false, err
	}
	var liked bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		post, err := s.postRepo.GetByID(inner, id)
		if err != nil {
			return err
		}
		if post == nil {
			return apierr.NotFound("Post not found")
		}
		has, err := s.postRepo.HasLike(inner, id, rd.Username)
		if err != nil {
			return err
		}
		if has {
			return s.postRepo.RemoveLike(inner, id, rd.Username)
		}
		liked = true
		return s.postRepo.AddLike(inner, id, rd.Username)
	})
	if err != nil {
		return false, apierr.From(err)
	}
	return liked, nil
}

func (s *forumService) AddComment(ctx context.Context, id uuid.UUID, content string) (*types.PostComment, error) {
	rd, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	content, err = cleanText(content, maxCommentRunes, "Comment")
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	post, err := s.postRepo.GetByID(dbc, id)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if post == nil {
		return nil, apierr.NotFound("Post not found")
	}
	c, err := s.postRepo.AddComment(dbc, &types.PostComment{PostID: id, Username: rd.Username, Content: content})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return c, nil
}

// FlagPost lets anyone raise a flag; only admins clear one.
func (s *forumService) FlagPost(ctx context.Context, id uuid.UUID, flagged bool) (*PostView, error) {
	rd, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if !flagged && !rd.IsAdmin() {
		return nil, apierr.Forbidden("Only admins can clear a flag")
	}
	dbc := dbctx.New(ctx)
	post, err := s.postRepo.GetByID(dbc, id)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if post == nil {
		return nil, apierr.NotFound("Post not found")
	}
	if err := s.postRepo.UpdateFields(dbc, id, map[string]interface{}{"flagged": flagged}); err != nil {
		return nil, apierr.Internal(err)
	}
	post.Flagged = flagged
	return newPostView(post), nil
}
