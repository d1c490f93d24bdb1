package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error)
	GetByUsername(dbc dbctx.Context, username string) (*types.User, error)
	GetByUsernames(dbc dbctx.Context, usernames []string) ([]*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	GetByIdentifier(dbc dbctx.Context, identifier string) (*types.User, error)
	GetByResetTokenHash(dbc dbctx.Context, hash string) (*types.User, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	Taken(dbc dbctx.Context, username, email string) (usernameTaken bool, emailTaken bool, err error)
	TopByXP(dbc dbctx.Context, limit int) ([]*types.User, error)
	ListByIDsByXP(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SetResetChallenge(dbc dbctx.Context, id uuid.UUID, hash *string, expiresAt *time.Time) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

// NormalizeEmail is the stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername is the comparison key for usernames.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (r *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	for _, u := range users {
		u.Username = strings.TrimSpace(u.Username)
		u.UsernameLower = NormalizeUsername(u.Username)
		u.Email = NormalizeEmail(u.Email)
	}
	if err := dbc.DB(r.db).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) first(q *gorm.DB) (*types.User, error) {
	var u types.User
	err := q.Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("id = ?", id))
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	var out []*types.User
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) GetByUsername(dbc dbctx.Context, username string) (*types.User, error) {
	key := NormalizeUsername(username)
	if key == "" {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("username_lower = ?", key))
}

func (r *userRepo) GetByUsernames(dbc dbctx.Context, usernames []string) ([]*types.User, error) {
	var out []*types.User
	keys := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if k := NormalizeUsername(u); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("username_lower IN ?", keys).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	key := NormalizeEmail(email)
	if key == "" {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("email = ?", key))
}

// GetByIdentifier matches either the username or the email, ignoring case.
func (r *userRepo) GetByIdentifier(dbc dbctx.Context, identifier string) (*types.User, error) {
	key := strings.ToLower(strings.TrimSpace(identifier))
	if key == "" {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("username_lower = ? OR email = ?", key, key))
}

func (r *userRepo) GetByResetTokenHash(dbc dbctx.Context, hash string) (*types.User, error) {
	if hash == "" {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("reset_token_hash = ?", hash))
}

// LockByID reads the row with SELECT ... FOR UPDATE. Call inside a transaction.
func (r *userRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *userRepo) Taken(dbc dbctx.Context, username, email string) (bool, bool, error) {
	var rows []types.User
	if err := dbc.DB(r.db).
		Select("username_lower", "email").
		Where("username_lower = ? OR email = ?", NormalizeUsername(username), NormalizeEmail(email)).
		Find(&rows).Error; err != nil {
		return false, false, err
	}
	var usernameTaken, emailTaken bool
	for _, u := range rows {
		if u.UsernameLower == NormalizeUsername(username) {
			usernameTaken = true
		}
		if u.Email == NormalizeEmail(email) {
			emailTaken = true
		}
	}
	return usernameTaken, emailTaken, nil
}

func (r *userRepo) TopByXP(dbc dbctx.Context, limit int) ([]*types.User, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []*types.User
	if err := dbc.DB(r.db).
		Where("banned = ?", false).
		Order("xp DESC").Order("username_lower ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) ListByIDsByXP(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	var out []*types.User
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", ids).
		Order("xp DESC").Order("username_lower ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.User{}).Where("id = ?", id).Updates(updates).Error
}

func (r *userRepo) SetResetChallenge(dbc dbctx.Context, id uuid.UUID, hash *string, expiresAt *time.Time) error {
	return dbc.DB(r.db).Model(&types.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"reset_token_hash": hash,
		"reset_expires_at": expiresAt,
	}).Error
}
