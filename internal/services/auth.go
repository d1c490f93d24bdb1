package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/vici-backend/internal/data/repos"
	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/apierr"
	"github.com/yungbote/vici-backend/internal/platform/ctxutil"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

const (
	DefaultBcryptCost = 10
	DefaultAccessTTL  = time.Hour
	DefaultResetTTL   = time.Hour
	resetTokenBytes   = 32
	minPasswordLen    = 6
)

type JWTClaims struct {
	Role     string `json:"role"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Session is what Register and Login hand back to clients.
type Session struct {
	Token string      `json:"token"`
	User  *types.User `json:"user"`
}

type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	ResetTTL   time.Duration
	ClientURL  string
	BcryptCost int
}

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*Session, error)
	Login(ctx context.Context, identifier, password string) (*Session, error)
	RequestPasswordReset(ctx context.Context, email string) error
	CompleteReset(ctx context.Context, token, newPassword string) error
	ParseToken(tokenString string) (*ctxutil.RequestData, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	mailer   Mailer
	cfg      AuthConfig
	now      Clock
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, mailer Mailer, cfg AuthConfig) AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = DefaultResetTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultBcryptCost
	}
	cfg.ClientURL = strings.TrimRight(strings.TrimSpace(cfg.ClientURL), "/")
	return &authService{
		db:       db,
		log:      log.With("service", "AuthService"),
		userRepo: userRepo,
		mailer:   mailer,
		cfg:      cfg,
		now:      systemClock,
	}
}

func (as *authService) Register(ctx context.Context, username, email, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, apierr.BadRequest("Username, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, apierr.BadRequest("Invalid email address")
	}
	if len(password) < minPasswordLen {
		return nil, apierr.BadRequest(fmt.Sprintf("Password must be at least %d characters", minPasswordLen))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), as.cfg.BcryptCost)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("hash password: %w", err))
	}

	var created *types.User
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		usernameTaken, emailTaken, err := as.userRepo.Taken(inner, username, email)
		if err != nil {
			return fmt.Errorf("check uniqueness: %w", err)
		}
		if emailTaken {
			return apierr.Conflict("Email is already registered")
		}
		if usernameTaken {
			return apierr.Conflict("Username is already taken")
		}
		users, err := as.userRepo.Create(inner, []*types.User{{
			Username: username,
			Email:    email,
			Password: string(hash),
			Role:     types.RoleScholar,
		}})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		created = users[0]
		return nil
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		// A concurrent registration can win between Taken and Create.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierr.Conflict("Username or email is already registered")
		}
		as.log.Error("Register failed", "error", err)
		return nil, apierr.Internal(err)
	}

	if mErr := as.mailer.SendWelcome(ctx, created.Email, created.Username); mErr != nil {
		as.log.Warn("Welcome email failed", "user_id", created.ID, "error", mErr)
	}

	return as.session(created)
}

func (as *authService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apierr.InvalidCredentials()
	}
	u, err := as.userRepo.GetByIdentifier(dbctx.New(ctx), identifier)
	if err != nil {
		as.log.Error("Login lookup failed", "error", err)
		return nil, apierr.Internal(err)
	}
	if u == nil {
		return nil, apierr.InvalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, apierr.InvalidCredentials()
	}
	if u.Banned {
		return nil, apierr.Forbidden("This account has been suspended")
	}
	return as.session(u)
}

func (as *authService) RequestPasswordReset(ctx context.Context, email string) error {
	dbc := dbctx.New(ctx)
	u, err := as.userRepo.GetByEmail(dbc, email)
	if err != nil {
		return apierr.Internal(err)
	}
	if u == nil {
		return apierr.NotFound("User not found")
	}

	token, hash, err := newResetToken()
	if err != nil {
		return apierr.Internal(err)
	}
	expires := as.now().Add(as.cfg.ResetTTL)
	if err := as.userRepo.SetResetChallenge(dbc, u.ID, &hash, &expires); err != nil {
		return apierr.Internal(fmt.Errorf("store reset challenge: %w", err))
	}

	resetURL := as.cfg.ClientURL + "/reset-password/" + token
	if err := as.mailer.SendPasswordReset(ctx, u.Email, u.Username, resetURL); err != nil {
		as.log.Error("Reset email dispatch failed, clearing challenge", "user_id", u.ID, "error", err)
		if cErr := as.userRepo.SetResetChallenge(dbc, u.ID, nil, nil); cErr != nil {
			as.log.Error("Failed to clear reset challenge", "user_id", u.ID, "error", cErr)
		}
		return apierr.Upstream("Email delivery system failed to connect.", err)
	}
	return nil
}

func (as *authService) CompleteReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apierr.InvalidOrExpired("Invalid or expired token")
	}
	if len(newPassword) < minPasswordLen {
		return apierr.BadRequest(fmt.Sprintf("Password must be at least %d characters", minPasswordLen))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), as.cfg.BcryptCost)
	if err != nil {
		return apierr.Internal(err)
	}

	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		u, err := as.userRepo.GetByResetTokenHash(inner, hashToken(token))
		if err != nil {
			return err
		}
		if u == nil || u.ResetExpiresAt == nil || !u.ResetExpiresAt.After(as.now()) {
			return apierr.InvalidOrExpired("Invalid or expired token")
		}
		return as.userRepo.UpdateFields(inner, u.ID, map[string]interface{}{
			"password":         string(hash),
			"reset_token_hash": nil,
			"reset_expires_at": nil,
		})
	})
	if err != nil {
		return apierr.From(err)
	}
	return nil
}

func (as *authService) ParseToken(tokenString string) (*ctxutil.RequestData, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, apierr.Unauthorized("No token, authorization denied")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, apierr.Unauthorized("Token is not valid")
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return nil, apierr.Unauthorized("Token is not valid")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apierr.Unauthorized("Token is not valid")
	}
	return &ctxutil.RequestData{UserID: userID, Username: claims.Username, Role: claims.Role}, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	rd, err := as.ParseToken(tokenString)
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) session(u *types.User) (*Session, error) {
	token, err := as.generateAccessToken(u)
	if err != nil {
		as.log.Error("Sign token failed", "error", err)
		return nil, apierr.Internal(err)
	}
	return &Session{Token: token, User: u}, nil
}

func (as *authService) generateAccessToken(u *types.User) (string, error) {
	now := as.now()
	claims := JWTClaims{
		Role:     u.Role,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.cfg.AccessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.cfg.JWTSecret))
}

func newResetToken() (token string, hash string, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("read random: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
