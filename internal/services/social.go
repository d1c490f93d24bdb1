package services

import (
	"context"
	"errors"
	"fmt"
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
	FriendActionAccept = "accept"
	FriendActionReject = "reject"

	maxMessageRunes = 2000
)

type SocialService interface {
	SendFriendRequest(ctx context.Context, fromID, toID uuid.UUID) (*types.FriendRequest, error)
	SendFriendRequestTo(ctx context.Context, fromID uuid.UUID, toUsername string) (*types.FriendRequest, error)
	RespondToFriendRequest(ctx context.Context, userID, requesterID uuid.UUID, action string) error
	RespondToFriendRequestFrom(ctx context.Context, userID uuid.UUID, requesterUsername, action string) error
	ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]*types.FriendRequest, error)

	SendMessage(ctx context.Context, from, to, text string) (*types.Message, error)
	GetConversation(ctx context.Context, a, b string) ([]*types.Message, error)
}

type socialService struct {
	db          *gorm.DB
	log         *logger.Logger
	userRepo    repos.UserRepo
	friendRepo  repos.FriendRepo
	messageRepo repos.MessageRepo
	activity    ActivityService
}

func NewSocialService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	friendRepo repos.FriendRepo,
	messageRepo repos.MessageRepo,
	activity ActivityService,
) SocialService {
	return &socialService{
		db:          db,
		log:         log.With("service", "SocialService"),
		userRepo:    userRepo,
		friendRepo:  friendRepo,
		messageRepo: messageRepo,
		activity:    activity,
	}
}

func (s *socialService) SendFriendRequest(ctx context.Context, fromID, toID uuid.UUID) (*types.FriendRequest, error) {
	if fromID == uuid.Nil || toID == uuid.Nil {
		return nil, apierr.BadRequest("fromId and toId are required")
	}
	if fromID == toID {
		return nil, apierr.BadRequest("You cannot send a request to yourself")
	}
	dbc := dbctx.New(ctx)
	from, err := s.userRepo.GetByID(dbc, fromID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if from == nil {
		return nil, apierr.NotFound("Scholar not found")
	}
	target, err := s.userRepo.GetByID(dbc, toID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if target == nil {
		return nil, apierr.NotFound("Scholar not found")
	}

	friends, err := s.friendRepo.AreFriends(dbc, fromID, toID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if friends {
		return nil, apierr.Conflict("Scholar connection already exists!")
	}
	pending, err := s.friendRepo.GetPendingBetween(dbc, fromID, toID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if pending != nil {
		return nil, apierr.Conflict("Request already pending.")
	}

	req, err := s.friendRepo.CreateRequest(dbc, &types.FriendRequest{FromUserID: fromID, ToUserID: toID})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	req.FromUsername = from.Username
	return req, nil
}

func (s *socialService) SendFriendRequestTo(ctx context.Context, fromID uuid.UUID, toUsername string) (*types.FriendRequest, error) {
	target, err := s.userRepo.GetByUsername(dbctx.New(ctx), toUsername)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if target == nil {
		return nil, apierr.NotFound("Scholar not found")
	}
	return s.SendFriendRequest(ctx, fromID, target.ID)
}

func (s *socialService) RespondToFriendRequest(ctx context.Context, userID, requesterID uuid.UUID, action string) error {
	action = strings.ToLower(strings.TrimSpace(action))
	if action != FriendActionAccept && action != FriendActionReject {
		return apierr.BadRequest("action must be accept or reject")
	}

	var user, requester *types.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		var err error
		if user, err = s.userRepo.GetByID(inner, userID); err != nil {
			return err
		}
		if requester, err = s.userRepo.GetByID(inner, requesterID); err != nil {
			return err
		}
		if user == nil || requester == nil {
			return apierr.NotFound("Scholar record not found")
		}
		req, err := s.friendRepo.GetPendingBetween(inner, requesterID, userID)
		if err != nil {
			return err
		}
		if req == nil {
			return apierr.NotFound("No active request found.")
		}

		now := systemClock()
		if action == FriendActionReject {
			return s.friendRepo.SetRequestStatus(inner, req.ID, types.FriendRequestRejected, now)
		}
		if err := s.friendRepo.SetRequestStatus(inner, req.ID, types.FriendRequestAccepted, now); err != nil {
			return fmt.Errorf("mark accepted: %w", err)
		}
		if err := s.friendRepo.AddPair(inner, userID, requesterID); err != nil {
			return fmt.Errorf("add friendship: %w", err)
		}
		return nil
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return ae
		}
		s.log.Error("Friend request response failed", "user_id", userID, "requester_id", requesterID, "action", action, "error", err)
		return apierr.Internal(err)
	}

	if action == FriendActionAccept && s.activity != nil {
		s.activity.Record(ctx, user.Username, user.Avatar, "made a new connection", "Connected with "+requester.Username)
	}
	return nil
}

func (s *socialService) RespondToFriendRequestFrom(ctx context.Context, userID uuid.UUID, requesterUsername, action string) error {
	requester, err := s.userRepo.GetByUsername(dbctx.New(ctx), requesterUsername)
	if err != nil {
		return apierr.Internal(err)
	}
	if requester == nil {
		return apierr.NotFound("Scholar record not found")
	}
	return s.RespondToFriendRequest(ctx, userID, requester.ID, action)
}

func (s *socialService) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]*types.FriendRequest, error) {
	dbc := dbctx.New(ctx)
	reqs, err := s.friendRepo.ListPendingFor(dbc, userID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.FromUserID)
	}
	senders, err := s.userRepo.GetByIDs(dbc, ids)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	names := make(map[uuid.UUID]string, len(senders))
	for _, u := range senders {
		names[u.ID] = u.Username
	}
	out := make([]*types.FriendRequest, 0, len(reqs))
	for _, r := range reqs {
		r.FromUsername = names[r.FromUserID]
		out = append(out, r)
	}
	return out, nil
}

func (s *socialService) SendMessage(ctx context.Context, from, to, text string) (*types.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierr.BadRequest("Message text is required")
	}
	if utf8.RuneCountInString(text) > maxMessageRunes {
		return nil, apierr.BadRequest(fmt.Sprintf("Message exceeds %d characters", maxMessageRunes))
	}
	dbc := dbctx.New(ctx)
	sender, err := s.userRepo.GetByUsername(dbc, from)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if sender == nil {
		return nil, apierr.NotFound("Sender not found")
	}
	recipient, err := s.userRepo.GetByUsername(dbc, to)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if recipient == nil {
		return nil, apierr.NotFound("Recipient not found")
	}
	msg, err := s.messageRepo.Create(dbc, &types.Message{
		Sender:    sender.Username,
		Recipient: recipient.Username,
		Text:      text,
	})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return msg, nil
}

func (s *socialService) GetConversation(ctx context.Context, a, b string) ([]*types.Message, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return nil, apierr.BadRequest("Both usernames are required")
	}
	dbc := dbctx.New(ctx)
	// Messages store canonical usernames; resolve so lookups ignore case.
	users, err := s.userRepo.GetByUsernames(dbc, []string{a, b})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	for _, u := range users {
		if sameUsername(u.Username, a) {
			a = u.Username
		}
		if sameUsername(u.Username, b) {
			b = u.Username
		}
	}
	msgs, err := s.messageRepo.ListConversation(dbc, a, b)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return msgs, nil
}
