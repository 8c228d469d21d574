package service

import (
	"context"

	"github.com/manumay1962/CHAT-APP/internal/model"
	"github.com/manumay1962/CHAT-APP/internal/repo"
)

// PeerList is the sidebar payload: every other known user plus a sparse
// map of unseen message counts keyed by sender id.
type PeerList struct {
	Users          []model.User     `json:"users"`
	UnseenMessages map[string]int64 `json:"unseenMessages"`
}

type UserService interface {
	ListPeers(ctx context.Context, userID string) (*PeerList, error)
}

type userService struct {
	users    repo.UserRepository
	messages repo.MessageRepository
}

func NewUserService(users repo.UserRepository, messages repo.MessageRepository) UserService {
	return &userService{
		users:    users,
		messages: messages,
	}
}

func (s *userService) ListPeers(ctx context.Context, userID string) (*PeerList, error) {
	users, err := s.users.ListOthers(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts, err := s.messages.CountUnseenBySender(ctx, userID)
	if err != nil {
		return nil, err
	}

	if users == nil {
		users = []model.User{}
	}
	return &PeerList{
		Users:          users,
		UnseenMessages: counts,
	}, nil
}
