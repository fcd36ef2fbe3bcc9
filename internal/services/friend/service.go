package friend

import (
	"context"
	"fmt"
	"strings"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/docstore"
)

var (
	ErrCannotFriendSelf = fmt.Errorf("cannot send friend request to self: %w", concept.ErrNotAllowed)
	ErrAlreadyFriends   = fmt.Errorf("already friends: %w", concept.ErrNotAllowed)
	ErrAlreadyRequested = fmt.Errorf("friend request already exists: %w", concept.ErrNotAllowed)
	ErrRequestNotFound  = fmt.Errorf("friend request not found: %w", concept.ErrNotFound)
	ErrFriendNotFound   = fmt.Errorf("friendship not found: %w", concept.ErrNotFound)
)

// Status is the lifecycle state of a friend request. Accepted and rejected
// requests are history and never change again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Request is a directed friend request from one user to another.
type Request struct {
	docstore.Doc
	From    string `json:"from"`
	To      string `json:"to"`
	Status  Status `json:"status"`
	PairKey string `json:"-"`
}

// Friendship is an unordered pair of users.
type Friendship struct {
	docstore.Doc
	User1   string `json:"user1"`
	User2   string `json:"user2"`
	PairKey string `json:"-"`
}

// Other returns the member of f that is not user.
func (f Friendship) Other(user string) string {
	if f.User1 == user {
		return f.User2
	}
	return f.User1
}

// PairKey identifies the unordered pair {a, b}.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return strings.Join([]string{a, b}, ":")
}

type Service interface {
	SendRequest(ctx context.Context, from, to string) error
	RemoveRequest(ctx context.Context, from, to string) error
	AcceptRequest(ctx context.Context, from, to string) error
	RejectRequest(ctx context.Context, from, to string) error
	RemoveFriend(ctx context.Context, user, friend string) error
	GetRequests(ctx context.Context, user string) ([]Request, error)
	GetFriends(ctx context.Context, user string) ([]string, error)
}
