package friend

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/db"
	"github.com/matt-cal/main-st/internal/docstore"
	"go.uber.org/zap"
)

var requestSchema = docstore.Schema[Request]{
	Table:  "friend_requests",
	Fields: []string{"from_id", "to_id", "status", "pair_key"},
	Base:   func(r *Request) *docstore.Doc { return &r.Doc },
	Values: func(r *Request) []any {
		return []any{r.From, r.To, string(r.Status), r.PairKey}
	},
	Targets: func(r *Request) []any {
		return []any{&r.From, &r.To, (*string)(&r.Status), &r.PairKey}
	},
}

var friendshipSchema = docstore.Schema[Friendship]{
	Table:   "friendships",
	Fields:  []string{"user1_id", "user2_id", "pair_key"},
	Base:    func(f *Friendship) *docstore.Doc { return &f.Doc },
	Values:  func(f *Friendship) []any { return []any{f.User1, f.User2, f.PairKey} },
	Targets: func(f *Friendship) []any { return []any{&f.User1, &f.User2, &f.PairKey} },
}

type friendService struct {
	logger      *zap.Logger
	store       *docstore.Store
	requests    *docstore.Collection[Request]
	friendships *docstore.Collection[Friendship]
}

func NewFriendService(logger *zap.Logger, store *docstore.Store) Service {
	return &friendService{
		logger:      logger,
		store:       store,
		requests:    docstore.NewCollection(store, requestSchema),
		friendships: docstore.NewCollection(store, friendshipSchema),
	}
}

// SendRequest creates a pending request from -> to. The pair must not be
// friends already and must not have a pending request in either direction.
func (s *friendService) SendRequest(ctx context.Context, from, to string) error {
	if from == to {
		return concept.Errorf(ErrCannotFriendSelf, "Cannot send a friend request to yourself!")
	}
	key := PairKey(from, to)

	err := s.store.InTx(ctx, func(tx docstore.DBTX) error {
		if err := s.isNotFriends(ctx, tx, from, to); err != nil {
			return err
		}
		conflict := concept.Errorf(ErrAlreadyRequested, "Friend request between %s and %s already exists!", concept.UserRef(from), concept.UserRef(to))
		pending := docstore.Eq{"pair_key": key, "status": string(StatusPending)}
		if err := concept.EnforceUnique(ctx, s.requests.On(tx), pending, conflict); err != nil {
			return err
		}

		req := &Request{From: from, To: to, Status: StatusPending, PairKey: key}
		if err := s.requests.On(tx).CreateOne(ctx, req); err != nil {
			if db.IsUniqueViolation(err) {
				return conflict
			}
			return fmt.Errorf("failed to create friend request: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Friend request sent", zap.String("from", from), zap.String("to", to))
	return nil
}

func (s *friendService) RemoveRequest(ctx context.Context, from, to string) error {
	if _, err := s.popPending(ctx, s.requests, from, to); err != nil {
		return err
	}
	s.logger.Debug("Friend request removed", zap.String("from", from), zap.String("to", to))
	return nil
}

// AcceptRequest turns the pending request from -> to into a friendship. The
// pending record is removed, an accepted history record and the friendship
// are written, all in one transaction.
func (s *friendService) AcceptRequest(ctx context.Context, from, to string) error {
	err := s.store.InTx(ctx, func(tx docstore.DBTX) error {
		req, err := s.popPending(ctx, s.requests.On(tx), from, to)
		if err != nil {
			return err
		}
		if err := s.recordHistory(ctx, tx, req, StatusAccepted); err != nil {
			return err
		}

		friendship := &Friendship{User1: from, User2: to, PairKey: req.PairKey}
		if err := s.friendships.On(tx).CreateOne(ctx, friendship); err != nil {
			if db.IsUniqueViolation(err) {
				return alreadyFriends(from, to)
			}
			return fmt.Errorf("failed to create friendship: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Friend request accepted", zap.String("from", from), zap.String("to", to))
	return nil
}

// RejectRequest removes the pending request from -> to and keeps a rejected
// history record. No friendship is created.
func (s *friendService) RejectRequest(ctx context.Context, from, to string) error {
	err := s.store.InTx(ctx, func(tx docstore.DBTX) error {
		req, err := s.popPending(ctx, s.requests.On(tx), from, to)
		if err != nil {
			return err
		}
		return s.recordHistory(ctx, tx, req, StatusRejected)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Friend request rejected", zap.String("from", from), zap.String("to", to))
	return nil
}

func (s *friendService) RemoveFriend(ctx context.Context, user, friend string) error {
	_, err := s.friendships.PopOne(ctx, docstore.Eq{"pair_key": PairKey(user, friend)})
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return concept.Errorf(ErrFriendNotFound, "Friendship between %s and %s does not exist!", concept.UserRef(user), concept.UserRef(friend))
		}
		return fmt.Errorf("failed to remove friendship: %w", err)
	}
	s.logger.Debug("Friendship removed", zap.String("user", user), zap.String("friend", friend))
	return nil
}

// GetRequests returns every request, in any status, that user sent or
// received.
func (s *friendService) GetRequests(ctx context.Context, user string) ([]Request, error) {
	requests, err := s.requests.ReadMany(ctx, docstore.Or{
		docstore.Eq{"from_id": user},
		docstore.Eq{"to_id": user},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %w", err)
	}
	return requests, nil
}

// GetFriends returns the ids of everyone user is friends with.
func (s *friendService) GetFriends(ctx context.Context, user string) ([]string, error) {
	friendships, err := s.friendships.ReadMany(ctx, docstore.Or{
		docstore.Eq{"user1_id": user},
		docstore.Eq{"user2_id": user},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	friends := make([]string, len(friendships))
	for i, f := range friendships {
		friends[i] = f.Other(user)
	}
	return friends, nil
}

// popPending removes and returns the pending request with exactly this
// direction.
func (s *friendService) popPending(ctx context.Context, requests *docstore.Collection[Request], from, to string) (*Request, error) {
	req, err := requests.PopOne(ctx, docstore.Eq{
		"from_id": from,
		"to_id":   to,
		"status":  string(StatusPending),
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return nil, concept.Errorf(ErrRequestNotFound, "Friend request from %s to %s does not exist!", concept.UserRef(from), concept.UserRef(to))
		}
		return nil, fmt.Errorf("failed to remove friend request: %w", err)
	}
	return req, nil
}

func (s *friendService) recordHistory(ctx context.Context, tx docstore.DBTX, req *Request, status Status) error {
	record := &Request{From: req.From, To: req.To, Status: status, PairKey: req.PairKey}
	if err := s.requests.On(tx).CreateOne(ctx, record); err != nil {
		return fmt.Errorf("failed to record %s friend request: %w", status, err)
	}
	return nil
}

func (s *friendService) isNotFriends(ctx context.Context, tx docstore.DBTX, u1, u2 string) error {
	return concept.EnforceUnique(ctx, s.friendships.On(tx), docstore.Eq{"pair_key": PairKey(u1, u2)}, alreadyFriends(u1, u2))
}

func alreadyFriends(u1, u2 string) error {
	return concept.Errorf(ErrAlreadyFriends, "%s and %s are already friends!", concept.UserRef(u1), concept.UserRef(u2))
}
