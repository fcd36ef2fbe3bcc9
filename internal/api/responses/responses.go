// Package responses shapes concept documents for API clients, replacing user
// ids with usernames.
package responses

import (
	"context"
	"errors"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/db/types"
	"github.com/matt-cal/main-st/internal/services/favorite"
	"github.com/matt-cal/main-st/internal/services/friend"
	"github.com/matt-cal/main-st/internal/services/like"
	"github.com/matt-cal/main-st/internal/services/post"
	"github.com/matt-cal/main-st/internal/services/tag"
	"github.com/matt-cal/main-st/internal/services/user"
)

type PostResponse struct {
	ID          string          `json:"id"`
	Author      string          `json:"author"`
	Content     string          `json:"content"`
	Options     post.Options    `json:"options"`
	DateCreated types.Timestamp `json:"date_created"`
	DateUpdated types.Timestamp `json:"date_updated"`
}

type FriendRequestResponse struct {
	ID          string          `json:"id"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Status      friend.Status   `json:"status"`
	DateCreated types.Timestamp `json:"date_created"`
	DateUpdated types.Timestamp `json:"date_updated"`
}

type FavoriteResponse struct {
	ID          string          `json:"id"`
	Owner       string          `json:"owner"`
	Target      string          `json:"target"`
	Note        string          `json:"note"`
	DateCreated types.Timestamp `json:"date_created"`
	DateUpdated types.Timestamp `json:"date_updated"`
}

type LikeResponse struct {
	ID          string          `json:"id"`
	User        string          `json:"user"`
	Post        string          `json:"post"`
	Type        like.Type       `json:"type"`
	DateCreated types.Timestamp `json:"date_created"`
	DateUpdated types.Timestamp `json:"date_updated"`
}

// TagResponse shows the target of a user tag as a username; post targets
// stay ids.
type TagResponse struct {
	ID          string          `json:"id"`
	Owner       string          `json:"owner"`
	Target      string          `json:"target"`
	Type        tag.TargetType  `json:"type"`
	Name        string          `json:"name"`
	DateCreated types.Timestamp `json:"date_created"`
	DateUpdated types.Timestamp `json:"date_updated"`
}

// Formatter resolves user ids through the user service.
type Formatter struct {
	users user.Service
}

func NewFormatter(users user.Service) *Formatter {
	return &Formatter{users: users}
}

// usernames maps every id to its username in one lookup.
func (f *Formatter) usernames(ctx context.Context, ids []string) (map[string]string, error) {
	names, err := f.users.IDsToUsernames(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(ids))
	for i, id := range ids {
		out[id] = names[i]
	}
	return out, nil
}

func (f *Formatter) Posts(ctx context.Context, posts []post.Post) ([]PostResponse, error) {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.Author
	}
	names, err := f.usernames(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, PostResponse{
			ID:          p.ID,
			Author:      names[p.Author],
			Content:     p.Content,
			Options:     p.Options,
			DateCreated: p.DateCreated,
			DateUpdated: p.DateUpdated,
		})
	}
	return out, nil
}

func (f *Formatter) Post(ctx context.Context, p *post.Post) (PostResponse, error) {
	out, err := f.Posts(ctx, []post.Post{*p})
	if err != nil {
		return PostResponse{}, err
	}
	return out[0], nil
}

func (f *Formatter) FriendRequests(ctx context.Context, requests []friend.Request) ([]FriendRequestResponse, error) {
	ids := make([]string, 0, 2*len(requests))
	for _, r := range requests {
		ids = append(ids, r.From, r.To)
	}
	names, err := f.usernames(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]FriendRequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, FriendRequestResponse{
			ID:          r.ID,
			From:        names[r.From],
			To:          names[r.To],
			Status:      r.Status,
			DateCreated: r.DateCreated,
			DateUpdated: r.DateUpdated,
		})
	}
	return out, nil
}

func (f *Formatter) Favorites(ctx context.Context, favorites []favorite.Favorite) ([]FavoriteResponse, error) {
	ids := make([]string, 0, 2*len(favorites))
	for _, fav := range favorites {
		ids = append(ids, fav.Owner, fav.Target)
	}
	names, err := f.usernames(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]FavoriteResponse, 0, len(favorites))
	for _, fav := range favorites {
		out = append(out, FavoriteResponse{
			ID:          fav.ID,
			Owner:       names[fav.Owner],
			Target:      names[fav.Target],
			Note:        fav.Note,
			DateCreated: fav.DateCreated,
			DateUpdated: fav.DateUpdated,
		})
	}
	return out, nil
}

func (f *Formatter) Favorite(ctx context.Context, fav *favorite.Favorite) (FavoriteResponse, error) {
	out, err := f.Favorites(ctx, []favorite.Favorite{*fav})
	if err != nil {
		return FavoriteResponse{}, err
	}
	return out[0], nil
}

func (f *Formatter) Likes(ctx context.Context, likes []like.Like) ([]LikeResponse, error) {
	ids := make([]string, len(likes))
	for i, l := range likes {
		ids[i] = l.User
	}
	names, err := f.usernames(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]LikeResponse, 0, len(likes))
	for _, l := range likes {
		out = append(out, LikeResponse{
			ID:          l.ID,
			User:        names[l.User],
			Post:        l.Post,
			Type:        l.Type,
			DateCreated: l.DateCreated,
			DateUpdated: l.DateUpdated,
		})
	}
	return out, nil
}

func (f *Formatter) Like(ctx context.Context, l *like.Like) (LikeResponse, error) {
	out, err := f.Likes(ctx, []like.Like{*l})
	if err != nil {
		return LikeResponse{}, err
	}
	return out[0], nil
}

func (f *Formatter) Tags(ctx context.Context, tags []tag.Tag) ([]TagResponse, error) {
	ids := make([]string, 0, 2*len(tags))
	for _, t := range tags {
		ids = append(ids, t.Owner)
		if t.TargetType == tag.TargetUser {
			ids = append(ids, t.Target)
		}
	}
	names, err := f.usernames(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		target := t.Target
		if t.TargetType == tag.TargetUser {
			target = names[t.Target]
		}
		out = append(out, TagResponse{
			ID:          t.ID,
			Owner:       names[t.Owner],
			Target:      target,
			Type:        t.TargetType,
			Name:        t.Name,
			DateCreated: t.DateCreated,
			DateUpdated: t.DateUpdated,
		})
	}
	return out, nil
}

func (f *Formatter) Tag(ctx context.Context, t *tag.Tag) (TagResponse, error) {
	out, err := f.Tags(ctx, []tag.Tag{*t})
	if err != nil {
		return TagResponse{}, err
	}
	return out[0], nil
}

// ErrorMessage renders err for clients. User ids referenced by a concept
// error are shown as usernames; if they cannot be resolved the ids are kept.
func (f *Formatter) ErrorMessage(ctx context.Context, err error) string {
	var cerr *concept.Error
	if !errors.As(err, &cerr) {
		return err.Error()
	}
	refs := cerr.UserRefs()
	if len(refs) == 0 {
		return cerr.Error()
	}
	names, lookupErr := f.usernames(ctx, refs)
	if lookupErr != nil {
		return cerr.Error()
	}
	return cerr.Render(names)
}
