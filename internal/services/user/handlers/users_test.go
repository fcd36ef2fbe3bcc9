package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/matt-cal/main-st/internal/services/tag"
	"github.com/matt-cal/main-st/internal/services/user"
	"github.com/matt-cal/main-st/internal/testutils"
	"go.uber.org/zap/zaptest"
)

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func TestCreateUser(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)

	resp := testutils.Request(t, app, http.MethodPost, "/api/users", map[string]string{"username": "alice", "password": "pw"}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}
	var created struct {
		Msg  string       `json:"msg"`
		User userResponse `json:"user"`
	}
	testutils.DecodeJSON(t, resp, &created)
	if created.Msg != "User created successfully!" || created.User.Username != "alice" {
		t.Errorf("Unexpected response %+v", created)
	}

	resp = testutils.Request(t, app, http.MethodPost, "/api/users", map[string]string{"username": "alice", "password": "other"}, "")
	if msg := testutils.ExpectStatus(t, resp, http.StatusForbidden); msg != "User with username alice already exists!" {
		t.Errorf("Unexpected message %q", msg)
	}

	resp = testutils.Request(t, app, http.MethodPost, "/api/users", map[string]string{"username": "", "password": "pw"}, "")
	testutils.ExpectStatus(t, resp, http.StatusBadRequest)

	long := strings.Repeat("x", 80)
	resp = testutils.Request(t, app, http.MethodPost, "/api/users", map[string]string{"username": "carol", "password": long}, "")
	if msg := testutils.ExpectStatus(t, resp, http.StatusBadRequest); msg != "Password must be at most 72 bytes!" {
		t.Errorf("Unexpected message %q", msg)
	}

	token := testutils.Login(t, app, "alice", "pw")
	resp = testutils.Request(t, app, http.MethodPost, "/api/users", map[string]string{"username": "bob", "password": "pw"}, token)
	testutils.ExpectStatus(t, resp, http.StatusForbidden)
}

func TestGetUsers(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)
	testutils.Signup(t, app, "alice", "pw")
	testutils.Signup(t, app, "bob", "pw")

	resp := testutils.Request(t, app, http.MethodGet, "/api/users", nil, "")
	var users []userResponse
	testutils.DecodeJSON(t, resp, &users)
	if len(users) != 2 {
		t.Errorf("Expected 2 users, got %d", len(users))
	}

	resp = testutils.Request(t, app, http.MethodGet, "/api/users/bob", nil, "")
	var bob userResponse
	testutils.DecodeJSON(t, resp, &bob)
	if bob.Username != "bob" {
		t.Errorf("Expected bob, got %+v", bob)
	}

	resp = testutils.Request(t, app, http.MethodGet, "/api/users/carol", nil, "")
	if msg := testutils.ExpectStatus(t, resp, http.StatusNotFound); msg != "User with username carol does not exist!" {
		t.Errorf("Unexpected message %q", msg)
	}
}

func TestUpdateUser(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)
	token := testutils.Signup(t, app, "alice", "pw")
	testutils.Signup(t, app, "bob", "pw")

	update := func(fields map[string]any) *http.Response {
		return testutils.Request(t, app, http.MethodPatch, "/api/users", map[string]any{"update": fields}, token)
	}

	testutils.ExpectStatus(t, update(map[string]any{"username": "bob"}), http.StatusForbidden)
	testutils.ExpectStatus(t, update(map[string]any{"date_created": "x"}), http.StatusForbidden)
	testutils.ExpectStatus(t, update(map[string]any{"password": ""}), http.StatusBadRequest)
	testutils.ExpectStatus(t, update(map[string]any{}), http.StatusBadRequest)

	msg := testutils.ExpectStatus(t, update(map[string]any{"username": "alicia", "password": "new"}), http.StatusOK)
	if msg != "User updated successfully!" {
		t.Errorf("Unexpected message %q", msg)
	}

	resp := testutils.Request(t, app, http.MethodPost, "/api/logout", nil, token)
	testutils.ExpectStatus(t, resp, http.StatusOK)
	testutils.Login(t, app, "alicia", "new")
}

func TestDeleteUserPrunesTags(t *testing.T) {
	ctx := context.Background()
	app, store := testutils.SetupTestApp(t)
	alice := testutils.Signup(t, app, "alice", "pw")
	bob := testutils.Signup(t, app, "bob", "pw")

	resp := testutils.Request(t, app, http.MethodPost, "/api/posts", map[string]any{"content": "hello"}, alice)
	var created struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	testutils.DecodeJSON(t, resp, &created)

	testutils.ExpectStatus(t, testutils.Request(t, app, http.MethodPatch, "/api/posts/"+created.Post.ID+"/fun", nil, bob), http.StatusOK)
	testutils.ExpectStatus(t, testutils.Request(t, app, http.MethodPatch, "/api/users/tags/kind", nil, alice), http.StatusOK)
	testutils.ExpectStatus(t, testutils.Request(t, app, http.MethodPatch, "/api/users/tags/kind", nil, bob), http.StatusOK)

	resp = testutils.Request(t, app, http.MethodDelete, "/api/users", nil, alice)
	if msg := testutils.ExpectStatus(t, resp, http.StatusOK); msg != "User deleted!" {
		t.Errorf("Unexpected message %q", msg)
	}

	users := user.NewUserService(zaptest.NewLogger(t), store)
	if _, err := users.GetUserByUsername(ctx, "alice"); err == nil {
		t.Error("Expected alice to be gone")
	}

	tags, err := tag.NewTagService(zaptest.NewLogger(t), store).GetTags(ctx, tag.Query{})
	if err != nil {
		t.Fatalf("Failed to list tags: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "kind" {
		t.Errorf("Expected only bob's self tag to remain, got %+v", tags)
	}

	// The old session no longer works.
	resp = testutils.Request(t, app, http.MethodGet, "/api/session", nil, alice)
	testutils.ExpectStatus(t, resp, http.StatusUnauthorized)
}

func TestFailedUserDeleteKeepsSessionAndTags(t *testing.T) {
	ctx := context.Background()
	app, store := testutils.SetupTestApp(t)
	alice := testutils.Signup(t, app, "alice", "pw")

	resp := testutils.Request(t, app, http.MethodPost, "/api/posts", map[string]any{"content": "hello"}, alice)
	var created struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	testutils.DecodeJSON(t, resp, &created)
	testutils.ExpectStatus(t, testutils.Request(t, app, http.MethodPatch, "/api/posts/"+created.Post.ID+"/fun", nil, alice), http.StatusOK)
	testutils.ExpectStatus(t, testutils.Request(t, app, http.MethodPatch, "/api/users/tags/kind", nil, alice), http.StatusOK)

	testutils.BlockDeletes(t, store, "users")
	resp = testutils.Request(t, app, http.MethodDelete, "/api/users", nil, alice)
	testutils.ExpectStatus(t, resp, http.StatusInternalServerError)

	resp = testutils.Request(t, app, http.MethodGet, "/api/session", nil, alice)
	testutils.ExpectStatus(t, resp, http.StatusOK)

	tags, err := tag.NewTagService(zaptest.NewLogger(t), store).GetTags(ctx, tag.Query{})
	if err != nil {
		t.Fatalf("Failed to list tags: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("Expected both tags to survive, got %+v", tags)
	}
}
