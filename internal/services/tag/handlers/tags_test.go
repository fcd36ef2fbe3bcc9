package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/matt-cal/main-st/internal/testutils"
)

type tagResponse struct {
	ID     string `json:"id"`
	Owner  string `json:"owner"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

func newPost(t *testing.T, app *fiber.App, token, content string) string {
	t.Helper()
	resp := testutils.Request(t, app, http.MethodPost, "/api/posts", map[string]string{"content": content}, token)
	var created struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	testutils.DecodeJSON(t, resp, &created)
	return created.Post.ID
}

func TestCreateTagValidation(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)
	alice := testutils.Signup(t, app, "alice", "pw")
	post := newPost(t, app, alice, "hello")

	for name, body := range map[string]map[string]string{
		"empty name":   {"name": "", "type": "post"},
		"empty type":   {"name": "fun", "type": ""},
		"unknown type": {"name": "fun", "type": "comment"},
	} {
		t.Run(name, func(t *testing.T) {
			resp := testutils.Request(t, app, http.MethodPost, "/api/tags/"+post, body, alice)
			testutils.ExpectStatus(t, resp, http.StatusBadRequest)
		})
	}

	resp := testutils.Request(t, app, http.MethodPost, "/api/tags/missing", map[string]string{"name": "fun", "type": "post"}, alice)
	testutils.ExpectStatus(t, resp, http.StatusNotFound)

	resp = testutils.Request(t, app, http.MethodPost, "/api/tags/"+post, map[string]string{"name": "fun", "type": "post"}, alice)
	testutils.ExpectStatus(t, resp, http.StatusCreated)

	resp = testutils.Request(t, app, http.MethodPost, "/api/tags/"+post, map[string]string{"name": "fun", "type": "post"}, alice)
	if msg := testutils.ExpectStatus(t, resp, http.StatusForbidden); msg != "Target "+post+" already has tag fun!" {
		t.Errorf("Unexpected message %q", msg)
	}
}

func TestTagRecords(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)
	alice := testutils.Signup(t, app, "alice", "pw")
	bob := testutils.Signup(t, app, "bob", "pw")

	resp := testutils.Request(t, app, http.MethodPost, "/api/tags/bob", map[string]string{"name": "kind", "type": "user"}, alice)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}
	var created struct {
		Msg string      `json:"msg"`
		Tag tagResponse `json:"tag"`
	}
	testutils.DecodeJSON(t, resp, &created)
	if created.Tag.Owner != "alice" || created.Tag.Target != "bob" || created.Tag.Type != "user" {
		t.Errorf("Unexpected tag %+v", created.Tag)
	}
	id := created.Tag.ID

	var tags []tagResponse
	resp = testutils.Request(t, app, http.MethodGet, "/api/tags?target=bob&type=user", nil, "")
	testutils.DecodeJSON(t, resp, &tags)
	if len(tags) != 1 || tags[0].Name != "kind" {
		t.Errorf("Expected bob's tag, got %+v", tags)
	}

	resp = testutils.Request(t, app, http.MethodGet, "/api/tags?type=bogus", nil, "")
	testutils.ExpectStatus(t, resp, http.StatusBadRequest)

	resp = testutils.Request(t, app, http.MethodPatch, "/api/tags/"+id, map[string]string{"name": "nice"}, bob)
	testutils.ExpectStatus(t, resp, http.StatusForbidden)
	resp = testutils.Request(t, app, http.MethodPatch, "/api/tags/"+id, map[string]string{"name": ""}, alice)
	testutils.ExpectStatus(t, resp, http.StatusBadRequest)
	resp = testutils.Request(t, app, http.MethodPatch, "/api/tags/"+id, map[string]string{"name": "nice"}, alice)
	testutils.ExpectStatus(t, resp, http.StatusOK)

	resp = testutils.Request(t, app, http.MethodGet, "/api/tags?name=nice", nil, "")
	testutils.DecodeJSON(t, resp, &tags)
	if len(tags) != 1 {
		t.Errorf("Expected renamed tag, got %+v", tags)
	}

	resp = testutils.Request(t, app, http.MethodDelete, "/api/tags/"+id, nil, bob)
	testutils.ExpectStatus(t, resp, http.StatusForbidden)
	resp = testutils.Request(t, app, http.MethodDelete, "/api/tags/"+id, nil, alice)
	testutils.ExpectStatus(t, resp, http.StatusOK)
	resp = testutils.Request(t, app, http.MethodDelete, "/api/tags/"+id, nil, alice)
	testutils.ExpectStatus(t, resp, http.StatusNotFound)
}

func TestTaggingPostsAndUsers(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)
	alice := testutils.Signup(t, app, "alice", "pw")
	bob := testutils.Signup(t, app, "bob", "pw")
	first := newPost(t, app, alice, "first")
	second := newPost(t, app, bob, "second")
	newPost(t, app, bob, "untagged")

	resp := testutils.Request(t, app, http.MethodPatch, "/api/posts/"+first+"/fun", nil, alice)
	if msg := testutils.ExpectStatus(t, resp, http.StatusOK); msg != "Tagged post!" {
		t.Errorf("Unexpected message %q", msg)
	}
	resp = testutils.Request(t, app, http.MethodPatch, "/api/posts/"+second+"/fun", nil, alice)
	testutils.ExpectStatus(t, resp, http.StatusOK)
	resp = testutils.Request(t, app, http.MethodPatch, "/api/posts/missing/fun", nil, alice)
	testutils.ExpectStatus(t, resp, http.StatusNotFound)

	var posts []struct {
		ID     string `json:"id"`
		Author string `json:"author"`
	}
	resp = testutils.Request(t, app, http.MethodGet, "/api/tags/fun/posts", nil, "")
	testutils.DecodeJSON(t, resp, &posts)
	if len(posts) != 2 {
		t.Errorf("Expected 2 tagged posts, got %+v", posts)
	}

	// Only the tag's owner may untag.
	resp = testutils.Request(t, app, http.MethodDelete, "/api/posts/"+second+"/fun", nil, bob)
	testutils.ExpectStatus(t, resp, http.StatusForbidden)
	resp = testutils.Request(t, app, http.MethodDelete, "/api/posts/"+second+"/fun", nil, alice)
	if msg := testutils.ExpectStatus(t, resp, http.StatusOK); msg != "Untagged post!" {
		t.Errorf("Unexpected message %q", msg)
	}
	resp = testutils.Request(t, app, http.MethodDelete, "/api/posts/"+second+"/fun", nil, alice)
	testutils.ExpectStatus(t, resp, http.StatusNotFound)

	resp = testutils.Request(t, app, http.MethodGet, "/api/tags/fun/posts", nil, "")
	testutils.DecodeJSON(t, resp, &posts)
	if len(posts) != 1 || posts[0].ID != first {
		t.Errorf("Expected only the first post, got %+v", posts)
	}

	resp = testutils.Request(t, app, http.MethodPatch, "/api/users/tags/gardener", nil, alice)
	testutils.ExpectStatus(t, resp, http.StatusOK)
	resp = testutils.Request(t, app, http.MethodPatch, "/api/users/tags/gardener", nil, bob)
	testutils.ExpectStatus(t, resp, http.StatusOK)
	resp = testutils.Request(t, app, http.MethodPatch, "/api/users/tags/gardener", nil, bob)
	testutils.ExpectStatus(t, resp, http.StatusForbidden)

	var users []string
	resp = testutils.Request(t, app, http.MethodGet, "/api/tags/gardener/users", nil, "")
	testutils.DecodeJSON(t, resp, &users)
	if len(users) != 2 {
		t.Errorf("Expected 2 tagged users, got %v", users)
	}

	resp = testutils.Request(t, app, http.MethodDelete, "/api/users/tags/gardener", nil, bob)
	testutils.ExpectStatus(t, resp, http.StatusOK)
	resp = testutils.Request(t, app, http.MethodGet, "/api/tags/gardener/users", nil, "")
	testutils.DecodeJSON(t, resp, &users)
	if len(users) != 1 || users[0] != "alice" {
		t.Errorf("Expected only alice, got %v", users)
	}

	// Deleting a post drops its tags.
	resp = testutils.Request(t, app, http.MethodDelete, "/api/posts/"+first, nil, alice)
	testutils.ExpectStatus(t, resp, http.StatusOK)
	var tags []tagResponse
	resp = testutils.Request(t, app, http.MethodGet, "/api/tags?name=fun", nil, "")
	testutils.DecodeJSON(t, resp, &tags)
	if len(tags) != 0 {
		t.Errorf("Expected no fun tags, got %+v", tags)
	}
}

func TestTagNamesAreUnescaped(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)
	bob := testutils.Signup(t, app, "bob smith", "pw")
	post := newPost(t, app, bob, "coffee")

	resp := testutils.Request(t, app, http.MethodPatch, "/api/users/tags/night%20owl", nil, bob)
	testutils.ExpectStatus(t, resp, http.StatusOK)

	var users []string
	resp = testutils.Request(t, app, http.MethodGet, "/api/tags/night%20owl/users", nil, "")
	testutils.DecodeJSON(t, resp, &users)
	if len(users) != 1 || users[0] != "bob smith" {
		t.Errorf("Expected [bob smith], got %v", users)
	}

	resp = testutils.Request(t, app, http.MethodPatch, "/api/posts/"+post+"/caf%C3%A9", nil, bob)
	testutils.ExpectStatus(t, resp, http.StatusOK)

	var tags []tagResponse
	resp = testutils.Request(t, app, http.MethodGet, "/api/tags?target="+post, nil, "")
	testutils.DecodeJSON(t, resp, &tags)
	if len(tags) != 1 || tags[0].Name != "café" {
		t.Errorf("Expected one tag named café, got %+v", tags)
	}

	resp = testutils.Request(t, app, http.MethodDelete, "/api/users/tags/night%20owl", nil, bob)
	testutils.ExpectStatus(t, resp, http.StatusOK)
	resp = testutils.Request(t, app, http.MethodDelete, "/api/posts/"+post+"/caf%C3%A9", nil, bob)
	testutils.ExpectStatus(t, resp, http.StatusOK)
}
