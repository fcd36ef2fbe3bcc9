package handlers_test

import (
	"net/http"
	"testing"

	"github.com/matt-cal/main-st/internal/testutils"
)

type friendRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Status string `json:"status"`
}

func TestAliceAndBobBecomeFriends(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)
	alice := testutils.Signup(t, app, "alice", "alice-pw")
	bob := testutils.Signup(t, app, "bob", "bob-pw")

	resp := testutils.Request(t, app, http.MethodPost, "/api/friend/requests/bob", nil, alice)
	if msg := testutils.ExpectStatus(t, resp, http.StatusOK); msg != "Sent request!" {
		t.Errorf("Expected 'Sent request!', got %q", msg)
	}

	resp = testutils.Request(t, app, http.MethodGet, "/api/friend/requests", nil, bob)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var requests []friendRequest
	testutils.DecodeJSON(t, resp, &requests)
	if len(requests) != 1 || requests[0].From != "alice" || requests[0].To != "bob" || requests[0].Status != "pending" {
		t.Fatalf("Expected one pending request from alice to bob, got %+v", requests)
	}

	resp = testutils.Request(t, app, http.MethodPut, "/api/friend/accept/alice", nil, bob)
	if msg := testutils.ExpectStatus(t, resp, http.StatusOK); msg != "Accepted request!" {
		t.Errorf("Expected 'Accepted request!', got %q", msg)
	}

	for token, want := range map[string]string{alice: "bob", bob: "alice"} {
		resp = testutils.Request(t, app, http.MethodGet, "/api/friends", nil, token)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}
		var friends []string
		testutils.DecodeJSON(t, resp, &friends)
		if len(friends) != 1 || friends[0] != want {
			t.Errorf("Expected friends [%s], got %v", want, friends)
		}
	}

	// The accepted request stays as history.
	resp = testutils.Request(t, app, http.MethodGet, "/api/friend/requests", nil, alice)
	testutils.DecodeJSON(t, resp, &requests)
	if len(requests) != 1 || requests[0].Status != "accepted" {
		t.Errorf("Expected one accepted request, got %+v", requests)
	}
}

func TestFriendErrors(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)
	alice := testutils.Signup(t, app, "alice", "alice-pw")
	bob := testutils.Signup(t, app, "bob", "bob-pw")

	t.Run("Must be logged in", func(t *testing.T) {
		resp := testutils.Request(t, app, http.MethodGet, "/api/friends", nil, "")
		if msg := testutils.ExpectStatus(t, resp, http.StatusUnauthorized); msg != "Must be logged in!" {
			t.Errorf("Unexpected message %q", msg)
		}
	})

	t.Run("Unknown user", func(t *testing.T) {
		resp := testutils.Request(t, app, http.MethodPost, "/api/friend/requests/carol", nil, alice)
		testutils.ExpectStatus(t, resp, http.StatusNotFound)
	})

	t.Run("Cannot befriend self", func(t *testing.T) {
		resp := testutils.Request(t, app, http.MethodPost, "/api/friend/requests/alice", nil, alice)
		testutils.ExpectStatus(t, resp, http.StatusForbidden)
	})

	t.Run("Duplicate request names both users", func(t *testing.T) {
		resp := testutils.Request(t, app, http.MethodPost, "/api/friend/requests/bob", nil, alice)
		testutils.ExpectStatus(t, resp, http.StatusOK)

		resp = testutils.Request(t, app, http.MethodPost, "/api/friend/requests/alice", nil, bob)
		msg := testutils.ExpectStatus(t, resp, http.StatusForbidden)
		if msg != "Friend request between bob and alice already exists!" {
			t.Errorf("Unexpected message %q", msg)
		}
	})

	t.Run("Accept in wrong direction", func(t *testing.T) {
		resp := testutils.Request(t, app, http.MethodPut, "/api/friend/accept/bob", nil, alice)
		msg := testutils.ExpectStatus(t, resp, http.StatusNotFound)
		if msg != "Friend request from bob to alice does not exist!" {
			t.Errorf("Unexpected message %q", msg)
		}
	})

	t.Run("Reject then unfriend missing", func(t *testing.T) {
		resp := testutils.Request(t, app, http.MethodPut, "/api/friend/reject/alice", nil, bob)
		if msg := testutils.ExpectStatus(t, resp, http.StatusOK); msg != "Rejected request!" {
			t.Errorf("Unexpected message %q", msg)
		}
		resp = testutils.Request(t, app, http.MethodDelete, "/api/friends/bob", nil, alice)
		msg := testutils.ExpectStatus(t, resp, http.StatusNotFound)
		if msg != "Friendship between alice and bob does not exist!" {
			t.Errorf("Unexpected message %q", msg)
		}
	})

	t.Run("Remove own request", func(t *testing.T) {
		resp := testutils.Request(t, app, http.MethodPost, "/api/friend/requests/bob", nil, alice)
		testutils.ExpectStatus(t, resp, http.StatusOK)
		resp = testutils.Request(t, app, http.MethodDelete, "/api/friend/requests/bob", nil, alice)
		if msg := testutils.ExpectStatus(t, resp, http.StatusOK); msg != "Removed request!" {
			t.Errorf("Unexpected message %q", msg)
		}
	})

	t.Run("Unfriend", func(t *testing.T) {
		resp := testutils.Request(t, app, http.MethodPost, "/api/friend/requests/alice", nil, bob)
		testutils.ExpectStatus(t, resp, http.StatusOK)
		resp = testutils.Request(t, app, http.MethodPut, "/api/friend/accept/bob", nil, alice)
		testutils.ExpectStatus(t, resp, http.StatusOK)
		resp = testutils.Request(t, app, http.MethodDelete, "/api/friends/alice", nil, bob)
		if msg := testutils.ExpectStatus(t, resp, http.StatusOK); msg != "Unfriended!" {
			t.Errorf("Unexpected message %q", msg)
		}
	})
}

func TestFriendsWithEscapedUsername(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)
	alice := testutils.Signup(t, app, "alice", "alice-pw")
	bob := testutils.Signup(t, app, "bob smith", "bob-pw")

	resp := testutils.Request(t, app, http.MethodGet, "/api/users/bob%20smith", nil, "")
	var found struct {
		Username string `json:"username"`
	}
	testutils.DecodeJSON(t, resp, &found)
	if found.Username != "bob smith" {
		t.Fatalf("Expected to find 'bob smith', got %+v", found)
	}

	resp = testutils.Request(t, app, http.MethodPost, "/api/friend/requests/bob%20smith", nil, alice)
	testutils.ExpectStatus(t, resp, http.StatusOK)

	resp = testutils.Request(t, app, http.MethodPut, "/api/friend/accept/alice", nil, bob)
	testutils.ExpectStatus(t, resp, http.StatusOK)

	resp = testutils.Request(t, app, http.MethodGet, "/api/friends", nil, alice)
	var friends []string
	testutils.DecodeJSON(t, resp, &friends)
	if len(friends) != 1 || friends[0] != "bob smith" {
		t.Fatalf("Expected friends [bob smith], got %v", friends)
	}

	resp = testutils.Request(t, app, http.MethodDelete, "/api/friends/bob%20smith", nil, alice)
	if msg := testutils.ExpectStatus(t, resp, http.StatusOK); msg != "Unfriended!" {
		t.Errorf("Expected 'Unfriended!', got %q", msg)
	}
}
