package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"nearlink/discourse"
)

func linkAccount(t *testing.T, env *testEnv, accountID string) string {
	t.Helper()

	nonce, payload := env.startAttempt(t, "app1", "user-api-key-secret")
	assertion := env.assertion(t, accountID)

	w := env.postJSON(t, "/api/link/complete", gin.H{
		"payload":            payload,
		"nonce":              nonce,
		"identity_assertion": assertion,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("complete returned %d: %s", w.Code, w.Body.String())
	}
	return assertion
}

func TestCreatePostEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.forum.post = discourse.Post{ID: 101, TopicID: 55, TopicSlug: "hello-world"}

	assertion := linkAccount(t, env, "alice.near")

	w := env.postJSON(t, "/api/posts", gin.H{
		"identity_assertion": assertion,
		"title":              "A sufficiently long title",
		"body":               "A body that clears the minimum length.",
		"category":           7,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("posts returned %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["success"] != true {
		t.Errorf("success = %v", resp["success"])
	}
	if resp["post_id"] != float64(101) || resp["topic_id"] != float64(55) {
		t.Errorf("resp = %v", resp)
	}
	if resp["post_url"] == "" {
		t.Error("post_url missing")
	}
}

func TestCreatePostShortTitleRejectedLocally(t *testing.T) {
	env := newTestEnv(t)
	assertion := linkAccount(t, env, "alice.near")
	env.forum.postCalls = 0

	w := env.postJSON(t, "/api/posts", gin.H{
		"identity_assertion": assertion,
		"title":              "only 10ch",
		"body":               "A body that clears the minimum length.",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("short title returned %d, want 400", w.Code)
	}
	if env.forum.postCalls != 0 {
		t.Error("forum must not be contacted when local validation fails")
	}
}

func TestCreatePostShortBodyRejectedLocally(t *testing.T) {
	env := newTestEnv(t)
	assertion := linkAccount(t, env, "alice.near")
	env.forum.postCalls = 0

	w := env.postJSON(t, "/api/posts", gin.H{
		"identity_assertion": assertion,
		"title":              "A sufficiently long title",
		"body":               "too short",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("short body returned %d, want 400", w.Code)
	}
	if env.forum.postCalls != 0 {
		t.Error("forum must not be contacted when local validation fails")
	}
}

func TestCreatePostWithoutLinkage(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON(t, "/api/posts", gin.H{
		"identity_assertion": env.assertion(t, "bob.near"),
		"title":              "A sufficiently long title",
		"body":               "A body that clears the minimum length.",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unlinked account returned %d, want 404", w.Code)
	}
	if env.forum.postCalls != 0 {
		t.Error("forum must not be contacted without a linkage")
	}
}

func TestCreatePostBadAssertionRejected(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON(t, "/api/posts", gin.H{
		"identity_assertion": "garbage",
		"title":              "A sufficiently long title",
		"body":               "A body that clears the minimum length.",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad assertion returned %d, want 401", w.Code)
	}
}

func TestCreatePostForumRejection(t *testing.T) {
	env := newTestEnv(t)
	assertion := linkAccount(t, env, "alice.near")

	env.forum.postStatus = http.StatusUnprocessableEntity
	env.forum.postErrors = []string{"Title is too short (minimum is 15 characters)"}

	w := env.postJSON(t, "/api/posts", gin.H{
		"identity_assertion": assertion,
		"title":              "A sufficiently long title",
		"body":               "A body that clears the minimum length.",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("forum rejection returned %d, want 422", w.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["details"] == nil || resp["details"] == "" {
		t.Errorf("rejection reason missing from response: %v", resp)
	}
}
