package app

import (
	"testing"
	"time"
)

func TestCacheMissOnUnknownKey(t *testing.T) {
	c := NewCache(300 * time.Second)
	if _, ok := c.Get(feedKey{TeamID: "42"}); ok {
		t.Error("Expected miss for a key that was never stored")
	}
}

func TestCacheFreshnessWindow(t *testing.T) {
	current := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	c := NewCache(300 * time.Second)
	c.now = func() time.Time { return current }

	key := feedKey{TeamID: "42", MemberID: "7"}
	c.Put(key, []byte("doc"))

	current = current.Add(299 * time.Second)
	if data, ok := c.Get(key); !ok || string(data) != "doc" {
		t.Error("Entry inside the freshness window must be served")
	}

	current = current.Add(1 * time.Second)
	if _, ok := c.Get(key); ok {
		t.Error("Entry at exactly the freshness window must be treated as absent")
	}
}

func TestCachePutRestartsWindow(t *testing.T) {
	current := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	c := NewCache(300 * time.Second)
	c.now = func() time.Time { return current }

	key := feedKey{TeamID: "42"}
	c.Put(key, []byte("old"))

	current = current.Add(200 * time.Second)
	c.Put(key, []byte("new"))

	current = current.Add(200 * time.Second)
	data, ok := c.Get(key)
	if !ok {
		t.Fatal("Overwrite must restart the freshness window")
	}
	if string(data) != "new" {
		t.Errorf("Expected the overwritten document, got %q", data)
	}
}

func TestCacheKeysAreIndependent(t *testing.T) {
	c := NewCache(300 * time.Second)
	c.Put(feedKey{TeamID: "42", MemberID: "7"}, []byte("a"))
	c.Put(feedKey{TeamID: "42", MemberID: ""}, []byte("b"))

	if data, _ := c.Get(feedKey{TeamID: "42", MemberID: "7"}); string(data) != "a" {
		t.Error("Explicit member key returned the wrong document")
	}
	if data, _ := c.Get(feedKey{TeamID: "42", MemberID: ""}); string(data) != "b" {
		t.Error("Own-identity key returned the wrong document")
	}
	if _, ok := c.Get(feedKey{TeamID: "43", MemberID: "7"}); ok {
		t.Error("Different team must be a different cache entry")
	}
}
