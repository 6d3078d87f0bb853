package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"stickerlab/backend/internal/models"
	"stickerlab/backend/internal/testdb"
)

func countUsers(t *testing.T, s *userStore) int64 {
	t.Helper()
	var n int64
	if err := s.db.Model(&models.User{}).Count(&n).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	return n
}

func TestResolveUserIDCreatesUserForNewEmail(t *testing.T) {
	s := NewUserStore(testdb.Open(t)).(*userStore)
	ctx := context.Background()

	id, err := s.ResolveUserID(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id == "" {
		t.Fatal("expected an id for a new email")
	}

	again, err := s.ResolveUserID(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if again != id {
		t.Fatalf("expected same id %q, got %q", id, again)
	}
	if n := countUsers(t, s); n != 1 {
		t.Fatalf("expected exactly one user, got %d", n)
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Name != "a" {
		t.Fatalf("expected name derived from local part, got %q", user.Name)
	}
	if user.PasswordHash != nil {
		t.Fatal("implicit users must not have a password")
	}
}

func TestResolveUserIDUnknownIDCreatesNothing(t *testing.T) {
	s := NewUserStore(testdb.Open(t)).(*userStore)

	id, err := s.ResolveUserID(context.Background(), "3f1c2a8e-0000-4000-8000-000000000000")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
	if n := countUsers(t, s); n != 0 {
		t.Fatalf("expected no users, got %d", n)
	}
}

func TestResolveUserIDKnownID(t *testing.T) {
	s := NewUserStore(testdb.Open(t))
	ctx := context.Background()

	user, err := s.CreateUser(ctx, UserInput{Email: "b@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id, err := s.ResolveUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != user.ID {
		t.Fatalf("expected %q, got %q", user.ID, id)
	}
}

func TestCreateUserReturnsExisting(t *testing.T) {
	s := NewUserStore(testdb.Open(t))
	ctx := context.Background()

	hash := "hash"
	first, err := s.CreateUser(ctx, UserInput{Email: "c@x.com", Name: "Cee", PasswordHash: &hash})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := s.CreateUser(ctx, UserInput{Email: "c@x.com", Name: "Other"})
	if err != nil {
		t.Fatalf("create again: %v", err)
	}
	if second.ID != first.ID || second.Name != "Cee" {
		t.Fatalf("expected existing user, got %+v", second)
	}
}

func TestCreateUserConcurrentSameEmail(t *testing.T) {
	s := NewUserStore(testdb.Open(t))
	ctx := context.Background()

	const n = 8
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := s.CreateUser(ctx, UserInput{Email: "race@x.com"})
			errs[i] = err
			if err == nil {
				ids[i] = user.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("create %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("expected one user, got ids %v", ids)
		}
	}
	if got := countUsers(t, s.(*userStore)); got != 1 {
		t.Fatalf("expected 1 user, got %d", got)
	}
}

func TestUpdateUser(t *testing.T) {
	s := NewUserStore(testdb.Open(t))
	ctx := context.Background()

	user, err := s.CreateUser(ctx, UserInput{Email: "d@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	name := "Dee"
	image := "https://example.com/d.png"
	updated, err := s.UpdateUser(ctx, user.ID, UserUpdate{Name: &name, Image: &image})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name || updated.Image == nil || *updated.Image != image {
		t.Fatalf("unexpected user after update: %+v", updated)
	}

	if _, err := s.UpdateUser(ctx, "missing", UserUpdate{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUserByEmailNotFound(t *testing.T) {
	s := NewUserStore(testdb.Open(t))
	if _, err := s.GetUserByEmail(context.Background(), "nobody@x.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
