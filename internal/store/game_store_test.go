package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"stickerlab/backend/internal/models"
	"stickerlab/backend/internal/testdb"
)

func seedGame(t *testing.T, s GameStore, userID, title string, public bool, createdAt time.Time) *models.Game {
	t.Helper()
	game := &models.Game{
		Title:       title,
		Prompt:      "prompt " + title,
		Content:     "<svg></svg>",
		ContentType: models.ContentTypeSVG,
		IsPublic:    public,
		UserID:      userID,
		CreatedAt:   createdAt,
	}
	if err := s.CreateGame(context.Background(), game); err != nil {
		t.Fatalf("create game: %v", err)
	}
	return game
}

func TestGameStoreLists(t *testing.T) {
	db := testdb.Open(t)
	users := NewUserStore(db)
	games := NewGameStore(db)
	ctx := context.Background()

	alice, _ := users.CreateUser(ctx, UserInput{Email: "alice@x.com"})
	bob, _ := users.CreateUser(ctx, UserInput{Email: "bob@x.com"})

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedGame(t, games, alice.ID, "a-old", true, base)
	seedGame(t, games, alice.ID, "a-private", false, base.Add(time.Hour))
	seedGame(t, games, bob.ID, "b-new", true, base.Add(2*time.Hour))
	seedGame(t, games, bob.ID, "b-newest", true, base.Add(3*time.Hour))

	public, err := games.ListPublicGames(ctx, 2)
	if err != nil {
		t.Fatalf("list public: %v", err)
	}
	if len(public) != 2 || public[0].Title != "b-newest" || public[1].Title != "b-new" {
		t.Fatalf("unexpected public list: %+v", titles(public))
	}
	if public[0].User.Email != "bob@x.com" {
		t.Fatalf("expected owner preloaded, got %+v", public[0].User)
	}

	mine, err := games.ListGamesByUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if got := titles(mine); len(got) != 2 || got[0] != "a-private" || got[1] != "a-old" {
		t.Fatalf("unexpected owner list: %v", got)
	}

	all, err := games.ListAllGames(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 records, got %d", len(all))
	}
}

func TestGameStoreUpdateLeavesContentAlone(t *testing.T) {
	db := testdb.Open(t)
	users := NewUserStore(db)
	games := NewGameStore(db)
	ctx := context.Background()

	owner, _ := users.CreateUser(ctx, UserInput{Email: "o@x.com"})
	game := seedGame(t, games, owner.ID, "before", false, time.Now())

	public := true
	updated, err := games.UpdateGame(ctx, game.ID, GameUpdate{IsPublic: &public})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.IsPublic || updated.Title != "before" || updated.Content != game.Content {
		t.Fatalf("unexpected record after update: %+v", updated)
	}

	if _, err := games.UpdateGame(ctx, "missing", GameUpdate{IsPublic: &public}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGameStoreDeleteTwice(t *testing.T) {
	db := testdb.Open(t)
	users := NewUserStore(db)
	games := NewGameStore(db)
	ctx := context.Background()

	owner, _ := users.CreateUser(ctx, UserInput{Email: "o@x.com"})
	game := seedGame(t, games, owner.ID, "doomed", false, time.Now())

	if err := games.DeleteGame(ctx, game.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := games.DeleteGame(ctx, game.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := games.GetGame(ctx, game.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func titles(games []models.Game) []string {
	out := make([]string, 0, len(games))
	for _, g := range games {
		out = append(out, g.Title)
	}
	return out
}
