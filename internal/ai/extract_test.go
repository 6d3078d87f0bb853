package ai

import (
	"errors"
	"testing"

	"stickerlab/backend/internal/models"
)

func TestExtractSVG(t *testing.T) {
	reply := "Here you go!\n```svg\n<svg viewBox=\"0 0 10 10\"><title>Sleepy &amp; Cat</title><circle r=\"4\"/></svg>\n```\nEnjoy."

	res, err := Extract(reply, models.ContentTypeSVG, "a sleepy cat")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Content != `<svg viewBox="0 0 10 10"><title>Sleepy &amp; Cat</title><circle r="4"/></svg>` {
		t.Fatalf("unexpected content %q", res.Content)
	}
	if res.Title != "Sleepy & Cat" {
		t.Fatalf("unexpected title %q", res.Title)
	}
	if res.ContentType != models.ContentTypeSVG {
		t.Fatalf("unexpected content type %q", res.ContentType)
	}
}

func TestExtractSVGTitleFallsBackToPrompt(t *testing.T) {
	res, err := Extract(`<svg></svg>`, models.ContentTypeSVGAnimated, "a chibi astronaut waving at the stars from a tiny moon")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Title != "a chibi astronaut waving at the stars from" {
		t.Fatalf("unexpected title %q", res.Title)
	}
}

func TestExtractLottie(t *testing.T) {
	reply := "```json\n{\"v\":\"5.7.0\",\"nm\":\"Bouncy Ball\",\"fr\":30,\"ip\":0,\"op\":30,\"w\":512,\"h\":512,\"layers\":[]}\n```"

	res, err := Extract(reply, models.ContentTypeLottie, "ball")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Title != "Bouncy Ball" {
		t.Fatalf("unexpected title %q", res.Title)
	}
	if res.Content[0] != '{' {
		t.Fatalf("expected bare JSON, got %q", res.Content)
	}
}

func TestExtractRejectsUnusableReplies(t *testing.T) {
	cases := map[string]struct {
		reply string
		ct    models.ContentType
	}{
		"no svg":       {"I cannot draw that.", models.ContentTypeSVG},
		"invalid json": {"{not json}", models.ContentTypeLottie},
		"not an anim":  {`{"hello":"world"}`, models.ContentTypeLottie},
		"empty":        {"", models.ContentTypeSVG},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Extract(tc.reply, tc.ct, "x"); !errors.Is(err, ErrEmptyContent) {
				t.Fatalf("expected ErrEmptyContent, got %v", err)
			}
		})
	}
}

func TestTitleFromPrompt(t *testing.T) {
	if got := TitleFromPrompt("   "); got != "Untitled sticker" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := TitleFromPrompt("cat"); got != "cat" {
		t.Fatalf("unexpected title %q", got)
	}
}
