package ai

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"

	"stickerlab/backend/internal/lottie"
	"stickerlab/backend/internal/models"
)

var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

const maxTitleLen = 60

// stripFences removes a surrounding Markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// ExtractSVG returns the outermost <svg>...</svg> element in s.
func ExtractSVG(s string) (string, bool) {
	lower := strings.ToLower(s)
	start := strings.Index(lower, "<svg")
	end := strings.LastIndex(lower, "</svg>")
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+len("</svg>")], true
}

// extractJSON returns the outermost JSON object in s.
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", false
	}
	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}

// TitleFromPrompt shortens a prompt into a record title.
func TitleFromPrompt(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) == 0 {
		return "Untitled sticker"
	}
	if len(words) > 8 {
		words = words[:8]
	}
	title := strings.Join(words, " ")
	if r := []rune(title); len(r) > maxTitleLen {
		title = strings.TrimSpace(string(r[:maxTitleLen]))
	}
	return title
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(html.UnescapeString(s))
	if r := []rune(s); len(r) > maxTitleLen {
		s = strings.TrimSpace(string(r[:maxTitleLen]))
	}
	return s
}

// Extract turns a raw model reply into sticker content of the requested type.
func Extract(reply string, ct models.ContentType, prompt string) (*Result, error) {
	body := stripFences(reply)

	if ct == models.ContentTypeLottie {
		doc, ok := extractJSON(body)
		if !ok {
			return nil, ErrEmptyContent
		}
		anim, err := lottie.Parse(doc)
		if err != nil {
			return nil, ErrEmptyContent
		}
		title := cleanTitle(anim.Name)
		if title == "" {
			title = TitleFromPrompt(prompt)
		}
		return &Result{Title: title, Content: doc, ContentType: ct}, nil
	}

	svg, ok := ExtractSVG(body)
	if !ok {
		return nil, ErrEmptyContent
	}
	title := ""
	if m := titlePattern.FindStringSubmatch(svg); m != nil {
		title = cleanTitle(m[1])
	}
	if title == "" {
		title = TitleFromPrompt(prompt)
	}
	return &Result{Title: title, Content: svg, ContentType: ct}, nil
}
