// Package render turns stored sticker content into a view model for pages.
package render

import (
	"encoding/json"
	"html/template"
	"net/url"
	"strings"

	"stickerlab/backend/internal/models"
)

const svgDataPrefix = "data:image/svg+xml;charset=utf-8,"

// View describes how a sticker is displayed. At most one of ImageSrc and
// LottieJSON is set.
type View struct {
	ContentType models.ContentType
	Alt         string

	// Empty is set when there is no content to show.
	Empty bool
	// Invalid is set when Lottie content is not valid JSON.
	Invalid bool

	ImageSrc   template.URL
	LottieJSON string
}

// Render dispatches on the content type. It never fails: unknown content
// types are shown as static SVG and broken Lottie documents set Invalid.
func Render(content string, ct models.ContentType, title string) View {
	v := View{ContentType: ct, Alt: title}
	if strings.TrimSpace(content) == "" {
		v.Empty = true
		return v
	}

	switch ct {
	case models.ContentTypeSVGAnimated:
		// As an image source, CSS and SMIL animations play but scripts never run.
		v.ImageSrc = SVGDataURI(content)
	case models.ContentTypeLottie:
		if !json.Valid([]byte(content)) {
			v.Invalid = true
			return v
		}
		v.LottieJSON = content
	default:
		v.ContentType = models.ContentTypeSVG
		v.ImageSrc = SVGDataURI(content)
	}
	return v
}

// SVGDataURI encodes markup as a data URI usable as an <img> source.
func SVGDataURI(svg string) template.URL {
	return template.URL(svgDataPrefix + strings.ReplaceAll(url.QueryEscape(svg), "+", "%20"))
}
