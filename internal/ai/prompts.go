package ai

import (
	"fmt"

	"stickerlab/backend/internal/models"
)

const svgRules = `Return a single self-contained SVG document and nothing else.
Use a square viewBox of "0 0 512 512", a transparent background, bold outlines
and flat colors that read well at small sizes. Include a short <title> element.
Do not reference external images, fonts or scripts.`

const animatedSVGRules = svgRules + `
Animate the sticker with CSS @keyframes inside a <style> element or with SMIL
<animate>/<animateTransform> elements. The animation must loop seamlessly.`

const lottieRules = `Return a single Lottie (bodymovin) JSON document and nothing else.
Use "v":"5.7.0", "fr":30, "ip":0, "op" between 30 and 90, "w":512 and "h":512,
and set "nm" to a short title. Build the artwork from shape layers (ty 4) using
groups of ellipses, rectangles, fills and strokes, animated through keyframed
transforms. Do not use images, text layers, expressions or precomps.`

func systemPrompt(ct models.ContentType) string {
	head := "You design cute, expressive chat stickers.\n"
	switch ct {
	case models.ContentTypeSVGAnimated:
		return head + animatedSVGRules
	case models.ContentTypeLottie:
		return head + lottieRules
	default:
		return head + svgRules
	}
}

func generateUserPrompt(prompt string) string {
	return fmt.Sprintf("Sticker idea: %s", prompt)
}

func editUserPrompt(req EditRequest) string {
	return fmt.Sprintf(
		"Here is an existing sticker titled %q:\n\n%s\n\nApply this change and return the complete updated document: %s",
		req.Title, req.Source, req.Instruction,
	)
}
