package copywriter

import (
	"fmt"
	"strings"

	"github.com/prodpix/prodpix/internal/domain"
)

var platformBriefs = map[domain.CopyPlatform]string{
	domain.PlatformAmazon: "an Amazon product listing: a keyword-rich title under 200 characters, " +
		"a factual description and exactly 5 benefit-first bullet points",
	domain.PlatformTikTok: "a TikTok Shop listing: a punchy casual title, a short high-energy description " +
		"and 4-6 trending hashtags",
	domain.PlatformInstagram: "an Instagram shop post: an aesthetic lifestyle-oriented caption as the description, " +
		"a short evocative title and 5-8 niche hashtags",
	domain.PlatformStorefront: "a brand storefront page: a premium polished title and a persuasive long-form " +
		"description, no hashtags",
}

func buildPrompt(req domain.CopyRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an e-commerce copywriter. Write copy for %s.\n\n", platformBriefs[req.Platform])
	fmt.Fprintf(&b, "Product: %s\n", req.ProductName)

	if len(req.Features) > 0 {
		b.WriteString("Key features:\n")
		for _, f := range req.Features {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	if req.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", req.Tone)
	}
	language := req.Language
	if language == "" {
		language = "English"
	}
	fmt.Fprintf(&b, "Language: %s\n", language)

	b.WriteString("\nRespond with a single JSON object and nothing else, using exactly these keys: ")
	b.WriteString(`{"title": string, "description": string, "bullets": [string], "hashtags": [string]}`)
	b.WriteString("\nUse an empty array for bullets or hashtags when they do not apply to the platform.")

	return b.String()
}
