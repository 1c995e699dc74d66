package domain

// BackgroundStyle is a curated scene preset for background replacement.
type BackgroundStyle struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prompt string `json:"-"`
}

var backgroundStyles = []BackgroundStyle{
	{
		ID:     "minimal_white",
		Name:   "Minimal White",
		Prompt: "clean minimal white studio background, soft diffused lighting, subtle shadow under the product",
	},
	{
		ID:     "modern_home",
		Name:   "Modern Home",
		Prompt: "modern scandinavian home interior, light wood surface, blurred living room background, warm natural light",
	},
	{
		ID:     "business",
		Name:   "Business",
		Prompt: "professional office desk setting, dark slate surface, out of focus workspace background",
	},
	{
		ID:     "natural",
		Name:   "Natural",
		Prompt: "natural outdoor scene, stone surface with green foliage, golden hour sunlight",
	},
	{
		ID:     "amazon_standard",
		Name:   "Amazon Standard",
		Prompt: "pure white seamless background, bright even studio lighting, no shadows, marketplace listing style",
	},
	{
		ID:     "tiktok_vibrant",
		Name:   "TikTok Vibrant",
		Prompt: "vibrant gradient background with bold saturated colors, trendy neon accents, high energy social media style",
	},
	{
		ID:     "instagram_lifestyle",
		Name:   "Instagram Lifestyle",
		Prompt: "bright airy lifestyle flat lay, pastel tones, soft props around the product, instagram aesthetic",
	},
	{
		ID:     "shopify_custom",
		Name:   "Shopify Custom",
		Prompt: "brand storefront hero scene, elegant neutral backdrop with a soft color accent, premium e-commerce look",
	},
}

// BackgroundStyles returns the catalog in a stable order.
func BackgroundStyles() []BackgroundStyle {
	out := make([]BackgroundStyle, len(backgroundStyles))
	copy(out, backgroundStyles)
	return out
}

// StylePrompt resolves a style id to its generation prompt.
func StylePrompt(id string) (string, bool) {
	for _, s := range backgroundStyles {
		if s.ID == id {
			return s.Prompt, true
		}
	}
	return "", false
}
