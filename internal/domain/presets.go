package domain

// ResizePreset is a named marketplace target size resolvable in resize
// params instead of explicit dimensions.
type ResizePreset struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Category string `json:"category"`
}

var resizePresets = []ResizePreset{
	{ID: "amazon_primary", Name: "Amazon Primary", Width: 1000, Height: 1000, Category: "amazon"},
	{ID: "amazon_lifestyle", Name: "Amazon Lifestyle", Width: 500, Height: 500, Category: "amazon"},
	{ID: "amazon_infographic", Name: "Amazon Infographic", Width: 1000, Height: 1500, Category: "amazon"},
	{ID: "shopify_main", Name: "Shopify Main", Width: 2048, Height: 2048, Category: "shopify"},
	{ID: "shopify_thumbnail", Name: "Shopify Thumbnail", Width: 100, Height: 100, Category: "shopify"},
	{ID: "instagram_square", Name: "Instagram Square", Width: 1080, Height: 1080, Category: "instagram"},
	{ID: "instagram_portrait", Name: "Instagram Portrait", Width: 1080, Height: 1350, Category: "instagram"},
	{ID: "instagram_story", Name: "Instagram Story", Width: 1080, Height: 1920, Category: "instagram"},
	{ID: "tiktok_feed", Name: "TikTok Feed", Width: 1080, Height: 1920, Category: "tiktok"},
	{ID: "ecommerce_standard", Name: "Storefront Standard", Width: 1200, Height: 1200, Category: "storefront"},
	{ID: "ecommerce_banner", Name: "Storefront Banner", Width: 1920, Height: 600, Category: "storefront"},
	{ID: "facebook_post", Name: "Facebook Post", Width: 1200, Height: 630, Category: "social"},
	{ID: "twitter_card", Name: "Twitter Card", Width: 1200, Height: 628, Category: "social"},
	{ID: "pinterest_pin", Name: "Pinterest Pin", Width: 1000, Height: 1500, Category: "social"},
	{ID: "thumbnail_small", Name: "Small Thumbnail", Width: 150, Height: 150, Category: "thumbnail"},
	{ID: "thumbnail_medium", Name: "Medium Thumbnail", Width: 300, Height: 300, Category: "thumbnail"},
}

// ResizePresets returns the catalog, optionally filtered by category.
func ResizePresets(category string) []ResizePreset {
	if category == "" {
		out := make([]ResizePreset, len(resizePresets))
		copy(out, resizePresets)
		return out
	}

	var out []ResizePreset
	for _, p := range resizePresets {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// ResolvePreset finds a preset by id.
func ResolvePreset(id string) (ResizePreset, bool) {
	for _, p := range resizePresets {
		if p.ID == id {
			return p, true
		}
	}
	return ResizePreset{}, false
}
