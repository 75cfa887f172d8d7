package ai

import (
	"fmt"
	"strings"
)

var platformStyles = map[string]string{
	"instagram": "instagram-style, vibrant, engaging, square format",
	"linkedin":  "professional, corporate, clean design",
	"facebook":  "social media optimized, engaging, community focused",
	"twitter":   "attention-grabbing, concise, shareable",
}

// NegativePrompt lists what generated marketing images must avoid.
const NegativePrompt = "text overlay, watermark, low quality, logo, blurry, artificial looking, stock photo style"

// PlatformStyle returns the image style modifier for a platform.
func PlatformStyle(platform string) string {
	if s, ok := platformStyles[strings.ToLower(platform)]; ok {
		return s
	}
	return "professional marketing"
}

// AudienceStyle derives extra style preferences from the target audience.
func AudienceStyle(audience string) string {
	a := strings.ToLower(audience)
	switch {
	case strings.Contains(a, "restaurant"), strings.Contains(a, "food"), strings.Contains(a, "diner"):
		return "food photography, culinary atmosphere, professional lighting"
	case strings.Contains(a, "retail"), strings.Contains(a, "shop"):
		return "product photography, bright retail setting"
	default:
		return ""
	}
}

// ImagePrompt builds the image prompt for a campaign.
func ImagePrompt(name, description, audience, platform string) string {
	if platform == "" {
		platform = "social media"
	}
	if audience == "" {
		audience = "restaurant guests"
	}
	style := PlatformStyle(platform)
	if extra := AudienceStyle(audience); extra != "" {
		style += ", " + extra
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a professional %s marketing image for %s. Campaign: %s.", platform, audience, name)
	if description != "" {
		fmt.Fprintf(&b, " %s.", strings.TrimSuffix(description, "."))
	}
	fmt.Fprintf(&b, " Style: High-quality, professional photography, %s.", style)
	b.WriteString(" Make it authentic and engaging, avoid artificial or stock photo look.")
	return b.String()
}
