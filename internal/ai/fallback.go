package ai

import (
	"context"
	"strings"
	"unicode"
)

// TemplateCaptioner writes captions from fixed templates. It is used when no
// language model is configured.
type TemplateCaptioner struct{}

var captionTemplates = map[string]string{
	"Modern & Bold":      "{title} is here. Don't miss it! 🔥",
	"Classic & Elegant":  "Join us at {name} for {title}, an evening of exceptional cuisine ✨",
	"Creative & Playful": "Your taste buds called. They want {title} 🍽️🎉",
	"Warm & Local":       "From our kitchen to your table: {title} at {name} ❤️",
}

func (TemplateCaptioner) GenerateCaptions(_ context.Context, req CaptionRequest) ([]Caption, error) {
	name := req.RestaurantName
	if name == "" {
		name = "our place"
	}
	replacer := strings.NewReplacer("{title}", req.Title, "{name}", name)
	tags := titleHashtags(req.Title)

	styles := stylesFor(req.Count)
	captions := make([]Caption, 0, len(styles))
	for _, style := range styles {
		captions = append(captions, Caption{
			Style:    style,
			Text:     replacer.Replace(captionTemplates[style]),
			Hashtags: tags,
		})
	}
	return captions, nil
}

// titleHashtags turns a title into a CamelCase hashtag plus a generic tag.
func titleHashtags(title string) []string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	tags := []string{}
	if b.Len() > 0 {
		tags = append(tags, b.String())
	}
	return append(tags, "Foodie")
}

// PassModerator flags nothing.
type PassModerator struct{}

func (PassModerator) Moderate(_ context.Context, texts []string) ([]bool, error) {
	return make([]bool, len(texts)), nil
}
