// internal/service/template_service.go
package service

import (
	"sort"
	"strings"

	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
)

// Dispatch templates. Placeholders are {key}.
const (
	dispatchSubjectTemplate = "{title}"
	dispatchBodyTemplate    = "{caption}"
)

// RenderTemplate fills {key} placeholders in one pass; values are never
// expanded again.
func RenderTemplate(template string, data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", data[k])
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(template))
}

// FormatHashtags renders tags as "#a #b".
func FormatHashtags(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimLeft(strings.TrimSpace(t), "#")
		if t != "" {
			out = append(out, "#"+t)
		}
	}
	return strings.Join(out, " ")
}

func campaignTemplateData(c *model.Campaign) map[string]string {
	return map[string]string{
		"title":           c.Title,
		"caption":         c.CaptionText(),
		"hashtags":        FormatHashtags(c.Hashtags),
		"restaurant_name": c.RestaurantName,
		"description":     c.Description,
	}
}

// RenderDispatch returns the subject and body sent for a campaign.
func RenderDispatch(c *model.Campaign) (subject, body string) {
	data := campaignTemplateData(c)
	return RenderTemplate(dispatchSubjectTemplate, data), RenderTemplate(dispatchBodyTemplate, data)
}
