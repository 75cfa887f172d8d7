package service

import (
	"slices"
	"strings"
	"unicode/utf8"

	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
)

var cadences = []string{"", model.CadenceOnce, model.CadenceDaily, model.CadenceWeekly, model.CadenceMonthly}

func validateCampaign(c *model.Campaign) error {
	title := strings.TrimSpace(c.Title)
	if n := utf8.RuneCountInString(title); n < 2 || n > 200 {
		return appErrors.Validation("title must be between 2 and 200 characters")
	}
	if d := strings.TrimSpace(c.Description); d != "" && utf8.RuneCountInString(d) < 10 {
		return appErrors.Validation("description must be at least 10 characters")
	}
	if !slices.Contains(cadences, c.Cadence) {
		return appErrors.Validation("cadence %q is not supported", c.Cadence)
	}
	for _, p := range c.Platforms {
		if !slices.Contains(model.Platforms, p) {
			return appErrors.Validation("platform %q is not supported", p)
		}
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return appErrors.Validation("end_date must not be before start_date")
	}
	if c.Budget.Valid && c.Budget.Decimal.IsNegative() {
		return appErrors.Validation("budget must not be negative")
	}
	return nil
}
