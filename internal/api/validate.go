// ABOUTME: Field validation for API request bodies
// ABOUTME: Length and range checks on profiles, teams, skills, experience levels and reviews

package api

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/2389/teamup/internal/entity"
)

// Field bounds.
const (
	maxTextLength         = 4096
	minTeamName           = 3
	maxTeamName           = 20
	maxTechName           = 64
	maxSpecializationName = 64
	minNameLength         = 2
	maxNameLength         = 24
	minKnowsLevel         = 1
	maxKnowsLevel         = 10
	minExperienceLevel    = 1
	maxExperienceLevel    = 10
	maxReviewScore        = 10
)

func checkLength(field, value string, minLen, maxLen int) error {
	n := utf8.RuneCountInString(value)
	if n < minLen || n > maxLen {
		return fmt.Errorf("%w: %s must be %d-%d characters", errInvalidInput, field, minLen, maxLen)
	}
	return nil
}

func checkRange(field string, value, minValue, maxValue int) error {
	if value < minValue || value > maxValue {
		return fmt.Errorf("%w: %s must be between %d and %d", errInvalidInput, field, minValue, maxValue)
	}
	return nil
}

func validateProfile(p *entity.UpsertProfile) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Surname = strings.TrimSpace(p.Surname)
	p.City = strings.TrimSpace(p.City)
	for _, f := range []struct{ name, value string }{
		{"name", p.Name}, {"surname", p.Surname}, {"city", p.City},
	} {
		if err := checkLength(f.name, f.value, minNameLength, maxNameLength); err != nil {
			return err
		}
	}
	if err := checkLength("bio", p.Bio, 0, maxTextLength); err != nil {
		return err
	}
	for _, raw := range p.PortfolioURLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: portfolio url %q must be an absolute http(s) url", errInvalidInput, raw)
		}
	}
	return nil
}

func validateTeamName(name string) error {
	return checkLength("name", name, minTeamName, maxTeamName)
}

func validateDescription(d *string) error {
	if d == nil {
		return nil
	}
	return checkLength("description", *d, 0, maxTextLength)
}
