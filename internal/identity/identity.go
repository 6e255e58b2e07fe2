package identity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Identity is the normalized principal shape every provider adapter
// converges on. Nothing provider-specific crosses this boundary.
type Identity struct {
	Token       string
	Email       string
	DisplayName string
	PictureURL  string
	ProviderID  string
}

// ProviderError is a provider flow failure carrying a message fit for
// display. Adapters never surface raw SDK or transport errors.
type ProviderError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return e.Message
}

var titleCaser = cases.Title(language.Und)

// normalizeDisplayName tidies names that arrive all-caps or all-lower
// from provider profiles. Mixed-case names pass through untouched.
func normalizeDisplayName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return name
	}
	if name == strings.ToUpper(name) || name == strings.ToLower(name) {
		return titleCaser.String(strings.ToLower(name))
	}
	return name
}
