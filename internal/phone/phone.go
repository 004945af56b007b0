// Package phone normalizes user-entered phone numbers to E.164.
package phone

import (
	"strings"

	"github.com/ttacon/libphonenumber"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/pkg/arabic"
)

// Normalizer parses numbers relative to a default region.
type Normalizer struct {
	region string
}

// NewNormalizer creates a normalizer for region (ISO 3166 alpha-2, e.g. "SA").
func NewNormalizer(region string) *Normalizer {
	return &Normalizer{region: strings.ToUpper(region)}
}

// Normalize returns raw in E.164 form. Numbers without a country code are
// read in the default region; "00" international prefixes are accepted.
func (n *Normalizer) Normalize(raw string) (string, error) {
	cleaned := strings.TrimSpace(arabic.NormalizeDigits(raw))
	if cleaned == "" {
		return "", apperr.InvalidArgument("phone number is required")
	}
	if strings.HasPrefix(cleaned, "00") {
		cleaned = "+" + strings.TrimPrefix(cleaned, "00")
	}

	p, err := libphonenumber.Parse(cleaned, n.region)
	if err != nil {
		return "", apperr.InvalidArgument("invalid phone number: %v", err)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", apperr.InvalidArgument("phone number is not valid")
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}
