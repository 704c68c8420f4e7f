// Package phone normalizes phone numbers to E.164 using libphonenumber.
package phone

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/ttacon/libphonenumber"
)

// ErrInvalid is returned for numbers that parse but are not dialable.
var ErrInvalid = errors.New("invalid phone number")

var defaultRegion atomic.Value

func init() {
	defaultRegion.Store("IN")
}

// SetDefaultRegion sets the region used for numbers without a country code.
func SetDefaultRegion(region string) {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region != "" {
		defaultRegion.Store(region)
	}
}

// DefaultRegion returns the configured region code.
func DefaultRegion() string {
	return defaultRegion.Load().(string)
}

// Normalize parses raw in the default region and returns its E.164 form.
func Normalize(raw string) (string, error) {
	return NormalizeIn(raw, DefaultRegion())
}

// NormalizeIn parses raw in region and returns its E.164 form.
func NormalizeIn(raw, region string) (string, error) {
	num, err := libphonenumber.Parse(strings.TrimSpace(raw), region)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", ErrInvalid
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}

// Valid reports whether raw is a valid number in the default region.
func Valid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}
