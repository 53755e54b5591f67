package validate

import (
	"regexp"
	"strings"
)

var (
	trackingRe     = regexp.MustCompile(`^[A-Z0-9]{10,12}$`)
	trackingDemoRe = regexp.MustCompile(`^[0-9]{6}$`)
	accessCodeRe   = regexp.MustCompile(`^[0-9]{6}$`)
	nonDigitRe     = regexp.MustCompile(`\D`)
)

func NormalizeTrackingNumber(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// TrackingNumber проверяет формат номера. В демо-режиме дополнительно
// допускаются 6-значные номера из сидов.
func TrackingNumber(value string, demoAllowed bool) bool {
	if demoAllowed && trackingDemoRe.MatchString(value) {
		return true
	}
	return trackingRe.MatchString(value)
}

func AccessCode(value string) bool {
	return accessCodeRe.MatchString(value)
}

// NormalizeText обрезает пробелы и ограничивает длину (в рунах).
func NormalizeText(value string, maxLength int) string {
	trimmed := strings.TrimSpace(value)
	runes := []rune(trimmed)
	if len(runes) > maxLength {
		return string(runes[:maxLength])
	}
	return trimmed
}

func Phone(value string) bool {
	digits := nonDigitRe.ReplaceAllString(value, "")
	return len(digits) >= 7 && len(digits) <= 18
}

func Label(value string) bool {
	n := len([]rune(strings.TrimSpace(value)))
	return n >= 2 && n <= 80
}

func LatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
