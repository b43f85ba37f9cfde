package ai

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

const (
	DefaultTranslateTarget = "en"
	DefaultSpeechLanguage  = "en-US"
)

// NormalizeLanguage canonicalizes a BCP 47 tag ("EN-us" becomes "en-US"),
// falling back to def when tag is blank.
func NormalizeLanguage(tag, def string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = def
	}
	// Accept the underscore form some clients send.
	tag = strings.ReplaceAll(tag, "_", "-")

	parsed, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, tag)
	}
	return parsed.String(), nil
}

// SpeechLanguage ensures a region is present, which voice names require.
func SpeechLanguage(tag string) (string, error) {
	normalized, err := NormalizeLanguage(tag, DefaultSpeechLanguage)
	if err != nil {
		return "", err
	}

	parsed := language.Make(normalized)
	region, confidence := parsed.Region()
	base, _ := parsed.Base()
	if confidence == language.No {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, tag)
	}
	return base.String() + "-" + region.String(), nil
}
