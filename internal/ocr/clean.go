package ocr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

/**
 * Deterministic post-processing of raw backend output.
 *
 * CAPTCHA cleanup folds to lowercase and applies a confusable-glyph table
 * tuned for the site's 4-letter challenges (digits misread for letters,
 * two-character ligatures collapsed). Timestamp cleanup coerces to a
 * zero-padded HH:MM and rejects out-of-range values. Both functions are
 * pure and idempotent on their own output.
 */

// confusableSingles maps symbols commonly misrecognized in place of the
// site's lowercase letters.
var confusableSingles = map[rune]rune{
	'0': 'o', '1': 'l', '2': 'z', '3': 'e', '4': 'a',
	'5': 's', '6': 'g', '7': 't', '8': 'b', '9': 'g',
	'i': 'l', // dotted i reads as l in this font
	'q': 'g',
}

// confusableLigatures lists two-character sequences that the engines emit
// for a single wide glyph. Collapsed before single-character correction.
var confusableLigatures = []struct {
	seq string
	rep string
}{
	{"cl", "d"},
	{"rn", "m"},
	{"vv", "w"},
}

// CleanCaptcha normalizes a raw CAPTCHA string to exactly four lowercase
// letters. Returns "" when the input cannot be coerced into a valid
// answer.
func CleanCaptcha(raw string) string {
	if raw == "" {
		return ""
	}

	var kept strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			kept.WriteRune(unicode.ToLower(r))
		}
	}

	// Single-character corrections run before ligature collapse so that a
	// digit corrected into a letter (e.g. "c1" -> "cl") still collapses.
	// Collapsing last also keeps the function idempotent: corrected output
	// contains no digits and no ligature sequences.
	var corrected strings.Builder
	for _, r := range kept.String() {
		if rep, ok := confusableSingles[r]; ok {
			corrected.WriteRune(rep)
		} else {
			corrected.WriteRune(r)
		}
	}

	result := corrected.String()
	for _, lig := range confusableLigatures {
		result = strings.ReplaceAll(result, lig.seq, lig.rep)
	}
	// Length is counted in runes: backends may emit multi-byte letters.
	if isAlpha(result) && utf8.RuneCountInString(result) == 4 {
		return result
	}

	// Too many symbols survived: keep the first four letters. Three or
	// fewer means the engine dropped a glyph, which cannot be repaired.
	letters := make([]rune, 0, utf8.RuneCountInString(result))
	for _, r := range result {
		if unicode.IsLetter(r) {
			letters = append(letters, r)
		}
	}
	if len(letters) > 4 {
		return string(letters[:4])
	}
	return ""
}

// CleanTimestamp coerces a raw timestamp string into zero-padded "HH:MM".
// Accepts "H:MM", "HH:MM" and bare 4-digit sequences; rejects anything
// else, including out-of-range hours or minutes. Returns "" on rejection.
func CleanTimestamp(raw string) string {
	if raw == "" {
		return ""
	}

	var kept strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) || r == ':' {
			kept.WriteRune(r)
		}
	}
	cleaned := kept.String()

	var hourStr, minuteStr string
	if strings.Contains(cleaned, ":") {
		parts := strings.Split(cleaned, ":")
		if len(parts) != 2 {
			return ""
		}
		hourStr, minuteStr = parts[0], parts[1]
	} else if len(cleaned) == 4 {
		// Colon glyph lost by the engine: re-split a bare HHMM.
		hourStr, minuteStr = cleaned[:2], cleaned[2:]
	} else {
		return ""
	}

	if hourStr == "" || len(hourStr) > 2 || minuteStr == "" || len(minuteStr) > 2 {
		return ""
	}

	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return ""
	}
	minute, err := strconv.Atoi(minuteStr)
	if err != nil {
		return ""
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ""
	}

	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// CleanForClass dispatches to the class-specific cleanup.
func CleanForClass(raw string, class CharClass) string {
	switch class {
	case CharClassCaptcha:
		return CleanCaptcha(raw)
	case CharClassTimestamp:
		return CleanTimestamp(raw)
	default:
		return ""
	}
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
