package ocr

import (
	"testing"
	"unicode/utf8"
)

func TestCleanCaptcha(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "already valid", raw: "abcd", want: "abcd"},
		{name: "uppercase folded", raw: "AbCd", want: "abcd"},
		{name: "whitespace and punctuation stripped", raw: " a b!c d ", want: "abcd"},
		{name: "digit confusables corrected", raw: "a1c3", want: "alce"},
		{name: "all digits corrected", raw: "0123", want: "olze"},
		{name: "letter confusables corrected", raw: "qoiz", want: "golz"},
		{name: "ligature rn collapsed", raw: "rnabc", want: "mabc"},
		{name: "ligature cl collapsed", raw: "clabc", want: "dabc"},
		{name: "ligature vv collapsed", raw: "vvxyz", want: "wxyz"},
		{name: "digit correction feeds ligature", raw: "c1abc", want: "dabc"},
		{name: "overlong trimmed to four", raw: "abcdef", want: "abcd"},
		{name: "multibyte three letters rejected", raw: "hél", want: ""},
		{name: "multibyte four letters accepted", raw: "héll", want: "héll"},
		{name: "multibyte overlong trimmed by rune", raw: "你好吗呢啊", want: "你好吗呢"},
		{name: "ligature leaves three letters", raw: "rnab", want: ""},
		{name: "too short", raw: "abc", want: ""},
		{name: "empty", raw: "", want: ""},
		{name: "only noise", raw: "!@# $%", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanCaptcha(tc.raw); got != tc.want {
				t.Errorf("CleanCaptcha(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

// Cleanup must be idempotent: running an accepted answer through the
// corrector again may not change or invalidate it.
func TestCleanCaptchaIdempotent(t *testing.T) {
	inputs := []string{
		"abcd", "AbCd", "a1c3", "0123", "rnabc", "clabc", "c1abc",
		"qoiz", "abcdef", "wxyz", "vvxyz", "héll", "你好吗呢啊",
	}
	for _, raw := range inputs {
		first := CleanCaptcha(raw)
		if first == "" {
			continue
		}
		if !utf8.ValidString(first) {
			t.Errorf("CleanCaptcha(%q) = %q, not valid UTF-8", raw, first)
		}
		second := CleanCaptcha(first)
		if second != first {
			t.Errorf("CleanCaptcha not idempotent: %q -> %q -> %q", raw, first, second)
		}
	}
}

func TestCleanTimestamp(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "canonical", raw: "09:15", want: "09:15"},
		{name: "bare four digits", raw: "0915", want: "09:15"},
		{name: "single digit parts padded", raw: "9:5", want: "09:05"},
		{name: "midnight", raw: "00:00", want: "00:00"},
		{name: "last minute of day", raw: "23:59", want: "23:59"},
		{name: "noise stripped", raw: " 12 : 34 ", want: "12:34"},
		{name: "letters stripped", raw: "ab09:15cd", want: "09:15"},
		{name: "hour out of range", raw: "24:00", want: ""},
		{name: "minute out of range", raw: "25:99", want: ""},
		{name: "three bare digits", raw: "123", want: ""},
		{name: "five bare digits", raw: "12345", want: ""},
		{name: "too many colon parts", raw: "9:15:", want: ""},
		{name: "missing hour", raw: ":15", want: ""},
		{name: "missing minute", raw: "12:", want: ""},
		{name: "overlong minute part", raw: "12:345", want: ""},
		{name: "empty", raw: "", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanTimestamp(tc.raw); got != tc.want {
				t.Errorf("CleanTimestamp(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestCleanForClass(t *testing.T) {
	if got := CleanForClass("AbCd", CharClassCaptcha); got != "abcd" {
		t.Errorf("CleanForClass captcha = %q, want %q", got, "abcd")
	}
	if got := CleanForClass("0915", CharClassTimestamp); got != "09:15" {
		t.Errorf("CleanForClass timestamp = %q, want %q", got, "09:15")
	}
	if got := CleanForClass("abcd", CharClass("unknown")); got != "" {
		t.Errorf("CleanForClass unknown class = %q, want empty", got)
	}
}
