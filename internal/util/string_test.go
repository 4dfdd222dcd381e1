package util

import "testing"

func TestTruncateString(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"안녕하세요 여러분", 5, "안녕..."},
		{"abcdef", 2, "ab"},
		{"abc", 0, ""},
	}
	for _, tc := range cases {
		if got := TruncateString(tc.in, tc.max); got != tc.want {
			t.Errorf("TruncateString(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
		if RuneLength(TruncateString(tc.in, tc.max)) > tc.max && tc.max > 0 {
			t.Errorf("TruncateString(%q, %d) exceeds limit", tc.in, tc.max)
		}
	}
}

func TestIsValidHTTPURL(t *testing.T) {
	valid := []string{
		"https://cdn.example.com/avatar.png",
		"http://localhost:8080/a.png",
	}
	invalid := []string{
		"",
		"   ",
		"cdn.example.com/avatar.png",
		"ftp://example.com/a.png",
		"https://",
		"javascript:alert(1)",
		"://broken",
	}
	for _, raw := range valid {
		if !IsValidHTTPURL(raw) {
			t.Errorf("expected %q to be valid", raw)
		}
	}
	for _, raw := range invalid {
		if IsValidHTTPURL(raw) {
			t.Errorf("expected %q to be invalid", raw)
		}
	}
}

func TestRuneLengthCountsCharacters(t *testing.T) {
	if RuneLength("é😀") != 2 {
		t.Fatalf("expected 2 runes")
	}
	if !IsBlank(" \n\t") || IsBlank(" x ") {
		t.Fatalf("IsBlank misclassified input")
	}
}
