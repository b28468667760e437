package fsname

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain name unchanged",
			input: "Elden Ring",
			want:  "Elden Ring",
		},
		{
			name:  "forbidden characters removed",
			input: `Dark<>:"/\|?*Souls`,
			want:  "DarkSouls",
		},
		{
			name:  "control characters removed",
			input: "Sekiro\x00\x01\t\n",
			want:  "Sekiro",
		},
		{
			name:  "leading and trailing spaces and periods trimmed",
			input: "  Bloodborne.. ",
			want:  "Bloodborne",
		},
		{
			name:  "reserved device name prefixed",
			input: "CON",
			want:  "_CON",
		},
		{
			name:  "reserved device name with extension prefixed",
			input: "con.txt",
			want:  "_con.txt",
		},
		{
			name:  "reserved name as substring unaffected",
			input: "FALCON",
			want:  "FALCON",
		},
		{
			name:  "reserved check runs after stripping",
			input: "  nul.sl2",
			want:  "_nul.sl2",
		},
		{
			name:  "empty input yields placeholder",
			input: "",
			want:  "_empty_",
		},
		{
			name:  "all forbidden input yields placeholder",
			input: `<>:"/\|?*`,
			want:  "_empty_",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeTruncatesLongNames(t *testing.T) {
	got := Sanitize(strings.Repeat("a", 300))
	if len(got) != 255 {
		t.Errorf("expected 255 characters, got %d", len(got))
	}
}

func TestSanitizeOutputContainsNoForbiddenCharacters(t *testing.T) {
	inputs := []string{
		`save|data?.sl2`,
		`C:\Users\me\saves`,
		`"quoted" <name>`,
	}
	for _, input := range inputs {
		got := Sanitize(input)
		if strings.ContainsAny(got, `<>:"/\|?*`) {
			t.Errorf("Sanitize(%q) = %q still contains forbidden characters", input, got)
		}
	}
}
