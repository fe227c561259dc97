package utils

import (
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "simple name",
			in:   "Okta",
			want: "okta",
		},
		{
			name: "spaces become dashes",
			in:   "Google Workspace",
			want: "google-workspace",
		},
		{
			name: "punctuation collapses",
			in:   "ACME Corp. (Staging)",
			want: "acme-corp-staging",
		},
		{
			name: "consecutive separators collapse",
			in:   "a -- b",
			want: "a-b",
		},
		{
			name: "leading and trailing junk trimmed",
			in:   "  !!Azure AD!!  ",
			want: "azure-ad",
		},
		{
			name: "digits preserved",
			in:   "IdP 2024",
			want: "idp-2024",
		},
		{
			name: "only junk",
			in:   "!!!",
			want: "",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "unicode replaced",
			in:   "Café Provider",
			want: "caf-provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.in)
			if got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{
		"Okta Prod",
		"ACME Corp. (Staging)",
		"already-a-slug",
		"--weird--input--",
		"Ärger & Söhne GmbH",
	}

	for _, in := range inputs {
		once := Slugify(in)
		twice := Slugify(once)
		if once != twice {
			t.Errorf("Slugify not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestSlugifyCharsetAndEdges(t *testing.T) {
	inputs := []string{
		"Okta Prod",
		"!!leading",
		"trailing!!",
		"UPPER case 42",
		"a..b..c",
	}

	for _, in := range inputs {
		got := Slugify(in)
		if len(got) > 0 && (got[0] == '-' || got[len(got)-1] == '-') {
			t.Errorf("Slugify(%q) = %q starts or ends with dash", in, got)
		}
		for i := 0; i < len(got); i++ {
			c := got[i]
			if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') && c != '-' {
				t.Errorf("Slugify(%q) = %q contains invalid byte %q", in, got, c)
			}
		}
	}
}
