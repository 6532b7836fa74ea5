package pattern

import "testing"

func TestExtractEmails(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "plain address",
			in:   "reach us at info@acme.co.id today",
			want: []string{"info@acme.co.id"},
		},
		{
			name: "bracket obfuscation",
			in:   "foo [at] bar [dot] com",
			want: []string{"foo@bar.com"},
		},
		{
			name: "paren obfuscation",
			in:   "sales (at) acme (dot) io",
			want: []string{"sales@acme.io"},
		},
		{
			name: "spaced obfuscation",
			in:   "write to admin @ acme . com please",
			want: []string{"admin@acme.com"},
		},
		{
			name: "dedup case insensitive",
			in:   "Info@Acme.com and info@acme.com",
			want: []string{"info@acme.com"},
		},
		{
			name: "nothing",
			in:   "no emails here",
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractEmails(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("ExtractEmails(%q)=%v, want %v", tc.in, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("ExtractEmails(%q)=%v, want %v", tc.in, got, tc.want)
				}
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"foo@example.com", false},
		{"info@wixpress.com", false},
		{"foo@bar.com", true},
		{"noreply@acme.com", false},
		{"icon@2x.acme.com", false},
		{"logo.png@acme.com", false},
		{"a@b.c", false},
		{"contact@business.co.id", true},
	}

	for _, tc := range cases {
		if got := ValidEmail(tc.email, DefaultInvalidEmailPatterns); got != tc.want {
			t.Fatalf("ValidEmail(%q)=%v, want %v", tc.email, got, tc.want)
		}
	}
}

func TestExtractSocialLinks(t *testing.T) {
	in := `visit https://facebook.com/acmepizza and https://www.instagram.com/
	also https://instagram.com/acme_pizza plus https://facebook.com/other`

	links := ExtractSocialLinks(in)

	got := map[string]string{}
	for _, l := range links {
		got[l.Platform] = l.URL
	}
	if got["facebook"] != "https://facebook.com/acmepizza" {
		t.Fatalf("expected first non-bare facebook link, got %q", got["facebook"])
	}
	if got["instagram"] != "https://instagram.com/acme_pizza" {
		t.Fatalf("expected bare instagram domain skipped, got %q", got["instagram"])
	}
}

func TestIsBareDomain(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://facebook.com", true},
		{"https://facebook.com/", true},
		{"https://facebook.com/?ref=share", true},
		{"https://facebook.com/acme", false},
	}
	for _, tc := range cases {
		if got := IsBareDomain(tc.url); got != tc.want {
			t.Fatalf("IsBareDomain(%q)=%v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestIsContactPath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/contact", true},
		{"/kontakt.html", true},
		{"/about-us", true},
		{"/impressum", true},
		{"/products", false},
		{"/blog/post-1", false},
	}
	for _, tc := range cases {
		if got := IsContactPath(tc.path); got != tc.want {
			t.Fatalf("IsContactPath(%q)=%v, want %v", tc.path, got, tc.want)
		}
	}
}
