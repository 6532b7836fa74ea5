package classify

import "testing"

func TestIsCategory(t *testing.T) {
	c := New("US")
	cases := []struct {
		in   string
		want bool
	}{
		{"Italian restaurant", true},
		{"Coffee shop", true},
		{"Hair salon", true},
		{"Sponsored", false},
		{"4.5(212)", false},
		{"123 Main Street", false},
		{"Open ⋅ Closes 9 PM", false},
		{"x", false},
		{"Event Venue", true},     // generic capitalized fallback
		{"Joe's Pizza Bar", true}, // keyword match
	}
	for _, tc := range cases {
		if got := c.IsCategory(tc.in); got != tc.want {
			t.Fatalf("IsCategory(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsAddress(t *testing.T) {
	c := New("US")
	cases := []struct {
		in   string
		want bool
	}{
		{"123 Main Street", true},
		{"Jl. Merdeka No. 45", true},
		{"456 Oak Avenue, Suite 2", true},
		{"Open ⋅ Closes 9 PM", false},
		{"Italian restaurant", false},
		{"12345", false},
		{"short st", false},
	}
	for _, tc := range cases {
		if got := c.IsAddress(tc.in); got != tc.want {
			t.Fatalf("IsAddress(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsPhone(t *testing.T) {
	c := New("US")
	cases := []struct {
		in   string
		want bool
	}{
		{"+1 212-555-0188", true},
		{"(021) 555-0123", true},
		{"0812 3456 789", true},
		{"call 212-555-0188", false}, // letters are not phone characters
		{"123456", false},            // too few digits
		{"+1234567890123456", false}, // too many digits
		{"4.5(212)", false},          // too few digits after stripping
	}
	for _, tc := range cases {
		if got := c.IsPhone(tc.in); got != tc.want {
			t.Fatalf("IsPhone(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsHoursStatus(t *testing.T) {
	c := New("US")
	cases := []struct {
		in   string
		want bool
	}{
		{"Open ⋅ Closes 9 PM", true},
		{"Closed ⋅ Opens 8 AM Mon", true},
		{"Open", true},
		{"Open 24 hours", true},
		{"Italian restaurant", false},
		{"123 Main Street", false},
	}
	for _, tc := range cases {
		if got := c.IsHoursStatus(tc.in); got != tc.want {
			t.Fatalf("IsHoursStatus(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClassifyPrecedenceAndClaiming(t *testing.T) {
	c := New("US")
	unclaimed := map[Kind]bool{
		KindCategory: true,
		KindAddress:  true,
		KindPhone:    true,
		KindHours:    true,
	}

	if got := c.Classify("Italian restaurant", unclaimed); got != KindCategory {
		t.Fatalf("expected category, got %v", got)
	}
	unclaimed[KindCategory] = false

	// With category claimed, a category-looking fragment is not re-claimed.
	if got := c.Classify("Coffee shop", unclaimed); got != KindNone {
		t.Fatalf("expected none for second category fragment, got %v", got)
	}

	if got := c.Classify("123 Main Street", unclaimed); got != KindAddress {
		t.Fatalf("expected address, got %v", got)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	c := New("US")
	unclaimed := map[Kind]bool{
		KindCategory: true,
		KindAddress:  true,
		KindPhone:    true,
		KindHours:    true,
	}
	first := c.Classify("Open ⋅ Closes 9 PM", unclaimed)
	for i := 0; i < 10; i++ {
		if got := c.Classify("Open ⋅ Closes 9 PM", unclaimed); got != first {
			t.Fatalf("classification not stable: %v then %v", first, got)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	c := New("US")
	if got := c.NormalizePhone("(212) 555-0188"); got != "+12125550188" {
		t.Fatalf("expected E.164 number, got %q", got)
	}
	// Unparsable fragments stay as-is.
	if got := c.NormalizePhone("555-01"); got != "555-01" {
		t.Fatalf("expected raw fragment kept, got %q", got)
	}
}
