package scraper

import (
	"context"
	"testing"

	"github.com/octobees/leads-generator/worker/internal/classify"
	"github.com/octobees/leads-generator/worker/internal/entity"
)

func newTestReviewExtractor(page *fakePage) *ReviewExtractor {
	return NewReviewExtractor(page, classify.New("US"), discardLog(), func() {})
}

func janeReviewSnapshot(id string) reviewSnapshot {
	return reviewSnapshot{
		ID:          id,
		PhotoLabel:  "Photo of Jane Doe",
		ProfileText: "Jane Doe\nLocal Guide · 42 reviews",
		RatingLabel: "5 stars",
		Texts: []string{
			"Jane Doe",
			"Local Guide · 42 reviews",
			"Great pizza, friendly staff. Will come back for the calzone.",
			"Share",
		},
		LikesLabel: "12 people found this helpful",
		FullText:   "Jane Doe Local Guide · 42 reviews 2 months ago Great pizza, friendly staff. Will come back for the calzone.",
	}
}

func TestAssembleReview(t *testing.T) {
	e := newTestReviewExtractor(&fakePage{})

	r, ok := e.assembleReview(janeReviewSnapshot("r1"), 0)
	if !ok {
		t.Fatal("expected review to assemble")
	}
	if r.ReviewID != "r1" || r.Rating != 5 {
		t.Fatalf("unexpected identity or rating: %+v", r)
	}
	if r.ReviewerName == nil || *r.ReviewerName != "Jane Doe" {
		t.Fatalf("expected reviewer name from photo label, got %v", r.ReviewerName)
	}
	if r.ReviewerSubtitle == nil || *r.ReviewerSubtitle != "Local Guide · 42 reviews" {
		t.Fatalf("expected subtitle from profile text, got %v", r.ReviewerSubtitle)
	}
	if r.ReviewDate == nil || *r.ReviewDate != "2 months ago" {
		t.Fatalf("expected relative date, got %v", r.ReviewDate)
	}
	if r.ReviewText == nil || *r.ReviewText != "Great pizza, friendly staff. Will come back for the calzone." {
		t.Fatalf("expected longest non-metadata text, got %v", r.ReviewText)
	}
	if r.LikesCount == nil || *r.LikesCount != 12 {
		t.Fatalf("expected 12 likes, got %v", r.LikesCount)
	}
}

func TestAssembleReviewDiscardsWithoutRating(t *testing.T) {
	e := newTestReviewExtractor(&fakePage{})
	snap := janeReviewSnapshot("r1")
	snap.RatingLabel = ""
	snap.FullText = "Jane Doe Great pizza."

	if _, ok := e.assembleReview(snap, 0); ok {
		t.Fatal("a container without a parsable rating must be discarded")
	}
}

func TestAssembleReviewSkipsBusinessCardBleed(t *testing.T) {
	e := newTestReviewExtractor(&fakePage{})
	snap := janeReviewSnapshot("r1")
	snap.ProfileText = "Joe's Diner\n456 Oak Avenue, Suite 2"

	if _, ok := e.assembleReview(snap, 0); ok {
		t.Fatal("an address-shaped subtitle marks a listing card, not a review")
	}
}

func TestAssembleReviewSyntheticID(t *testing.T) {
	e := newTestReviewExtractor(&fakePage{})
	snap := janeReviewSnapshot("")

	r, ok := e.assembleReview(snap, 7)
	if !ok {
		t.Fatal("expected review to assemble")
	}
	if r.ReviewID != "review-0007" {
		t.Fatalf("expected ordinal-derived id, got %q", r.ReviewID)
	}
}

func TestExtractForFullPass(t *testing.T) {
	noRating := janeReviewSnapshot("r3")
	noRating.RatingLabel = ""
	noRating.FullText = "no rating text"

	second := janeReviewSnapshot("r2")
	second.PhotoLabel = "Photo of Budi Santoso"
	second.ProfileText = "Budi Santoso"

	page := &fakePage{}
	page.respond("const wantURL", true)
	page.respond(`data-item-id="authority"`, map[string]any{
		"title":       "Joe's Pizza",
		"ratingLabel": "4.5 stars (212)",
		"website":     "https://joespizza.example",
		"fragments":   []string{"123 Main Street", "+1 212-555-0188"},
	})
	page.respond(`button[role="tab"]`, true)
	page.respond(`seen[el.getAttribute('data-review-id')] = true`, 3)
	page.respond("photoLabel", []reviewSnapshot{
		janeReviewSnapshot("r1"),
		janeReviewSnapshot("r1"), // provider re-rendered the same review
		noRating,
		second,
	})
	page.respond("/share/i.test(l)", true)
	page.respond("box.value", "https://maps.app.goo.gl/abc123")
	page.respond(`aria-label="Back"`, true)
	page.respond(`div[role="feed"], div[role="article"]`, true)

	e := newTestReviewExtractor(page)
	three := 3
	b := entity.Business{
		URL:         "https://www.google.com/maps/place/joes-pizza",
		Name:        "Joe's Pizza",
		ReviewCount: &three,
	}

	reviews, details, err := e.ExtractFor(context.Background(), b, ReviewOptions{MaxReviews: 5, WithShareLinks: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Name != "Joe's Pizza" {
		t.Fatalf("expected panel title as details name, got %q", details.Name)
	}
	if details.Rating == nil || *details.Rating != 4.5 {
		t.Fatalf("expected panel rating 4.5, got %v", details.Rating)
	}
	if details.ReviewCount == nil || *details.ReviewCount != 212 {
		t.Fatalf("expected panel review count 212, got %v", details.ReviewCount)
	}
	if details.Website == nil || *details.Website != "https://joespizza.example" {
		t.Fatalf("expected panel website, got %v", details.Website)
	}
	if details.Address == nil || *details.Address != "123 Main Street" {
		t.Fatalf("expected panel address, got %v", details.Address)
	}
	if details.Phone == nil || *details.Phone != "+12125550188" {
		t.Fatalf("expected normalized panel phone, got %v", details.Phone)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews after dedup and rating discard, got %d", len(reviews))
	}
	if reviews[0].ReviewID != "r1" || reviews[1].ReviewID != "r2" {
		t.Fatalf("unexpected review identities: %q, %q", reviews[0].ReviewID, reviews[1].ReviewID)
	}
	for _, r := range reviews {
		if r.ShareLink == nil || *r.ShareLink != "https://maps.app.goo.gl/abc123" {
			t.Fatalf("expected share link on %s, got %v", r.ReviewID, r.ShareLink)
		}
	}
	// Each share dialog is closed with Escape before the next one opens.
	if len(page.keys) < 2 {
		t.Fatalf("expected Escape per share dialog, got %v", page.keys)
	}
}

func TestExtractForNoListingMatch(t *testing.T) {
	page := &fakePage{}
	page.respond("const wantURL", false)
	page.respond(`aria-label="Back"`, true)
	page.respond(`div[role="feed"], div[role="article"]`, true)

	e := newTestReviewExtractor(page)
	reviews, details, err := e.ExtractFor(context.Background(), entity.Business{
		URL:  "https://www.google.com/maps/place/gone",
		Name: "Gone",
	}, ReviewOptions{MaxReviews: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reviews) != 0 {
		t.Fatalf("expected no reviews for an unmatched listing, got %d", len(reviews))
	}
	if details.Name != "" || details.Rating != nil {
		t.Fatalf("an unmatched listing must yield no panel details: %+v", details)
	}
}

func TestParseStarRating(t *testing.T) {
	cases := []struct {
		label    string
		fullText string
		want     int
		found    bool
	}{
		{"5 stars", "", 5, true},
		{"4,0 bintang", "", 4, true},
		{"", "rated 3 stars two weeks ago", 3, true},
		{"0 stars", "", 0, false},
		{"", "no rating anywhere", 0, false},
	}
	for _, tc := range cases {
		got, found := parseStarRating(tc.label, tc.fullText)
		if found != tc.found || got != tc.want {
			t.Fatalf("parseStarRating(%q, %q)=(%d, %v), want (%d, %v)", tc.label, tc.fullText, got, found, tc.want, tc.found)
		}
	}
}

func TestResolveReviewerName(t *testing.T) {
	cases := []struct {
		name string
		snap reviewSnapshot
		want string
	}{
		{
			name: "photo label wins",
			snap: reviewSnapshot{PhotoLabel: "Photo of Jane Doe", ProfileText: "Other Name"},
			want: "Jane Doe",
		},
		{
			name: "profile text fallback",
			snap: reviewSnapshot{ProfileText: "Budi Santoso\nLocal Guide"},
			want: "Budi Santoso",
		},
		{
			name: "short text fallback skips metadata and dates",
			snap: reviewSnapshot{Texts: []string{"Local Guide · 10 reviews", "3 weeks ago", "Maria Lopez"}},
			want: "Maria Lopez",
		},
		{
			name: "nothing usable",
			snap: reviewSnapshot{Texts: []string{"Like", "Share"}},
			want: "",
		},
	}
	for _, tc := range cases {
		if got := resolveReviewerName(tc.snap); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseLikes(t *testing.T) {
	cases := []struct {
		in    string
		want  int
		found bool
	}{
		{"12 people found this helpful", 12, true},
		{"Like", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, found := parseLikes(tc.in)
		if found != tc.found || got != tc.want {
			t.Fatalf("parseLikes(%q)=(%d, %v), want (%d, %v)", tc.in, got, found, tc.want, tc.found)
		}
	}
}

func TestNormalizedPlacePath(t *testing.T) {
	got := normalizedPlacePath("https://www.google.com/maps/place/Joes-Pizza")
	if got != "/maps/place/joes-pizza" {
		t.Fatalf("expected lowercased place path, got %q", got)
	}
}
