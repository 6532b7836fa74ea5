package entity

// Enrichment stores supplemental contact details scraped from a business website.
type Enrichment struct {
	ContactPageURL *string           `json:"contact_page_url"`
	EmailsFound    []string          `json:"emails_found"`
	Social         map[string]string `json:"social"`
}
