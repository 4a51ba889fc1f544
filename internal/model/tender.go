// Package model defines the domain types shared across the application.
package model

import "time"

// Budget is a monetary amount in a given currency.
type Budget struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// TenderPreview is the summary record returned by list queries.
//
// Hash is the only stable identifier; TenderID is a human-facing label and
// is not guaranteed unique across re-fetches.
type TenderPreview struct {
	SubmissionDate time.Time `json:"submission_date"`
	Hash           string    `json:"tender_hash"`
	URI            string    `json:"tender_uri"`
	TenderID       string    `json:"tender_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Organization   string    `json:"organization_name"`
	Location       string    `json:"location"`
	ContractType   string    `json:"contract_type"`
	Categories     []string  `json:"categories"`
	Budget         Budget    `json:"budget"`
	LotCount       int       `json:"lot_count"`
	Saved          bool      `json:"is_saved"`
}

// Lot is a single lot within a tender.
type Lot struct {
	Number      string `json:"lot_number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Budget      Budget `json:"budget"`
}

// ProcurementDocument references a document attached to a tender.
type ProcurementDocument struct {
	ID       string `json:"document_id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// TenderDetail is the full tender record fetched on demand.
//
// AISummary and AIDocument are optional server-generated narrative texts;
// AIDocumentURL is set instead of AIDocument when the body lives at a URL.
type TenderDetail struct {
	TenderPreview

	Buyer              string                `json:"buyer_name"`
	BuyerID            string                `json:"buyer_id"`
	PlaceOfPerformance string                `json:"place_of_performance"`
	ContractTerms      string                `json:"contract_terms"`
	Lots               []Lot                 `json:"lots"`
	Documents          []ProcurementDocument `json:"documents"`
	AISummary          string                `json:"ai_summary,omitempty"`
	AIDocument         string                `json:"ai_document,omitempty"`
	AIDocumentURL      string                `json:"ai_document_url,omitempty"`
}

// TenderPage is one page of list results as returned by the server.
// HasNext comes straight from the server and is never computed locally.
type TenderPage struct {
	Items   []TenderPreview `json:"items"`
	Total   int             `json:"total"`
	Offset  int             `json:"offset"`
	Limit   int             `json:"limit"`
	HasNext bool            `json:"has_next"`
}
