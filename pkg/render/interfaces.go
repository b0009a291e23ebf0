// Package render implements the PDF generation path: signature-cached
// CV rendering, always-regenerate cover letters, and the narrow external
// collaborator interfaces for DOCX ingestion and HTML->PDF rasterization,
// both of which live outside this orchestrator's scope.
package render

import "context"

// DocxExtractor turns an uploaded word-processing document into
// structured fields plus an optional photo. This
// repository implements it only well enough to drive the orchestrator
// end-to-end; a production deployment swaps in a real DOCX parser without
// touching anything downstream of this interface.
type DocxExtractor interface {
	Extract(ctx context.Context, docxBytes []byte) (ExtractedFields, error)
}

// ExtractedFields is the DOCX collaborator's output: candidate fields plus
// an optional photo, staged into docx_prefill_unconfirmed until a confirm
// action copies them into cv_data.
type ExtractedFields struct {
	FullName       string
	Email          string
	Phone          string
	AddressLines   []string
	WorkExperience []ExtractedWorkRole
	Education      []ExtractedEducation
	PhotoBytes     []byte
	PhotoMIMEType  string
}

type ExtractedWorkRole struct {
	DateRange string   `json:"date_range"`
	Employer  string   `json:"employer"`
	Title     string   `json:"title"`
	Bullets   []string `json:"bullets"`
}

type ExtractedEducation struct {
	DateRange   string `json:"date_range"`
	Institution string `json:"institution"`
	Title       string `json:"title"`
}

// HTMLPDFRenderer rasterizes the canonical document (via an HTML
// intermediate) into a PDF. The specification treats
// this as an external service; the in-process implementation here keeps
// the render path testable without a browser/headless-chrome dependency
// that nothing in the retrieval pack provides.
type HTMLPDFRenderer interface {
	RenderHTML(ctx context.Context, html string) (pdf []byte, pageCount int, err error)
}
