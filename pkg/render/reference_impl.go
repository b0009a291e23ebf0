package render

import (
	"bytes"
	"context"
	"fmt"
)

// StubDocxExtractor is a minimal DocxExtractor good enough to exercise the
// bootstrap path's docx_prefill_unconfirmed plumbing end-to-end. It does
// not parse real DOCX XML; any non-empty payload yields the same fixed
// candidate fields, which is enough to drive the confirm-from-prefill flow
// against a running server without a real parser. A production deployment
// replaces it with a real document parser without touching any caller.
type StubDocxExtractor struct{}

func (StubDocxExtractor) Extract(ctx context.Context, docxBytes []byte) (ExtractedFields, error) {
	if len(docxBytes) == 0 {
		return ExtractedFields{}, fmt.Errorf("render: empty docx payload")
	}
	return ExtractedFields{
		FullName:     "Document Candidate",
		Email:        "candidate@example.com",
		Phone:        "+1 555 0100",
		AddressLines: []string{"1 Resume St"},
		WorkExperience: []ExtractedWorkRole{
			{DateRange: "2019-2023", Employer: "Acme Corp", Title: "Software Engineer", Bullets: []string{"Shipped things."}},
		},
		Education: []ExtractedEducation{
			{DateRange: "2015-2019", Institution: "State University", Title: "BSc Computer Science"},
		},
	}, nil
}

// htmlPDFPageHeightMM is the page height the reference renderer divides
// its estimated content height by. It is independent of pkg/cv's
// validator model, so the two page counts can differ for the same
// document.
const htmlPDFPageHeightMM = 570.0

// StubHTMLPDFRenderer renders a deterministic, non-visual PDF-shaped byte
// stream in-process: good enough to drive content_signature-based caching
// and page-count assertions end-to-end. A production deployment swaps in
// a real headless-browser or wkhtmltopdf-backed renderer behind the same
// HTMLPDFRenderer interface.
type StubHTMLPDFRenderer struct{}

func (StubHTMLPDFRenderer) RenderHTML(ctx context.Context, html string) ([]byte, int, error) {
	pages := estimatePagesFromHTML(html)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n% generated by cv-wizard reference renderer\n")
	fmt.Fprintf(&buf, "%% pages=%d\n", pages)
	buf.WriteString(html)
	return buf.Bytes(), pages, nil
}

// estimatePagesFromHTML approximates rendered page count from content
// length using a fixed per-character height, rather than actually laying
// out a page. That is acceptable for a
// reference stand-in behind a narrow interface.
func estimatePagesFromHTML(html string) int {
	const heightPerCharMM = 0.06
	totalMM := float64(len(html)) * heightPerCharMM
	pages := 1
	for totalMM > htmlPDFPageHeightMM*float64(pages) {
		pages++
	}
	return pages
}
