package stage

import (
	"context"
	"fmt"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
)

// maxPostingTextBytes bounds the raw posting text accepted per stage.
const maxPostingTextBytes = 20 * 1024

// JobPosting is the job-posting extraction stage's output schema.
type JobPosting struct {
	RoleTitle        string   `json:"role_title"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	Responsibilities []string `json:"responsibilities"`
	MustHaves        []string `json:"must_haves"`
	NiceToHaves      []string `json:"nice_to_haves"`
	ToolsTech        []string `json:"tools_tech"`
	Keywords         []string `json:"keywords"`
}

// RunJobPostingExtraction composes and runs the job-posting extraction
// stage. Cached by sha256(posting_text): a repeat extraction of the
// same posting text returns the cached proposal without a fresh LLM call.
func RunJobPostingExtraction(ctx context.Context, client *llm.Client, rec *session.Record, postingText string) (JobPosting, error) {
	if len(postingText) > maxPostingTextBytes {
		return JobPosting{}, fmt.Errorf("stage: job posting text exceeds %d bytes", maxPostingTextBytes)
	}
	clean := llm.Sanitize(postingText)
	sig := session.Sum256Hex(clean)

	key := session.ProposalCacheKey{Stage: session.StageJobPosting, JobSignature: sig}
	if cached, err := lookupCached(rec, key); err != nil {
		return JobPosting{}, err
	} else if cached != nil {
		var out JobPosting
		if err := unmarshalPayload(cached.Payload, &out); err != nil {
			return JobPosting{}, err
		}
		return out, nil
	}

	var out JobPosting
	prov, err := llm.CallStage(ctx, client, llm.StageJobPosting, string(rec.Metadata.TargetLanguage), map[string]string{"posting_text": clean}, &out)
	if err != nil {
		return JobPosting{}, err
	}

	proposal, err := newProposal(session.StageJobPosting, out, prov)
	if err != nil {
		return JobPosting{}, err
	}
	if err := storeCached(rec, key, proposal); err != nil {
		return JobPosting{}, err
	}
	return out, nil
}

// AcceptJobPosting has no cv_data to commit (the extraction only feeds
// downstream stages); it marks the stage family accepted. Moving the
// wizard on to work-experience is left to the dispatcher.
func AcceptJobPosting(rec *session.Record) {
	setRuntime(rec, session.StageJobPosting, session.RuntimeAccepted)
}
