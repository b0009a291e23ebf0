package stage

import (
	"context"
	"fmt"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
)

// CoverLetter is the cover-letter stage's output.
type CoverLetter struct {
	Body    string `json:"body"`
	Closing string `json:"closing"`
}

// RunCoverLetter drafts a cover letter body and closing line, rejecting
// any claim of hands-on experience with a tool that appears only in the
// job posting and not in the candidate profile.
func RunCoverLetter(ctx context.Context, client *llm.Client, rec *session.Record, jobSummary JobPosting, candidateSkills []string) (CoverLetter, error) {
	payload := map[string]any{
		"job_summary":      jobSummary,
		"candidate_skills": candidateSkills,
	}

	var out CoverLetter
	prov, err := llm.CallStage(ctx, client, llm.StageCoverLetter, string(rec.Metadata.TargetLanguage), payload, &out)
	if err != nil {
		return CoverLetter{}, err
	}

	jobOnlyTools := setDifference(jobSummary.ToolsTech, candidateSkills)
	if violations := llm.CheckCoverLetterGuard(candidateSkills, jobOnlyTools, out.Body+" "+out.Closing); len(violations) > 0 {
		return CoverLetter{}, fmt.Errorf("stage: cover letter guard rejected proposal: %v", violations)
	}

	key := session.ProposalCacheKey{Stage: session.StageCoverLetter, JobSignature: session.Sum256Hex(jobSummary.RoleTitle + jobSummary.Company)}
	proposal, err := newProposal(session.StageCoverLetter, out, prov)
	if err != nil {
		return CoverLetter{}, err
	}
	if err := storeCached(rec, key, proposal); err != nil {
		return CoverLetter{}, err
	}
	return out, nil
}

func setDifference(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, x := range b {
		inB[x] = true
	}
	var out []string
	for _, x := range a {
		if !inB[x] {
			out = append(out, x)
		}
	}
	return out
}

// AcceptCoverLetter marks the cover-letter stage accepted. The rendered
// text itself is persisted by the render path as a PDF artifact, not into
// cv_data.
func AcceptCoverLetter(rec *session.Record) {
	setRuntime(rec, session.StageCoverLetter, session.RuntimeAccepted)
}
