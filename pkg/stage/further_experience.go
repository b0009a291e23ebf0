package stage

import (
	"context"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
)

type furtherExperienceOutput struct {
	FurtherExperience []cv.Project `json:"further_experience"`
}

// RunFurtherExperience summarizes side projects, volunteering, and open
// source contributions relevant to the job summary.
func RunFurtherExperience(ctx context.Context, client *llm.Client, rec *session.Record, jobSummary JobPosting, profile, userNotes string, current []cv.Project) ([]cv.Project, error) {
	payload := map[string]any{
		"job_summary": jobSummary,
		"profile":     llm.Sanitize(profile),
		"user_notes":  llm.Sanitize(userNotes),
		"current":     current,
	}

	var out furtherExperienceOutput
	prov, err := llm.CallStage(ctx, client, llm.StageFurtherExperience, string(rec.Metadata.TargetLanguage), payload, &out)
	if err != nil {
		return nil, err
	}

	key := session.ProposalCacheKey{Stage: session.StageFurtherExperience, JobSignature: session.Sum256Hex(jobSummary.RoleTitle)}
	proposal, err := newProposal(session.StageFurtherExperience, out, prov)
	if err != nil {
		return nil, err
	}
	if err := storeCached(rec, key, proposal); err != nil {
		return nil, err
	}
	return out.FurtherExperience, nil
}

// AcceptFurtherExperience replaces cv_data.further_experience wholesale,
// matching the replace-all semantics of work-experience accept.
func AcceptFurtherExperience(rec *session.Record, projects []cv.Project) error {
	d, err := rec.CV()
	if err != nil {
		return err
	}
	d.FurtherExperience = projects
	if err := rec.SetCV(d); err != nil {
		return err
	}
	setRuntime(rec, session.StageFurtherExperience, session.RuntimeAccepted)
	return nil
}
