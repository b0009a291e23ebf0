package stage

import (
	"context"
	"fmt"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
)

// WorkExperienceInput is the caller-assembled input for tailoring:
// job summary, candidate profile, free-form user notes and feedback, and
// the current work history the guard checks proposed employers against.
type WorkExperienceInput struct {
	JobSummary    JobPosting
	Profile       string
	UserNotes     string
	UserFeedback  string
	CurrentRoles  []cv.WorkRole
}

type workExperienceOutput struct {
	WorkExperience []cv.WorkRole `json:"work_experience"`
}

// RunWorkExperienceTailoring produces 3-4 tailored roles (2-4 bullets
// each, 8-12 bullets total) from job summary + candidate profile + user
// notes/feedback + current work, using only employers/dates/metrics
// already present in the inputs.
func RunWorkExperienceTailoring(ctx context.Context, client *llm.Client, rec *session.Record, in WorkExperienceInput) ([]cv.WorkRole, error) {
	payload := map[string]any{
		"job_summary":   in.JobSummary,
		"profile":       llm.Sanitize(in.Profile),
		"user_notes":    llm.Sanitize(in.UserNotes),
		"user_feedback": llm.Sanitize(in.UserFeedback),
		"current_roles": in.CurrentRoles,
	}

	var out workExperienceOutput
	prov, err := llm.CallStage(ctx, client, llm.StageWorkExperience, string(rec.Metadata.TargetLanguage), payload, &out)
	if err != nil {
		return nil, err
	}

	knownEmployers := make([]string, 0, len(in.CurrentRoles))
	for _, r := range in.CurrentRoles {
		knownEmployers = append(knownEmployers, r.Employer)
	}
	if violations := llm.CheckWorkExperienceGuard(knownEmployers, employersOf(out.WorkExperience)); len(violations) > 0 {
		return nil, fmt.Errorf("stage: work experience guard rejected proposal: %v", violations)
	}

	if violations, affected := workConstraintViolations(out.WorkExperience); len(violations) > 0 {
		corrected, err := correctWorkExperience(ctx, client, string(rec.Metadata.TargetLanguage), out.WorkExperience, violations, affected)
		if err != nil {
			return nil, err
		}
		if gv := llm.CheckWorkExperienceGuard(knownEmployers, employersOf(corrected)); len(gv) > 0 {
			return nil, fmt.Errorf("stage: work experience guard rejected corrected proposal: %v", gv)
		}
		out.WorkExperience = corrected
	}

	key := session.ProposalCacheKey{Stage: session.StageWorkExperience, JobSignature: session.Sum256Hex(in.JobSummary.RoleTitle + in.JobSummary.Company)}
	proposal, err := newProposal(session.StageWorkExperience, out, prov)
	if err != nil {
		return nil, err
	}
	if err := storeCached(rec, key, proposal); err != nil {
		return nil, err
	}
	return out.WorkExperience, nil
}

func employersOf(roles []cv.WorkRole) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.Employer)
	}
	return out
}

// AcceptWorkExperienceTailoring replaces cv_data.work_experience wholesale
// (accept is replace-all, never a merge) and marks the stage accepted.
func AcceptWorkExperienceTailoring(rec *session.Record, roles []cv.WorkRole) error {
	d, err := rec.CV()
	if err != nil {
		return err
	}
	d.WorkExperience = roles
	if err := rec.SetCV(d); err != nil {
		return err
	}
	setRuntime(rec, session.StageWorkExperience, session.RuntimeAccepted)
	return nil
}
