package wizard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/stage"
)

// latestJobPosting returns the most recently cached job-posting
// extraction, so later stages (work experience, skills, cover letter)
// don't require the caller to re-submit the posting text on every turn.
func latestJobPosting(rec *session.Record) (stage.JobPosting, error) {
	cache, err := rec.ProposalCacheMap()
	if err != nil {
		return stage.JobPosting{}, err
	}
	var latest *session.Proposal
	for k := range cache {
		p := cache[k]
		if p.Stage != session.StageJobPosting {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			pc := p
			latest = &pc
		}
	}
	if latest == nil {
		return stage.JobPosting{}, fmt.Errorf("wizard: no job posting extracted yet")
	}
	var out stage.JobPosting
	if err := json.Unmarshal(latest.Payload, &out); err != nil {
		return stage.JobPosting{}, fmt.Errorf("wizard: decode cached job posting: %w", err)
	}
	return out, nil
}

func handleRunJobPosting(ctx context.Context, d *Dispatcher, rec *session.Record, params json.RawMessage) (any, error) {
	var body struct {
		PostingText string `json:"posting_text"`
	}
	if err := json.Unmarshal(params, &body); err != nil {
		return nil, fmt.Errorf("wizard: run_job_posting_extraction params: %w", err)
	}
	return stage.RunJobPostingExtraction(ctx, d.LLM, rec, body.PostingText)
}

func handleAcceptJobPosting(_ context.Context, _ *Dispatcher, rec *session.Record, _ json.RawMessage) (any, error) {
	stage.AcceptJobPosting(rec)
	return nil, nil
}

func handleRunBulkTranslation(ctx context.Context, d *Dispatcher, rec *session.Record, params json.RawMessage) (any, error) {
	var body struct {
		TargetLanguage cv.Language `json:"target_language"`
	}
	if err := json.Unmarshal(params, &body); err != nil {
		return nil, fmt.Errorf("wizard: run_bulk_translation params: %w", err)
	}
	return stage.RunBulkTranslation(ctx, d.LLM, rec, body.TargetLanguage)
}

func handleAcceptBulkTranslation(_ context.Context, _ *Dispatcher, rec *session.Record, params json.RawMessage) (any, error) {
	var body struct {
		Translated     cv.Data     `json:"translated"`
		TargetLanguage cv.Language `json:"target_language"`
	}
	if err := json.Unmarshal(params, &body); err != nil {
		return nil, fmt.Errorf("wizard: accept_bulk_translation params: %w", err)
	}
	return nil, stage.AcceptBulkTranslation(rec, &body.Translated, body.TargetLanguage)
}

func handleRunEducationTranslation(ctx context.Context, d *Dispatcher, rec *session.Record, params json.RawMessage) (any, error) {
	var body struct {
		TargetLanguage cv.Language `json:"target_language"`
	}
	if err := json.Unmarshal(params, &body); err != nil {
		return nil, fmt.Errorf("wizard: run_education_translation params: %w", err)
	}
	current, err := rec.CV()
	if err != nil {
		return nil, err
	}
	return stage.RunEducationTranslation(ctx, d.LLM, rec, body.TargetLanguage, current.Education)
}

func handleAcceptEducationTranslation(_ context.Context, _ *Dispatcher, rec *session.Record, params json.RawMessage) (any, error) {
	var body struct {
		Education []cv.EducationEntry `json:"education"`
	}
	if err := json.Unmarshal(params, &body); err != nil {
		return nil, fmt.Errorf("wizard: accept_education_translation params: %w", err)
	}
	return nil, stage.AcceptEducationTranslation(rec, body.Education)
}

func handleRunWorkExperience(ctx context.Context, d *Dispatcher, rec *session.Record, params json.RawMessage) (any, error) {
	var body struct {
		UserNotes    string `json:"user_notes"`
		UserFeedback string `json:"user_feedback"`
	}
	if err := json.Unmarshal(params, &body); err != nil {
		return nil, fmt.Errorf("wizard: run_work_experience_tailoring params: %w", err)
	}
	job, err := latestJobPosting(rec)
	if err != nil {
		return nil, err
	}
	d2, err := rec.CV()
	if err != nil {
		return nil, err
	}
	return stage.RunWorkExperienceTailoring(ctx, d.LLM, rec, stage.WorkExperienceInput{
		JobSummary:   job,
		Profile:      d2.Profile,
		UserNotes:    body.UserNotes,
		UserFeedback: body.UserFeedback,
		CurrentRoles: d2.WorkExperience,
	})
}

func handleAcceptWorkExperience(_ context.Context, _ *Dispatcher, rec *session.Record, params json.RawMessage) (any, error) {
	var body struct {
		WorkExperience []cv.WorkRole `json:"work_experience"`
	}
	if err := json.Unmarshal(params, &body); err != nil {
		return nil, fmt.Errorf("wizard: accept_work_experience_tailoring params: %w", err)
	}
	return nil, stage.AcceptWorkExperienceTailoring(rec, body.WorkExperience)
}

func handleRunFurtherExperience(ctx context.Context, d *Dispatcher, rec *session.Record, params json.RawMessage) (any, error) {
	var body struct {
		UserNotes string `json:"user_notes"`
	}
	if err := json.Unmarshal(params, &body); err != nil {
		return nil, fmt.Errorf("wizard: run_further_experience params: %w", err)
	}
	job, err := latestJobPosting(rec)
	if err != nil {
		return nil, err
	}
	d2, err := rec.CV()
	if err != nil {
		return nil, err
	}
	return stage.RunFurtherExperience(ctx, d.LLM, rec, job, d2.Profile, body.UserNotes, d2.FurtherExperience)
}

func handleAcceptFurtherExperience(_ context.Context, _ *Dispatcher, rec *session.Record, params json.RawMessage) (any, error) {
	var body struct {
		FurtherExperience []cv.Project `json:"further_experience"`
	}
	if err := json.Unmarshal(params, &body); err != nil {
		return nil, fmt.Errorf("wizard: accept_further_experience params: %w", err)
	}
	return nil, stage.AcceptFurtherExperience(rec, body.FurtherExperience)
}

func handleRunSkills(ctx context.Context, d *Dispatcher, rec *session.Record, _ json.RawMessage) (any, error) {
	job, err := latestJobPosting(rec)
	if err != nil {
		return nil, err
	}
	d2, err := rec.CV()
	if err != nil {
		return nil, err
	}
	profileSkills := append(append([]string{}, d2.ITAISkills...), d2.TechnicalOpSkills...)
	itAI, techOp, err := stage.RunSkillsUnification(ctx, d.LLM, rec, job, profileSkills)
	if err != nil {
		return nil, err
	}
	return map[string]any{"it_ai_skills": itAI, "technical_operational_skills": techOp}, nil
}

func handleAcceptSkills(_ context.Context, _ *Dispatcher, rec *session.Record, params json.RawMessage) (any, error) {
	var body struct {
		ITAISkills        []string `json:"it_ai_skills"`
		TechnicalOpSkills []string `json:"technical_operational_skills"`
	}
	if err := json.Unmarshal(params, &body); err != nil {
		return nil, fmt.Errorf("wizard: accept_skills_unification params: %w", err)
	}
	return nil, stage.AcceptSkillsUnification(rec, body.ITAISkills, body.TechnicalOpSkills)
}

func handleRunCoverLetter(ctx context.Context, d *Dispatcher, rec *session.Record, _ json.RawMessage) (any, error) {
	job, err := latestJobPosting(rec)
	if err != nil {
		return nil, err
	}
	d2, err := rec.CV()
	if err != nil {
		return nil, err
	}
	skills := append(append([]string{}, d2.ITAISkills...), d2.TechnicalOpSkills...)
	return stage.RunCoverLetter(ctx, d.LLM, rec, job, skills)
}

func handleAcceptCoverLetter(_ context.Context, _ *Dispatcher, rec *session.Record, _ json.RawMessage) (any, error) {
	stage.AcceptCoverLetter(rec)
	return nil, nil
}
