package stage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/stage"
)

func newMockClient(t *testing.T) *llm.Client {
	t.Helper()
	t.Setenv("LLM_MOCK", "1")
	c, err := llm.NewClient(context.Background(), "")
	require.NoError(t, err)
	return c
}

func TestRunJobPostingExtraction_CachesBySignature(t *testing.T) {
	client := newMockClient(t)
	rec, err := session.New("sess-1", time.Hour)
	require.NoError(t, err)

	out1, err := stage.RunJobPostingExtraction(context.Background(), client, rec, "We need a backend engineer.")
	require.NoError(t, err)
	require.Equal(t, "Senior Backend Engineer", out1.RoleTitle)

	out2, err := stage.RunJobPostingExtraction(context.Background(), client, rec, "We need a backend engineer.")
	require.NoError(t, err)
	require.Equal(t, out1, out2)

	cache, err := rec.ProposalCacheMap()
	require.NoError(t, err)
	require.Len(t, cache, 1, "second call should hit the cache, not add a new entry")
}

func TestRunWorkExperienceTailoring_RejectsUnknownEmployer(t *testing.T) {
	client := newMockClient(t)
	rec, err := session.New("sess-2", time.Hour)
	require.NoError(t, err)

	_, err = stage.RunWorkExperienceTailoring(context.Background(), client, rec, stage.WorkExperienceInput{
		JobSummary:   stage.JobPosting{RoleTitle: "Engineer", Company: "Acme Corp"},
		Profile:      "Experienced engineer.",
		CurrentRoles: []cv.WorkRole{{Employer: "Some Other Company", Title: "Dev"}},
	})
	require.Error(t, err, "mock fixture employer Acme Corp is not in CurrentRoles, guard must reject")
}

func TestRunWorkExperienceTailoring_AcceptsKnownEmployer(t *testing.T) {
	client := newMockClient(t)
	rec, err := session.New("sess-3", time.Hour)
	require.NoError(t, err)

	roles, err := stage.RunWorkExperienceTailoring(context.Background(), client, rec, stage.WorkExperienceInput{
		JobSummary: stage.JobPosting{RoleTitle: "Engineer", Company: "Acme Corp"},
		Profile:    "Experienced engineer.",
		CurrentRoles: []cv.WorkRole{
			{Employer: "Acme Corp", Title: "Dev"},
			{Employer: "Initech", Title: "Junior Developer"},
		},
	})
	require.NoError(t, err)
	require.Len(t, roles, 3)
	require.NoError(t, stage.AcceptWorkExperienceTailoring(rec, roles))

	d, err := rec.CV()
	require.NoError(t, err)
	require.Equal(t, roles, d.WorkExperience)
}

func TestRunSkillsUnification_ProducesDisjointLists(t *testing.T) {
	client := newMockClient(t)
	rec, err := session.New("sess-4", time.Hour)
	require.NoError(t, err)

	itAI, techOp, err := stage.RunSkillsUnification(context.Background(), client, rec,
		stage.JobPosting{RoleTitle: "Engineer", ToolsTech: []string{"Go", "PostgreSQL", "Kubernetes"}},
		[]string{"Docker", "Terraform", "Incident response", "Code review", "Mentoring", "Capacity planning", "Release management"})
	require.NoError(t, err)
	require.NotEmpty(t, itAI)
	require.NotEmpty(t, techOp)
}

func TestRunBulkTranslation_RejectsShapeMismatch(t *testing.T) {
	client := newMockClient(t)
	rec, err := session.New("sess-5", time.Hour)
	require.NoError(t, err)

	d, err := rec.CV()
	require.NoError(t, err)
	d.WorkExperience = []cv.WorkRole{{Employer: "Acme", Title: "Eng"}}
	require.NoError(t, rec.SetCV(d))

	_, err = stage.RunBulkTranslation(context.Background(), client, rec, cv.LanguageDE)
	require.Error(t, err, "mock fixture returns zero work_experience entries, shape check must reject")
}
