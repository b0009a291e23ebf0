package readiness_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/readiness"
)

func TestCheck_MissingFieldsBlocksGeneration(t *testing.T) {
	d := cv.Empty()
	res := readiness.Check(d, map[string]bool{}, cv.Result{OK: false}, false)
	require.False(t, res.CanGenerate)
	require.Contains(t, res.Missing, "full_name")
	require.Contains(t, res.Missing, "work_experience")
	require.Contains(t, res.Missing, "education")
	require.Contains(t, res.Missing, "contact_confirmed")
	require.Contains(t, res.Missing, "education_confirmed")
}

func TestCheck_ReadyWhenEverythingSatisfied(t *testing.T) {
	d := cv.Empty()
	d.FullName = "John Doe"
	d.Email = "j@d.com"
	d.Phone = "+1 555"
	d.WorkExperience = []cv.WorkRole{{Employer: "Acme", Title: "Eng", Bullets: []string{"Did things"}}}
	d.Education = []cv.EducationEntry{{Institution: "MIT", Title: "BSc"}}

	res := readiness.Check(d, map[string]bool{"contact_confirmed": true, "education_confirmed": true}, cv.Result{OK: true}, false)
	require.True(t, res.CanGenerate)
	require.Empty(t, res.Missing)
}

func TestCheck_PendingProposalBlocksGeneration(t *testing.T) {
	d := cv.Empty()
	d.FullName = "John Doe"
	d.Email = "j@d.com"
	d.Phone = "+1 555"
	d.WorkExperience = []cv.WorkRole{{Employer: "Acme", Title: "Eng"}}
	d.Education = []cv.EducationEntry{{Institution: "MIT", Title: "BSc"}}

	res := readiness.Check(d, map[string]bool{"contact_confirmed": true, "education_confirmed": true}, cv.Result{OK: true}, true)
	require.False(t, res.CanGenerate)
	require.Contains(t, res.Missing, "pending_proposal_must_resolve")
}
