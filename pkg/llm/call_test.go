package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
)

func TestSanitize_StripsControlCharsAndCollapsesSpaces(t *testing.T) {
	got := llm.Sanitize("Hello\n\tworld   foo\r\n bar\x01baz")
	require.Equal(t, "Hello world foo bar baz", got)
}

func TestCallStage_MockMode_ParsesFixture(t *testing.T) {
	t.Setenv("LLM_MOCK", "1")
	c, err := llm.NewClient(context.Background(), "")
	require.NoError(t, err)

	var out struct {
		RoleTitle string `json:"role_title"`
	}
	prov, err := llm.CallStage(context.Background(), c, llm.StageJobPosting, "en", map[string]string{"posting": "..."}, &out)
	require.NoError(t, err)
	require.Equal(t, "Senior Backend Engineer", out.RoleTitle)
	require.NotEmpty(t, prov.EffectiveSystemPromptHash)
	require.NotEmpty(t, prov.UserPayloadHash)
	require.Equal(t, string(llm.StageJobPosting), prov.StagePromptSource)
}

func TestCallCorrection_MockMode_TagsProvenanceSource(t *testing.T) {
	t.Setenv("LLM_MOCK", "1")
	c, err := llm.NewClient(context.Background(), "")
	require.NoError(t, err)

	var out struct {
		WorkExperience []struct {
			Employer string   `json:"employer"`
			Bullets  []string `json:"bullets"`
		} `json:"work_experience"`
	}
	prov, err := llm.CallCorrection(context.Background(), c, llm.StageWorkExperience, "en",
		[]string{"work_experience[0].bullets[1] is 230 chars, limit 200"},
		map[string]any{"work_experience": []map[string]any{{"employer": "Acme Corp"}}},
		&out)
	require.NoError(t, err)
	require.NotEmpty(t, out.WorkExperience)
	require.Equal(t, string(llm.StageWorkExperience)+"_correction", prov.StagePromptSource)
}

func TestCheckWorkExperienceGuard_FlagsUnknownEmployer(t *testing.T) {
	violations := llm.CheckWorkExperienceGuard(
		[]string{"Acme Corp"},
		[]string{"Acme Corp", "Globex Inc"},
	)
	require.Len(t, violations, 1)
	require.Contains(t, violations[0].Detail, "Globex Inc")
}

func TestCheckCoverLetterGuard_FlagsJobOnlyToolClaim(t *testing.T) {
	violations := llm.CheckCoverLetterGuard(
		[]string{"Go", "PostgreSQL"},
		[]string{"Kubernetes"},
		"I have hands-on experience with Kubernetes in production.",
	)
	require.Len(t, violations, 1)
	require.Equal(t, "cover_letter_no_job_only_tool_claim", violations[0].Rule)
}
