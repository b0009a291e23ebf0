package stage

import (
	"context"
	"fmt"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
)

type skillsOutput struct {
	ITAISkills        []string `json:"it_ai_skills"`
	TechnicalOpSkills []string `json:"technical_operational_skills"`
}

// RunSkillsUnification produces two disjoint ordered skill lists (5-8
// items each, no duplicates across the two lists), drawn only from tools
// present in the candidate profile and job summary.
func RunSkillsUnification(ctx context.Context, client *llm.Client, rec *session.Record, jobSummary JobPosting, profileSkills []string) (itAI, techOp []string, err error) {
	payload := map[string]any{
		"job_summary":    jobSummary,
		"profile_skills": profileSkills,
	}

	var out skillsOutput
	prov, err := llm.CallStage(ctx, client, llm.StageSkillsUnification, string(rec.Metadata.TargetLanguage), payload, &out)
	if err != nil {
		return nil, nil, err
	}

	known := append(append([]string{}, profileSkills...), jobSummary.ToolsTech...)
	all := append(append([]string{}, out.ITAISkills...), out.TechnicalOpSkills...)
	if violations := llm.CheckSkillsGuard(known, all); len(violations) > 0 {
		return nil, nil, fmt.Errorf("stage: skills guard rejected proposal: %v", violations)
	}
	if d := duplicateAcrossLists(out.ITAISkills, out.TechnicalOpSkills); d != "" {
		return nil, nil, fmt.Errorf("stage: skill %q duplicated across both lists", d)
	}
	for _, lst := range [][]string{out.ITAISkills, out.TechnicalOpSkills} {
		if n := len(lst); n < 5 || n > 8 {
			return nil, nil, fmt.Errorf("stage: skills unification returned %d items, expected 5-8", n)
		}
	}

	key := session.ProposalCacheKey{Stage: session.StageSkills, JobSignature: session.Sum256Hex(jobSummary.RoleTitle)}
	proposal, err := newProposal(session.StageSkills, out, prov)
	if err != nil {
		return nil, nil, err
	}
	if err := storeCached(rec, key, proposal); err != nil {
		return nil, nil, err
	}
	return out.ITAISkills, out.TechnicalOpSkills, nil
}

func duplicateAcrossLists(a, b []string) string {
	set := make(map[string]bool, len(a))
	for _, x := range a {
		set[x] = true
	}
	for _, x := range b {
		if set[x] {
			return x
		}
	}
	return ""
}

// AcceptSkillsUnification replaces both skill lists wholesale.
func AcceptSkillsUnification(rec *session.Record, itAI, techOp []string) error {
	d, err := rec.CV()
	if err != nil {
		return err
	}
	d.ITAISkills = itAI
	d.TechnicalOpSkills = techOp
	if err := rec.SetCV(d); err != nil {
		return err
	}
	setRuntime(rec, session.StageSkills, session.RuntimeAccepted)
	return nil
}
