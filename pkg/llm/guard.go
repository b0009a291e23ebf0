package llm

import "strings"

// GuardViolation describes one hallucination-guard rule failure:
// these run post-parse, after schema validation has already succeeded.
type GuardViolation struct {
	Rule    string
	Detail  string
}

// CheckWorkExperienceGuard enforces that tailored work experience never
// introduces an employer absent from the candidate's prior work history
// (it may reorder, rewrite, split or merge bullets, but not invent
// employers, dates, or metrics).
func CheckWorkExperienceGuard(knownEmployers []string, proposedEmployers []string) []GuardViolation {
	known := toLowerSet(knownEmployers)
	var violations []GuardViolation
	for _, e := range proposedEmployers {
		if !known[strings.ToLower(strings.TrimSpace(e))] {
			violations = append(violations, GuardViolation{
				Rule:   "work_tailor_no_new_employer",
				Detail: "employer not present in candidate inputs: " + e,
			})
		}
	}
	return violations
}

// CheckSkillsGuard enforces that unified skill lists introduce no
// tool/certification absent from the source inputs.
func CheckSkillsGuard(knownSkills []string, proposedSkills []string) []GuardViolation {
	known := toLowerSet(knownSkills)
	var violations []GuardViolation
	for _, sk := range proposedSkills {
		if !known[strings.ToLower(strings.TrimSpace(sk))] {
			violations = append(violations, GuardViolation{
				Rule:   "skills_no_new_tool",
				Detail: "skill not present in candidate inputs: " + sk,
			})
		}
	}
	return violations
}

// CheckCoverLetterGuard enforces that the cover letter never claims
// hands-on experience with a tool that appears only in the job posting
// and not anywhere in the candidate profile.
func CheckCoverLetterGuard(candidateSkills []string, jobOnlyTools []string, letterBody string) []GuardViolation {
	body := strings.ToLower(letterBody)
	known := toLowerSet(candidateSkills)
	var violations []GuardViolation
	for _, tool := range jobOnlyTools {
		t := strings.ToLower(strings.TrimSpace(tool))
		if known[t] {
			continue
		}
		if strings.Contains(body, t) {
			violations = append(violations, GuardViolation{
				Rule:   "cover_letter_no_job_only_tool_claim",
				Detail: "letter references job-only tool not in candidate profile: " + tool,
			})
		}
	}
	return violations
}

func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[strings.ToLower(strings.TrimSpace(it))] = true
	}
	return set
}
