package stage

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
)

// Hard constraints on a tailored work-experience proposal. Bullet length
// matches the canonical validator's hard cap; the count windows are the
// tailoring stage's own output contract.
const (
	maxBulletChars = 200

	minTailoredRoles = 3
	maxTailoredRoles = 4

	minBulletsPerRole = 2
	maxBulletsPerRole = 4

	minTotalBullets = 8
	maxTotalBullets = 12
)

// workConstraintViolations lists every hard-constraint breach in a
// tailored work-experience proposal, plus the indexes of the roles a
// compact correction call must carry. List-level breaches (role count,
// total bullet count) affect every role; bullet-level breaches affect
// only the offending role. An empty violation list means the proposal
// can be cached as-is.
func workConstraintViolations(roles []cv.WorkRole) (violations []string, affected []int) {
	listLevel := false
	if n := len(roles); n < minTailoredRoles || n > maxTailoredRoles {
		violations = append(violations, fmt.Sprintf("work_experience has %d roles, expected %d-%d", n, minTailoredRoles, maxTailoredRoles))
		listLevel = true
	}

	total := 0
	affectedSet := map[int]bool{}
	for i, role := range roles {
		total += len(role.Bullets)
		if b := len(role.Bullets); b < minBulletsPerRole || b > maxBulletsPerRole {
			violations = append(violations, fmt.Sprintf("work_experience[%d] has %d bullets, expected %d-%d", i, b, minBulletsPerRole, maxBulletsPerRole))
			affectedSet[i] = true
		}
		for j, bullet := range role.Bullets {
			if n := utf8.RuneCountInString(bullet); n > maxBulletChars {
				violations = append(violations, fmt.Sprintf("work_experience[%d].bullets[%d] is %d chars, limit %d", i, j, n, maxBulletChars))
				affectedSet[i] = true
			}
		}
	}
	if total < minTotalBullets || total > maxTotalBullets {
		violations = append(violations, fmt.Sprintf("work_experience has %d bullets total, expected %d-%d", total, minTotalBullets, maxTotalBullets))
		listLevel = true
	}

	if listLevel {
		for i := range roles {
			affected = append(affected, i)
		}
		return violations, affected
	}
	for i := range roles {
		if affectedSet[i] {
			affected = append(affected, i)
		}
	}
	return violations, affected
}

// correctWorkExperience issues one compact correction call carrying only
// the violations and the affected roles. When every role is affected the
// corrected list replaces the proposal wholesale (the model may merge or
// split roles to fix the counts); otherwise the corrected entries are
// spliced back over the affected indexes and must come back one-for-one.
func correctWorkExperience(ctx context.Context, client *llm.Client, targetLanguage string, roles []cv.WorkRole, violations []string, affected []int) ([]cv.WorkRole, error) {
	sent := make([]cv.WorkRole, 0, len(affected))
	for _, i := range affected {
		sent = append(sent, roles[i])
	}

	var out workExperienceOutput
	if _, err := llm.CallCorrection(ctx, client, llm.StageWorkExperience, targetLanguage, violations,
		map[string]any{"work_experience": sent}, &out); err != nil {
		return nil, err
	}

	var corrected []cv.WorkRole
	if len(affected) == len(roles) {
		corrected = out.WorkExperience
	} else {
		if len(out.WorkExperience) != len(affected) {
			return nil, fmt.Errorf("stage: correction returned %d roles for %d affected entries", len(out.WorkExperience), len(affected))
		}
		corrected = append([]cv.WorkRole{}, roles...)
		for k, i := range affected {
			corrected[i] = out.WorkExperience[k]
		}
	}

	if remaining, _ := workConstraintViolations(corrected); len(remaining) > 0 {
		return nil, fmt.Errorf("stage: work experience still violates hard constraints after correction: %v", remaining)
	}
	return corrected, nil
}
