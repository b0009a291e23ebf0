package cv

import (
	"fmt"
	"strings"
)

// Page-fit budget. Heights are in millimeters; usable page area for
// a two-page A4/Letter document after margins, header and footer, minus a
// safety buffer so near-boundary documents still render cleanly.
const (
	usableHeightMM = 594.0
	pageBufferMM   = 24.0
	budgetMM       = usableHeightMM - pageBufferMM

	heightPerLineMM       = 4.2
	heightHeaderBlockMM   = 34.0
	heightSectionTitleMM  = 9.0
	heightWorkRoleBaseMM  = 10.0
	heightProjectBaseMM   = 8.0
	heightEducationBaseMM = 8.0
)

// Severity-bearing field limits.
const (
	maxFullName    = 50
	maxEmail       = 100
	minPhone, maxPhone = 5, 30
	maxAddressLine = 60
	minProfile, maxProfile = 50, 400
	maxBulletHard  = 200
	maxBulletSoft  = 100
	maxSkillItem   = 50
)

// ValidationError is a single structured validator finding.
type ValidationError struct {
	FieldPath  string `json:"field_path"`
	Current    any    `json:"current"`
	Limit      any    `json:"limit"`
	Excess     any    `json:"excess,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (e ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.FieldPath, e.Message) }

// Result is the full output of Validate.
type Result struct {
	OK             bool              `json:"ok"`
	Errors         []ValidationError `json:"errors"`
	Warnings       []ValidationError `json:"warnings"`
	EstimatedPages int               `json:"estimated_pages"`
}

// Validate deterministically checks a canonical Data document against
// every length, count and page-fit constraint. It performs no I/O and
// calls no LLM; running it twice on the same input always yields the
// same Result.
func Validate(d *Data) Result {
	r := Result{Errors: []ValidationError{}, Warnings: []ValidationError{}}
	if d == nil {
		r.Errors = append(r.Errors, ValidationError{FieldPath: "cv_data", Message: "document is nil"})
		return finish(r)
	}

	validateContact(d, &r)
	validateProfile(d, &r)
	validateWorkExperience(d, &r)
	validateFurtherExperience(d, &r)
	validateEducation(d, &r)
	validateLanguages(d, &r)
	validateSkills(d, &r)

	r.EstimatedPages = estimatePages(d)
	if r.EstimatedPages > 2 {
		r.Errors = append(r.Errors, ValidationError{
			FieldPath:  "cv_data",
			Current:    r.EstimatedPages,
			Limit:      2,
			Message:    "document does not fit the two-page budget",
			Suggestion: "shorten bullets or reduce the number of work-experience entries",
		})
	}

	return finish(r)
}

func finish(r Result) Result {
	r.OK = len(r.Errors) == 0
	return r
}

func validateContact(d *Data, r *Result) {
	if strings.TrimSpace(d.FullName) == "" {
		r.Errors = append(r.Errors, required("full_name"))
	} else if len(d.FullName) > maxFullName {
		r.Errors = append(r.Errors, tooLong("full_name", d.FullName, maxFullName))
	}

	if strings.TrimSpace(d.Email) == "" {
		r.Errors = append(r.Errors, required("email"))
	} else if len(d.Email) > maxEmail {
		r.Errors = append(r.Errors, tooLong("email", d.Email, maxEmail))
	}

	if l := len(d.Phone); l == 0 {
		r.Errors = append(r.Errors, required("phone"))
	} else if l < minPhone || l > maxPhone {
		r.Errors = append(r.Errors, ValidationError{
			FieldPath: "phone", Current: l, Limit: fmt.Sprintf("%d-%d", minPhone, maxPhone),
			Message: "phone must be between 5 and 30 characters",
		})
	}

	if n := len(d.AddressLines); n == 0 || n > 2 {
		r.Errors = append(r.Errors, ValidationError{
			FieldPath: "address_lines", Current: n, Limit: "1-2",
			Message: "address_lines must contain 1 or 2 entries",
		})
	}
	for i, line := range d.AddressLines {
		if len(line) > maxAddressLine {
			r.Errors = append(r.Errors, tooLong(fmt.Sprintf("address_lines[%d]", i), line, maxAddressLine))
		}
	}
}

func validateProfile(d *Data, r *Result) {
	n := len(d.Profile)
	if n < minProfile || n > maxProfile {
		r.Errors = append(r.Errors, ValidationError{
			FieldPath: "profile", Current: n, Limit: fmt.Sprintf("%d-%d", minProfile, maxProfile),
			Message: "profile must be between 50 and 400 characters",
		})
	}
}

func validateWorkExperience(d *Data, r *Result) {
	n := len(d.WorkExperience)
	if n == 0 {
		r.Errors = append(r.Errors, required("work_experience"))
	} else if n > 5 {
		r.Errors = append(r.Errors, countExceeded("work_experience", n, 5))
	}

	for i, role := range d.WorkExperience {
		path := fmt.Sprintf("work_experience[%d]", i)
		if strings.TrimSpace(role.Employer) == "" {
			r.Errors = append(r.Errors, required(path+".employer"))
		}
		if strings.TrimSpace(role.Title) == "" {
			r.Errors = append(r.Errors, required(path+".title"))
		}
		if b := len(role.Bullets); b == 0 || b > 4 {
			r.Errors = append(r.Errors, countExceeded(path+".bullets", b, 4))
		}
		validateBullets(path, role.Bullets, r)
	}
}

func validateFurtherExperience(d *Data, r *Result) {
	if n := len(d.FurtherExperience); n > 3 {
		r.Errors = append(r.Errors, countExceeded("further_experience", n, 3))
	}
	for i, p := range d.FurtherExperience {
		path := fmt.Sprintf("further_experience[%d]", i)
		if b := len(p.Bullets); b > 3 {
			r.Errors = append(r.Errors, countExceeded(path+".bullets", b, 3))
		}
		validateBullets(path, p.Bullets, r)
	}
}

func validateEducation(d *Data, r *Result) {
	n := len(d.Education)
	if n == 0 {
		r.Errors = append(r.Errors, required("education"))
	} else if n > 3 {
		r.Errors = append(r.Errors, countExceeded("education", n, 3))
	}
	for i, e := range d.Education {
		path := fmt.Sprintf("education[%d]", i)
		if strings.TrimSpace(e.Institution) == "" {
			r.Errors = append(r.Errors, required(path+".institution"))
		}
		if len(e.Details) > 2 {
			r.Errors = append(r.Errors, countExceeded(path+".details", len(e.Details), 2))
		}
	}
}

func validateLanguages(d *Data, r *Result) {
	if n := len(d.Languages); n == 0 || n > 5 {
		r.Errors = append(r.Errors, ValidationError{
			FieldPath: "languages", Current: n, Limit: "1-5",
			Message: "languages must contain between 1 and 5 entries",
		})
	}
}

func validateSkills(d *Data, r *Result) {
	validateSkillList("it_ai_skills", d.ITAISkills, r)
	validateSkillList("technical_operational_skills", d.TechnicalOpSkills, r)

	seen := map[string]bool{}
	for _, s := range d.ITAISkills {
		seen[strings.ToLower(strings.TrimSpace(s))] = true
	}
	for _, s := range d.TechnicalOpSkills {
		key := strings.ToLower(strings.TrimSpace(s))
		if seen[key] {
			r.Errors = append(r.Errors, ValidationError{
				FieldPath: "technical_operational_skills", Current: s,
				Message: "skill duplicated across it_ai_skills and technical_operational_skills",
			})
		}
	}
}

func validateSkillList(field string, items []string, r *Result) {
	if n := len(items); n < 5 || n > 8 {
		r.Errors = append(r.Errors, ValidationError{
			FieldPath: field, Current: n, Limit: "5-8",
			Message: field + " must contain between 5 and 8 entries",
		})
	}
	for i, s := range items {
		if len(s) > maxSkillItem {
			r.Errors = append(r.Errors, tooLong(fmt.Sprintf("%s[%d]", field, i), s, maxSkillItem))
		}
	}
}

// validateBullets enforces the hard 200-char cap as an error and the
// soft 100-char cap as a warning: 100 passes clean, 101 warns, 201
// hard-errors.
func validateBullets(path string, bullets []string, r *Result) {
	for i, b := range bullets {
		n := len(b)
		bulletPath := fmt.Sprintf("%s.bullets[%d]", path, i)
		if n > maxBulletHard {
			r.Errors = append(r.Errors, tooLong(bulletPath, b, maxBulletHard))
			continue
		}
		if n > maxBulletSoft {
			r.Warnings = append(r.Warnings, ValidationError{
				FieldPath: bulletPath, Current: n, Limit: maxBulletSoft,
				Message:    "bullet exceeds the soft 100-character guideline",
				Suggestion: "tighten the bullet for better page-fit margin",
			})
		}
	}
}

func required(field string) ValidationError {
	return ValidationError{FieldPath: field, Message: field + " is required"}
}

func tooLong(field, value string, limit int) ValidationError {
	return ValidationError{
		FieldPath: field, Current: len(value), Limit: limit, Excess: len(value) - limit,
		Message:    fmt.Sprintf("%s exceeds the %d character limit", field, limit),
		Suggestion: "shorten the text",
	}
}

func countExceeded(field string, current, limit int) ValidationError {
	return ValidationError{
		FieldPath: field, Current: current, Limit: limit, Excess: current - limit,
		Message: fmt.Sprintf("%s has %d entries, limit is %d", field, current, limit),
	}
}

// estimatePages sums per-section height contributions and divides by the
// per-page half of the two-page budget, rounding up.
func estimatePages(d *Data) int {
	total := heightHeaderBlockMM

	total += heightSectionTitleMM + linesHeight(1)

	total += heightSectionTitleMM
	for _, role := range d.WorkExperience {
		total += heightWorkRoleBaseMM + linesHeight(len(role.Bullets))
	}

	if len(d.FurtherExperience) > 0 {
		total += heightSectionTitleMM
		for _, p := range d.FurtherExperience {
			total += heightProjectBaseMM + linesHeight(len(p.Bullets))
		}
	}

	total += heightSectionTitleMM
	for _, e := range d.Education {
		total += heightEducationBaseMM + linesHeight(len(e.Details))
	}

	total += heightSectionTitleMM + linesHeight(1)
	total += heightSectionTitleMM + linesHeight(2)

	pages := 1
	for total > budgetMM/2*float64(pages) {
		pages++
	}
	return pages
}

func linesHeight(lines int) float64 {
	return float64(lines) * heightPerLineMM
}
