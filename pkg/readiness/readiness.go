// Package readiness implements the pure generation gate: the
// predicate that must hold before the render path is allowed to produce a
// PDF.
package readiness

import (
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
)

// Result is the gate's structured answer: the dispatcher surfaces Missing
// as actionable next steps when CanGenerate is false.
type Result struct {
	CanGenerate     bool            `json:"can_generate"`
	RequiredPresent bool            `json:"required_present"`
	ConfirmedFlags  map[string]bool `json:"confirmed_flags"`
	Missing         []string        `json:"missing"`
}

// Check evaluates the gate against the current canonical document,
// confirmation flags, validator result, and whether a proposal is
// pending. It performs no I/O.
func Check(d *cv.Data, confirmedFlags map[string]bool, validation cv.Result, hasPendingProposal bool) Result {
	var missing []string

	if d.FullName == "" {
		missing = append(missing, "full_name")
	}
	if d.Email == "" {
		missing = append(missing, "email")
	}
	if d.Phone == "" {
		missing = append(missing, "phone")
	}
	if len(d.WorkExperience) == 0 {
		missing = append(missing, "work_experience")
	}
	if len(d.Education) == 0 {
		missing = append(missing, "education")
	}
	if !confirmedFlags["contact_confirmed"] {
		missing = append(missing, "contact_confirmed")
	}
	if !confirmedFlags["education_confirmed"] {
		missing = append(missing, "education_confirmed")
	}

	requiredPresent := len(missing) == 0

	canGenerate := requiredPresent && validation.OK && !hasPendingProposal
	if hasPendingProposal {
		missing = append(missing, "pending_proposal_must_resolve")
	}
	if !validation.OK {
		missing = append(missing, "validator_not_ok")
	}

	return Result{
		CanGenerate:     canGenerate,
		RequiredPresent: requiredPresent,
		ConfirmedFlags:  confirmedFlags,
		Missing:         missing,
	}
}
