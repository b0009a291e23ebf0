// Package wizard implements the stage-gated action dispatcher: the
// single place an incoming tool call is turned into a stage transition and
// an event_log entry on the record. Handlers are pure with respect to
// everything except the *session.Record they're handed; Dispatch owns
// gating and logging around them, and its callers own loading and
// persisting the record.
package wizard

import "github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"

// Action identifies one wizard action.
type Action string

const (
	ActionBootstrapSession     Action = "extract_and_store_cv"
	ActionSelectLanguage       Action = "select_language"
	ActionConfirmContact       Action = "confirm_contact"
	ActionConfirmEducation     Action = "confirm_education"
	ActionUpdateField          Action = "update_field"
	ActionRunBulkTranslation   Action = "run_bulk_translation"
	ActionAcceptBulkTranslation Action = "accept_bulk_translation"
	ActionRunJobPosting        Action = "run_job_posting_extraction"
	ActionAcceptJobPosting     Action = "accept_job_posting"
	ActionRunWorkExperience    Action = "run_work_experience_tailoring"
	ActionAcceptWorkExperience Action = "accept_work_experience_tailoring"
	ActionRunFurtherExperience Action = "run_further_experience"
	ActionAcceptFurtherExperience Action = "accept_further_experience"
	ActionRunSkills            Action = "run_skills_unification"
	ActionAcceptSkills         Action = "accept_skills_unification"
	ActionRunEducationTranslation Action = "run_education_translation"
	ActionAcceptEducationTranslation Action = "accept_education_translation"
	ActionRunCoverLetter       Action = "run_cover_letter"
	ActionAcceptCoverLetter    Action = "accept_cover_letter"
	ActionGotoStage            Action = "goto_stage"
)

// stageOf maps each action to the stage it operates within. Actions not
// listed here (bootstrap, goto_stage, update_field) are stage-agnostic:
// update_field may write to any field regardless of the current stage
//, and goto_stage
// is itself the navigation primitive.
var stageOf = map[Action]session.Stage{
	ActionSelectLanguage:             session.StageLanguageSelection,
	ActionRunBulkTranslation:         session.StageBulkTranslation,
	ActionAcceptBulkTranslation:      session.StageBulkTranslation,
	ActionConfirmContact:             session.StageContact,
	ActionConfirmEducation:           session.StageEducation,
	ActionRunEducationTranslation:    session.StageEducation,
	ActionAcceptEducationTranslation: session.StageEducation,
	ActionRunJobPosting:              session.StageJobPosting,
	ActionAcceptJobPosting:           session.StageJobPosting,
	ActionRunWorkExperience:          session.StageWorkExperience,
	ActionAcceptWorkExperience:       session.StageWorkExperience,
	ActionRunFurtherExperience:       session.StageFurtherExperience,
	ActionAcceptFurtherExperience:    session.StageFurtherExperience,
	ActionRunSkills:                  session.StageSkills,
	ActionAcceptSkills:               session.StageSkills,
	ActionRunCoverLetter:             session.StageCoverLetter,
	ActionAcceptCoverLetter:          session.StageCoverLetter,
}

// allowedJump reports whether the wizard may move from `from` directly to
// `to` via goto_stage: one step forward or backward along the declared
// Order, or a jump to any stage already visited (back-navigation).
func allowedJump(history []session.Stage, from, to session.Stage) bool {
	if to == from {
		return true
	}
	for _, s := range history {
		if s == to {
			return true
		}
	}
	fromIdx, toIdx := indexOf(from), indexOf(to)
	if fromIdx < 0 || toIdx < 0 {
		return false
	}
	return toIdx == fromIdx+1
}

func indexOf(s session.Stage) int {
	for i, o := range session.Order {
		if o == s {
			return i
		}
	}
	return -1
}

// stageReachable reports whether an action naturally belonging to `want`
// may run while the record sits at `current`: the current stage, or one
// already visited (a user revisiting an earlier stage's action after
// navigating back).
func stageReachable(history []session.Stage, current, want session.Stage) bool {
	if current == want {
		return true
	}
	for _, s := range history {
		if s == want {
			return true
		}
	}
	return false
}
