package wizard

import (
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/readiness"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
)

// ContextPack is the bounded, phase-specific capsule the client's
// conversation layer may show alongside the wizard UI, never
// authoritative, never round-tripped back into a mutation (Glossary:
// Capsule / Context Pack).
type ContextPack struct {
	SessionID    string              `json:"session_id"`
	Stage        session.Stage       `json:"stage"`
	StageHistory []session.Stage     `json:"stage_history"`
	Readiness    readiness.Result    `json:"readiness"`
	Summary      ContextPackSummary  `json:"summary"`
	RecentEvents []session.Event     `json:"recent_events"`
}

// ContextPackSummary is the handful of canonical-document fields a
// conversation layer needs to narrate progress without re-deriving them
// from the full cv_data tree.
type ContextPackSummary struct {
	FullName          string `json:"full_name"`
	TargetRole        string `json:"target_role"`
	WorkExperienceLen int    `json:"work_experience_count"`
	EducationLen      int    `json:"education_count"`
}

// contextPackEventTail bounds how many event_log entries the capsule
// surfaces: a recency window, not the full bounded ring.
const contextPackEventTail = 5

// BuildContextPack assembles the generate_context_pack tool's response
// from an already-loaded, blob-resolved record.
func BuildContextPack(rec *session.Record) (*ContextPack, error) {
	d, err := rec.CV()
	if err != nil {
		return nil, err
	}
	validation := cv.Validate(d)

	hasPending := false
	for _, st := range rec.Metadata.StageRuntime {
		if st == session.RuntimePreview {
			hasPending = true
			break
		}
	}
	gate := readiness.Check(d, rec.Metadata.ConfirmedFlags, validation, hasPending)

	events, err := rec.EventLogEntries()
	if err != nil {
		return nil, err
	}
	if len(events) > contextPackEventTail {
		events = events[len(events)-contextPackEventTail:]
	}

	return &ContextPack{
		SessionID:    rec.SessionID,
		Stage:        rec.Metadata.Stage,
		StageHistory: rec.Metadata.StageHistory,
		Readiness:    gate,
		Summary: ContextPackSummary{
			FullName:          d.FullName,
			TargetRole:        d.TargetRole,
			WorkExperienceLen: len(d.WorkExperience),
			EducationLen:      len(d.Education),
		},
		RecentEvents: events,
	}, nil
}
