package stage

import (
	"context"
	"fmt"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
)

// RunBulkTranslation translates the active cv_data into targetLanguage
//. It never overwrites the original: the result is a proposal the
// accept engine turns into a new immutable snapshot
// `cv_state_translated_<lang>`. Cached by (source_hash, target_language).
func RunBulkTranslation(ctx context.Context, client *llm.Client, rec *session.Record, targetLanguage cv.Language) (*cv.Data, error) {
	active, err := activeCV(rec)
	if err != nil {
		return nil, err
	}
	sourceHash := session.ContentSignature(active, active.Language)

	key := session.ProposalCacheKey{
		Stage:           session.StageBulkTranslation,
		BaseCVSignature: sourceHash,
		JobSignature:    string(targetLanguage),
	}
	if cached, err := lookupCached(rec, key); err != nil {
		return nil, err
	} else if cached != nil {
		var out cv.Data
		if err := unmarshalPayload(cached.Payload, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}

	var out cv.Data
	prov, err := llm.CallStage(ctx, client, llm.StageBulkTranslation, string(targetLanguage), active, &out)
	if err != nil {
		return nil, err
	}
	if len(out.WorkExperience) != len(active.WorkExperience) ||
		len(out.Education) != len(active.Education) ||
		len(out.FurtherExperience) != len(active.FurtherExperience) {
		return nil, fmt.Errorf("stage: bulk translation changed list shape, rejecting output")
	}
	out.Language = targetLanguage

	proposal, err := newProposal(session.StageBulkTranslation, out, prov)
	if err != nil {
		return nil, err
	}
	if err := storeCached(rec, key, proposal); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptBulkTranslation stores the translated document as a new snapshot,
// flips active_state_id to it, and marks the stage accepted; the
// original snapshot is left untouched.
func AcceptBulkTranslation(rec *session.Record, translated *cv.Data, targetLanguage cv.Language) error {
	snaps, err := rec.CVStateSnapshotMap()
	if err != nil {
		return err
	}
	snapKey := "translated_" + string(targetLanguage)
	snaps[snapKey] = translated
	if err := rec.SetCVStateSnapshotMap(snaps); err != nil {
		return err
	}
	rec.Metadata.ActiveStateID = snapKey
	rec.Metadata.TargetLanguage = targetLanguage
	if err := rec.SetCV(translated); err != nil {
		return err
	}
	setRuntime(rec, session.StageBulkTranslation, session.RuntimeAccepted)
	return nil
}

// activeCV returns the document bulk translation works from: cv_data.
// AcceptBulkTranslation writes the snapshot active_state_id points at
// into cv_data as well, and update_field edits land only in cv_data, so
// it is the current form of the active state; the stored snapshots are
// not read here.
func activeCV(rec *session.Record) (*cv.Data, error) {
	return rec.CV()
}
