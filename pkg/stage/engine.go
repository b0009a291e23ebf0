// Package stage implements the per-stage engines: each turns
// (session_state, user_inputs) into a proposal, plus a separate accept
// engine that commits a proposal into cv_data; choosing the next stage is
// left to the wizard dispatcher. Every stage family tracks its own
// idle -> preview -> accepted runtime state.
package stage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
)

func marshalPayload(payload any) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("stage: marshal proposal payload: %w", err)
	}
	return raw, nil
}

func unmarshalPayload(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("stage: unmarshal cached proposal payload: %w", err)
	}
	return nil
}

// cacheKey builds the stable string key proposal_cache is addressed by
// (keyed by {stage, job_signature, base_cv_signature}).
func cacheKey(k session.ProposalCacheKey) string {
	return fmt.Sprintf("%s|%s|%s", k.Stage, k.JobSignature, k.BaseCVSignature)
}

// lookupCached returns a previously cached proposal for this key, if any.
func lookupCached(rec *session.Record, key session.ProposalCacheKey) (*session.Proposal, error) {
	cache, err := rec.ProposalCacheMap()
	if err != nil {
		return nil, err
	}
	if p, ok := cache[cacheKey(key)]; ok {
		return &p, nil
	}
	return nil, nil
}

// storeCached persists a newly computed proposal under its cache key and
// sets it as the session's current (not-yet-accepted) proposal for its
// stage.
func storeCached(rec *session.Record, key session.ProposalCacheKey, p session.Proposal) error {
	cache, err := rec.ProposalCacheMap()
	if err != nil {
		return err
	}
	cache[cacheKey(key)] = p
	if err := rec.SetProposalCacheMap(cache); err != nil {
		return err
	}
	setRuntime(rec, p.Stage, session.RuntimePreview)
	return nil
}

// setRuntime transitions one stage family's idle -> preview -> accepted
// state.
func setRuntime(rec *session.Record, s session.Stage, state session.StageRuntimeState) {
	if rec.Metadata.StageRuntime == nil {
		rec.Metadata.StageRuntime = map[session.Stage]session.StageRuntimeState{}
	}
	rec.Metadata.StageRuntime[s] = state
}

// newProposal wraps a stage engine's output payload with provenance and a
// timestamp.
func newProposal(s session.Stage, payload any, prov llm.Provenance) (session.Proposal, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return session.Proposal{}, err
	}
	return session.Proposal{
		Stage:     s,
		CreatedAt: time.Now(),
		Payload:   raw,
		Provenance: session.LLMProvenance{
			EffectiveSystemPromptHash: prov.EffectiveSystemPromptHash,
			StagePromptSource:         prov.StagePromptSource,
			UserPayloadHash:           prov.UserPayloadHash,
		},
	}, nil
}
