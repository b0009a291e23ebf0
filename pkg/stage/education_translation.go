package stage

import (
	"context"
	"encoding/json"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
)

type educationTranslationOutput struct {
	Education []cv.EducationEntry `json:"education"`
}

// RunEducationTranslation translates education entries into
// targetLanguage, preserving the entry count.
func RunEducationTranslation(ctx context.Context, client *llm.Client, rec *session.Record, targetLanguage cv.Language, current []cv.EducationEntry) ([]cv.EducationEntry, error) {
	payload := map[string]any{"education": current}

	var out educationTranslationOutput
	prov, err := llm.CallStage(ctx, client, llm.StageEducationTranslation, string(targetLanguage), payload, &out)
	if err != nil {
		return nil, err
	}

	currentJSON, _ := json.Marshal(current)
	key := session.ProposalCacheKey{Stage: session.StageEducation, JobSignature: string(targetLanguage), BaseCVSignature: session.Sum256Hex(string(currentJSON))}
	proposal, err := newProposal(session.StageEducation, out, prov)
	if err != nil {
		return nil, err
	}
	if err := storeCached(rec, key, proposal); err != nil {
		return nil, err
	}
	return out.Education, nil
}

// AcceptEducationTranslation replaces cv_data.education wholesale.
func AcceptEducationTranslation(rec *session.Record, entries []cv.EducationEntry) error {
	d, err := rec.CV()
	if err != nil {
		return err
	}
	d.Education = entries
	if err := rec.SetCV(d); err != nil {
		return err
	}
	setRuntime(rec, session.StageEducation, session.RuntimeAccepted)
	return nil
}
