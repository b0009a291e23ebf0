package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Provenance is persisted per LLM call so stateless traffic remains
// auditable. Stage engines copy these fields into the
// session record's LLMProvenance.
type Provenance struct {
	EffectiveSystemPromptHash string
	StagePromptSource         string
	UserPayloadHash           string
}

// InvalidError is the typed llm_invalid error: the provider
// returned unparseable or schema-violating output after one repair
// attempt.
type InvalidError struct {
	Stage      StageKey
	RawText    string
	Violations []string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("llm: stage %s returned invalid output after repair: %s", e.Stage, strings.Join(e.Violations, "; "))
}

// Sanitize replaces newlines, tabs and other control characters with a
// space and collapses runs of spaces. All user-provided free text passes
// through here before being embedded in a prompt.
func Sanitize(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r < 0x20 {
			r = ' '
		}
		if r == ' ' {
			if lastSpace {
				continue
			}
			lastSpace = true
		} else {
			lastSpace = false
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// CallStage composes the base prompt and the stage prompt (with
// {target_language} interpolated), attaches the stage's JSON schema,
// calls the provider under the stage's token budget, and parses the
// result into out. On parse failure it retries once with an appended
// schema-repair instruction; on persistent failure it returns
// *InvalidError.
func CallStage(ctx context.Context, c *Client, stage StageKey, targetLanguage string, userPayload any, out any) (Provenance, error) {
	spec, ok := stageSpecs[stage]
	if !ok {
		return Provenance{}, fmt.Errorf("llm: unknown stage %q", stage)
	}

	stagePrompt := strings.ReplaceAll(spec.prompt, "{target_language}", targetLanguage)
	systemPrompt := basePrompt + "\n\nJSON SCHEMA:\n" + spec.schema + "\n\nSTAGE INSTRUCTIONS:\n" + stagePrompt

	payloadJSON, err := json.Marshal(userPayload)
	if err != nil {
		return Provenance{}, fmt.Errorf("llm: marshal user payload: %w", err)
	}
	userPrompt := "INPUT:\n" + string(payloadJSON)

	prov := Provenance{
		EffectiveSystemPromptHash: sum256Hex(systemPrompt),
		StagePromptSource:         string(stage),
		UserPayloadHash:           sum256Hex(string(payloadJSON)),
	}

	rawText, err := c.generate(ctx, stage, systemPrompt, userPrompt, spec.maxOutputTokens)
	if err != nil {
		return prov, fmt.Errorf("llm: stage %s call failed: %w", stage, err)
	}

	violations := parseInto(rawText, out)
	if len(violations) == 0 {
		return prov, nil
	}

	slog.Warn("llm: schema violation, retrying with repair instruction", "stage", stage, "violations", violations)
	repairPrompt := userPrompt + "\n\nYour previous response failed validation for these reasons:\n" +
		strings.Join(violations, "\n") + "\n\nReturn a corrected JSON object that fixes every listed violation. Previous response was:\n" + rawText

	rawText2, err := c.generate(ctx, stage, systemPrompt, repairPrompt, spec.maxOutputTokens)
	if err != nil {
		return prov, fmt.Errorf("llm: stage %s repair call failed: %w", stage, err)
	}
	if violations2 := parseInto(rawText2, out); len(violations2) > 0 {
		return prov, &InvalidError{Stage: stage, RawText: rawText2, Violations: violations2}
	}
	return prov, nil
}

// correctionInstruction frames the compact correction call: the payload
// carries only the constraint violations and the affected entries, never
// the original stage input.
const correctionInstruction = `The entries below violate hard constraints. Return a corrected JSON object in the same schema containing ONLY the corrected entries, in the same order. Fix every listed violation. Keep all facts unchanged; shorten, split or merge text as needed, but never invent new content.`

// CallCorrection re-invokes a stage with a compact payload of constraint
// violations plus the affected entries only. It is a single attempt: the
// correction is itself the bounded retry for a proposal that parsed fine
// but broke a hard constraint, so a second failure returns *InvalidError.
func CallCorrection(ctx context.Context, c *Client, stage StageKey, targetLanguage string, violations []string, entries any, out any) (Provenance, error) {
	spec, ok := stageSpecs[stage]
	if !ok {
		return Provenance{}, fmt.Errorf("llm: unknown stage %q", stage)
	}

	stagePrompt := strings.ReplaceAll(spec.prompt, "{target_language}", targetLanguage)
	systemPrompt := basePrompt + "\n\nJSON SCHEMA:\n" + spec.schema + "\n\nSTAGE INSTRUCTIONS:\n" + stagePrompt +
		"\n\nCORRECTION INSTRUCTIONS:\n" + correctionInstruction

	payloadJSON, err := json.Marshal(map[string]any{
		"violations": violations,
		"entries":    entries,
	})
	if err != nil {
		return Provenance{}, fmt.Errorf("llm: marshal correction payload: %w", err)
	}
	userPrompt := "INPUT:\n" + string(payloadJSON)

	prov := Provenance{
		EffectiveSystemPromptHash: sum256Hex(systemPrompt),
		StagePromptSource:         string(stage) + "_correction",
		UserPayloadHash:           sum256Hex(string(payloadJSON)),
	}

	rawText, err := c.generate(ctx, stage, systemPrompt, userPrompt, spec.maxOutputTokens)
	if err != nil {
		return prov, fmt.Errorf("llm: stage %s correction call failed: %w", stage, err)
	}
	if violations2 := parseInto(rawText, out); len(violations2) > 0 {
		return prov, &InvalidError{Stage: stage, RawText: rawText, Violations: violations2}
	}
	return prov, nil
}

// parseInto attempts to unmarshal text into out, tolerating a model that
// wraps the JSON object in commentary or code fences. Returns a list of
// violations (empty on success).
func parseInto(text string, out any) []string {
	candidate := extractJSONObject(text)
	if candidate == "" {
		return []string{"response did not contain a JSON object"}
	}
	if err := json.Unmarshal([]byte(candidate), out); err != nil {
		return []string{fmt.Sprintf("json parse error: %v", err)}
	}
	return nil
}

// extractJSONObject returns the substring spanning the first '{' to the
// last '}' in text, or "" if neither brace is present. This tolerates
// models that ignore the "JSON only" instruction and wrap the object in
// prose or a markdown code fence.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func sum256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
