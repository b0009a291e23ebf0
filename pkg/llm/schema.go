package llm

// StageKey names one LLM-backed stage call. These are narrower than the
// wizard's session.Stage: several wizard stages (contact, review-final)
// never call the LLM at all, and bulk-translation/education-translation
// run as distinct calls, each with its own schema.
type StageKey string

const (
	StageJobPosting          StageKey = "job_posting"
	StageBulkTranslation     StageKey = "bulk_translation"
	StageWorkExperience      StageKey = "work_experience"
	StageSkillsUnification   StageKey = "skills_unification"
	StageFurtherExperience   StageKey = "further_experience"
	StageCoverLetter         StageKey = "cover_letter"
	StageEducationTranslation StageKey = "education_translation"
)

// stageSpec carries a stage's token budget, JSON schema and prompt. The
// budgets are fixed here; no configuration setting overrides them.
type stageSpec struct {
	maxOutputTokens int32
	schema          string
	prompt          string
}

// basePrompt is the short, stable, factual-JSON-only instruction shared by
// every stage call.
const basePrompt = `You are a deterministic résumé-content generator. Respond with ONLY a single JSON object matching the provided schema. Do not include commentary, markdown, or code fences. Every field in the schema is required unless marked optional.`

var stageSpecs = map[StageKey]stageSpec{
	StageJobPosting: {
		maxOutputTokens: 1200,
		schema: `{
  "role_title": "string",
  "company": "string",
  "location": "string",
  "responsibilities": ["string"],
  "must_haves": ["string"],
  "nice_to_haves": ["string"],
  "tools_tech": ["string"],
  "keywords": ["string"]
}`,
		prompt: "Extract structured requirements from the job posting text below. Only include tools, requirements and keywords that are explicitly present in the text.",
	},
	StageBulkTranslation: {
		maxOutputTokens: 2800,
		schema:          cvDataSchema,
		prompt:          "Translate every free-text field of the résumé below into {target_language}. Preserve structure exactly: same number of work roles, projects, education entries and bullets. Do not invent or drop content.",
	},
	StageWorkExperience: {
		maxOutputTokens: 2240,
		schema: `{
  "work_experience": [
    {"date_range": "string", "employer": "string", "location": "string", "title": "string", "bullets": ["string"]}
  ]
}`,
		prompt: "Tailor 3 to 4 work roles (2 to 4 bullets each, 8 to 12 bullets total) to the job summary, using only employers, dates and metrics present in the candidate profile and user notes below. Reorder, rewrite, split or merge bullets; never introduce an employer, date or metric absent from the inputs.",
	},
	StageSkillsUnification: {
		maxOutputTokens: 900,
		schema: `{
  "it_ai_skills": ["string"],
  "technical_operational_skills": ["string"]
}`,
		prompt: "Produce two disjoint ordered skill lists (5 to 8 items each, no duplicates across the two lists) drawn only from tools and skills present in the candidate profile and job summary below.",
	},
	StageFurtherExperience: {
		maxOutputTokens: 1400,
		schema: `{
  "further_experience": [
    {"date_range": "string", "organization": "string", "title": "string", "bullets": ["string"]}
  ]
}`,
		prompt: "Summarize further experience (projects, volunteering, open source) relevant to the job summary below, using only organizations and facts present in the candidate profile and user notes.",
	},
	StageCoverLetter: {
		maxOutputTokens: 1680,
		schema: `{
  "body": "string",
  "closing": "string"
}`,
		prompt: "Write a cover letter body and closing line in {target_language} addressed to the hiring team for the job summary below. Never claim hands-on experience with a tool that appears only in the job posting and not in the candidate profile.",
	},
	StageEducationTranslation: {
		maxOutputTokens: 700,
		schema: `{
  "education": [
    {"date_range": "string", "institution": "string", "title": "string", "details": ["string"]}
  ]
}`,
		prompt: "Translate the education entries below into {target_language}, preserving the same number of entries and details.",
	},
}

// cvDataSchema mirrors pkg/cv.Data's JSON shape; kept as a literal here so
// translation calls can request the whole document back in one schema
// without the llm package importing pkg/cv for prompt construction.
const cvDataSchema = `{
  "full_name": "string", "email": "string", "phone": "string",
  "address_lines": ["string"], "nationality": "string", "birth_date": "string",
  "profile": "string", "target_role": "string",
  "work_experience": [{"date_range":"string","employer":"string","location":"string","title":"string","bullets":["string"]}],
  "further_experience": [{"date_range":"string","organization":"string","title":"string","bullets":["string"]}],
  "education": [{"date_range":"string","institution":"string","title":"string","details":["string"]}],
  "languages": [{"name":"string","level":"string"}],
  "it_ai_skills": ["string"], "technical_operational_skills": ["string"],
  "certifications": ["string"], "trainings": ["string"], "publications": ["string"],
  "references": ["string"], "interests": ["string"], "data_privacy": "string",
  "photo_url": "string", "language": "string"
}`
