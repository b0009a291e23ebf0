// Package cv defines the canonical résumé representation shared by every
// stage engine, the validator, and the PDF renderer. There is exactly one
// shape; nothing downstream accepts ad-hoc or partial documents.
package cv

import "encoding/json"

// Language is a closed set of supported document languages.
type Language string

const (
	LanguageEN Language = "en"
	LanguageDE Language = "de"
	LanguagePL Language = "pl"
)

// SupportedLanguages lists every Language the renderer and LLM prompts accept.
var SupportedLanguages = []Language{LanguageEN, LanguageDE, LanguagePL}

// WorkRole is a single work-experience entry.
type WorkRole struct {
	DateRange string   `json:"date_range"`
	Employer  string   `json:"employer"`
	Location  string   `json:"location,omitempty"`
	Title     string   `json:"title"`
	Bullets   []string `json:"bullets"`
}

// Project is a further-experience (side project) entry.
type Project struct {
	DateRange    string   `json:"date_range,omitempty"`
	Organization string   `json:"organization"`
	Title        string   `json:"title"`
	Bullets      []string `json:"bullets"`
}

// EducationEntry is a single education record.
type EducationEntry struct {
	DateRange   string   `json:"date_range"`
	Institution string   `json:"institution"`
	Title       string   `json:"title"`
	Details     []string `json:"details"`
}

// LanguageItem describes one spoken/written language the candidate knows.
// Accepted either as a plain string ("English (native)"), which becomes
// Name, or a structured {name, level} object.
type LanguageItem struct {
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
}

func (l *LanguageItem) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = LanguageItem{Name: s}
		return nil
	}
	type plain LanguageItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = LanguageItem(p)
	return nil
}

// Data is the canonical résumé document.
// All field paths referenced by update_field's path grammar resolve into
// this struct.
type Data struct {
	FullName     string   `json:"full_name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	AddressLines []string `json:"address_lines"`
	Nationality  string   `json:"nationality,omitempty"`
	BirthDate    string   `json:"birth_date,omitempty"`
	Profile      string   `json:"profile"`
	TargetRole   string   `json:"target_role,omitempty"`

	WorkExperience     []WorkRole       `json:"work_experience"`
	FurtherExperience  []Project        `json:"further_experience"`
	Education          []EducationEntry `json:"education"`
	Languages          []LanguageItem   `json:"languages"`
	ITAISkills         []string         `json:"it_ai_skills"`
	TechnicalOpSkills  []string         `json:"technical_operational_skills"`

	Certifications []string `json:"certifications,omitempty"`
	Trainings      []string `json:"trainings,omitempty"`
	Publications   []string `json:"publications,omitempty"`
	References     []string `json:"references,omitempty"`
	Interests      []string `json:"interests,omitempty"`
	DataPrivacy    string   `json:"data_privacy,omitempty"`

	PhotoURL string   `json:"photo_url,omitempty"`
	Language Language `json:"language"`
}

// Empty returns the canonical blank document a new session bootstraps
// with; no legacy state is ever merged into it.
func Empty() *Data {
	return &Data{
		AddressLines:      []string{},
		WorkExperience:    []WorkRole{},
		FurtherExperience: []Project{},
		Education:         []EducationEntry{},
		Languages:         []LanguageItem{},
		ITAISkills:        []string{},
		TechnicalOpSkills: []string{},
		Language:          LanguageEN,
	}
}

// Clone returns a deep copy so callers can mutate a proposal without
// aliasing the accepted session state.
func (d *Data) Clone() *Data {
	if d == nil {
		return nil
	}
	out := *d
	out.AddressLines = append([]string(nil), d.AddressLines...)
	out.WorkExperience = cloneWorkRoles(d.WorkExperience)
	out.FurtherExperience = cloneProjects(d.FurtherExperience)
	out.Education = cloneEducation(d.Education)
	out.Languages = append([]LanguageItem(nil), d.Languages...)
	out.ITAISkills = append([]string(nil), d.ITAISkills...)
	out.TechnicalOpSkills = append([]string(nil), d.TechnicalOpSkills...)
	out.Certifications = append([]string(nil), d.Certifications...)
	out.Trainings = append([]string(nil), d.Trainings...)
	out.Publications = append([]string(nil), d.Publications...)
	out.References = append([]string(nil), d.References...)
	out.Interests = append([]string(nil), d.Interests...)
	return &out
}

func cloneWorkRoles(in []WorkRole) []WorkRole {
	out := make([]WorkRole, len(in))
	for i, r := range in {
		out[i] = r
		out[i].Bullets = append([]string(nil), r.Bullets...)
	}
	return out
}

func cloneProjects(in []Project) []Project {
	out := make([]Project, len(in))
	for i, p := range in {
		out[i] = p
		out[i].Bullets = append([]string(nil), p.Bullets...)
	}
	return out
}

func cloneEducation(in []EducationEntry) []EducationEntry {
	out := make([]EducationEntry, len(in))
	for i, e := range in {
		out[i] = e
		out[i].Details = append([]string(nil), e.Details...)
	}
	return out
}
