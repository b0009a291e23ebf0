package cv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSample() *Data {
	return &Data{
		FullName:     "John Doe",
		Email:        "j@d.com",
		Phone:        "+1 555 0100",
		AddressLines: []string{"123 Main St, Springfield"},
		Profile:      strings.Repeat("a", 120),
		WorkExperience: []WorkRole{
			{DateRange: "2020-2024", Employer: "Acme", Title: "Engineer", Bullets: []string{"Led team", "Shipped X"}},
		},
		Education: []EducationEntry{
			{DateRange: "2016-2020", Institution: "MIT", Title: "BSc"},
		},
		Languages:         []LanguageItem{{Name: "English", Level: "native"}},
		ITAISkills:        []string{"Go", "Python", "SQL", "Docker", "Kubernetes"},
		TechnicalOpSkills: []string{"Linux", "CI/CD", "Monitoring", "Networking", "Terraform"},
		Language:          LanguageEN,
	}
}

func TestValidate_HappyPath(t *testing.T) {
	r := Validate(validSample())
	require.True(t, r.OK, "errors: %+v", r.Errors)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, 1, r.EstimatedPages)
}

func TestValidate_EmptyWorkExperienceFailsRequired(t *testing.T) {
	d := validSample()
	d.WorkExperience = nil
	r := Validate(d)
	require.False(t, r.OK)
	found := false
	for _, e := range r.Errors {
		if e.FieldPath == "work_experience" && strings.Contains(e.Message, "required") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_BulletBoundaries(t *testing.T) {
	d := validSample()

	d.WorkExperience[0].Bullets = []string{strings.Repeat("x", 100)}
	r := Validate(d)
	assert.True(t, r.OK)
	assert.Empty(t, r.Warnings)

	d.WorkExperience[0].Bullets = []string{strings.Repeat("x", 101)}
	r = Validate(d)
	assert.True(t, r.OK)
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "work_experience[0].bullets[0]", r.Warnings[0].FieldPath)

	d.WorkExperience[0].Bullets = []string{strings.Repeat("x", 201)}
	r = Validate(d)
	assert.False(t, r.OK)
	require.NotEmpty(t, r.Errors)
}

func TestValidate_DuplicateSkillAcrossLists(t *testing.T) {
	d := validSample()
	d.TechnicalOpSkills[0] = d.ITAISkills[0]
	r := Validate(d)
	assert.False(t, r.OK)
}

func TestValidate_IsIdempotent(t *testing.T) {
	d := validSample()
	r1 := Validate(d)
	r2 := Validate(d)
	assert.Equal(t, r1, r2)
}

func TestValidate_PageOverflow(t *testing.T) {
	d := validSample()
	for i := 0; i < 5; i++ {
		d.WorkExperience = append(d.WorkExperience, WorkRole{
			Employer: "Acme", Title: "Engineer",
			Bullets: []string{strings.Repeat("x", 190), strings.Repeat("x", 190), strings.Repeat("x", 190), strings.Repeat("x", 190)},
		})
	}
	r := Validate(d)
	assert.False(t, r.OK)
	assert.Greater(t, r.EstimatedPages, 2)
}
