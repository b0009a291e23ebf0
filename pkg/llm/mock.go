package llm

// mockFixture implements the LLM_MOCK=1 determinism hook: provider
// I/O is bypassed and a fixture response is returned, keyed by stage (the
// input hash is already folded into Provenance.UserPayloadHash for test
// assertions, so the fixture itself only needs to vary by stage).
func mockFixture(stage StageKey, _ string) string {
	if fixture, ok := mockFixtures[stage]; ok {
		return fixture
	}
	return `{}`
}

var mockFixtures = map[StageKey]string{
	StageJobPosting: `{
  "role_title": "Senior Backend Engineer",
  "company": "Acme Corp",
  "location": "Remote",
  "responsibilities": ["Design APIs", "Own service reliability"],
  "must_haves": ["Go", "PostgreSQL"],
  "nice_to_haves": ["Kubernetes"],
  "tools_tech": ["Go", "PostgreSQL", "Kubernetes"],
  "keywords": ["backend", "distributed systems"]
}`,
	StageBulkTranslation: `{
  "full_name": "John Doe", "email": "j@d.com", "phone": "+1 555 0100",
  "address_lines": [], "nationality": "", "birth_date": "",
  "profile": "Experienced backend engineer.", "target_role": "",
  "work_experience": [], "further_experience": [], "education": [],
  "languages": [], "it_ai_skills": [], "technical_operational_skills": [],
  "certifications": [], "trainings": [], "publications": [], "references": [],
  "interests": [], "data_privacy": "", "photo_url": "", "language": "en"
}`,
	StageWorkExperience: `{
  "work_experience": [
    {"date_range": "2021-2024", "employer": "Acme Corp", "location": "Remote", "title": "Senior Engineer", "bullets": ["Led migration of core service to Go", "Reduced p99 latency by improving query plans", "Owned on-call rotation for the payments cluster", "Mentored two junior engineers"]},
    {"date_range": "2018-2021", "employer": "Acme Corp", "location": "Berlin", "title": "Engineer", "bullets": ["Built the internal deployment pipeline", "Introduced contract tests between services", "Shipped the customer export API"]},
    {"date_range": "2016-2018", "employer": "Initech", "location": "Warsaw", "title": "Junior Developer", "bullets": ["Maintained the billing reconciliation jobs", "Automated weekly report generation"]}
  ]
}`,
	StageSkillsUnification: `{
  "it_ai_skills": ["Go", "PostgreSQL", "Kubernetes", "Docker", "Terraform"],
  "technical_operational_skills": ["Incident response", "Code review", "Mentoring", "Capacity planning", "Release management"]
}`,
	StageFurtherExperience: `{
  "further_experience": [
    {"date_range": "2019-2020", "organization": "Open Source Project", "title": "Maintainer", "bullets": ["Reviewed community contributions"]}
  ]
}`,
	StageCoverLetter: `{
  "body": "I am excited to apply my backend engineering experience to this role.",
  "closing": "Thank you for your consideration."
}`,
	StageEducationTranslation: `{
  "education": [
    {"date_range": "2016-2020", "institution": "MIT", "title": "BSc Computer Science", "details": []}
  ]
}`,
}
