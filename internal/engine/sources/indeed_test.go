package sources

import "testing"

const sampleIndeedJSON = `{
	"returnvalue": {
		"data": [
			{
				"jobKey": "abc123",
				"title": "Machine Learning Engineer",
				"jobUrl": "https://www.indeed.com/viewjob?jk=abc123",
				"location": {"country": "US"},
				"datePublished": "2025-08-14",
				"attributes": ["Python", "TensorFlow", "AWS"],
				"salary": {"salaryText": "$150,000 - $190,000 a year"}
			},
			{
				"jobKey": "def456",
				"title": "Data Analyst",
				"jobUrl": "https://www.indeed.com/viewjob?jk=def456",
				"location": {"country": "US"},
				"datePublished": "2025-08-14",
				"attributes": [],
				"salary": {}
			},
			{
				"jobKey": "",
				"title": "Broken Row"
			}
		]
	}
}`

func TestParseIndeedResponse(t *testing.T) {
	postings, err := parseIndeedResponse([]byte(sampleIndeedJSON))
	if err != nil {
		t.Fatalf("parseIndeedResponse error: %v", err)
	}

	// Row without a jobKey is skipped.
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}

	p := postings[0]
	if p.JobID != "abc123" {
		t.Errorf("job_id = %q", p.JobID)
	}
	if p.Title != "Machine Learning Engineer" {
		t.Errorf("title = %q", p.Title)
	}
	if p.RawSkills != "Python, TensorFlow, AWS" {
		t.Errorf("raw skills = %q, want joined attributes", p.RawSkills)
	}
	if p.Salary != "$150,000 - $190,000 a year" {
		t.Errorf("salary = %q", p.Salary)
	}
	if p.Location != "US" {
		t.Errorf("location = %q", p.Location)
	}

	if postings[1].RawSkills != "" {
		t.Errorf("empty attributes should give empty raw skills, got %q", postings[1].RawSkills)
	}
}

func TestParseIndeedResponseError(t *testing.T) {
	if _, err := parseIndeedResponse([]byte(`{`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
