package sources

import (
	"testing"

	"github.com/anatolykoptev/go_jobmarket/internal/engine"
)

const sampleLinkedInJSON = `{
	"data": {
		"jobs": [
			{
				"job_id": "4021000001",
				"job_title": "Data Engineer",
				"location": "New York, NY",
				"created_at": "2025-08-14 10:15:00",
				"description": "We use Spark, Kafka and Snowflake daily.",
				"job_url": "https://www.linkedin.com/jobs/view/4021000001",
				"salary": "$140k-$170k"
			},
			{
				"job_id": "4021000002",
				"job_title": "BI Developer",
				"location": "Remote",
				"created_at": "2025-08-13 08:00:00",
				"description": "",
				"job_url": "https://www.linkedin.com/jobs/view/4021000002",
				"salary": ""
			},
			{
				"job_id": "",
				"job_title": "Broken Row"
			}
		]
	}
}`

func TestParseLinkedInResponse(t *testing.T) {
	engine.Init(engine.Config{PerProvider: 30})

	postings, err := parseLinkedInResponse([]byte(sampleLinkedInJSON))
	if err != nil {
		t.Fatalf("parseLinkedInResponse error: %v", err)
	}

	// Row without a job_id is skipped.
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}

	p := postings[0]
	if p.JobID != "4021000001" {
		t.Errorf("job_id = %q", p.JobID)
	}
	if p.Title != "Data Engineer" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Created != "2025-08-14 10:15:00" {
		t.Errorf("created = %q", p.Created)
	}
	if p.Description == "" {
		t.Error("description should be carried through")
	}
	if p.Salary != "$140k-$170k" {
		t.Errorf("salary = %q", p.Salary)
	}
}

func TestParseLinkedInResponseCap(t *testing.T) {
	engine.Init(engine.Config{PerProvider: 1})

	postings, err := parseLinkedInResponse([]byte(sampleLinkedInJSON))
	if err != nil {
		t.Fatalf("parseLinkedInResponse error: %v", err)
	}
	if len(postings) != 1 {
		t.Errorf("expected cap to 1 posting, got %d", len(postings))
	}
}

func TestParseLinkedInResponseError(t *testing.T) {
	if _, err := parseLinkedInResponse([]byte(`nope`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
