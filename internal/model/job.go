package model

import (
	"context"
	"encoding/json"
)

// JobPosting is the structured record extracted from a scraped job page.
// It is produced once per pipeline run and never modified afterwards.
type JobPosting struct {
	Role        string   `json:"role"`
	Experience  string   `json:"experience"`
	Skills      []string `json:"skills"`
	Description string   `json:"description"`
}

// String renders the posting as indented JSON, the form embedded in prompts.
func (j JobPosting) String() string {
	skills := j.Skills
	if skills == nil {
		skills = []string{}
	}
	j.Skills = skills
	b, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return j.Role
	}
	return string(b)
}

// EmailDraft is the terminal artifact of a pipeline run.
type EmailDraft struct {
	JobURL string
	Job    JobPosting
	Links  []string
	Body   string // model output, verbatim
}

// Notifier delivers a composed draft to wherever the user reads it.
type Notifier interface {
	Notify(ctx context.Context, draft EmailDraft) error
}
