package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/extract_job.md
var extractJobPromptRaw string

//go:embed prompts/cold_email.md
var coldEmailPromptRaw string

// ExtractJobTemplate renders the extraction prompt from {{.PageText}}.
var ExtractJobTemplate = template.Must(template.New("extract_job").Parse(extractJobPromptRaw))

// ColdEmailTemplate renders the composition prompt from the job, the links
// and the sender persona.
var ColdEmailTemplate = template.Must(template.New("cold_email").Parse(coldEmailPromptRaw))
