package chat

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core/kid"
)

const planSystemPrompt = "You are a patient tutor who helps parents break school tasks down into small, " +
	"concrete steps that a child can check off one by one."

var planTemplate = template.Must(template.New("plan").Funcs(template.FuncMap{"join": strings.Join}).Parse(
	`Create a step-by-step learning plan for the following task, tailored to the child described below.

Task:
{{.Description}}

Child profile:
- Name: {{.Kid.Name}}
- Age: {{.Kid.Age}}
{{- if .Kid.Gender}}
- Gender: {{.Kid.Gender}}{{end}}
{{- if .Kid.Interests}}
- Interests: {{join .Kid.Interests ", "}}{{end}}
{{- if .Kid.Personality}}
- Personality: {{.Kid.Personality}}{{end}}
{{- if .Kid.LearningStyle}}
- Learning style: {{.Kid.LearningStyle}}{{end}}

Organize the plan in short sections. Start each section with a title ending with a colon,
followed by a numbered or bulleted list of small actions the child can check off.
Use simple, encouraging words suited to a {{.Kid.Age}}-year-old and connect the steps to their interests when possible.
`))

type planData struct {
	Description string
	Kid         kid.Kid
}

func planPrompt(description string, k kid.Kid) (string, error) {
	var buf bytes.Buffer
	if err := planTemplate.Execute(&buf, planData{Description: description, Kid: k}); err != nil {
		return "", errors.Wrap(err, "rendering plan prompt")
	}
	return buf.String(), nil
}
