// Package plan turns generated plan text into a checklist of steps and tracks their progress.
package plan

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var (
	headingRegex  = regexp.MustCompile(`^#{1,6}\s+`)
	listItemRegex = regexp.MustCompile(`^(?:[-*+•]|\d+[.)])\s+`)

	NewStepIDFunc IDFunc = RandomIDs // mockable
)

// Step is one checkable line item of a plan.
type Step struct {
	ID        string `json:"id"`
	Text      string `json:"text" validate:"required,max=500"`
	Completed bool   `json:"completed"`
}

// IDFunc generates the identifier of the step found at position pos with the given text.
type IDFunc func(pos int, text string) string

// RandomIDs generates a new random identifier every time; re-parsing the same text yields new IDs.
func RandomIDs(int, string) string {
	return uuid.New().String()
}

// StableIDs derives the identifier from the step position and text.
func StableIDs(pos int, text string) string {
	sum := sha1.Sum([]byte(strconv.Itoa(pos) + "\x00" + text))
	return hex.EncodeToString(sum[:8])
}

type Parser struct {
	NewID IDFunc
}

// Parse converts plan text into steps using random step IDs.
func Parse(text string) []Step {
	return Parser{NewID: NewStepIDFunc}.Parse(text)
}

// Parse converts free-form text (markdown headers, bullet/numbered lists or plain lines) into
// an ordered list of uncompleted steps:
//  - blank lines are skipped
//  - section headers are remembered, not emitted; a newer header replaces a pending one
//  - list items are emitted without their marker
//  - the first plain line after a header is emitted as "<section>: <line>", clearing the section
//  - any other line is emitted as-is
func (p Parser) Parse(text string) []Step {
	newID := p.NewID
	if newID == nil {
		newID = RandomIDs
	}

	steps := make([]Step, 0)
	var section string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isSectionHeader(line) {
			section = headingRegex.ReplaceAllString(line, "")
			continue
		}

		var stepText string
		switch {
		case listItemRegex.MatchString(line):
			stepText = strings.TrimSpace(listItemRegex.ReplaceAllString(line, ""))
		case section != "":
			// section keeps its trailing colon: "Section:" + ": " + line
			stepText = section + ": " + line
			section = ""
		default:
			stepText = line
		}
		steps = append(steps, Step{ID: newID(len(steps), stepText), Text: stepText})
	}
	return steps
}

// isSectionHeader matches "Title:", "## Title" and "ALL CAPS:" lines.
func isSectionHeader(line string) bool {
	return strings.HasSuffix(line, ":") || headingRegex.MatchString(line)
}
