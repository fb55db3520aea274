// Package ner recognizes named entities in assignment emails.
//
// The core consumes entity recognition only through the Recognizer
// interface: text in, label -> values out. A failing recognizer contributes
// no entities and never fails a parse. The built-in recognizer is rule based
// and covers the entities that appear in carrier assignments: email
// addresses, phone numbers, URLs, dates, money amounts, claim numbers and
// insurer names.
//
// All functions are safe for concurrent use by multiple goroutines.
package ner

import "fmt"

// EntityType classifies a recognized entity.
type EntityType int

const (
	Email        EntityType = iota // email address
	Phone                          // North American phone number
	URL                            // http or https URL
	Date                           // numeric or month-name date
	Money                          // dollar amount
	ClaimNumber                    // value following a claim or policy number label
	Organization                   // known insurance carrier
)

var entityTypeLabels = [...]string{
	Email:        "EMAIL",
	Phone:        "PHONE",
	URL:          "URL",
	Date:         "DATE",
	Money:        "MONEY",
	ClaimNumber:  "CLAIMNUMBER",
	Organization: "ORGANIZATION",
}

// Label returns the upper-case label used as the key of Record.Entities.
func (t EntityType) Label() string {
	if int(t) >= 0 && int(t) < len(entityTypeLabels) {
		return entityTypeLabels[t]
	}
	return fmt.Sprintf("ENTITY_%d", int(t))
}

func (t EntityType) String() string { return t.Label() }

// Entity is one recognized span. s[e.Start:e.End] == e.Text holds for the
// input s.
type Entity struct {
	Text  string     `json:"text"`
	Start int        `json:"start"`
	End   int        `json:"end"`
	Type  EntityType `json:"type"`
}

func (e Entity) String() string {
	return fmt.Sprintf("%s(%q)[%d:%d]", e.Type, e.Text, e.Start, e.End)
}

// Group collects entity texts by label, keeping first-seen order and
// dropping duplicates.
func Group(entities []Entity) map[string][]string {
	out := make(map[string][]string)
	seen := make(map[string]bool)
	for _, e := range entities {
		label := e.Type.Label()
		key := label + "\x00" + e.Text
		if seen[key] {
			continue
		}
		seen[key] = true
		out[label] = append(out[label], e.Text)
	}
	return out
}
