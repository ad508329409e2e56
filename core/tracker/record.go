package tracker

import (
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// ActionKind is the decision kind the model picks each iteration.
type ActionKind string

const (
	// ActionQuery asks for an external lookup before deciding.
	ActionQuery ActionKind = "query"
	// ActionFinal commits a behavior entry and ends the run.
	ActionFinal ActionKind = "final_decision"
	// ActionIdle keeps thinking without doing anything this round.
	ActionIdle ActionKind = "idle"
)

// Behavior is a committed activity of the character.
type Behavior struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Activity string `json:"activity"`
	Cause    string `json:"cause"`
	Mood     string `json:"mood"`
	Notes    string `json:"notes"`
}

// NextAction is the model's proposal for what to do next.
type NextAction struct {
	Type     ActionKind `json:"type"`
	Content  string     `json:"content,omitempty"`
	Behavior *Behavior  `json:"behavior,omitempty"`
}

// ThoughtOutput is the typed answer of one thought step.
type ThoughtOutput struct {
	Thought    string     `json:"thought"`
	NextAction NextAction `json:"next_action"`
}

// Step is one completed Thought→Query→Decision iteration.
type Step struct {
	Iteration   int            `json:"iteration"`
	Thought     string         `json:"thought"`
	Action      ActionKind     `json:"action"`
	Query       string         `json:"query,omitempty"`
	QueryResult map[string]any `json:"query_result,omitempty"`
	Behavior    *Behavior      `json:"behavior,omitempty"`
	Terminal    bool           `json:"terminal,omitempty"`
}

// BehaviorRecord is the ordered outcome of one run. Complete is false
// when the run stopped on an error, so a partial record is never
// mistaken for a finished one.
type BehaviorRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Steps     []Step    `json:"steps"`
	Complete  bool      `json:"complete"`
}

// FinalBehavior returns the committed behavior, if the run reached one.
func (r *BehaviorRecord) FinalBehavior() *Behavior {
	for i := len(r.Steps) - 1; i >= 0; i-- {
		if r.Steps[i].Behavior != nil {
			return r.Steps[i].Behavior
		}
	}
	return nil
}

func thoughtSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"thought": {
				Type:        jsonschema.String,
				Description: "The character's inner monologue for this round",
			},
			"next_action": {
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"type": {
						Type: jsonschema.String,
						Enum: []string{string(ActionQuery), string(ActionFinal), string(ActionIdle)},
					},
					"content": {
						Type:        jsonschema.String,
						Description: "What to look up, when type is query",
					},
					"behavior": {
						Type:        jsonschema.Object,
						Description: "The committed activity, when type is final_decision",
						Properties: map[string]jsonschema.Definition{
							"start":    {Type: jsonschema.String},
							"end":      {Type: jsonschema.String},
							"activity": {Type: jsonschema.String},
							"cause":    {Type: jsonschema.String},
							"mood":     {Type: jsonschema.String},
							"notes":    {Type: jsonschema.String},
						},
						Required: []string{"start", "end", "activity"},
					},
				},
				Required: []string{"type"},
			},
		},
		Required: []string{"thought", "next_action"},
	}
}
