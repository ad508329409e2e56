package tracker

import (
	"bytes"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

func templateBase(templateName, templatetext string) (*template.Template, error) {
	return template.New(templateName).Funcs(sprig.FuncMap()).Parse(templatetext)
}

func renderThoughtPrompt(character Character, state *BehaviorState, steps []Step) (string, error) {
	prompt := bytes.NewBuffer([]byte{})

	promptTemplate, err := templateBase("thought", thoughtPromptTemplate)
	if err != nil {
		return "", err
	}

	err = promptTemplate.Execute(prompt, struct {
		Character Character
		State     *BehaviorState
		Steps     []Step
		Time      string
	}{
		Character: character,
		State:     state,
		Steps:     steps,
		Time:      time.Now().UTC().Format(time.RFC1123),
	})
	if err != nil {
		return "", err
	}

	return prompt.String(), nil
}

const thoughtPromptTemplate = `You are roleplaying {{.Character.Name}}{{if .Character.Age}}, age {{.Character.Age}}{{end}}{{if .Character.Occupation}}, {{.Character.Occupation}}{{end}}.
{{- if .Character.Traits}}
Personality: {{join ", " .Character.Traits}}.
{{- end}}
{{- if .Character.Hobbies}}
Hobbies: {{join ", " .Character.Hobbies}}.
{{- end}}

In-world time: {{.State.CurrentTime}}
{{- if .State.Extra}}
Additional context: {{toJson .State.Extra}}
{{- end}}

Today so far:
{{- range .State.History}}
{{.Start}}-{{.End}}: {{.Activity}}
{{- else}}
(nothing recorded yet)
{{- end}}
{{- if .State.Memory.LastQuery}}

Last lookup: {{.State.Memory.LastQuery}}
Lookup results: {{toJson .State.Memory.LastAPIResults}}
{{- end}}
{{- if .Steps}}

Reasoning so far this run:
{{- range .Steps}}
{{.Iteration}}. [{{.Action}}] {{.Thought}}
{{- end}}
{{- end}}

Decide what the character does next. Answer through the json tool with a
"thought" and a "next_action". Use type "query" with "content" when you
need outside information first, type "final_decision" with a "behavior"
(start, end, activity, cause, mood, notes) once you commit to an
activity, or type "idle" to keep mulling it over.`
