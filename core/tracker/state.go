package tracker

import (
	"encoding/json"
	"fmt"
)

// HistoryEntry is one past activity of the character's day.
type HistoryEntry struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Activity string `json:"activity"`
}

// Memory carries lookup results between iterations.
type Memory struct {
	LastQuery      string         `json:"last_query,omitempty"`
	LastAPIResults map[string]any `json:"last_api_results,omitempty"`
}

// BehaviorState is the situational context a run starts from. The schema
// is versioned, and unknown top-level keys are preserved in Extra so that
// callers can grow the document without breaking older engines.
type BehaviorState struct {
	Version     int            `json:"version,omitempty"`
	CurrentTime string         `json:"current_time"`
	History     []HistoryEntry `json:"history,omitempty"`
	Memory      Memory         `json:"memory,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var knownStateKeys = map[string]bool{
	"version":      true,
	"current_time": true,
	"history":      true,
	"memory":       true,
}

// ParseBehaviorState validates and decodes a state document. Anything
// that is not a JSON object is rejected with ErrInvalidState before the
// engine touches the network. current_time is optional; a run defaults
// it to the wall clock.
func ParseBehaviorState(data []byte) (*BehaviorState, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: document is null", ErrInvalidState)
	}

	var state BehaviorState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	for k, v := range raw {
		if knownStateKeys[k] {
			continue
		}
		if state.Extra == nil {
			state.Extra = map[string]json.RawMessage{}
		}
		state.Extra[k] = v
	}

	return &state, nil
}

// Clone returns a deep copy, so a run can accumulate context without
// mutating the caller's state.
func (s *BehaviorState) Clone() *BehaviorState {
	c := &BehaviorState{
		Version:     s.Version,
		CurrentTime: s.CurrentTime,
		Memory: Memory{
			LastQuery: s.Memory.LastQuery,
		},
	}
	if s.History != nil {
		c.History = append([]HistoryEntry{}, s.History...)
	}
	if s.Memory.LastAPIResults != nil {
		c.Memory.LastAPIResults = make(map[string]any, len(s.Memory.LastAPIResults))
		for k, v := range s.Memory.LastAPIResults {
			c.Memory.LastAPIResults[k] = v
		}
	}
	if s.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			c.Extra[k] = v
		}
	}
	return c
}
