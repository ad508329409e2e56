package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"

	"github.com/yanami/soulmaker/pkg/llm"
)

// Tracker runs the Thought→Query→Decision loop. It holds no state across
// runs; concurrent Run calls are independent.
type Tracker struct {
	client  llm.Client
	options *options
}

func New(client llm.Client, opts ...Option) (*Tracker, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: completion client is required", ErrConfiguration)
	}
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Tracker{
		client:  client,
		options: options,
	}, nil
}

// RunJSON validates raw input before anything touches the network.
func (t *Tracker) RunJSON(ctx context.Context, data []byte, maxIterations int) (*BehaviorRecord, error) {
	state, err := ParseBehaviorState(data)
	if err != nil {
		return nil, err
	}
	return t.Run(ctx, state, maxIterations)
}

// Run executes up to maxIterations iterations and returns the record.
// On an upstream failure the partial record is returned alongside the
// error, with Complete left false.
func (t *Tracker) Run(ctx context.Context, state *BehaviorState, maxIterations int) (*BehaviorRecord, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: missing state", ErrInvalidState)
	}
	if maxIterations < 1 {
		maxIterations = 1
	}

	record := &BehaviorRecord{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
	}

	// The caller's state stays untouched, context accumulates on a copy.
	working := state.Clone()
	if working.CurrentTime == "" {
		working.CurrentTime = time.Now().Format("2006-01-02 15:04")
	}

	xlog.Info("Behavior run started", "id", record.ID, "time", working.CurrentTime, "max_iterations", maxIterations)

	for i := 1; i <= maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return record, err
		}

		output, err := t.think(ctx, working, record.Steps)
		if err != nil {
			return record, err
		}

		step := Step{
			Iteration: i,
			Thought:   output.Thought,
			Action:    output.NextAction.Type,
		}

		switch output.NextAction.Type {
		case ActionQuery:
			if output.NextAction.Content != "" {
				result, err := t.lookup(ctx, output.NextAction.Content)
				if err != nil {
					return record, err
				}
				step.Query = output.NextAction.Content
				step.QueryResult = result
				working.Memory.LastQuery = output.NextAction.Content
				working.Memory.LastAPIResults = result
			}
		case ActionFinal:
			step.Terminal = true
			if b := output.NextAction.Behavior; b != nil {
				step.Behavior = b
				working.History = append(working.History, HistoryEntry{
					Start:    b.Start,
					End:      b.End,
					Activity: b.Activity,
				})
			}
		case ActionIdle:
			// nothing to do, the thought itself is the progress
		default:
			xlog.Warn("Unknown action kind, treating as idle", "kind", output.NextAction.Type)
			step.Action = ActionIdle
		}

		record.Steps = append(record.Steps, step)
		if t.options.stepCallback != nil {
			t.options.stepCallback(step)
		}

		xlog.Debug("Step recorded", "id", record.ID, "iteration", i, "action", step.Action, "terminal", step.Terminal)

		if step.Terminal {
			break
		}
	}

	record.Complete = true
	t.save(record)
	return record, nil
}

func (t *Tracker) think(ctx context.Context, state *BehaviorState, steps []Step) (*ThoughtOutput, error) {
	prompt, err := renderThoughtPrompt(t.options.character, state, steps)
	if err != nil {
		return nil, err
	}

	conv := []openai.ChatCompletionMessage{
		{
			Role:    "user",
			Content: prompt,
		},
	}

	var lastErr error
	for attempt := 0; attempt < t.options.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := t.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		var output ThoughtOutput
		err := llm.GenerateTypedJSONWithConversation(ctx, t.client, conv, t.options.model, thoughtSchema(), &output)
		if err == nil {
			return &output, nil
		}
		lastErr = err
		xlog.Warn("Thought generation attempt failed", "attempt", attempt+1, "error", err)
	}

	return nil, fmt.Errorf("%w: thought generation failed after %d attempts: %v", ErrUpstream, t.options.maxAttempts, lastErr)
}

func (t *Tracker) lookup(ctx context.Context, need string) (map[string]any, error) {
	if t.options.researcher == nil {
		return map[string]any{"info": "no_api"}, nil
	}

	var lastErr error
	for attempt := 0; attempt < t.options.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := t.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		result, err := t.options.researcher.Lookup(ctx, need)
		if err == nil {
			return result, nil
		}
		lastErr = err
		xlog.Warn("Lookup attempt failed", "need", need, "attempt", attempt+1, "error", err)
	}

	return nil, fmt.Errorf("%w: lookup failed after %d attempts: %v", ErrUpstream, t.options.maxAttempts, lastErr)
}

// backoff sleeps 500ms, 1s, 2s... (configurable) up to the cap, bailing
// out early when the run is cancelled.
func (t *Tracker) backoff(ctx context.Context, attempt int) error {
	delay := t.options.backoffBase << (attempt - 1)
	if t.options.backoffCap > 0 && delay > t.options.backoffCap {
		delay = t.options.backoffCap
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (t *Tracker) save(record *BehaviorRecord) {
	if t.options.journal == nil {
		return
	}
	if err := t.options.journal.Append(record); err != nil {
		xlog.Error("Error appending record to journal", "id", record.ID, "error", err)
	}
}
