package tracker

import (
	"context"
	"fmt"
	"time"
)

// Researcher answers the information needs the thought step expresses.
// Implementations must be safe for concurrent use.
type Researcher interface {
	Lookup(ctx context.Context, need string) (map[string]any, error)
}

// Journal receives finished records. Implementations must be safe for
// concurrent use.
type Journal interface {
	Append(record *BehaviorRecord) error
}

type Option func(*options) error

type options struct {
	model       string
	character   Character
	researcher  Researcher
	journal     Journal
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration

	stepCallback func(Step)
}

func defaultOptions() *options {
	return &options{
		model:       "deepseek-chat",
		character:   DefaultCharacter(),
		maxAttempts: 3,
		backoffBase: 500 * time.Millisecond,
		backoffCap:  4 * time.Second,
	}
}

func newOptions(opts ...Option) (*options, error) {
	options := defaultOptions()
	for _, o := range opts {
		if err := o(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

func WithModel(model string) Option {
	return func(o *options) error {
		if model == "" {
			return fmt.Errorf("%w: model name is empty", ErrConfiguration)
		}
		o.model = model
		return nil
	}
}

func WithCharacter(c Character) Option {
	return func(o *options) error {
		o.character = c
		return nil
	}
}

func WithResearcher(r Researcher) Option {
	return func(o *options) error {
		o.researcher = r
		return nil
	}
}

func WithJournal(j Journal) Option {
	return func(o *options) error {
		o.journal = j
		return nil
	}
}

// WithRetryPolicy bounds the per-call retry budget. attempts counts the
// first try as well, base is doubled after every failure up to maxDelay.
func WithRetryPolicy(attempts int, base, maxDelay time.Duration) Option {
	return func(o *options) error {
		if attempts < 1 {
			return fmt.Errorf("%w: retry attempts must be >= 1", ErrConfiguration)
		}
		o.maxAttempts = attempts
		o.backoffBase = base
		o.backoffCap = maxDelay
		return nil
	}
}

// WithStepCallback observes every appended step, e.g. for SSE streaming.
func WithStepCallback(f func(Step)) Option {
	return func(o *options) error {
		o.stepCallback = f
		return nil
	}
}
