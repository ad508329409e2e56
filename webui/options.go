package webui

import (
	"github.com/yanami/soulmaker/core/journal"
	"github.com/yanami/soulmaker/core/sse"
	"github.com/yanami/soulmaker/core/tracker"
	"github.com/yanami/soulmaker/pkg/bilibili"
)

type Config struct {
	Tracker       *tracker.Tracker
	Journal       *journal.JSONStore
	Bilibili      *bilibili.Client
	SSEManager    sse.Manager
	ApiKeys       []string
	MaxIterations int
}

type Option func(*Config)

func WithTracker(t *tracker.Tracker) Option {
	return func(c *Config) {
		c.Tracker = t
	}
}

func WithJournal(j *journal.JSONStore) Option {
	return func(c *Config) {
		c.Journal = j
	}
}

func WithBilibili(b *bilibili.Client) Option {
	return func(c *Config) {
		c.Bilibili = b
	}
}

func WithSSEManager(m sse.Manager) Option {
	return func(c *Config) {
		c.SSEManager = m
	}
}

func WithApiKeys(keys ...string) Option {
	return func(c *Config) {
		c.ApiKeys = keys
	}
}

func WithMaxIterations(n int) Option {
	return func(c *Config) {
		c.MaxIterations = n
	}
}

func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func NewConfig(opts ...Option) *Config {
	c := &Config{
		MaxIterations: 5,
	}
	c.Apply(opts...)
	return c
}
