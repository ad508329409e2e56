package connectors

import (
	"context"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"

	"github.com/yanami/soulmaker/core/tracker"
	"github.com/yanami/soulmaker/pkg/bilibili"
	"github.com/yanami/soulmaker/pkg/llm"
)

var _ = Describe("splitCommand", func() {
	It("separates the command from its arguments", func() {
		command, args := splitCommand("/bili_search cooking videos")
		Expect(command).To(Equal("/bili_search"))
		Expect(args).To(Equal("cooking videos"))
	})

	It("strips the bot mention used in group chats", func() {
		command, args := splitCommand("/bili_random@soulmaker_bot")
		Expect(command).To(Equal("/bili_random"))
		Expect(args).To(BeEmpty())
	})
})

var _ = Describe("renderVideos", func() {
	It("numbers entries and honors the limit", func() {
		videos := []bilibili.Video{
			{Title: "one", Author: "a"},
			{Title: "two", Author: "b"},
			{Title: "three", Author: "c"},
		}
		out := renderVideos(videos, 2)
		Expect(out).To(Equal("1. one — a\n2. two — b"))
	})

	It("says so when there is nothing", func() {
		Expect(renderVideos(nil, 10)).To(Equal("no videos found"))
	})
})

var _ = Describe("track command", func() {
	It("renders the record and flags bad JSON tersely", func() {
		client := &llm.MockClient{
			CreateChatCompletionFunc: func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				out := tracker.ThoughtOutput{
					Thought: "heading home",
					NextAction: tracker.NextAction{
						Type:     tracker.ActionFinal,
						Behavior: &tracker.Behavior{Start: "17:00", End: "17:30", Activity: "go home", Cause: "late", Mood: "calm"},
					},
				}
				data, _ := json.Marshal(out)
				return llm.ToolCallResponse(string(data)), nil
			},
		}
		engine, err := tracker.New(client, tracker.WithRetryPolicy(3, time.Millisecond, 4*time.Millisecond))
		Expect(err).ToNot(HaveOccurred())

		tg, err := NewTelegramConnector("dummy-token", nil, engine, nil, 3)
		Expect(err).ToNot(HaveOccurred())

		reply := tg.track(context.Background(), `{"current_time": "17:00"}`)
		Expect(reply).To(ContainSubstring("go home"))
		Expect(reply).To(ContainSubstring("1 step"))

		reply = tg.track(context.Background(), `{broken`)
		Expect(reply).To(ContainSubstring("doesn't parse"))
		Expect(reply).ToNot(ContainSubstring("dummy-token"))
	})
})
