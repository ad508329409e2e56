package webui_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"

	"github.com/yanami/soulmaker/core/journal"
	"github.com/yanami/soulmaker/core/tracker"
	"github.com/yanami/soulmaker/pkg/bilibili"
	"github.com/yanami/soulmaker/pkg/llm"
	"github.com/yanami/soulmaker/webui"
)

func finalThought(activity string) string {
	out := tracker.ThoughtOutput{
		Thought: "settled",
		NextAction: tracker.NextAction{
			Type:     tracker.ActionFinal,
			Behavior: &tracker.Behavior{Start: "10:00", End: "11:00", Activity: activity},
		},
	}
	data, err := json.Marshal(out)
	Expect(err).ToNot(HaveOccurred())
	return string(data)
}

var _ = Describe("App", func() {
	var (
		app        *webui.App
		store      *journal.JSONStore
		llmClient  *llm.MockClient
		biliServer *httptest.Server
	)

	newApp := func(apiKeys ...string) *webui.App {
		var err error
		store, err = journal.NewJSONStore(filepath.Join(GinkgoT().TempDir(), "log.json"))
		Expect(err).ToNot(HaveOccurred())

		llmClient = &llm.MockClient{
			CreateChatCompletionFunc: func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				return llm.ToolCallResponse(finalThought("watch videos")), nil
			},
		}

		engine, err := tracker.New(llmClient,
			tracker.WithJournal(store),
			tracker.WithRetryPolicy(3, time.Millisecond, 4*time.Millisecond),
		)
		Expect(err).ToNot(HaveOccurred())

		biliServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code": 0, "data": {"list": [{"bvid": "BV1xx", "title": "hot", "author": "up"}]}}`))
		}))
		DeferCleanup(biliServer.Close)

		return webui.NewApp(
			webui.WithTracker(engine),
			webui.WithJournal(store),
			webui.WithBilibili(bilibili.NewClient(biliServer.URL)),
			webui.WithApiKeys(apiKeys...),
			webui.WithMaxIterations(3),
		)
	}

	Describe("POST /api/track", func() {
		BeforeEach(func() {
			app = newApp()
		})

		It("runs the loop and returns the record", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{"current_time": "2024-05-04 10:00"}`))
			resp, err := app.Test(req, -1)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var record tracker.BehaviorRecord
			Expect(json.NewDecoder(resp.Body).Decode(&record)).To(Succeed())
			Expect(record.Steps).To(HaveLen(1))
			Expect(record.Complete).To(BeTrue())
			Expect(store.All()).To(HaveLen(1))
		})

		It("rejects malformed state without calling the model", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{broken`))
			resp, err := app.Test(req, -1)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(llmClient.Calls()).To(BeZero())
		})

		It("rejects a non-positive iterations parameter", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/track?iterations=0", strings.NewReader(`{}`))
			resp, err := app.Test(req, -1)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /api/bili/rank", func() {
		It("proxies the ranking", func() {
			app = newApp()

			req := httptest.NewRequest(http.MethodGet, "/api/bili/rank", nil)
			resp, err := app.Test(req, -1)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("BV1xx"))
		})
	})

	Describe("API keys", func() {
		BeforeEach(func() {
			app = newApp("secret-key")
		})

		It("rejects requests without a key", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/journal", nil)
			resp, err := app.Test(req, -1)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("accepts a bearer key", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/journal", nil)
			req.Header.Set("Authorization", "Bearer secret-key")
			resp, err := app.Test(req, -1)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})
})
