package weather_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yanami/soulmaker/pkg/weather"
)

var _ = Describe("Client", func() {
	It("reads the current condition", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Query().Get("format")).To(Equal("j1"))
			w.Write([]byte(`{"current_condition": [
				{"temp_C": "25", "weatherDesc": [{"value": "Sunny"}]}
			]}`))
		}))
		DeferCleanup(server.Close)

		cond, err := weather.NewClient(server.URL).Current(context.Background(), "Tokyo")
		Expect(err).ToNot(HaveOccurred())
		Expect(cond.TempC).To(Equal("25°C"))
		Expect(cond.Description).To(Equal("Sunny"))
	})

	It("fails on an empty condition list", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"current_condition": []}`))
		}))
		DeferCleanup(server.Close)

		_, err := weather.NewClient(server.URL).Current(context.Background(), "Nowhere")
		Expect(err).To(HaveOccurred())
	})
})
