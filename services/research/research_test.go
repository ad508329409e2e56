package research_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yanami/soulmaker/pkg/bilibili"
	"github.com/yanami/soulmaker/pkg/weather"
	"github.com/yanami/soulmaker/services/research"
)

var _ = Describe("KeywordResearcher", func() {
	var (
		weatherHits int
		biliHits    int
		researcher  *research.KeywordResearcher
	)

	BeforeEach(func() {
		weatherHits = 0
		biliHits = 0

		weatherServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			weatherHits++
			Expect(r.URL.Path).To(Equal("/東京"))
			w.Write([]byte(`{"current_condition": [{"temp_C": "21", "weatherDesc": [{"value": "Cloudy"}]}]}`))
		}))
		DeferCleanup(weatherServer.Close)

		biliServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			biliHits++
			w.Write([]byte(`{"code": 0, "data": {"list": [
				{"title": "v1"}, {"title": "v2"}, {"title": "v3"},
				{"title": "v4"}, {"title": "v5"}, {"title": "v6"}
			]}}`))
		}))
		DeferCleanup(biliServer.Close)

		researcher = research.NewKeywordResearcher(
			weather.NewClient(weatherServer.URL),
			bilibili.NewClient(biliServer.URL),
		)
	})

	It("routes weather terms to the weather client", func() {
		result, err := researcher.Lookup(context.Background(), "東京天气")
		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(HaveKeyWithValue("weather", "21°C Cloudy"))
		Expect(weatherHits).To(Equal(1))
		Expect(biliHits).To(BeZero())
	})

	It("routes Bilibili terms to the ranking and caps the result", func() {
		result, err := researcher.Lookup(context.Background(), "B站上有什么热门视频")
		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(HaveKey("bilibili"))
		Expect(result["bilibili"]).To(HaveLen(5))
		Expect(biliHits).To(Equal(1))
	})

	It("answers unknown needs with a no-op marker", func() {
		result, err := researcher.Lookup(context.Background(), "what is the meaning of life")
		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(HaveKeyWithValue("info", "no_api"))
		Expect(weatherHits).To(BeZero())
		Expect(biliHits).To(BeZero())
	})
})
