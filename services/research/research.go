// Package research routes the loop's information needs to the external
// lookup services by keyword, the way the original command set did:
// weather terms go to wttr.in, Bilibili terms to the video API, and
// anything else is answered with a no-op marker instead of an error.
package research

import (
	"context"
	"strings"

	"github.com/mudler/xlog"

	"github.com/yanami/soulmaker/pkg/bilibili"
	"github.com/yanami/soulmaker/pkg/weather"
)

var weatherTerms = []string{"天气", "weather"}
var bilibiliTerms = []string{"B站", "b站", "bilibili", "Bilibili", "视频"}

type KeywordResearcher struct {
	weather  *weather.Client
	bilibili *bilibili.Client
}

func NewKeywordResearcher(w *weather.Client, b *bilibili.Client) *KeywordResearcher {
	return &KeywordResearcher{
		weather:  w,
		bilibili: b,
	}
}

func (r *KeywordResearcher) Lookup(ctx context.Context, need string) (map[string]any, error) {
	switch {
	case r.weather != nil && containsAny(need, weatherTerms):
		location := need
		for _, term := range weatherTerms {
			location = strings.ReplaceAll(location, term, "")
		}
		location = strings.TrimSpace(location)

		cond, err := r.weather.Current(ctx, location)
		if err != nil {
			return nil, err
		}
		xlog.Debug("Weather lookup", "location", location, "temp", cond.TempC)
		return map[string]any{"weather": cond.TempC + " " + cond.Description}, nil

	case r.bilibili != nil && containsAny(need, bilibiliTerms):
		videos, err := r.bilibili.Ranking(ctx, 0, "all")
		if err != nil {
			return nil, err
		}
		if len(videos) > 5 {
			videos = videos[:5]
		}
		titles := make([]string, 0, len(videos))
		for _, v := range videos {
			titles = append(titles, v.Title)
		}
		xlog.Debug("Bilibili lookup", "results", len(titles))
		return map[string]any{"bilibili": titles}, nil
	}

	return map[string]any{"info": "no_api"}, nil
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
