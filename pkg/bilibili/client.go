package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultBaseURL = "https://api.bilibili.com"

// Video is the slice of archive metadata the commands care about.
type Video struct {
	Bvid    string `json:"bvid"`
	Aid     int64  `json:"aid"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Play    int64  `json:"play,omitempty"`
	Picture string `json:"pic,omitempty"`
}

// Client talks to the Bilibili web interface API. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, path string, params url.Values, data any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bilibili: unexpected status %d for %s", resp.StatusCode, path)
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("bilibili: decoding %s: %w", path, err)
	}
	if envelope.Code != 0 {
		return fmt.Errorf("bilibili: api error %d: %s", envelope.Code, envelope.Message)
	}

	return json.Unmarshal(envelope.Data, data)
}

// Ranking fetches the ranking list. rid 0 means overall, rankingType is
// one of "all", "origin", "rookie".
func (c *Client) Ranking(ctx context.Context, rid int, rankingType string) ([]Video, error) {
	if rankingType == "" {
		rankingType = "all"
	}
	params := url.Values{}
	params.Set("rid", strconv.Itoa(rid))
	params.Set("type", rankingType)

	var data struct {
		List []Video `json:"list"`
	}
	if err := c.get(ctx, "/x/web-interface/ranking/v2", params, &data); err != nil {
		return nil, err
	}
	return data.List, nil
}

// RandomPopular picks one entry at random from the popular list.
func (c *Client) RandomPopular(ctx context.Context) (*Video, error) {
	params := url.Values{}
	params.Set("ps", "20")
	params.Set("pn", "1")

	var data struct {
		List []Video `json:"list"`
	}
	if err := c.get(ctx, "/x/web-interface/popular", params, &data); err != nil {
		return nil, err
	}
	if len(data.List) == 0 {
		return nil, nil
	}
	return &data.List[rand.Intn(len(data.List))], nil
}

// Search looks up videos by keyword.
func (c *Client) Search(ctx context.Context, keyword string, page int) ([]Video, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("search_type", "video")
	params.Set("keyword", keyword)
	params.Set("page", strconv.Itoa(page))

	var data struct {
		Result []Video `json:"result"`
	}
	if err := c.get(ctx, "/x/web-interface/search/type", params, &data); err != nil {
		return nil, err
	}
	return data.Result, nil
}

// Partition fetches the newest videos of a partition.
func (c *Client) Partition(ctx context.Context, rid, page, pageSize int) ([]Video, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	params := url.Values{}
	params.Set("rid", strconv.Itoa(rid))
	params.Set("pn", strconv.Itoa(page))
	params.Set("ps", strconv.Itoa(pageSize))

	var data struct {
		Archives []Video `json:"archives"`
	}
	if err := c.get(ctx, "/x/web-interface/newlist", params, &data); err != nil {
		return nil, err
	}
	return data.Archives, nil
}
