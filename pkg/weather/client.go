package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const DefaultBaseURL = "https://wttr.in"

// Condition is the current weather at a location.
type Condition struct {
	TempC       string `json:"temp_c"`
	Description string `json:"description"`
}

// Client fetches current conditions from wttr.in's JSON endpoint.
// Safe for concurrent use.
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

func (c *Client) Current(ctx context.Context, location string) (*Condition, error) {
	u := fmt.Sprintf("%s/%s?format=j1", c.baseURL, url.PathEscape(location))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather: unexpected status %d", resp.StatusCode)
	}

	var data struct {
		CurrentCondition []struct {
			TempC       string `json:"temp_C"`
			WeatherDesc []struct {
				Value string `json:"value"`
			} `json:"weatherDesc"`
		} `json:"current_condition"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("weather: decoding response: %w", err)
	}
	if len(data.CurrentCondition) == 0 {
		return nil, fmt.Errorf("weather: no current condition for %q", location)
	}

	cond := &Condition{TempC: data.CurrentCondition[0].TempC + "°C"}
	if len(data.CurrentCondition[0].WeatherDesc) > 0 {
		cond.Description = data.CurrentCondition[0].WeatherDesc[0].Value
	}
	return cond, nil
}
