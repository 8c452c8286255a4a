// Package homeassistant reads a day of outdoor temperatures from the Home
// Assistant history API and reduces it to 24 hourly means.
package homeassistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ac_simulator/internal/model"
)

const maxAttempts = 5

// ErrNoSamples is returned when the entity reported no numeric state for the day.
var ErrNoSamples = errors.New("no numeric samples for the requested day")

// Sample is one numeric state change.
type Sample struct {
	Value float64
	At    time.Time
}

// Client talks to one Home Assistant instance with a long-lived access token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *logrus.Logger
	backoff func(attempt int) time.Duration
}

func NewClient(baseURL, token string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
		backoff: func(attempt int) time.Duration {
			return time.Duration(math.Pow(2, float64(attempt))) * time.Second
		},
	}
}

// OutdoorDay fetches entityID's history for the calendar day containing day in
// loc and returns 24 hourly mean temperatures.
func (c *Client) OutdoorDay(ctx context.Context, entityID string, day time.Time, loc *time.Location) ([]float64, error) {
	day = day.In(loc)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	samples, err := c.History(ctx, entityID, start, end)
	if err != nil {
		return nil, err
	}
	return HourlyMeans(samples, start, loc)
}

// History returns entityID's numeric state changes in [start, end).
func (c *Client) History(ctx context.Context, entityID string, start, end time.Time) ([]Sample, error) {
	u := fmt.Sprintf("%s/api/history/period/%s?end_time=%s&filter_entity_id=%s&minimal_response&no_attributes",
		c.baseURL,
		url.PathEscape(start.Format(time.RFC3339)),
		url.QueryEscape(end.Format(time.RFC3339)),
		url.QueryEscape(entityID),
	)

	var body []byte
	var err error
	for attempt := range maxAttempts {
		body, err = c.get(ctx, u)
		if err == nil {
			break
		}
		if !isRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt == maxAttempts-1 {
			break
		}
		wait := c.backoff(attempt)
		c.logger.Warnf("Home Assistant request failed, retrying in %s: %v", wait, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("after %d attempts: %w", maxAttempts, err)
	}

	samples, err := parseHistoryResponse(body)
	if err != nil {
		return nil, err
	}
	c.logger.Debugf("Fetched %d samples for %s", len(samples), entityID)
	return samples, nil
}

// APIError is a non-200 answer from Home Assistant.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func isRetryable(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return true // network errors are retryable
	}
	return ae.StatusCode == http.StatusTooManyRequests || ae.StatusCode >= 500
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "authentication failed, check the access token"}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// parseHistoryResponse parses the history API response: an array with one
// array of state changes per entity. Non-numeric states are skipped.
func parseHistoryResponse(data []byte) ([]Sample, error) {
	var outer [][]json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	var samples []Sample
	for _, entityHistory := range outer {
		for _, raw := range entityHistory {
			var entry struct {
				State       string `json:"state"`
				LastChanged string `json:"last_changed"`
			}
			if err := json.Unmarshal(raw, &entry); err != nil {
				continue
			}

			value, err := strconv.ParseFloat(entry.State, 64)
			if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
				continue
			}

			ts, err := time.Parse(time.RFC3339Nano, entry.LastChanged)
			if err != nil {
				continue
			}
			samples = append(samples, Sample{Value: value, At: ts})
		}
	}
	return samples, nil
}

// HourlyMeans averages samples into the 24 hours starting at dayStart. An hour
// without samples repeats the last known value, including one from before the
// day; leading hours with nothing earlier take the first value of the day.
func HourlyMeans(samples []Sample, dayStart time.Time, loc *time.Location) ([]float64, error) {
	var sums, counts [model.HoursPerDay]float64
	dayEnd := dayStart.AddDate(0, 0, 1)

	var last float64
	var lastAt time.Time
	known := false
	for _, s := range samples {
		switch {
		case s.At.Before(dayStart):
			if !known || s.At.After(lastAt) {
				last, lastAt, known = s.Value, s.At, true
			}
		case s.At.Before(dayEnd):
			h := s.At.In(loc).Hour()
			sums[h] += s.Value
			counts[h]++
		}
	}

	out := make([]float64, model.HoursPerDay)
	first := -1
	for h := range out {
		if counts[h] > 0 {
			last, known = sums[h]/counts[h], true
		}
		if known {
			out[h] = last
			if first < 0 {
				first = h
			}
		}
	}
	if first < 0 {
		return nil, ErrNoSamples
	}
	for h := 0; h < first; h++ {
		out[h] = out[first]
	}
	return out, nil
}
