package calcom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"nextgen/internal/domain/booking"
)

// BookingFetcher lists the source system's bookings for a time window.
type BookingFetcher interface {
	ListBookings(ctx context.Context, from time.Time, to time.Time) ([]booking.Booking, error)
}

// Client calls the Cal.com v2 API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
}

// NewClient creates a Cal.com API client.
// PRE: baseURL is the API root (e.g. https://api.cal.com/v2), apiKey is a
// bearer credential, pageSize > 0
// POST: Returns a ready client with a bounded request timeout
func NewClient(baseURL string, apiKey string, pageSize int) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		pageSize:   pageSize,
	}
}

type listResponse struct {
	Status string            `json:"status"`
	Data   []json.RawMessage `json:"data"`
	Error  json.RawMessage   `json:"error"`
}

// ListBookings fetches every booking in [from, to], upcoming and past
// statuses included, paginating with take/skip so a year-long window never
// holds one unbounded response.
// PRE: from is before to
// POST: Returns normalized bookings; any fetch or decode failure aborts the
// whole listing (the reconciler treats a partial set as no set)
func (c *Client) ListBookings(ctx context.Context, from time.Time, to time.Time) ([]booking.Booking, error) {
	var all []booking.Booking
	skip := 0

	for {
		page, err := c.fetchPage(ctx, from, to, skip)
		if err != nil {
			return nil, err
		}

		for _, raw := range page {
			b, err := NormalizeBooking(raw)
			if err != nil {
				// Malformed entries are dropped, not fatal.
				slog.Warn("calcom_booking_skipped", "error", err.Error())
				continue
			}
			// A list entry without a start time cannot map to a slot.
			if b.Start.IsZero() {
				slog.Warn("calcom_booking_skipped", "uid", b.UID, "error", "no start time")
				continue
			}
			all = append(all, b)
		}

		if len(page) < c.pageSize {
			return all, nil
		}
		skip += c.pageSize
	}
}

func (c *Client) fetchPage(ctx context.Context, from time.Time, to time.Time, skip int) ([]json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bookings", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build bookings request: %w", err)
	}

	q := url.Values{}
	q.Set("afterStart", from.UTC().Format(time.RFC3339))
	q.Set("beforeEnd", to.UTC().Format(time.RFC3339))
	q.Set("status", "upcoming,past")
	q.Set("take", strconv.Itoa(c.pageSize))
	q.Set("skip", strconv.Itoa(skip))
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("cal-api-version", "2024-08-13")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bookings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("bookings list returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded listResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode bookings response: %w", err)
	}
	return decoded.Data, nil
}
