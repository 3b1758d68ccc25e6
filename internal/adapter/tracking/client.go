package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

const defaultRetryAfter = 5 * time.Minute

// TooManyRequestsError is returned when the carrier API throttles us.
type TooManyRequestsError struct {
	After time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.After)
}

// RetryAfter reports how long the caller should leave the shipment alone.
func (e TooManyRequestsError) RetryAfter() time.Duration { return e.After }

// HTTPClient queries the carrier aggregation API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

type response struct {
	Status      string     `json:"status"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// NewHTTPClient creates a tracking client with a default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse tracking url")
	}
	if !parsed.IsAbs() {
		return nil, errors.New("tracking url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Track returns the shipment state. Unknown shipments are reported as pending.
func (c *HTTPClient) Track(ctx context.Context, carrier, trackingNumber string) (*model.TrackingStatus, error) {
	endpoint := c.baseURL.JoinPath("api", "shipments", carrier, trackingNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "tracking request")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var data response
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return nil, errors.Wrap(err, "decode tracking response")
		}
		status := strings.ToLower(strings.TrimSpace(data.Status))
		return &model.TrackingStatus{
			Status:      status,
			Delivered:   status == "delivered",
			DeliveredAt: data.DeliveredAt,
		}, nil
	case http.StatusNotFound, http.StatusNoContent:
		return &model.TrackingStatus{Status: "pending"}, nil
	case http.StatusTooManyRequests:
		return nil, TooManyRequestsError{After: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("tracking request failed",
			slog.Int("status", resp.StatusCode),
			slog.String("carrier", carrier),
			slog.String("body", string(body)),
		)
		return nil, errors.Newf("tracking error: %s", resp.Status)
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return defaultRetryAfter
}
