package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

// SignatureHeader carries the hex HMAC-SHA512 of a webhook body.
const SignatureHeader = "X-Paystack-Signature"

// EventChargeSuccess is the only webhook event that opens an order.
const EventChargeSuccess = "charge.success"

// ErrInvalidSignature is returned for webhook bodies not signed with our key.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Client verifies transactions against the payment gateway.
type Client struct {
	baseURL    *url.URL
	secretKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

type transaction struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	// Amount is in minor units (kobo).
	Amount   int64    `json:"amount"`
	ID       int64    `json:"id"`
	Metadata metadata `json:"metadata"`
}

type metadata struct {
	OfferID           string `json:"offer_id"`
	ShippingAddressID string `json:"shipping_address_id"`
}

type verifyResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    transaction `json:"data"`
}

// WebhookEvent is the part of a gateway callback we act upon.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// NewClient creates a gateway client authenticated with secretKey.
func NewClient(baseURL, secretKey string, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse payment gateway url")
	}
	if !parsed.IsAbs() {
		return nil, errors.New("payment gateway url must be absolute")
	}
	if secretKey == "" {
		return nil, errors.New("payment secret key is required")
	}
	return &Client{
		baseURL:   parsed,
		secretKey: secretKey,
		logger:    logger,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

// Verify looks up reference. Unknown references are reported as unsuccessful.
func (c *Client) Verify(ctx context.Context, reference string) (*model.PaymentVerification, error) {
	endpoint := c.baseURL.JoinPath("transaction", "verify", reference)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "payment gateway request")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body verifyResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, errors.Wrap(err, "decode verification")
		}
		return toVerification(reference, body), nil
	case http.StatusNotFound, http.StatusBadRequest:
		return &model.PaymentVerification{Reference: reference}, nil
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("payment verification failed",
			slog.Int("status", resp.StatusCode),
			slog.String("reference", reference),
			slog.String("body", string(raw)),
		)
		return nil, errors.Newf("payment gateway error: %s", resp.Status)
	}
}

func toVerification(reference string, body verifyResponse) *model.PaymentVerification {
	tx := body.Data
	v := &model.PaymentVerification{
		Reference:         reference,
		Succeeded:         body.Status && tx.Status == "success",
		Amount:            decimal.New(tx.Amount, -2),
		ExternalReference: tx.Reference,
		OfferID:           parseID(tx.Metadata.OfferID),
		ShippingAddressID: parseID(tx.Metadata.ShippingAddressID),
	}
	if v.ExternalReference == "" && tx.ID != 0 {
		v.ExternalReference = strconv.FormatInt(tx.ID, 10)
	}
	return v
}

func parseID(raw string) *uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// Sign returns the hex HMAC-SHA512 of body under the secret key.
func (c *Client) Sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseWebhook authenticates body against signature and decodes it.
func (c *Client) ParseWebhook(body []byte, signature string) (*WebhookEvent, error) {
	expected := c.Sign(body)
	if signature == "" || !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrInvalidSignature
	}
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, errors.Wrap(err, "decode webhook")
	}
	return &event, nil
}
