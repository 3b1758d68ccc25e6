package payment

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewClientValidates(t *testing.T) {
	_, err := NewClient("/relative", "sk", testLogger())
	require.Error(t, err)
	_, err = NewClient("http://gateway.local", "", testLogger())
	require.Error(t, err)

	client, err := newClient(clientParams{
		Config: &config.Config{PaymentGatewayURL: "http://gateway.local", PaymentSecretKey: "sk"},
		Logger: testLogger(),
	})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestVerify(t *testing.T) {
	offerID := uuid.New()
	addressID := uuid.New()

	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    bool
		check      func(t *testing.T, succeeded bool, amount decimal.Decimal, offer, address *uuid.UUID, external string)
	}{
		{
			name:       "successful charge with metadata",
			statusCode: http.StatusOK,
			body: `{"status":true,"message":"Verification successful","data":{"status":"success","reference":"gw-77",` +
				`"amount":900050,"id":4099,"metadata":{"offer_id":"` + offerID.String() + `","shipping_address_id":"` + addressID.String() + `"}}}`,
			check: func(t *testing.T, succeeded bool, amount decimal.Decimal, offer, address *uuid.UUID, external string) {
				assert.True(t, succeeded)
				assert.True(t, decimal.RequireFromString("9000.50").Equal(amount), amount.String())
				require.NotNil(t, offer)
				assert.Equal(t, offerID, *offer)
				require.NotNil(t, address)
				assert.Equal(t, addressID, *address)
				assert.Equal(t, "gw-77", external)
			},
		},
		{
			name:       "abandoned charge without metadata",
			statusCode: http.StatusOK,
			body:       `{"status":true,"data":{"status":"abandoned","amount":100,"id":12,"metadata":{"offer_id":"nope"}}}`,
			check: func(t *testing.T, succeeded bool, _ decimal.Decimal, offer, address *uuid.UUID, external string) {
				assert.False(t, succeeded)
				assert.Nil(t, offer)
				assert.Nil(t, address)
				assert.Equal(t, "12", external)
			},
		},
		{
			name:       "unknown reference",
			statusCode: http.StatusNotFound,
			body:       `{"status":false,"message":"Transaction reference not found"}`,
			check: func(t *testing.T, succeeded bool, _ decimal.Decimal, _, _ *uuid.UUID, _ string) {
				assert.False(t, succeeded)
			},
		},
		{name: "gateway down", statusCode: http.StatusServiceUnavailable, wantErr: true},
		{name: "garbage", statusCode: http.StatusOK, body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/transaction/verify/pay-123", r.URL.Path)
				assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
				w.WriteHeader(tt.statusCode)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client, err := NewClient(srv.URL, "sk_test", testLogger())
			require.NoError(t, err)

			v, err := client.Verify(context.Background(), "pay-123")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "pay-123", v.Reference)
			tt.check(t, v.Succeeded, v.Amount, v.OfferID, v.ShippingAddressID, v.ExternalReference)
		})
	}
}

func TestParseWebhook(t *testing.T) {
	client, err := NewClient("http://gateway.local", "sk_test", testLogger())
	require.NoError(t, err)

	body := []byte(`{"event":"charge.success","data":{"reference":"pay-123","amount":900000}}`)
	signature := client.Sign(body)
	assert.Len(t, signature, 128)

	event, err := client.ParseWebhook(body, signature)
	require.NoError(t, err)
	assert.Equal(t, EventChargeSuccess, event.Event)
	assert.Equal(t, "pay-123", event.Data.Reference)

	_, err = client.ParseWebhook(body, "")
	require.ErrorIs(t, err, ErrInvalidSignature)

	tampered := []byte(`{"event":"charge.success","data":{"reference":"pay-999","amount":900000}}`)
	_, err = client.ParseWebhook(tampered, signature)
	require.ErrorIs(t, err, ErrInvalidSignature)

	other, err := NewClient("http://gateway.local", "sk_other", testLogger())
	require.NoError(t, err)
	_, err = other.ParseWebhook(body, signature)
	require.ErrorIs(t, err, ErrInvalidSignature)
}
