package payment

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/config"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

// Module exposes the gateway client as payment verifier and webhook authenticator.
var Module = fx.Provide(
	newClient,
	func(c *Client) usecase.PaymentVerifier { return c },
)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (*Client, error) {
	return NewClient(p.Config.PaymentGatewayURL, p.Config.PaymentSecretKey, p.Logger)
}
