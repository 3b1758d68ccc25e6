package auth

import (
	"go.uber.org/fx"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/config"
)

// Module provides token verification via fx.
var Module = fx.Provide(newTokenStrategy)

type strategyParams struct {
	fx.In

	Config *config.Config
}

func newTokenStrategy(p strategyParams) Strategy {
	return NewJWTStrategy(p.Config.JWTSecret, Options{})
}
