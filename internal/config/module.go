package config

import (
	"go.uber.org/fx"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/worker"
)

// Module exposes configuration and the settings derived from it.
var Module = fx.Provide(
	Load,
	func(c *Config) usecase.Policy { return c.Policy() },
	func(c *Config) worker.Schedule { return c.Schedule() },
)
