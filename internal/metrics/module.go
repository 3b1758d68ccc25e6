package metrics

import (
	"go.uber.org/fx"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/worker"
)

// Module provides the registry and binds it to the observer ports.
var Module = fx.Provide(
	New,
	func(m *Metrics) usecase.Recorder { return m },
	func(m *Metrics) worker.JobObserver { return m },
)
