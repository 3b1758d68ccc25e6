package tracking

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/config"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

// Module exposes the carrier tracking client to fx graph.
var Module = fx.Provide(newTracker)

type trackerParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newTracker(p trackerParams) (usecase.CarrierTracker, error) {
	return NewHTTPClient(p.Config.TrackingAPIURL, p.Logger)
}
