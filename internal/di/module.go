package di

import (
	"go.uber.org/fx"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/adapter/events"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/adapter/lock"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/adapter/notify"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/adapter/payment"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/adapter/tracking"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/app"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/config"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/logger"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/metrics"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/pkg/auth"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/server/http/router"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/storage/postgres"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		postgres.Module,
		payment.Module,
		tracking.Module,
		events.Module,
		notify.Module,
		lock.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
