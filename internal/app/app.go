package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/adapter/payment"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/config"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/pkg/auth"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/server/http/handlers"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/storage/postgres"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/worker"
)

const readHeaderTimeout = 10 * time.Second

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		newMarketplaceFacade,
		func(f *MarketplaceFacade) handlers.MarketplaceFacade { return f },
		newHTTPServer,
		newScheduler,
	),
	fx.Invoke(registerLifecycle),
)

type facadeParams struct {
	fx.In

	Tokens   auth.Strategy
	Offers   *usecase.OfferUseCase
	Orders   *usecase.OrderUseCase
	Ledger   *usecase.Ledger
	Fees     *usecase.FeeEngine
	Inbox    *usecase.InboxUseCase
	Payments *payment.Client
	Storage  *postgres.Storage
	Logger   *slog.Logger
}

func newMarketplaceFacade(p facadeParams) *MarketplaceFacade {
	return NewMarketplaceFacade(p.Tokens, p.Offers, p.Orders, p.Ledger, p.Fees, p.Inbox, p.Payments, p.Storage, p.Logger)
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:              p.Config.RunAddress,
		Handler:           p.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

type schedulerParams struct {
	fx.In

	Reconciliation *usecase.ReconciliationUseCase
	Schedule       worker.Schedule
	Locker         worker.Locker
	Observer       worker.JobObserver
	Clock          usecase.Clock
	Logger         *slog.Logger
}

func newScheduler(p schedulerParams) *worker.Scheduler {
	return worker.NewScheduler(
		worker.ReconciliationJobs(p.Reconciliation, p.Schedule),
		p.Locker,
		p.Observer,
		p.Schedule.LeaseTTL,
		p.Clock,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Scheduler  *worker.Scheduler
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting qt-fashion backend",
				slog.String("addr", p.Server.Addr),
				slog.Any("jobs", p.Scheduler.Jobs()),
			)
			p.Scheduler.Start(context.WithoutCancel(ctx))
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Scheduler.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("qt-fashion backend stopped")
			return nil
		},
	})
}
