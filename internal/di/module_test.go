package di

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/app"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/config"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/repository"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/storage/postgres"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/test"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/worker"
)

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	cfg := &config.Config{
		RunAddress:        ":0",
		DatabaseURI:       "postgres://stub",
		JWTSecret:         "secret",
		PaymentGatewayURL: "http://gateway.local",
		PaymentSecretKey:  "sk_test",
		TrackingAPIURL:    "http://tracking.local",
		CORSAllowOrigins:  []string{"*"},
		ShutdownTimeout:   time.Millisecond,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	var (
		facade    *app.MarketplaceFacade
		scheduler *worker.Scheduler
		engine    *gin.Engine
		server    *http.Server
	)
	fxApp := fx.New(
		fx.NopLogger,
		fx.Provide(func() context.Context { return context.Background() }),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
			fx.Replace(&postgres.Storage{}),
			fx.Replace(fx.Annotate(test.NewMemoryStore(), fx.As(new(repository.Transactor)))),
			fx.Replace(worker.DefaultSchedule()),
		),
		fx.Populate(&facade, &scheduler, &engine, &server),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil || engine == nil {
		t.Fatal("expected marketplace facade and router instances")
	}
	if got := len(scheduler.Jobs()); got != 5 {
		t.Fatalf("expected five scheduled jobs, got %d", got)
	}
	if server.Addr != ":0" {
		t.Fatalf("expected server address from config, got %q", server.Addr)
	}
}
