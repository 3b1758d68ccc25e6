package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/fx"
)

// run starts app and blocks until ctx is cancelled or a component asks for shutdown.
func run(ctx context.Context, app *fx.App) error {
	if err := app.Err(); err != nil {
		return errors.Wrap(err, "build application")
	}

	startCtx, cancelStart := context.WithTimeout(ctx, app.StartTimeout())
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		return errors.Wrap(err, "start application")
	}

	var exitCode int
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		exitCode = sig.ExitCode
	}

	stopCtx, cancelStop := context.WithTimeout(context.WithoutCancel(ctx), app.StopTimeout())
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		return errors.Wrap(err, "stop application")
	}
	if exitCode != 0 {
		return errors.Newf("application stopped with exit code %d", exitCode)
	}
	return nil
}
