package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"webcat-submit/internal/components/chrono"
	"webcat-submit/internal/components/configutil"
	"webcat-submit/internal/components/telemetry"
	"webcat-submit/internal/notify"
	"webcat-submit/internal/scrapers/webcat"
	"webcat-submit/internal/state"
	"webcat-submit/internal/submission"
)

const (
	report_env_telemetry = "env.telemetry"
	report_env_close     = "env.close"
)

type envKeyType int

var envKey envKeyType

// Env holds what the commands share, the store and client are opened on
// first use so commands like extract work without either.
type Env struct {
	Config Config
	Tel    telemetry.API
	Time   chrono.API

	otel   telemetry.Telemetry
	store  *state.Store
	client *webcat.Client
}

func withEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey, env)
}

func getEnv(ctx context.Context) *Env {
	return ctx.Value(envKey).(*Env)
}

func (e *Env) init(ctx context.Context, config Config) error {
	e.Config = config
	e.Tel = telemetry.SlogAPI{}

	time, err := chrono.NewStandardImpl(config.Timezone)
	if err != nil {
		return err
	}
	e.Time = time

	otelConfig, err := configutil.ReadRecursively[telemetry.Config]("telemetry.json5")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("telemetry: %w", err)
	}
	e.otel, err = telemetry.Setup(ctx, "webcat", otelConfig)
	if err != nil {
		// exporting traces is optional
		e.Tel.ReportWarning(report_env_telemetry, err)
	}
	return nil
}

func (e *Env) Store(ctx context.Context) (state.Store, error) {
	if e.store != nil {
		return *e.store, nil
	}
	db, err := e.Config.State.OpenDB()
	if err != nil {
		return state.Store{}, err
	}
	store, err := state.NewStore(ctx, db, e.Time, e.Tel)
	if err != nil {
		db.Close()
		return state.Store{}, err
	}
	e.store = &store
	return store, nil
}

func (e *Env) Client() (*webcat.Client, error) {
	if e.client != nil {
		return e.client, nil
	}
	client, err := webcat.NewClient(e.Config.ClientOptions(), e.Tel)
	if err != nil {
		return nil, err
	}
	e.client = client
	return client, nil
}

// Notifier is nil when no recipients are configured.
func (e *Env) Notifier() submission.Notifier {
	if !e.Config.Notify.Enabled() {
		return nil
	}
	return notify.NewMailer(e.Config.Notify, e.Tel)
}

func (e *Env) Close(ctx context.Context) {
	if e.store != nil {
		err := e.store.Close()
		if err != nil {
			e.Tel.ReportWarning(report_env_close, err)
		}
	}
	if e.Tel == nil {
		return
	}
	err := e.otel.Shutdown(ctx)
	if err != nil {
		e.Tel.ReportWarning(report_env_close, err)
	}
}
