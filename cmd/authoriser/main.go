package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/anisjonischkeit/graphql-authoriser/internal/config"
	"github.com/anisjonischkeit/graphql-authoriser/internal/facebook"
	"github.com/anisjonischkeit/graphql-authoriser/internal/hasura"
	httptransport "github.com/anisjonischkeit/graphql-authoriser/internal/http"
	"github.com/anisjonischkeit/graphql-authoriser/internal/http/handler"
	"github.com/anisjonischkeit/graphql-authoriser/internal/jwt"
	"github.com/anisjonischkeit/graphql-authoriser/internal/server"
	"github.com/anisjonischkeit/graphql-authoriser/internal/service"
	"github.com/anisjonischkeit/graphql-authoriser/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newHTTPClient,
			newIdentityVerifier,
			newUserStore,
			newTokenGenerator,
			service.NewUserResolver,
			newAuthService,
			handler.NewAuthHandler,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newHTTPClient(cfg config.Config) *http.Client {
	return &http.Client{Timeout: cfg.UpstreamTimeout}
}

func newIdentityVerifier(cfg config.Config, client *http.Client, logger *zap.Logger) service.IdentityVerifier {
	return facebook.NewVerifier(cfg, client, logger)
}

func newUserStore(cfg config.Config, client *http.Client, logger *zap.Logger) service.UserStore {
	return hasura.NewStore(cfg, client, logger)
}

func newTokenGenerator(cfg config.Config) service.TokenIssuer {
	return jwt.NewGenerator([]byte(cfg.JWTSecret), cfg.SessionTTL)
}

func newAuthService(verifier service.IdentityVerifier, resolver *service.UserResolver, tokens service.TokenIssuer, logger *zap.Logger) *service.AuthService {
	return service.NewAuthService(verifier, resolver, tokens, logger)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
