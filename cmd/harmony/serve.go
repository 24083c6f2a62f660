package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/harmony/internal/api"
	"github.com/samcharles93/harmony/internal/logger"
	"github.com/samcharles93/harmony/pkg/harmony"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxSessions int
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the render and parse REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.IntFlag{
				Name:        "max-sessions",
				Usage:       "maximum number of live parser sessions (0 = unlimited)",
				Value:       api.DefaultMaxSessions,
				Destination: &maxSessions,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if addr == "" {
				addr = serverAddress
			}

			enc, err := loadEncoding(ctx)
			if err != nil {
				return err
			}
			server := api.NewServer(enc,
				api.WithLogger(log.WithGroup("api")),
				api.WithSessionStore(api.NewSessionStore(maxSessions)),
				api.WithRenderConfig(harmony.RenderConversationConfig{AutoDropAnalysis: autoDropAnalysis}),
			)

			// echo's request logger writes through slog's default logger.
			slog.SetDefault(logger.AsSlog(log))

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", addr, "encoding", enc.Name())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
