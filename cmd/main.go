package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Anereges/AITB-Employee-Management-System/internal/app"
	"github.com/Anereges/AITB-Employee-Management-System/internal/server"
)

func main() {
	logger, err := server.NewLogger(server.Environment())
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	app := fx.New(
		app.Module(),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{
				Logger: log,
			}
		}),
	)

	app.Run()
}
