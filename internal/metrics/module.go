package metrics

import (
	"go.uber.org/fx"

	"github.com/Anereges/AITB-Employee-Management-System/internal/auth"
)

func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			NewCollector,
			fx.Annotate(
				func(c *Collector) auth.LoginRecorder { return c },
			),
			fx.Annotate(
				func(c *Collector) auth.SessionRecorder { return c },
			),
		),
	)
}
