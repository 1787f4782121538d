package pipeline

import (
	"go.uber.org/fx"
)

// Module is an Fx module that provides the pipeline Runner.
var Module = fx.Options(
	fx.Provide(NewRunner),
)
