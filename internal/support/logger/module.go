package logger

import "go.uber.org/fx"

// Module installs the fxevent.Logger adapter so Fx logs through this package.
var Module = fx.Options(
	fx.WithLogger(NewFxLoggerAdapter),
)
