package state

import "go.uber.org/fx"

// Module provides the single shared *State instance
var Module = fx.Module("state",
	fx.Provide(New),
)
