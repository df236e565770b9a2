package session

import "go.uber.org/fx"

// Module provides the cookie manager for the _sid session cookie.
var Module = fx.Module("auth.session",
	fx.Provide(NewManager),
)
