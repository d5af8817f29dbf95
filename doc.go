// Package courier is an in-process publish/subscribe toolkit.
//
// The module is organized as:
//
//   - core/mediator: the message hub with weak subscriptions, typed dispatch and a replay cache
//   - core/stream: channel subscriptions over mediator broadcasts
//   - core/config: environment configuration loading
//   - core/logger: slog construction and attribute helpers
//   - pkg/broadcast: generic in-memory fan-out
//
// Quick start:
//
//	m := mediator.Default()
//
//	token, err := mediator.Register(m, "user.updated", panel, (*Panel).OnUserUpdated)
//	_, err = mediator.Broadcast(m, "user.updated", user)
//	_ = m.Unregister(token)
package courier
