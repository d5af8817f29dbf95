// Package mediator provides an in-process publish/subscribe hub. Components register
// interest in named, typed messages without knowing who publishes them, and publishers
// broadcast without knowing who, if anyone, is listening.
//
// # Core Components
//
// Mediator owns a subscriber registry and a message cache. Each instance is independent;
// Default returns a lazily created process-wide instance and New a fresh one.
//
// Subscriptions hold their receiver through a weak pointer, so a subscription never keeps
// its owner alive. When the receiver is garbage collected the subscription silently stops
// receiving messages. Callbacks are method expressions, func(*R, T), so the mediator can
// resolve the receiver at dispatch time.
//
// Token identifies one subscription or one cached broadcast. It is used to unregister a
// subscriber or evict a cached message.
//
// CacheSettings selects how long a cached broadcast is kept for replay to subscribers
// that register later: a replay quota, an absolute or relative expiration, or forever.
//
// # Basic Usage
//
//	type Panel struct {
//		title string
//	}
//
//	func (p *Panel) OnUserUpdated(u User)    { p.title = u.Name }
//	func (p *Panel) OnBusError(err error)    { log.Println(err) }
//	func (p *Panel) OnRefresh()              { /* ... */ }
//
//	m := mediator.New(mediator.WithLogger(logger))
//	defer m.Close()
//
//	panel := &Panel{}
//	token, err := mediator.Register(m, "user.updated", panel, (*Panel).OnUserUpdated,
//		mediator.WithErrorHandler(panel, (*Panel).OnBusError),
//	)
//
//	_, err = mediator.Broadcast(m, "user.updated", User{Name: "Ada"})
//
//	_, err = mediator.RegisterSignal(m, "refresh", panel, (*Panel).OnRefresh)
//	_, err = m.Signal("refresh")
//
//	_ = m.Unregister(token)
//
// # Type-derived Names
//
// RegisterType and BroadcastType route by the payload's fully qualified type name
// instead of an explicit message name:
//
//	mediator.RegisterType(m, panel, (*Panel).OnUserUpdated)
//	mediator.BroadcastType(m, User{Name: "Ada"}) // message "example.com/app.User"
//
// # Type Mismatches
//
// Payload types are matched exactly. A subscriber whose expected type differs from the
// broadcast's payload type is not invoked; its error handler receives a
// *TypeMismatchError instead, and other subscribers are unaffected. The broadcaster never
// sees the mismatch. Subscribers without an error handler drop it silently.
//
// # Caching
//
//	token, _ := mediator.Broadcast(m, "config.loaded", cfg,
//		mediator.WithCache(mediator.CacheForResends(1)),
//	)
//	m.IsCached("config.loaded")  // true
//	mediator.Register(m, "config.loaded", svc, (*Service).OnConfig) // replayed once
//	m.IsCached("config.loaded")  // false
//
// Expiration is evaluated lazily whenever the cache is touched; there is no background
// timer. RemoveFromCache evicts an entry early. ExcludeCached opts a registration out of
// replay.
//
// # Concurrency
//
// Dispatch is synchronous on the broadcasting goroutine and delivery order among the
// subscribers of one message is unspecified. Callbacks run with no mediator lock held and
// may register, unregister or broadcast re-entrantly. A panicking callback is recovered
// and reported to its error handler as ErrSubscriberPanic unless WithRecoverPanics(false)
// is set.
//
// # Dead Subscribers
//
// Records whose receiver was collected stay in the registry until Unregister or Prune.
// WithAutoPrune(true) removes them as soon as a broadcast meets them.
//
// # Observing Broadcasts
//
// Observe attaches a function called after every dispatch with the message name and
// payload. The stream package builds channel subscriptions on top of it.
//
// # Configuration
//
// Config is loaded from MEDIATOR_AUTO_PRUNE, MEDIATOR_RECOVER_PANICS, MEDIATOR_LOGGING,
// MEDIATOR_LOG_LEVEL and MEDIATOR_LOG_FORMAT:
//
//	var cfg mediator.Config
//	config.MustLoad(&cfg)
//	m := mediator.NewFromConfig(cfg)
//
// # Errors
//
//   - ErrInvalidArgument: empty message name, zero token, nil callback method.
//   - ErrInvalidOperation: nil receiver.
//   - ErrCacheSettingsUnset: WithCache with zero CacheSettings.
//   - ErrMediatorClosed: register or broadcast after Close.
//   - ErrTypeMismatch, ErrSubscriberPanic: reported to subscriber error handlers only.
package mediator
