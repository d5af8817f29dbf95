// Package broadcast provides a generic fan-out primitive: one Broadcaster, many
// Subscribers, each with its own buffered channel.
//
// It is the transport underneath core/stream, which re-exposes mediator broadcasts as
// channel subscriptions, but it has no dependency on the mediator and can be used alone.
//
// # Usage
//
//	b := broadcast.NewMemoryBroadcaster[string](100)
//	defer b.Close()
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	sub := b.Subscribe(ctx)
//	go func() {
//		for msg := range sub.Receive(ctx) {
//			fmt.Println(msg.Data)
//		}
//	}()
//
//	_ = b.Broadcast(ctx, broadcast.Message[string]{Data: "hello"})
//
// # Delivery
//
// Broadcast never blocks on a subscriber. If a subscriber's buffer is full the message
// is dropped for that subscriber only. Subscribers are removed, and their channels
// closed, when their context is done, when Close is called on them, or when the
// broadcaster is closed.
//
// # Errors
//
//   - ErrBroadcasterClosed: Broadcast after Close.
//   - ErrSubscriberClosed: Close on a subscriber that was already detached.
//
// All types are safe for concurrent use.
package broadcast
