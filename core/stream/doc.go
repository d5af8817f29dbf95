// Package stream turns mediator broadcasts into channel subscriptions.
//
// A Stream filters the mediator's broadcast notifications by message name and payload
// type and fans matching payloads out through a broadcast.MemoryBroadcaster. Streams are
// lazy and restartable: the mediator observer is attached on the first Subscribe and
// detached when the last subscription ends.
//
//	users := stream.Of[User](m, "user.updated", stream.WithBufferSize(16))
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	sub := users.Subscribe(ctx)
//	for msg := range sub.Receive(ctx) {
//		fmt.Println(msg.Data.Name)
//	}
//
// Delivery to a subscription never blocks the broadcaster; when its buffer is full the
// message is dropped for that subscription. Cached broadcasts are not replayed to
// streams.
package stream
