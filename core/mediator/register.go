package mediator

import (
	"reflect"
	"runtime"

	"github.com/dmitrymomot/courier/core/logger"
)

// Register subscribes method on receiver to message. Broadcasts of message whose payload
// type is T invoke method synchronously; broadcasts with any other payload type are
// reported to the error handler set with WithErrorHandler, if any.
//
// The receiver is held weakly: once it is garbage collected the subscription stops
// receiving messages without an explicit Unregister. method must therefore not capture
// receiver; pass a method expression such as (*Widget).OnUserUpdated.
//
// Unless ExcludeCached is given, live cached broadcasts of message are replayed to the
// new subscriber before Register returns.
//
// Example:
//
//	token, err := mediator.Register(m, "user.updated", widget, (*Widget).OnUserUpdated,
//	    mediator.WithErrorHandler(widget, (*Widget).OnBusError),
//	)
func Register[R, T any](m *Mediator, message string, receiver *R, method func(*R, T), opts ...RegisterOption) (Token, error) {
	return register(m, message, receiver, method, reflect.TypeFor[T](), funcName(method), opts)
}

// RegisterType subscribes method to the message named after T (see MessageName).
func RegisterType[R, T any](m *Mediator, receiver *R, method func(*R, T), opts ...RegisterOption) (Token, error) {
	return Register(m, MessageName[T](), receiver, method, opts...)
}

// RegisterSignal subscribes a method that takes no payload. It is invoked by Signal and
// is reported a type mismatch for payload-carrying broadcasts of the same message.
// Cached broadcasts of any payload type are replayed to it without their payload.
func RegisterSignal[R any](m *Mediator, message string, receiver *R, method func(*R), opts ...RegisterOption) (Token, error) {
	var adapted func(*R, NoPayload)
	if method != nil {
		adapted = func(r *R, _ NoPayload) { method(r) }
	}
	return register(m, message, receiver, adapted, nil, funcName(method), opts)
}

func register[R, T any](m *Mediator, message string, receiver *R, method func(*R, T), tag reflect.Type, label string, opts []RegisterOption) (Token, error) {
	if err := m.checkOpen(); err != nil {
		return Token{}, err
	}
	if err := validateMessage(message); err != nil {
		return Token{}, err
	}

	var reg registration
	for _, opt := range opts {
		opt(&reg)
	}
	if reg.err != nil {
		return Token{}, reg.err
	}

	sub, err := newWeakSubscriber(newToken(message, m.now()), label, receiver, method, tag, reg.onError)
	if err != nil {
		return Token{}, err
	}

	if !reg.excludeCached {
		m.replay(sub)
	}

	if err := m.subscribers.add(sub); err != nil {
		return Token{}, err
	}
	// Close may have run during replay or before the record was added.
	if err := m.checkOpen(); err != nil {
		m.subscribers.remove(sub.tok)
		return Token{}, err
	}

	m.logger.Debug("subscriber registered",
		logger.Message(message),
		logger.Token(sub.tok),
		logger.Subscriber(label),
		logger.PayloadType(typeName(tag)))

	// The weak pointer must not observe receiver as collected before the record exists.
	runtime.KeepAlive(receiver)
	return sub.tok, nil
}

// replay delivers every live cached broadcast of the subscriber's message to it.
func (m *Mediator) replay(sub subscriber) {
	claimed := m.cache.claim(sub.token().Message())
	if len(claimed) == 0 {
		return
	}

	var delivered, failed []*cacheEntry
	defer func() {
		// Claims not reached because a callback panicked through are released.
		rest := claimed[len(delivered)+len(failed):]
		m.cache.settle(delivered, append(failed, rest...))
	}()

	for _, e := range claimed {
		res := m.invoke(sub, e.payload, e.payloadType, true)
		m.route(sub, res)

		if res.status == statusDelivered {
			delivered = append(delivered, e)
			m.replays.Add(1)
		} else {
			failed = append(failed, e)
		}
	}

	m.logger.Debug("cached messages replayed",
		logger.Message(sub.token().Message()),
		logger.Token(sub.token()),
		logger.Count("replayed", len(delivered)),
		logger.Count("failed", len(failed)))
}
