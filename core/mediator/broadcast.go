package mediator

import (
	"reflect"

	"github.com/dmitrymomot/courier/core/logger"
)

// Broadcast delivers payload to every live subscriber of message whose payload type is T,
// synchronously on the calling goroutine. Subscribers of message that expect another type
// are reported a *TypeMismatchError through their error handler instead.
//
// With WithCache the broadcast is also stored for replay to later subscribers, and the
// returned Token identifies the cached entry. Otherwise the zero Token is returned.
//
// Example:
//
//	_, err := mediator.Broadcast(m, "user.updated", user)
//
//	token, err := mediator.Broadcast(m, "config.loaded", cfg,
//	    mediator.WithCache(mediator.CacheFor(time.Minute)),
//	)
func Broadcast[T any](m *Mediator, message string, payload T, opts ...BroadcastOption) (Token, error) {
	return m.broadcast(message, payload, reflect.TypeFor[T](), opts)
}

// BroadcastType broadcasts payload under the message named after T (see MessageName).
func BroadcastType[T any](m *Mediator, payload T, opts ...BroadcastOption) (Token, error) {
	return Broadcast(m, MessageName[T](), payload, opts...)
}

// Signal broadcasts message without a payload. Only subscribers registered with
// RegisterSignal receive it; typed subscribers of message are reported a mismatch.
func (m *Mediator) Signal(message string, opts ...BroadcastOption) (Token, error) {
	return m.broadcast(message, nil, nil, opts)
}

func (m *Mediator) broadcast(message string, payload any, payloadType reflect.Type, opts []BroadcastOption) (Token, error) {
	if err := m.checkOpen(); err != nil {
		return Token{}, err
	}
	if err := validateMessage(message); err != nil {
		return Token{}, err
	}

	var cfg broadcastConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.cache != nil && cfg.cache.IsZero() {
		return Token{}, ErrCacheSettingsUnset
	}

	// Every record is type-checked, including those that will match.
	subs := m.subscribers.lookup(message)
	delivered := 0
	for _, sub := range subs {
		res := m.invoke(sub, payload, payloadType, false)
		m.route(sub, res)
		if res.status == statusDelivered {
			delivered++
		}
	}

	m.broadcasts.Add(1)
	m.notify(Notification{
		Message:     message,
		Payload:     payload,
		PayloadType: payloadType,
		Time:        m.now(),
	})

	m.logger.Debug("message broadcast",
		logger.Message(message),
		logger.PayloadType(typeName(payloadType)),
		logger.Count("subscribers", len(subs)),
		logger.Count("delivered", delivered))

	if cfg.cache == nil {
		return Token{}, nil
	}

	// A subscriber may have closed the mediator during dispatch.
	if err := m.checkOpen(); err != nil {
		return Token{}, err
	}

	token := m.cache.store(message, payload, payloadType, *cfg.cache)
	m.logger.Debug("message cached",
		logger.Message(message),
		logger.Token(token),
		logger.Key("policy", cfg.cache.String()))

	return token, nil
}
