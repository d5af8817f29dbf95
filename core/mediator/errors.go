package mediator

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrInvalidArgument is returned for an empty message name, a zero token or a nil callback.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidOperation is returned when a callback has no receiver to track.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrTypeMismatch is reported to a subscriber's error handler when a broadcast payload
	// does not have the type the subscriber expects. It is never returned to broadcasters.
	ErrTypeMismatch = errors.New("payload type mismatch")

	// ErrSubscriberPanic is reported to a subscriber's error handler when its callback panicked.
	ErrSubscriberPanic = errors.New("subscriber panicked")

	// ErrMediatorClosed is returned by operations on a closed mediator.
	ErrMediatorClosed = errors.New("mediator is closed")

	// ErrCacheSettingsUnset is returned when WithCache receives a zero CacheSettings.
	ErrCacheSettingsUnset = fmt.Errorf("%w: cache settings not set", ErrInvalidArgument)
)

// TypeMismatchError describes a payload that did not match a subscriber's expected type.
type TypeMismatchError struct {
	Message    string
	Subscriber string
	Expected   reflect.Type // nil when the subscriber takes no payload
	Received   reflect.Type // nil for signals
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("subscriber %s of message %q expected a payload of type %s but the broadcaster sent %s",
		e.Subscriber, e.Message, typeName(e.Expected), typeName(e.Received))
}

// Is makes errors.Is(err, ErrTypeMismatch) hold.
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}
