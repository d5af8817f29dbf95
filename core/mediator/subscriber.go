package mediator

import (
	"fmt"
	"reflect"
	"weak"
)

// NoPayload is the payload type of signal subscriptions. Streams of signals carry it.
type NoPayload struct{}

type dispatchStatus uint8

const (
	statusDelivered dispatchStatus = iota
	statusTypeMismatch
	statusReceiverGone
	statusPanicked
)

func (s dispatchStatus) String() string {
	switch s {
	case statusDelivered:
		return "delivered"
	case statusTypeMismatch:
		return "type_mismatch"
	case statusReceiverGone:
		return "receiver_gone"
	case statusPanicked:
		return "panicked"
	default:
		return "unknown"
	}
}

// dispatchResult is the outcome of one delivery attempt. err is set for mismatches and panics.
type dispatchResult struct {
	status dispatchStatus
	err    error
}

// subscriber is the type-erased view of a registration held by the registry.
type subscriber interface {
	token() Token
	name() string
	// expected returns the payload type tag, nil for signal subscribers.
	expected() reflect.Type
	// alive reports whether the receiver has not been collected.
	alive() bool
	// deliver invokes the callback if the payload type matches and the receiver is alive.
	// With lenient set, signal subscribers accept any payload and get called without it.
	deliver(payload any, payloadType reflect.Type, lenient bool) dispatchResult
	// fail hands err to the error handler. Reports whether a live handler received it.
	fail(err error) bool
}

// errorHandler is the type-erased error callback of a registration.
type errorHandler interface {
	handle(err error) bool
}

// weakSubscriber holds its receiver through a weak pointer so a registration never
// keeps its owner alive. method must not capture the receiver.
type weakSubscriber[R, T any] struct {
	tok      Token
	label    string
	receiver weak.Pointer[R]
	method   func(*R, T)
	tag      reflect.Type
	onError  errorHandler
}

func newWeakSubscriber[R, T any](tok Token, label string, receiver *R, method func(*R, T), tag reflect.Type, onError errorHandler) (*weakSubscriber[R, T], error) {
	if receiver == nil {
		return nil, fmt.Errorf("%w: callback must have a receiver", ErrInvalidOperation)
	}
	if method == nil {
		return nil, fmt.Errorf("%w: callback method is nil", ErrInvalidArgument)
	}
	return &weakSubscriber[R, T]{
		tok:      tok,
		label:    label,
		receiver: weak.Make(receiver),
		method:   method,
		tag:      tag,
		onError:  onError,
	}, nil
}

func (s *weakSubscriber[R, T]) token() Token           { return s.tok }
func (s *weakSubscriber[R, T]) name() string           { return s.label }
func (s *weakSubscriber[R, T]) expected() reflect.Type { return s.tag }
func (s *weakSubscriber[R, T]) alive() bool            { return s.receiver.Value() != nil }

func (s *weakSubscriber[R, T]) deliver(payload any, payloadType reflect.Type, lenient bool) dispatchResult {
	if s.tag != payloadType && !(lenient && s.tag == nil) {
		return dispatchResult{
			status: statusTypeMismatch,
			err: &TypeMismatchError{
				Message:    s.tok.message,
				Subscriber: s.label,
				Expected:   s.tag,
				Received:   payloadType,
			},
		}
	}

	r := s.receiver.Value()
	if r == nil {
		return dispatchResult{status: statusReceiverGone}
	}

	var v T
	if s.tag != nil {
		// A nil interface payload leaves v at its zero value.
		v, _ = payload.(T)
	}
	s.method(r, v)
	return dispatchResult{status: statusDelivered}
}

func (s *weakSubscriber[R, T]) fail(err error) bool {
	if s.onError == nil {
		return false
	}
	return s.onError.handle(err)
}

type weakErrorHandler[E any] struct {
	receiver weak.Pointer[E]
	method   func(*E, error)
}

func (h *weakErrorHandler[E]) handle(err error) bool {
	r := h.receiver.Value()
	if r == nil {
		return false
	}
	h.method(r, err)
	return true
}
