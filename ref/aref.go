// Package ref implements reference types: mutable cells holding a persistent
// value that is replaced atomically as a whole.
package ref

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tcard/gojure/persistent"
)

// Validator checks a candidate value for a reference. A non-nil error rejects
// it.
type Validator func(val interface{}) error

// ErrRejected is the cause of an *InvalidReferenceStateError when a predicate
// built with Pred returns false.
var ErrRejected = errors.New("value rejected by validator")

// Pred adapts a boolean predicate to a Validator.
func Pred(f func(val interface{}) bool) Validator {
	return func(val interface{}) error {
		if !f(val) {
			return ErrRejected
		}
		return nil
	}
}

// WatchFn is called after a reference changes, with the key it was added
// under.
type WatchFn func(key interface{}, ref IRef, oldVal, newVal interface{})

// IRef is implemented by every reference type.
type IRef interface {
	Deref() interface{}
	SetValidator(v Validator) error
	Validator() Validator
	AddWatch(key interface{}, fn WatchFn)
	RemoveWatch(key interface{})
	Watches() *persistent.HashMap
}

// InvalidReferenceStateError is returned when a validator rejects a value,
// by error or by panicking. The reference is left as it was.
type InvalidReferenceStateError struct {
	Val   interface{}
	Cause error
}

func (e *InvalidReferenceStateError) Error() string {
	return fmt.Sprintf("invalid reference state %v: %v", e.Val, e.Cause)
}

func (e *InvalidReferenceStateError) Unwrap() error {
	return e.Cause
}

// ARef holds what all references share: a validator, watches and metadata.
// The current value lives in the concrete reference type.
type ARef struct {
	// mu serializes writers of watches and meta. Readers don't take it.
	mu        sync.Mutex
	validator atomic.Pointer[Validator]
	watches   atomic.Pointer[persistent.HashMap]
	meta      *persistent.HashMap

	log *zap.Logger
}

func (r *ARef) init(v Validator, meta *persistent.HashMap, log *zap.Logger) {
	if v != nil {
		r.validator.Store(&v)
	}
	if meta == nil {
		meta = persistent.EmptyHashMap()
	}
	r.meta = meta
	r.watches.Store(persistent.EmptyHashMap())
	r.log = log
}

func (r *ARef) Validator() Validator {
	if v := r.validator.Load(); v != nil {
		return *v
	}
	return nil
}

// validate runs v against val, turning rejections and panics into an
// *InvalidReferenceStateError.
func (r *ARef) validate(v Validator, val interface{}) (err error) {
	if v == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			cause, ok := p.(error)
			if !ok {
				cause = errors.Errorf("validator panicked: %v", p)
			}
			err = r.rejected(val, cause)
		}
	}()
	if cause := v(val); cause != nil {
		return r.rejected(val, cause)
	}
	return nil
}

func (r *ARef) rejected(val interface{}, cause error) error {
	r.log.Debug("validator rejected value", zap.Any("value", val), zap.Error(cause))
	return errors.WithStack(&InvalidReferenceStateError{Val: val, Cause: cause})
}

// Watches returns the watches currently registered, keyed as they were added.
func (r *ARef) Watches() *persistent.HashMap {
	return r.watches.Load()
}

// AddWatch registers fn under key, replacing any watch already under it.
func (r *ARef) AddWatch(key interface{}, fn WatchFn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watches.Store(r.watches.Load().Assoc(key, fn))
}

func (r *ARef) RemoveWatch(key interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watches.Store(r.watches.Load().Dissoc(key))
}

// notifyWatches calls every watch, on the calling goroutine. Panics from a
// watch are not recovered.
func (r *ARef) notifyWatches(ref IRef, oldVal, newVal interface{}) {
	ws := r.watches.Load()
	if ws.Count() == 0 {
		return
	}
	ws.Range(func(k, fn interface{}) bool {
		fn.(WatchFn)(k, ref, oldVal, newVal)
		return true
	})
}

func (r *ARef) Meta() *persistent.HashMap {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meta
}

// ResetMeta replaces the metadata map and returns it.
func (r *ARef) ResetMeta(m *persistent.HashMap) *persistent.HashMap {
	if m == nil {
		m = persistent.EmptyHashMap()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meta = m
	return m
}

// AlterMeta replaces the metadata map with f applied to it, and returns the
// result. f runs with the metadata lock held.
func (r *ARef) AlterMeta(f func(*persistent.HashMap) *persistent.HashMap) *persistent.HashMap {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := f(r.meta)
	if m == nil {
		m = persistent.EmptyHashMap()
	}
	r.meta = m
	return m
}
