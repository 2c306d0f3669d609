package ref

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/tcard/gojure/lang"
	"github.com/tcard/gojure/persistent"
)

// Atom is a reference whose value is replaced with compare-and-swap. Updates
// never block each other; a Swap that loses a race recomputes its value from
// the winner's and tries again.
type Atom struct {
	ARef
	state atomic.Pointer[box]
}

var _ IRef = (*Atom)(nil)

// box gives every published value its own identity, so that the CAS compares
// publications rather than values.
type box struct {
	val interface{}
}

type options struct {
	validator Validator
	meta      *persistent.HashMap
	logger    *zap.Logger
}

type Option func(*options)

// WithValidator makes the atom reject, with an *InvalidReferenceStateError,
// every value v doesn't accept, the initial one included.
func WithValidator(v Validator) Option {
	return func(o *options) {
		o.validator = v
	}
}

func WithMeta(m *persistent.HashMap) Option {
	return func(o *options) {
		o.meta = m
	}
}

// WithLogger sets the logger contention and rejected values are reported to,
// at debug level. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// NewAtom returns an atom holding val. It fails if a validator is given and
// rejects val.
func NewAtom(val interface{}, opts ...Option) (*Atom, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	a := &Atom{}
	a.init(o.validator, o.meta, o.logger.Named("atom"))
	if err := a.validate(o.validator, val); err != nil {
		return nil, err
	}
	a.state.Store(&box{val})
	return a, nil
}

func (a *Atom) Deref() interface{} {
	return a.state.Load().val
}

// SetValidator replaces the validator. The current value must pass v, or
// the validator is left unchanged. A nil v removes the validator.
func (a *Atom) SetValidator(v Validator) error {
	if err := a.validate(v, a.Deref()); err != nil {
		return err
	}
	if v == nil {
		a.validator.Store(nil)
		return nil
	}
	a.validator.Store(&v)
	return nil
}

// Swap sets the value to f applied to the current one and returns the new
// value. f may be called more than once and must not have side effects.
func (a *Atom) Swap(f func(old interface{}) interface{}) (interface{}, error) {
	_, newVal, err := a.SwapVals(f)
	return newVal, err
}

// SwapVals is like Swap but returns the value that was replaced too.
func (a *Atom) SwapVals(f func(old interface{}) interface{}) (oldVal, newVal interface{}, err error) {
	for attempt := 1; ; attempt++ {
		cur := a.state.Load()
		newVal = f(cur.val)
		if err := a.validate(a.Validator(), newVal); err != nil {
			return nil, nil, err
		}
		if a.state.CompareAndSwap(cur, &box{newVal}) {
			a.notifyWatches(a, cur.val, newVal)
			return cur.val, newVal, nil
		}
		a.log.Debug("swap lost a race, retrying", zap.Int("attempt", attempt))
	}
}

// Reset sets the value to newVal regardless of the current one.
func (a *Atom) Reset(newVal interface{}) (interface{}, error) {
	_, _, err := a.ResetVals(newVal)
	if err != nil {
		return nil, err
	}
	return newVal, nil
}

// ResetVals is like Reset but returns the value that was replaced too.
func (a *Atom) ResetVals(newVal interface{}) (interface{}, interface{}, error) {
	if err := a.validate(a.Validator(), newVal); err != nil {
		return nil, nil, err
	}
	old := a.state.Swap(&box{newVal})
	a.notifyWatches(a, old.val, newVal)
	return old.val, newVal, nil
}

// CompareAndSet sets the value to newVal only if the current value is
// identical to oldVal, as in lang.Identical, and reports whether it did.
func (a *Atom) CompareAndSet(oldVal, newVal interface{}) (bool, error) {
	if err := a.validate(a.Validator(), newVal); err != nil {
		return false, err
	}
	for {
		cur := a.state.Load()
		if !lang.Identical(cur.val, oldVal) {
			return false, nil
		}
		if a.state.CompareAndSwap(cur, &box{newVal}) {
			a.notifyWatches(a, cur.val, newVal)
			return true, nil
		}
	}
}
