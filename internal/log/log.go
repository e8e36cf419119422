package log

import "context"

// Kv is a helper type for structured logging fields.
type Kv = map[string]any

// Logger is the interface every component of the tracker logs through.
type Logger interface {
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
	WithValues(values Kv) Logger
	WithCtxValues(ctx context.Context) Logger
	SetValuesOnCtx(parent context.Context, values Kv) context.Context
}

type noop int

// Noop logger doesn't log anything.
const Noop = noop(0)

func (n noop) Infof(format string, args ...any)    {}
func (n noop) Warningf(format string, args ...any) {}
func (n noop) Errorf(format string, args ...any)   {}
func (n noop) Debugf(format string, args ...any)   {}
func (n noop) WithValues(Kv) Logger                 { return n }
func (n noop) WithCtxValues(context.Context) Logger { return n }
func (n noop) SetValuesOnCtx(parent context.Context, values Kv) context.Context {
	return parent
}

type contextKey string

const contextLogValuesKey = contextKey("internal-log")

// CtxWithValues returns a copy of parent in which the key values passed have been
// stored ready to be used by log.Logger.
func CtxWithValues(parent context.Context, kv Kv) context.Context {
	// Merge with the values already present on the context.
	old := ValuesFromCtx(parent)
	merged := Kv{}
	for k, v := range old {
		merged[k] = v
	}
	for k, v := range kv {
		merged[k] = v
	}

	return context.WithValue(parent, contextLogValuesKey, merged)
}

// ValuesFromCtx gets the log Key values from a context.
func ValuesFromCtx(ctx context.Context) Kv {
	if ctx == nil {
		return Kv{}
	}
	values, ok := ctx.Value(contextLogValuesKey).(Kv)
	if !ok {
		return Kv{}
	}

	return values
}
