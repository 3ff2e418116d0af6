// Package errors provides the task failure reporting strategies used by the
// thread pool. Failures are isolated per task: handlers observe and report,
// they never stop a worker.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jzx17/inputrec/pkg/types"
)

// ErrorHandler defines a task failure handling interface
type ErrorHandler interface {
	// HandleError handles the failure, returns processed error or nil if handled
	HandleError(ctx context.Context, errCtx *ErrorContext) error

	// Name returns the name of the error handler
	Name() string

	// CanHandle determines if it can handle specific type of error
	CanHandle(err error) bool
}

// ErrorContext defines context information when a task fails
type ErrorContext struct {
	// Error that occurred
	Error error

	// TaskID is the pool-assigned sequence number of the failed task
	TaskID uint64

	// WorkerID is the worker that ran the task
	WorkerID int

	// Timestamp when the failure was observed
	Timestamp time.Time

	// Duration the task ran before failing
	Duration time.Duration

	// Metadata contains additional metadata information
	Metadata map[string]interface{}
}

// NewErrorContext creates a new error context
func NewErrorContext(err error, taskID uint64, workerID int, now time.Time) *ErrorContext {
	return &ErrorContext{
		Error:     err,
		TaskID:    taskID,
		WorkerID:  workerID,
		Timestamp: now,
		Metadata:  make(map[string]interface{}),
	}
}

// WithMetadata adds a metadata entry
func (ec *ErrorContext) WithMetadata(key string, value interface{}) *ErrorContext {
	ec.Metadata[key] = value
	return ec
}

// Stack returns the panic stack when the failure was a panic
func (ec *ErrorContext) Stack() []byte {
	var panicErr *types.TaskPanicError
	if stderrors.As(ec.Error, &panicErr) {
		return panicErr.Stack
	}
	return nil
}

// LoggingHandler reports every failure to a zerolog logger and continues
type LoggingHandler struct {
	name   string
	logger zerolog.Logger
	count  atomic.Int64
}

// NewLoggingHandler creates a logging handler
func NewLoggingHandler(logger zerolog.Logger) *LoggingHandler {
	return &LoggingHandler{
		name:   "Logging",
		logger: logger,
	}
}

// HandleError implements the ErrorHandler interface
func (h *LoggingHandler) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	h.count.Add(1)

	event := h.logger.Error().
		Err(errCtx.Error).
		Uint64("task_id", errCtx.TaskID).
		Int("worker_id", errCtx.WorkerID).
		Dur("duration", errCtx.Duration)
	if stack := errCtx.Stack(); stack != nil {
		event = event.Bytes("stack", stack)
	}
	for k, v := range errCtx.Metadata {
		event = event.Interface(k, v)
	}
	event.Msg("task failed")
	return nil
}

// Name returns the handler name
func (h *LoggingHandler) Name() string {
	return h.name
}

// CanHandle checks if it can handle errors (logging handler handles all errors)
func (h *LoggingHandler) CanHandle(err error) bool {
	return err != nil
}

// Count returns the number of failures reported
func (h *LoggingHandler) Count() int64 {
	return h.count.Load()
}

// CallbackHandler adapts a plain types.ErrorHandler function
type CallbackHandler struct {
	name string
	fn   types.ErrorHandler
}

// NewCallbackHandler creates a callback handler
func NewCallbackHandler(fn types.ErrorHandler) *CallbackHandler {
	return &CallbackHandler{
		name: "Callback",
		fn:   fn,
	}
}

// HandleError implements the ErrorHandler interface
func (h *CallbackHandler) HandleError(ctx context.Context, errCtx *ErrorContext) (err error) {
	if h.fn == nil {
		return nil
	}
	// a panicking callback must not take the worker down with it
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("error handler %s panicked: %v", h.name, r)
		}
	}()
	return h.fn(errCtx.Error)
}

// Name returns the handler name
func (h *CallbackHandler) Name() string {
	return h.name
}

// CanHandle checks if it can handle errors
func (h *CallbackHandler) CanHandle(err error) bool {
	return err != nil && h.fn != nil
}

// HandlerChain runs every handler that can handle the error, in order
type HandlerChain struct {
	mu       sync.RWMutex
	handlers []ErrorHandler
}

// NewHandlerChain creates a handler chain, skipping nil handlers
func NewHandlerChain(handlers ...ErrorHandler) *HandlerChain {
	c := &HandlerChain{}
	for _, h := range handlers {
		c.Add(h)
	}
	return c
}

// Add appends a handler
func (c *HandlerChain) Add(handler ErrorHandler) {
	if handler == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// HandleError implements the ErrorHandler interface, joining handler errors
func (c *HandlerChain) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	c.mu.RLock()
	handlers := c.handlers
	c.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if !h.CanHandle(errCtx.Error) {
			continue
		}
		if err := h.HandleError(ctx, errCtx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.Name(), err))
		}
	}
	return stderrors.Join(errs...)
}

// Name returns the handler name
func (c *HandlerChain) Name() string {
	return "Chain"
}

// CanHandle checks if any handler in the chain can handle the error
func (c *HandlerChain) CanHandle(err error) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, h := range c.handlers {
		if h.CanHandle(err) {
			return true
		}
	}
	return false
}

// Len returns the number of handlers
func (c *HandlerChain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers)
}
