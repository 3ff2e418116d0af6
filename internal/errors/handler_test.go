package errors

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jzx17/inputrec/pkg/types"
)

// TestErrorContext tests basic functionality of error context
func TestErrorContext(t *testing.T) {
	testErr := errors.New("test error")
	now := time.Unix(100, 0)

	errCtx := NewErrorContext(testErr, 9, 2, now)

	if errCtx.Error != testErr {
		t.Errorf("Expected error %v, got %v", testErr, errCtx.Error)
	}
	if errCtx.TaskID != 9 {
		t.Errorf("Expected task id 9, got %d", errCtx.TaskID)
	}
	if errCtx.WorkerID != 2 {
		t.Errorf("Expected worker id 2, got %d", errCtx.WorkerID)
	}
	if !errCtx.Timestamp.Equal(now) {
		t.Errorf("Expected timestamp %v, got %v", now, errCtx.Timestamp)
	}
	if errCtx.Stack() != nil {
		t.Errorf("Expected no stack for plain error")
	}

	errCtx.WithMetadata("source", "test")
	if errCtx.Metadata["source"] != "test" {
		t.Errorf("Expected metadata to be set")
	}
}

func TestErrorContext_PanicStack(t *testing.T) {
	panicErr := types.NewTaskPanicError(1, "boom", []byte("goroutine 1"))
	errCtx := NewErrorContext(panicErr, 1, 0, time.Now())

	if string(errCtx.Stack()) != "goroutine 1" {
		t.Errorf("Expected panic stack, got %q", errCtx.Stack())
	}
}

func TestLoggingHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := NewLoggingHandler(zerolog.New(&buf))

	if handler.Name() != "Logging" {
		t.Errorf("Expected name Logging, got %s", handler.Name())
	}
	if handler.CanHandle(nil) {
		t.Errorf("Expected nil error not to be handled")
	}

	panicErr := types.NewTaskPanicError(4, "boom", []byte("trace"))
	errCtx := NewErrorContext(panicErr, 4, 1, time.Now()).WithMetadata("pool", "test")

	if err := handler.HandleError(context.Background(), errCtx); err != nil {
		t.Fatalf("Expected nil, got %v", err)
	}
	if handler.Count() != 1 {
		t.Errorf("Expected count 1, got %d", handler.Count())
	}

	out := buf.String()
	for _, want := range []string{`"level":"error"`, `"task_id":4`, `"worker_id":1`, `"pool":"test"`, "task failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log output to contain %s, got %s", want, out)
		}
	}
}

func TestCallbackHandler(t *testing.T) {
	var seen error
	handler := NewCallbackHandler(func(err error) error {
		seen = err
		return nil
	})

	testErr := errors.New("task failed")
	if !handler.CanHandle(testErr) {
		t.Fatalf("Expected callback handler to handle errors")
	}
	if err := handler.HandleError(context.Background(), NewErrorContext(testErr, 1, 0, time.Now())); err != nil {
		t.Fatalf("Expected nil, got %v", err)
	}
	if seen != testErr {
		t.Errorf("Expected callback to receive %v, got %v", testErr, seen)
	}

	if NewCallbackHandler(nil).CanHandle(testErr) {
		t.Errorf("Expected nil callback not to handle errors")
	}
}

func TestCallbackHandler_RecoversPanic(t *testing.T) {
	handler := NewCallbackHandler(func(err error) error {
		panic("handler exploded")
	})

	err := handler.HandleError(context.Background(), NewErrorContext(errors.New("x"), 1, 0, time.Now()))
	if err == nil || !strings.Contains(err.Error(), "handler exploded") {
		t.Errorf("Expected recovered panic error, got %v", err)
	}
}

func TestHandlerChain(t *testing.T) {
	var calls []string
	first := NewCallbackHandler(func(err error) error {
		calls = append(calls, "first")
		return nil
	})
	second := NewCallbackHandler(func(err error) error {
		calls = append(calls, "second")
		return errors.New("second failed")
	})

	chain := NewHandlerChain(first, nil, second)
	if chain.Len() != 2 {
		t.Fatalf("Expected nil handlers to be skipped, got %d", chain.Len())
	}

	testErr := errors.New("task failed")
	if !chain.CanHandle(testErr) {
		t.Fatalf("Expected chain to handle error")
	}

	err := chain.HandleError(context.Background(), NewErrorContext(testErr, 1, 0, time.Now()))
	if err == nil || !strings.Contains(err.Error(), "second failed") {
		t.Errorf("Expected joined handler error, got %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("Expected handlers to run in order, got %v", calls)
	}
}

func TestHandlerChain_Empty(t *testing.T) {
	chain := NewHandlerChain()
	if chain.CanHandle(errors.New("x")) {
		t.Errorf("Expected empty chain not to handle errors")
	}
	if err := chain.HandleError(context.Background(), NewErrorContext(errors.New("x"), 1, 0, time.Now())); err != nil {
		t.Errorf("Expected nil from empty chain, got %v", err)
	}
}
