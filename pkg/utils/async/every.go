package async

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/m-mizutani/ctxlog"
)

// Every runs fn every interval in a new goroutine until the returned stop
// function is called or ctx is done.
//
// Behavior:
//   - A non-positive interval disables the loop; stop is then a no-op
//   - Panics in fn are recovered and logged with stack, ending the loop
//   - stop blocks until the goroutine has exited and may be called more than once
func Every(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) (stop func()) {
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger := ctxlog.From(ctx)
				logger.Error("panic in periodic task",
					"recover", r,
					"stack", string(stack))
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fn(ctx)
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		<-exited
	}
}
