package context

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestWithOptionalTimeout(t *testing.T) {
	parent := context.Background()

	ctx, cancel := WithOptionalTimeout(parent, 0)
	cancel()
	if ctx != parent {
		t.Error("zero timeout should return the parent context")
	}
	if _, ok := ctx.Deadline(); ok {
		t.Error("zero timeout should not set a deadline")
	}

	ctx, cancel = WithOptionalTimeout(parent, time.Minute)
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Error("positive timeout should set a deadline")
	}
}

func TestIsCanceledAndTimedOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	if IsCanceled(ctx) {
		t.Error("live context reported canceled")
	}
	cancel()
	if !IsCanceled(ctx) || IsTimedOut(ctx) {
		t.Error("canceled context misreported")
	}

	tctx, tcancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer tcancel()
	<-tctx.Done()
	if !IsTimedOut(tctx) {
		t.Error("expired context should report a timeout")
	}
}

func TestIsStop(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, true},
		{fmt.Errorf("acquire: %w", context.DeadlineExceeded), true},
		{errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := IsStop(tt.err); got != tt.want {
			t.Errorf("IsStop(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
