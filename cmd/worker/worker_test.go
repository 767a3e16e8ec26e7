package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"resido/pkg/logger"
)

func TestWorker_RunsJobsInOrderAndSurvivesFailures(t *testing.T) {
	var calls []string
	ctx, cancel := context.WithCancel(context.Background())

	w := NewWorker(logger.NewNop(), time.Hour,
		Job{Name: "a", Run: func(context.Context) (int64, error) {
			calls = append(calls, "a")
			return 0, errors.New("boom")
		}},
		Job{Name: "b", Run: func(context.Context) (int64, error) {
			calls = append(calls, "b")
			cancel()
			return 3, nil
		}},
		Job{Name: "c", Run: func(context.Context) (int64, error) {
			calls = append(calls, "c")
			return 0, nil
		}},
	)

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestNewWorker_DefaultInterval(t *testing.T) {
	w := NewWorker(logger.NewNop(), 0)
	assert.Equal(t, time.Hour, w.interval)
}
