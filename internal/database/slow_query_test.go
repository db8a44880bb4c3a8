package database

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSlowQueryTracer(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tracer := newSlowQueryTracer(100*time.Millisecond, &logger)
	tracer.now = func() time.Time { return clock }

	run := func(d time.Duration, err error) {
		ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
		clock = clock.Add(d)
		tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: err})
	}

	run(20*time.Millisecond, nil)
	assert.Empty(t, buf.String())

	run(250*time.Millisecond, errors.New("canceling statement"))
	assert.Contains(t, buf.String(), `"message":"slow query"`)
	assert.Contains(t, buf.String(), `"sql":"SELECT 1"`)
	assert.Contains(t, buf.String(), "canceling statement")
}

func TestSlowQueryTracerWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	newSlowQueryTracer(time.Nanosecond, &logger).TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})
	assert.Empty(t, buf.String())
}
