// Package tracing wraps OpenTelemetry spans together with the prometheus
// metrics and log lines that usually accompany them.
package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/bsv-blockchain/utxogate/ulogger"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Options func(s *TraceOptions)

type TraceOptions struct {
	Tags       []attribute.KeyValue
	Histogram  prometheus.Histogram
	Counter    prometheus.Counter
	Logger     ulogger.Logger
	LogMessage string
	LogArgs    []interface{}
}

func WithTag(key, value string) Options {
	return func(s *TraceOptions) {
		s.Tags = append(s.Tags, attribute.String(key, value))
	}
}

// WithHistogram sets the prometheus histogram to be observed when the span is finished.
func WithHistogram(histogram prometheus.Histogram) Options {
	return func(s *TraceOptions) {
		s.Histogram = histogram
	}
}

// WithCounter sets the prometheus counter to be incremented when the span is finished.
func WithCounter(counter prometheus.Counter) Options {
	return func(s *TraceOptions) {
		s.Counter = counter
	}
}

// WithLogMessage logs the formatted message at INFO when the span starts and again,
// with the elapsed time, when it ends. Use it on request boundaries, not in hot loops.
func WithLogMessage(logger ulogger.Logger, format string, args ...interface{}) Options {
	return func(s *TraceOptions) {
		s.Logger = logger
		s.LogMessage = format
		s.LogArgs = args
	}
}

type UTracer struct {
	tracer trace.Tracer
}

// Tracer returns a tracer from the global provider. Without InitTracer the global
// provider is a no-op and spans cost next to nothing.
func Tracer(name string) *UTracer {
	return &UTracer{tracer: otel.Tracer(name)}
}

// Start opens a span and returns the context carrying it, the span, and the function
// that ends it. Passing an error to the end function records it on the span.
func (u *UTracer) Start(ctx context.Context, name string, setOptions ...Options) (context.Context, trace.Span, func(...error)) {
	options := &TraceOptions{}
	for _, opt := range setOptions {
		opt(options)
	}

	start := time.Now()

	ctx, span := u.tracer.Start(ctx, name, trace.WithAttributes(options.Tags...))

	if options.Logger != nil && options.LogMessage != "" {
		options.Logger.Infof(options.LogMessage, options.LogArgs...)
	}

	return ctx, span, func(errs ...error) {
		var err error

		for _, e := range errs {
			if e != nil {
				err = e
				break
			}
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()

		if options.Histogram != nil {
			options.Histogram.Observe(float64(time.Since(start).Microseconds()) / 1_000_000)
		}

		if options.Counter != nil {
			options.Counter.Inc()
		}

		if options.Logger != nil && options.LogMessage != "" {
			done := fmt.Sprintf(" DONE in %s", time.Since(start))
			if err != nil {
				done += fmt.Sprintf(" with error: %v", err)
			}

			options.Logger.Infof("%s%s", fmt.Sprintf(options.LogMessage, options.LogArgs...), done)
		}
	}
}
