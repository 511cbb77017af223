/*
Package tracing provides lightweight request tracing for the desktop backend.

# Overview

Each HTTP request and each navigation arriving over the stream gets a span.
Spans carry a trace ID shared by everything the request caused, so a deep
link that launches an app can be followed from the request to the launch
in the logs.

# Usage

	tracer := tracing.New("webdesk", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	err := tracer.Trace(ctx, "location.navigate", func(ctx context.Context) error {
		_, err := service.HandleNavigation(ctx, url)
		return err
	})

# Trace Format

Traces use HTTP headers for propagation:
  - X-Trace-ID: Unique identifier for entire request flow
  - X-Span-ID: Identifier for current operation

Spans are buffered (1000) and logged by a background collector.
*/
package tracing
