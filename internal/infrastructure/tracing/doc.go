/*
Package tracing provides lightweight request tracing.

# Overview

Every API request gets a span. Handlers open child spans around slow work
such as crawling a page, so a single trace id ties together the request log
line and the spans of the crawl it triggered.

# Usage

	tracer := tracing.New("framelens", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "inspection.crawl")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Trace Format

Trace context travels in HTTP headers:
- X-Trace-ID: identifier of the entire request flow
- X-Span-ID: identifier of the current operation

Completed spans are collected through a buffered channel and written to the
log; spans are dropped when the buffer is full.
*/
package tracing
