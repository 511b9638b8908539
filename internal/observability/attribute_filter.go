package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// allowedAttributePrefixes is the export allow-list. Span attributes outside
// these namespaces never leave the process.
var allowedAttributePrefixes = []string{
	"app.",
	"archgate.",
	"audit.",
	"churn.",
	"error.",
	"exception.",
	"http.",
	"lsp.",
	"mcp.",
	"otel.",
	"policy.",
	"report.",
	"rpc.",
}

// blockedAttributeKeys are dropped even when a prefix would admit them. Raw
// source text and user identifiers must not end up in trace storage.
var blockedAttributeKeys = map[string]struct{}{
	"audit.source":  {},
	"http.body":     {},
	"request.body":  {},
	"response.body": {},
	"user.email":    {},
	"user.name":     {},
}

type attributeFilter struct {
	next sdktrace.SpanProcessor
}

// NewAttributeFilter wraps next so every exported span carries only allow-listed
// attributes.
func NewAttributeFilter(next sdktrace.SpanProcessor) sdktrace.SpanProcessor {
	return &attributeFilter{next: next}
}

func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.next.OnStart(parent, s)
}

func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.next.OnEnd(filteredSpan{ReadOnlySpan: s, attrs: filterAttributes(s.Attributes())})
}

func (f *attributeFilter) Shutdown(ctx context.Context) error {
	return f.next.Shutdown(ctx)
}

func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	return f.next.ForceFlush(ctx)
}

// filteredSpan overrides Attributes on the underlying span; everything else is
// delegated untouched.
type filteredSpan struct {
	sdktrace.ReadOnlySpan

	attrs []attribute.KeyValue
}

func (s filteredSpan) Attributes() []attribute.KeyValue {
	return s.attrs
}

func filterAttributes(attrs []attribute.KeyValue) []attribute.KeyValue {
	kept := make([]attribute.KeyValue, 0, len(attrs))

	for _, attr := range attrs {
		key := string(attr.Key)

		if _, blocked := blockedAttributeKeys[key]; blocked {
			continue
		}

		if hasAllowedPrefix(key) {
			kept = append(kept, attr)
		}
	}

	return kept
}

func hasAllowedPrefix(key string) bool {
	for _, prefix := range allowedAttributePrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}

	return false
}
