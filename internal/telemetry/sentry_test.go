package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_EmptyDSN(t *testing.T) {
	shutdown, err := Init(Config{}, nil)

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NotPanics(t, shutdown)
}

func TestStartSpan_WithoutClient(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "corpus.build", SpanAttributes{
		Operation:   "build",
		Fingerprint: "abc",
		ChunkCount:  3,
	})
	require.NotNil(t, ctx)

	assert.NotPanics(t, func() {
		span.SetData("cache_hit", true)
		span.SetStatus(sentry.SpanStatusOK)
		span.SetError(errors.New("boom"))
		span.End()
	})
}

func TestStartSpan_ChildOfParent(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "chat.reply", SpanAttributes{})
	defer parent.End()

	_, child := StartSpan(ctx, "corpus.search", SpanAttributes{TopK: 5})
	defer child.End()

	require.NotNil(t, child.inner)
	assert.Equal(t, parent.inner.TraceID, child.inner.TraceID)
	assert.Equal(t, parent.inner.SpanID, child.inner.ParentSpanID)
}

func TestCaptureAndBreadcrumb_WithoutClient(t *testing.T) {
	assert.NotPanics(t, func() {
		CaptureError(context.Background(), errors.New("boom"))
		AddBreadcrumb(context.Background(), "corpus", "rebuilt")
	})
}

func TestSetTag_TagsRequestTransaction(t *testing.T) {
	hub := sentry.NewHub(nil, sentry.NewScope())
	ctx := sentry.SetHubOnContext(context.Background(), hub)
	txn := sentry.StartTransaction(ctx, "POST /api/chat")
	defer txn.Finish()

	spanCtx, child := StartSpan(txn.Context(), "chat.reply", SpanAttributes{})
	defer child.End()

	SetTag(spanCtx, "chat.grounded", "false")

	assert.Equal(t, "false", txn.Tags["chat.grounded"])
}

func TestSetTag_WithoutTransaction(t *testing.T) {
	assert.NotPanics(t, func() {
		SetTag(context.Background(), "chat.grounded", "true")
	})
}
