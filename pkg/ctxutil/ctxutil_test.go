package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestWithUserID_And_UserIDFromCtx(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	ctx := WithUserID(context.Background(), id)

	got, ok := UserIDFromCtx(ctx)
	if !ok {
		t.Fatal("expected ok=true for valid UUID")
	}
	if got != id {
		t.Fatalf("expected %s, got %s", id, got)
	}
}

func TestUserIDFromCtx_EmptyContext(t *testing.T) {
	t.Parallel()

	got, ok := UserIDFromCtx(context.Background())
	if ok {
		t.Fatal("expected ok=false for empty context")
	}
	if got != uuid.Nil {
		t.Fatalf("expected uuid.Nil, got %s", got)
	}
}

func TestUserIDFromCtx_NilUUID(t *testing.T) {
	t.Parallel()

	ctx := WithUserID(context.Background(), uuid.Nil)
	if _, ok := UserIDFromCtx(ctx); ok {
		t.Fatal("expected ok=false for nil UUID")
	}
}

func TestIsAdminCtx(t *testing.T) {
	t.Parallel()

	if IsAdminCtx(context.Background()) {
		t.Fatal("empty context must not be admin")
	}
	if !IsAdminCtx(WithAdmin(context.Background(), true)) {
		t.Fatal("expected admin after WithAdmin(true)")
	}
	if IsAdminCtx(WithAdmin(context.Background(), false)) {
		t.Fatal("expected non-admin after WithAdmin(false)")
	}
}

func TestRequestID_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-123")
	if got := RequestIDFromCtx(ctx); got != "req-123" {
		t.Fatalf("expected req-123, got %q", got)
	}
	if got := RequestIDFromCtx(context.Background()); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
