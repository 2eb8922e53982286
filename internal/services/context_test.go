package services_test

import (
	"context"
	"testing"

	"stemstrip/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithItem(ctx, "song.psarc")
	ctx = services.WithStage(ctx, "separate")
	ctx = services.WithRunID(ctx, "run-123")

	if item, ok := services.ItemFromContext(ctx); !ok || item != "song.psarc" {
		t.Fatalf("unexpected item: %v %v", item, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "separate" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}

func TestItemBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithItem(ctx, "")
	if _, ok := services.ItemFromContext(ctx); ok {
		t.Fatal("expected no item value")
	}
}
