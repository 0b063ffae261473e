package memory

import (
	"context"
	"errors"
	"testing"

	"index-dashboard/internal/domain"
	"index-dashboard/internal/storage"
)

func TestPriceSeriesStore_InsertBulkAndGet(t *testing.T) {
	store := NewPriceSeriesStore()
	ctx := context.Background()

	points := []*domain.PricePoint{
		{SeriesID: "dpi", TimestampMs: 2000, Value: 110.0},
		{SeriesID: "dpi", TimestampMs: 1000, Value: 100.0},
		{SeriesID: "eth", TimestampMs: 1000, Value: 3000.0},
	}

	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetBySeries(ctx, "dpi")
	if err != nil {
		t.Fatalf("GetBySeries failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(result))
	}
	if result[0].TimestampMs != 1000 || result[1].TimestampMs != 2000 {
		t.Errorf("Expected ascending timestamps, got %d, %d", result[0].TimestampMs, result[1].TimestampMs)
	}
}

func TestPriceSeriesStore_DuplicateKey(t *testing.T) {
	store := NewPriceSeriesStore()
	ctx := context.Background()

	points := []*domain.PricePoint{
		{SeriesID: "dpi", TimestampMs: 1000, Value: 1.0},
	}

	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, points)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestPriceSeriesStore_IntraBatchDuplicate(t *testing.T) {
	store := NewPriceSeriesStore()
	ctx := context.Background()

	points := []*domain.PricePoint{
		{SeriesID: "dpi", TimestampMs: 1000, Value: 1.0},
		{SeriesID: "dpi", TimestampMs: 1000, Value: 2.0},
	}

	err := store.InsertBulk(ctx, points)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Batch is atomic: nothing stored
	result, _ := store.GetBySeries(ctx, "dpi")
	if len(result) != 0 {
		t.Errorf("Expected 0 points after failed batch, got %d", len(result))
	}
}

func TestPriceSeriesStore_InvalidInput(t *testing.T) {
	store := NewPriceSeriesStore()

	err := store.InsertBulk(context.Background(), []*domain.PricePoint{{TimestampMs: 1}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	err = store.InsertBulk(context.Background(), []*domain.PricePoint{
		{SeriesID: "dpi", TimestampMs: 1000, Value: 1},
		{SeriesID: "dpi", TimestampMs: -1, Value: 2},
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for negative timestamp, got %v", err)
	}
	if result, _ := store.GetBySeries(context.Background(), "dpi"); len(result) != 0 {
		t.Errorf("Expected 0 points after rejected batch, got %d", len(result))
	}
}

func TestPriceSeriesStore_GetByTimeRange(t *testing.T) {
	store := NewPriceSeriesStore()
	ctx := context.Background()

	points := []*domain.PricePoint{
		{SeriesID: "dpi", TimestampMs: 1000, Value: 1.0},
		{SeriesID: "dpi", TimestampMs: 2000, Value: 2.0},
		{SeriesID: "dpi", TimestampMs: 3000, Value: 3.0},
	}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, "dpi", 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("Expected 2 points (inclusive range), got %d", len(result))
	}
}

func TestPriceSeriesStore_ListSeries(t *testing.T) {
	store := NewPriceSeriesStore()
	ctx := context.Background()

	points := []*domain.PricePoint{
		{SeriesID: "eth", TimestampMs: 1, Value: 1},
		{SeriesID: "dpi", TimestampMs: 1, Value: 1},
		{SeriesID: "dpi", TimestampMs: 2, Value: 1},
	}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	ids, err := store.ListSeries(ctx)
	if err != nil {
		t.Fatalf("ListSeries failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "dpi" || ids[1] != "eth" {
		t.Errorf("Expected [dpi eth], got %v", ids)
	}
}

func TestPriceSeriesStore_ReturnsCopies(t *testing.T) {
	store := NewPriceSeriesStore()
	ctx := context.Background()

	p := &domain.PricePoint{SeriesID: "dpi", TimestampMs: 1, Value: 1}
	if err := store.InsertBulk(ctx, []*domain.PricePoint{p}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	p.Value = 99

	result, _ := store.GetBySeries(ctx, "dpi")
	result[0].Value = 42

	again, _ := store.GetBySeries(ctx, "dpi")
	if again[0].Value != 1 {
		t.Errorf("Expected stored value 1, got %v", again[0].Value)
	}
}
