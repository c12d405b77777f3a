package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anuvratrastogi/vizchat/internal/viz"
)

func TestKey(t *testing.T) {
	t.Parallel()

	a := Key("Revenue by  month?")
	b := Key("  revenue BY month? ")
	if a != b {
		t.Errorf("Key() differs for equivalent questions: %s vs %s", a, b)
	}
	if a == Key("revenue by region?") {
		t.Error("Key() collides for different questions")
	}
	if len(a) != 64 {
		t.Errorf("len(Key()) = %d, want 64 hex chars", len(a))
	}
}

func TestCodec(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec()
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	defer codec.Close()

	rows := make([]viz.Row, 50)
	for i := range rows {
		rows[i] = viz.NewRow(map[string]any{"month": "2024-01", "region": "North", "sales": float64(i)}, "month", "region", "sales")
	}
	resp := &viz.Response{
		ID:            "abc",
		Answer:        "Sales are flat.",
		Visualization: &viz.Spec{Type: viz.ChartGroupedBar, X: "month", Y: "sales", Group: "region"},
		Data:          rows,
		SQL:           "SELECT 1",
		Confidence:    0.9,
	}

	data, err := codec.Encode(resp)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	raw, _ := json.Marshal(resp)
	if len(data) >= len(raw) {
		t.Errorf("Encode() = %d bytes, want fewer than %d", len(data), len(raw))
	}

	got, err := codec.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Answer != resp.Answer || got.Visualization.Group != "region" || len(got.Data) != 50 {
		t.Errorf("Decode() = %+v", got)
	}
	if keys := got.Data[0].Keys(); keys[0] != "month" || keys[2] != "sales" {
		t.Errorf("row key order = %v", keys)
	}

	if _, err := codec.Decode([]byte("not zstd")); err == nil {
		t.Error("Decode() of garbage should fail")
	}
}

func TestCache_Unreachable(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c, err := NewFromClient(client, "test:", time.Minute)
	if err != nil {
		t.Fatalf("NewFromClient() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if _, _, err := c.Get(ctx, "q"); err == nil {
		t.Error("Get() against an unreachable server should fail")
	}
	if err := c.Set(ctx, "q", &viz.Response{Answer: "a"}); err == nil {
		t.Error("Set() against an unreachable server should fail")
	}
	if hits, misses := c.Stats(); hits != 0 || misses != 0 {
		t.Errorf("Stats() = %d, %d after connection errors", hits, misses)
	}
}

func TestNew_BadURL(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), "://nope", time.Minute)
	if err == nil || errors.Is(err, ErrConnectionFailed) {
		t.Errorf("New() error = %v, want a parse error", err)
	}
}
