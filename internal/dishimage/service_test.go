package dishimage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Chenxue3/restaurant-sub001/internal/apperr"
)

// fakeImageModel counts upstream calls and can be made to block or fail.
type fakeImageModel struct {
	calls   atomic.Int32
	release chan struct{} // when set, GenerateImage blocks until closed
	err     error
	url     string
}

func (f *fakeImageModel) GenerateImage(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func newTestService(model *fakeImageModel) *Service {
	return NewService(model, NewMemoryStore(), nil, 24*time.Hour, 5*time.Minute, time.Second)
}

func TestGenerate_SingleFlight(t *testing.T) {
	model := &fakeImageModel{url: "https://img.example/pad-thai.png", release: make(chan struct{})}
	svc := newTestService(model)

	const n = 10
	urls := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			urls[i], errs[i] = svc.Generate(context.Background(), "Pad Thai", "stir-fried noodles")
		}(i)
	}

	// Let all callers pile up on the pending entry before the upstream
	// call is allowed to finish.
	time.Sleep(50 * time.Millisecond)
	close(model.release)
	wg.Wait()

	if got := model.calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 upstream call, got %d", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d got error: %v", i, errs[i])
		}
		if urls[i] != "https://img.example/pad-thai.png" {
			t.Fatalf("caller %d got url %q", i, urls[i])
		}
	}
}

func TestGenerate_CacheHit(t *testing.T) {
	model := &fakeImageModel{url: "https://img.example/soup.png"}
	svc := newTestService(model)

	first, err := svc.Generate(context.Background(), "Tom Yum", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Generate(context.Background(), "Tom Yum", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if model.calls.Load() != 1 {
		t.Errorf("cache hit issued a second upstream call")
	}
	if first != second {
		t.Errorf("cache returned different urls: %q vs %q", first, second)
	}
}

func TestGenerate_KeyNormalization(t *testing.T) {
	model := &fakeImageModel{url: "https://img.example/x.png"}
	svc := newTestService(model)

	if _, err := svc.Generate(context.Background(), "Pad Thai", "stir-fried noodles"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Generate(context.Background(), "  pad   THAI ", "Stir-Fried Noodles"); err != nil {
		t.Fatal(err)
	}

	if got := model.calls.Load(); got != 1 {
		t.Errorf("equivalent dish keys issued %d upstream calls", got)
	}
}

func TestGenerate_NegativeCacheCooldown(t *testing.T) {
	model := &fakeImageModel{err: errors.New("boom")}
	svc := newTestService(model)

	now := time.Now()
	svc.now = func() time.Time { return now }

	_, err := svc.Generate(context.Background(), "Pad Thai", "")
	if err == nil {
		t.Fatal("expected generation failure")
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.CacheGeneration {
		t.Fatalf("expected CacheGeneration error, got %v", err)
	}

	// Within the cooldown: served from the negative cache, no new call.
	_, err = svc.Generate(context.Background(), "Pad Thai", "")
	if err == nil {
		t.Fatal("expected negative-cached failure")
	}
	if got := model.calls.Load(); got != 1 {
		t.Fatalf("retry within cooldown issued upstream call (%d total)", got)
	}

	// Past the cooldown: the entry is lazily evicted and retried.
	now = now.Add(6 * time.Minute)
	_, _ = svc.Generate(context.Background(), "Pad Thai", "")
	if got := model.calls.Load(); got != 2 {
		t.Fatalf("expected retry after cooldown, got %d calls", got)
	}
}

func TestGenerate_PositiveTTLExpiry(t *testing.T) {
	model := &fakeImageModel{url: "https://img.example/x.png"}
	svc := newTestService(model)

	now := time.Now()
	svc.now = func() time.Time { return now }

	if _, err := svc.Generate(context.Background(), "Gyoza", ""); err != nil {
		t.Fatal(err)
	}

	now = now.Add(25 * time.Hour)
	if _, err := svc.Generate(context.Background(), "Gyoza", ""); err != nil {
		t.Fatal(err)
	}

	if got := model.calls.Load(); got != 2 {
		t.Errorf("expected regeneration after TTL expiry, got %d calls", got)
	}
}

func TestGenerate_SurvivesRequesterCancellation(t *testing.T) {
	model := &fakeImageModel{url: "https://img.example/x.png", release: make(chan struct{})}
	svc := newTestService(model)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(ctx, "Ramen", "")
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-done; err == nil {
		t.Fatal("cancelled requester should get an error")
	}

	// The in-flight generation is not owned by the cancelled request;
	// a second caller must still receive its result.
	close(model.release)
	url, err := svc.Generate(context.Background(), "Ramen", "")
	if err != nil {
		t.Fatalf("second caller failed: %v", err)
	}
	if url != "https://img.example/x.png" {
		t.Fatalf("second caller got %q", url)
	}
	if got := model.calls.Load(); got != 1 {
		t.Fatalf("expected the shared generation to serve both callers, got %d calls", got)
	}
}

func TestGenerate_EmptyDishName(t *testing.T) {
	svc := newTestService(&fakeImageModel{url: "u"})

	_, err := svc.Generate(context.Background(), "", "whatever")
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.InvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	a := CacheKey("Pad Thai", "stir-fried noodles")
	b := CacheKey("pad thai", "STIR-FRIED   noodles")
	c := CacheKey("Pad Thai", "different description")

	if a != b {
		t.Errorf("normalized keys differ: %s vs %s", a, b)
	}
	if a == c {
		t.Errorf("distinct dishes collided on %s", a)
	}
}
