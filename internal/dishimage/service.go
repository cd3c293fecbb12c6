package dishimage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Chenxue3/restaurant-sub001/internal/apperr"
	"github.com/Chenxue3/restaurant-sub001/internal/llm"
)

// Uploader re-hosts a generated image under a stable public URL.
// Upstream image URLs expire long before the positive cache TTL.
type Uploader interface {
	UploadBytes(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// flight is one in-progress generation. Waiters block on done and then
// read url/err; both are written exactly once before done is closed.
type flight struct {
	done chan struct{}
	url  string
	err  error
}

// Service is the keyed, single-flight cache over the image-generation
// model. Per key, at most one upstream call is in flight at any instant;
// every concurrent caller for that key observes the same outcome.
type Service struct {
	model    llm.ImageModel
	store    Store
	uploader Uploader
	client   *http.Client

	ttl        time.Duration
	negTTL     time.Duration
	genTimeout time.Duration

	mu       sync.Mutex
	inflight map[string]*flight

	now func() time.Time
}

func NewService(model llm.ImageModel, store Store, uploader Uploader, ttl, negTTL, genTimeout time.Duration) *Service {
	return &Service{
		model:      model,
		store:      store,
		uploader:   uploader,
		client:     &http.Client{Timeout: 30 * time.Second},
		ttl:        ttl,
		negTTL:     negTTL,
		genTimeout: genTimeout,
		inflight:   make(map[string]*flight),
		now:        time.Now,
	}
}

// Generate returns the cached image URL for the dish, starting a new
// upstream generation only when no fresh entry and no in-flight call
// exists for its key. A failed generation is negative-cached for a short
// cooldown so a failing upstream is not hammered.
func (s *Service) Generate(ctx context.Context, dishName, description string) (string, error) {
	if dishName == "" {
		return "", apperr.New(apperr.InvalidInput, "dishName is required")
	}
	key := CacheKey(dishName, description)

	s.mu.Lock()
	if f, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		return s.await(ctx, f)
	}
	s.mu.Unlock()

	if e, err := s.store.Get(ctx, key); err != nil {
		log.Printf("dish image store lookup failed key=%s: %v", key, err)
	} else if e != nil && s.now().Before(e.ExpiresAt) {
		switch e.Status {
		case StatusReady:
			return e.URL, nil
		case StatusFailed:
			return "", apperr.New(apperr.CacheGeneration,
				"image generation for this dish recently failed, try again later")
		}
	}

	// Absent or expired. Registering the flight and the second lookup of
	// the in-flight table happen under one lock so check-then-act cannot
	// race: the loser of the race attaches instead of dialing upstream.
	s.mu.Lock()
	if f, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		return s.await(ctx, f)
	}
	f := &flight{done: make(chan struct{})}
	s.inflight[key] = f
	s.mu.Unlock()

	// Detached from the requester: an aborted HTTP request must not kill
	// a generation other callers are waiting on.
	go s.generate(key, dishName, description, f)

	return s.await(ctx, f)
}

func (s *Service) await(ctx context.Context, f *flight) (string, error) {
	select {
	case <-f.done:
		return f.url, f.err
	case <-ctx.Done():
		return "", apperr.Wrap(apperr.CacheGeneration, "request cancelled", ctx.Err())
	}
}

func (s *Service) generate(key, dishName, description string, f *flight) {
	ctx, cancel := context.WithTimeout(context.Background(), s.genTimeout)
	defer cancel()

	url, err := s.model.GenerateImage(ctx, llm.BuildDishImagePrompt(dishName, description))
	if err == nil && s.uploader != nil {
		if hosted, rerr := s.rehost(ctx, key, url); rerr != nil {
			// Serve the upstream URL rather than failing the dish; it is
			// valid long enough for the current viewer.
			log.Printf("dish image rehost failed key=%s: %v", key, rerr)
		} else {
			url = hosted
		}
	}

	now := s.now()
	e := &Entry{Key: key, CreatedAt: now, LastAccessedAt: now}
	if err != nil {
		e.Status = StatusFailed
		e.ExpiresAt = now.Add(s.negTTL)
		f.err = apperr.Wrap(apperr.CacheGeneration, "dish image generation failed", err)
	} else {
		e.Status = StatusReady
		e.URL = url
		e.ExpiresAt = now.Add(s.ttl)
		f.url = url
	}

	if perr := s.store.Put(context.Background(), e); perr != nil {
		log.Printf("dish image store put failed key=%s: %v", key, perr)
	}

	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
	close(f.done)
}

// rehost downloads the freshly generated image and uploads it to object
// storage, returning the stable public URL.
func (s *Service) rehost(ctx context.Context, key, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching generated image: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return s.uploader.UploadBytes(ctx, "dishes/"+key+".png", body, contentType)
}
