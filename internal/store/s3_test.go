package store

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeS3 serves path-style GetObject and PutObject from memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.objects[r.URL.Path] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
				`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newS3Backend(t *testing.T) (*S3Backend, *fakeS3) {
	t.Helper()
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")

	fake := &fakeS3{objects: make(map[string][]byte)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	b, err := NewS3Backend(context.Background(), S3Config{
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		Bucket:          "garden",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("NewS3Backend: %v", err)
	}
	return b, fake
}

func TestS3BackendMissingObject(t *testing.T) {
	b, _ := newS3Backend(t)
	if _, err := b.Load(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load on missing object err = %v, want ErrNotFound", err)
	}

	s := NewStore(Limits{})
	s.Load(context.Background(), b)
	if got := len(s.Stats()); got != 0 {
		t.Errorf("rooms after missing object = %d", got)
	}
}

func TestS3BackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, fake := newS3Backend(t)

	src := NewStore(Limits{})
	p := NewPersister(src, b, DefaultDebounce)
	src.Apply(mustOp(t, "garden", `{"type":"seed","n":5}`))
	if err := p.FlushNow(ctx); err != nil {
		t.Fatalf("FlushNow: %v", err)
	}

	fake.mu.Lock()
	stored, ok := fake.objects["/garden/"+defaultS3Key]
	fake.mu.Unlock()
	if !ok || !strings.Contains(string(stored), `"flowerOps"`) {
		t.Fatalf("object not written at default key: %q", stored)
	}

	dst := NewStore(Limits{})
	dst.Load(ctx, b)
	if snap := dst.Snapshot("garden"); len(snap) != 1 || seq(t, snap[0]) != 5 {
		t.Errorf("reloaded snapshot = %s", snap)
	}
}
