package gcs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/logger"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/resilience"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/storage"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return &Client{
		httpClient: server.Client(),
		bucket:     "bucket",
		baseURL:    server.URL,
		tokenSource: &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
			return "token", time.Now().Add(time.Hour), nil
		}},
		exec: resilience.NewExecutor(resilience.Config{
			RetryMaxAttempts:    3,
			RetryInitialBackoff: time.Millisecond,
			RetryMaxBackoff:     time.Millisecond,
		}, logg),
		logg: logg,
		now:  func() time.Time { return time.UnixMilli(1700000000000) },
	}
}

func TestStoreUploadsMediaAndBuildsDescriptor(t *testing.T) {
	var gotName, gotAuth, gotType, gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload/storage/v1/b/bucket/o" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotName = r.URL.Query().Get("name")
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = io.WriteString(w, `{"name":"`+gotName+`","size":"9"}`)
	})

	fd, err := client.Store(context.Background(), storage.File{
		Field:        "technical_inspection",
		OriginalName: "Inspection.PDF",
		MimeType:     "application/pdf",
		Content:      strings.NewReader("pdf-bytes"),
	}, enums.FileKindDocument)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if gotAuth != "Bearer token" || gotType != "application/pdf" || gotBody != "pdf-bytes" {
		t.Fatalf("unexpected request auth=%q type=%q body=%q", gotAuth, gotType, gotBody)
	}
	if !strings.HasPrefix(gotName, "documents/technical_inspection_1700000000000_") || !strings.HasSuffix(gotName, ".pdf") {
		t.Fatalf("unexpected object name %q", gotName)
	}
	if fd.BackendID != gotName {
		t.Fatalf("expected backend id %q, got %q", gotName, fd.BackendID)
	}
	if fd.StoredPath != "https://storage.googleapis.com/bucket/"+gotName {
		t.Fatalf("unexpected stored path %q", fd.StoredPath)
	}
	if fd.SizeBytes != 9 || fd.Backend != enums.StorageBackendCloud {
		t.Fatalf("unexpected descriptor %+v", fd)
	}
	if err := fd.Validate(); err != nil {
		t.Fatalf("descriptor should validate: %v", err)
	}
}

func TestStoreRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"name":"images/x.png","size":"3"}`)
	})

	_, err := client.Store(context.Background(), storage.File{
		OriginalName: "x.png",
		Content:      strings.NewReader("png"),
	}, enums.FileKindImage)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestStoreDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.Store(context.Background(), storage.File{
		OriginalName: "x.png",
		Content:      strings.NewReader("png"),
	}, enums.FileKindImage)
	if !pkgerrors.Is(err, pkgerrors.CodeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestDeleteObjectSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Fatalf("expected DELETE, got %s", r.Method)
		}
		if r.URL.EscapedPath() != "/storage/v1/b/bucket/o/images%2Ffile.png" {
			t.Fatalf("unexpected path %s", r.URL.EscapedPath())
		}
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.Delete(context.Background(), storage.FileDescriptor{
		Backend:    enums.StorageBackendCloud,
		BackendID:  "images/file.png",
		StoredPath: "https://storage.googleapis.com/bucket/images/file.png",
	})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestDeleteObjectNotFoundIsSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.Delete(context.Background(), storage.FileDescriptor{
		Backend:    enums.StorageBackendCloud,
		StoredPath: "https://storage.googleapis.com/bucket/images/file.png",
	})
	if err != nil {
		t.Fatalf("Delete of missing object should succeed: %v", err)
	}
}

func TestResolveURLReturnsStoredURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	got, err := client.ResolveURL(storage.FileDescriptor{
		Backend:   enums.StorageBackendCloud,
		BackendID: "images/a.png",
	})
	if err != nil {
		t.Fatalf("ResolveURL: %v", err)
	}
	if got != "https://storage.googleapis.com/bucket/images/a.png" {
		t.Fatalf("unexpected url %q", got)
	}
	if _, err := client.ResolveURL(storage.FileDescriptor{Backend: enums.StorageBackendLocal, StoredPath: "images/a.png"}); err == nil {
		t.Fatal("expected local descriptor to be rejected")
	}
}

func TestSanitizeField(t *testing.T) {
	cases := map[string]string{
		"images":       "images",
		"Safety Cert":  "safety_cert",
		"documents[0]": "documents_0",
		"":             "file",
		"../../etc":    "etc",
	}
	for in, want := range cases {
		if got := sanitizeField(in); got != want {
			t.Fatalf("sanitizeField(%q) = %q, want %q", in, got, want)
		}
	}
}
