package gcs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/config"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/logger"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/resilience"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/storage"
)

const (
	defaultBaseURL = "https://storage.googleapis.com"
	pingTimeout    = 5 * time.Second
	errBodyLimit   = 2048
)

// Client talks to the GCS JSON API and implements storage.Backend.
type Client struct {
	httpClient  *http.Client
	bucket      string
	baseURL     string
	tokenSource *tokenSource
	exec        *resilience.Executor
	logg        *logger.Logger
	now         func() time.Time
}

func closeBody(ctx context.Context, logg *logger.Logger, body io.Closer, msg string) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && logg != nil {
		logg.Warn(ctx, msg)
	}
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, exec *resilience.Executor, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	ts, err := newTokenSource(httpClient, gcp)
	if err != nil {
		return nil, err
	}
	if exec == nil {
		exec = resilience.NewExecutor(resilience.DefaultConfig(), logg)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := &Client{
		httpClient:  httpClient,
		bucket:      cfg.BucketName,
		baseURL:     baseURL,
		tokenSource: ts,
		exec:        exec,
		logg:        logg,
		now:         time.Now,
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}

	return client, nil
}

func (c *Client) Kind() enums.StorageBackend {
	return enums.StorageBackendCloud
}

func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

func (c *Client) Close() error {
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	if c.bucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	// object-level check requires storage.objects.list
	u := fmt.Sprintf("%s/storage/v1/b/%s/o?maxResults=1", c.baseURL, url.PathEscape(c.bucket))
	resp, err := c.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return err
	}
	defer closeBody(ctx, c.logg, resp.Body, "gcs: closing response body failed")

	if resp.StatusCode != http.StatusOK {
		return statusError("gcs object check failed", resp)
	}
	return nil
}

type objectResource struct {
	Name string `json:"name"`
	Size string `json:"size"`
}

// Store uploads the file as a single media request. The body is buffered so
// retries can replay it.
func (c *Client) Store(ctx context.Context, file storage.File, kind enums.FileKind) (storage.FileDescriptor, error) {
	if file.Content == nil {
		return storage.FileDescriptor{}, pkgerrors.New(pkgerrors.CodeValidation, "file content is required")
	}
	payload, err := io.ReadAll(file.Content)
	if err != nil {
		return storage.FileDescriptor{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "read upload")
	}

	object := c.objectName(file, kind)
	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	q := url.Values{}
	q.Set("uploadType", "media")
	q.Set("name", object)
	u := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?%s", c.baseURL, url.PathEscape(c.bucket), q.Encode())

	var created objectResource
	err = c.exec.Execute(ctx, "gcs.store", func(ctx context.Context) error {
		resp, err := c.do(ctx, http.MethodPost, u, bytes.NewReader(payload), contentType)
		if err != nil {
			return err
		}
		defer closeBody(ctx, c.logg, resp.Body, "gcs: closing response body failed")
		if resp.StatusCode != http.StatusOK {
			return statusError("gcs upload failed", resp)
		}
		return json.NewDecoder(resp.Body).Decode(&created)
	}, classify)
	if err != nil {
		return storage.FileDescriptor{}, asStorageError(err, "upload object")
	}

	name := created.Name
	if name == "" {
		name = object
	}
	size := int64(len(payload))
	if parsed, perr := strconv.ParseInt(created.Size, 10, 64); perr == nil {
		size = parsed
	}

	return storage.FileDescriptor{
		ID:           uuid.NewString(),
		OriginalName: file.OriginalName,
		StoredPath:   c.publicURL(name),
		Backend:      enums.StorageBackendCloud,
		BackendID:    name,
		SizeBytes:    size,
		MimeType:     file.MimeType,
	}, nil
}

// Delete removes the object. An object that is already gone counts as deleted.
func (c *Client) Delete(ctx context.Context, descriptor storage.FileDescriptor) error {
	object := c.objectFor(descriptor)
	if object == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cloud descriptor has no object name")
	}

	u := fmt.Sprintf("%s/storage/v1/b/%s/o/%s", c.baseURL, url.PathEscape(c.bucket), url.PathEscape(object))
	err := c.exec.Execute(ctx, "gcs.delete", func(ctx context.Context) error {
		resp, err := c.do(ctx, http.MethodDelete, u, nil, "")
		if err != nil {
			return err
		}
		defer closeBody(ctx, c.logg, resp.Body, "gcs: closing response body failed")
		switch resp.StatusCode {
		case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
			return nil
		}
		return statusError("gcs delete failed", resp)
	}, classify)
	if err != nil {
		return asStorageError(err, "delete object")
	}
	return nil
}

// ResolveURL returns the public object URL recorded at store time.
func (c *Client) ResolveURL(descriptor storage.FileDescriptor) (string, error) {
	if descriptor.Backend != enums.StorageBackendCloud {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "descriptor is not stored in the cloud")
	}
	if descriptor.StoredPath != "" {
		return descriptor.StoredPath, nil
	}
	if descriptor.BackendID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cloud descriptor has no object name")
	}
	return c.publicURL(descriptor.BackendID), nil
}

func (c *Client) objectName(file storage.File, kind enums.FileKind) string {
	field := sanitizeField(file.Field)
	ext := strings.ToLower(filepath.Ext(file.OriginalName))
	return fmt.Sprintf("%s/%s_%d_%s%s", kind.Dir(), field, c.now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:12], ext)
}

func (c *Client) objectFor(descriptor storage.FileDescriptor) string {
	if descriptor.BackendID != "" {
		return descriptor.BackendID
	}
	return strings.TrimPrefix(descriptor.StoredPath, c.publicURL(""))
}

func (c *Client) publicURL(object string) string {
	return fmt.Sprintf("%s/%s/%s", defaultBaseURL, c.bucket, object)
}

func (c *Client) do(ctx context.Context, method, u string, body io.Reader, contentType string) (*http.Response, error) {
	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "fetch gcs token")
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.httpClient.Do(req)
}

type httpStatusError struct {
	status int
	msg    string
}

func (e *httpStatusError) Error() string {
	return e.msg
}

func statusError(prefix string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
	msg := fmt.Sprintf("%s: %s", prefix, resp.Status)
	if trimmed := strings.TrimSpace(string(b)); trimmed != "" {
		msg += ": " + trimmed
	}
	return &httpStatusError{status: resp.StatusCode, msg: msg}
}

// classify retries transport failures, throttling and 5xx responses.
func classify(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{}
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		transient := statusErr.status == http.StatusTooManyRequests || statusErr.status >= http.StatusInternalServerError
		return resilience.ErrorClassification{Retryable: transient, RecordFailure: transient}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}

func asStorageError(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, msg)
}

func sanitizeField(field string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(field)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == '[' || r == ']':
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "file"
	}
	return out
}
