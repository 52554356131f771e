package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
)

// Credential authenticates against the storage endpoint. Bearer wins over
// basic when both are set.
type Credential struct {
	Bearer   string
	Username string
	Password string
}

func (c Credential) apply(req *http.Request) {
	switch {
	case c.Bearer != "":
		req.Header.Set("Authorization", "Bearer "+c.Bearer)
	case c.Username != "":
		req.SetBasicAuth(c.Username, c.Password)
	}
}

// HTTPStore uploads to a third-party object-storage endpoint.
type HTTPStore struct {
	endpoint string
	field    string
	cred     Credential
	maxSize  int64
	client   *http.Client
	logger   *slog.Logger
}

// HTTPOption configures an HTTPStore.
type HTTPOption func(*HTTPStore)

// WithCredential sets the credential.
func WithCredential(c Credential) HTTPOption {
	return func(s *HTTPStore) {
		s.cred = c
	}
}

// WithField sets the multipart field name. Default: "file".
func WithField(name string) HTTPOption {
	return func(s *HTTPStore) {
		if name != "" {
			s.field = name
		}
	}
}

// WithMaxSize sets the size limit enforced while buffering.
func WithMaxSize(n int64) HTTPOption {
	return func(s *HTTPStore) {
		s.maxSize = n
	}
}

// WithHTTPClient replaces the http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPStore) {
		if c != nil {
			s.client = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(s *HTTPStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewHTTPStore creates a store posting to endpoint.
func NewHTTPStore(endpoint string, opts ...HTTPOption) *HTTPStore {
	s := &HTTPStore{
		endpoint: endpoint,
		field:    "file",
		client:   &http.Client{Timeout: 2 * time.Minute},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload posts f as a multipart form and returns the URL from the
// response.
//
// A 413, or a transport failure while the body is being sent, maps to
// KindTooLarge: storage endpoints commonly reset the connection instead of
// answering when the body is over their limit.
func (s *HTTPStore) Upload(ctx context.Context, f *File) (string, error) {
	op := http.MethodPost + " " + s.endpoint
	if err := rewind(op, f); err != nil {
		return "", err
	}

	content, err := readLimited(op, f.Reader, s.maxSize)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", multipartDisposition(s.field, f.Filename))
	if f.ContentType != "" {
		h.Set("Content-Type", f.ContentType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", dasherrors.New(dasherrors.KindMalformed, op).Wrap(err)
	}
	if _, err := part.Write(content); err != nil {
		return "", dasherrors.New(dasherrors.KindMalformed, op).Wrap(err)
	}
	if err := mw.Close(); err != nil {
		return "", dasherrors.New(dasherrors.KindMalformed, op).Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return "", dasherrors.Precondition(op, "invalid storage endpoint").Wrap(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	s.cred.apply(req)

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", dasherrors.FromTransport(op, err)
		}
		s.logger.Warn("upload transport failure", "file", f.Filename, "size", len(content), "error", err)
		return "", dasherrors.New(dasherrors.KindTooLarge, op).Wrap(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", dasherrors.FromTransport(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", dasherrors.FromStatus(op, resp.StatusCode).WithDetail(f.Filename)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", dasherrors.New(dasherrors.KindMalformed, op).Wrap(err)
	}
	if out.URL == "" {
		return "", dasherrors.New(dasherrors.KindMalformed, op).WithDetail("missing url")
	}
	return out.URL, nil
}

func multipartDisposition(field, filename string) string {
	return `form-data; name="` + escapeQuotes(field) + `"; filename="` + escapeQuotes(filename) + `"`
}

func escapeQuotes(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
