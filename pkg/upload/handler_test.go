package upload

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
)

type part struct {
	filename    string
	contentType string
	content     []byte
}

func newMultipartUploadRequest(t *testing.T, field string, parts ...part) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+p.filename+`"`)
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		w, err := writer.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := w.Write(p.content); err != nil {
			t.Fatalf("part.Write: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestParseRequestSniffsContentType(t *testing.T) {
	// The client claims text/plain; the bytes say PNG.
	req := newMultipartUploadRequest(t, "files",
		part{filename: "a.png", contentType: "text/plain", content: pngHeader},
		part{filename: "b.png", content: pngHeader},
	)
	files, err := ParseRequest(httptest.NewRecorder(), req, DefaultConfig(), "", 0)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	defer closeAll(files)

	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(files))
	}
	for _, f := range files {
		if f.ContentType != "image/png" {
			t.Errorf("%s ContentType = %q", f.Filename, f.ContentType)
		}
		data, _ := io.ReadAll(f.Reader)
		if !bytes.Equal(data, pngHeader) {
			t.Errorf("%s content mismatch", f.Filename)
		}
	}
}

func TestParseRequestFailsWhenNotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader([]byte("nope")))
	req.Header.Set("Content-Type", "text/plain")

	_, err := ParseRequest(httptest.NewRecorder(), req, DefaultConfig(), "", 0)
	if !dasherrors.Is(err, dasherrors.KindPrecondition) {
		t.Fatalf("err = %v, want precondition", err)
	}
}

func TestParseRequestNoFiles(t *testing.T) {
	req := newMultipartUploadRequest(t, "other", part{filename: "a.png", content: pngHeader})
	_, err := ParseRequest(httptest.NewRecorder(), req, DefaultConfig(), "files", 0)
	if !dasherrors.Is(err, dasherrors.KindPrecondition) {
		t.Fatalf("err = %v, want precondition", err)
	}
}

func TestParseRequestTooManyFiles(t *testing.T) {
	req := newMultipartUploadRequest(t, "files",
		part{filename: "a.png", content: pngHeader},
		part{filename: "b.png", content: pngHeader},
	)
	_, err := ParseRequest(httptest.NewRecorder(), req, DefaultConfig(), "files", 1)
	if !dasherrors.Is(err, dasherrors.KindPrecondition) {
		t.Fatalf("err = %v, want precondition", err)
	}
}

func TestParseRequestBodyTooLarge(t *testing.T) {
	cfg := &Config{MaxFileSize: 16}
	big := bytes.Repeat([]byte{0}, 2<<20)
	req := newMultipartUploadRequest(t, "files", part{filename: "big.png", content: big})

	_, err := ParseRequest(httptest.NewRecorder(), req, cfg, "files", 1)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}
