package upload

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
)

// ErrTooLarge is wrapped by errors for files that exceed the size limit.
var ErrTooLarge = errors.New("upload: file too large")

// ErrTypeNotAllowed is wrapped by errors for disallowed content types.
var ErrTypeNotAllowed = errors.New("upload: content type not allowed")

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f *File) (url string, err error)
}

// File is one file to upload.
type File struct {
	// Filename is the original filename.
	Filename string

	// ContentType is the MIME type. Sniff fills it from the content.
	ContentType string

	// Size is the size in bytes, or 0 when unknown.
	Size int64

	// Reader provides the contents. A reader that also implements
	// io.Seeker can be uploaded more than once.
	Reader io.Reader

	consumed bool
}

// Close closes the reader if it is closable.
func (f *File) Close() error {
	if c, ok := f.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Open opens a local file for upload.
func Open(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, err
	}
	f := &File{
		Filename: filepath.Base(path),
		Size:     info.Size(),
		Reader:   fh,
	}
	if err := f.Sniff(); err != nil {
		fh.Close()
		return nil, err
	}
	return f, nil
}

// ErrNotRewindable is returned when a file whose reader cannot seek is
// uploaded a second time.
var ErrNotRewindable = errors.New("upload: file cannot be read again")

// seekCloser keeps the original closer after Sniff buffers an unseekable
// reader.
type seekCloser struct {
	*bytes.Reader
	io.Closer
}

// Sniff detects the content type from the first 512 bytes and leaves the
// reader at the start. Readers that cannot seek are buffered in memory so
// the file stays readable for a later retry.
func (f *File) Sniff() error {
	head := make([]byte, 512)
	n, err := io.ReadFull(f.Reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	head = head[:n:n]
	f.ContentType = http.DetectContentType(head)

	if s, ok := f.Reader.(io.Seeker); ok {
		_, err := s.Seek(0, io.SeekStart)
		return err
	}
	rest, err := io.ReadAll(f.Reader)
	if err != nil {
		return err
	}
	buf := bytes.NewReader(append(head, rest...))
	if c, ok := f.Reader.(io.Closer); ok {
		f.Reader = seekCloser{Reader: buf, Closer: c}
	} else {
		f.Reader = buf
	}
	return nil
}

// Rewind positions the reader at the start of the content. Every store
// calls it before reading, so a file kept after a failed upload sends the
// same bytes again. An unseekable reader can be read once only; later
// calls fail with ErrNotRewindable.
func (f *File) Rewind() error {
	if s, ok := f.Reader.(io.Seeker); ok {
		_, err := s.Seek(0, io.SeekStart)
		return err
	}
	if f.consumed {
		return ErrNotRewindable
	}
	f.consumed = true
	return nil
}

// rewind is Rewind classified for a store operation.
func rewind(op string, f *File) error {
	if err := f.Rewind(); err != nil {
		return dasherrors.Precondition(op, "file cannot be read again").Wrap(err)
	}
	return nil
}

// Config holds upload limits.
type Config struct {
	// MaxFileSize is the maximum allowed file size in bytes.
	// Default: 5MB.
	MaxFileSize int64

	// AllowedTypes is a list of allowed MIME types.
	// If empty, all types are allowed.
	AllowedTypes []string
}

// DefaultConfig returns a Config with the gallery defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:  5 << 20,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
	}
}

// Check rejects f before any network call when its declared size or
// content type is not acceptable.
func (c *Config) Check(f *File) error {
	const op = "upload"
	if f == nil || f.Reader == nil {
		return dasherrors.Precondition(op, "no file selected")
	}
	if c.MaxFileSize > 0 && f.Size > c.MaxFileSize {
		return dasherrors.New(dasherrors.KindTooLarge, op).WithDetail(f.Filename).Wrap(ErrTooLarge)
	}
	if len(c.AllowedTypes) == 0 {
		return nil
	}
	ct := f.ContentType
	if parsed, _, err := mime.ParseMediaType(ct); err == nil {
		ct = parsed
	}
	for _, allowed := range c.AllowedTypes {
		if strings.EqualFold(ct, allowed) {
			return nil
		}
	}
	return dasherrors.Precondition(op, f.Filename+" is not an allowed image type").Wrap(ErrTypeNotAllowed)
}

// readLimited buffers r, failing with ErrTooLarge beyond max bytes.
func readLimited(op string, r io.Reader, max int64) ([]byte, error) {
	var buf bytes.Buffer
	if max <= 0 {
		if _, err := io.Copy(&buf, r); err != nil {
			return nil, dasherrors.New(dasherrors.KindNetwork, op).Wrap(err)
		}
		return buf.Bytes(), nil
	}
	n, err := io.Copy(&buf, io.LimitReader(r, max+1)) // +1 to detect overflow
	if err != nil {
		return nil, dasherrors.New(dasherrors.KindNetwork, op).Wrap(err)
	}
	if n > max {
		return nil, dasherrors.New(dasherrors.KindTooLarge, op).Wrap(ErrTooLarge)
	}
	return buf.Bytes(), nil
}

// objectName returns a random name keeping the file's extension.
func objectName(filename string) string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b) + strings.ToLower(filepath.Ext(filename))
}

// Selection is the set of files chosen for the next upload.
type Selection struct {
	mu    sync.Mutex
	files []*File
}

// NewSelection creates an empty selection.
func NewSelection(files ...*File) *Selection {
	s := &Selection{}
	s.Add(files...)
	return s
}

// Add appends files.
func (s *Selection) Add(files ...*File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range files {
		if f != nil {
			s.files = append(s.files, f)
		}
	}
}

// Files returns a copy of the selected files.
func (s *Selection) Files() []*File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*File(nil), s.files...)
}

// Len returns the number of selected files.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Clear empties the selection and closes the files.
func (s *Selection) Clear() {
	s.mu.Lock()
	files := s.files
	s.files = nil
	s.mu.Unlock()
	for _, f := range files {
		f.Close()
	}
}
