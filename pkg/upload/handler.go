package upload

import (
	"errors"
	"net/http"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
)

// ParseRequest reads the files of a multipart form submission.
// Files come from the given field (default "files"). The request body is
// limited to maxFiles * MaxFileSize before parsing.
func ParseRequest(w http.ResponseWriter, r *http.Request, config *Config, field string, maxFiles int) ([]*File, error) {
	const op = "parse upload"
	if field == "" {
		field = "files"
	}
	if maxFiles <= 0 {
		maxFiles = 10
	}
	if config.MaxFileSize > 0 {
		// Limit request body size BEFORE parsing
		r.Body = http.MaxBytesReader(w, r.Body, config.MaxFileSize*int64(maxFiles)+1<<20)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, dasherrors.New(dasherrors.KindTooLarge, op).Wrap(ErrTooLarge)
		}
		return nil, dasherrors.Precondition(op, "invalid multipart form").Wrap(err)
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, dasherrors.Precondition(op, "no file selected")
	}
	if len(headers) > maxFiles {
		return nil, dasherrors.Precondition(op, "too many files")
	}

	files := make([]*File, 0, len(headers))
	for _, h := range headers {
		fh, err := h.Open()
		if err != nil {
			closeAll(files)
			return nil, dasherrors.Precondition(op, "unreadable file").Wrap(err)
		}
		f := &File{Filename: h.Filename, Size: h.Size, Reader: fh}
		// Client-provided part headers are not trusted; sniff instead.
		if err := f.Sniff(); err != nil {
			fh.Close()
			closeAll(files)
			return nil, dasherrors.Precondition(op, "unreadable file").Wrap(err)
		}
		files = append(files, f)
	}
	return files, nil
}

func closeAll(files []*File) {
	for _, f := range files {
		f.Close()
	}
}
