package filesvc

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DiskStore keeps uploaded images under a local directory served at baseURL.
type DiskStore struct {
	dir     string
	baseURL string
	maxSize int64
}

var _ core.FileStore = (*DiskStore)(nil) // interface compliance check

func NewDiskStore(conf *core.Config) (*DiskStore, error) {
	if err := os.MkdirAll(conf.Uploads.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating uploads dir")
	}
	return &DiskStore{
		dir:     conf.Uploads.Dir,
		baseURL: strings.TrimRight(conf.Uploads.BaseURL, "/"),
		maxSize: conf.Uploads.MaxSize,
	}, nil
}

func (s *DiskStore) Dir() string { return s.dir }

// Save stores content under a random name. Only images up to the configured max size are accepted;
// filename is only used for error messages.
func (s *DiskStore) Save(_ context.Context, filename string, content io.Reader) (string, error) {
	br := bufio.NewReaderSize(content, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", errors.Wrapf(err, "reading %s", filename)
	}
	ext, ok := imageExtensions[http.DetectContentType(head)]
	if !ok {
		return "", core.NewFieldError("image", "only jpeg, png, gif and webp images are allowed")
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(s.dir, name)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}

	n, err := io.Copy(f, io.LimitReader(br, s.maxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxSize {
		err = core.NewFieldError("image", "image is too large")
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", errors.Wrapf(err, "saving %s", filename)
	}
	return s.baseURL + "/" + name, nil
}

func (s *DiskStore) Delete(_ context.Context, url string) error {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return nil
	}
	name := path.Base(url)
	if name == "." || name == "/" || name == ".." {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
