package storagesvc

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/upload"
)

// LocalStore saves uploads on the local filesystem; the server exposes Dir under URLPrefix.
type LocalStore struct {
	Dir       string
	URLPrefix string
}

var _ upload.Store = (*LocalStore)(nil)

func NewLocalStore(conf *core.Config) (*LocalStore, error) {
	if err := os.MkdirAll(conf.Upload.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating upload dir")
	}
	return &LocalStore{Dir: conf.Upload.Dir, URLPrefix: conf.Upload.URLPrefix}, nil
}

func (s *LocalStore) Put(ctx context.Context, key, _ string, content io.Reader) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", errors.Errorf("invalid upload key %q", key)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", errors.Wrap(err, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, content); err != nil {
		_ = tmp.Close()
		return "", errors.Wrap(err, "writing upload")
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(err, "closing upload")
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, key)); err != nil {
		return "", errors.Wrap(err, "moving upload")
	}
	return path.Join(s.URLPrefix, key), nil
}
