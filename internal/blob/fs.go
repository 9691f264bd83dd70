package blob

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	dErrors "signet/pkg/domain-errors"
)

// FSStore keeps blobs on the local filesystem and presigns access with an
// HMAC over (key, expiry). It stands in for an object store in deployments
// that don't have one.
type FSStore struct {
	dir     string
	baseURL string
	secret  []byte
}

// NewFSStore creates the root directory if needed. baseURL is the externally
// reachable prefix under which /blobs is served.
func NewFSStore(dir, baseURL string, secret []byte) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FSStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/"), secret: secret}, nil
}

// ValidKey rejects anything that could escape the blob root.
func ValidKey(key string) bool {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return false
	}
	return path.Clean(key) == key
}

func (s *FSStore) filePath(key string) (string, error) {
	if !ValidKey(key) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid blob key")
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}

func (s *FSStore) Put(_ context.Context, key string, data []byte) error {
	p, err := s.filePath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("create blob subdir: %w", err)
	}
	// Write-then-rename so readers never observe a partial blob.
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish blob: %w", err)
	}
	return nil
}

func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.filePath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

func (s *FSStore) Delete(_ context.Context, key string) error {
	p, err := s.filePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// Presign returns a URL of the form
// {base}/blobs/{key}?exp={unix}&sig={hex}. The signature covers key and
// expiry so neither can be swapped.
func (s *FSStore) Presign(_ context.Context, key string, ttl time.Duration) (string, error) {
	if !ValidKey(key) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid blob key")
	}
	exp := time.Now().Add(ttl).Unix()
	sig := s.sign(key, exp)
	return fmt.Sprintf("%s/blobs/%s?exp=%d&sig=%s", s.baseURL, key, exp, sig), nil
}

// Verify checks a presigned (key, exp, sig) triple. It is called by the HTTP
// layer serving /blobs.
func (s *FSStore) Verify(key string, exp int64, sig string) bool {
	if time.Now().Unix() > exp {
		return false
	}
	expected := s.sign(key, exp)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (s *FSStore) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(key))
	mac.Write([]byte("|"))
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
