package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/labstack/gommon/log"
	"github.com/opst/solarscan/pkg/buildtime"
	kio "github.com/opst/solarscan/pkg/io"
)

// marker file name. Its presence means the cache entry is complete.
const completeMarker = ".complete"

// StatusError is returned when the hosting service responds non-2xx status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dataset service responded %d %s (%s)", e.Code, http.StatusText(e.Code), e.URL)
}

// HTTPSource downloads datasets from the hosting service over HTTP and
// caches them under a local directory.
//
// Cache layout is:
//
//	{cacheDir}/datasets/{owner}/{slug}/files      extracted dataset
//	{cacheDir}/datasets/{owner}/{slug}/.complete  sha256 of the archive
type HTTPSource struct {
	baseURL  string
	cacheDir string

	username string
	key      string

	client   *http.Client
	progress Progress
	logger   *log.Logger
}

type Option func(*HTTPSource) *HTTPSource

// WithCredentials sets username and key for basic authentication.
func WithCredentials(username, key string) Option {
	return func(s *HTTPSource) *HTTPSource {
		s.username = username
		s.key = key
		return s
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *HTTPSource) *HTTPSource {
		s.client = client
		return s
	}
}

func WithProgress(p Progress) Option {
	return func(s *HTTPSource) *HTTPSource {
		s.progress = p
		return s
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *HTTPSource) *HTTPSource {
		s.logger = logger
		return s
	}
}

func NewHTTPSource(baseURL string, cacheDir string, options ...Option) *HTTPSource {
	s := &HTTPSource{
		baseURL:  baseURL,
		cacheDir: cacheDir,
		client:   http.DefaultClient,
		logger:   log.New("dataset"),
	}
	for _, o := range options {
		s = o(s)
	}
	return s
}

var _ Source = &HTTPSource{}

func (s *HTTPSource) Download(ctx context.Context, handle string) (string, error) {
	owner, slug, err := ParseHandle(handle)
	if err != nil {
		return "", err
	}

	root := filepath.Join(s.cacheDir, "datasets", owner, slug)
	files := filepath.Join(root, "files")

	if stat, err := os.Stat(filepath.Join(root, completeMarker)); err == nil && stat.Mode().IsRegular() {
		if d, err := os.Stat(files); err == nil && d.IsDir() {
			s.logger.Infof("dataset %s is found in cache: %s", handle, files)
			return files, nil
		}
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	// no resume for incomplete entries.
	if err := os.RemoveAll(root); err != nil {
		return "", err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(root, "download-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	s.logger.Infof("downloading dataset %s", handle)
	sum, err := s.fetch(ctx, owner, slug, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}

	s.logger.Infof("extracting dataset %s into %s", handle, files)
	if err := Extract(ctx, tmp.Name(), files); err != nil {
		return "", err
	}

	if err := os.WriteFile(filepath.Join(root, completeMarker), []byte(sum+"\n"), 0644); err != nil {
		return "", err
	}
	return files, nil
}

// fetch writes the dataset archive into dest, and returns its sha256 in hex.
func (s *HTTPSource) fetch(ctx context.Context, owner, slug string, dest io.Writer) (string, error) {
	u, err := url.JoinPath(s.baseURL, "datasets", "download", owner, slug)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	if s.username != "" || s.key != "" {
		req.SetBasicAuth(s.username, s.key)
	}
	req.Header.Set("User-Agent", buildtime.UserAgent())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || 300 <= resp.StatusCode {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &StatusError{Code: resp.StatusCode, URL: u}
	}

	var body io.Reader = resp.Body
	if s.progress != nil {
		observed := observe(s.progress, resp.ContentLength, resp.Body)
		defer observed.Close()
		body = observed
	}

	hashed := kio.NewSHA256Reader(body)
	if _, err := io.Copy(dest, hashed); err != nil {
		return "", err
	}
	return hashed.HexSum(), nil
}
