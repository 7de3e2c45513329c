// Package nodedist talks to a Node.js distribution server such as
// https://nodejs.org/dist: it lists releases from index.json and downloads
// release archives, verifying them against SHASUMS256.txt.
package nodedist

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"

	"github.com/matzehuels/noderig/pkg/buildinfo"
	"github.com/matzehuels/noderig/pkg/httputil"
	"github.com/matzehuels/noderig/pkg/observability"
	"github.com/matzehuels/noderig/pkg/versions"
)

// ErrChecksum is returned when a downloaded archive does not match the
// published digest.
var ErrChecksum = errors.New("checksum mismatch")

// Client fetches from one distribution server.
type Client struct {
	base     string
	target   Target
	cacheDir string
	api      *http.Client
	download *http.Client
	retry    httputil.Policy
	logger   *log.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for every request.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.api, cl.download = c, c }
}

// WithRetry replaces the retry policy.
func WithRetry(p httputil.Policy) Option {
	return func(cl *Client) { cl.retry = p }
}

// New returns a client for the server at base that stores archives for
// target in cacheDir.
func New(base string, target Target, cacheDir string, logger *log.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = log.Default()
	}
	c := &Client{
		base:     strings.TrimSuffix(base, "/"),
		target:   target,
		cacheDir: cacheDir,
		api:      httputil.NewClient(),
		download: &http.Client{},
		retry:    httputil.DefaultPolicy,
		logger:   logger,
	}
	c.retry.OnRetry = func(attempt int, err error) {
		c.logger.Warn("request failed, retrying", "attempt", attempt, "error", err)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ArchiveURL is where v's archive lives on the server.
func (c *Client) ArchiveURL(v versions.Version) string {
	return fmt.Sprintf("%s/v%s/%s", c.base, v, c.target.ArchiveName(v))
}

// Releases fetches and parses the release index.
func (c *Client) Releases(ctx context.Context) ([]versions.Release, error) {
	var data []byte
	err := c.retry.Do(ctx, func() error {
		var err error
		data, err = c.get(ctx, c.base+"/index.json")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch release index: %w", err)
	}
	releases, err := ParseIndex(data)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched release index", "releases", len(releases), "bytes", humanize.Bytes(uint64(len(data))))
	return releases, nil
}

// ParseIndex decodes index.json. Entries with unparseable versions, such as
// nightlies on mirrors, are skipped. The lts field is false for non-LTS
// releases and the codename otherwise.
func ParseIndex(data []byte) ([]versions.Release, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("parse release index: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, errors.New("parse release index: expected an array")
	}

	var out []versions.Release
	root.ForEach(func(_, entry gjson.Result) bool {
		v, err := versions.ParseVersion(entry.Get("version").String())
		if err != nil {
			return true
		}
		r := versions.Release{Version: v}
		if lts := entry.Get("lts"); lts.Type == gjson.String {
			r.LTS = strings.ToLower(lts.String())
		}
		out = append(out, r)
		return true
	})
	return out, nil
}

// Download stores v's archive in the cache directory and returns its path.
// An archive that is already present is reused.
func (c *Client) Download(ctx context.Context, v versions.Version) (string, error) {
	name := c.target.ArchiveName(v)
	dest := filepath.Join(c.cacheDir, name)
	if info, err := os.Stat(dest); err == nil && info.Mode().IsRegular() {
		c.logger.Debug("using cached archive", "path", dest, "size", humanize.Bytes(uint64(info.Size())))
		return dest, nil
	}
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	want, err := c.checksum(ctx, v, name)
	if err != nil {
		return "", err
	}

	url := c.ArchiveURL(v)
	c.logger.Info("downloading", "version", v, "url", url)
	var size int64
	err = c.retry.Do(ctx, func() error {
		var err error
		size, err = c.fetchFile(ctx, url, dest, want)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("download node %s: %w", v, err)
	}
	c.logger.Info("downloaded", "version", v, "size", humanize.Bytes(uint64(size)))
	return dest, nil
}

// checksum looks up name in the release's SHASUMS256.txt. A server without
// the file yields an empty digest and verification is skipped.
func (c *Client) checksum(ctx context.Context, v versions.Version, name string) (string, error) {
	var data []byte
	err := c.retry.Do(ctx, func() error {
		var err error
		data, err = c.get(ctx, fmt.Sprintf("%s/v%s/SHASUMS256.txt", c.base, v))
		return err
	})
	if errors.Is(err, httputil.ErrNotFound) {
		c.logger.Warn("no checksums published, skipping verification", "version", v)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("fetch checksums for %s: %w", v, err)
	}

	sc := bufio.NewScanner(strings.NewReader(string(data)))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 2 && fields[1] == name {
			return strings.ToLower(fields[0]), nil
		}
	}
	return "", fmt.Errorf("%w: %s is not listed in SHASUMS256.txt", ErrChecksum, name)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.open(ctx, c.api, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, httputil.NetworkError(err)
	}
	return data, nil
}

// fetchFile streams url into dest through a partial file, checking the
// digest before the rename.
func (c *Client) fetchFile(ctx context.Context, url, dest, digest string) (int64, error) {
	body, err := c.open(ctx, c.download, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.partial")
	if err != nil {
		return 0, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, httputil.NetworkError(err)
	}
	if got := hex.EncodeToString(h.Sum(nil)); digest != "" && got != digest {
		return 0, fmt.Errorf("%w: got %s, want %s", ErrChecksum, got, digest)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *Client) open(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, httputil.NetworkError(err)
	}
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))
	if err := httputil.CheckStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return resp.Body, nil
}
