// Package fetch downloads levels from a Sonolus server and reads levels
// stored on disk.
package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var ErrAssetFetch = errors.New("unable to fetch asset")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client downloads assets once. Responses are kept in memory for the life
// of the client and on disk under CacheDir, keyed by the hash of the URL.
type Client struct {
	HTTP     *http.Client
	CacheDir string
	Log      *slog.Logger

	mu   sync.Mutex
	memo map[string][]byte
}

func NewClient(cacheDir string) *Client {
	return &Client{
		HTTP:     http.DefaultClient,
		CacheDir: cacheDir,
		Log:      slog.Default(),
		memo:     map[string][]byte{},
	}
}

func cacheKey(u string) string {
	sum := sha256.Sum256([]byte(u))
	return hex.EncodeToString(sum[:])
}

func (c *Client) GetBytes(ctx context.Context, u string) ([]byte, error) {
	c.mu.Lock()
	if data, ok := c.memo[u]; ok {
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	key := cacheKey(u)
	path := ""
	if c.CacheDir != "" {
		path = filepath.Join(c.CacheDir, key)
		if data, err := os.ReadFile(path); nil == err {
			c.remember(u, data)
			return data, nil
		}
	}

	data, err := c.download(ctx, u)
	if nil != err {
		return nil, err
	}

	if path != "" {
		if err := os.MkdirAll(c.CacheDir, 0o755); nil != err {
			return nil, errors.Wrap(err, "unable to create cache directory")
		}
		if err := os.WriteFile(path, data, 0o644); nil != err {
			return nil, errors.Wrap(err, "unable to write cache")
		}
	}
	c.remember(u, data)
	return data, nil
}

func (c *Client) remember(u string, data []byte) {
	c.mu.Lock()
	c.memo[u] = data
	c.mu.Unlock()
}

func (c *Client) download(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if nil != err {
		return nil, errors.Wrapf(ErrAssetFetch, "%v: %v", u, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	c.Log.Debug("downloading", "url", u)
	res, err := c.HTTP.Do(req)
	if nil != err {
		return nil, errors.Wrapf(ErrAssetFetch, "%v: %v", u, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrAssetFetch, "%v: %v", u, res.Status)
	}
	data, err := io.ReadAll(res.Body)
	if nil != err {
		return nil, errors.Wrapf(ErrAssetFetch, "%v: %v", u, err)
	}
	return data, nil
}

func (c *Client) GetJSON(ctx context.Context, u string, v any) error {
	data, err := c.GetBytes(ctx, u)
	if nil != err {
		return err
	}
	if err := json.Unmarshal(data, v); nil != err {
		return errors.Wrapf(ErrAssetFetch, "%v: %v", u, err)
	}
	return nil
}

func (c *Client) GetJSONGzip(ctx context.Context, u string, v any) error {
	data, err := c.GetBytes(ctx, u)
	if nil != err {
		return err
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if nil != err {
		return errors.Wrapf(ErrAssetFetch, "%v: %v", u, err)
	}
	defer r.Close()
	if err := json.NewDecoder(r).Decode(v); nil != err {
		return errors.Wrapf(ErrAssetFetch, "%v: %v", u, err)
	}
	return nil
}

// Resolve joins a reference onto base the way a browser would, after
// escaping spaces.
func Resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if nil != err {
		return "", errors.Wrapf(err, "bad base url %v", base)
	}
	r, err := url.Parse(strings.ReplaceAll(ref, " ", "%20"))
	if nil != err {
		return "", errors.Wrapf(err, "bad url %v", ref)
	}
	return b.ResolveReference(r).String(), nil
}
