// Package covers localizes remote book cover images into the uploads
// directory, falling back to the remote URL whenever a download fails so
// the surrounding mutation never has to.
package covers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultMaxRedirects bounds redirect following. The image host
	// answers many cover requests with 301/302 hops.
	DefaultMaxRedirects = 5

	// DefaultFetchTimeout caps a single cover download end to end.
	DefaultFetchTimeout = 15 * time.Second

	// PublicPrefix is the path prefix covers are served under.
	PublicPrefix = "/uploads"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// Localizer downloads remote cover images into uploadsDir and hands back
// stable /uploads references.
type Localizer struct {
	uploadsDir   string
	httpClient   *http.Client
	maxRedirects int
	userAgent    string
	referer      string
}

// Option customizes a Localizer.
type Option func(*Localizer)

// WithTimeout overrides the per-download timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Localizer) {
		l.httpClient.Timeout = timeout
	}
}

// WithMaxRedirects overrides the redirect-following bound.
func WithMaxRedirects(n int) Option {
	return func(l *Localizer) {
		l.maxRedirects = n
	}
}

// WithReferer sets the referer hint sent with each fetch. The source
// image host rejects requests without one.
func WithReferer(referer string) Option {
	return func(l *Localizer) {
		l.referer = referer
	}
}

// NewLocalizer creates a localizer writing into uploadsDir.
func NewLocalizer(uploadsDir string, opts ...Option) (*Localizer, error) {
	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}

	l := &Localizer{
		uploadsDir: uploadsDir,
		httpClient: &http.Client{
			Timeout: DefaultFetchTimeout,
			// Redirects are followed by hand so every hop carries
			// the identification headers.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxRedirects: DefaultMaxRedirects,
		userAgent:    defaultUserAgent,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// UploadsDir returns the directory covers are written to.
func (l *Localizer) UploadsDir() string {
	return l.uploadsDir
}

// IsRemote reports whether ref uses a remote transfer scheme.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Localize resolves a cover reference for storage. Local references and
// empty strings pass through untouched; remote URLs are downloaded into
// the uploads directory under a fresh timestamped filename. On any
// failure the original URL is returned unchanged; a broken image host
// must never fail the caller's create or update.
func (l *Localizer) Localize(rawURL, key string) string {
	if rawURL == "" || !IsRemote(rawURL) {
		return rawURL
	}

	filename := l.freshFilename(rawURL, key)
	if err := l.download(rawURL, filepath.Join(l.uploadsDir, filename)); err != nil {
		log.Printf("Cover download failed for %s: %v (keeping remote URL)", rawURL, err)
		return rawURL
	}
	return PublicPrefix + "/" + filename
}

// LocalizeExisting behaves like Localize but derives a deterministic
// filename from the identity key and skips the download when that file
// is already present. Used by the seed importer, which may run again
// over the same book list.
func (l *Localizer) LocalizeExisting(rawURL, key string) string {
	if rawURL == "" || !IsRemote(rawURL) {
		return rawURL
	}

	filename := "cover_" + sanitizeKey(rawURL, key) + extensionOf(rawURL)
	target := filepath.Join(l.uploadsDir, filename)
	if _, err := os.Stat(target); err == nil {
		return PublicPrefix + "/" + filename
	}

	if err := l.download(rawURL, target); err != nil {
		log.Printf("Cover download failed for %s: %v (keeping remote URL)", rawURL, err)
		return rawURL
	}
	return PublicPrefix + "/" + filename
}

// download fetches the image, following 301/302 hops up to the bound,
// and writes the body atomically to target.
func (l *Localizer) download(rawURL, target string) error {
	current := rawURL
	for hop := 0; ; hop++ {
		resp, err := l.fetch(current)
		if err != nil {
			return err
		}

		switch resp.StatusCode {
		case http.StatusMovedPermanently, http.StatusFound:
			location := resp.Header.Get("Location")
			resp.Body.Close()
			if location == "" {
				return fmt.Errorf("redirect without location from %s", current)
			}
			if hop >= l.maxRedirects {
				return fmt.Errorf("too many redirects fetching %s", rawURL)
			}
			next, err := resolveRedirect(current, location)
			if err != nil {
				return err
			}
			current = next
			continue

		case http.StatusOK:
			err := l.write(resp.Body, target)
			resp.Body.Close()
			return err

		default:
			resp.Body.Close()
			return fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, current)
		}
	}
}

func (l *Localizer) fetch(rawURL string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8")
	if l.referer != "" {
		req.Header.Set("Referer", l.referer)
	}
	return l.httpClient.Do(req)
}

// write streams body to a temp file in the uploads directory and renames
// it into place so readers never observe a partial cover.
func (l *Localizer) write(body io.Reader, target string) error {
	tmpFile, err := os.CreateTemp(l.uploadsDir, "cover_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmpFile, body); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, target)
}

// freshFilename builds a collision-resistant name from the current time,
// the candidate's identity key and the source extension.
func (l *Localizer) freshFilename(rawURL, key string) string {
	return fmt.Sprintf("cover_%d_%s%s", time.Now().UnixMilli(), sanitizeKey(rawURL, key), extensionOf(rawURL))
}

func resolveRedirect(base, location string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	locURL, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("bad redirect location %q: %w", location, err)
	}
	return baseURL.ResolveReference(locURL).String(), nil
}

func sanitizeKey(rawURL, key string) string {
	if key == "" {
		// No identity key: fall back to the last URL path element.
		key = strings.TrimSuffix(path.Base(rawURL), extensionOf(rawURL))
	}
	key = unsafeKeyChars.ReplaceAllString(key, "_")
	if len(key) > 64 {
		key = key[:64]
	}
	if key == "" || key == "." {
		key = "cover"
	}
	return key
}

func extensionOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ".jpg"
	}
	ext := path.Ext(parsed.Path)
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	}
	return ".jpg"
}
