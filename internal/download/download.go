// Package download saves a block's file to the download directory, falling
// back to the system browser when the fetch fails.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"folio-cli/internal/store"

	"github.com/dustin/go-humanize"
)

const defaultName = "download"

type Result struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"`
	Bytes    int64  `json:"bytes"`
	Size     string `json:"size,omitempty"`
	FellBack bool   `json:"fellBack"`
}

type Client struct {
	HTTP *http.Client
	// Dir receives saved files.
	Dir string
	// TempDir holds the in-progress file; empty means os.TempDir().
	TempDir string
	// Open shows a URL in the system browser.
	Open func(url string) error
}

func New(dir string) *Client {
	return &Client{
		HTTP: &http.Client{Timeout: 2 * time.Minute},
		Dir:  dir,
		Open: OpenURL,
	}
}

// DefaultDir is ~/Downloads.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Downloads"), nil
}

// FileName picks the saved name: the explicit name, else the last URL path
// segment without its query string, else "download".
func FileName(rawURL, explicit string) string {
	if n := cleanName(explicit); n != "" {
		return n
	}
	seg := rawURL
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	seg, _, _ = strings.Cut(seg, "?")
	if n := cleanName(seg); n != "" {
		return n
	}
	return defaultName
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = filepath.Base(filepath.FromSlash(s))
	if s == "." || s == ".." || s == string(filepath.Separator) {
		return ""
	}
	return s
}

// Download fetches rawURL into a temporary file, saves it into Dir under the
// inferred name and removes the temporary file before returning. Any failure
// along the way (transport error, non-2xx status, failed save) opens rawURL
// with Open instead.
func (c *Client) Download(ctx context.Context, rawURL, name string) (Result, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Result{}, errors.New("download: empty url")
	}
	res := Result{URL: rawURL, Name: FileName(rawURL, name)}

	dest, n, err := c.save(ctx, rawURL, res.Name)
	if err != nil {
		res.FellBack = true
		if c.Open == nil {
			return res, err
		}
		if oerr := c.Open(rawURL); oerr != nil {
			return res, fmt.Errorf("open %s: %w", rawURL, oerr)
		}
		return res, nil
	}
	res.Path = dest
	res.Bytes = n
	res.Size = humanize.Bytes(uint64(n))
	return res, nil
}

func (c *Client) save(ctx context.Context, rawURL, name string) (string, int64, error) {
	tmp, n, err := c.fetch(ctx, rawURL)
	if err != nil {
		return "", 0, err
	}
	defer os.Remove(tmp)

	dir := c.Dir
	if dir == "" {
		dir = "."
	}
	dest := store.UniquePath(filepath.Join(dir, name))
	if err := store.CopyFile(tmp, dest); err != nil {
		return "", 0, err
	}
	return dest, n, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, err
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, fmt.Errorf("failed to download file: http %d", resp.StatusCode)
	}

	f, err := os.CreateTemp(c.TempDir, "folio-dl-*")
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", 0, err
	}
	return f.Name(), n, nil
}

// OpenURL opens u with the platform's default handler.
func OpenURL(u string) error {
	u = strings.TrimSpace(u)
	if u == "" {
		return errors.New("empty url")
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", u)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", u)
	default:
		cmd = exec.Command("xdg-open", u)
	}
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	return cmd.Start()
}
