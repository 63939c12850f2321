package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2/maybe"
)

// FileJar is a cookie jar for one API origin that can be saved to disk, so
// separate CLI invocations share a session.
type FileJar struct {
	path    string
	baseURL *url.URL

	mu  sync.Mutex
	jar *cookiejar.Jar
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type jarFile struct {
	URL     string         `json:"url"`
	Cookies []storedCookie `json:"cookies"`
}

// NewFileJar loads the cookies saved at path for baseURL. A missing file, or
// one saved for a different URL, yields an empty jar.
func NewFileJar(path string, baseURL *url.URL) (*FileJar, error) {
	jar, err := NewCookieJar()
	if err != nil {
		return nil, err
	}
	fj := &FileJar{jar: jar, path: path, baseURL: baseURL}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fj, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}

	var stored jarFile
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parse cookie file %s: %w", path, err)
	}
	if stored.URL != baseURL.String() {
		return fj, nil
	}

	cookies := make([]*http.Cookie, 0, len(stored.Cookies))
	for _, c := range stored.Cookies {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	jar.SetCookies(baseURL, cookies)
	return fj, nil
}

// SetCookies implements http.CookieJar.
func (j *FileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.current().SetCookies(u, cookies)
}

// Cookies implements http.CookieJar.
func (j *FileJar) Cookies(u *url.URL) []*http.Cookie {
	return j.current().Cookies(u)
}

func (j *FileJar) current() *cookiejar.Jar {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar
}

// Path returns the backing file.
func (j *FileJar) Path() string {
	return j.path
}

// Save writes the cookies for the base URL atomically. Only names and values
// survive; expiry stays with the server.
func (j *FileJar) Save() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	stored := jarFile{URL: j.baseURL.String(), Cookies: []storedCookie{}}
	for _, c := range j.jar.Cookies(j.baseURL) {
		stored.Cookies = append(stored.Cookies, storedCookie{Name: c.Name, Value: c.Value})
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}
	if err := maybe.WriteFile(j.path, data, 0o600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	return nil
}

// Clear drops every cookie and removes the backing file.
func (j *FileJar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	jar, err := NewCookieJar()
	if err != nil {
		return err
	}
	j.jar = jar
	if err := os.Remove(j.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cookie file: %w", err)
	}
	return nil
}
