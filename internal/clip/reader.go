package clip

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/atotto/clipboard"
)

// Reader supplies clipboard text. The watcher does not care where it comes
// from.
type Reader interface {
	Read() (string, error)
}

// SystemReader reads the host clipboard directly.
type SystemReader struct{}

func (SystemReader) Read() (string, error) {
	if clipboard.Unsupported {
		return "", fmt.Errorf("no clipboard access on this host")
	}
	return clipboard.ReadAll()
}

// BackendReader asks the backend for its clipboard view (GET /clipboard),
// for hosts where direct access is unavailable (e.g. headless sessions).
type BackendReader struct {
	Base   string
	Client *http.Client
}

func (r BackendReader) Read() (string, error) {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Get(strings.TrimRight(r.Base, "/") + "/clipboard")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("clipboard endpoint status: %s", resp.Status)
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", err
	}
	return body.Text, nil
}

// Chain tries each reader in order and returns the first success.
type Chain []Reader

func (c Chain) Read() (string, error) {
	var last error
	for _, r := range c {
		s, err := r.Read()
		if err == nil {
			return s, nil
		}
		last = err
	}
	if last == nil {
		last = fmt.Errorf("no clipboard readers configured")
	}
	return "", last
}
