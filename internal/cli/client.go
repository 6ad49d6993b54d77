package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/paydirt-network/paydirt/internal/daemon"
)

// client is a thin HTTP client for the daemon API.
type client struct {
	baseURL   string
	principal string
	http      *http.Client
}

// newClient builds a client from the local config and the --as flag.
func newClient() (*client, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, err
	}

	return &client{
		baseURL:   fmt.Sprintf("http://%s:%d", cfg.API.Host, cfg.API.Port),
		principal: principal(),
		http:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// principal resolves the acting identity: --as flag, then
// $PAYDIRT_PRINCIPAL, then the OS username.
func principal() string {
	if flagPrincipal != "" {
		return flagPrincipal
	}
	if env := os.Getenv("PAYDIRT_PRINCIPAL"); env != "" {
		return env
	}
	return os.Getenv("USER")
}

// get issues a GET and decodes the response into out.
func (c *client) get(path string, out interface{}) error {
	return c.do("GET", path, nil, out)
}

// post issues a POST with a JSON body and decodes the response into out.
func (c *client) post(path string, body, out interface{}) error {
	return c.do("POST", path, body, out)
}

func (c *client) do(method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.principal != "" {
		req.Header.Set("X-Principal", c.principal)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("is the daemon running? ('paydirt serve'): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// apiError extracts the error message from an API error response.
func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		return fmt.Errorf("%s", envelope.Error.Message)
	}
	return fmt.Errorf("server returned %s", resp.Status)
}
