package transport

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"github.com/richard-senior/footytrends/internal/logger"
)

// ErrMalformedRequest is returned by ReadRequest when a complete message was
// read but is not a valid JSON-RPC request
var ErrMalformedRequest = errors.New("malformed JSON-RPC request")

// StatusError is returned when the upstream answers with anything but 200
type StatusError struct {
	URL        string
	StatusCode int
	// Detail is a short human readable reason taken from the body, if any
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("GET %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s returned status %d: %s", e.URL, e.StatusCode, e.Detail)
}

// RequestError wraps a failure to complete the request at all: DNS, refused
// connections, TLS, timeouts and unreadable bodies
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("GET %s failed: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewHTTPClient returns an HTTP client whose root CAs are the system pool plus,
// if caBundlePath is set and readable, the certificates in that PEM file (for
// corporate TLS inspection proxies). A zero timeout leaves the client without
// an overall deadline
func NewHTTPClient(timeout time.Duration, caBundlePath string) *http.Client {
	rootCAs, err := x509.SystemCertPool()
	if err != nil {
		logger.Warn("Failed to get system cert pool", err)
		rootCAs = x509.NewCertPool()
	}

	if caBundlePath != "" {
		pem, err := os.ReadFile(caBundlePath)
		if err != nil {
			logger.Warn("Proceeding without CA bundle", caBundlePath, err)
		} else if ok := rootCAs.AppendCertsFromPEM(pem); !ok {
			logger.Warn("Failed to append CA bundle", caBundlePath)
		} else {
			logger.Info("Added CA bundle to root CAs", caBundlePath)
		}
	}

	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: rootCAs},
			Proxy:           http.ProxyFromEnvironment,
		},
		Timeout: timeout,
	}
}

// GetJSON performs a single GET of rawURL with the given query and headers and
// decodes the body as a JSON object. Numbers are decoded as json.Number so
// prices keep their exact textual form. No retries are attempted
func GetJSON(ctx context.Context, client *http.Client, rawURL string, query url.Values, headers map[string]string) (map[string]any, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	full := u.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Debug("GET", full)
	resp, err := client.Do(req)
	if err != nil {
		return nil, &RequestError{URL: full, Err: err}
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, &RequestError{URL: full, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			URL:        full,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(resp.Header.Get("Content-Type"), body),
		}
	}

	var out map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", full, err)
	}
	return out, nil
}

// readBody reads the whole response body, undoing any Content-Encoding the
// transport did not already handle
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.ReadCloser = resp.Body
	contentEncoding := resp.Header.Get("Content-Encoding")
	switch contentEncoding {
	case "gzip":
		var err error
		reader, err = NewGzipReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer reader.Close()
	case "deflate":
		reader, _ = NewDeflateReader(resp.Body)
		defer reader.Close()
	case "br":
		reader, _ = NewBrotliReader(resp.Body)
		defer reader.Close()
	default:
		if contentEncoding != "" {
			logger.Warn("Unknown content encoding:", contentEncoding)
		}
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return data, nil
}

// NewGzipReader creates a gzip reader from the provided io.ReadCloser
func NewGzipReader(r io.ReadCloser) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// NewDeflateReader creates a deflate reader from the provided io.ReadCloser
func NewDeflateReader(r io.ReadCloser) (io.ReadCloser, error) {
	return flate.NewReader(r), nil
}

// NewBrotliReader creates a brotli reader from the provided io.ReadCloser
func NewBrotliReader(r io.ReadCloser) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(r)), nil
}

const maxDetailLen = 120

// errorDetail pulls a one line reason out of an error body. Gateways answer
// with HTML pages, the APIs themselves with {"message": "..."}
func errorDetail(contentType string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	if strings.Contains(contentType, "html") || bytes.HasPrefix(trimmed, []byte("<")) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
		if err == nil {
			if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
				return truncate(title)
			}
			if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
				return truncate(h1)
			}
		}
	}

	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &msg); err == nil && msg.Message != "" {
		return truncate(msg.Message)
	}
	return truncate(string(trimmed))
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > maxDetailLen {
		return string(r[:maxDetailLen]) + "..."
	}
	return s
}
