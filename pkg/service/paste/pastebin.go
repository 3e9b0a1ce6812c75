package paste

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const pastebinEndpoint = "https://pastebin.com/api/api_post.php"

// Pastebin uploads transcripts via the pastebin.com POST API.
type Pastebin struct {
	apiKey     string
	httpClient *http.Client
	endpoint   string
}

var _ Uploader = &Pastebin{}

type PastebinOption func(*Pastebin)

// WithHTTPClient replaces the HTTP client, for tests.
func WithHTTPClient(c *http.Client) PastebinOption {
	return func(p *Pastebin) {
		p.httpClient = c
	}
}

// WithEndpoint overrides the API endpoint, for tests.
func WithEndpoint(endpoint string) PastebinOption {
	return func(p *Pastebin) {
		p.endpoint = endpoint
	}
}

func NewPastebin(apiKey string, opts ...PastebinOption) *Pastebin {
	p := &Pastebin{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		endpoint: pastebinEndpoint,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pastebin) Upload(ctx context.Context, title, content string) (string, error) {
	form := url.Values{
		"api_dev_key":           {p.apiKey},
		"api_option":            {"paste"},
		"api_paste_name":        {title},
		"api_paste_code":        {content},
		"api_paste_private":     {"1"},
		"api_paste_expire_date": {"N"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", goerr.Wrap(err, "failed to build pastebin request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "failed to call pastebin API")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", goerr.Wrap(err, "failed to read pastebin response")
	}

	text := strings.TrimSpace(string(body))
	if resp.StatusCode != http.StatusOK {
		return "", goerr.New("pastebin API returned error status",
			goerr.V("status", resp.StatusCode), goerr.V("body", text))
	}
	// The API reports failures as a 200 with a "Bad API request" body.
	if !strings.HasPrefix(text, "https://") {
		return "", goerr.New("pastebin API rejected the paste", goerr.V("body", text))
	}
	return text, nil
}
