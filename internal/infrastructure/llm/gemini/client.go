package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/ocrbox/internal/infrastructure/resilience"
)

// Client calls a Gemini-style generateContent endpoint to run OCR plus
// classification in a single request. The response text is returned raw
// and untrusted; the validator owns making sense of it.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, model string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Extract sends the image with the classification prompt and returns the
// model's raw text response. Transient provider errors are retried with
// exponential backoff through the resilience executor; the returned error
// means retries are exhausted.
func (c *Client) Extract(ctx context.Context, image []byte, availableTags []string, filenameHint string) (string, error) {
	request := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: buildExtractionPrompt(availableTags)},
				{InlineData: &inlineData{
					MimeType: mimeTypeFor(filenameHint),
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}

	var response generateResponse
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, c.generatePath(), request, &response, "generate")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "gemini.generate", call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("extract", err)
	}

	text := firstCandidateText(response)
	if text == "" {
		return "", fmt.Errorf("gemini extract: empty response for %s", filenameHint)
	}
	return text, nil
}

func (c *Client) generatePath() string {
	return fmt.Sprintf("/v1beta/models/%s:generateContent?key=%s", c.model, c.apiKey)
}

func firstCandidateText(response generateResponse) string {
	for _, candidate := range response.Candidates {
		for _, p := range candidate.Content.Parts {
			if t := strings.TrimSpace(p.Text); t != "" {
				return t
			}
		}
	}
	return ""
}

func mimeTypeFor(filename string) string {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	case strings.HasSuffix(name, ".gif"):
		return "image/gif"
	case strings.HasSuffix(name, ".webp"):
		return "image/webp"
	case strings.HasSuffix(name, ".bmp"):
		return "image/bmp"
	case strings.HasSuffix(name, ".tif"), strings.HasSuffix(name, ".tiff"):
		return "image/tiff"
	default:
		return "image/jpeg"
	}
}
