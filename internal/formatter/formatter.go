package formatter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/snapit/avatar-orderflow/internal/apperr"
	"github.com/snapit/avatar-orderflow/internal/lightx"
)

// Invoker calls the resize/overlay Lambda and extracts the formatted URL.
// Failures here are reported distinctly from generation failures so callers
// can keep the unformatted image.
type Invoker struct {
	httpClient *http.Client
	formatURL  string
}

// NewInvoker returns an Invoker bound to the formatting endpoint URL.
func NewInvoker(formatURL string) *Invoker {
	return &Invoker{
		httpClient: &http.Client{},
		formatURL:  formatURL,
	}
}

// Format sends the raw output URL for post-processing and returns the final
// URL. jobID correlates the request in the formatter's logs; overlayURL is
// optional.
func (i *Invoker) Format(ctx context.Context, imageURL, jobID, overlayURL string) (string, error) {
	reqBody := map[string]string{
		"imageUrl": imageURL,
		"orderId":  jobID,
	}
	if overlayURL != "" {
		reqBody["overlayUrl"] = overlayURL
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperr.FormattingErr("marshal formatting request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.formatURL, bytes.NewReader(payload))
	if err != nil {
		return "", apperr.FormattingErr("build formatting request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", apperr.FormattingErr("failed to reach formatting service", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.FormattingErr("failed to read formatting response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperr.FormattingErr(fmt.Sprintf("formatting service returned status %d", resp.StatusCode), nil)
	}

	// formatting responses can arrive with the same proxy nesting as the
	// generation API
	var result struct {
		ImageURL string `json:"image_url"`
	}
	if err := lightx.UnwrapPayload(raw, &result); err != nil {
		return "", apperr.FormattingErr("unreadable formatting response", err)
	}
	if result.ImageURL == "" {
		return "", apperr.FormattingErr("formatting service returned no image url", nil)
	}
	return result.ImageURL, nil
}
