// Package macroapi talks to a macro server's /run-macro endpoint.
package macroapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/phrasekit/pkg/suggest"
)

// DefaultTimeout bounds one request when the caller sets none.
const DefaultTimeout = 30 * time.Second

// Client implements suggest.Provider over HTTP.
type Client struct {
	endpoint  string
	csrfToken string
	http      *http.Client
}

// New returns a Client posting to endpoint. A nil httpClient uses one with
// DefaultTimeout.
func New(endpoint, csrfToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{endpoint: endpoint, csrfToken: csrfToken, http: httpClient}
}

// reply mirrors the server response. Messages is a pointer so a missing
// field can be told apart from an empty list.
type reply struct {
	Messages *[]suggest.Message `json:"messages"`
}

// RunMacro implements suggest.Provider.
func (c *Client) RunMacro(ctx context.Context, req suggest.MacroRequest) (suggest.MacroResponse, error) {
	inputs, err := json.Marshal(req.UserInputs)
	if err != nil {
		return suggest.MacroResponse{}, suggest.NewFatalError(err, "encode user inputs")
	}

	form := url.Values{}
	form.Set("id", req.TemplateID)
	form.Set("userInputs", string(inputs))
	form.Set("temperature", strconv.FormatFloat(req.Temperature, 'f', -1, 64))
	form.Set("model_id", req.ModelID)
	form.Set("_csrf_token", c.csrfToken)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return suggest.MacroResponse{}, suggest.NewFatalError(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return suggest.MacroResponse{}, fmt.Errorf("%w: %w", suggest.ErrCanceled, ctx.Err())
		}
		return suggest.MacroResponse{}, suggest.NewRecoverableError(err, "post macro")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		if ctx.Err() != nil {
			return suggest.MacroResponse{}, fmt.Errorf("%w: %w", suggest.ErrCanceled, ctx.Err())
		}
		return suggest.MacroResponse{}, suggest.NewRecoverableError(err, "read macro response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("macro server returned %s", resp.Status)
		log.Debugf("macro %s failed: %s", req.TemplateID, strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return suggest.MacroResponse{}, suggest.NewRecoverableError(statusErr, "")
		}
		return suggest.MacroResponse{}, suggest.NewFatalError(statusErr, "")
	}

	var r reply
	if err := json.Unmarshal(body, &r); err != nil {
		return suggest.MacroResponse{}, suggest.NewRecoverableError(errors.Join(suggest.ErrMalformedResponse, err), "decode macro response")
	}
	if r.Messages == nil {
		return suggest.MacroResponse{}, suggest.NewRecoverableError(suggest.ErrMalformedResponse, "")
	}
	return suggest.MacroResponse{Messages: *r.Messages}, nil
}
