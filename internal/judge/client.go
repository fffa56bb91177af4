package judge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	pkgerrors "codepad/pkg/errors"
)

// Request is the create-submission payload. Source and stdin travel as
// base64 per the judge contract.
type Request struct {
	LanguageID             int    `json:"language_id"`
	SourceCode             string `json:"source_code"`
	Stdin                  string `json:"stdin"`
	CompilerOptions        string `json:"compiler_options"`
	CommandLineArguments   string `json:"command_line_arguments"`
	RedirectStderrToStdout bool   `json:"redirect_stderr_to_stdout"`
	UserID                 string `json:"user_id"`
	ProblemID              string `json:"problem_id"`
}

// Status is the judge's verdict descriptor.
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Result is the polled submission state. Stdout/Stderr are base64.
type Result struct {
	Status Status `json:"status"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Token  string `json:"token"`
}

// Judge status ids. Everything outside the pending pair is terminal.
const (
	StatusInQueue    = 1
	StatusProcessing = 2
	StatusAccepted   = 3
)

// IsPending reports whether a status id means the submission is not done.
func IsPending(statusID int) bool {
	return statusID == StatusInQueue || statusID == StatusProcessing
}

// DecodedStdout returns the decoded stdout, empty when absent.
func (r Result) DecodedStdout() (string, error) {
	return decodeField(r.Stdout)
}

// DecodedStderr returns the decoded stderr, empty when absent.
func (r Result) DecodedStderr() (string, error) {
	return decodeField(r.Stderr)
}

func decodeField(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", pkgerrors.Wrap(fmt.Errorf("decode judge output failed: %w", err), pkgerrors.InvalidParams)
	}
	return string(data), nil
}

type createResponse struct {
	Token string `json:"token"`
}

// Client talks to the judge service over HTTP.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokenProvider func() string
}

func NewClient(baseURL string, timeout time.Duration, tokenProvider func() string) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: timeout},
		tokenProvider: tokenProvider,
	}
}

// SetBaseURL switches the judge endpoint. Submission tokens are only valid
// for the instance that issued them, so callers must not switch while a
// poll is in flight.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// CreateSubmission queues the request and returns the submission token.
func (c *Client) CreateSubmission(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", pkgerrors.Wrap(err, pkgerrors.SubmissionCreateFailed)
	}
	status, data, err := c.do(ctx, http.MethodPost, "/submissions?base64_encoded=true&fields=*", body)
	if err != nil {
		return "", err
	}
	if status == http.StatusTooManyRequests {
		return "", pkgerrors.New(pkgerrors.RateLimited)
	}
	if status < 200 || status >= 300 {
		return "", pkgerrors.Newf(pkgerrors.SubmissionCreateFailed, "judge returned status %d", status)
	}
	var resp createResponse
	if err := json.Unmarshal(data, &resp); err != nil || resp.Token == "" {
		return "", pkgerrors.New(pkgerrors.SubmissionCreateFailed).WithMessage("judge returned no submission token")
	}
	return resp.Token, nil
}

// GetSubmission fetches the current state of a queued submission.
func (c *Client) GetSubmission(ctx context.Context, token string) (Result, error) {
	status, data, err := c.do(ctx, http.MethodGet, "/submissions/"+token+"?base64_encoded=true&fields=*", nil)
	if err != nil {
		return Result{}, err
	}
	switch {
	case status == http.StatusTooManyRequests:
		return Result{}, pkgerrors.New(pkgerrors.RateLimited)
	case status == http.StatusNotFound:
		return Result{}, pkgerrors.New(pkgerrors.SubmissionNotFound)
	case status < 200 || status >= 300:
		return Result{}, pkgerrors.Newf(pkgerrors.TransportFailed, "judge returned status %d", status)
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, pkgerrors.Transport(fmt.Errorf("parse judge response failed: %w", err))
	}
	if result.Token == "" {
		result.Token = token
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, pkgerrors.Transport(fmt.Errorf("build request failed: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokenProvider != nil {
		if token := c.tokenProvider(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, pkgerrors.Transport(fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, pkgerrors.Transport(fmt.Errorf("read response body failed: %w", err))
	}
	return resp.StatusCode, data, nil
}
