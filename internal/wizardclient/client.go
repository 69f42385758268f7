package wizardclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"treasuryroi/internal/modules/report"
	"treasuryroi/internal/modules/wizard"
)

// Defaults for the polling loop. Both the attempt ceiling and the time
// budget apply, whichever trips first.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultPollBudget   = 20 * time.Minute
	DefaultMaxAttempts  = 600
)

type Kind string

const (
	KindNetwork     Kind = "network"
	KindValidation  Kind = "validation"
	KindAuth        Kind = "auth"
	KindUnavailable Kind = "unavailable"
	KindServer      Kind = "server"
	KindJobFailed   Kind = "job_failed"
)

// RequestError is a classified submission failure with a message fit
// for showing to the visitor.
type RequestError struct {
	Kind    Kind
	Message string
	Detail  string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// TimeoutError is synthesized locally when the poll budget runs out;
// the server never reports it.
type TimeoutError struct {
	Attempts int
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("report not ready after %d polls over %s", e.Attempts, e.Elapsed.Round(time.Second))
}

// UserMessage is what the wizard shows when polling gives up.
func (e *TimeoutError) UserMessage() string {
	return "The report is taking longer than expected. Please try again in a few minutes."
}

type Options struct {
	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	PollBudget   time.Duration
	MaxAttempts  int
}

// Client drives the submit-then-poll protocol. At most one submission
// is in flight: starting a new one aborts the previous.
type Client struct {
	baseURL      string
	http         *http.Client
	pollInterval time.Duration
	pollBudget   time.Duration
	maxAttempts  int

	mu         sync.Mutex
	cancelPrev context.CancelFunc
	gen        uint64
}

func New(opts Options) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		http:         opts.HTTPClient,
		pollInterval: opts.PollInterval,
		pollBudget:   opts.PollBudget,
		maxAttempts:  opts.MaxAttempts,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.pollBudget <= 0 {
		c.pollBudget = DefaultPollBudget
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	return c
}

// Outcome is the final state of a submission: a structured result, or
// raw markup when the server answered with a pre-rendered page.
type Outcome struct {
	Result  *report.Result
	RawHTML string
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

// SubmitAndWait posts the completed form and blocks until the report is
// available, the job fails, or the poll budget is exhausted.
func (c *Client) SubmitAndWait(ctx context.Context, req report.SubmitReportRequest) (*Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	gen := c.takeSlot(cancel)
	defer c.releaseSlot(gen)

	sanitizeNumericInputs(&req)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/reports", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RequestError{
			Kind:    KindNetwork,
			Message: "Could not reach the server. Check your connection and try again.",
			Detail:  err.Error(),
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Kind: KindNetwork, Message: "The server response could not be read.", Detail: err.Error()}
	}

	return c.handleSubmitResponse(ctx, resp, raw)
}

// sanitizeNumericInputs coerces non-finite numeric answers to zero so
// the payload still serializes and the submission proceeds. Validation
// upstream should have caught these, so each coercion is logged as an
// anomaly.
func sanitizeNumericInputs(req *report.SubmitReportRequest) {
	fields := map[string]*float64{
		wizard.FieldHoursReconciliation:  &req.HoursReconciliation,
		wizard.FieldHoursCashPositioning: &req.HoursCashPositioning,
		wizard.FieldNumBanks:             &req.NumBanks,
		wizard.FieldFTEs:                 &req.FTEs,
	}
	for name, v := range fields {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			log.Printf("wizardclient: coerced non-finite %s %v to 0", name, *v)
			*v = 0
		}
	}
}

// handleSubmitResponse resolves the three accepted response shapes, in
// precedence order: inline result, job id, raw markup fallback.
func (c *Client) handleSubmitResponse(ctx context.Context, resp *http.Response, raw []byte) (*Outcome, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 400 && looksLikeHTML(raw) {
			log.Printf("wizardclient: server returned pre-rendered markup, using it as-is")
			return &Outcome{RawHTML: string(raw)}, nil
		}
		return nil, statusError(resp.StatusCode)
	}

	// The envelope's own error wins over the transport status.
	if !env.Success {
		return nil, envelopeError(env, resp.StatusCode)
	}

	var data struct {
		Result json.RawMessage `json:"result"`
		JobID  string          `json:"job_id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &RequestError{Kind: KindServer, Message: serverErrorMessage, Detail: err.Error()}
	}

	if len(data.Result) > 0 {
		res, err := report.Normalize(data.Result)
		if err != nil {
			return nil, &RequestError{Kind: KindServer, Message: serverErrorMessage, Detail: err.Error()}
		}
		return &Outcome{Result: res}, nil
	}

	if data.JobID != "" {
		return c.poll(ctx, data.JobID)
	}

	return nil, &RequestError{Kind: KindServer, Message: serverErrorMessage, Detail: "envelope carried neither result nor job_id"}
}

// poll checks the job every pollInterval until it finishes or either
// limit trips.
func (c *Client) poll(ctx context.Context, jobID string) (*Outcome, error) {
	start := time.Now()
	deadline := start.Add(c.pollBudget)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		if attempt > c.maxAttempts || time.Now().After(deadline) {
			return nil, &TimeoutError{Attempts: attempt - 1, Elapsed: time.Since(start)}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		status, err := c.fetchJob(ctx, jobID)
		if err != nil {
			var re *RequestError
			// Transient network blips do not end the loop; anything
			// classified worse does.
			if errors.As(err, &re) && re.Kind == KindNetwork {
				log.Printf("wizardclient: poll attempt %d failed: %v", attempt, err)
				continue
			}
			return nil, err
		}

		switch status.Status {
		case "completed":
			if status.Result != nil {
				return &Outcome{Result: status.Result}, nil
			}
			return nil, &RequestError{Kind: KindServer, Message: serverErrorMessage, Detail: "completed job carried no result"}
		case "error":
			msg := status.Error
			if msg == "" {
				msg = "Report generation failed. Please try again."
			}
			return nil, &RequestError{Kind: KindJobFailed, Message: msg}
		default:
			// pending or running, keep waiting
		}
	}
}

func (c *Client) fetchJob(ctx context.Context, jobID string) (*report.JobStatusResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/reports/jobs/"+jobID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RequestError{Kind: KindNetwork, Message: "Could not reach the server.", Detail: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Kind: KindNetwork, Message: "The server response could not be read.", Detail: err.Error()}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, statusError(resp.StatusCode)
	}
	if !env.Success {
		return nil, envelopeError(env, resp.StatusCode)
	}

	var status report.JobStatusResponse
	if err := json.Unmarshal(env.Data, &status); err != nil {
		return nil, &RequestError{Kind: KindServer, Message: serverErrorMessage, Detail: err.Error()}
	}
	return &status, nil
}

func (c *Client) takeSlot(cancel context.CancelFunc) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelPrev != nil {
		c.cancelPrev()
	}
	c.cancelPrev = cancel
	c.gen++
	return c.gen
}

func (c *Client) releaseSlot(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Only clear the slot if a newer submission has not replaced it.
	if c.gen == gen {
		c.cancelPrev = nil
	}
}

const serverErrorMessage = "Something went wrong while generating your report. Please try again."

func envelopeError(env envelope, statusCode int) error {
	if env.Error == nil {
		return statusError(statusCode)
	}
	switch env.Error.Code {
	case "VALIDATION_ERROR":
		msg := env.Error.Message
		for _, detail := range env.Error.Details {
			msg = detail
			break
		}
		return &RequestError{Kind: KindValidation, Message: msg}
	default:
		msg := env.Error.Message
		if msg == "" {
			msg = serverErrorMessage
		}
		return &RequestError{Kind: KindServer, Message: msg, Detail: env.Error.Code}
	}
}

func statusError(code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &RequestError{Kind: KindAuth, Message: "The session is no longer valid. Reload the page and try again.", Detail: fmt.Sprintf("%d", code)}
	case code == http.StatusNotFound:
		return &RequestError{Kind: KindServer, Message: "The report service is unavailable.", Detail: "404"}
	case code == http.StatusServiceUnavailable:
		return &RequestError{Kind: KindUnavailable, Message: "The service is temporarily overloaded. Please try again in a moment.", Detail: "503"}
	case code >= 500:
		return &RequestError{Kind: KindServer, Message: serverErrorMessage, Detail: fmt.Sprintf("%d", code)}
	case code >= 400:
		return &RequestError{Kind: KindValidation, Message: "The submission was rejected. Please review your answers.", Detail: fmt.Sprintf("%d", code)}
	default:
		return &RequestError{Kind: KindServer, Message: serverErrorMessage, Detail: fmt.Sprintf("%d", code)}
	}
}

func looksLikeHTML(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "<")
}
