// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package efile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"taxform-scan/internal/resilience"
	"taxform-scan/internal/security"
)

// Config describes the filing provider
type Config struct {
	Provider    string
	Environment string // test or production
	Endpoint    string // empty simulates the provider
	Username    string
	Password    string
	Timeout     time.Duration
}

// Client validates, submits and tracks electronic filings
type Client struct {
	cfg      Config
	password *security.Secret
	http     *http.Client
	schema   *jsonschema.Schema
	breaker  *resilience.CircuitBreaker
	retry    resilience.RetryConfig
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	history []Result
}

var digitsOnly = regexp.MustCompile(`^\d{9}$`)

// NewClient compiles the submission schema and sets up the transport
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	breakerCfg := resilience.DefaultCircuitBreakerConfig("efile")
	breakerCfg.OnStateChange = func(name string, from, to resilience.BreakerState) {
		logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	}
	password := security.NewSecret(cfg.Password)
	cfg.Password = ""
	logger.Debug("e-file client configured", "provider", cfg.Provider, "environment", cfg.Environment,
		"simulated", cfg.Endpoint == "", "username", cfg.Username, "password", password)
	return &Client{
		cfg:      cfg,
		password: password,
		http:     &http.Client{Timeout: cfg.Timeout},
		schema:   schema,
		breaker:  resilience.NewCircuitBreaker(breakerCfg),
		retry:    resilience.DefaultRetryConfig(),
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Close scrubs the provider credentials
func (c *Client) Close() error {
	c.password.Clear()
	return nil
}

// WithHTTPClient replaces the transport
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// WithRetry replaces the retry policy
func (c *Client) WithRetry(r resilience.RetryConfig) *Client {
	c.retry = r
	return c
}

// Simulated reports whether no endpoint is configured
func (c *Client) Simulated() bool {
	return c.cfg.Endpoint == ""
}

// Validate applies the filing rules and the submission schema
func (c *Client) Validate(d FormData) ValidationResult {
	res := ValidationResult{Errors: []string{}, Warnings: []string{}}

	required := []struct{ name, value string }{
		{"form_type", d.FormType},
		{"taxpayer_name", d.TaxpayerName},
		{"ssn", d.SSN},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			res.Errors = append(res.Errors, "Missing required field: "+r.name)
		}
	}
	if d.TaxYear == 0 {
		res.Errors = append(res.Errors, "Missing required field: tax_year")
	}

	if d.SSN != "" && !digitsOnly.MatchString(strings.ReplaceAll(d.SSN, "-", "")) {
		res.Errors = append(res.Errors, "Invalid SSN format")
	}
	if d.TaxYear != 0 && (d.TaxYear < 1900 || d.TaxYear > c.now().Year()) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Unusual tax year: %d", d.TaxYear))
	}

	for _, name := range d.invalid {
		res.Errors = append(res.Errors, "Invalid monetary value for "+name)
	}
	amounts := []struct {
		name  string
		value *float64
	}{
		{"wages", d.Wages},
		{"federal_tax_withheld", d.FederalTaxWithheld},
		{"tax_due", d.TaxDue},
		{"refund", d.Refund},
	}
	for _, a := range amounts {
		if a.value != nil && *a.value < 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Negative amount for %s: %.2f", a.name, *a.value))
		}
	}

	if len(res.Errors) == 0 {
		msgs, err := checkSchema(c.schema, c.Prepare(d))
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
		}
		res.Errors = append(res.Errors, msgs...)
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// Prepare builds the submission payload with a fresh id
func (c *Client) Prepare(d FormData) *Submission {
	year := d.TaxYear
	if year == 0 {
		year = c.now().Year() - 1
	}
	formType := d.FormType
	if formType == "" {
		formType = "1040"
	}
	filing := d.FilingStatus
	if filing == "" {
		filing = "Single"
	}
	return &Submission{
		SubmissionID: "SUB_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16]),
		FormType:     formType,
		TaxYear:      year,
		TaxpayerInfo: TaxpayerInfo{
			Name:         d.TaxpayerName,
			SSN:          d.SSN,
			FilingStatus: filing,
			Address:      Address{Street: d.Address, City: d.City, State: d.State, ZipCode: d.ZipCode},
		},
		IncomeInfo: IncomeInfo{Wages: deref(d.Wages), TotalIncome: deref(d.TotalIncome)},
		TaxInfo: TaxInfo{
			FederalWithholding: deref(d.FederalTaxWithheld),
			TaxDue:             deref(d.TaxDue),
			RefundAmount:       deref(d.Refund),
		},
		SubmissionTimestamp: c.now().UTC().Format(time.RFC3339),
	}
}

type submitResponse struct {
	ConfirmationNumber string `json:"confirmation_number"`
	Status             string `json:"status"`
	Message            string `json:"message"`
}

// Submit validates and transmits the form. Validation failures return
// ErrValidationFailed with a VALIDATION_FAILED result.
func (c *Client) Submit(ctx context.Context, d FormData) (*Result, error) {
	stamp := c.now().UTC().Format(time.RFC3339)

	v := c.Validate(d)
	if !v.Valid {
		res := &Result{Status: StatusValidationFailed, Errors: v.Errors, Message: "Form validation failed", SubmittedAt: stamp}
		c.record(*res)
		return res, fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(v.Errors, "; "))
	}

	sub := c.Prepare(d)
	log := c.logger.With("submission_id", sub.SubmissionID, "form_type", sub.FormType)

	var resp submitResponse
	var err error
	if c.Simulated() {
		resp = submitResponse{
			ConfirmationNumber: "CONF_" + c.now().Format("20060102150405"),
			Status:             StatusAccepted,
		}
	} else {
		err = resilience.RetryWithCircuitBreaker(ctx, c.retry, c.breaker, func(ctx context.Context) error {
			return c.do(ctx, http.MethodPost, "/submit", sub, &resp)
		})
	}

	if err != nil {
		log.Error("form submission failed", "error", err)
		res := &Result{SubmissionID: sub.SubmissionID, Status: StatusFailed, Errors: []string{err.Error()},
			Message: "Form submission failed", SubmittedAt: stamp}
		if !resilience.IsRetryable(err) && !resilience.IsBreakerOpen(err) {
			res.Status = StatusError
		}
		c.record(*res)
		return res, fmt.Errorf("submit %s: %w", sub.SubmissionID, err)
	}

	log.Info("form submitted", "confirmation", resp.ConfirmationNumber, "simulated", c.Simulated())
	res := &Result{
		Success:            true,
		SubmissionID:       sub.SubmissionID,
		Status:             StatusSubmitted,
		ConfirmationNumber: resp.ConfirmationNumber,
		Message:            "Form submitted successfully",
		SubmittedAt:        stamp,
	}
	c.record(*res)
	return res, nil
}

// Status asks the provider where a submission stands
func (c *Client) Status(ctx context.Context, submissionID string) (*StatusResult, error) {
	if c.Simulated() {
		return &StatusResult{
			SubmissionID:   submissionID,
			Status:         StatusProcessing,
			ProcessingDate: c.now().UTC().Format(time.RFC3339),
			Message:        "Your return is being processed",
		}, nil
	}
	var out StatusResult
	err := resilience.RetryWithCircuitBreaker(ctx, c.retry, c.breaker, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, "/status/"+submissionID, nil, &out)
	})
	if err != nil {
		return &StatusResult{SubmissionID: submissionID, Status: StatusError, Message: "Could not retrieve status"},
			fmt.Errorf("status %s: %w", submissionID, err)
	}
	out.SubmissionID = submissionID
	return &out, nil
}

// Acknowledgment fetches the provider receipt for a submission
func (c *Client) Acknowledgment(ctx context.Context, submissionID string) (*StatusResult, error) {
	if c.Simulated() {
		return &StatusResult{
			SubmissionID:     submissionID,
			Status:           StatusReceived,
			AcknowledgmentID: "ACK_" + c.now().Format("20060102150405"),
			ProcessingDate:   c.now().UTC().Format(time.RFC3339),
		}, nil
	}
	var out StatusResult
	err := resilience.RetryWithCircuitBreaker(ctx, c.retry, c.breaker, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, "/acknowledgment/"+submissionID, nil, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("acknowledgment %s: %w", submissionID, err)
	}
	out.SubmissionID = submissionID
	return &out, nil
}

// History returns every submission attempt, oldest first
func (c *Client) History() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Client) record(r Result) {
	c.mu.Lock()
	c.history = append(c.history, r)
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return resilience.NewPermanentError("encode request", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.Endpoint, "/")+path, rdr)
	if err != nil {
		return resilience.NewPermanentError("build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Environment != "" {
		req.Header.Set("X-Efile-Environment", c.cfg.Environment)
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.password.Reveal())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return resilience.ClassifyError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resilience.ClassifyError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resilience.ClassifyError(&resilience.StatusError{Code: resp.StatusCode, Body: string(data)})
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resilience.NewPermanentError("decode response", err)
		}
	}
	return nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
