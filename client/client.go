// Package client implements the authenticated HTTP surface of the remote
// data platform: signed-URL file uploads, file metadata registration,
// record versions, manifest ingestion workflow runs, search and record
// deletion. Every request carries the partition header, a correlation id
// and a bearer token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/osdu-tools/dataload"
	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/logger"
)

// Client talks to the platform services. Safe for concurrent use.
type Client struct {
	httpClient *http.Client

	fileURL      string
	storageURL   string
	workflowURL  string
	searchURL    string
	legalURL     string
	partition    string
	appKey       string
	workflowName string

	tokens oauth2.TokenSource
	log    logger.Logger
}

func New(cfg *dataload.Config, tokens oauth2.TokenSource, log logger.Logger) *Client {
	if log == nil {
		log = logger.NopLogger
	}
	return &Client{
		httpClient:   &http.Client{Timeout: 5 * time.Minute},
		fileURL:      strings.TrimRight(cfg.FileURL, "/"),
		storageURL:   strings.TrimRight(cfg.StorageURL, "/"),
		workflowURL:  strings.TrimRight(cfg.WorkflowURL, "/"),
		searchURL:    strings.TrimRight(cfg.SearchURL, "/"),
		legalURL:     strings.TrimRight(cfg.LegalURL, "/"),
		partition:    cfg.DataPartitionID,
		appKey:       cfg.AppKey,
		workflowName: cfg.WorkflowName,
		tokens:       tokens,
		log:          log,
	}
}

// Partition returns the data partition id the client was built with.
func (c *Client) Partition() string { return c.partition }

// WorkflowName returns the ingestion workflow the client submits to.
func (c *Client) WorkflowName() string { return c.workflowName }

// UploadLocation is the platform's answer to an upload URL request.
type UploadLocation struct {
	FileID   string `json:"FileID"`
	Location struct {
		SignedURL  string `json:"SignedURL"`
		FileSource string `json:"FileSource"`
	} `json:"Location"`
}

// GetUploadURL acquires a write location for one file.
func (c *Client) GetUploadURL(ctx context.Context, corrID string) (*UploadLocation, error) {
	var loc UploadLocation
	err := c.do(ctx, http.MethodGet, c.fileURL+"/files/uploadURL", nil, &loc, corrID, http.StatusOK)
	if err != nil {
		return nil, errors.Wrap(err, "requesting upload URL")
	}
	if loc.Location.SignedURL == "" || loc.Location.FileSource == "" {
		return nil, errors.New(errors.ErrBadRequest, "upload URL response missing signed URL or file source")
	}
	return &loc, nil
}

// PutSignedURL writes the file bytes to the signed write location. The
// signed URL authenticates itself, so no platform headers are attached.
func (c *Client) PutSignedURL(ctx context.Context, signedURL string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, body)
	if err != nil {
		return errors.Wrap(err, "building signed URL request")
	}
	req.ContentLength = size
	req.Header.Set("x-ms-blob-type", "BlockBlob")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "writing to signed URL")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError(resp, "writing to signed URL")
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// PostFileMetadata registers a file's descriptive metadata and returns the
// assigned record id.
func (c *Client) PostFileMetadata(ctx context.Context, meta interface{}, corrID string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, c.fileURL+"/files/metadata", meta, &out, corrID, http.StatusOK, http.StatusCreated)
	if err != nil {
		return "", errors.Wrap(err, "registering file metadata")
	}
	if out.ID == "" {
		return "", errors.New(errors.ErrBadRequest, "metadata response missing record id")
	}
	return out.ID, nil
}

// GetRecordVersion reads back the newest assigned version of a record.
func (c *Client) GetRecordVersion(ctx context.Context, recordID, corrID string) (string, error) {
	var out struct {
		RecordID string  `json:"recordId"`
		Versions []int64 `json:"versions"`
	}
	u := c.storageURL + "/records/versions/" + url.PathEscape(recordID)
	err := c.do(ctx, http.MethodGet, u, nil, &out, corrID, http.StatusOK)
	if err != nil {
		return "", errors.Wrapf(err, "reading versions of %s", recordID)
	}
	if len(out.Versions) == 0 {
		return "", errors.Newf(errors.ErrNotFound, "record %s has no versions", recordID)
	}
	return fmt.Sprintf("%d", out.Versions[0]), nil
}

// workflowRequest is the execution-context envelope every manifest
// submission is wrapped in.
type workflowRequest struct {
	ExecutionContext executionContext `json:"executionContext"`
}

type executionContext struct {
	Payload  map[string]string `json:"Payload"`
	Manifest interface{}       `json:"manifest"`
}

// TriggerWorkflow submits one wrapped manifest to the ingestion workflow
// and returns the platform-assigned run id.
func (c *Client) TriggerWorkflow(ctx context.Context, manifest interface{}, corrID string) (string, error) {
	req := workflowRequest{
		ExecutionContext: executionContext{
			Payload: map[string]string{
				"AppKey":            c.appKey,
				"data-partition-id": c.partition,
			},
			Manifest: manifest,
		},
	}
	var out struct {
		RunID string `json:"runId"`
	}
	u := c.workflowURL + "/workflow/" + url.PathEscape(c.workflowName) + "/workflowRun"
	err := c.do(ctx, http.MethodPost, u, req, &out, corrID, http.StatusOK)
	if err != nil {
		return "", errors.Wrap(err, "triggering workflow run")
	}
	if out.RunID == "" {
		return "", errors.New(errors.ErrBadRequest, "workflow response missing runId")
	}
	return out.RunID, nil
}

// WorkflowRun is the observable state of an ingestion job.
type WorkflowRun struct {
	RunID          string `json:"runId"`
	Status         string `json:"status"`
	StartTimeStamp int64  `json:"startTimeStamp"`
	EndTimeStamp   int64  `json:"endTimeStamp"`
}

const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// WorkflowStatus polls one run id.
func (c *Client) WorkflowStatus(ctx context.Context, runID, corrID string) (*WorkflowRun, error) {
	var run WorkflowRun
	u := c.workflowURL + "/workflow/" + url.PathEscape(c.workflowName) + "/workflowRun/" + url.PathEscape(runID)
	err := c.do(ctx, http.MethodGet, u, nil, &run, corrID, http.StatusOK)
	if err != nil {
		return nil, errors.Wrapf(err, "checking status of run %s", runID)
	}
	return &run, nil
}

// SearchIDs queries the search service for the given record ids and
// returns the subset that exists.
func (c *Client) SearchIDs(ctx context.Context, ids []string, corrID string) ([]string, error) {
	clauses := make([]string, len(ids))
	for i, id := range ids {
		clauses[i] = `id:"` + id + `"`
	}
	query := map[string]interface{}{
		"kind":           "*:*:*:*.*.*",
		"returnedFields": []string{"id"},
		"offset":         0,
		"query":          strings.Join(clauses, " OR "),
		"limit":          len(ids),
	}
	var out struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, c.searchURL+"/query", query, &out, corrID, http.StatusOK); err != nil {
		return nil, errors.Wrap(err, "searching record ids")
	}
	found := make([]string, 0, len(out.Results))
	for _, r := range out.Results {
		found = append(found, r.ID)
	}
	return found, nil
}

// DeleteRecord deletes one record. A missing record comes back as
// ErrNotFound so the caller can decide whether that counts.
func (c *Client) DeleteRecord(ctx context.Context, recordID, corrID string) error {
	u := c.storageURL + "/records/" + url.PathEscape(recordID)
	err := c.do(ctx, http.MethodDelete, u, nil, nil, corrID, http.StatusNoContent)
	return errors.Wrapf(err, "deleting record %s", recordID)
}

// LegalTagExists verifies the configured legal tag before a run starts.
func (c *Client) LegalTagExists(ctx context.Context, name, corrID string) (bool, error) {
	u := c.legalURL + "/legaltags/" + url.PathEscape(name)
	err := c.do(ctx, http.MethodGet, u, nil, nil, corrID, http.StatusOK)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return false, nil
		}
		return false, errors.Wrapf(err, "checking legal tag %s", name)
	}
	return true, nil
}

// do runs one authenticated request and decodes the JSON response into
// out (when non-nil). Status codes outside wantStatus map onto the error
// taxonomy so the retry layer can classify them.
func (c *Client) do(ctx context.Context, method, u string, body, out interface{}, corrID string, wantStatus ...int) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return errors.Wrap(err, "fetching auth token")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("data-partition-id", c.partition)
	req.Header.Set("correlation-id", corrID)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	for _, want := range wantStatus {
		if resp.StatusCode == want {
			if out != nil {
				if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
					return errors.Wrap(err, "decoding response")
				}
			} else {
				io.Copy(io.Discard, resp.Body)
			}
			return nil
		}
	}
	return statusError(resp, method+" "+u)
}

// statusError maps an unexpected HTTP status onto the error taxonomy.
// 429 and 5xx are transient; other 4xx are permanent and never retried,
// except a 401 naming an expired token, which a token refresh can cure.
func statusError(resp *http.Response, doing string) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 250))
	msg := fmt.Sprintf("%s: status %d: %s", doing, resp.StatusCode, strings.TrimSpace(string(snippet)))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return errors.New(errors.ErrTransient, msg)
	case resp.StatusCode == http.StatusUnauthorized && strings.Contains(strings.ToLower(msg), "expire"):
		return errors.New(errors.ErrTokenExpired, msg)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.New(errors.ErrUnauthorized, msg)
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrNotFound, msg)
	default:
		return errors.New(errors.ErrBadRequest, msg)
	}
}

// NewCorrelationID returns a correlation id for one logical operation. It
// is attached to every remote call the operation makes so the four-step
// upload protocol (and everything else) can be traced end to end.
func NewCorrelationID(op string) string {
	return op + "-" + time.Now().UTC().Format("0102-150405") + "-" + uuid.NewString()[:8]
}
