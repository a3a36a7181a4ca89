package dataload

import (
	"time"

	"github.com/osdu-tools/dataload/errors"
)

// Config carries the connection and request settings shared by every
// command. It is populated from flags, environment and an optional config
// file by cmd/root.go; the zero value is not usable.
type Config struct {
	// Service endpoints, without trailing slashes.
	FileURL     string `json:"file-url"`
	StorageURL  string `json:"storage-url"`
	WorkflowURL string `json:"workflow-url"`
	SearchURL   string `json:"search-url"`
	LegalURL    string `json:"legal-url"`

	// Tenant/partition identity stamped on every request and record.
	DataPartitionID string `json:"data-partition-id"`
	LegalTag        string `json:"legal-tag"`
	ACLViewer       string `json:"acl-viewer"`
	ACLOwner        string `json:"acl-owner"`

	// Workflow identity for manifest ingestion runs.
	AppKey       string `json:"app-key"`
	WorkflowName string `json:"workflow-name"`

	// Delivery tuning.
	BatchSize    int           `json:"batch-size"`
	MaxRetries   int           `json:"max-retries"`
	RetryDelay   time.Duration `json:"retry-delay"`
	PollInterval time.Duration `json:"poll-interval"`
	PollTimeout  time.Duration `json:"poll-timeout"`

	// Client-credentials auth.
	TokenURL     string `json:"token-url"`
	ClientID     string `json:"client-id"`
	ClientSecret string `json:"client-secret"`
	AuthScope    string `json:"auth-scope"`
}

// NewConfig returns a Config with the defaults every command starts from.
func NewConfig() *Config {
	return &Config{
		AppKey:       "data-load",
		WorkflowName: "Osdu_ingest",
		BatchSize:    25,
		MaxRetries:   3,
		RetryDelay:   time.Second,
		PollInterval: 10 * time.Second,
		PollTimeout:  30 * time.Minute,
	}
}

// Validate checks the settings every remote operation depends on. Commands
// that never touch the platform (e.g. generate) skip it.
func (c *Config) Validate() error {
	switch {
	case c.DataPartitionID == "":
		return errors.New(errors.ErrConfig, "data-partition-id is required")
	case c.LegalTag == "":
		return errors.New(errors.ErrConfig, "legal-tag is required")
	case c.ACLViewer == "" || c.ACLOwner == "":
		return errors.New(errors.ErrConfig, "acl-viewer and acl-owner are required")
	case c.BatchSize < 1:
		return errors.New(errors.ErrConfig, "batch-size must be at least 1")
	case c.MaxRetries < 0:
		return errors.New(errors.ErrConfig, "max-retries must not be negative")
	}
	return nil
}
