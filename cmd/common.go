package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/osdu-tools/dataload"
	"github.com/osdu-tools/dataload/logger"
)

// applyLogOptions points the command's logger at the configured log file
// and raises the verbosity when asked. Without a log file, logs keep
// going to stderr.
func applyLogOptions(c *cobra.Command, cio *dataload.CmdIO) error {
	verbose, err := c.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	path, err := c.Flags().GetString("log-file")
	if err != nil {
		return err
	}
	w := cio.Stderr
	if path != "" {
		fw, err := logger.NewFileWriter(path)
		if err != nil {
			return err
		}
		w = fw
	}
	if verbose {
		cio.SetLogger(logger.NewVerboseLogger(w))
	} else if path != "" {
		cio.SetLogger(logger.NewStandardLogger(w))
	}
	return nil
}

// platformFlags binds the connection settings shared by every remote
// command.
func platformFlags(flags *pflag.FlagSet, cfg *dataload.Config, authToken *string) {
	flags.StringVar(&cfg.FileURL, "file-url", cfg.FileURL, "base URL of the file service")
	flags.StringVar(&cfg.StorageURL, "storage-url", cfg.StorageURL, "base URL of the storage service")
	flags.StringVar(&cfg.WorkflowURL, "workflow-url", cfg.WorkflowURL, "base URL of the workflow service")
	flags.StringVar(&cfg.SearchURL, "search-url", cfg.SearchURL, "base URL of the search service")
	flags.StringVar(&cfg.LegalURL, "legal-url", cfg.LegalURL, "base URL of the legal service")
	flags.StringVar(&cfg.DataPartitionID, "data-partition-id", cfg.DataPartitionID, "data partition to load into")
	flags.StringVar(&cfg.LegalTag, "legal-tag", cfg.LegalTag, "legal tag stamped on loaded records")
	flags.StringVar(&cfg.ACLViewer, "acl-viewer", cfg.ACLViewer, "ACL viewer group stamped on loaded records")
	flags.StringVar(&cfg.ACLOwner, "acl-owner", cfg.ACLOwner, "ACL owner group stamped on loaded records")
	flags.StringVar(&cfg.AppKey, "app-key", cfg.AppKey, "application key sent with workflow runs")
	flags.StringVar(&cfg.WorkflowName, "workflow-name", cfg.WorkflowName, "ingestion workflow to submit to")
	flags.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "records per workflow run for batchable manifests")
	flags.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "retries per remote call on transient failures")
	flags.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "base delay of the retry backoff")
	flags.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "interval between workflow status checks")
	flags.DurationVar(&cfg.PollTimeout, "poll-timeout", cfg.PollTimeout, "how long to poll a run before reporting unknown")
	flags.StringVar(&cfg.TokenURL, "token-url", cfg.TokenURL, "OAuth2 token endpoint")
	flags.StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "OAuth2 client id")
	flags.StringVar(&cfg.ClientSecret, "client-secret", cfg.ClientSecret, "OAuth2 client secret")
	flags.StringVar(&cfg.AuthScope, "auth-scope", cfg.AuthScope, "OAuth2 scope, defaults to <client-id>/.default")
	flags.StringVar(authToken, "auth-token", "", "bearer token to use instead of client-credentials auth")
}
