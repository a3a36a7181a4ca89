// Package ctl contains all the command actions of the dataload binary.
// Each command is a struct whose exported fields are bound to flags in
// cmd/, plus a Run method carrying the action.
package ctl

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"

	"github.com/osdu-tools/dataload"
	"github.com/osdu-tools/dataload/auth"
	"github.com/osdu-tools/dataload/client"
	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/logger"
	"github.com/osdu-tools/dataload/retry"
)

// platform bundles what every remote command needs.
type platform struct {
	client  *client.Client
	retryer *retry.Retryer
}

// newPlatform validates cfg, builds the token source and wires the
// client and retryer. bearerToken overrides client-credentials auth
// when set, so a command can run with a token minted out of band.
func newPlatform(ctx context.Context, cfg *dataload.Config, bearerToken string, log logger.Logger) (*platform, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tokens := auth.StaticTokenSource(bearerToken)
	if bearerToken == "" {
		var err error
		tokens, err = auth.NewTokenSource(ctx, auth.Config{
			TokenURL:     cfg.TokenURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scope:        cfg.AuthScope,
		})
		if err != nil {
			return nil, err
		}
	}
	return &platform{
		client:  client.New(cfg, tokens, log),
		retryer: retry.New(cfg.MaxRetries, cfg.RetryDelay, log),
	}, nil
}

// writeSummary renders a summary table to w.
func writeSummary(w io.Writer, header []interface{}, rows [][]interface{}) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	// Don't uppercase the header values.
	t.Style().Format.Header = text.FormatDefault

	t.AppendHeader(table.Row(header))
	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}
	t.Render()
	w.Write([]byte("\n"))
}

// writeRunIDs persists the run ids of a submission so status can find
// them later.
func writeRunIDs(path string, runIDs []string) error {
	data, err := json.MarshalIndent(map[string][]string{"runIds": runIDs}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding run ids")
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return errors.Wrapf(err, "writing run ids to %s", path)
	}
	return nil
}

// readRunIDs loads a run-id file written by writeRunIDs.
func readRunIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading run ids from %s", path)
	}
	var out struct {
		RunIDs []string `json:"runIds"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrapf(err, "decoding run ids from %s", path)
	}
	return out.RunIDs, nil
}
