package ingest

import (
	"context"
	"time"

	"github.com/osdu-tools/dataload/client"
	"github.com/osdu-tools/dataload/logger"
)

// StatusChecker re-checks previously submitted workflow runs.
type StatusChecker struct {
	Client *client.Client

	// Wait keeps polling non-terminal runs until they finish or the
	// poll window closes.
	Wait         bool
	PollInterval time.Duration
	PollTimeout  time.Duration

	Log logger.Logger
}

// RunStatus is the reported state of one checked run.
type RunStatus struct {
	RunID   string
	Status  string
	Elapsed time.Duration
}

// Check reports the current status of the given run ids. With Wait set
// it keeps polling until every run is terminal or the window closes;
// runs whose status could not be read report an empty status.
func (s *StatusChecker) Check(ctx context.Context, runIDs []string) ([]RunStatus, error) {
	log := s.Log
	if log == nil {
		log = logger.NopLogger
	}
	interval := s.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	timeout := s.PollTimeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	deadline := time.Now().Add(timeout)

	statuses := make(map[string]RunStatus, len(runIDs))
	pending := append([]string(nil), runIDs...)
	for {
		var still []string
		for _, id := range pending {
			corrID := client.NewCorrelationID("status")
			run, err := s.Client.WorkflowStatus(ctx, id, corrID)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.Warnf("status check of run %s failed: %v", id, err)
				statuses[id] = RunStatus{RunID: id}
				continue
			}
			st := RunStatus{RunID: id, Status: run.Status}
			if run.StartTimeStamp > 0 {
				end := run.EndTimeStamp
				if end == 0 {
					end = time.Now().UnixMilli()
				}
				st.Elapsed = time.Duration(end-run.StartTimeStamp) * time.Millisecond
			}
			statuses[id] = st
			if run.Status == client.StatusRunning {
				still = append(still, id)
			}
		}
		if !s.Wait || len(still) == 0 || time.Now().After(deadline) {
			break
		}
		pending = still
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}

	out := make([]RunStatus, 0, len(runIDs))
	for _, id := range runIDs {
		out = append(out, statuses[id])
	}
	return out, nil
}
