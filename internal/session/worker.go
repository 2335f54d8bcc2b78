package session

import (
	"context"
	"fmt"

	"github.com/Tomcat63/FinanceAnalyzer/internal/advisory"
	"github.com/Tomcat63/FinanceAnalyzer/internal/jobs"
	"github.com/Tomcat63/FinanceAnalyzer/internal/logger"
)

// AdvisoryJobHandler returns the queue handler that runs the advisory engine
// of the job's session. Unknown sessions fail the job without retries. The
// engine settles generator failures with the fallback tip, so the handler
// itself never asks for a retry.
func (m *Manager) AdvisoryJobHandler() jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		advisoryJob, ok := job.(*jobs.AdvisoryJob)
		if !ok {
			return jobs.Permanent(fmt.Errorf("unexpected job type: %T", job))
		}

		s, err := m.Get(advisoryJob.SessionID)
		if err != nil {
			return jobs.Permanent(err)
		}

		txs := s.Store().Transactions()
		engine := s.Advisory()

		var snap advisory.Snapshot
		if advisoryJob.Refresh {
			snap = engine.Refresh(ctx, txs)
		} else {
			snap = engine.Run(ctx, txs)
		}

		log := logger.WithFields(s.log, map[string]interface{}{
			"job_id":  advisoryJob.JobID,
			"refresh": advisoryJob.Refresh,
			"attempt": advisoryJob.RetryCount + 1,
		})
		log.Info().
			Str("state", string(snap.State)).
			Bool("fallback", snap.Fallback).
			Int("tips", len(snap.Tips)).
			Msg("Advisory job finished")
		return nil
	}
}
