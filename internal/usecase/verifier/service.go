package verifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"workpassport/internal/bootstrap/logging"
	"workpassport/internal/domain/verification"
	"workpassport/internal/errs"
	"workpassport/internal/ports"
)

// Service is the company verification agent. One sweep fetches the
// pending submissions, classifies each through the legitimacy oracle,
// and transitions it to verified or rejected with an audit entry.
//
// Processed ids are tracked in an in-memory set: the status transition
// removes a request from the pending query, and the set stops a
// request whose transition keeps failing from being re-scored every
// sweep within the same process. The set is owned by the single
// sweeping goroutine.
type Service struct {
	repo    ports.VerificationRepository
	actions ports.ActionLog
	uow     ports.UnitOfWork
	oracle  ports.CompanyOracle

	now  func() time.Time
	seen map[uint64]struct{}
}

func NewService(
	repo ports.VerificationRepository,
	actions ports.ActionLog,
	uow ports.UnitOfWork,
	oracle ports.CompanyOracle,
) *Service {
	return &Service{
		repo:    repo,
		actions: actions,
		uow:     uow,
		oracle:  oracle,
		now:     time.Now,
		seen:    make(map[uint64]struct{}),
	}
}

type SweepResult struct {
	Pending  int
	Approved int
	Rejected int
	Skipped  int
}

// SweepOnce processes all pending submissions once, in created_at
// order. A persistence failure stops the sweep before the item is
// marked seen, so it is retried next sweep.
func (s *Service) SweepOnce(ctx context.Context) (SweepResult, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "verifier"))

	pending, err := s.repo.ListPending(logCtx)
	if err != nil {
		return SweepResult{}, errs.Wrap(err, "fetch pending verifications")
	}

	result := SweepResult{Pending: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	for _, req := range pending {
		if _, done := s.seen[req.ID]; done {
			result.Skipped++
			continue
		}

		approved, err := s.processOne(logCtx, req)
		if err != nil {
			return result, errs.Wrapf(err, "process verification %d", req.ID)
		}
		s.seen[req.ID] = struct{}{}

		if approved {
			result.Approved++
		} else {
			result.Rejected++
		}
	}

	logging.Info(logCtx, "sweep completed",
		slog.Int("pending", result.Pending),
		slog.Int("approved", result.Approved),
		slog.Int("rejected", result.Rejected),
	)
	return result, nil
}

func (s *Service) processOne(ctx context.Context, req verification.Request) (bool, error) {
	itemCtx := logging.WithAttrs(ctx,
		slog.Uint64("verification_id", req.ID),
		slog.String("company", req.CompanyName),
	)
	now := s.now()

	verdict := s.analyze(itemCtx, req)

	logging.Info(itemCtx, "company analyzed",
		slog.Bool("verified", verdict.Verified),
		slog.Int("confidence", verdict.Confidence),
		slog.String("reason", verdict.Reason),
	)

	err := s.uow.WithTx(itemCtx, func(txCtx context.Context) error {
		if verdict.Verified {
			if err := s.repo.MarkVerified(txCtx, req.ID, now); err != nil {
				return errs.Wrap(err, "approve company")
			}
			return s.actions.Append(txCtx, ports.ActionEntry{
				Action:    ports.ActionApproveCompany,
				SubjectID: req.ID,
				Details:   verdict.Reason,
				Timestamp: now,
			})
		}

		reason := rejectionReason(verdict)
		if err := s.repo.MarkRejected(txCtx, req.ID, reason); err != nil {
			return errs.Wrap(err, "reject company")
		}
		return s.actions.Append(txCtx, ports.ActionEntry{
			Action:    ports.ActionRejectCompany,
			SubjectID: req.ID,
			Details:   reason,
			Timestamp: now,
		})
	})
	if err != nil {
		return false, err
	}
	return verdict.Verified, nil
}

// analyze consults the legitimacy oracle and degrades to an
// approve-leaning verdict on failure: an infra hiccup must not gate a
// legitimate-looking new employer. The reason records that analysis
// did not complete, and the audit entry keeps the approval traceable.
func (s *Service) analyze(ctx context.Context, req verification.Request) verification.Verdict {
	verdict, err := s.oracle.AnalyzeCompany(ctx, req)
	if err != nil {
		logging.Warn(ctx, "oracle analysis failed, approving by policy",
			slog.Any("err", errs.Loggable(err)))
		return verification.Verdict{
			Verified:   true,
			Confidence: 0,
			Reason:     "Automated analysis could not complete; approved by fail-open policy",
		}
	}
	return verdict
}

func rejectionReason(verdict verification.Verdict) string {
	if len(verdict.RiskFactors) == 0 {
		return verdict.Reason
	}
	return fmt.Sprintf("%s (risk factors: %s)", verdict.Reason, strings.Join(verdict.RiskFactors, "; "))
}
