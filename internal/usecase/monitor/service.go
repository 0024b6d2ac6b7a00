package monitor

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"workpassport/internal/bootstrap/logging"
	"workpassport/internal/domain/credential"
	"workpassport/internal/errs"
	"workpassport/internal/ports"
)

// checkpointKey is the agent_kv key holding the last fully processed
// credential id.
const checkpointKey = "monitor:credential:cursor"

type Config struct {
	// VelocityThreshold flags an issuer whose trailing-window volume is
	// strictly greater than this count.
	VelocityThreshold int
	VelocityWindow    time.Duration
	// CheckpointMargin is how far below the newest credential id the
	// cursor is initialized on a cold start, so items created just
	// before process start are still swept.
	CheckpointMargin uint64
	CleanDelta       int
	FlaggedDelta     int
	FetchBatch       int
}

func (c Config) withDefaults() Config {
	if c.VelocityThreshold == 0 {
		c.VelocityThreshold = 10
	}
	if c.VelocityWindow == 0 {
		c.VelocityWindow = 24 * time.Hour
	}
	if c.CleanDelta == 0 {
		c.CleanDelta = 5
	}
	if c.FlaggedDelta == 0 {
		c.FlaggedDelta = -10
	}
	if c.FetchBatch == 0 {
		c.FetchBatch = 100
	}
	return c
}

// Service is the credential risk monitor. One sweep fetches every
// credential past the checkpoint, runs the oracle, issuer-velocity and
// on-chain checks on each, applies flag/reputation/audit mutations in
// one transaction, and advances the checkpoint per fully processed
// item.
//
// The cursor is exclusively owned by the single sweeping goroutine;
// no locking is needed inside one agent instance. Running two monitor
// instances against one store would double-count reputation deltas and
// is not supported.
type Service struct {
	creds      ports.CredentialRepository
	reputation ports.ReputationRepository
	actions    ports.ActionLog
	kv         ports.KV
	uow        ports.UnitOfWork
	oracle     ports.CredentialOracle
	registry   ports.CredentialRegistry
	cfg        Config

	now func() time.Time

	cursorReady bool
	cursor      uint64
}

func NewService(
	creds ports.CredentialRepository,
	reputation ports.ReputationRepository,
	actions ports.ActionLog,
	kv ports.KV,
	uow ports.UnitOfWork,
	oracle ports.CredentialOracle,
	registry ports.CredentialRegistry,
	cfg Config,
) *Service {
	return &Service{
		creds:      creds,
		reputation: reputation,
		actions:    actions,
		kv:         kv,
		uow:        uow,
		oracle:     oracle,
		registry:   registry,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
	}
}

type SweepResult struct {
	CursorBefore uint64
	CursorAfter  uint64
	Processed    int
	Flagged      int
}

// SweepOnce runs one full sweep. On error the checkpoint stays at the
// last fully processed item, so the failed item is seen again next
// sweep (at-least-once).
func (s *Service) SweepOnce(ctx context.Context) (SweepResult, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "monitor"))

	if err := s.ensureCursor(logCtx); err != nil {
		return SweepResult{}, errs.Wrap(err, "initialize checkpoint")
	}

	result := SweepResult{CursorBefore: s.cursor, CursorAfter: s.cursor}

	items, err := s.creds.ListAfterID(logCtx, s.cursor, s.cfg.FetchBatch)
	if err != nil {
		return result, errs.Wrap(err, "fetch credentials after checkpoint")
	}
	if len(items) == 0 {
		return result, nil
	}

	for _, rec := range items {
		flagged, err := s.processOne(logCtx, rec)
		if err != nil {
			// The decision was not durably recorded; stop here without
			// advancing so this item is retried.
			return result, errs.Wrapf(err, "process credential %d", rec.ID)
		}

		result.Processed++
		if flagged {
			result.Flagged++
		}

		s.advanceCursor(logCtx, rec.ID)
		result.CursorAfter = s.cursor
	}

	logging.Info(logCtx, "sweep completed",
		slog.Int("processed", result.Processed),
		slog.Int("flagged", result.Flagged),
		slog.Uint64("cursor", result.CursorAfter),
	)
	return result, nil
}

// ensureCursor initializes the checkpoint once per process: from the
// persisted value when present, otherwise from the newest credential
// id minus a safety margin. Never from zero on a populated store, to
// avoid reprocessing the whole historical backlog on a cold start.
func (s *Service) ensureCursor(ctx context.Context) error {
	if s.cursorReady {
		return nil
	}

	value, found, err := s.kv.Get(ctx, checkpointKey)
	if err != nil {
		logging.Warn(ctx, "checkpoint read failed, falling back to store high-water mark",
			slog.Any("err", errs.Loggable(err)))
	} else if found {
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errs.Wrapf(err, "corrupt checkpoint value %q", value)
		}
		s.cursor = parsed
		s.cursorReady = true
		return nil
	}

	maxID, err := s.creds.MaxID(ctx)
	if err != nil {
		return errs.Wrap(err, "query store high-water mark")
	}

	s.cursor = 0
	if maxID > s.cfg.CheckpointMargin {
		s.cursor = maxID - s.cfg.CheckpointMargin
	}
	s.cursorReady = true

	logging.Info(ctx, "checkpoint initialized", slog.Uint64("cursor", s.cursor))
	return nil
}

func (s *Service) advanceCursor(ctx context.Context, id uint64) {
	s.cursor = id
	if err := s.kv.Set(ctx, checkpointKey, strconv.FormatUint(id, 10)); err != nil {
		// The in-memory cursor still advanced; a restart re-sweeps from
		// the last persisted value, which at-least-once tolerates.
		logging.Warn(ctx, "checkpoint persist failed", slog.Any("err", errs.Loggable(err)))
	}
}

func (s *Service) processOne(ctx context.Context, rec credential.Record) (bool, error) {
	itemCtx := logging.WithAttrs(ctx, slog.Uint64("credential_id", rec.ID))
	now := s.now()

	verdict := s.analyze(itemCtx, rec, now)
	velocitySuspicious, velocityReason := s.issuerVelocity(itemCtx, rec, now)
	chainVerified := s.verifyOnChain(itemCtx, rec)

	flag := credential.ShouldFlag(verdict, velocitySuspicious, chainVerified) && !rec.Flagged
	delta := credential.ReputationDelta(verdict.Suspicious, s.cfg.CleanDelta, s.cfg.FlaggedDelta)

	err := s.uow.WithTx(itemCtx, func(txCtx context.Context) error {
		if flag {
			reason := credential.ComposeFlagReason(verdict, velocityReason, chainVerified)
			if err := s.creds.MarkFlagged(txCtx, rec.ID, reason, verdict.RiskLevel, now); err != nil {
				return errs.Wrap(err, "persist flag")
			}
			if err := s.actions.Append(txCtx, ports.ActionEntry{
				Action:    ports.ActionFlagCredential,
				SubjectID: rec.ID,
				Details:   reason,
				Timestamp: now,
			}); err != nil {
				return errs.Wrap(err, "append flag audit entry")
			}
			logging.Warn(txCtx, "credential flagged",
				slog.String("reason", reason),
				slog.String("risk_level", string(verdict.RiskLevel)),
			)
		}

		// Reputation moves on every processed credential, flagged or
		// not, and follows only the oracle's suspicion verdict.
		if err := s.reputation.Accumulate(txCtx, rec.IssuerAddress, delta, verdict.Suspicious, now); err != nil {
			return errs.Wrap(err, "accumulate issuer reputation")
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return flag, nil
}

// analyze consults the fraud oracle and degrades to a clean verdict on
// any failure. A broken oracle must never mass-flag legitimate
// credentials; the velocity and chain checks still apply.
func (s *Service) analyze(ctx context.Context, rec credential.Record, now time.Time) credential.RiskVerdict {
	verdict, err := s.oracle.AnalyzeCredential(ctx, ports.CredentialAnalysis{
		Company:        rec.Company,
		Position:       rec.Position,
		Skills:         rec.Skills,
		DurationMonths: credential.DurationMonths(rec.StartDate, rec.EndDate, now),
	})
	if err != nil {
		logging.Warn(ctx, "oracle analysis failed, treating as not suspicious",
			slog.Any("err", errs.Loggable(err)))
		return credential.RiskVerdict{
			Suspicious: false,
			Confidence: 0,
			Reason:     "Analysis unavailable",
			RiskLevel:  credential.RiskLevelLow,
		}
	}
	return verdict
}

// issuerVelocity counts the issuer's credentials in the trailing
// window. A count failure degrades to normal activity.
func (s *Service) issuerVelocity(ctx context.Context, rec credential.Record, now time.Time) (bool, string) {
	count, err := s.creds.CountByIssuerSince(ctx, rec.IssuerAddress, now.Add(-s.cfg.VelocityWindow))
	if err != nil {
		logging.Warn(ctx, "issuer velocity count failed, treating as normal activity",
			slog.Any("err", errs.Loggable(err)))
		return false, ""
	}

	if !credential.VelocitySuspicious(count, s.cfg.VelocityThreshold) {
		return false, ""
	}
	return true, credential.VelocityReason(count)
}

// verifyOnChain checks the credential hash against the worker's
// on-chain registry entries. This is a linear scan over the worker's
// entries; per-worker counts are small in practice, so no index is
// kept. Registry read failures are fail-open: RPC flakiness must not
// be conflated with actual on-chain absence.
func (s *Service) verifyOnChain(ctx context.Context, rec credential.Record) bool {
	want, err := credential.ParseHash(rec.Hash)
	if err != nil {
		// A malformed stored hash can never match a canonical on-chain
		// entry; this is a data problem, not an RPC one.
		logging.Warn(ctx, "stored credential hash is malformed", slog.Any("err", errs.Loggable(err)))
		return false
	}

	count, err := s.registry.CredentialCount(ctx, rec.WorkerAddress)
	if err != nil {
		logging.Warn(ctx, "registry count failed, treating as verified",
			slog.Any("err", errs.Loggable(err)))
		return true
	}

	for i := uint64(0); i < count; i++ {
		entry, err := s.registry.CredentialAt(ctx, rec.WorkerAddress, i)
		if err != nil {
			logging.Warn(ctx, "registry read failed, treating as verified",
				slog.Any("err", errs.Loggable(err)))
			return true
		}
		if entry.Hash == want {
			return true
		}
	}
	return false
}
