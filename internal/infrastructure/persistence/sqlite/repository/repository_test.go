package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"workpassport/internal/domain/credential"
	"workpassport/internal/domain/verification"
	"workpassport/internal/infrastructure/persistence/sqlite/model"
	"workpassport/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "workpassport.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(
		&model.Credential{},
		&model.VerificationRequest{},
		&model.EmployerReputation{},
		&model.AgentAction{},
		&model.AgentKV{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func sampleCredential(issuer string, createdAt time.Time) credential.Record {
	return credential.Record{
		WorkerAddress: "0x1111111111111111111111111111111111111111",
		IssuerAddress: issuer,
		Position:      "Backend Engineer",
		Company:       "Acme Corp",
		StartDate:     "2023-01-15",
		Skills:        []string{"go", "sql"},
		CreatedAt:     createdAt,
		Hash:          "0x00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff",
		Signature:     "0xsig",
		SignedMessage: "msg",
	}
}

func TestCredentialCreateGetRoundTrip(t *testing.T) {
	repo := NewCredentialRepository(setupDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, sampleCredential("0xABCDEF0123456789abcdef0123456789ABCDEF01", time.Now().UTC()))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("Create() id = 0")
	}

	got, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Company != "Acme Corp" || got.Position != "Backend Engineer" {
		t.Fatalf("Get() company = %q position = %q", got.Company, got.Position)
	}
	if len(got.Skills) != 2 || got.Skills[0] != "go" || got.Skills[1] != "sql" {
		t.Fatalf("Get() skills = %v", got.Skills)
	}
	if got.Flagged {
		t.Fatalf("Get() flagged = true for fresh credential")
	}

	if _, err := repo.Get(ctx, created.ID+999); !errors.Is(err, ports.ErrCredentialNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrCredentialNotFound", err)
	}
}

func TestCredentialListAfterIDAndMaxID(t *testing.T) {
	repo := NewCredentialRepository(setupDB(t))
	ctx := context.Background()

	var ids []uint64
	for i := 0; i < 5; i++ {
		rec, err := repo.Create(ctx, sampleCredential("0xAAA0000000000000000000000000000000000001", time.Now().UTC()))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids = append(ids, rec.ID)
	}

	items, err := repo.ListAfterID(ctx, ids[1], 2)
	if err != nil {
		t.Fatalf("ListAfterID() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("ListAfterID() len = %d", len(items))
	}
	if items[0].ID != ids[2] || items[1].ID != ids[3] {
		t.Fatalf("ListAfterID() ids = %d,%d want %d,%d", items[0].ID, items[1].ID, ids[2], ids[3])
	}

	maxID, err := repo.MaxID(ctx)
	if err != nil {
		t.Fatalf("MaxID() error = %v", err)
	}
	if maxID != ids[4] {
		t.Fatalf("MaxID() = %d, want %d", maxID, ids[4])
	}
}

func TestCredentialMaxIDEmptyTable(t *testing.T) {
	repo := NewCredentialRepository(setupDB(t))

	maxID, err := repo.MaxID(context.Background())
	if err != nil {
		t.Fatalf("MaxID() error = %v", err)
	}
	if maxID != 0 {
		t.Fatalf("MaxID() = %d on empty table", maxID)
	}
}

func TestCountByIssuerSinceIsCaseInsensitive(t *testing.T) {
	repo := NewCredentialRepository(setupDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	issuers := []string{
		"0xAbCd000000000000000000000000000000000001",
		"0xABCD000000000000000000000000000000000001",
		"0xabcd000000000000000000000000000000000001",
	}
	for _, issuer := range issuers {
		if _, err := repo.Create(ctx, sampleCredential(issuer, now.Add(-time.Hour))); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	// Outside the window.
	if _, err := repo.Create(ctx, sampleCredential(issuers[0], now.Add(-48*time.Hour))); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	// Different issuer.
	if _, err := repo.Create(ctx, sampleCredential("0x9999000000000000000000000000000000000001", now.Add(-time.Hour))); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	count, err := repo.CountByIssuerSince(ctx, "0xaBcD000000000000000000000000000000000001", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CountByIssuerSince() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("CountByIssuerSince() = %d, want 3", count)
	}
}

func TestMarkFlaggedIsOneWay(t *testing.T) {
	repo := NewCredentialRepository(setupDB(t))
	ctx := context.Background()

	rec, err := repo.Create(ctx, sampleCredential("0xAAA0000000000000000000000000000000000001", time.Now().UTC()))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	flaggedAt := time.Now().UTC()
	if err := repo.MarkFlagged(ctx, rec.ID, "AI: mismatch.", credential.RiskLevelHigh, flaggedAt); err != nil {
		t.Fatalf("MarkFlagged() error = %v", err)
	}

	got, err := repo.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Flagged || got.FlagReason == nil || *got.FlagReason != "AI: mismatch." {
		t.Fatalf("Get() flagged = %v reason = %v", got.Flagged, got.FlagReason)
	}
	if got.RiskLevel == nil || *got.RiskLevel != credential.RiskLevelHigh {
		t.Fatalf("Get() risk level = %v", got.RiskLevel)
	}

	// Second flag attempt must not overwrite the recorded reason.
	if err := repo.MarkFlagged(ctx, rec.ID, "different reason", credential.RiskLevelLow, time.Now().UTC()); err != nil {
		t.Fatalf("MarkFlagged() second call error = %v", err)
	}
	got, err = repo.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if *got.FlagReason != "AI: mismatch." {
		t.Fatalf("Get() reason = %q after repeat flag", *got.FlagReason)
	}

	if err := repo.MarkFlagged(ctx, rec.ID+999, "x", credential.RiskLevelLow, time.Now().UTC()); !errors.Is(err, ports.ErrCredentialNotFound) {
		t.Fatalf("MarkFlagged(missing) error = %v, want ErrCredentialNotFound", err)
	}
}

func TestReputationAccumulateIsAdditive(t *testing.T) {
	repo := NewReputationRepository(setupDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Accumulate(ctx, "0xE0E0000000000000000000000000000000000001", 5, false, now); err != nil {
		t.Fatalf("Accumulate() error = %v", err)
	}
	// Mixed case resolves to the same row.
	if err := repo.Accumulate(ctx, "0xe0e0000000000000000000000000000000000001", -10, true, now); err != nil {
		t.Fatalf("Accumulate() error = %v", err)
	}
	if err := repo.Accumulate(ctx, "0xE0e0000000000000000000000000000000000001", 5, false, now); err != nil {
		t.Fatalf("Accumulate() error = %v", err)
	}

	rep, err := repo.Get(ctx, "0xE0E0000000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rep.Score != 0 {
		t.Fatalf("Get() score = %d, want 0", rep.Score)
	}
	if rep.TotalIssued != 3 {
		t.Fatalf("Get() total issued = %d, want 3", rep.TotalIssued)
	}
	if rep.FlaggedCount != 1 {
		t.Fatalf("Get() flagged count = %d, want 1", rep.FlaggedCount)
	}

	if _, err := repo.Get(ctx, "0x000000000000000000000000000000000000dead"); !errors.Is(err, ports.ErrReputationNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrReputationNotFound", err)
	}
}

func TestVerificationPendingOrderAndTransitions(t *testing.T) {
	repo := NewVerificationRepository(setupDB(t))
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	first, err := repo.Create(ctx, verification.Request{
		EmployerAddress: "0xE100000000000000000000000000000000000001",
		CompanyName:     "First Co",
		Website:         "https://first.example",
		CreatedAt:       base,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := repo.Create(ctx, verification.Request{
		EmployerAddress: "0xE200000000000000000000000000000000000002",
		CompanyName:     "Second Co",
		Website:         "https://second.example",
		CreatedAt:       base.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	pending, err := repo.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID || pending[1].ID != second.ID {
		t.Fatalf("ListPending() = %v", pending)
	}

	if err := repo.MarkVerified(ctx, first.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkVerified() error = %v", err)
	}
	if err := repo.MarkRejected(ctx, first.ID, "late rejection"); !errors.Is(err, verification.ErrTerminalStatus) {
		t.Fatalf("MarkRejected(verified) error = %v, want ErrTerminalStatus", err)
	}
	if err := repo.MarkVerified(ctx, first.ID+999, time.Now().UTC()); !errors.Is(err, ports.ErrVerificationNotFound) {
		t.Fatalf("MarkVerified(missing) error = %v, want ErrVerificationNotFound", err)
	}

	pending, err = repo.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("ListPending() after verify = %v", pending)
	}
}
