package ports

import (
	"context"
	"time"
)

// RegistryCredential is one on-chain credential entry for a worker.
type RegistryCredential struct {
	Hash     [32]byte
	Issuer   string
	IssuedAt time.Time
	Revoked  bool
}

// CredentialRegistry is the read-only on-chain credential registry.
// Enumeration is index-based because the contract exposes only a count
// and a positional getter.
type CredentialRegistry interface {
	CredentialCount(ctx context.Context, workerAddress string) (uint64, error)
	CredentialAt(ctx context.Context, workerAddress string, index uint64) (RegistryCredential, error)
}
