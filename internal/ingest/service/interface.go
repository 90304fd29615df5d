package service

import (
	"context"
	"log/slog"

	"vidstore/internal/core/domain"
	"vidstore/internal/core/ports"
	"vidstore/internal/pkg/crypto/xor"
)

// Service converts between plain .mp4 files and the stored format in
// the content store's directory.
type Service interface {
	Encode(ctx context.Context) ([]domain.IngestResult, error)
	Decode(ctx context.Context) ([]domain.IngestResult, error)
}

type IngestService struct {
	store  ports.ContentStore
	ledger ports.Ledger
	codec  *xor.Obfuscator
	logger *slog.Logger
}

func NewService(store ports.ContentStore, ledger ports.Ledger, codec *xor.Obfuscator, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		store:  store,
		ledger: ledger,
		codec:  codec,
		logger: logger,
	}
}
