package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

const defaultCompressThreshold = 10 * 1024

// AuditRecord is one sys_audit row.
type AuditRecord struct {
	ID                id.ID           `db:"id" json:"id"`
	PharmacyID        id.ID           `db:"pharmacy_id" json:"pharmacy_id"`
	EntityType        string          `db:"entity_type" json:"entity_type"`
	EntityID          id.ID           `db:"entity_id" json:"entity_id"`
	Action            audit.Action    `db:"action" json:"action"`
	ActorID           id.ID           `db:"actor_id" json:"actor_id"`
	Changes           json.RawMessage `db:"changes" json:"changes,omitempty"`
	ChangesCompressed []byte          `db:"changes_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// AuditService writes the audit trail inside the caller's transaction.
// Change sets above the threshold are stored zstd-compressed.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ audit.Recorder = (*AuditService)(nil)

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// Record implements audit.Recorder.
func (s *AuditService) Record(ctx context.Context, e audit.Entry) error {
	changes, err := json.Marshal(e.Changes)
	if err != nil {
		return fmt.Errorf("marshal audit changes: %w", err)
	}

	rec := s.pack(AuditRecord{
		ID:         id.New(),
		PharmacyID: e.PharmacyID,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		ActorID:    e.ActorID,
		Changes:    changes,
		CreatedAt:  time.Now().UTC(),
	})

	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, pharmacy_id, entity_type, entity_id, action, actor_id,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		rec.ID, rec.PharmacyID, rec.EntityType, rec.EntityID, rec.Action, rec.ActorID,
		rec.Changes, rec.ChangesCompressed, rec.CompressionAlgo, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// pack compresses large change sets.
func (s *AuditService) pack(rec AuditRecord) AuditRecord {
	rec.CompressionAlgo = CompressionNone
	if len(rec.Changes) > s.compressThreshold {
		rec.ChangesCompressed = s.encoder.EncodeAll(rec.Changes, nil)
		rec.Changes = nil
		rec.CompressionAlgo = CompressionZstd
	}
	return rec
}

func (s *AuditService) unpack(rec *AuditRecord) error {
	if rec.CompressionAlgo != CompressionZstd || len(rec.ChangesCompressed) == 0 {
		return nil
	}
	raw, err := s.decoder.DecodeAll(rec.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress changes: %w", err)
	}
	rec.Changes = raw
	rec.ChangesCompressed = nil
	return nil
}

// History returns the newest audit records of one entity.
func (s *AuditService) History(ctx context.Context, pharmacyID id.ID, entityType string, entityID id.ID, limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, pharmacy_id, entity_type, entity_id, action, actor_id,
		       changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE pharmacy_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at DESC
		LIMIT $4
	`, pharmacyID, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(
			&rec.ID, &rec.PharmacyID, &rec.EntityType, &rec.EntityID, &rec.Action, &rec.ActorID,
			&rec.Changes, &rec.ChangesCompressed, &rec.CompressionAlgo, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		if err := s.unpack(&rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
