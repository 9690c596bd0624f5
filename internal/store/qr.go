package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// GetQRCode resolves a scan identifier, or returns nil when unknown.
func (s *Store) GetQRCode(ctx context.Context, code string) (*QRCode, error) {
	var q QRCode
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, COALESCE(destination_url,''), active FROM qr_codes WHERE code = $1`,
		code,
	).Scan(&q.ID, &q.Code, &q.DestinationURL, &q.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// InsertQRScan appends one scan-log row.
func (s *Store) InsertQRScan(ctx context.Context, scan *QRScan) error {
	if scan.ID == uuid.Nil {
		scan.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO qr_scans (id, qr_code_id, ip_address, user_agent, referer, country, region, city, device_type, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		scan.ID, scan.QRCodeID, scan.IPAddress, scan.UserAgent, scan.Referer,
		scan.Country, scan.Region, scan.City, scan.DeviceType, scan.ScannedAt)
	return err
}
