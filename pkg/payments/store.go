package payments

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ReceiptStore persists receipts and verified payments in a local SQLite
// database so the paywall cache survives restarts.
type ReceiptStore struct {
	db *sql.DB
}

// OpenReceiptStore opens (and migrates) the store at the given path.
// Use ":memory:" for an ephemeral store.
func OpenReceiptStore(path string) (*ReceiptStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open receipt store: %w", err)
	}

	schema := `
CREATE TABLE IF NOT EXISTS receipts (
	receipt_id TEXT PRIMARY KEY,
	payment_id TEXT NOT NULL,
	tx_hash TEXT NOT NULL,
	payer TEXT NOT NULL,
	payee TEXT NOT NULL,
	amount TEXT NOT NULL,
	currency TEXT NOT NULL,
	network TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_receipts_tx ON receipts(tx_hash);
CREATE TABLE IF NOT EXISTS verified_payments (
	tx_hash TEXT PRIMARY KEY,
	payment_id TEXT NOT NULL,
	verified_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate receipt store: %w", err)
	}

	return &ReceiptStore{db: db}, nil
}

// Save persists a receipt. Saving the same receipt twice is a no-op.
func (s *ReceiptStore) Save(ctx context.Context, r Receipt) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO receipts(receipt_id, payment_id, tx_hash, payer, payee, amount, currency, network, body)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ReceiptID, r.Payment.ID, normalizeTx(r.Payment.TxHash),
		r.Payment.From, r.Payment.To, r.Payment.Amount, r.Payment.Currency, r.Payment.Network,
		string(body),
	)
	if err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}
	return nil
}

// Get loads a receipt by its identifier.
func (s *ReceiptStore) Get(ctx context.Context, receiptID string) (Receipt, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM receipts WHERE receipt_id = ?", receiptID,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return Receipt{}, fmt.Errorf("receipt %s not found", receiptID)
	}
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to load receipt: %w", err)
	}

	var r Receipt
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return Receipt{}, fmt.Errorf("failed to decode receipt: %w", err)
	}
	return r, nil
}

// GetByTx loads a receipt by its main transaction hash.
func (s *ReceiptStore) GetByTx(ctx context.Context, txHash string) (Receipt, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM receipts WHERE tx_hash = ? ORDER BY created_at LIMIT 1", normalizeTx(txHash),
	).Scan(&body)
	if err == sql.ErrNoRows {
		return Receipt{}, fmt.Errorf("no receipt for tx %s", txHash)
	}
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to load receipt: %w", err)
	}

	var r Receipt
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return Receipt{}, fmt.Errorf("failed to decode receipt: %w", err)
	}
	return r, nil
}

// MarkVerified records that a transaction hash passed verification.
func (s *ReceiptStore) MarkVerified(ctx context.Context, txHash, paymentID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO verified_payments(tx_hash, payment_id) VALUES (?, ?)",
		normalizeTx(txHash), paymentID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark payment verified: %w", err)
	}
	return nil
}

// IsVerified reports whether a transaction hash was previously verified.
func (s *ReceiptStore) IsVerified(ctx context.Context, txHash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM verified_payments WHERE tx_hash = ? LIMIT 1", normalizeTx(txHash),
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close closes the underlying database.
func (s *ReceiptStore) Close() error {
	return s.db.Close()
}
