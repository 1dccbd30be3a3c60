package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mamacare/clinic/internal/domain/patient"
	"github.com/mamacare/clinic/internal/platform/db"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const txnCols = `t.id, t.patient_id, t.amount, t.transaction_id, t.status, t.created_at, p.full_name`

func (r *repoPG) scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.PatientID, &t.Amount, &t.TransactionID, &t.Status, &t.CreatedAt, &t.PatientName)
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *Transaction) error {
	t.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO payment_transaction (id, patient_id, amount, transaction_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		t.ID, t.PatientID, t.Amount, t.TransactionID, t.Status,
	).Scan(&t.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicateTransaction
		case pgForeignKeyViolation:
			return patient.ErrNotFound
		}
	}
	return err
}

func (r *repoPG) HasSuccessful(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payment_transaction WHERE patient_id = $1 AND status = $2
		)`, patientID, StatusSuccess).Scan(&exists)
	return exists, err
}

func (r *repoPG) ListRecent(ctx context.Context, limit int) ([]*Transaction, error) {
	return r.query(ctx, `SELECT `+txnCols+` FROM payment_transaction t
		JOIN patient p ON p.id = t.patient_id
		ORDER BY t.created_at DESC LIMIT $1`, limit)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Transaction, error) {
	return r.query(ctx, `SELECT `+txnCols+` FROM payment_transaction t
		JOIN patient p ON p.id = t.patient_id
		WHERE t.patient_id = $1
		ORDER BY t.created_at DESC`, patientID)
}

func (r *repoPG) ListAll(ctx context.Context) ([]*Transaction, error) {
	return r.query(ctx, `SELECT `+txnCols+` FROM payment_transaction t
		JOIN patient p ON p.id = t.patient_id
		ORDER BY t.created_at DESC`)
}

func (r *repoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Transaction, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
