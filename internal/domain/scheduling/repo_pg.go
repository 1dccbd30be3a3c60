package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mamacare/clinic/internal/domain/patient"
	"github.com/mamacare/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const apptSelect = `SELECT a.id, a.patient_id, a.appointment_date, to_char(a.appointment_time, 'HH24:MI'),
	a.purpose, a.notes, a.doctor, a.status, a.created_at, p.full_name
	FROM appointment a JOIN patient p ON p.id = a.patient_id`

func (r *repoPG) scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.Date, &a.Time, &a.Purpose, &a.Notes, &a.Doctor,
		&a.Status, &a.CreatedAt, &a.PatientName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, appointment_date, appointment_time, purpose, notes, doctor, status)
		VALUES ($1, $2, $3, $4::time, $5, $6, $7, $8)
		RETURNING created_at`,
		a.ID, a.PatientID, a.Date, a.Time, a.Purpose, a.Notes, a.Doctor, a.Status,
	).Scan(&a.CreatedAt)
	return mapFKError(err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scanAppt(r.conn(ctx).QueryRow(ctx, apptSelect+` WHERE a.id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET patient_id=$2, appointment_date=$3, appointment_time=$4::time,
			purpose=$5, notes=$6, doctor=$7, status=$8
		WHERE id = $1`,
		a.ID, a.PatientID, a.Date, a.Time, a.Purpose, a.Notes, a.Doctor, a.Status)
	if err != nil {
		return mapFKError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, q string, limit, offset int) ([]*Appointment, int, error) {
	where := ""
	args := []interface{}{}
	if q != "" {
		where = ` WHERE p.full_name ILIKE $1 OR a.doctor ILIKE $1 OR a.purpose ILIKE $1 OR a.status ILIKE $1`
		args = append(args, "%"+q+"%")
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM appointment a JOIN patient p ON p.id = a.patient_id` + where
	if err := r.conn(ctx).QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := fmt.Sprintf(`%s%s ORDER BY a.appointment_date, a.appointment_time LIMIT $%d OFFSET $%d`,
		apptSelect, where, n+1, n+2)
	items, err := r.query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return r.query(ctx, apptSelect+` WHERE a.patient_id = $1 ORDER BY a.appointment_date, a.appointment_time`, patientID)
}

func (r *repoPG) ListAll(ctx context.Context) ([]*Appointment, error) {
	return r.query(ctx, apptSelect+` ORDER BY a.appointment_date, a.appointment_time`)
}

func (r *repoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func mapFKError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return patient.ErrNotFound
	}
	return err
}
