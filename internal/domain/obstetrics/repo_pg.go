package obstetrics

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

func mapFKError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return patient.ErrNotFound
	}
	return err
}

// -- Delivery --

type deliveryRepoPG struct{ pool *pgxpool.Pool }

func NewDeliveryRepoPG(pool *pgxpool.Pool) DeliveryRepository {
	return &deliveryRepoPG{pool: pool}
}

func (r *deliveryRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const deliverySelect = `SELECT d.id, d.patient_id, d.blood_group, d.emergency_contact, d.edd, d.delivery_date,
	to_char(d.delivery_time, 'HH24:MI'), d.baby_gender, d.baby_weight, d.attending_physician,
	d.delivery_type, d.notes, d.created_at, p.full_name
	FROM delivery d JOIN patient p ON p.id = d.patient_id`

func (r *deliveryRepoPG) scanDelivery(row pgx.Row) (*Delivery, error) {
	var d Delivery
	err := row.Scan(&d.ID, &d.PatientID, &d.BloodGroup, &d.EmergencyContact, &d.EDD, &d.DeliveryDate,
		&d.DeliveryTime, &d.BabyGender, &d.BabyWeight, &d.AttendingPhysician,
		&d.DeliveryType, &d.Notes, &d.CreatedAt, &d.PatientName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDeliveryNotFound
	}
	return &d, err
}

func (r *deliveryRepoPG) Create(ctx context.Context, d *Delivery) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO delivery (id, patient_id, blood_group, emergency_contact, edd, delivery_date,
			delivery_time, baby_gender, baby_weight, attending_physician, delivery_type, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7::time, $8, $9, $10, $11, $12)
		RETURNING created_at`,
		d.ID, d.PatientID, d.BloodGroup, d.EmergencyContact, d.EDD, d.DeliveryDate,
		d.DeliveryTime, d.BabyGender, d.BabyWeight, d.AttendingPhysician, d.DeliveryType, d.Notes,
	).Scan(&d.CreatedAt)
	return mapFKError(err)
}

func (r *deliveryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Delivery, error) {
	return r.scanDelivery(r.conn(ctx).QueryRow(ctx, deliverySelect+` WHERE d.id = $1`, id))
}

func (r *deliveryRepoPG) Update(ctx context.Context, d *Delivery) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE delivery SET patient_id=$2, blood_group=$3, emergency_contact=$4, edd=$5,
			delivery_date=$6, delivery_time=$7::time, baby_gender=$8, baby_weight=$9,
			attending_physician=$10, delivery_type=$11, notes=$12
		WHERE id = $1`,
		d.ID, d.PatientID, d.BloodGroup, d.EmergencyContact, d.EDD, d.DeliveryDate,
		d.DeliveryTime, d.BabyGender, d.BabyWeight, d.AttendingPhysician, d.DeliveryType, d.Notes)
	if err != nil {
		return mapFKError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDeliveryNotFound
	}
	return nil
}

func (r *deliveryRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM delivery WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDeliveryNotFound
	}
	return nil
}

func (r *deliveryRepoPG) List(ctx context.Context, q string, limit, offset int) ([]*Delivery, int, error) {
	where := ""
	args := []interface{}{}
	if q != "" {
		where = ` WHERE p.full_name ILIKE $1 OR d.blood_group ILIKE $1 OR d.delivery_type ILIKE $1 OR d.notes ILIKE $1`
		args = append(args, "%"+q+"%")
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM delivery d JOIN patient p ON p.id = d.patient_id` + where
	if err := r.conn(ctx).QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := fmt.Sprintf(`%s%s ORDER BY d.delivery_date DESC, d.created_at DESC LIMIT $%d OFFSET $%d`,
		deliverySelect, where, n+1, n+2)
	items, err := r.query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *deliveryRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Delivery, error) {
	return r.query(ctx, deliverySelect+` WHERE d.patient_id = $1 ORDER BY d.delivery_date DESC`, patientID)
}

func (r *deliveryRepoPG) ListAll(ctx context.Context) ([]*Delivery, error) {
	return r.query(ctx, deliverySelect+` ORDER BY d.delivery_date DESC`)
}

func (r *deliveryRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Delivery, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Delivery
	for rows.Next() {
		d, err := r.scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// -- Discharge --

type dischargeRepoPG struct{ pool *pgxpool.Pool }

func NewDischargeRepoPG(pool *pgxpool.Pool) DischargeRepository {
	return &dischargeRepoPG{pool: pool}
}

func (r *dischargeRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const dischargeSelect = `SELECT d.id, d.patient_id, d.admission_date, d.discharge_date, d.discharged_by,
	d.condition, d.billing_status, d.medications, d.notes, d.created_at, p.full_name, p.phone
	FROM discharge d JOIN patient p ON p.id = d.patient_id`

func (r *dischargeRepoPG) scanDischarge(row pgx.Row) (*Discharge, error) {
	var d Discharge
	err := row.Scan(&d.ID, &d.PatientID, &d.AdmissionDate, &d.DischargeDate, &d.DischargedBy,
		&d.Condition, &d.BillingStatus, &d.Medications, &d.Notes, &d.CreatedAt, &d.PatientName, &d.PatientPhone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDischargeNotFound
	}
	return &d, err
}

func (r *dischargeRepoPG) Create(ctx context.Context, d *Discharge) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO discharge (id, patient_id, admission_date, discharge_date, discharged_by,
			condition, billing_status, medications, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		d.ID, d.PatientID, d.AdmissionDate, d.DischargeDate, d.DischargedBy,
		d.Condition, d.BillingStatus, d.Medications, d.Notes,
	).Scan(&d.CreatedAt)
	return mapFKError(err)
}

func (r *dischargeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Discharge, error) {
	return r.scanDischarge(r.conn(ctx).QueryRow(ctx, dischargeSelect+` WHERE d.id = $1`, id))
}

func (r *dischargeRepoPG) Update(ctx context.Context, d *Discharge) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE discharge SET patient_id=$2, admission_date=$3, discharge_date=$4, discharged_by=$5,
			condition=$6, billing_status=$7, medications=$8, notes=$9
		WHERE id = $1`,
		d.ID, d.PatientID, d.AdmissionDate, d.DischargeDate, d.DischargedBy,
		d.Condition, d.BillingStatus, d.Medications, d.Notes)
	if err != nil {
		return mapFKError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDischargeNotFound
	}
	return nil
}

func (r *dischargeRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM discharge WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDischargeNotFound
	}
	return nil
}

func (r *dischargeRepoPG) List(ctx context.Context, q string, limit, offset int) ([]*Discharge, int, error) {
	where := ""
	args := []interface{}{}
	if q != "" {
		where = ` WHERE p.full_name ILIKE $1 OR d.condition ILIKE $1 OR p.phone ILIKE $1`
		args = append(args, "%"+q+"%")
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM discharge d JOIN patient p ON p.id = d.patient_id` + where
	if err := r.conn(ctx).QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := fmt.Sprintf(`%s%s ORDER BY d.discharge_date DESC, d.created_at DESC LIMIT $%d OFFSET $%d`,
		dischargeSelect, where, n+1, n+2)
	items, err := r.query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *dischargeRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Discharge, error) {
	return r.query(ctx, dischargeSelect+` WHERE d.patient_id = $1 ORDER BY d.discharge_date DESC`, patientID)
}

func (r *dischargeRepoPG) ListAll(ctx context.Context) ([]*Discharge, error) {
	return r.query(ctx, dischargeSelect+` ORDER BY d.discharge_date DESC`)
}

func (r *dischargeRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Discharge, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Discharge
	for rows.Next() {
		d, err := r.scanDischarge(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
