package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mamacare/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, full_name, phone, email, age, county, ward, lmp, expected_due_date,
	blood_type, gravida, parity, primary_reason, medical_history, risk_level,
	emergency_contact_name, emergency_contact_relation, emergency_contact_phone,
	created_at, updated_at`

func (r *repoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FullName, &p.Phone, &p.Email, &p.Age, &p.County, &p.Ward, &p.LMP, &p.ExpectedDueDate,
		&p.BloodType, &p.Gravida, &p.Parity, &p.PrimaryReason, &p.MedicalHistory, &p.RiskLevel,
		&p.EmergencyContactName, &p.EmergencyContactRelation, &p.EmergencyContactPhone,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, full_name, phone, email, age, county, ward, lmp, expected_due_date,
			blood_type, gravida, parity, primary_reason, medical_history, risk_level,
			emergency_contact_name, emergency_contact_relation, emergency_contact_phone)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING created_at, updated_at`,
		p.ID, p.FullName, p.Phone, p.Email, p.Age, p.County, p.Ward, p.LMP, p.ExpectedDueDate,
		p.BloodType, p.Gravida, p.Parity, p.PrimaryReason, p.MedicalHistory, p.RiskLevel,
		p.EmergencyContactName, p.EmergencyContactRelation, p.EmergencyContactPhone,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET full_name=$2, phone=$3, email=$4, age=$5, county=$6, ward=$7, lmp=$8,
			expected_due_date=$9, blood_type=$10, gravida=$11, parity=$12, primary_reason=$13,
			medical_history=$14, risk_level=$15, emergency_contact_name=$16,
			emergency_contact_relation=$17, emergency_contact_phone=$18, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		p.ID, p.FullName, p.Phone, p.Email, p.Age, p.County, p.Ward, p.LMP,
		p.ExpectedDueDate, p.BloodType, p.Gravida, p.Parity, p.PrimaryReason,
		p.MedicalHistory, p.RiskLevel, p.EmergencyContactName,
		p.EmergencyContactRelation, p.EmergencyContactPhone,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes the patient. Appointments, deliveries, discharges and
// transactions go with it through ON DELETE CASCADE.
func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error) {
	where := ""
	args := []interface{}{}
	if q != "" {
		where = ` WHERE full_name ILIKE $1 OR phone ILIKE $1`
		args = append(args, "%"+q+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM patient%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		patientCols, where, n+1, n+2)
	items, err := r.query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListAll(ctx context.Context) ([]*Patient, error) {
	return r.query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY created_at DESC`)
}

func (r *repoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
