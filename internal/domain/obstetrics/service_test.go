package obstetrics

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mamacare/clinic/internal/domain/patient"
)

// -- Mock Delivery Repo --

type mockDeliveryRepo struct {
	store map[uuid.UUID]*Delivery
}

func newMockDeliveryRepo() *mockDeliveryRepo {
	return &mockDeliveryRepo{store: make(map[uuid.UUID]*Delivery)}
}

func (m *mockDeliveryRepo) Create(_ context.Context, d *Delivery) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.store[d.ID] = d
	return nil
}

func (m *mockDeliveryRepo) GetByID(_ context.Context, id uuid.UUID) (*Delivery, error) {
	d, ok := m.store[id]
	if !ok {
		return nil, ErrDeliveryNotFound
	}
	return d, nil
}

func (m *mockDeliveryRepo) Update(_ context.Context, d *Delivery) error {
	if _, ok := m.store[d.ID]; !ok {
		return ErrDeliveryNotFound
	}
	m.store[d.ID] = d
	return nil
}

func (m *mockDeliveryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.store[id]; !ok {
		return ErrDeliveryNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockDeliveryRepo) List(_ context.Context, _ string, _, _ int) ([]*Delivery, int, error) {
	var r []*Delivery
	for _, d := range m.store {
		r = append(r, d)
	}
	return r, len(r), nil
}

func (m *mockDeliveryRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Delivery, error) {
	var r []*Delivery
	for _, d := range m.store {
		if d.PatientID == patientID {
			r = append(r, d)
		}
	}
	return r, nil
}

func (m *mockDeliveryRepo) ListAll(ctx context.Context) ([]*Delivery, error) {
	r, _, err := m.List(ctx, "", 0, 0)
	return r, err
}

// -- Mock Discharge Repo --

type mockDischargeRepo struct {
	store map[uuid.UUID]*Discharge
}

func newMockDischargeRepo() *mockDischargeRepo {
	return &mockDischargeRepo{store: make(map[uuid.UUID]*Discharge)}
}

func (m *mockDischargeRepo) Create(_ context.Context, d *Discharge) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.store[d.ID] = d
	return nil
}

func (m *mockDischargeRepo) GetByID(_ context.Context, id uuid.UUID) (*Discharge, error) {
	d, ok := m.store[id]
	if !ok {
		return nil, ErrDischargeNotFound
	}
	return d, nil
}

func (m *mockDischargeRepo) Update(_ context.Context, d *Discharge) error {
	if _, ok := m.store[d.ID]; !ok {
		return ErrDischargeNotFound
	}
	m.store[d.ID] = d
	return nil
}

func (m *mockDischargeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.store[id]; !ok {
		return ErrDischargeNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockDischargeRepo) List(_ context.Context, _ string, _, _ int) ([]*Discharge, int, error) {
	var r []*Discharge
	for _, d := range m.store {
		r = append(r, d)
	}
	return r, len(r), nil
}

func (m *mockDischargeRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Discharge, error) {
	var r []*Discharge
	for _, d := range m.store {
		if d.PatientID == patientID {
			r = append(r, d)
		}
	}
	return r, nil
}

func (m *mockDischargeRepo) ListAll(ctx context.Context) ([]*Discharge, error) {
	r, _, err := m.List(ctx, "", 0, 0)
	return r, err
}

// -- Collaborators --

type mockPatients struct {
	store map[uuid.UUID]*patient.Patient
}

func (m *mockPatients) GetPatient(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return p, nil
}

type mockBilling struct {
	paid map[uuid.UUID]bool
	err  error
}

func (m *mockBilling) CheckBillingCleared(_ context.Context, id uuid.UUID) (bool, error) {
	return m.paid[id], m.err
}

type fakeTransactor struct {
	calls int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type mockGate struct {
	cleared, blocked int
}

func (m *mockGate) ObserveDischargeGate(cleared bool) {
	if cleared {
		m.cleared++
	} else {
		m.blocked++
	}
}

type testEnv struct {
	svc        *Service
	deliveries *mockDeliveryRepo
	discharges *mockDischargeRepo
	patients   *mockPatients
	billing    *mockBilling
	tx         *fakeTransactor
	gate       *mockGate
	logs       *bytes.Buffer
}

func newTestEnv() *testEnv {
	env := &testEnv{
		deliveries: newMockDeliveryRepo(),
		discharges: newMockDischargeRepo(),
		patients:   &mockPatients{store: make(map[uuid.UUID]*patient.Patient)},
		billing:    &mockBilling{paid: make(map[uuid.UUID]bool)},
		tx:         &fakeTransactor{},
		gate:       &mockGate{},
		logs:       &bytes.Buffer{},
	}
	env.svc = NewService(env.deliveries, env.discharges, env.patients, env.billing, env.tx, env.gate, zerolog.New(env.logs))
	return env
}

func newTestService() *Service {
	return newTestEnv().svc
}

func (env *testEnv) addPatient(due *time.Time) *patient.Patient {
	p := &patient.Patient{ID: uuid.New(), FullName: "Amina Wanjiru", ExpectedDueDate: due}
	env.patients.store[p.ID] = p
	return p
}

func validDelivery(patientID uuid.UUID) *Delivery {
	return &Delivery{
		PatientID:    patientID,
		DeliveryDate: date(2025, 6, 3),
		DeliveryType: DeliveryNormal,
	}
}

func validDischarge(patientID uuid.UUID) *Discharge {
	return &Discharge{
		PatientID:     patientID,
		DischargeDate: date(2025, 6, 5),
		Condition:     ConditionGood,
	}
}

// -- Delivery tests --

func TestCreateDelivery_InheritsPatientDueDate(t *testing.T) {
	env := newTestEnv()
	p := env.addPatient(ptrTime(date(2025, 6, 1)))
	d := validDelivery(p.ID)

	if err := env.svc.CreateDelivery(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.EDD == nil || !d.EDD.Equal(date(2025, 6, 1)) {
		t.Errorf("expected edd 2025-06-01, got %v", d.EDD)
	}
}

func TestCreateDelivery_ExplicitEDDWins(t *testing.T) {
	env := newTestEnv()
	p := env.addPatient(ptrTime(date(2025, 6, 1)))
	d := validDelivery(p.ID)
	d.EDD = ptrTime(date(2025, 5, 1))

	if err := env.svc.CreateDelivery(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.EDD.Equal(date(2025, 5, 1)) {
		t.Errorf("expected explicit edd kept, got %v", d.EDD)
	}
}

func TestCreateDelivery_NoDueDateAnywhere(t *testing.T) {
	env := newTestEnv()
	p := env.addPatient(nil)
	d := validDelivery(p.ID)

	if err := env.svc.CreateDelivery(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.EDD != nil {
		t.Errorf("expected edd to stay blank, got %v", d.EDD)
	}
}

func TestUpdateDelivery_ClearedEDDReinherits(t *testing.T) {
	env := newTestEnv()
	p := env.addPatient(ptrTime(date(2025, 6, 1)))
	d := validDelivery(p.ID)
	d.EDD = ptrTime(date(2025, 5, 1))
	env.svc.CreateDelivery(context.Background(), d)

	upd := validDelivery(p.ID)
	upd.ID = d.ID
	if err := env.svc.UpdateDelivery(context.Background(), upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.EDD == nil || !upd.EDD.Equal(date(2025, 6, 1)) {
		t.Errorf("expected patient due date after clearing edd, got %v", upd.EDD)
	}
}

func TestCreateDelivery_UnknownPatient(t *testing.T) {
	env := newTestEnv()
	err := env.svc.CreateDelivery(context.Background(), validDelivery(uuid.New()))
	if !errors.Is(err, patient.ErrNotFound) {
		t.Errorf("expected patient.ErrNotFound, got %v", err)
	}
	if len(env.deliveries.store) != 0 {
		t.Error("expected nothing stored")
	}
}

func TestCreateDelivery_Validation(t *testing.T) {
	env := newTestEnv()
	p := env.addPatient(nil)
	bad := BloodGroup("Z")
	gender := BabyGender("Unknown")
	heavy := decimal.NewFromInt(100)
	zero := decimal.Zero
	clock := "noon"
	shortHour := "9:30"

	tests := map[string]func(d *Delivery){
		"missing patient":   func(d *Delivery) { d.PatientID = uuid.Nil },
		"missing date":      func(d *Delivery) { d.DeliveryDate = time.Time{} },
		"bad type":          func(d *Delivery) { d.DeliveryType = "Water Birth" },
		"missing type":      func(d *Delivery) { d.DeliveryType = "" },
		"bad blood group":   func(d *Delivery) { d.BloodGroup = &bad },
		"bad gender":        func(d *Delivery) { d.BabyGender = &gender },
		"weight too large":  func(d *Delivery) { d.BabyWeight = &heavy },
		"weight zero":       func(d *Delivery) { d.BabyWeight = &zero },
		"bad delivery time": func(d *Delivery) { d.DeliveryTime = &clock },
		"single digit hour": func(d *Delivery) { d.DeliveryTime = &shortHour },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			d := validDelivery(p.ID)
			mutate(d)
			if err := env.svc.CreateDelivery(context.Background(), d); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestCreateDelivery_RoundsWeight(t *testing.T) {
	env := newTestEnv()
	p := env.addPatient(nil)
	d := validDelivery(p.ID)
	w := decimal.RequireFromString("3.456")
	d.BabyWeight = &w

	if err := env.svc.CreateDelivery(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.BabyWeight.Equal(decimal.RequireFromString("3.46")) {
		t.Errorf("expected 3.46, got %s", d.BabyWeight)
	}
}

// -- Discharge gate tests --

func TestCreateDischarge_BlockedWithoutPayment(t *testing.T) {
	env := newTestEnv()
	p := env.addPatient(nil)
	notes := "Stable, review in 2 weeks"
	d := validDischarge(p.ID)
	d.Notes = &notes

	err := env.svc.CreateDischarge(context.Background(), d)

	var blocked *DischargeBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected DischargeBlockedError, got %v", err)
	}
	if blocked.PatientID != p.ID || blocked.PatientName != p.FullName {
		t.Errorf("expected blocked patient %s, got %+v", p.ID, blocked)
	}
	if blocked.Discharge == nil || blocked.Discharge.Notes == nil || *blocked.Discharge.Notes != notes {
		t.Error("expected submitted discharge preserved on the error")
	}
	if len(env.discharges.store) != 0 {
		t.Error("expected no discharge persisted")
	}
	if env.gate.blocked != 1 || env.gate.cleared != 0 {
		t.Errorf("expected one blocked observation, got %+v", env.gate)
	}
	if !bytes.Contains(env.logs.Bytes(), []byte(`"level":"info"`)) {
		t.Errorf("expected info-level log, got %s", env.logs.String())
	}
	if bytes.Contains(env.logs.Bytes(), []byte(`"level":"error"`)) {
		t.Error("gate rejection must not be logged as an error")
	}
}

func TestCreateDischarge_ClearedAfterPayment(t *testing.T) {
	env := newTestEnv()
	p := env.addPatient(nil)

	if err := env.svc.CreateDischarge(context.Background(), validDischarge(p.ID)); !errors.Is(err, ErrDischargeBlocked) {
		t.Fatalf("expected first attempt blocked, got %v", err)
	}

	env.billing.paid[p.ID] = true
	d := validDischarge(p.ID)
	if err := env.svc.CreateDischarge(context.Background(), d); err != nil {
		t.Fatalf("expected discharge after payment, got %v", err)
	}
	if _, ok := env.discharges.store[d.ID]; !ok {
		t.Error("expected discharge persisted")
	}
	if d.BillingStatus != BillingPendingClearance {
		t.Errorf("expected default billing status, got %s", d.BillingStatus)
	}
	if env.tx.calls != 2 {
		t.Errorf("expected each attempt in its own transaction, got %d", env.tx.calls)
	}
	if env.gate.cleared != 1 || env.gate.blocked != 1 {
		t.Errorf("unexpected gate observations %+v", env.gate)
	}
}

func TestCreateDischarge_UnknownPatient(t *testing.T) {
	env := newTestEnv()
	err := env.svc.CreateDischarge(context.Background(), validDischarge(uuid.New()))
	if !errors.Is(err, patient.ErrNotFound) {
		t.Errorf("expected patient.ErrNotFound, got %v", err)
	}
	if env.gate.blocked+env.gate.cleared != 0 {
		t.Error("expected no gate observation for a missing patient")
	}
}

func TestCreateDischarge_BillingLookupFails(t *testing.T) {
	env := newTestEnv()
	p := env.addPatient(nil)
	env.billing.err = errors.New("connection reset")

	err := env.svc.CreateDischarge(context.Background(), validDischarge(p.ID))
	if err == nil || errors.Is(err, ErrDischargeBlocked) {
		t.Errorf("expected infrastructure error, got %v", err)
	}
	if len(env.discharges.store) != 0 {
		t.Error("expected no discharge persisted")
	}
}

func TestCreateDischarge_Validation(t *testing.T) {
	env := newTestEnv()
	p := env.addPatient(nil)
	env.billing.paid[p.ID] = true

	tests := map[string]func(d *Discharge){
		"missing patient":     func(d *Discharge) { d.PatientID = uuid.Nil },
		"missing date":        func(d *Discharge) { d.DischargeDate = time.Time{} },
		"bad condition":       func(d *Discharge) { d.Condition = "Stable" },
		"bad billing status":  func(d *Discharge) { d.BillingStatus = "Paid" },
		"admitted after exit": func(d *Discharge) { d.AdmissionDate = ptrTime(date(2025, 6, 9)) },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			d := validDischarge(p.ID)
			mutate(d)
			if err := env.svc.CreateDischarge(context.Background(), d); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestUpdateDischarge_NotGated(t *testing.T) {
	env := newTestEnv()
	p := env.addPatient(nil)
	env.billing.paid[p.ID] = true
	d := validDischarge(p.ID)
	if err := env.svc.CreateDischarge(context.Background(), d); err != nil {
		t.Fatalf("create: %v", err)
	}

	env.billing.paid[p.ID] = false
	upd := validDischarge(p.ID)
	upd.ID = d.ID
	upd.Condition = ConditionFair
	if err := env.svc.UpdateDischarge(context.Background(), upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	if env.discharges.store[d.ID].Condition != ConditionFair {
		t.Error("expected condition updated")
	}
}

func TestDeleteDischarge_NotFound(t *testing.T) {
	env := newTestEnv()
	if err := env.svc.DeleteDischarge(context.Background(), uuid.New()); !errors.Is(err, ErrDischargeNotFound) {
		t.Errorf("expected ErrDischargeNotFound, got %v", err)
	}
}
