package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crescendo-labs/music-school-api/internal/models"
	"github.com/crescendo-labs/music-school-api/internal/repository"
	appErrors "github.com/crescendo-labs/music-school-api/pkg/errors"
	"github.com/crescendo-labs/music-school-api/pkg/payment"
)

type mockSelectionRepo struct {
	mu         sync.Mutex
	selections map[string]models.Selection
	created    int
}

func (m *mockSelectionRepo) FindByID(ctx context.Context, id string) (*models.Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.selections[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSelectionRepo) FindByClassAndEmail(ctx context.Context, classID, email string) (*models.Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.selections {
		if s.ClassID == classID && s.UserEmail == email {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSelectionRepo) Create(ctx context.Context, selection *models.Selection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selections == nil {
		m.selections = make(map[string]models.Selection)
	}
	if selection.ID == "" {
		selection.ID = "generated"
	}
	m.selections[selection.ID] = *selection
	m.created++
	return nil
}

func (m *mockSelectionRepo) ListByEmail(ctx context.Context, email string, status models.SelectionStatus) ([]models.SelectionDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SelectionDetail
	for _, s := range m.selections {
		if s.UserEmail != email {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		out = append(out, models.SelectionDetail{Selection: s})
	}
	return out, nil
}

func (m *mockSelectionRepo) DeleteOwned(ctx context.Context, id, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.selections[id]
	if !ok || s.UserEmail != email || s.Status != models.SelectionStatusSelected {
		return sql.ErrNoRows
	}
	delete(m.selections, id)
	return nil
}

type mockPaymentReader struct {
	bySelection map[string]models.Payment
	byID        map[string]models.PaymentDetail
	history     []models.PaymentDetail
}

func (m *mockPaymentReader) FindByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	if p, ok := m.byID[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentReader) FindBySelectionID(ctx context.Context, selectionID string) (*models.Payment, error) {
	if p, ok := m.bySelection[selectionID]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentReader) ListByEmail(ctx context.Context, email string) ([]models.PaymentDetail, error) {
	return m.history, nil
}

// mockEnrollmentWriter mimics the transactional confirm: first call wins,
// later calls for the same selection report a non-pending selection.
type mockEnrollmentWriter struct {
	mu         sync.Mutex
	selections *mockSelectionRepo
	payments   *mockPaymentReader
	seats      map[string]int
	confirms   int
	err        error
}

func (m *mockEnrollmentWriter) ConfirmEnrollment(ctx context.Context, pay *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	sel, ok := m.selections.selections[pay.ClassSelectionID]
	if !ok || sel.Status != models.SelectionStatusSelected {
		return repository.ErrSelectionNotPending
	}
	if m.seats[sel.ClassID] <= 0 {
		return repository.ErrNoSeats
	}

	m.seats[sel.ClassID]--
	now := time.Now().UTC()
	sel.Status = models.SelectionStatusEnrolled
	sel.EnrolledAt = &now
	m.selections.selections[sel.ID] = sel

	if pay.ID == "" {
		pay.ID = "pay-generated"
	}
	pay.CreatedAt = now
	if m.payments.bySelection == nil {
		m.payments.bySelection = make(map[string]models.Payment)
	}
	m.payments.bySelection[sel.ID] = *pay
	m.confirms++
	return nil
}

type mockClassReader struct {
	classes map[string]models.Class
}

func (m *mockClassReader) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type mockGateway struct {
	lastAmount int64
	err        error
}

func (m *mockGateway) CreateIntent(ctx context.Context, amount int64) (*payment.Intent, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastAmount = amount
	return &payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Amount: amount}, nil
}

type countingMetrics struct {
	mu          sync.Mutex
	enrollments int
	volume      int64
}

func (m *countingMetrics) RecordEnrollment(amountCents int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments++
	m.volume += amountCents
}

type enrollmentFixture struct {
	svc        *EnrollmentService
	selections *mockSelectionRepo
	payments   *mockPaymentReader
	writer     *mockEnrollmentWriter
	classes    *mockClassReader
	gateway    *mockGateway
	metrics    *countingMetrics
}

func newEnrollmentFixture() *enrollmentFixture {
	selections := &mockSelectionRepo{selections: make(map[string]models.Selection)}
	payments := &mockPaymentReader{}
	classes := &mockClassReader{classes: map[string]models.Class{
		"c1": {ID: "c1", Name: "Jazz Piano", PriceCents: 12500, AvailableSeats: 1, Status: models.ClassStatusApproved},
		"c2": {ID: "c2", Name: "Unreviewed", PriceCents: 5000, Status: models.ClassStatusPending},
	}}
	writer := &mockEnrollmentWriter{
		selections: selections,
		payments:   payments,
		seats:      map[string]int{"c1": 1},
	}
	gateway := &mockGateway{}
	metrics := &countingMetrics{}
	svc := NewEnrollmentService(selections, payments, writer, classes, gateway, metrics, validator.New(), zap.NewNop())
	return &enrollmentFixture{svc: svc, selections: selections, payments: payments, writer: writer, classes: classes, gateway: gateway, metrics: metrics}
}

func (f *enrollmentFixture) seedSelection(id, classID, email string) {
	f.selections.selections[id] = models.Selection{
		ID:        id,
		ClassID:   classID,
		UserEmail: email,
		Status:    models.SelectionStatusSelected,
		CreatedAt: time.Now().UTC(),
	}
}

func TestEnrollmentServiceCreateSelection(t *testing.T) {
	f := newEnrollmentFixture()

	selection, created, err := f.svc.CreateSelection(context.Background(), "c1", "student@example.com")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.SelectionStatusSelected, selection.Status)

	// repeating the selection is a no-op
	again, created, err := f.svc.CreateSelection(context.Background(), "c1", "student@example.com")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, selection.ID, again.ID)
	assert.Equal(t, 1, f.selections.created)
}

func TestEnrollmentServiceCreateSelectionUnknownClass(t *testing.T) {
	f := newEnrollmentFixture()

	_, _, err := f.svc.CreateSelection(context.Background(), "missing", "student@example.com")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceCreateSelectionUnapprovedClass(t *testing.T) {
	f := newEnrollmentFixture()

	_, _, err := f.svc.CreateSelection(context.Background(), "c2", "student@example.com")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceCreatePaymentIntent(t *testing.T) {
	f := newEnrollmentFixture()

	intent, err := f.svc.CreatePaymentIntent(context.Background(), CreateIntentRequest{Price: 12500})
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, int64(12500), f.gateway.lastAmount)
}

func TestEnrollmentServiceCreatePaymentIntentRejectsNonPositivePrice(t *testing.T) {
	f := newEnrollmentFixture()

	_, err := f.svc.CreatePaymentIntent(context.Background(), CreateIntentRequest{Price: 0})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceCreatePaymentIntentGatewayFailure(t *testing.T) {
	f := newEnrollmentFixture()
	f.gateway.err = errors.New("stripe unavailable")

	_, err := f.svc.CreatePaymentIntent(context.Background(), CreateIntentRequest{Price: 100})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceConfirmPayment(t *testing.T) {
	f := newEnrollmentFixture()
	f.seedSelection("s1", "c1", "student@example.com")

	pay, enrolled, err := f.svc.ConfirmPayment(context.Background(), "s1", ConfirmPaymentRequest{TransactionID: "txn_1"})
	require.NoError(t, err)
	assert.True(t, enrolled)
	assert.Equal(t, int64(12500), pay.AmountCents)
	assert.Equal(t, "txn_1", pay.TransactionID)
	assert.Equal(t, 0, f.writer.seats["c1"])
	assert.Equal(t, 1, f.metrics.enrollments)
	assert.Equal(t, int64(12500), f.metrics.volume)
}

func TestEnrollmentServiceConfirmPaymentIsIdempotent(t *testing.T) {
	f := newEnrollmentFixture()
	f.seedSelection("s1", "c1", "student@example.com")

	first, enrolled, err := f.svc.ConfirmPayment(context.Background(), "s1", ConfirmPaymentRequest{TransactionID: "txn_1"})
	require.NoError(t, err)
	require.True(t, enrolled)

	second, enrolled, err := f.svc.ConfirmPayment(context.Background(), "s1", ConfirmPaymentRequest{TransactionID: "txn_2"})
	require.NoError(t, err)
	assert.False(t, enrolled)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "txn_1", second.TransactionID)
	assert.Equal(t, 1, f.writer.confirms)
	assert.Equal(t, 1, f.metrics.enrollments)
}

func TestEnrollmentServiceConfirmPaymentCapacityExceeded(t *testing.T) {
	f := newEnrollmentFixture()
	f.writer.seats["c1"] = 0
	f.seedSelection("s1", "c1", "student@example.com")

	_, _, err := f.svc.ConfirmPayment(context.Background(), "s1", ConfirmPaymentRequest{TransactionID: "txn_1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceConfirmPaymentConcurrent(t *testing.T) {
	f := newEnrollmentFixture()
	f.seedSelection("s1", "c1", "student@example.com")

	const callers = 8
	var wg sync.WaitGroup
	results := make([]bool, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, enrolled, err := f.svc.ConfirmPayment(context.Background(), "s1", ConfirmPaymentRequest{TransactionID: "txn_1"})
			results[i] = enrolled
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	wins := 0
	for _, enrolled := range results {
		if enrolled {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, f.writer.confirms)
	assert.Equal(t, 0, f.writer.seats["c1"])
}

func TestEnrollmentServiceConfirmPaymentMissingTransaction(t *testing.T) {
	f := newEnrollmentFixture()

	_, _, err := f.svc.ConfirmPayment(context.Background(), "s1", ConfirmPaymentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceRemoveSelection(t *testing.T) {
	f := newEnrollmentFixture()
	f.seedSelection("s1", "c1", "student@example.com")

	// only the owner can drop a selection
	err := f.svc.RemoveSelection(context.Background(), "s1", "other@example.com")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, f.svc.RemoveSelection(context.Background(), "s1", "student@example.com"))
}

func TestEnrollmentServiceEnrolledClasses(t *testing.T) {
	f := newEnrollmentFixture()
	f.seedSelection("s1", "c1", "student@example.com")
	f.seedSelection("s2", "c1", "student@example.com")

	_, enrolled, err := f.svc.ConfirmPayment(context.Background(), "s1", ConfirmPaymentRequest{TransactionID: "txn_1"})
	require.NoError(t, err)
	require.True(t, enrolled)

	classes, err := f.svc.EnrolledClasses(context.Background(), "student@example.com")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "s1", classes[0].ID)

	pending, err := f.svc.Selections(context.Background(), "student@example.com")
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestEnrollmentServiceReceiptOwnerOnly(t *testing.T) {
	f := newEnrollmentFixture()
	f.payments.byID = map[string]models.PaymentDetail{
		"p1": {
			Payment: models.Payment{
				ID:               "p1",
				Email:            "student@example.com",
				AmountCents:      12500,
				ClassSelectionID: "s1",
				TransactionID:    "txn_1",
				CreatedAt:        time.Now().UTC(),
			},
			ClassName: "Jazz Piano",
		},
	}

	raw, err := f.svc.Receipt(context.Background(), "p1", "student@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	_, err = f.svc.Receipt(context.Background(), "p1", "other@example.com")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceExportPaymentHistory(t *testing.T) {
	f := newEnrollmentFixture()
	f.payments.history = []models.PaymentDetail{
		{
			Payment: models.Payment{
				ID:            "p1",
				Email:         "student@example.com",
				AmountCents:   12500,
				TransactionID: "txn_1",
				CreatedAt:     time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
			},
			ClassName: "Jazz Piano",
		},
	}

	raw, err := f.svc.ExportPaymentHistory(context.Background(), "student@example.com")
	require.NoError(t, err)
	csv := string(raw)
	assert.Contains(t, csv, "Jazz Piano")
	assert.Contains(t, csv, "$125.00")
	assert.Contains(t, csv, "txn_1")
}
