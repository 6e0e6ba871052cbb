package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/crescendo-labs/music-school-api/internal/models"
	"github.com/crescendo-labs/music-school-api/internal/service"
	"github.com/crescendo-labs/music-school-api/pkg/payment"
)

type stubSelectionRepo struct {
	selections map[string]models.Selection
}

func (s *stubSelectionRepo) FindByID(ctx context.Context, id string) (*models.Selection, error) {
	if sel, ok := s.selections[id]; ok {
		return &sel, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubSelectionRepo) FindByClassAndEmail(ctx context.Context, classID, email string) (*models.Selection, error) {
	for _, sel := range s.selections {
		if sel.ClassID == classID && sel.UserEmail == email {
			return &sel, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubSelectionRepo) Create(ctx context.Context, selection *models.Selection) error {
	if s.selections == nil {
		s.selections = make(map[string]models.Selection)
	}
	if selection.ID == "" {
		selection.ID = "generated"
	}
	s.selections[selection.ID] = *selection
	return nil
}

func (s *stubSelectionRepo) ListByEmail(ctx context.Context, email string, status models.SelectionStatus) ([]models.SelectionDetail, error) {
	var out []models.SelectionDetail
	for _, sel := range s.selections {
		if sel.UserEmail == email {
			out = append(out, models.SelectionDetail{Selection: sel})
		}
	}
	return out, nil
}

func (s *stubSelectionRepo) DeleteOwned(ctx context.Context, id, email string) error {
	sel, ok := s.selections[id]
	if !ok || sel.UserEmail != email {
		return sql.ErrNoRows
	}
	delete(s.selections, id)
	return nil
}

type stubPaymentReader struct{}

func (stubPaymentReader) FindByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	return nil, sql.ErrNoRows
}

func (stubPaymentReader) FindBySelectionID(ctx context.Context, selectionID string) (*models.Payment, error) {
	return nil, sql.ErrNoRows
}

func (stubPaymentReader) ListByEmail(ctx context.Context, email string) ([]models.PaymentDetail, error) {
	return nil, nil
}

type stubEnrollmentWriter struct{}

func (stubEnrollmentWriter) ConfirmEnrollment(ctx context.Context, pay *models.Payment) error {
	pay.ID = "pay-1"
	pay.CreatedAt = time.Now().UTC()
	return nil
}

type stubClassReader struct {
	classes map[string]models.Class
}

func (s *stubClassReader) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := s.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type stubGateway struct {
	err error
}

func (s *stubGateway) CreateIntent(ctx context.Context, amount int64) (*payment.Intent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Amount: amount}, nil
}

func enrollmentTestRouter(claimsEmail string) (*gin.Engine, *stubSelectionRepo) {
	gin.SetMode(gin.TestMode)
	selections := &stubSelectionRepo{selections: map[string]models.Selection{
		"s1": {ID: "s1", ClassID: "c1", UserEmail: "student@example.com", Status: models.SelectionStatusSelected},
	}}
	classes := &stubClassReader{classes: map[string]models.Class{
		"c1": {ID: "c1", Name: "Jazz Piano", PriceCents: 12500, AvailableSeats: 5, Status: models.ClassStatusApproved},
	}}
	svc := service.NewEnrollmentService(selections, stubPaymentReader{}, stubEnrollmentWriter{}, classes, &stubGateway{}, nil, nil, nil)
	h := NewEnrollmentHandler(svc)

	r := gin.New()
	group := r.Group("", setClaims(claimsEmail))
	group.GET("/selected-classes", h.ListSelections)
	group.POST("/selected-classes/:id", h.CreateSelection)
	group.DELETE("/selected-classes/:id", h.RemoveSelection)
	group.POST("/create-payment-intent", h.CreatePaymentIntent)
	group.GET("/payment-history", h.PaymentHistory)
	group.GET("/enrolled-classes", h.EnrolledClasses)
	return r, selections
}

func TestListSelectionsRejectsForeignEmail(t *testing.T) {
	r, _ := enrollmentTestRouter("student@example.com")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/selected-classes?email=other@example.com", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListSelectionsAllowsOwnEmail(t *testing.T) {
	r, _ := enrollmentTestRouter("student@example.com")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/selected-classes?email=student@example.com", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "s1")
}

func TestPaymentHistoryRejectsForeignEmail(t *testing.T) {
	r, _ := enrollmentTestRouter("student@example.com")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payment-history?email=other@example.com", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateSelectionUsesTokenIdentity(t *testing.T) {
	r, selections := enrollmentTestRouter("newcomer@example.com")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/selected-classes/c1", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	found := false
	for _, sel := range selections.selections {
		if sel.UserEmail == "newcomer@example.com" && sel.ClassID == "c1" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCreatePaymentIntentRejectsMalformedBody(t *testing.T) {
	r, _ := enrollmentTestRouter("student@example.com")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/create-payment-intent", strings.NewReader(`{"price":`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePaymentIntentReturnsClientSecret(t *testing.T) {
	r, _ := enrollmentTestRouter("student@example.com")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/create-payment-intent", strings.NewReader(`{"price":12500}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pi_1_secret")
}

func TestRemoveSelectionForeignOwnerIsNotFound(t *testing.T) {
	r, _ := enrollmentTestRouter("other@example.com")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/selected-classes/s1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
