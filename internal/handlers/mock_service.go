package handlers

import (
	"context"
	"net/http"

	"smart_greenhouse/internal/models"
	"smart_greenhouse/internal/realtime"
	"smart_greenhouse/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastParseToken string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockIngestion struct {
	reading   *models.SensorReading
	ingestErr error
	list      []models.SensorReading
	listErr   error

	lastGreenhouse string
	lastParams     service.ReadingParams
}

func (m *mockIngestion) Ingest(ctx context.Context, greenhouseID string, p service.ReadingParams) (*models.SensorReading, error) {
	m.lastGreenhouse = greenhouseID
	m.lastParams = p
	return m.reading, m.ingestErr
}

func (m *mockIngestion) Readings(ctx context.Context, greenhouseID string, limit int) ([]models.SensorReading, error) {
	return m.list, m.listErr
}

type mockPump struct {
	op          *models.PumpOperation
	activateErr error
	stopOp      *models.PumpOperation
	stopErr     error
	status      *service.PumpStatus
	statusErr   error
	history     []models.PumpOperation

	lastParams service.ActivationParams
}

func (m *mockPump) Activate(ctx context.Context, greenhouseID string, p service.ActivationParams) (*models.PumpOperation, error) {
	m.lastParams = p
	return m.op, m.activateErr
}

func (m *mockPump) Stop(ctx context.Context, greenhouseID string) (*models.PumpOperation, error) {
	return m.stopOp, m.stopErr
}

func (m *mockPump) Status(ctx context.Context, greenhouseID string) (*service.PumpStatus, error) {
	return m.status, m.statusErr
}

func (m *mockPump) History(ctx context.Context, greenhouseID string, limit int) ([]models.PumpOperation, error) {
	return m.history, nil
}

type mockIrrigation struct {
	confirmed  *models.IrrigationEvent
	confirmErr error
	pending    []models.IrrigationEvent
	recent     []models.IrrigationEvent

	lastEventID string
	lastUserID  string
}

func (m *mockIrrigation) Confirm(ctx context.Context, eventID, userID string, p service.ConfirmParams) (*models.IrrigationEvent, error) {
	m.lastEventID = eventID
	m.lastUserID = userID
	return m.confirmed, m.confirmErr
}

func (m *mockIrrigation) Pending(ctx context.Context, limit int) ([]models.IrrigationEvent, error) {
	return m.pending, nil
}

func (m *mockIrrigation) Recent(ctx context.Context, greenhouseID string, limit int) ([]models.IrrigationEvent, error) {
	return m.recent, nil
}

type mockAutomation struct {
	reportEvt  *models.IrrigationEvent
	reportErr  error
	predictRes service.DispatchResult
	predictErr error
}

func (m *mockAutomation) Report(ctx context.Context, greenhouseID string, p service.ReportParams) (*models.IrrigationEvent, error) {
	return m.reportEvt, m.reportErr
}

func (m *mockAutomation) Predict(ctx context.Context, greenhouseID string, p service.PredictionParams) (service.DispatchResult, error) {
	return m.predictRes, m.predictErr
}

type mockNotifications struct {
	list       []models.Notification
	listErr    error
	markErr    error
	markAllErr error
	deleteErr  error

	lastMarkedID  string
	lastDeletedID string
}

func (m *mockNotifications) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	return m.list, m.listErr
}

func (m *mockNotifications) MarkRead(ctx context.Context, id, userID string) error {
	m.lastMarkedID = id
	return m.markErr
}

func (m *mockNotifications) MarkAllRead(ctx context.Context, userID string) error {
	return m.markAllErr
}

func (m *mockNotifications) Delete(ctx context.Context, id, userID string) error {
	m.lastDeletedID = id
	return m.deleteErr
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, realtime.NewHub(nil), nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
