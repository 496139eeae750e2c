package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"e-hrm/backend/internal/api/middleware"
	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/service"
	"e-hrm/backend/pkg/jwt"
	"e-hrm/backend/pkg/response"
	"e-hrm/backend/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult *dto.TokenResponse
	loginErr    error
	logoutErr   error
	logoutJTI   string
	meResult    *dto.UserResponse
	meErr       error
	createErr   error
	createdBy   *string
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Logout(_ context.Context, claims *jwt.Claims) error {
	m.logoutJTI = claims.ID
	return m.logoutErr
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}
func (m *mockAuthService) CreateUser(_ context.Context, req *dto.CreateUserRequest, callerID *string) (*dto.UserResponse, error) {
	m.createdBy = callerID
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &dto.UserResponse{ID: "u-new", Name: req.Name, Email: req.Email, Role: req.Role}, nil
}
func (m *mockAuthService) ListUsers(_ context.Context, offset, limit int) ([]dto.UserResponse, int64, error) {
	return []dto.UserResponse{{ID: "u1"}}, int64(offset + limit), nil
}

// ── Mock WorkflowService ──

type mockWorkflowService struct {
	decideKind  model.SubmissionKind
	decideSlot  string
	decideActor service.Actor
	decideReq   *dto.DecisionRequest
	decideErr   error
	inboxOffset int
	inboxLimit  int
}

func (m *mockWorkflowService) Decide(_ context.Context, kind model.SubmissionKind, slotID string, actor service.Actor, req *dto.DecisionRequest) (*dto.DecisionResponse, error) {
	m.decideKind, m.decideSlot, m.decideActor, m.decideReq = kind, slotID, actor, req
	if m.decideErr != nil {
		return nil, m.decideErr
	}
	return &dto.DecisionResponse{Status: model.StatusApproved, PreviousStatus: model.StatusPending}, nil
}
func (m *mockWorkflowService) Chain(_ context.Context, kind model.SubmissionKind, id string, _ service.Actor) (*dto.ChainResponse, error) {
	return &dto.ChainResponse{Kind: kind, SubmissionID: id, Status: model.StatusPending}, nil
}
func (m *mockWorkflowService) Inbox(_ context.Context, _ service.Actor, offset, limit int) ([]dto.InboxItem, int64, error) {
	m.inboxOffset, m.inboxLimit = offset, limit
	return []dto.InboxItem{}, 0, nil
}

// ── Mock PaymentService ──

type mockPaymentService struct {
	created *dto.CreatePaymentRequest
	actor   service.Actor
	getErr  error
	listReq *dto.SubmissionListRequest
}

func (m *mockPaymentService) Kind() model.SubmissionKind { return model.KindPayment }
func (m *mockPaymentService) Create(_ context.Context, actor service.Actor, req *dto.CreatePaymentRequest) (*dto.SubmissionDetail[model.Payment], error) {
	m.created, m.actor = req, actor
	return &dto.SubmissionDetail[model.Payment]{Submission: &model.Payment{PaymentID: "p1", Amount: req.Amount}}, nil
}
func (m *mockPaymentService) Get(_ context.Context, _ service.Actor, id string) (*dto.SubmissionDetail[model.Payment], error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &dto.SubmissionDetail[model.Payment]{Submission: &model.Payment{PaymentID: id}}, nil
}
func (m *mockPaymentService) List(_ context.Context, _ service.Actor, req *dto.SubmissionListRequest) ([]dto.SubmissionDetail[model.Payment], int64, error) {
	m.listReq = req
	return []dto.SubmissionDetail[model.Payment]{}, 41, nil
}
func (m *mockPaymentService) Update(_ context.Context, _ service.Actor, _ string, _ *dto.UpdatePaymentRequest) (*dto.SubmissionDetail[model.Payment], error) {
	return nil, service.ErrSubmissionLocked
}
func (m *mockPaymentService) Delete(_ context.Context, _ service.Actor, _ string) error {
	return nil
}

// ── Mock ShiftService ──

type mockShiftService struct {
	calendar []byte
	err      error
}

func (m *mockShiftService) PreviewWeekly(_ *dto.WeeklyPreviewRequest) (*dto.WeeklyPreviewResponse, error) {
	return &dto.WeeklyPreviewResponse{Weekdays: []int{1}}, m.err
}
func (m *mockShiftService) CreateWeekly(_ context.Context, _ *dto.CreateWeeklyShiftRequest, _ service.Actor) (*dto.WeeklyShiftResponse, error) {
	return &dto.WeeklyShiftResponse{Created: true}, m.err
}
func (m *mockShiftService) Adjust(_ context.Context, _ *dto.AdjustShiftRequest, _ service.Actor) (*dto.ShiftAdjustment, error) {
	return nil, m.err
}
func (m *mockShiftService) List(_ context.Context, _ *dto.ShiftListRequest, _ service.Actor) ([]model.ShiftRecord, error) {
	return nil, m.err
}
func (m *mockShiftService) Calendar(_ context.Context, _ *dto.ShiftListRequest, _ service.Actor) ([]byte, error) {
	return m.calendar, m.err
}

// ── Mock Store ──

type mockStore struct {
	folder   string
	filename string
	content  string
	err      error
	removed  []string
}

func (m *mockStore) Save(_ context.Context, folder, filename string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	b, _ := io.ReadAll(r)
	m.folder, m.filename, m.content = folder, filename, string(b)
	return "http://files.test/" + folder + "/x.pdf", nil
}

func (m *mockStore) Remove(_ context.Context, url string) error {
	m.removed = append(m.removed, url)
	return nil
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", model.RoleSupervisor)
}

// withAuth 模拟 JWTAuth 已注入身份
func withAuth(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c)
		h(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func serve(r *gin.Engine, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{loginResult: &dto.TokenResponse{AccessToken: "tok", ExpiresIn: 3600}}
	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(mock).Login)

	w := serve(r, http.MethodPost, "/auth/login", jsonBody(dto.LoginRequest{Email: "a@example.com", Password: "rahasia123"}), "application/json")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, parseResponse(t, w).Code)
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(&mockAuthService{}).Login)

	w := serve(r, http.MethodPost, "/auth/login", bytes.NewReader([]byte("invalid json")), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPost, "/auth/login", jsonBody(map[string]string{"email": "not-an-email", "password": "x"}), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	mock := &mockAuthService{loginErr: service.ErrInvalidCredentials}
	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(mock).Login)

	w := serve(r, http.MethodPost, "/auth/login", jsonBody(dto.LoginRequest{Email: "a@example.com", Password: "salah"}), "application/json")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 11001, parseResponse(t, w).Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/auth/logout", h.Logout)
	r.POST("/auth/logout-with-claims", func(c *gin.Context) {
		c.Set("claims", &jwt.Claims{UserID: "u1", RegisteredClaims: jwtv5.RegisteredClaims{ID: "jti-1"}})
		h.Logout(c)
	})

	w := serve(r, http.MethodPost, "/auth/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodPost, "/auth/logout-with-claims", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jti-1", mock.logoutJTI)
}

func TestAuthHandler_Me_NotFound(t *testing.T) {
	mock := &mockAuthService{meErr: service.ErrUserNotFound}
	r := gin.New()
	r.GET("/auth/me", withAuth(NewAuthHandler(mock).Me))

	w := serve(r, http.MethodGet, "/auth/me", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 12001, parseResponse(t, w).Code)
}

func TestUserHandler_CreateUser(t *testing.T) {
	mock := &mockAuthService{}
	r := gin.New()
	r.POST("/users", withAuth(NewUserHandler(mock).CreateUser))

	w := serve(r, http.MethodPost, "/users", jsonBody(dto.CreateUserRequest{
		Name: "Dewi", Email: "dewi@example.com", Password: "rahasia123", Role: model.RoleHR,
	}), "application/json")
	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mock.createdBy)
	assert.Equal(t, "test-user-id", *mock.createdBy)

	// 未知角色在绑定阶段拦截
	w = serve(r, http.MethodPost, "/users", jsonBody(dto.CreateUserRequest{
		Name: "Dewi", Email: "dewi@example.com", Password: "rahasia123", Role: "admin",
	}), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mock.createErr = service.ErrEmailDuplicate
	w = serve(r, http.MethodPost, "/users", jsonBody(dto.CreateUserRequest{
		Name: "Dewi", Email: "dewi@example.com", Password: "rahasia123", Role: model.RoleHR,
	}), "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)
}

// ═══════════════════════════════════════════════════════════
// WorkflowHandler Tests
// ═══════════════════════════════════════════════════════════

func workflowRouter(mock *mockWorkflowService, store storage.Store) *gin.Engine {
	h := NewWorkflowHandler(mock, store)
	r := gin.New()
	r.GET("/approvals/inbox", withAuth(h.Inbox))
	r.GET("/approvals/:kind/submissions/:id", withAuth(h.Chain))
	r.PATCH("/approvals/:kind/:slot_id", withAuth(h.Decide))
	return r
}

func TestWorkflowHandler_Decide_JSON(t *testing.T) {
	mock := &mockWorkflowService{}
	r := workflowRouter(mock, nil)

	w := serve(r, http.MethodPatch, "/approvals/hour-permit/slot-1", jsonBody(map[string]interface{}{
		"decision": "approved",
		"note":     "ok",
	}), "application/json")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.KindHourPermit, mock.decideKind)
	assert.Equal(t, "slot-1", mock.decideSlot)
	assert.Equal(t, service.Actor{UserID: "test-user-id", Role: model.RoleSupervisor}, mock.decideActor)
	require.NotNil(t, mock.decideReq.Note)
	assert.Equal(t, "ok", *mock.decideReq.Note)
	assert.Nil(t, mock.decideReq.ProofURL)
}

func TestWorkflowHandler_Decide_BadDecision(t *testing.T) {
	mock := &mockWorkflowService{}
	r := workflowRouter(mock, nil)

	w := serve(r, http.MethodPatch, "/approvals/leave/slot-1", jsonBody(map[string]string{"decision": "maybe"}), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, mock.decideReq)
}

func TestWorkflowHandler_Decide_MultipartProof(t *testing.T) {
	mock := &mockWorkflowService{}
	store := &mockStore{}
	r := workflowRouter(mock, store)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("decision", "rejected"))
	fw, err := mw.CreateFormFile("proof", "bukti.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	w := serve(r, http.MethodPatch, "/approvals/reimbursement/slot-9", &buf, mw.FormDataContentType())

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "proofs/reimbursement", store.folder)
	assert.Equal(t, "bukti.pdf", store.filename)
	assert.Equal(t, "%PDF-1.4", store.content)
	assert.Equal(t, "rejected", mock.decideReq.Decision)
	require.NotNil(t, mock.decideReq.ProofURL)
	assert.Equal(t, "http://files.test/proofs/reimbursement/x.pdf", *mock.decideReq.ProofURL)
}

func TestWorkflowHandler_Decide_FailedDecisionDropsProof(t *testing.T) {
	mock := &mockWorkflowService{decideErr: service.ErrSlotDecided}
	store := &mockStore{}
	r := workflowRouter(mock, store)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("decision", "approved"))
	fw, err := mw.CreateFormFile("proof", "bukti.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	w := serve(r, http.MethodPatch, "/approvals/reimbursement/slot-9", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, []string{"http://files.test/proofs/reimbursement/x.pdf"}, store.removed)

	// JSON 传入的 proof_url 不是本次请求保存的文件，不得删除
	store.removed = nil
	w = serve(r, http.MethodPatch, "/approvals/reimbursement/slot-9", jsonBody(map[string]string{
		"decision":  "approved",
		"proof_url": "http://files.test/proofs/reimbursement/lama.pdf",
	}), "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, store.removed)
}

func TestWorkflowHandler_Decide_ProofRejected(t *testing.T) {
	mock := &mockWorkflowService{}
	r := workflowRouter(mock, &mockStore{err: storage.ErrFileTypeInvalid})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("decision", "approved"))
	fw, err := mw.CreateFormFile("proof", "run.exe")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("MZ"))
	require.NoError(t, mw.Close())

	w := serve(r, http.MethodPatch, "/approvals/leave/slot-1", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, mock.decideReq)
}

func TestWorkflowHandler_Decide_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"已处理", service.ErrSlotDecided, http.StatusConflict, 20005},
		{"无权限", service.ErrDecisionForbidden, http.StatusForbidden, 20004},
		{"节点不存在", service.ErrSlotNotFound, http.StatusNotFound, 20002},
		{"未知类型", service.ErrInvalidKind, http.StatusBadRequest, 20007},
		{"内部错误", errors.New("connection reset"), http.StatusInternalServerError, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := workflowRouter(&mockWorkflowService{decideErr: tt.err}, nil)
			w := serve(r, http.MethodPatch, "/approvals/leave/slot-1", jsonBody(map[string]string{"decision": "approved"}), "application/json")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, parseResponse(t, w).Code)
		})
	}
}

func TestWorkflowHandler_Decide_QuotaDetails(t *testing.T) {
	err := &service.InsufficientQuotaError{Shortages: []service.QuotaShortage{
		{Month: "2024-03", Required: 3, Available: 1},
		{Month: "2024-04", Required: 2, Available: 0},
	}}
	r := workflowRouter(&mockWorkflowService{decideErr: err}, nil)

	w := serve(r, http.MethodPatch, "/approvals/leave/slot-1", jsonBody(map[string]string{"decision": "approved"}), "application/json")
	require.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Code    int `json:"code"`
		Details []struct {
			Index int    `json:"index"`
			Field string `json:"field"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 32001, body.Code)
	require.Len(t, body.Details, 2)
	assert.Equal(t, "2024-04", body.Details[1].Field)
}

func TestWorkflowHandler_ChainAndInbox(t *testing.T) {
	mock := &mockWorkflowService{}
	r := workflowRouter(mock, nil)

	w := serve(r, http.MethodGet, "/approvals/day-swap/submissions/sub-1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"day_swap"`)

	w = serve(r, http.MethodGet, "/approvals/inbox?page=3&page_size=10", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, mock.inboxOffset)
	assert.Equal(t, 10, mock.inboxLimit)

	w = serve(r, http.MethodGet, "/approvals/inbox?page_size=500", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ═══════════════════════════════════════════════════════════
// SubmissionHandler Tests
// ═══════════════════════════════════════════════════════════

func submissionRouter(mock *mockPaymentService) *gin.Engine {
	var routes SubmissionRoutes = NewSubmissionHandler[model.Payment, dto.CreatePaymentRequest, dto.UpdatePaymentRequest](mock)
	r := gin.New()
	r.POST("/payments", withAuth(routes.Create))
	r.GET("/payments", withAuth(routes.List))
	r.GET("/payments/:id", withAuth(routes.Get))
	r.PUT("/payments/:id", withAuth(routes.Update))
	r.DELETE("/payments/:id", withAuth(routes.Delete))
	return r
}

func TestSubmissionHandler_Create(t *testing.T) {
	mock := &mockPaymentService{}
	r := submissionRouter(mock)

	w := serve(r, http.MethodPost, "/payments", bytes.NewReader([]byte(`{
		"amount": "1250000.50",
		"description": "Pembelian ATK",
		"approvals": [{"level": 1, "approver_role": "direktur"}]
	}`)), "application/json")

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mock.created)
	assert.True(t, mock.created.Amount.Equal(decimal.RequireFromString("1250000.5")))
	require.Len(t, mock.created.Approvals, 1)
	assert.Equal(t, "test-user-id", mock.actor.UserID)

	// description 必填
	w = serve(r, http.MethodPost, "/payments", jsonBody(map[string]interface{}{"amount": "10"}), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmissionHandler_ListAndErrors(t *testing.T) {
	mock := &mockPaymentService{}
	r := submissionRouter(mock)

	w := serve(r, http.MethodGet, "/payments?status=pending&page=2&page_size=20", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", mock.listReq.Status)
	assert.Contains(t, w.Body.String(), `"total_pages":3`)

	w = serve(r, http.MethodGet, "/payments?status=draft", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mock.getErr = service.ErrSubmissionNotFound
	w = serve(r, http.MethodGet, "/payments/p-404", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodPut, "/payments/p1", jsonBody(map[string]string{"description": "x"}), "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 20008, parseResponse(t, w).Code)

	w = serve(r, http.MethodDelete, "/payments/p1", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmissionHandler_RequiresAuth(t *testing.T) {
	h := NewSubmissionHandler[model.Payment, dto.CreatePaymentRequest, dto.UpdatePaymentRequest](&mockPaymentService{})
	r := gin.New()
	r.GET("/payments", h.List)

	w := serve(r, http.MethodGet, "/payments", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 10002, parseResponse(t, w).Code)
}

// ═══════════════════════════════════════════════════════════
// ShiftHandler / AttachmentHandler Tests
// ═══════════════════════════════════════════════════════════

func TestShiftHandler_Calendar(t *testing.T) {
	mock := &mockShiftService{calendar: []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")}
	r := gin.New()
	r.GET("/shifts/calendar.ics", withAuth(NewShiftHandler(mock).Calendar))

	w := serve(r, http.MethodGet, "/shifts/calendar.ics?from=2024-03-01&to=2024-03-31", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "BEGIN:VCALENDAR")

	mock.err = service.ErrInvalidParam.WithMessage("日历跨度不能超过 %d 天", 186)
	w = serve(r, http.MethodGet, "/shifts/calendar.ics", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShiftHandler_CreateWeeklyStatus(t *testing.T) {
	r := gin.New()
	r.POST("/shifts/weekly", withAuth(NewShiftHandler(&mockShiftService{}).CreateWeekly))

	w := serve(r, http.MethodPost, "/shifts/weekly", jsonBody(map[string]interface{}{
		"user_id": "7f1c1c43-5a4c-4bb0-9a40-0a7f7d2d6d11",
		"pattern": map[string]interface{}{"days": []string{"Senin"}, "start_date": "2024-03-04"},
	}), "application/json")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAttachmentHandler_Upload(t *testing.T) {
	store := &mockStore{}
	r := gin.New()
	r.POST("/attachments", withAuth(NewAttachmentHandler(store).Upload))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "nota.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF"))
	require.NoError(t, mw.Close())

	w := serve(r, http.MethodPost, "/attachments", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "attachments/test-user-id", store.folder)

	w = serve(r, http.MethodPost, "/attachments", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	store.err = storage.ErrFileTooLarge
	buf.Reset()
	mw = multipart.NewWriter(&buf)
	fw, _ = mw.CreateFormFile("file", "besar.pdf")
	_, _ = fw.Write([]byte("%PDF"))
	_ = mw.Close()
	w = serve(r, http.MethodPost, "/attachments", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAttachmentHandler_UploadOverBodyLimit(t *testing.T) {
	store := &mockStore{}
	r := gin.New()
	r.Use(middleware.BodyLimit(1024))
	r.POST("/attachments", withAuth(NewAttachmentHandler(store).Upload))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "besar.pdf")
	require.NoError(t, err)
	_, _ = fw.Write(bytes.Repeat([]byte("x"), 4<<10))
	require.NoError(t, mw.Close())

	w := serve(r, http.MethodPost, "/attachments", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, 10005, parseResponse(t, w).Code)
	assert.Empty(t, store.filename)
}

func TestBindError_BodyTooLarge(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	bindError(c, fmt.Errorf("multipart: NextPart: %w", &http.MaxBytesError{Limit: 1024}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, 10005, parseResponse(t, w).Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	bindError(c, errors.New("invalid character"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 10001, parseResponse(t, w).Code)
}

func TestContextHelpers(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	_, ok := MustGetActor(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	setAuth(c)
	actor, ok := MustGetActor(c)
	assert.True(t, ok)
	assert.Equal(t, "test-user-id", actor.UserID)

	c.Set("claims", &jwt.Claims{UserID: "test-user-id"})
	claims, ok := MustGetClaims(c)
	assert.True(t, ok)
	assert.Equal(t, "test-user-id", claims.UserID)
}

// ═══════════════════════════════════════════════════════════
// HealthHandler Tests
// ═══════════════════════════════════════════════════════════

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		cache Pinger
		redis string
	}{
		{"未启用 Redis", nil, "disabled"},
		{"Redis 正常", fakePinger{}, "ok"},
		{"Redis 故障降级", fakePinger{err: errors.New("dial tcp: refused")}, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(db, tt.cache).Health)

			w := serve(r, http.MethodGet, "/health", nil, "")
			require.Equal(t, http.StatusOK, w.Code)

			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "ok", body.Status)
			assert.Equal(t, "ok", body.Checks["database"])
			assert.Equal(t, tt.redis, body.Checks["redis"])
		})
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	r := gin.New()
	r.GET("/health", NewHealthHandler(db, nil).Health)
	w := serve(r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
