package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/traffictuner/traffictuner/internal/auth/domain"
	"github.com/traffictuner/traffictuner/internal/auth/session"
	"github.com/traffictuner/traffictuner/internal/config"
	creditsdomain "github.com/traffictuner/traffictuner/internal/credits/domain"
	"gorm.io/gorm"
)

type fakeAuthService struct {
	createUserCalls int
	loginCalls      int
	loginErr        error
	user            *authdomain.User
	session         *authdomain.Session
}

func (f *fakeAuthService) CreateUser(ctx context.Context, req authdomain.CreateUserRequest) (*authdomain.User, error) {
	f.createUserCalls++
	_ = ctx
	f.user = &authdomain.User{
		ID:    snowflake.ID(200),
		Email: req.Email,
		Name:  req.Name,
		Role:  authdomain.RoleUser,
	}
	return f.user, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	f.loginCalls++
	_ = ctx
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	user := f.user
	if user == nil {
		user = &authdomain.User{ID: snowflake.ID(200), Email: req.Email, Role: authdomain.RoleUser}
	}
	return &authdomain.LoginResult{
		User:      user,
		Session:   &authdomain.SessionView{Metadata: map[string]any{"user_id": user.ID.String()}},
		RawToken:  "session-token",
		ExpiresAt: time.Now().Add(time.Hour),
		SessionID: snowflake.ID(300),
	}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	_ = ctx
	_ = rawToken
	return nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	_ = ctx
	_ = rawToken
	if f.session == nil {
		return nil, authdomain.ErrInvalidSession
	}
	return f.session, nil
}

func (f *fakeAuthService) ChangePassword(ctx context.Context, userID snowflake.ID, newPassword string) error {
	_ = ctx
	_ = userID
	_ = newPassword
	return nil
}

func (f *fakeAuthService) UserByID(ctx context.Context, id snowflake.ID) (*authdomain.User, error) {
	_ = ctx
	if f.user != nil && f.user.ID == id {
		return f.user, nil
	}
	return nil, authdomain.ErrUserNotFound
}

type fakeCreditsService struct {
	grants     []int64
	lastRef    string
	balance    int64
	balanceErr error
}

func (f *fakeCreditsService) EnsureAccount(ctx context.Context, userID snowflake.ID) (*creditsdomain.CreditAccount, error) {
	_ = ctx
	return &creditsdomain.CreditAccount{UserID: userID}, nil
}

func (f *fakeCreditsService) Grant(ctx context.Context, userID snowflake.ID, amount int64, reference, description string) error {
	_ = ctx
	_ = userID
	_ = description
	f.grants = append(f.grants, amount)
	f.lastRef = reference
	return nil
}

func (f *fakeCreditsService) Debit(ctx context.Context, userID snowflake.ID, amount int64, reference, description string) error {
	return nil
}

func (f *fakeCreditsService) Refund(ctx context.Context, userID snowflake.ID, amount int64, reference, description string) error {
	return nil
}

func (f *fakeCreditsService) DebitTx(ctx context.Context, tx *gorm.DB, userID snowflake.ID, amount int64, reference, description string) error {
	return nil
}

func (f *fakeCreditsService) RefundTx(ctx context.Context, tx *gorm.DB, userID snowflake.ID, amount int64, reference, description string) error {
	return nil
}

func (f *fakeCreditsService) Balance(ctx context.Context, userID snowflake.ID) (int64, error) {
	_ = ctx
	_ = userID
	return f.balance, f.balanceErr
}

func (f *fakeCreditsService) History(ctx context.Context, userID snowflake.ID, limit int) ([]creditsdomain.CreditEntry, error) {
	_ = ctx
	_ = userID
	_ = limit
	return nil, nil
}

func newAuthTestServer(authSvc *fakeAuthService, creditsSvc *fakeCreditsService) (*Server, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	srv := &Server{
		cfg:        config.Config{},
		authsvc:    authSvc,
		sessions:   session.NewManager(config.Config{}),
		creditsSvc: creditsSvc,
	}
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	return srv, router
}

func TestSignupCreatesUserAndGrantsTrialCredits(t *testing.T) {
	authSvc := &fakeAuthService{}
	creditsSvc := &fakeCreditsService{}
	srv, router := newAuthTestServer(authSvc, creditsSvc)
	router.POST("/auth/signup", srv.Signup)

	body := `{"email":"Alice@Example.com","password":"correct horse battery","name":"Alice"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if authSvc.createUserCalls != 1 || authSvc.loginCalls != 1 {
		t.Fatalf("expected one create and one login, got %d/%d", authSvc.createUserCalls, authSvc.loginCalls)
	}
	if len(creditsSvc.grants) != 1 || creditsSvc.grants[0] != creditsdomain.TrialCredits {
		t.Fatalf("expected one trial grant of %d, got %v", creditsdomain.TrialCredits, creditsSvc.grants)
	}
	if !strings.HasPrefix(creditsSvc.lastRef, "signup:") {
		t.Fatalf("expected signup-scoped grant reference, got %q", creditsSvc.lastRef)
	}

	var sessionCookie bool
	for _, c := range resp.Result().Cookies() {
		if c.Name == session.DefaultCookieName && c.Value != "" {
			sessionCookie = true
		}
	}
	if !sessionCookie {
		t.Fatal("expected session cookie to be set")
	}
}

func TestSignupRejectsMissingEmail(t *testing.T) {
	authSvc := &fakeAuthService{}
	srv, router := newAuthTestServer(authSvc, &fakeCreditsService{})
	router.POST("/auth/signup", srv.Signup)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(`{"password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if authSvc.createUserCalls != 0 {
		t.Fatal("expected no user to be created")
	}
}

func TestLoginMapsInvalidCredentialsTo401(t *testing.T) {
	authSvc := &fakeAuthService{loginErr: authdomain.ErrInvalidCredentials}
	srv, router := newAuthTestServer(authSvc, &fakeCreditsService{})
	router.POST("/auth/login", srv.Login)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"a@b.com","password":"bad"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestSessionInfoWithoutCookieReturns401(t *testing.T) {
	srv, router := newAuthTestServer(&fakeAuthService{}, &fakeCreditsService{})
	router.GET("/auth/session", srv.SessionInfo)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}
