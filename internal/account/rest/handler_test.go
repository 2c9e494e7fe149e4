package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GauravMishra537/Kisaan-Dost/internal/account"
	"github.com/GauravMishra537/Kisaan-Dost/internal/middleware"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mockAccountService is a mock implementation of the AccountService interface
type mockAccountService struct {
	auth     *account.AuthDto
	profile  *account.ProfileDto
	summary  *account.AccountSummaryDto
	page     *account.AccountPageDto
	question string
	token    string
	err      error
}

func (m *mockAccountService) Register(_ context.Context, _ account.RegisterDto) (*account.AuthDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.auth, nil
}

func (m *mockAccountService) Login(_ context.Context, _, _ string) (*account.AuthDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.auth, nil
}

func (m *mockAccountService) SecurityQuestion(_ context.Context, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.question, nil
}

func (m *mockAccountService) VerifySecurityAnswer(_ context.Context, _, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.token, nil
}

func (m *mockAccountService) ResetPassword(_ context.Context, _, _, _ string) error {
	return m.err
}

func (m *mockAccountService) Profile(_ context.Context, _ primitive.ObjectID) (*account.ProfileDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.profile, nil
}

func (m *mockAccountService) UpdateProfile(_ context.Context, _ primitive.ObjectID, _ account.ProfileUpdateDto) (*account.ProfileDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.profile, nil
}

func (m *mockAccountService) Delete(_ context.Context, _ primitive.ObjectID) error {
	return m.err
}

func (m *mockAccountService) List(_ context.Context, _ account.Role, _, _ int64) (*account.AccountPageDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

func (m *mockAccountService) SetBlocked(_ context.Context, _ primitive.ObjectID, _ bool) (*account.AccountSummaryDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func (m *mockAccountService) SetAdmin(_ context.Context, _ primitive.ObjectID, _ bool) (*account.AccountSummaryDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func newTestHandler(svc account.AccountService) *Handler {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewHandler(svc, logger)
}

func withCaller(req *http.Request, caller *account.Account) *http.Request {
	return req.WithContext(middleware.WithAccount(req.Context(), caller))
}

func Test_AccountAPI_Register(t *testing.T) {
	authDto := &account.AuthDto{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Meera",
		Email: "meera@example.com",
		Role:  account.RoleBuyer,
		Token: "signed.jwt.token",
	}

	testCases := []struct {
		name          string
		mockService   mockAccountService
		body          string
		expectedCode  int
		expectedError string
	}{
		{
			name:         "Success - account created",
			mockService:  mockAccountService{auth: authDto},
			body:         `{"name":"Meera","email":"meera@example.com","password":"secret1"}`,
			expectedCode: http.StatusCreated,
		},
		{
			name:          "Error - email already taken",
			mockService:   mockAccountService{err: account.ErrEmailExists},
			body:          `{"name":"Meera","email":"meera@example.com","password":"secret1"}`,
			expectedCode:  http.StatusBadRequest,
			expectedError: "User already exists",
		},
		{
			name:          "Error - unknown role",
			mockService:   mockAccountService{err: account.ErrInvalidRole},
			body:          `{"name":"Meera","email":"meera@example.com","password":"secret1","role":"Superuser"}`,
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid role",
		},
		{
			name:         "Error - invalid body",
			mockService:  mockAccountService{},
			body:         `{not json`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:          "Error - service failure",
			mockService:   mockAccountService{err: assert.AnError},
			body:          `{"name":"Meera","email":"meera@example.com","password":"secret1"}`,
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Failed to register",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(&tc.mockService)
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()

			h.Register(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedError != "" {
				var resp struct {
					Error string `json:"error"`
				}
				assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, tc.expectedError, resp.Error)
			}
		})
	}
}

func Test_AccountAPI_Register_Validation(t *testing.T) {
	h := newTestHandler(&mockAccountService{})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"name":"Meera","email":"not-an-email","password":"x"}`))
	rr := httptest.NewRecorder()

	h.Register(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp struct {
		ValidationErrors map[string]string `json:"validation_errors"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.ValidationErrors, "Email")
	assert.Contains(t, resp.ValidationErrors, "Password")
}

func Test_AccountAPI_Login(t *testing.T) {
	authDto := &account.AuthDto{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Meera",
		Email: "meera@example.com",
		Role:  account.RoleBuyer,
		Token: "signed.jwt.token",
	}

	testCases := []struct {
		name          string
		mockService   mockAccountService
		body          string
		expectedCode  int
		expectedError string
	}{
		{
			name:         "Success - valid credentials",
			mockService:  mockAccountService{auth: authDto},
			body:         `{"email":"meera@example.com","password":"secret1"}`,
			expectedCode: http.StatusOK,
		},
		{
			name:          "Error - wrong password",
			mockService:   mockAccountService{err: account.ErrInvalidCredentials},
			body:          `{"email":"meera@example.com","password":"wrong"}`,
			expectedCode:  http.StatusUnauthorized,
			expectedError: "Invalid email or password",
		},
		{
			name:          "Error - unknown email looks like bad credentials",
			mockService:   mockAccountService{err: account.ErrAccountNotFound},
			body:          `{"email":"ghost@example.com","password":"secret1"}`,
			expectedCode:  http.StatusUnauthorized,
			expectedError: "Invalid email or password",
		},
		{
			name:          "Error - blocked account",
			mockService:   mockAccountService{err: account.ErrAccountBlocked},
			body:          `{"email":"meera@example.com","password":"secret1"}`,
			expectedCode:  http.StatusForbidden,
			expectedError: "Your account is blocked. Please contact support or admin.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(&tc.mockService)
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()

			h.Login(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedError != "" {
				var resp struct {
					Error string `json:"error"`
				}
				assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, tc.expectedError, resp.Error)
			}
		})
	}
}

func Test_AccountAPI_PasswordResetFlow(t *testing.T) {
	t.Run("Forgot returns the security question", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{question: "Name of your first cow?"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot", strings.NewReader(`{"email":"meera@example.com"}`))
		rr := httptest.NewRecorder()

		h.Forgot(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"securityQuestion":"Name of your first cow?"}`, rr.Body.String())
	})

	t.Run("Forgot does not reveal missing accounts", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{err: account.ErrAccountNotFound})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot", strings.NewReader(`{"email":"ghost@example.com"}`))
		rr := httptest.NewRecorder()

		h.Forgot(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "If the account exists")
	})

	t.Run("VerifySecurity issues a reset token", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{token: "reset-token-123"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-security", strings.NewReader(`{"email":"meera@example.com","securityAnswer":"Gauri"}`))
		rr := httptest.NewRecorder()

		h.VerifySecurity(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"resetToken":"reset-token-123"}`, rr.Body.String())
	})

	t.Run("VerifySecurity rejects a wrong answer", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{err: account.ErrSecurityAnswerMismatch})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-security", strings.NewReader(`{"email":"meera@example.com","securityAnswer":"nope"}`))
		rr := httptest.NewRecorder()

		h.VerifySecurity(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("ResetPassword rejects an expired token", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{err: account.ErrResetTokenInvalid})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password", strings.NewReader(`{"email":"meera@example.com","resetToken":"stale","password":"newpass1"}`))
		rr := httptest.NewRecorder()

		h.ResetPassword(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("ResetPassword succeeds", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password", strings.NewReader(`{"email":"meera@example.com","resetToken":"fresh","password":"newpass1"}`))
		rr := httptest.NewRecorder()

		h.ResetPassword(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"Password reset successful"}`, rr.Body.String())
	})
}

func Test_AccountAPI_Profile(t *testing.T) {
	caller := &account.Account{ID: primitive.NewObjectID(), Name: "Meera", Role: account.RoleBuyer}
	profile := &account.ProfileDto{
		ID:    caller.ID.Hex(),
		Name:  "Meera",
		Email: "meera@example.com",
		Role:  account.RoleBuyer,
	}

	t.Run("returns the caller's profile", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{profile: profile})
		req := withCaller(httptest.NewRequest(http.MethodGet, "/api/users/profile", nil), caller)
		rr := httptest.NewRecorder()

		h.Profile(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var got account.ProfileDto
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, profile.Email, got.Email)
	})

	t.Run("update applies and echoes the profile", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{profile: profile})
		req := withCaller(httptest.NewRequest(http.MethodPut, "/api/users/profile", strings.NewReader(`{"mobileNo":"9876543210"}`)), caller)
		rr := httptest.NewRecorder()

		h.UpdateProfile(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("update rejects a taken email", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{err: account.ErrEmailExists})
		req := withCaller(httptest.NewRequest(http.MethodPut, "/api/users/profile", strings.NewReader(`{"email":"taken@example.com"}`)), caller)
		rr := httptest.NewRecorder()

		h.UpdateProfile(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("delete removes the account", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{})
		req := withCaller(httptest.NewRequest(http.MethodDelete, "/api/users/profile", nil), caller)
		rr := httptest.NewRecorder()

		h.DeleteProfile(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"Account deleted"}`, rr.Body.String())
	})
}

func Test_AccountAPI_AdminUsers(t *testing.T) {
	page := &account.AccountPageDto{
		Accounts: []account.AccountSummaryDto{{ID: primitive.NewObjectID().Hex(), Name: "Ravi", Role: account.RoleFarmer}},
		Meta:     account.PageMeta{Page: 1, Limit: 50, Total: 1},
	}

	t.Run("lists users", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{page: page})
		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		rr := httptest.NewRecorder()

		h.ListUsers(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("rejects an invalid role filter", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{page: page})
		req := httptest.NewRequest(http.MethodGet, "/api/admin/users?role=Wizard", nil)
		rr := httptest.NewRecorder()

		h.ListUsers(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("lists farmers without a filter parameter", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{page: page})
		req := httptest.NewRequest(http.MethodGet, "/api/admin/farmers", nil)
		rr := httptest.NewRecorder()

		h.ListFarmers(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func Test_AccountAPI_AdminMutations(t *testing.T) {
	id := primitive.NewObjectID()
	summary := &account.AccountSummaryDto{ID: id.Hex(), Name: "Meera", Role: account.RoleBuyer, Blocked: true}

	newRequest := func(method, target, body string) (*httptest.ResponseRecorder, *http.Request) {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, target, reader)
		req.SetPathValue("id", id.Hex())
		return httptest.NewRecorder(), req
	}

	t.Run("block succeeds", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{summary: summary})
		rr, req := newRequest(http.MethodPut, "/api/admin/users/"+id.Hex()+"/block", "")

		h.Block(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var got account.AccountSummaryDto
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.True(t, got.Blocked)
	})

	t.Run("block of a missing account is a 404", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{err: account.ErrAccountNotFound})
		rr, req := newRequest(http.MethodPut, "/api/admin/users/"+id.Hex()+"/block", "")

		h.Block(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("block rejects a malformed id", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{summary: summary})
		req := httptest.NewRequest(http.MethodPut, "/api/admin/users/123-invalid-id/block", nil)
		req.SetPathValue("id", "123-invalid-id")
		rr := httptest.NewRecorder()

		h.Block(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("promote toggles the admin role", func(t *testing.T) {
		admin := &account.AccountSummaryDto{ID: id.Hex(), Name: "Meera", Role: account.RoleAdmin}
		h := newTestHandler(&mockAccountService{summary: admin})
		rr, req := newRequest(http.MethodPut, "/api/admin/users/"+id.Hex()+"/promote", `{"makeAdmin":true}`)

		h.Promote(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var got account.AccountSummaryDto
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, account.RoleAdmin, got.Role)
	})

	t.Run("delete removes the account", func(t *testing.T) {
		h := newTestHandler(&mockAccountService{})
		rr, req := newRequest(http.MethodDelete, "/api/admin/users/"+id.Hex(), "")

		h.DeleteUser(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"User removed"}`, rr.Body.String())
	})
}
