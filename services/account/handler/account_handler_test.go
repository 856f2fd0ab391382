package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	account "auction-house/internal/accountService"
	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/session"
	"auction-house/internal/views"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, *MockAccountServiceInterface) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockService := NewMockAccountServiceInterface(ctrl)
	h := NewAccountHandler(mockService)

	renderer, err := views.NewRenderer()
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.HTMLRender = renderer

	sessions := session.NewManager([]byte("0123456789abcdef0123456789abcdef"), false)
	router.Use(sessions.Middleware(func(_ context.Context, userID string) (models.Identity, error) {
		return models.Identity{UserID: userID, Username: "alice"}, nil
	}))

	router.GET("/register", h.RegisterFormHandler)
	router.POST("/register", h.RegisterHandler)
	router.GET("/login", h.LoginFormHandler)
	router.POST("/login", h.LoginHandler)
	router.POST("/logout", h.LogoutHandler)
	router.GET("/", func(c *gin.Context) {
		views.Render(c, http.StatusOK, views.PageError, views.Page{Title: "Home", Message: "home"})
	})
	return router, mockService
}

func post(router *gin.Engine, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return serve(router, req, cookies)
}

func get(router *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	return serve(router, httptest.NewRequest(http.MethodGet, path, nil), cookies)
}

func serve(router *gin.Engine, req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	latest := make(map[string]*http.Cookie)
	for _, ck := range cookies {
		latest[ck.Name] = ck
	}
	for _, ck := range latest {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginHandler(t *testing.T) {
	t.Parallel()

	creds := account.Credentials{Username: "alice", Password: "correct horse"}

	tests := []struct {
		name           string
		mockSetup      func(m *MockAccountServiceInterface)
		expectedStatus int
		expectedBody   string
		signedIn       bool
	}{
		{
			name: "success",
			mockSetup: func(m *MockAccountServiceInterface) {
				m.EXPECT().Login(gomock.Any(), creds).Return(models.Identity{UserID: "u1", Username: "alice"}, nil)
			},
			expectedStatus: http.StatusSeeOther,
			signedIn:       true,
		},
		{
			name: "wrong_password",
			mockSetup: func(m *MockAccountServiceInterface) {
				m.EXPECT().Login(gomock.Any(), creds).Return(models.Identity{}, fmt.Errorf("service: login: %w", auctionerrors.ErrInvalidCredentials))
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Invalid username or password.",
		},
		{
			name: "storage_failure",
			mockSetup: func(m *MockAccountServiceInterface) {
				m.EXPECT().Login(gomock.Any(), creds).Return(models.Identity{}, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router, mockService := newRouter(t)
			tc.mockSetup(mockService)

			w := post(router, "/login", url.Values{"username": {creds.Username}, "password": {creds.Password}}, nil)
			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, w.Body.String(), tc.expectedBody)
			if !tc.signedIn {
				return
			}

			require.Equal(t, "/", w.Header().Get("Location"))
			home := get(router, "/", w.Result().Cookies())
			require.Contains(t, home.Body.String(), "Signed in as alice")
			require.Contains(t, home.Body.String(), "Welcome back, alice.")
		})
	}
}

func TestRegisterHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		form           url.Values
		mockSetup      func(m *MockAccountServiceInterface)
		expectedStatus int
		expectedBody   []string
	}{
		{
			name: "success",
			form: url.Values{"username": {"alice"}, "password": {"correct horse"}},
			mockSetup: func(m *MockAccountServiceInterface) {
				m.EXPECT().Register(gomock.Any(), account.Credentials{Username: "alice", Password: "correct horse"}).
					Return(models.User{ID: "u1", Username: "alice"}, nil)
			},
			expectedStatus: http.StatusSeeOther,
		},
		{
			name: "invalid_fields",
			form: url.Values{"username": {"al"}, "password": {"short"}},
			mockSetup: func(m *MockAccountServiceInterface) {
				ve := &auctionerrors.ValidationError{}
				ve.Add("username", "Username should be at least 3 chars long.")
				ve.Add("password", "Password should be at least 8 chars long.")
				m.EXPECT().Register(gomock.Any(), gomock.Any()).Return(models.User{}, fmt.Errorf("service: register: %w", ve))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"Username should be at least 3 chars long.", "Password should be at least 8 chars long.", `value="al"`},
		},
		{
			name: "username_taken",
			form: url.Values{"username": {"alice"}, "password": {"correct horse"}},
			mockSetup: func(m *MockAccountServiceInterface) {
				m.EXPECT().Register(gomock.Any(), gomock.Any()).Return(models.User{}, auctionerrors.ErrUserExists)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   []string{"Username is already taken."},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router, mockService := newRouter(t)
			tc.mockSetup(mockService)

			w := post(router, "/register", tc.form, nil)
			require.Equal(t, tc.expectedStatus, w.Code)
			for _, s := range tc.expectedBody {
				require.Contains(t, w.Body.String(), s)
			}
		})
	}
}

func TestLogoutHandler(t *testing.T) {
	t.Parallel()

	router, mockService := newRouter(t)
	mockService.EXPECT().Login(gomock.Any(), gomock.Any()).Return(models.Identity{UserID: "u1", Username: "alice"}, nil)

	w := post(router, "/login", url.Values{"username": {"alice"}, "password": {"correct horse"}}, nil)
	cookies := w.Result().Cookies()

	w = post(router, "/logout", url.Values{}, cookies)
	require.Equal(t, http.StatusSeeOther, w.Code)
	cookies = append(cookies, w.Result().Cookies()...)

	home := get(router, "/", cookies)
	require.Contains(t, home.Body.String(), "You have been logged out.")
	require.NotContains(t, home.Body.String(), "Signed in as")
}

func TestForms(t *testing.T) {
	t.Parallel()

	router, _ := newRouter(t)
	for path, want := range map[string]string{"/login": `action="/login"`, "/register": `action="/register"`} {
		w := get(router, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), want)
	}
}
