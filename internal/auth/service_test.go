package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/transport"
	"github.com/frahmantamala/servicebook/internal/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// Mock UserDirectory for testing
type mockUserDirectory struct {
	accounts      map[string]*user.Account
	principals    map[int64]*internal.Principal
	returnError   bool
	errorToReturn error
}

func newMockUserDirectory() *mockUserDirectory {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)

	return &mockUserDirectory{
		accounts: map[string]*user.Account{
			"manager":  {ID: 1, Username: "manager", PasswordHash: string(hashedPassword), IsActive: true, IsStaff: true},
			"service1": {ID: 2, Username: "service1", PasswordHash: string(hashedPassword), IsActive: true},
			"client1":  {ID: 3, Username: "client1", PasswordHash: string(hashedPassword), IsActive: true},
			"retired":  {ID: 4, Username: "retired", PasswordHash: string(hashedPassword), IsActive: false},
		},
		principals: map[int64]*internal.Principal{
			1: {ID: 1, Username: "manager", IsStaff: true, Role: access.RoleManager},
			2: {ID: 2, Username: "service1", Groups: []string{"Сервисная организация"}, Role: access.RoleService},
			3: {ID: 3, Username: "client1", Groups: []string{"Клиент"}, Role: access.RoleClient},
		},
	}
}

func (m *mockUserDirectory) Credentials(ctx context.Context, username string) (*user.Account, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	return m.accounts[username], nil
}

func (m *mockUserDirectory) Principal(ctx context.Context, id int64) (*internal.Principal, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	if p, ok := m.principals[id]; ok {
		return p, nil
	}
	return nil, internal.ErrUserInactive
}

func (m *mockUserDirectory) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		ctx           context.Context
		service       *Service
		mockUsers     *mockUserDirectory
		tokenGen      *JWTTokenGenerator
		accessSecret  string        = "test-access-secret-0123456789abcdef"
		refreshSecret string        = "test-refresh-secret-0123456789abcdef"
		accessTTL     time.Duration = 15 * time.Minute
		refreshTTL    time.Duration = 24 * time.Hour
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		mockUsers = newMockUserDirectory()
		tokenGen = NewJWTTokenGenerator(accessSecret, refreshSecret, accessTTL, refreshTTL)
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = NewService(mockUsers, tokenGen, slogger)
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.Context("when credentials are valid", func() {
			ginkgo.It("should return access and refresh tokens", func() {
				tokens, err := service.Authenticate(ctx, LoginDTO{Username: "service1", Password: "correct_password"})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(tokens.Access).ToNot(gomega.BeEmpty())
				gomega.Expect(tokens.Refresh).ToNot(gomega.BeEmpty())
				gomega.Expect(tokens.Access).ToNot(gomega.Equal(tokens.Refresh))
			})

			ginkgo.It("should issue an access token that resolves to the caller", func() {
				tokens, err := service.Authenticate(ctx, LoginDTO{Username: "client1", Password: "correct_password"})
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				p, err := service.Principal(ctx, tokens.Access)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(p.ID).To(gomega.Equal(int64(3)))
				gomega.Expect(p.Role).To(gomega.Equal(access.RoleClient))
			})
		})

		ginkgo.Context("when credentials are invalid", func() {
			ginkgo.It("should reject a wrong password", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Username: "client1", Password: "wrong"})
				gomega.Expect(err).To(gomega.Equal(internal.ErrInvalidCredentials))
			})

			ginkgo.It("should reject an unknown username with the same error", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Username: "nobody", Password: "correct_password"})
				gomega.Expect(err).To(gomega.Equal(internal.ErrInvalidCredentials))
			})

			ginkgo.It("should reject inactive accounts", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Username: "retired", Password: "correct_password"})
				gomega.Expect(err).To(gomega.Equal(internal.ErrInvalidCredentials))
			})

			ginkgo.It("should require both fields", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Username: "client1"})
				appErr, ok := internal.IsAppError(err)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(appErr.StatusCode).To(gomega.Equal(http.StatusBadRequest))
				gomega.Expect(appErr.Error()).To(gomega.ContainSubstring("password"))
			})

			ginkgo.It("should surface directory failures as internal errors", func() {
				mockUsers.setError(errors.New("database down"))
				_, err := service.Authenticate(ctx, LoginDTO{Username: "client1", Password: "correct_password"})
				appErr, ok := internal.IsAppError(err)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(appErr.StatusCode).To(gomega.Equal(http.StatusInternalServerError))
			})
		})
	})

	ginkgo.Describe("Refresh", func() {
		ginkgo.It("should issue a new access token from a refresh token", func() {
			tokens, err := service.Authenticate(ctx, LoginDTO{Username: "manager", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			refreshed, err := service.Refresh(ctx, RefreshDTO{Refresh: tokens.Refresh})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(refreshed.Access).ToNot(gomega.BeEmpty())
			gomega.Expect(refreshed.Refresh).To(gomega.BeEmpty())

			p, err := service.Principal(ctx, refreshed.Access)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.Role).To(gomega.Equal(access.RoleManager))
		})

		ginkgo.It("should not accept an access token as a refresh token", func() {
			tokens, err := service.Authenticate(ctx, LoginDTO{Username: "manager", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Refresh(ctx, RefreshDTO{Refresh: tokens.Access})
			gomega.Expect(err).To(gomega.Equal(internal.ErrInvalidToken))
		})

		ginkgo.It("should refuse accounts deactivated after login", func() {
			tokens, err := service.Authenticate(ctx, LoginDTO{Username: "client1", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			delete(mockUsers.principals, 3)

			_, err = service.Refresh(ctx, RefreshDTO{Refresh: tokens.Refresh})
			gomega.Expect(err).To(gomega.Equal(internal.ErrUserInactive))
		})
	})

	ginkgo.Describe("Verify", func() {
		ginkgo.It("should accept both token types", func() {
			tokens, err := service.Authenticate(ctx, LoginDTO{Username: "client1", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(service.Verify(ctx, VerifyDTO{Token: tokens.Access})).To(gomega.Succeed())
			gomega.Expect(service.Verify(ctx, VerifyDTO{Token: tokens.Refresh})).To(gomega.Succeed())
		})

		ginkgo.It("should reject garbage", func() {
			gomega.Expect(service.Verify(ctx, VerifyDTO{Token: "not-a-jwt"})).To(gomega.Equal(internal.ErrInvalidToken))
		})
	})

	ginkgo.Describe("JWTTokenGenerator", func() {
		ginkgo.It("should report expired tokens", func() {
			expired := NewJWTTokenGenerator(accessSecret, refreshSecret, -time.Minute, refreshTTL)
			token, err := expired.Generate(AccessToken, 1, "manager")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = tokenGen.Validate(AccessToken, token)
			gomega.Expect(err).To(gomega.Equal(internal.ErrTokenExpired))
		})

		ginkgo.It("should reject tokens signed with another secret", func() {
			other := NewJWTTokenGenerator("another-access-secret-0123456789ab", refreshSecret, accessTTL, refreshTTL)
			token, err := other.Generate(AccessToken, 1, "manager")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = tokenGen.Validate(AccessToken, token)
			gomega.Expect(err).To(gomega.Equal(internal.ErrInvalidToken))
		})

		ginkgo.It("should reject the none algorithm", func() {
			claims := &Claims{UserID: 1, TokenType: AccessToken, RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}}
			token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = tokenGen.Validate(AccessToken, token)
			gomega.Expect(err).To(gomega.Equal(internal.ErrInvalidToken))
		})
	})
})

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		service *Service
		handler *Handler
		rbac    *RBACAuthorization
	)

	ginkgo.BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		tokenGen := NewJWTTokenGenerator("test-access-secret-0123456789abcdef", "test-refresh-secret-0123456789abcdef", time.Minute, time.Hour)
		service = NewService(newMockUserDirectory(), tokenGen, slogger)
		base := &transport.BaseHandler{Logger: slogger}
		handler = NewHandler(base, service)
		rbac = NewRBACAuthorization(base)
	})

	login := func(username string) string {
		tokens, err := service.Authenticate(context.Background(), LoginDTO{Username: username, Password: "correct_password"})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return tokens.Access
	}

	ginkgo.It("should answer a failed login with a detail message", func() {
		req := httptest.NewRequest(http.MethodPost, "/auth/token/", strings.NewReader(`{"username":"client1","password":"nope"}`))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		var body map[string]interface{}
		gomega.Expect(json.NewDecoder(w.Body).Decode(&body)).To(gomega.Succeed())
		gomega.Expect(body).To(gomega.HaveKeyWithValue("detail", "No active account found with the given credentials"))
	})

	ginkgo.It("should return access and refresh on success", func() {
		req := httptest.NewRequest(http.MethodPost, "/auth/token/", strings.NewReader(`{"username":"client1","password":"correct_password"}`))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		var body map[string]string
		gomega.Expect(json.NewDecoder(w.Body).Decode(&body)).To(gomega.Succeed())
		gomega.Expect(body["access"]).ToNot(gomega.BeEmpty())
		gomega.Expect(body["refresh"]).ToNot(gomega.BeEmpty())
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var seen *internal.Principal
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = internal.PrincipalFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		})

		ginkgo.BeforeEach(func() { seen = nil })

		ginkgo.It("should pass anonymous requests through", func() {
			w := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/machines/", nil))

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(seen).To(gomega.BeNil())
		})

		ginkgo.It("should attach the principal for a valid token", func() {
			req := httptest.NewRequest(http.MethodGet, "/machines/", nil)
			req.Header.Set("Authorization", "Bearer "+login("service1"))
			w := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(seen).ToNot(gomega.BeNil())
			gomega.Expect(seen.Role).To(gomega.Equal(access.RoleService))
		})

		ginkgo.It("should reject an invalid token", func() {
			req := httptest.NewRequest(http.MethodGet, "/machines/", nil)
			req.Header.Set("Authorization", "Bearer garbage")
			w := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(seen).To(gomega.BeNil())
		})
	})

	ginkgo.Describe("RequireWrite", func() {
		serve := func(method, username string, collection access.Collection) *httptest.ResponseRecorder {
			req := httptest.NewRequest(method, "/x/", nil)
			if username != "" {
				req.Header.Set("Authorization", "Bearer "+login(username))
			}
			w := httptest.NewRecorder()
			ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			handler.AuthMiddleware(rbac.RequireWrite(collection)(ok)).ServeHTTP(w, req)
			return w
		}

		ginkgo.It("should let reads through for everyone", func() {
			gomega.Expect(serve(http.MethodGet, "", access.Machines).Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(serve(http.MethodGet, "client1", access.Claims).Code).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("should require authentication for writes", func() {
			gomega.Expect(serve(http.MethodPost, "", access.Maintenance).Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should limit machine writes to managers", func() {
			w := serve(http.MethodPost, "service1", access.Machines)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(w.Body.String()).To(gomega.ContainSubstring("Изменение данных машины доступно только менеджеру."))

			gomega.Expect(serve(http.MethodDelete, "manager", access.Machines).Code).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("should let clients write maintenance but not claims", func() {
			gomega.Expect(serve(http.MethodPatch, "client1", access.Maintenance).Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(serve(http.MethodPost, "client1", access.Claims).Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(serve(http.MethodPost, "service1", access.Claims).Code).To(gomega.Equal(http.StatusOK))
		})
	})
})
