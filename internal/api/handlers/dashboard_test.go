package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sarelsmotors/garage/internal/api/dto"
	"github.com/sarelsmotors/garage/internal/api/handlers"
	"github.com/sarelsmotors/garage/internal/api/middleware"
	"github.com/sarelsmotors/garage/internal/auth"
	"github.com/sarelsmotors/garage/internal/database/models"
	"github.com/sarelsmotors/garage/internal/testutil"
	"github.com/sarelsmotors/garage/internal/web"
	"github.com/sarelsmotors/garage/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDashboardHandler(t *testing.T, tc *testutil.TestSetup) *handlers.DashboardHandler {
	t.Helper()

	templates, err := web.LoadTemplates()
	require.NoError(t, err)

	return handlers.NewDashboardHandler(handlers.DashboardConfig{
		DB:          tc.DB,
		AuthService: auth.NewService(tc.DB, tc.JWTService, nil, util.Discard()),
		Templates:   templates,
		CSRF:        middleware.NewCSRFStore(),
		Logger:      util.Discard(),
	})
}

// seedWork gives org two open quotes, one active job card and one unpaid
// invoice, plus closed work that must not be counted.
func seedWork(t *testing.T, db *gorm.DB, org *models.Organization) {
	t.Helper()

	vehicle := testutil.CreateTestVehicle(t, db, testutil.CreateTestCustomer(t, db, org))

	testutil.CreateTestQuote(t, db, vehicle, models.QuoteStatusDraft)
	testutil.CreateTestQuote(t, db, vehicle, models.QuoteStatusSent)
	accepted := testutil.CreateTestQuote(t, db, vehicle, models.QuoteStatusAccepted)

	testutil.CreateTestJobCard(t, db, vehicle, accepted, models.JobCardStatusInProgress)
	done := testutil.CreateTestJobCard(t, db, vehicle, nil, models.JobCardStatusCompleted)

	testutil.CreateTestInvoice(t, db, vehicle, done, models.InvoiceStatusSent)
	testutil.CreateTestInvoice(t, db, vehicle, nil, models.InvoiceStatusPaid)
}

func TestDashboardHandler_Stats(t *testing.T) {
	tc := testutil.NewTestContext(t)
	handler := newDashboardHandler(t, tc)

	seedWork(t, tc.DB, tc.Org)
	other := testutil.CreateTestOrg(t, tc.DB)
	seedWork(t, tc.DB, other)

	rr := httptest.NewRecorder()
	middleware.RequireAuth(tc.JWTService, nil, util.Discard())(http.HandlerFunc(handler.Stats)).
		ServeHTTP(rr, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/dashboard/stats", nil, tc.Token))

	testutil.AssertStatus(t, rr, http.StatusOK)
	var stats dto.DashboardStats
	testutil.ParseJSONResponse(t, rr, &stats)
	assert.Equal(t, dto.DashboardStats{OpenQuotes: 2, ActiveJobCards: 1, UnpaidInvoices: 1}, stats)
}

func TestDashboardHandler_Index(t *testing.T) {
	tc := testutil.NewTestContext(t)
	handler := newDashboardHandler(t, tc)
	seedWork(t, tc.DB, tc.Org)

	serve := func(token string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		middleware.RequireAuth(tc.JWTService, nil, util.Discard())(http.HandlerFunc(handler.Index)).
			ServeHTTP(rr, testutil.PageRequest("/", token))
		return rr
	}

	t.Run("renders the organization's workload", func(t *testing.T) {
		rr := serve(tc.Token)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
		body := rr.Body.String()
		assert.Contains(t, body, tc.Org.Name)
		assert.Contains(t, body, tc.User.Name)
		assert.Contains(t, body, `data-stat="open-quotes">2<`)
		assert.Contains(t, body, `data-csrf="`)
	})

	t.Run("user removed since the token was issued", func(t *testing.T) {
		gone := testutil.CreateTestUser(t, tc.DB, tc.Org)
		token := testutil.GenerateTestToken(t, tc.JWTService, gone)
		require.NoError(t, tc.DB.Model(gone).Update("is_active", false).Error)

		rr := serve(token)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("Location"))
		cookie := testutil.ResponseCookie(rr, middleware.CookieName)
		require.NotNil(t, cookie)
		assert.Less(t, cookie.MaxAge, 0)
	})
}

func TestDashboardHandler_Login(t *testing.T) {
	tc := testutil.NewTestContext(t)
	handler := newDashboardHandler(t, tc)

	tests := []struct {
		name   string
		path   string
		notice string
	}{
		{"plain", "/login", ""},
		{"expired session", "/login?error=invalid_token", "Your session has expired"},
		{"not configured", "/login?error=config_missing", "Sign-in is not available"},
		{"unknown code", "/login?error=whatever", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.Login(rr, testutil.PageRequest(tt.path, ""))

			testutil.AssertStatus(t, rr, http.StatusOK)
			body := rr.Body.String()
			assert.Contains(t, body, `id="login-form"`)
			if tt.notice != "" {
				assert.Contains(t, body, tt.notice)
			} else {
				assert.NotContains(t, body, `class="notice"`)
			}
		})
	}
}
