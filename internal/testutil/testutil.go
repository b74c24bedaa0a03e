package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sarelsmotors/garage/internal/auth"
	"github.com/sarelsmotors/garage/internal/database/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSecret   = "test-secret-key-for-testing"
	TestPassword = "testpassword123"
	CookieName   = "auth_token"
)

// SetupTestDB creates an in-memory SQLite database with foreign keys enforced
// and the full schema migrated. It is closed when the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// Every connection to :memory: is its own database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })

	return db
}

// CreateTestOrg creates a test organization
func CreateTestOrg(t *testing.T, db *gorm.DB) *models.Organization {
	t.Helper()

	org := &models.Organization{
		Name:      "Test Garage " + uuid.New().String()[:8],
		VATNumber: "4123456789",
	}

	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create test organization: %v", err)
	}

	return org
}

type UserOption func(*models.User)

func WithRole(role models.UserRole) UserOption {
	return func(u *models.User) { u.Role = role }
}

func WithEmail(email string) UserOption {
	return func(u *models.User) { u.Email = email }
}

func WithPassword(password string) UserOption {
	return func(u *models.User) {
		if password == "" {
			u.HashedPassword = ""
			return
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			panic(err)
		}
		u.HashedPassword = hash
	}
}

// Inactive marks the user as deactivated.
func Inactive() UserOption {
	return func(u *models.User) { u.IsActive = false }
}

// CreateTestUser creates an active OWNER with TestPassword unless options say otherwise.
func CreateTestUser(t *testing.T, db *gorm.DB, org *models.Organization, opts ...UserOption) *models.User {
	t.Helper()

	user := &models.User{
		Email:          "test-" + uuid.New().String()[:8] + "@example.com",
		Name:           "Test User",
		OrganizationID: org.ID,
		Role:           models.RoleOwner,
		IsActive:       true,
	}
	WithPassword(TestPassword)(user)
	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	// false is a zero value, so Create left the column default in place.
	if !user.IsActive {
		if err := db.Model(user).Update("is_active", false).Error; err != nil {
			t.Fatalf("failed to deactivate test user: %v", err)
		}
	}

	user.Organization = org
	return user
}

func CreateTestCustomer(t *testing.T, db *gorm.DB, org *models.Organization) *models.Customer {
	t.Helper()

	customer := &models.Customer{
		FirstName:      "Thabo",
		LastName:       "Nkosi",
		Email:          "thabo-" + uuid.New().String()[:8] + "@example.com",
		OrganizationID: org.ID,
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("failed to create test customer: %v", err)
	}
	return customer
}

// CreateTestVehicle creates a vehicle for customer along with a fresh make and model.
func CreateTestVehicle(t *testing.T, db *gorm.DB, customer *models.Customer) *models.Vehicle {
	t.Helper()

	suffix := uuid.New().String()[:8]
	vehicleMake := &models.VehicleMake{Name: "Toyota " + suffix}
	if err := db.Create(vehicleMake).Error; err != nil {
		t.Fatalf("failed to create test make: %v", err)
	}
	model := &models.VehicleModel{Name: "Hilux", MakeID: vehicleMake.ID}
	if err := db.Create(model).Error; err != nil {
		t.Fatalf("failed to create test model: %v", err)
	}

	vehicle := &models.Vehicle{
		RegistrationNumber: "CA " + suffix,
		Year:               2019,
		OrganizationID:     customer.OrganizationID,
		CustomerID:         customer.ID,
		MakeID:             vehicleMake.ID,
		ModelID:            model.ID,
	}
	if err := db.Create(vehicle).Error; err != nil {
		t.Fatalf("failed to create test vehicle: %v", err)
	}
	return vehicle
}

func CreateTestQuote(t *testing.T, db *gorm.DB, vehicle *models.Vehicle, status models.QuoteStatus) *models.Quote {
	t.Helper()

	quote := &models.Quote{
		QuoteNumber:    "Q-" + uuid.New().String()[:8],
		Status:         status,
		OrganizationID: vehicle.OrganizationID,
		CustomerID:     vehicle.CustomerID,
		VehicleID:      vehicle.ID,
	}
	if err := db.Create(quote).Error; err != nil {
		t.Fatalf("failed to create test quote: %v", err)
	}
	return quote
}

func CreateTestJobCard(t *testing.T, db *gorm.DB, vehicle *models.Vehicle, quote *models.Quote, status models.JobCardStatus) *models.JobCard {
	t.Helper()

	jobCard := &models.JobCard{
		JobCardNumber:  "JC-" + uuid.New().String()[:8],
		Status:         status,
		OrganizationID: vehicle.OrganizationID,
		CustomerID:     vehicle.CustomerID,
		VehicleID:      vehicle.ID,
	}
	if quote != nil {
		jobCard.QuoteID = &quote.ID
	}
	if err := db.Create(jobCard).Error; err != nil {
		t.Fatalf("failed to create test job card: %v", err)
	}
	return jobCard
}

func CreateTestInvoice(t *testing.T, db *gorm.DB, vehicle *models.Vehicle, jobCard *models.JobCard, status models.InvoiceStatus) *models.Invoice {
	t.Helper()

	invoice := &models.Invoice{
		InvoiceNumber:  "INV-" + uuid.New().String()[:8],
		Status:         status,
		OrganizationID: vehicle.OrganizationID,
		CustomerID:     vehicle.CustomerID,
		VehicleID:      vehicle.ID,
		Totals: models.Totals{
			SubTotal:  decimal.RequireFromString("100.00"),
			VATAmount: decimal.RequireFromString("15.00"),
			Total:     decimal.RequireFromString("115.00"),
		},
	}
	if jobCard != nil {
		invoice.JobCardID = &jobCard.ID
	}
	if err := db.Create(invoice).Error; err != nil {
		t.Fatalf("failed to create test invoice: %v", err)
	}
	return invoice
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService(opts ...auth.Option) *auth.JWTService {
	return auth.NewJWTService(TestSecret, 24*time.Hour, opts...)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.OrganizationID, string(user.Role))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with a bearer token
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// PageRequest creates a browser-style GET, with the session cookie when token is set.
func PageRequest(path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	}
	return req
}

// ResponseCookie returns the named cookie set on the response, or nil.
func ResponseCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService
	Org        *models.Organization
	User       *models.User
	Token      string
}

// NewTestContext creates a complete test setup with DB, org, user, and token
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	org := CreateTestOrg(t, db)
	user := CreateTestUser(t, db, org)
	token := GenerateTestToken(t, jwtService, user)

	return &TestSetup{
		DB:         db,
		JWTService: jwtService,
		Org:        org,
		User:       user,
		Token:      token,
	}
}
