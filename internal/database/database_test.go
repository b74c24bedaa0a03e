package database_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sarelsmotors/garage/internal/database/models"
	"github.com/sarelsmotors/garage/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestOrganizationDeleteCascades(t *testing.T) {
	db := testutil.SetupTestDB(t)

	org := testutil.CreateTestOrg(t, db)
	other := testutil.CreateTestOrg(t, db)
	testutil.CreateTestUser(t, db, org)
	testutil.CreateTestUser(t, db, other)

	customer := testutil.CreateTestCustomer(t, db, org)
	vehicle := testutil.CreateTestVehicle(t, db, customer)
	quote := testutil.CreateTestQuote(t, db, vehicle, models.QuoteStatusAccepted)
	jobCard := testutil.CreateTestJobCard(t, db, vehicle, quote, models.JobCardStatusCompleted)
	invoice := testutil.CreateTestInvoice(t, db, vehicle, jobCard, models.InvoiceStatusSent)

	require.NoError(t, db.Create(&models.ServiceItem{Description: "Oil change", OrganizationID: org.ID}).Error)
	require.NoError(t, db.Create(&models.LineItem{
		Description: "Labour",
		Quantity:    2,
		UnitPrice:   decimal.RequireFromString("450.00"),
		InvoiceID:   &invoice.ID,
	}).Error)

	require.NoError(t, db.Delete(&models.Organization{}, "id = ?", org.ID).Error)

	assert.Equal(t, int64(1), count(t, db, &models.User{}), "other tenant's user survives")
	assert.Zero(t, count(t, db, &models.Customer{}))
	assert.Zero(t, count(t, db, &models.Vehicle{}))
	assert.Zero(t, count(t, db, &models.ServiceItem{}))
	assert.Zero(t, count(t, db, &models.Quote{}))
	assert.Zero(t, count(t, db, &models.JobCard{}))
	assert.Zero(t, count(t, db, &models.Invoice{}))
	assert.Zero(t, count(t, db, &models.LineItem{}))
	assert.Equal(t, int64(1), count(t, db, &models.VehicleMake{}), "reference data is not tenant scoped")
}

func TestVehicleMakeDeleteRestricted(t *testing.T) {
	db := testutil.SetupTestDB(t)

	org := testutil.CreateTestOrg(t, db)
	vehicle := testutil.CreateTestVehicle(t, db, testutil.CreateTestCustomer(t, db, org))

	err := db.Delete(&models.VehicleMake{}, "id = ?", vehicle.MakeID).Error
	assert.Error(t, err)
	err = db.Delete(&models.VehicleModel{}, "id = ?", vehicle.ModelID).Error
	assert.Error(t, err)

	require.NoError(t, db.Delete(&models.Vehicle{}, "id = ?", vehicle.ID).Error)
	assert.NoError(t, db.Delete(&models.VehicleMake{}, "id = ?", vehicle.MakeID).Error)
	assert.Zero(t, count(t, db, &models.VehicleModel{}), "models cascade with their make")
}

func TestWorkflowLinksSetNull(t *testing.T) {
	db := testutil.SetupTestDB(t)

	org := testutil.CreateTestOrg(t, db)
	vehicle := testutil.CreateTestVehicle(t, db, testutil.CreateTestCustomer(t, db, org))
	quote := testutil.CreateTestQuote(t, db, vehicle, models.QuoteStatusAccepted)
	jobCard := testutil.CreateTestJobCard(t, db, vehicle, quote, models.JobCardStatusCompleted)
	invoice := testutil.CreateTestInvoice(t, db, vehicle, jobCard, models.InvoiceStatusDraft)

	require.NoError(t, db.Delete(&models.Quote{}, "id = ?", quote.ID).Error)
	var gotJobCard models.JobCard
	require.NoError(t, db.First(&gotJobCard, "id = ?", jobCard.ID).Error)
	assert.Nil(t, gotJobCard.QuoteID)

	require.NoError(t, db.Delete(&models.JobCard{}, "id = ?", jobCard.ID).Error)
	var gotInvoice models.Invoice
	require.NoError(t, db.First(&gotInvoice, "id = ?", invoice.ID).Error)
	assert.Nil(t, gotInvoice.JobCardID)
	assert.True(t, gotInvoice.Total.Equal(decimal.RequireFromString("115")))
}

func TestJobCardQuoteIsUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)

	org := testutil.CreateTestOrg(t, db)
	vehicle := testutil.CreateTestVehicle(t, db, testutil.CreateTestCustomer(t, db, org))
	quote := testutil.CreateTestQuote(t, db, vehicle, models.QuoteStatusAccepted)
	testutil.CreateTestJobCard(t, db, vehicle, quote, models.JobCardStatusPending)

	dup := &models.JobCard{
		JobCardNumber:  "JC-dup",
		OrganizationID: org.ID,
		CustomerID:     vehicle.CustomerID,
		VehicleID:      vehicle.ID,
		QuoteID:        &quote.ID,
	}
	assert.Error(t, db.Create(dup).Error)
}

func TestLineItemSingleParent(t *testing.T) {
	db := testutil.SetupTestDB(t)

	org := testutil.CreateTestOrg(t, db)
	vehicle := testutil.CreateTestVehicle(t, db, testutil.CreateTestCustomer(t, db, org))
	quote := testutil.CreateTestQuote(t, db, vehicle, models.QuoteStatusDraft)
	jobCard := testutil.CreateTestJobCard(t, db, vehicle, nil, models.JobCardStatusPending)

	t.Run("rejects orphan", func(t *testing.T) {
		err := db.Create(&models.LineItem{Description: "x", UnitPrice: decimal.NewFromInt(1)}).Error
		assert.ErrorIs(t, err, models.ErrLineItemParent)
	})

	t.Run("rejects two parents", func(t *testing.T) {
		err := db.Create(&models.LineItem{
			Description: "x",
			UnitPrice:   decimal.NewFromInt(1),
			QuoteID:     &quote.ID,
			JobCardID:   &jobCard.ID,
		}).Error
		assert.ErrorIs(t, err, models.ErrLineItemParent)
	})

	t.Run("check constraint holds without hooks", func(t *testing.T) {
		err := db.Exec(
			"INSERT INTO line_items (id, description, quantity, unit_price, total, quote_id, job_card_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
			uuid.New(), "raw", 1, "1.00", "1.00", quote.ID, jobCard.ID,
		).Error
		assert.Error(t, err)
	})

	t.Run("computes total", func(t *testing.T) {
		item := &models.LineItem{
			Description: "Brake pads",
			Quantity:    3,
			UnitPrice:   decimal.RequireFromString("120.50"),
			QuoteID:     &quote.ID,
		}
		require.NoError(t, db.Create(item).Error)
		assert.True(t, item.Total.Equal(decimal.RequireFromString("361.50")), item.Total.String())

		require.NoError(t, db.Delete(&models.Quote{}, "id = ?", quote.ID).Error)
		assert.Zero(t, count(t, db, &models.LineItem{}))
	})

	t.Run("defaults quantity to one", func(t *testing.T) {
		item := &models.LineItem{
			Description: "Diagnostics",
			UnitPrice:   decimal.RequireFromString("300"),
			JobCardID:   &jobCard.ID,
		}
		require.NoError(t, db.Create(item).Error)
		assert.Equal(t, 1, item.Quantity)
		assert.True(t, item.Total.Equal(decimal.RequireFromString("300")))
	})
}

func TestUserEmailIsUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)

	dup := &models.User{Email: user.Email, OrganizationID: org.ID}
	assert.Error(t, db.Create(dup).Error)
}

func TestUserEmailIsStoredLowerCase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)

	user := testutil.CreateTestUser(t, db, org, testutil.WithEmail("  Workshop.Manager@Garage.co.za "))
	assert.Equal(t, "workshop.manager@garage.co.za", user.Email)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, "workshop.manager@garage.co.za", stored.Email)

	dup := &models.User{Email: "WORKSHOP.MANAGER@garage.co.za", OrganizationID: org.ID}
	assert.Error(t, db.Create(dup).Error, "addresses differing only by case collide")
}
