package listing

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestead/server/internal/apperrors"
	"homestead/server/internal/database"
	"homestead/server/internal/models"
	"homestead/server/internal/query"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.NewDatabase(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	return NewService(db, logrus.New())
}

func validListing() *models.Listing {
	return &models.Listing{
		Name:         "Garden flat",
		Address:      "Elm Street 4",
		Type:         models.ListingTypeRent,
		RegularPrice: 1200,
		Bedrooms:     2,
		Bathrooms:    1,
		Area:         60,
	}
}

func TestService_Create(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(validListing(), "owner-1")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "owner-1", created.OwnerRef)
	assert.NotNil(t, created.ImageURLs)
}

func TestService_CreateRequiresName(t *testing.T) {
	svc := newTestService(t)

	l := validListing()
	l.Name = ""
	_, err := svc.Create(l, "owner-1")
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
}

func TestService_CreateDiscountInvariant(t *testing.T) {
	svc := newTestService(t)

	l := validListing()
	l.Offer = true
	l.RegularPrice = 1000
	l.DiscountPrice = 1100
	_, err := svc.Create(l, "owner-1")
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))

	// Without an offer the discount price is not checked
	l = validListing()
	l.Offer = false
	l.RegularPrice = 1000
	l.DiscountPrice = 1100
	_, err = svc.Create(l, "owner-1")
	assert.NoError(t, err)
}

func TestService_UpdateOwnership(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(validListing(), "owner-1")
	require.NoError(t, err)

	name := "Renamed flat"
	changes := map[string]interface{}{"name": name}

	// Non-owner is rejected with the contract's 401 and the record is
	// left unchanged
	_, err = svc.Update(created.ID, changes, "intruder")
	assert.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))

	unchanged, err := svc.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Garden flat", unchanged.Name)

	// Owner succeeds
	updated, err := svc.Update(created.ID, changes, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
}

func TestService_UpdateMissingListing(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Update(999, map[string]interface{}{"name": "x"}, "owner-1")
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))
}

func TestService_DeleteOwnership(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(validListing(), "owner-1")
	require.NoError(t, err)

	// Non-owner cannot delete
	err = svc.Delete(created.ID, "intruder")
	assert.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))

	still, err := svc.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, still.ID)

	// Owner deletes; a subsequent fetch reports NotFound
	require.NoError(t, svc.Delete(created.ID, "owner-1"))

	_, err = svc.Get(created.ID)
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))
}

func TestService_SearchReturnsEmptySlice(t *testing.T) {
	svc := newTestService(t)

	results, err := svc.Search(query.Descriptor{SortColumn: "created_at", Descending: true})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}
