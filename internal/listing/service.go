package listing

import (
	"os"

	"github.com/sirupsen/logrus"

	"homestead/server/internal/apperrors"
	"homestead/server/internal/database"
	"homestead/server/internal/models"
	"homestead/server/internal/query"
)

// Service is the access gateway in front of the catalog store. It
// enforces ownership on mutations; reads are public.
type Service struct {
	db     *database.Database
	logger *logrus.Logger
}

func NewService(db *database.Database, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Service{db: db, logger: logger}
}

// Create stores a new listing owned by ownerID. The image URLs on the
// listing are taken as given; they come either from the ingestion
// pipeline or verbatim from the caller.
func (s *Service) Create(listing *models.Listing, ownerID string) (*models.Listing, error) {
	if listing.Name == "" {
		return nil, apperrors.Validation("Name is required")
	}
	if listing.Offer && listing.DiscountPrice > listing.RegularPrice {
		return nil, apperrors.Validation("Discount price cannot exceed regular price")
	}

	listing.OwnerRef = ownerID
	if listing.ImageURLs == nil {
		listing.ImageURLs = models.StringList{}
	}

	if err := s.db.CreateListing(listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// Update applies a partial change set to the listing at id on behalf of
// requesterID. The store-level update is conditional on ownership; the
// lookup beforehand only decides between NotFound and Forbidden.
func (s *Service) Update(id int64, changes map[string]interface{}, requesterID string) (*models.Listing, error) {
	current, err := s.db.GetListing(id)
	if err == database.ErrNotFound {
		return nil, apperrors.NotFound("Listing not found!")
	}
	if err != nil {
		return nil, err
	}
	if current.OwnerRef != requesterID {
		return nil, apperrors.Forbidden("You can only update your own listings!")
	}

	rows, err := s.db.UpdateListingOwned(id, requesterID, changes)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// The listing vanished or changed hands between lookup and update.
		return nil, apperrors.NotFound("Listing not found!")
	}

	updated, err := s.db.GetListing(id)
	if err == database.ErrNotFound {
		return nil, apperrors.NotFound("Listing not found!")
	}
	return updated, err
}

// Delete removes the listing at id on behalf of requesterID, with the
// same ownership rules as Update.
func (s *Service) Delete(id int64, requesterID string) error {
	current, err := s.db.GetListing(id)
	if err == database.ErrNotFound {
		return apperrors.NotFound("Listing not found!")
	}
	if err != nil {
		return err
	}
	if current.OwnerRef != requesterID {
		return apperrors.Forbidden("You can only delete your own listings!")
	}

	rows, err := s.db.DeleteListingOwned(id, requesterID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("Listing not found!")
	}
	return nil
}

// Get returns a listing by id. Listings are publicly readable.
func (s *Service) Get(id int64) (*models.Listing, error) {
	l, err := s.db.GetListing(id)
	if err == database.ErrNotFound {
		return nil, apperrors.NotFound("Listing not found!")
	}
	return l, err
}

// Search returns the listings matching a query descriptor.
func (s *Service) Search(desc query.Descriptor) ([]models.Listing, error) {
	listings, err := s.db.FindListings(desc)
	if err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	return listings, nil
}
