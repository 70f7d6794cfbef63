package database

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"homestead/server/internal/models"
	"homestead/server/internal/query"
)

// ErrNotFound is returned when no listing exists at the given id.
var ErrNotFound = errors.New("listing not found")

// Database is the catalog store holding listing records.
type Database struct {
	db *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Database{db: db}, nil
}

// RunMigrations creates or updates the listings schema.
func (d *Database) RunMigrations() error {
	if err := d.db.AutoMigrate(&models.Listing{}); err != nil {
		return fmt.Errorf("failed to migrate listings table: %w", err)
	}
	return nil
}

// CreateListing inserts a new listing and fills in its generated id.
func (d *Database) CreateListing(listing *models.Listing) error {
	if err := d.db.Create(listing).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// GetListing returns the listing at id, or ErrNotFound.
func (d *Database) GetListing(id int64) (*models.Listing, error) {
	var listing models.Listing
	err := d.db.First(&listing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

// UpdateListingOwned applies changes to the listing at id only if it is
// owned by ownerRef. The ownership condition is part of the UPDATE
// itself so a concurrent owner change or delete cannot slip between
// check and write. Returns the number of rows touched.
func (d *Database) UpdateListingOwned(id int64, ownerRef string, changes map[string]interface{}) (int64, error) {
	result := d.db.Model(&models.Listing{}).
		Where("id = ? AND owner_ref = ?", id, ownerRef).
		Updates(changes)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update listing: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteListingOwned removes the listing at id only if it is owned by
// ownerRef. Deletion is immediate; there is no soft delete.
func (d *Database) DeleteListingOwned(id int64, ownerRef string) (int64, error) {
	result := d.db.Where("id = ? AND owner_ref = ?", id, ownerRef).Delete(&models.Listing{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete listing: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// FindListings executes a query descriptor and returns the full
// matching set, ordered by the descriptor's sort column with id as a
// deterministic tie-break.
func (d *Database) FindListings(desc query.Descriptor) ([]models.Listing, error) {
	tx := d.db.Model(&models.Listing{})
	if desc.Type != "" {
		tx = tx.Where("type = ?", desc.Type)
	}
	if desc.OfferOnly {
		tx = tx.Where("offer = ?", true)
	}

	direction := "ASC"
	if desc.Descending {
		direction = "DESC"
	}
	tx = tx.Order(desc.SortColumn + " " + direction).Order("id DESC")

	var listings []models.Listing
	if err := tx.Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to find listings: %w", err)
	}
	return listings, nil
}

// ReferencedImageURLs returns the set of image URLs referenced by any
// listing. Used by the sweeper to detect orphaned upload files.
func (d *Database) ReferencedImageURLs() (map[string]bool, error) {
	var lists []models.StringList
	if err := d.db.Model(&models.Listing{}).Pluck("image_urls", &lists).Error; err != nil {
		return nil, fmt.Errorf("failed to collect image URLs: %w", err)
	}

	referenced := make(map[string]bool)
	for _, urls := range lists {
		for _, url := range urls {
			referenced[url] = true
		}
	}
	return referenced, nil
}

// GetDB exposes the underlying gorm handle.
func (d *Database) GetDB() *gorm.DB {
	return d.db
}
