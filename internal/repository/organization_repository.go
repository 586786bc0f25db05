package repository

import (
	"github.com/reportdesk/report-portal/internal/models"
	"gorm.io/gorm"
)

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// Create creates a new organization
func (r *GormOrganizationRepository) Create(org *models.Organization) error {
	return r.db.Create(org).Error
}

// FindByID finds an organization by ID
func (r *GormOrganizationRepository) FindByID(id uint64) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.First(&org, id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// FindByIDs finds the organizations with the given IDs
func (r *GormOrganizationRepository) FindByIDs(ids []uint64) ([]models.Organization, error) {
	var orgs []models.Organization
	if len(ids) == 0 {
		return orgs, nil
	}
	err := r.db.Where("id IN ?", ids).Order("id ASC").Find(&orgs).Error
	return orgs, err
}

// List retrieves organizations with filtering
func (r *GormOrganizationRepository) List(filter OrganizationFilter) ([]models.Organization, error) {
	query := r.db.Model(&models.Organization{})
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}

	var orgs []models.Organization
	err := query.Order("name ASC").Find(&orgs).Error
	return orgs, err
}

// ListChildren lists the direct children of an organization
func (r *GormOrganizationRepository) ListChildren(parentID uint64) ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.db.Where("parent_id = ?", parentID).Order("name ASC").Find(&orgs).Error
	return orgs, err
}

// Update updates an organization
func (r *GormOrganizationRepository) Update(org *models.Organization) error {
	return r.db.Omit("Children", "Users", "Assignments").Save(org).Error
}

// Delete deletes an organization and its assignments in a transaction. Its
// children are attached to its own parent and its users lose their
// organization.
func (r *GormOrganizationRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		if err := tx.First(&org, id).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Organization{}).
			Where("parent_id = ?", id).
			Update("parent_id", org.ParentID).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).
			Where("organization_id = ?", id).
			Update("organization_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Where("organization_id = ?", id).Delete(&models.AssignedReport{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Organization{}, id).Error
	})
}
