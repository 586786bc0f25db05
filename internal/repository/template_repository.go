package repository

import (
	"github.com/reportdesk/report-portal/internal/database"
	"github.com/reportdesk/report-portal/internal/models"
	"gorm.io/gorm"
)

// GormTemplateRepository is a GORM implementation of TemplateRepository
type GormTemplateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new TemplateRepository
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &GormTemplateRepository{db: db}
}

// Create creates a new template
func (r *GormTemplateRepository) Create(template *models.ReportTemplate) error {
	return r.db.Omit("Department", "Assignments").Create(template).Error
}

// FindByID finds a template by ID with optional preloading
func (r *GormTemplateRepository) FindByID(id uint64, preload ...string) (*models.ReportTemplate, error) {
	var template models.ReportTemplate
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&template, id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

// List retrieves templates with filtering and pagination
func (r *GormTemplateRepository) List(filter TemplateFilter) ([]models.ReportTemplate, int64, error) {
	query := r.db.Model(&models.ReportTemplate{})
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.Search != "" {
		query = query.Where("name LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("name ASC").Scopes(database.Paginate(filter.Page, filter.PageSize))

	var templates []models.ReportTemplate
	if err := listQuery.Find(&templates).Error; err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

// Update saves every column of a template
func (r *GormTemplateRepository) Update(template *models.ReportTemplate) error {
	return r.db.Omit("Department", "Assignments").Save(template).Error
}

// Delete soft deletes a template together with its assignments
func (r *GormTemplateRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", id).Delete(&models.AssignedReport{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.ReportTemplate{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Count counts templates
func (r *GormTemplateRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.ReportTemplate{}).Count(&count).Error
	return count, err
}
