package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/driverlink/driverlink/internal/dto"
	"github.com/driverlink/driverlink/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrIncidentNotFound = errors.New("incident not found")
	ErrNotIncidentOwner = errors.New("caller does not own this incident")
)

const incidentPageSize = 20

type IncidentService struct {
	db *gorm.DB
}

func NewIncidentService(db *gorm.DB) *IncidentService {
	return &IncidentService{db: db}
}

func (s *IncidentService) Create(reporterID uuid.UUID, req *dto.CreateIncidentRequest) (*models.Incident, error) {
	if err := validateIncidentInput(req.Title, req.Description, req.Type); err != nil {
		return nil, err
	}

	incident := models.Incident{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		ReporterID:  reporterID,
		Type:        req.Type,
		Status:      models.StatusPending,
		Active:      true,
		Location: models.Location{
			ID:        uuid.New(),
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
			Address:   req.Location.Address,
			Area:      req.Location.Area,
			City:      req.Location.City,
			Province:  req.Location.Province,
		},
	}

	if err := s.db.Create(&incident).Error; err != nil {
		return nil, fmt.Errorf("failed to create incident: %w", err)
	}
	return &incident, nil
}

func (s *IncidentService) Get(id uuid.UUID) (*models.Incident, error) {
	var incident models.Incident
	err := s.db.Preload("Location").First(&incident, "id = ? AND active", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to load incident: %w", err)
	}
	return &incident, nil
}

// List returns active incidents newest first, filtered and paged.
// Page is 1-based; values below 1 are treated as 1.
func (s *IncidentService) List(filter dto.IncidentFilter, page int) ([]models.Incident, int64, error) {
	if page < 1 {
		page = 1
	}

	q := s.db.Model(&models.Incident{}).Where("incidents.active")
	if filter.Status != "" {
		q = q.Where("incidents.status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("incidents.type = ?", filter.Type)
	}
	if filter.City != "" {
		q = q.Joins("JOIN locations ON locations.id = incidents.location_id").
			Where("locations.city ILIKE ?", filter.City)
	}
	if filter.StartDate != nil {
		q = q.Where("incidents.created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("incidents.created_at <= ?", *filter.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count incidents: %w", err)
	}

	var incidents []models.Incident
	err := q.Preload("Location").
		Order("incidents.created_at DESC, incidents.id").
		Offset((page - 1) * incidentPageSize).
		Limit(incidentPageSize).
		Find(&incidents).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list incidents: %w", err)
	}
	return incidents, total, nil
}

func (s *IncidentService) Update(callerID uuid.UUID, id uuid.UUID, req *dto.UpdateIncidentRequest) (*models.Incident, error) {
	if err := validateIncidentInput(req.Title, req.Description, req.Type); err != nil {
		return nil, err
	}

	incident, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if incident.ReporterID != callerID {
		return nil, ErrNotIncidentOwner
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"title":       strings.TrimSpace(req.Title),
			"description": strings.TrimSpace(req.Description),
			"type":        req.Type,
		}
		if err := tx.Model(&models.Incident{}).
			Where("id = ? AND active", id).
			Updates(updates).Error; err != nil {
			return err
		}
		if req.Location != nil {
			return tx.Model(&models.Location{}).
				Where("id = ?", incident.LocationID).
				Updates(map[string]interface{}{
					"latitude":  req.Location.Latitude,
					"longitude": req.Location.Longitude,
					"address":   req.Location.Address,
					"area":      req.Location.Area,
					"city":      req.Location.City,
					"province":  req.Location.Province,
				}).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update incident: %w", err)
	}

	return s.Get(id)
}

// Delete deactivates the incident. Attached feedback rows keep their own
// active flags; they simply become unreachable through incident lookups.
func (s *IncidentService) Delete(callerID uuid.UUID, id uuid.UUID, isAdmin bool) error {
	incident, err := s.Get(id)
	if err != nil {
		return err
	}
	if !isAdmin && incident.ReporterID != callerID {
		return ErrNotIncidentOwner
	}
	return s.db.Model(&models.Incident{}).
		Where("id = ? AND active", id).
		Update("active", false).Error
}

// SetStatus is the admin verification transition.
func (s *IncidentService) SetStatus(id uuid.UUID, status models.IncidentStatus) (*models.Incident, error) {
	switch status {
	case models.StatusPending, models.StatusVerified, models.StatusResolved, models.StatusRejected:
	default:
		return nil, fmt.Errorf("invalid status %q", status)
	}

	res := s.db.Model(&models.Incident{}).
		Where("id = ? AND active", id).
		Update("status", status)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrIncidentNotFound
	}
	return s.Get(id)
}

func validateIncidentInput(title, description string, t models.IncidentType) error {
	if len(strings.TrimSpace(title)) < 3 {
		return errors.New("title must be at least 3 characters")
	}
	if len(strings.TrimSpace(description)) == 0 {
		return errors.New("description is required")
	}
	if !models.ValidIncidentType(t) {
		return fmt.Errorf("invalid incident type %q", t)
	}
	return nil
}
