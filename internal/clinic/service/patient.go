package service

import (
	"context"

	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/repository"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/logger"
)

// PatientService handles patient registration and lookup
type PatientService struct {
	patients *repository.PatientRepository
	logger   *logger.Logger
}

// NewPatientService creates a new patient service
func NewPatientService(db *database.DB, log *logger.Logger) *PatientService {
	return &PatientService{
		patients: repository.NewPatientRepository(db),
		logger:   log.WithComponent("patients"),
	}
}

// Add registers a new patient
func (s *PatientService) Add(ctx context.Context, in domain.PatientInput) (*domain.Patient, error) {
	p, err := in.ToPatient(true)
	if err != nil {
		return nil, err
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, surface(s.logger, "Add", database.MapError(err), "Failed to add patient")
	}

	s.logger.Info().Int64("patient_id", p.ID).Msg("Patient registered")
	return p, nil
}

// Update edits an existing patient
func (s *PatientService) Update(ctx context.Context, id int64, in domain.PatientInput) (*domain.Patient, error) {
	p, err := in.ToPatient(false)
	if err != nil {
		return nil, err
	}
	if err := s.patients.Update(ctx, id, p); err != nil {
		return nil, surface(s.logger, "Update", database.MapError(err), "Failed to update patient")
	}
	return s.Get(ctx, id)
}

// Get gets a patient by ID
func (s *PatientService) Get(ctx context.Context, id int64) (*domain.Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, surface(s.logger, "Get", err, "Failed to load patient")
	}
	return p, nil
}

// Search lists one page of patients whose field contains query. field is
// one of name, telephone or nic; empty means name.
func (s *PatientService) Search(ctx context.Context, field, query string, page int) ([]domain.Patient, error) {
	if page < 1 {
		page = 1
	}
	size := domain.PatientPageSize
	patients, err := s.patients.Search(ctx, field, query, size, (page-1)*size)
	if err != nil {
		return nil, surface(s.logger, "Search", err, "Failed to search patients")
	}
	return patients, nil
}

// SearchPages is the page count of Search
func (s *PatientService) SearchPages(ctx context.Context, field, query string) (int, error) {
	n, err := s.patients.Count(ctx, field, query)
	if err != nil {
		return 0, surface(s.logger, "SearchPages", err, "Failed to search patients")
	}
	return domain.TotalPages(n, domain.PatientPageSize), nil
}
