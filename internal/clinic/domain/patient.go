package domain

import (
	"strings"
	"time"

	"github.com/medflow/clinic-backend/pkg/errors"
)

// Genders accepted on a patient record
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
)

// PatientSearchFields are the columns a patient search may filter on
var PatientSearchFields = map[string]string{
	"name":      "name",
	"telephone": "telephone",
	"nic":       "nic",
}

// PatientInput is the patient form
type PatientInput struct {
	Name      string   `json:"name"`
	NIC       *string  `json:"nic"`
	Telephone string   `json:"telephone"`
	BirthDate string   `json:"birth_date"`
	Address   *string  `json:"address"`
	Height    *float64 `json:"height"`
	Weight    *float64 `json:"weight"`
	Gender    string   `json:"gender"`
}

// ToPatient validates the form and builds the record. requireTelephoneLength
// is set when registering a new patient.
func (in PatientInput) ToPatient(requireTelephoneLength bool) (*Patient, error) {
	gender := strings.ToUpper(strings.TrimSpace(in.Gender))
	if gender != GenderMale && gender != GenderFemale {
		return nil, errors.BadRequest("Select a valid Gender")
	}

	name := strings.TrimSpace(in.Name)
	telephone := strings.TrimSpace(in.Telephone)
	if name == "" || telephone == "" {
		return nil, errors.BadRequest("Please fill all fields")
	}

	if requireTelephoneLength && len(telephone) != 10 {
		return nil, errors.BadRequest("Invalid telephone number")
	}

	birth, err := time.Parse("2006-01-02", strings.TrimSpace(in.BirthDate))
	if err != nil {
		return nil, errors.BadRequest("Invalid birth date")
	}

	return &Patient{
		Name:      name,
		NIC:       in.NIC,
		Telephone: telephone,
		BirthDate: &birth,
		Address:   in.Address,
		Height:    in.Height,
		Weight:    in.Weight,
		Gender:    gender,
	}, nil
}
