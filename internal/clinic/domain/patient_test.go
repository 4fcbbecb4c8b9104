package domain

import (
	"testing"

	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPatient() PatientInput {
	return PatientInput{
		Name:      "Kamala Silva",
		Telephone: "0771234567",
		BirthDate: "1984-02-29",
		Gender:    "female",
	}
}

func TestPatientInput_ToPatient(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PatientInput)
		isNew   bool
		wantMsg string
	}{
		{"valid", func(*PatientInput) {}, true, ""},
		{"gender missing", func(p *PatientInput) { p.Gender = "" }, true, "Select a valid Gender"},
		{"name missing", func(p *PatientInput) { p.Name = "  " }, true, "Please fill all fields"},
		{"telephone missing", func(p *PatientInput) { p.Telephone = "" }, false, "Please fill all fields"},
		{"short telephone on add", func(p *PatientInput) { p.Telephone = "077123" }, true, "Invalid telephone number"},
		{"short telephone on update", func(p *PatientInput) { p.Telephone = "077123" }, false, ""},
		{"bad birth date", func(p *PatientInput) { p.BirthDate = "1984-02-30" }, true, "Invalid birth date"},
		{"empty birth date", func(p *PatientInput) { p.BirthDate = "" }, false, "Invalid birth date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validPatient()
			tt.mutate(&in)

			p, err := in.ToPatient(tt.isNew)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, GenderFemale, p.Gender)
				require.NotNil(t, p.BirthDate)
				return
			}

			var appErr *errors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantMsg, appErr.Message)
			assert.Equal(t, 400, appErr.StatusCode)
		})
	}
}
