package policy

import (
	"fmt"
	"strings"

	"clinic-management-api/internal/domain/entity"
)

// PrescriptionCheck is the guard's verdict for one medication name.
type PrescriptionCheck struct {
	CanPrescribe bool
	Warning      string
	Matches      []entity.Allergy
}

// Blocked reports whether a matching allergy forbids the prescription.
func (c PrescriptionCheck) Blocked() bool {
	return !c.CanPrescribe
}

// CheckPrescription matches medication against the patient's MEDICATION allergies.
// A match is a case-insensitive substring in either direction. Any SEVERE or
// ANAPHYLACTIC match blocks; MILD or MODERATE matches only warn.
func CheckPrescription(medication string, allergies []entity.Allergy) PrescriptionCheck {
	name := strings.ToLower(strings.TrimSpace(medication))
	check := PrescriptionCheck{CanPrescribe: true}
	if name == "" {
		return check
	}

	var blocking, soft []string
	for _, a := range allergies {
		if a.Type != entity.AllergyTypeMedication {
			continue
		}
		allergen := strings.ToLower(strings.TrimSpace(a.Allergen))
		if allergen == "" {
			continue
		}
		if !strings.Contains(name, allergen) && !strings.Contains(allergen, name) {
			continue
		}

		check.Matches = append(check.Matches, a)
		label := fmt.Sprintf("%s (%s)", a.Allergen, a.Severity)
		if a.Severity.Blocking() {
			blocking = append(blocking, label)
		} else {
			soft = append(soft, label)
		}
	}

	switch {
	case len(blocking) > 0:
		check.CanPrescribe = false
		check.Warning = fmt.Sprintf("Patient has a severe allergy matching %q: %s", medication, strings.Join(blocking, ", "))
	case len(soft) > 0:
		check.Warning = fmt.Sprintf("Patient has an allergy matching %q: %s", medication, strings.Join(soft, ", "))
	}
	return check
}
