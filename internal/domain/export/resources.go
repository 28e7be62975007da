package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/healingspace/healingspace/internal/domain/identity"
	"github.com/healingspace/healingspace/internal/domain/wellness"
	"github.com/healingspace/healingspace/internal/platform/fhir"
)

const (
	nhsNumberSystem   = "https://fhir.nhs.uk/Id/nhs-number"
	categorySystem    = "http://terminology.hl7.org/CodeSystem/observation-category"
	ucumSystem        = "http://unitsofmeasure.org"
	moodCodeText      = "Mood score"
	sleepCodeText     = "Sleep hours"
	gratitudeCodeText = "Gratitude journal entry"
)

var surveyCategory = []fhir.CodeableConcept{{
	Coding: []fhir.Coding{{System: categorySystem, Code: "survey", Display: "Survey"}},
}}

func patientRef(username string) fhir.Reference {
	return fhir.Reference{Reference: "Patient/" + username}
}

func toFHIRPatient(u *identity.User) fhir.Patient {
	p := fhir.Patient{
		ResourceType: "Patient",
		ID:           u.Username,
		Active:       true,
	}
	if u.NHSNumber != "" {
		p.Identifier = []fhir.Identifier{{Use: "official", System: nhsNumberSystem, Value: u.NHSNumber}}
	}
	if name := strings.TrimSpace(u.FullName); name != "" {
		hn := fhir.HumanName{Use: "official", Text: name}
		parts := strings.Fields(name)
		if len(parts) > 1 {
			hn.Given = parts[:len(parts)-1]
			hn.Family = parts[len(parts)-1]
		} else {
			hn.Given = parts
		}
		p.Name = []fhir.HumanName{hn}
	}
	if _, err := time.Parse("2006-01-02", u.DOB); err == nil {
		p.BirthDate = u.DOB
	}
	if u.Email != "" {
		p.Telecom = append(p.Telecom, fhir.ContactPoint{System: "email", Value: u.Email})
	}
	if u.Phone != "" {
		p.Telecom = append(p.Telecom, fhir.ContactPoint{System: "phone", Value: u.Phone, Use: "mobile"})
	}
	if u.Area != "" || u.Postcode != "" || u.Country != "" {
		p.Address = []fhir.Address{{Use: "home", District: u.Area, PostalCode: u.Postcode, Country: u.Country}}
	}
	if u.ClinicianID != "" {
		p.GeneralPractitioner = []fhir.Reference{{Reference: "Practitioner/" + u.ClinicianID}}
	}
	return p
}

func moodObservation(username string, m *wellness.MoodLog) fhir.Observation {
	mood := m.MoodVal
	obs := fhir.Observation{
		ResourceType:      "Observation",
		ID:                "mood-" + strconv.FormatInt(m.ID, 10),
		Status:            "final",
		Category:          surveyCategory,
		Code:              fhir.CodeableConcept{Text: moodCodeText},
		Subject:           patientRef(username),
		EffectiveDateTime: m.Timestamp.UTC().Format(time.RFC3339),
		ValueInteger:      &mood,
	}
	if m.SleepVal > 0 {
		obs.Component = append(obs.Component, fhir.ObservationComponent{
			Code:          fhir.CodeableConcept{Text: sleepCodeText},
			ValueQuantity: &fhir.Quantity{Value: m.SleepVal, Unit: "h", System: ucumSystem, Code: "h"},
		})
	}
	if m.Meds != "" {
		obs.Component = append(obs.Component, fhir.ObservationComponent{
			Code:        fhir.CodeableConcept{Text: "Medication taken"},
			ValueString: m.Meds,
		})
	}
	if m.Notes != "" {
		obs.Note = []fhir.Annotation{{Text: m.Notes}}
	}
	return obs
}

func gratitudeObservation(username string, g *wellness.GratitudeLog) fhir.Observation {
	return fhir.Observation{
		ResourceType:      "Observation",
		ID:                fmt.Sprintf("gratitude-%d", g.ID),
		Status:            "final",
		Category:          surveyCategory,
		Code:              fhir.CodeableConcept{Text: gratitudeCodeText},
		Subject:           patientRef(username),
		EffectiveDateTime: g.Timestamp.UTC().Format(time.RFC3339),
		ValueString:       g.Entry,
	}
}
