package fhir

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewCollectionBundle_Empty(t *testing.T) {
	b := NewCollectionBundle(nil, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	if b.ResourceType != "Bundle" {
		t.Errorf("expected Bundle, got %s", b.ResourceType)
	}
	if b.Type != "collection" {
		t.Errorf("expected collection, got %s", b.Type)
	}
	if b.Total == nil || *b.Total != 0 {
		t.Errorf("expected total 0, got %v", b.Total)
	}

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"entry":[]`) {
		t.Errorf("expected empty entry array, got %s", data)
	}
	if !strings.Contains(string(data), `"total":0`) {
		t.Errorf("expected total 0 in JSON, got %s", data)
	}
}

func TestNewCollectionBundle_Total(t *testing.T) {
	entries := []BundleEntry{{FullURL: "Observation/1"}, {FullURL: "Observation/2"}}
	b := NewCollectionBundle(entries, time.Now())
	if *b.Total != 2 {
		t.Errorf("expected total 2, got %d", *b.Total)
	}
	if b.ID == "" {
		t.Error("expected bundle id")
	}
}

func TestNewEntry_FullURL(t *testing.T) {
	e, err := NewEntry("Observation", "mood-7", Observation{ResourceType: "Observation", ID: "mood-7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.FullURL != "Observation/mood-7" {
		t.Errorf("unexpected fullUrl %q", e.FullURL)
	}

	id := "0b6c8f2e-2a35-4bd2-9d0e-5a3c1f7e9a11"
	e, err = NewEntry("Patient", id, Patient{ResourceType: "Patient", ID: id})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.FullURL != "urn:uuid:"+id {
		t.Errorf("unexpected fullUrl %q", e.FullURL)
	}

	var p Patient
	if err := json.Unmarshal(e.Resource, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.ID != id {
		t.Errorf("expected id %s, got %s", id, p.ID)
	}
}

func TestOutcomes(t *testing.T) {
	oo := ForbiddenOutcome("not allowed")
	if oo.ResourceType != "OperationOutcome" {
		t.Errorf("unexpected resourceType %s", oo.ResourceType)
	}
	if oo.Issue[0].Code != "forbidden" || oo.Issue[0].Severity != "error" {
		t.Errorf("unexpected issue %+v", oo.Issue[0])
	}
	if RequiredOutcome("x").Issue[0].Code != "required" {
		t.Error("expected required code")
	}
	if ErrorOutcome("x").Issue[0].Code != "processing" {
		t.Error("expected processing code")
	}
}
