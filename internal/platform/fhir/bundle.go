package fhir

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Bundle represents a FHIR Bundle resource.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Meta         *Meta         `json:"meta,omitempty"`
	Type         string        `json:"type"`
	Timestamp    *time.Time    `json:"timestamp,omitempty"`
	Total        *int          `json:"total,omitempty"`
	Entry        []BundleEntry `json:"entry"`
}

type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
}

// NewCollectionBundle wraps entries in a collection Bundle. A nil slice is
// rendered as an empty entry array so an empty export is still valid JSON
// for FHIR consumers.
func NewCollectionBundle(entries []BundleEntry, now time.Time) *Bundle {
	if entries == nil {
		entries = []BundleEntry{}
	}
	ts := now.UTC()
	total := len(entries)
	return &Bundle{
		ResourceType: "Bundle",
		ID:           uuid.NewString(),
		Meta:         &Meta{LastUpdated: ts},
		Type:         "collection",
		Timestamp:    &ts,
		Total:        &total,
		Entry:        entries,
	}
}

// NewEntry marshals a resource into a bundle entry addressed as
// urn:uuid:<id> when the id is a UUID, or <type>/<id> otherwise.
func NewEntry(resourceType, id string, resource interface{}) (BundleEntry, error) {
	raw, err := json.Marshal(resource)
	if err != nil {
		return BundleEntry{}, fmt.Errorf("marshal %s/%s: %w", resourceType, id, err)
	}
	fullURL := resourceType + "/" + id
	if _, err := uuid.Parse(id); err == nil {
		fullURL = "urn:uuid:" + id
	}
	return BundleEntry{FullURL: fullURL, Resource: raw}, nil
}
