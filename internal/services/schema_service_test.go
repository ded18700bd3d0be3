package services

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/mizuhara/dyntraits/internal/entities"
)

const testDocument = `{
	"traits": {
		"points": {
			"displayName": "Points",
			"dataType": {"type": "decimal", "bits": 16},
			"consumptionValidationOnSale": "requireUintGte"
		},
		"name": {
			"displayName": "Name",
			"dataType": {"type": "string", "minLength": 1, "maxLength": 32},
			"tokenOwnerCanUpdateValue": true
		},
		"redeemed": {
			"displayName": "Redeemed",
			"dataType": {"type": "boolean"}
		}
	}
}`

func newTestSchemaService() (*SchemaService, *mockSchemaRepository, *mockEventRepository) {
	schemaRepo := newMockSchemaRepository()
	eventRepo := newMockEventRepository()
	return NewSchemaService(schemaRepo, eventRepo), schemaRepo, eventRepo
}

func TestSchemaService_UpdateMetadata(t *testing.T) {
	service, _, eventRepo := newTestSchemaService()
	ctx := context.Background()

	version, err := service.UpdateMetadata(ctx, "0xc0ffee", "https://example.com/traits.json", testDocument)
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if version == "" {
		t.Fatal("expected a version ID")
	}

	loaded, err := service.GetSchema(ctx, "0xc0ffee")
	if err != nil {
		t.Fatalf("GetSchema: %v", err)
	}
	if loaded.Len() != 3 {
		t.Errorf("schema has %d traits, want 3", loaded.Len())
	}
	if loaded.Version != version {
		t.Errorf("schema version = %q, want %q", loaded.Version, version)
	}

	event := eventRepo.last()
	if event == nil {
		t.Fatal("expected a metadata event")
	}
	if event.Type != entities.EventTraitMetadataURIUpdated {
		t.Errorf("event type = %s, want %s", event.Type, entities.EventTraitMetadataURIUpdated)
	}
	if event.URI != "https://example.com/traits.json" {
		t.Errorf("event URI = %q", event.URI)
	}
}

func TestSchemaService_UpdateMetadataDataURI(t *testing.T) {
	service, _, _ := newTestSchemaService()
	ctx := context.Background()

	uri := "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(testDocument))

	if _, err := service.UpdateMetadata(ctx, "0xc0ffee", uri, ""); err != nil {
		t.Fatalf("UpdateMetadata with data URI: %v", err)
	}

	loaded, err := service.GetSchema(ctx, "0xc0ffee")
	if err != nil {
		t.Fatalf("GetSchema: %v", err)
	}
	if loaded.Len() != 3 {
		t.Errorf("schema has %d traits, want 3", loaded.Len())
	}
}

func TestSchemaService_RejectedDocumentKeepsCurrentSchema(t *testing.T) {
	service, schemaRepo, eventRepo := newTestSchemaService()
	ctx := context.Background()

	if _, err := service.UpdateMetadata(ctx, "0xc0ffee", "https://example.com/v1.json", testDocument); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	versions := len(schemaRepo.records["0xc0ffee"])
	events := eventRepo.count()

	bad := `{"traits": {"broken": {"displayName": "Broken", "dataType": {"type": "quaternion"}}}}`
	_, err := service.UpdateMetadata(ctx, "0xc0ffee", "https://example.com/v2.json", bad)
	if !errors.Is(err, entities.ErrUnknownDataType) {
		t.Fatalf("expected ErrUnknownDataType, got %v", err)
	}

	if len(schemaRepo.records["0xc0ffee"]) != versions {
		t.Error("rejected document must not create a version")
	}
	if eventRepo.count() != events {
		t.Error("rejected document must not emit an event")
	}

	loaded, err := service.GetSchema(ctx, "0xc0ffee")
	if err != nil {
		t.Fatalf("GetSchema: %v", err)
	}
	if loaded.Len() != 3 {
		t.Errorf("previous schema lost: %d traits", loaded.Len())
	}
}

func TestSchemaService_GetSchemaColdStart(t *testing.T) {
	schemaRepo := newMockSchemaRepository()
	eventRepo := newMockEventRepository()
	ctx := context.Background()

	if _, err := schemaRepo.Create(ctx, "0xc0ffee", "https://example.com/traits.json", testDocument); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Fresh service with an empty in-memory map.
	service := NewSchemaService(schemaRepo, eventRepo)
	loaded, err := service.GetSchema(ctx, "0xc0ffee")
	if err != nil {
		t.Fatalf("GetSchema: %v", err)
	}
	if loaded.Len() != 3 {
		t.Errorf("schema has %d traits, want 3", loaded.Len())
	}
}

func TestSchemaService_GetSchemaVersion(t *testing.T) {
	service, _, _ := newTestSchemaService()
	ctx := context.Background()

	v1, err := service.UpdateMetadata(ctx, "0xc0ffee", "https://example.com/v1.json", testDocument)
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}

	second := `{"traits": {"points": {"displayName": "Points", "dataType": {"type": "decimal", "bits": 32}}}}`
	if _, err := service.UpdateMetadata(ctx, "0xc0ffee", "https://example.com/v2.json", second); err != nil {
		t.Fatalf("UpdateMetadata v2: %v", err)
	}

	historic, err := service.GetSchemaVersion(ctx, "0xc0ffee", v1)
	if err != nil {
		t.Fatalf("GetSchemaVersion: %v", err)
	}
	if historic.Len() != 3 {
		t.Errorf("historic version has %d traits, want 3", historic.Len())
	}

	current, err := service.GetSchema(ctx, "0xc0ffee")
	if err != nil {
		t.Fatalf("GetSchema: %v", err)
	}
	if current.Len() != 1 {
		t.Errorf("current version has %d traits, want 1", current.Len())
	}
}

func TestSchemaService_ReloadPicksUpPeerWrite(t *testing.T) {
	service, schemaRepo, _ := newTestSchemaService()
	ctx := context.Background()

	if _, err := service.UpdateMetadata(ctx, "0xc0ffee", "https://example.com/v1.json", testDocument); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}

	// A peer instance writes a new version directly to storage.
	second := `{"traits": {"points": {"displayName": "Points", "dataType": {"type": "decimal", "bits": 32}}}}`
	if _, err := schemaRepo.Create(ctx, "0xc0ffee", "https://example.com/v2.json", second); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := service.Reload(ctx, "0xc0ffee"); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	loaded, err := service.GetSchema(ctx, "0xc0ffee")
	if err != nil {
		t.Fatalf("GetSchema: %v", err)
	}
	if loaded.Len() != 1 {
		t.Errorf("reloaded schema has %d traits, want 1", loaded.Len())
	}
}

func TestSchemaService_ValidateDocument(t *testing.T) {
	service, schemaRepo, _ := newTestSchemaService()
	ctx := context.Background()

	if err := service.ValidateDocument(ctx, testDocument); err != nil {
		t.Errorf("ValidateDocument: %v", err)
	}
	if err := service.ValidateDocument(ctx, `{"traits": {"a": {"displayName": "A", "dataType": {"type": "decimal", "bits": 512}}}}`); err == nil {
		t.Error("expected constraint error")
	}
	if len(schemaRepo.records) != 0 {
		t.Error("ValidateDocument must not persist anything")
	}
}
