package engine

import (
	"testing"
)

func TestEngineLoadSchema(t *testing.T) {
	engine := NewEngine()

	schemaSource := `
		entity User {
			id: uuid primary,
			email: string unique,
			age: int optional,
		}

		entity Order {
			id: uuid primary,
			total: decimal,
		}
	`

	schema, err := engine.LoadSchemaFromString(schemaSource)
	if err != nil {
		t.Fatalf("Failed to load schema: %v", err)
	}

	// Verify models
	if len(schema.Models) != 2 {
		t.Errorf("Expected 2 models, got %d", len(schema.Models))
	}

	// Verify User model
	user, ok := schema.Models["User"]
	if !ok {
		t.Fatal("User model not found")
	}

	if len(user.Fields) != 3 {
		t.Errorf("Expected 3 fields in User, got %d", len(user.Fields))
	}

	// Verify primary key
	idField := user.Fields["id"]
	if !idField.PrimaryKey {
		t.Error("Expected id to be primary key")
	}

	// Verify unique constraint
	emailField := user.Fields["email"]
	if !emailField.Unique {
		t.Error("Expected email to be unique")
	}

	// Verify nullable
	ageField := user.Fields["age"]
	if !ageField.Nullable {
		t.Error("Expected age to be nullable")
	}
}

func TestEngineVersion(t *testing.T) {
	engine := NewEngine()
	version := engine.EngineVersion()

	if version == "" {
		t.Error("Version should not be empty")
	}

	t.Logf("ChameleonDB version: %s", version)
}

func TestInvalidSchema(t *testing.T) {
	engine := NewEngine()

	_, err := engine.LoadSchemaFromString("invalid syntax!!!")
	if err == nil {
		t.Error("Expected error for invalid syntax")
	}

	t.Logf("Got expected error: %v", err)
}

func TestEngineLoadSchemaMissingPrimaryKey(t *testing.T) {
	engine := NewEngine()

	_, err := engine.LoadSchemaFromString(`
		entity Broken {
			name: string,
		}
	`)
	if err == nil {
		t.Error("Expected error for entity with no primary key field")
	}
}
