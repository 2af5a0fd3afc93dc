package engine

import "fmt"

// EngineError mirrors the mutation package's MutationError shape for the
// simple (non-nested) Insert/Update/Delete validator: an error plus a
// stable code callers can switch on.
type EngineError interface {
	error
	Code() string
}

// UnknownEntityError: the requested model isn't in the loaded schema.
type UnknownEntityError struct {
	Entity    string
	Available []string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf(
		"UnknownEntityError: model '%s' not found in schema\n"+
			"  Available models: %v",
		e.Entity, e.Available,
	)
}

func (e *UnknownEntityError) Code() string { return "UNKNOWN_ENTITY" }

// UnknownFieldError: the field doesn't exist on the model.
type UnknownFieldError struct {
	Entity    string
	Field     string
	Available []string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf(
		"UnknownFieldError: model '%s' has no field '%s'\n"+
			"  Available fields: %v",
		e.Entity, e.Field, e.Available,
	)
}

func (e *UnknownFieldError) Code() string { return "UNKNOWN_FIELD" }

// NotNullError: a required field was left unset or given a nil value.
type NotNullError struct {
	Field      string
	Suggestion string
}

func (e *NotNullError) Error() string {
	return fmt.Sprintf(
		"NotNullError: field '%s' cannot be null\n"+
			"  Suggestion: %s",
		e.Field, e.Suggestion,
	)
}

func (e *NotNullError) Code() string { return "NOT_NULL_VIOLATION" }

// ConstraintError: a schema-level constraint (e.g. primary key immutability)
// was violated.
type ConstraintError struct {
	Type       string
	Field      string
	Suggestion string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf(
		"ConstraintError: %s constraint violation on field '%s'\n"+
			"  Suggestion: %s",
		e.Type, e.Field, e.Suggestion,
	)
}

func (e *ConstraintError) Code() string { return fmt.Sprintf("%s_CONSTRAINT", e.Type) }

// SafetyError: a safety guard rejected an unfiltered update/delete.
type SafetyError struct {
	Operation  string
	Message    string
	Suggestion string
}

func (e *SafetyError) Error() string {
	return fmt.Sprintf(
		"SafetyError: %s\n"+
			"  Operation: %s\n"+
			"  Suggestion: %s",
		e.Message, e.Operation, e.Suggestion,
	)
}

func (e *SafetyError) Code() string { return "SAFETY_VIOLATION" }

// FieldFormatError: a value failed a format check (uuid, email, ...).
type FieldFormatError struct {
	Field      string
	Format     string
	Value      string
	Suggestion string
}

func (e *FieldFormatError) Error() string {
	return fmt.Sprintf(
		"FieldFormatError: field '%s' expected format %s, got %q\n"+
			"  Suggestion: %s",
		e.Field, e.Format, e.Value, e.Suggestion,
	)
}

func (e *FieldFormatError) Code() string { return "FORMAT_ERROR" }

// TypeMismatchError: a value's Go type doesn't match the field's declared type.
type TypeMismatchError struct {
	Field        string
	ExpectedType string
	ReceivedType string
	Value        interface{}
	Suggestion   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf(
		"TypeMismatchError: field '%s' expected %s, got %s (value: %v)\n"+
			"  Suggestion: %s",
		e.Field, e.ExpectedType, e.ReceivedType, e.Value, e.Suggestion,
	)
}

func (e *TypeMismatchError) Code() string { return "TYPE_MISMATCH" }
