package mutation

import (
	"fmt"

	"github.com/google/uuid"
)

// IdentifierKind is the scalar shape backing a model's primary key,
// mirroring the GraphqlId enum (Int/UUID/String) the Rust core this
// module replaces used to thread through mutaction_executor.rs.
type IdentifierKind int

const (
	IdentifierString IdentifierKind = iota
	IdentifierInt
	IdentifierUUID
)

// Identifier is a typed primary-key value. It is the unit every
// Statement Builder and Transaction Facade call passes around instead
// of a bare interface{}, so a chunked `IN (...)` clause or a relation
// probe never has to guess a column's underlying Go type.
//
// Pending marks an integer identifier with no value yet: the row has
// no caller-supplied id, so CreateNodeStmt omits the id column and
// Transaction.Insert adopts whatever the database's own sequence
// assigns via RETURNING, the same "None means adopt the generated id"
// shape UUID/string identifiers never need (this engine never
// auto-generates those).
type Identifier struct {
	Kind    IdentifierKind
	Str     string
	Int     int64
	UUID    uuid.UUID
	Pending bool
}

func NewUUIDIdentifier() Identifier {
	return Identifier{Kind: IdentifierUUID, UUID: uuid.New()}
}

func StringIdentifier(s string) Identifier {
	return Identifier{Kind: IdentifierString, Str: s}
}

func IntIdentifier(i int64) Identifier {
	return Identifier{Kind: IdentifierInt, Int: i}
}

// Value returns the identifier as the interface{} pgx expects for a
// query parameter.
func (id Identifier) Value() interface{} {
	switch id.Kind {
	case IdentifierUUID:
		return id.UUID
	case IdentifierInt:
		return id.Int
	default:
		return id.Str
	}
}

// Repr renders the identifier for error messages.
func (id Identifier) Repr() string {
	switch id.Kind {
	case IdentifierUUID:
		return id.UUID.String()
	case IdentifierInt:
		return fmt.Sprintf("%d", id.Int)
	default:
		return id.Str
	}
}

func (id Identifier) Equal(other Identifier) bool {
	return id.Kind == other.Kind && id.Value() == other.Value()
}

// IdentifierFromValue converts a raw scanned/provided value (already
// known to be of the given kind) into an Identifier.
func IdentifierFromValue(kind IdentifierKind, v interface{}) (Identifier, error) {
	switch kind {
	case IdentifierUUID:
		switch val := v.(type) {
		case uuid.UUID:
			return Identifier{Kind: IdentifierUUID, UUID: val}, nil
		case string:
			u, err := uuid.Parse(val)
			if err != nil {
				return Identifier{}, fmt.Errorf("invalid uuid identifier %q: %w", val, err)
			}
			return Identifier{Kind: IdentifierUUID, UUID: u}, nil
		case [16]byte:
			return Identifier{Kind: IdentifierUUID, UUID: uuid.UUID(val)}, nil
		default:
			return Identifier{}, fmt.Errorf("cannot convert %T to uuid identifier", v)
		}
	case IdentifierInt:
		switch val := v.(type) {
		case int64:
			return Identifier{Kind: IdentifierInt, Int: val}, nil
		case int:
			return Identifier{Kind: IdentifierInt, Int: int64(val)}, nil
		default:
			return Identifier{}, fmt.Errorf("cannot convert %T to int identifier", v)
		}
	default:
		s, ok := v.(string)
		if !ok {
			return Identifier{}, fmt.Errorf("cannot convert %T to string identifier", v)
		}
		return Identifier{Kind: IdentifierString, Str: s}, nil
	}
}
