package ejson

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BinarySubtypeUUID is the binary subtype for RFC 4122 UUIDs.
const BinarySubtypeUUID byte = 0x04

func NewObjectID() primitive.ObjectID {
	return primitive.NewObjectID()
}

// ObjectIDFromHex parses the canonical 24 hex character form.
func ObjectIDFromHex(s string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(s)
}

// NewUUID returns a random UUID v4 as a subtype 4 binary value.
func NewUUID() (primitive.Binary, error) {
	u, err := uuid.NewV4()
	if err != nil {
		return primitive.Binary{}, err
	}
	return UUID(u), nil
}

func UUID(u uuid.UUID) primitive.Binary {
	return primitive.Binary{Subtype: BinarySubtypeUUID, Data: u.Bytes()}
}

// UUIDFromBinary converts a subtype 4 binary value back into a UUID.
func UUIDFromBinary(b primitive.Binary) (uuid.UUID, error) {
	if b.Subtype != BinarySubtypeUUID {
		return uuid.Nil, fmt.Errorf("unexpected binary subtype for UUID: got %#x, want %#x", b.Subtype, BinarySubtypeUUID)
	}
	// Both UUID v4 and v7 are 16 bytes
	if len(b.Data) != uuid.Size {
		return uuid.Nil, fmt.Errorf("UUID must be exactly %d bytes, got %d", uuid.Size, len(b.Data))
	}
	return uuid.FromBytes(b.Data)
}

// Date truncates t to millisecond precision, the resolution of $date.
func Date(t time.Time) primitive.DateTime {
	return primitive.NewDateTimeFromTime(t)
}

// Decimal parses an arbitrary precision decimal from its textual form.
func Decimal(s string) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(s)
}
