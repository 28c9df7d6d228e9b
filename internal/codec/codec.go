// Package codec declares the encoding contract used by the Data API
// connection. The wire format is Extended JSON text, see [github.com/dataapi/dataapi.go/pkg/ejson] for the implementation.
package codec

import "io"

type Encoder interface {
	Encode(v any) error
}

type Decoder interface {
	Decode(v any) error
}

// Marshaler turns a document into its textual wire form.
type Marshaler interface {
	Marshal(v any) ([]byte, error)
	NewEncoder(w io.Writer) Encoder
}

// Unmarshaler parses a wire-form body into dst, which must be a pointer.
type Unmarshaler interface {
	Unmarshal(data []byte, dst any) error
	NewDecoder(r io.Reader) Decoder
}

// Codec is both halves of the contract.
type Codec interface {
	Marshaler
	Unmarshaler
}
