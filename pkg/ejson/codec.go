// Package ejson implements the Extended JSON wire codec spoken by the Data API.
//
// Rich scalars travel as single-key wrapper documents ({"$oid": ...},
// {"$date": ...}, {"$numberLong": ...}, {"$binary": ...},
// {"$numberDecimal": ...}). Encoding and decoding are delegated to the
// Extended JSON reader and writer of the official MongoDB driver, so the
// in-memory representation is the driver's: [bson.D] for ordered documents,
// [bson.A] for arrays and the types in [primitive] for rich scalars.
//
// Canonical mode wraps every number, which is what keeps int32, int64 and
// float64 distinct through a round trip. Relaxed mode writes plain JSON
// numbers and is only used for gateways that expect plain JSON.
package ejson

import (
	"io"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/dataapi/dataapi.go/internal/codec"
)

type Codec struct {
	Canonical bool
}

var _ codec.Codec = (*Codec)(nil)

// New returns a codec that emits canonical Extended JSON.
func New() *Codec {
	return &Codec{Canonical: true}
}

// NewRelaxed returns a codec that emits relaxed Extended JSON.
func NewRelaxed() *Codec {
	return &Codec{Canonical: false}
}

func (c *Codec) Marshal(v any) ([]byte, error) {
	return bson.MarshalExtJSON(v, c.Canonical, false)
}

// Unmarshal always parses in relaxed mode. The relaxed reader accepts
// canonical wrappers as well as plain numbers, so either form decodes.
func (c *Codec) Unmarshal(data []byte, dst any) error {
	return bson.UnmarshalExtJSON(data, false, dst)
}

func (c *Codec) NewEncoder(w io.Writer) codec.Encoder {
	return &Encoder{w: w, c: c}
}

func (c *Codec) NewDecoder(r io.Reader) codec.Decoder {
	return &Decoder{r: r, c: c}
}

type Encoder struct {
	w io.Writer
	c *Codec
}

func (e *Encoder) Encode(v any) error {
	data, err := e.c.Marshal(v)
	if err != nil {
		return err
	}
	_, err = e.w.Write(data)
	return err
}

// Decoder reads the whole stream and decodes it as a single document.
type Decoder struct {
	r io.Reader
	c *Codec
}

func (d *Decoder) Decode(v any) error {
	data, err := io.ReadAll(d.r)
	if err != nil {
		return err
	}
	return d.c.Unmarshal(data, v)
}
