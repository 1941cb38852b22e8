package codec

import (
	"bytes"
	"io"
	"math/big"
	"reflect"

	"github.com/ChainSafe/gossamer/lib/scale"
	"github.com/go-faster/errors"
)

// Encoder accumulates SCALE encoded values. The first error sticks and is
// returned by Bytes.
type Encoder struct {
	buf bytes.Buffer
	err error
}

// Push SCALE encodes v and appends it. Fixed width integers keep their
// width, slices and []byte are length prefixed, arrays and structs are not.
// Options go through Some and None.
func (e *Encoder) Push(v interface{}) *Encoder {
	if e.err != nil {
		return e
	}
	if v == nil || reflect.TypeOf(v).Kind() == reflect.Ptr {
		e.err = errors.Errorf("scale encode %T: use Some or None for optional values", v)
		return e
	}
	enc := scale.Encoder{Writer: &e.buf}
	if _, err := enc.Encode(v); err != nil {
		e.err = errors.Wrapf(err, "scale encode %T", v)
	}
	return e
}

// Some appends v as a present Option.
func (e *Encoder) Some(v interface{}) *Encoder {
	return e.Byte(0x01).Push(v)
}

// None appends an absent Option.
func (e *Encoder) None() *Encoder {
	return e.Byte(0x00)
}

// Compact appends n in SCALE compact form.
func (e *Encoder) Compact(n uint64) *Encoder {
	return e.Push(new(big.Int).SetUint64(n))
}

// Raw appends already encoded bytes as-is.
func (e *Encoder) Raw(b []byte) *Encoder {
	if e.err != nil {
		return e
	}
	e.buf.Write(b)
	return e
}

// Byte appends a single enum tag or raw byte.
func (e *Encoder) Byte(b byte) *Encoder {
	return e.Raw([]byte{b})
}

func (e *Encoder) Bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.buf.Bytes(), nil
}

// EncodeCompact returns n in SCALE compact form.
func EncodeCompact(n uint64) ([]byte, error) {
	return (&Encoder{}).Compact(n).Bytes()
}

// Decoder reads SCALE values field by field. Like Encoder, the first error
// sticks: later reads return zero values and Err reports it.
type Decoder struct {
	reader *bytes.Reader
	scale  *scale.Decoder
	err    error
}

func NewDecoder(data []byte) *Decoder {
	reader := bytes.NewReader(data)
	return &Decoder{reader: reader, scale: &scale.Decoder{Reader: reader}}
}

// Decode runs read over data and rejects trailing bytes, which mean the
// on-chain layout has more fields than read describes.
func Decode(data []byte, read func(d *Decoder)) error {
	d := NewDecoder(data)
	read(d)
	if d.err != nil {
		return d.err
	}
	if left := d.Remaining(); left != 0 {
		return errors.Errorf("decoded %d of %d bytes", len(data)-left, len(data))
	}
	return nil
}

func (d *Decoder) Err() error {
	return d.err
}

// Remaining is the number of unread bytes.
func (d *Decoder) Remaining() int {
	return d.reader.Len()
}

func (d *Decoder) fail(err error, what string) {
	if d.err == nil {
		d.err = errors.Wrapf(err, "scale decode %s", what)
	}
}

func (d *Decoder) need(n int, what string) bool {
	if d.err != nil {
		return false
	}
	if n < 0 || d.reader.Len() < n {
		d.fail(io.ErrUnexpectedEOF, what)
		return false
	}
	return true
}

func (d *Decoder) fixedWidth(zero interface{}, size int) interface{} {
	if !d.need(size, reflect.TypeOf(zero).String()) {
		return zero
	}
	v, err := d.scale.DecodeFixedWidthInt(zero)
	if err != nil {
		d.fail(err, reflect.TypeOf(zero).String())
		return zero
	}
	return v
}

func (d *Decoder) Uint16() uint16 {
	return d.fixedWidth(uint16(0), 2).(uint16)
}

func (d *Decoder) Uint32() uint32 {
	return d.fixedWidth(uint32(0), 4).(uint32)
}

func (d *Decoder) Uint64() uint64 {
	return d.fixedWidth(uint64(0), 8).(uint64)
}

// Compact reads a compact integer. The mode bits of the first byte tell how
// many bytes follow, so a truncated input is caught before decoding.
func (d *Decoder) Compact() uint64 {
	if !d.need(1, "compact") {
		return 0
	}
	first, _ := d.reader.ReadByte()
	_ = d.reader.UnreadByte()

	size := 1 << (first & 0x03)
	if first&0x03 == 0x03 {
		size = int(first>>2) + 5
	}
	if !d.need(size, "compact") {
		return 0
	}
	n, err := d.scale.DecodeUnsignedInteger()
	if err != nil {
		d.fail(err, "compact")
		return 0
	}
	return n
}

func (d *Decoder) Bool() bool {
	if !d.need(1, "bool") {
		return false
	}
	v, err := d.scale.DecodeBool()
	if err != nil {
		d.fail(err, "bool")
	}
	return v
}

// Fixed reads n raw bytes.
func (d *Decoder) Fixed(n int) []byte {
	if !d.need(n, "bytes") {
		return nil
	}
	out := make([]byte, n)
	_, _ = io.ReadFull(d.reader, out)
	return out
}

// Bytes reads a length prefixed byte string.
func (d *Decoder) Bytes() []byte {
	n := d.Compact()
	if d.err != nil {
		return nil
	}
	if n > uint64(d.reader.Len()) {
		d.fail(io.ErrUnexpectedEOF, "bytes")
		return nil
	}
	return d.Fixed(int(n))
}

// Option reads an Option tag and reports whether a value follows.
func (d *Decoder) Option() bool {
	tag := d.Fixed(1)
	if tag == nil {
		return false
	}
	switch tag[0] {
	case 0x00:
		return false
	case 0x01:
		return true
	}
	d.fail(errors.Errorf("invalid option tag %#x", tag[0]), "option")
	return false
}

func (d *Decoder) AccountID() AccountID {
	var id AccountID
	copy(id[:], d.Fixed(accountIDLength))
	return id
}

// AccountIDs reads a length prefixed list of account ids.
func (d *Decoder) AccountIDs() []AccountID {
	n := d.Compact()
	if d.err != nil {
		return nil
	}
	if n > uint64(d.reader.Len()/accountIDLength) {
		d.fail(io.ErrUnexpectedEOF, "account ids")
		return nil
	}
	ids := make([]AccountID, 0, n)
	for i := uint64(0); i < n; i++ {
		ids = append(ids, d.AccountID())
	}
	return ids
}
