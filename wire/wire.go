// Package wire holds the protobuf field helpers shared by every message codec
// in this module. Messages are encoded field by field with protowire rather
// than generated code, so each codec states its field numbers explicitly.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field is one top-level field of a message. Only the member matching Type is set.
type Field struct {
	Num     protowire.Number
	Type    protowire.Type
	Varint  uint64
	Fixed64 uint64
	Fixed32 uint32
	Bytes   []byte
}

// Uint64 returns a varint field's value.
func (f Field) Uint64() (uint64, error) {
	if f.Type != protowire.VarintType {
		return 0, fmt.Errorf("%w: field %d is %v, want varint", ErrWrongType, f.Num, f.Type)
	}
	return f.Varint, nil
}

// Uint32 returns a varint field's value, rejecting values above 32 bits.
func (f Field) Uint32() (uint32, error) {
	v, err := f.Uint64()
	if err != nil {
		return 0, err
	}
	if v > 0xffffffff {
		return 0, fmt.Errorf("%w: field %d value %d overflows uint32", ErrMalformed, f.Num, v)
	}
	return uint32(v), nil
}

// Fixed returns a fixed64 field's value.
func (f Field) Fixed() (uint64, error) {
	if f.Type != protowire.Fixed64Type {
		return 0, fmt.Errorf("%w: field %d is %v, want fixed64", ErrWrongType, f.Num, f.Type)
	}
	return f.Fixed64, nil
}

// Message returns a length-delimited field's payload.
func (f Field) Message() ([]byte, error) {
	if f.Type != protowire.BytesType {
		return nil, fmt.Errorf("%w: field %d is %v, want bytes", ErrWrongType, f.Num, f.Type)
	}
	return f.Bytes, nil
}

// Walk calls fn for every field of b in order. Unknown fields are passed
// through too; callers skip the numbers they do not recognise. Group wire
// types are rejected.
func Walk(b []byte, fn func(Field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: tag: %w", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		f := Field{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			f.Varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.Fixed64, n = protowire.ConsumeFixed64(b)
		case protowire.Fixed32Type:
			f.Fixed32, n = protowire.ConsumeFixed32(b)
		case protowire.BytesType:
			f.Bytes, n = protowire.ConsumeBytes(b)
		default:
			return fmt.Errorf("%w: field %d has unsupported wire type %v", ErrMalformed, num, typ)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// AppendUint64 appends a varint field, omitting the proto3 default of zero.
func AppendUint64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// AppendFixed64 appends a fixed64 field, omitting zero.
func AppendFixed64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, v)
}

// AppendBytes appends a bytes field, omitting an empty value.
func AppendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	return AppendMessage(b, num, v)
}

// AppendMessage appends a length-delimited field even when msg is empty, so
// the presence of an all-default submessage survives the round trip.
func AppendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// AppendCompressed appends a CompressedRistretto{1: data} submessage.
func AppendCompressed(b []byte, num protowire.Number, data []byte) []byte {
	return AppendMessage(b, num, AppendBytes(nil, 1, data))
}

// ParseCompressed extracts the data of a CompressedRistretto submessage and
// checks it is size bytes long.
func ParseCompressed(msg []byte, size int) ([]byte, error) {
	var data []byte
	err := Walk(msg, func(f Field) error {
		if f.Num != 1 {
			return nil
		}
		v, err := f.Message()
		if err != nil {
			return err
		}
		data = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(data) != size {
		return nil, fmt.Errorf("%w: compressed point is %d bytes, want %d", ErrMalformed, len(data), size)
	}
	return data, nil
}
