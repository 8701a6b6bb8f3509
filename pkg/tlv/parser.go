// Package tlv provides helpers around BER-TLV (Basic Encoding Rules - Tag-Length-Value):
// mapping decoded templates into Go structures with struct tags, describing
// decoded structures as text, and writing byte literals in hex.
package tlv

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// ErrTarget is returned when the destination of Unmarshal is not a pointer to a struct.
var ErrTarget = errors.New("tlv: target must be a non-nil pointer to a struct")

// Unmarshaler allows custom types to implement their own TLV parsing logic.
type Unmarshaler interface {
	UnmarshalTLV(data []byte) error
}

// Unmarshal parses raw BER-TLV data and maps it into a target Go struct.
//
// Fields are matched on the `tlv:"<tag>"` struct tag. Supported field types are
// []byte, [N]byte (the value must have exactly N bytes), nested structs (for
// constructed tags), slices of structs (repeated tags) and Unmarshaler.
// A field of type []bertlv.TLV named Unknown (or tagged `tlv:",unknown"`)
// receives the tags no other field consumed.
func Unmarshal(data []byte, target interface{}) error {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return fmt.Errorf("bertlv decode failed: %w", err)
	}
	return UnmarshalFromPackets(packets, target)
}

// UnmarshalFromPackets maps a slice of pre-decoded bertlv.TLV objects to a target struct.
func UnmarshalFromPackets(packets []bertlv.TLV, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrTarget
	}
	v = v.Elem()
	t := v.Type()

	consumed := make(map[int]bool)
	var unknown reflect.Value

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		tagConfig := fieldType.Tag.Get("tlv")

		if tagConfig == ",unknown" || fieldType.Name == "Unknown" {
			unknown = field
			continue
		}
		if tagConfig == "" || !field.CanSet() {
			continue
		}

		tag := strings.ToUpper(strings.Split(tagConfig, ",")[0])
		for idx, packet := range packets {
			if strings.ToUpper(packet.Tag) != tag {
				continue
			}
			if err := mapPacketToField(packet, field); err != nil {
				return fmt.Errorf("field %s (tag %s): %w", fieldType.Name, tag, err)
			}
			consumed[idx] = true
		}
	}

	if unknown.IsValid() && unknown.CanSet() && unknown.Type() == unknownType {
		var leftovers []bertlv.TLV
		for idx, packet := range packets {
			if !consumed[idx] {
				leftovers = append(leftovers, packet)
			}
		}
		if len(leftovers) > 0 {
			unknown.Set(reflect.ValueOf(leftovers))
		}
	}
	return nil
}

// mapPacketToField appends to slices of structs and assigns everything else.
func mapPacketToField(packet bertlv.TLV, field reflect.Value) error {
	if field.Kind() == reflect.Slice && !isByteSlice(field) {
		elem := reflect.New(field.Type().Elem()).Elem()
		if err := decodeToValue(packet, elem); err != nil {
			return err
		}
		field.Set(reflect.Append(field, elem))
		return nil
	}
	return decodeToValue(packet, field)
}

func decodeToValue(packet bertlv.TLV, field reflect.Value) error {
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(rawValue(packet))
		}
	}

	switch {
	case isByteSlice(field):
		field.SetBytes(rawValue(packet))
		return nil

	case isByteArray(field):
		raw := rawValue(packet)
		if len(raw) != field.Len() {
			return fmt.Errorf("expected %d bytes, got %d", field.Len(), len(raw))
		}
		reflect.Copy(field, reflect.ValueOf(raw))
		return nil

	case field.Kind() == reflect.Struct:
		if len(packet.TLVs) > 0 {
			return UnmarshalFromPackets(packet.TLVs, field.Addr().Interface())
		}
		return Unmarshal(packet.Value, field.Addr().Interface())

	case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		if len(packet.TLVs) > 0 {
			return UnmarshalFromPackets(packet.TLVs, field.Interface())
		}
		return Unmarshal(packet.Value, field.Interface())
	}

	return fmt.Errorf("unsupported field kind %s", field.Kind())
}

// rawValue returns the value bytes, re-encoding the children of constructed tags.
func rawValue(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}

func isByteSlice(v reflect.Value) bool {
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8
}
