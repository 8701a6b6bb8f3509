package tlv

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Verboser is implemented by decoded fields that know how to explain themselves
// over several lines (SPI, KIC, KID...).
type Verboser interface {
	Verbose() string
}

var (
	verboserType = reflect.TypeOf((*Verboser)(nil)).Elem()
	unknownType  = reflect.TypeOf([]bertlv.TLV{})
)

// WriteStructFields inspects a struct and writes its fields to the strings.Builder.
// It joins lines with newlines but DOES NOT add a trailing newline, preventing artifacts in strings.Split.
// If the builder is not empty, it prepends a newline to separate this block from previous content.
//
// Supported fields:
//   - []byte, [N]byte and single bytes, printed in hex (formatting driven by the `fmt` tag),
//   - values implementing Verboser, printed as an indented block,
//   - []bertlv.TLV, printed as unknown tags.
//
// Fields tagged `describe:"-"` are skipped.
func WriteStructFields(sb *strings.Builder, prefix string, s interface{}) {
	val := reflect.ValueOf(s)

	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}

	typ := val.Type()
	var lines []string

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !fieldType.IsExported() || fieldType.Tag.Get("describe") == "-" {
			continue
		}

		switch {
		case field.Type() == unknownType:
			lines = append(lines, formatUnknownField(prefix, field)...)

		case field.Type().Implements(verboserType):
			lines = append(lines, formatVerboseField(prefix, field, fieldType)...)

		case isByteSlice(field):
			if !field.IsNil() && field.Len() > 0 {
				lines = append(lines, formatByteField(prefix, field.Bytes(), fieldType))
			}

		case isByteArray(field):
			lines = append(lines, formatByteField(prefix, arrayBytes(field), fieldType))

		case field.Kind() == reflect.Uint8:
			lines = append(lines, formatByteField(prefix, []byte{byte(field.Uint())}, fieldType))
		}
	}

	if len(lines) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.Join(lines, "\n"))
	}
}

func fieldLabel(fieldType reflect.StructField) string {
	if tag := fieldType.Tag.Get("tlv"); tag != "" {
		return fmt.Sprintf("%s (%s)", fieldType.Name, strings.Split(tag, ",")[0])
	}
	return fieldType.Name
}

func formatByteField(prefix string, data []byte, fieldType reflect.StructField) string {
	displayVal := formatByteValue(data, fieldType.Tag.Get("fmt"))
	return fmt.Sprintf("    - %s.%s: %s", prefix, fieldLabel(fieldType), displayVal)
}

func formatVerboseField(prefix string, field reflect.Value, fieldType reflect.StructField) []string {
	if field.Kind() == reflect.Ptr && field.IsNil() {
		return nil
	}

	lines := []string{fmt.Sprintf("    - %s.%s:", prefix, fieldLabel(fieldType))}
	for _, l := range strings.Split(field.Interface().(Verboser).Verbose(), "\n") {
		lines = append(lines, "        "+l)
	}
	return lines
}

func formatUnknownField(prefix string, field reflect.Value) []string {
	if field.IsNil() || field.Len() == 0 {
		return nil
	}

	var lines []string
	tlvs := field.Interface().([]bertlv.TLV)
	for _, t := range tlvs {
		valStr := strings.ToUpper(hex.EncodeToString(t.Value))
		lines = append(lines, fmt.Sprintf("    - %s.Unknown Tag %s: %s", prefix, t.Tag, valStr))
	}
	return lines
}

func formatByteValue(data []byte, format string) string {
	switch format {
	case "ascii":
		return fmt.Sprintf("%X (%q)", data, MakeSafeASCII(data))
	case "int":
		var integer uint64
		for _, b := range data {
			integer = (integer << 8) | uint64(b)
		}
		return fmt.Sprintf("%X (Dec: %d)", data, integer)
	default:
		return strings.ToUpper(hex.EncodeToString(data))
	}
}

// MakeSafeASCII replaces non-printable bytes with dots.
func MakeSafeASCII(data []byte) string {
	return strings.Map(func(r rune) rune {
		if r >= 32 && r <= 126 {
			return r
		}
		return '.'
	}, string(data))
}

func isByteArray(v reflect.Value) bool {
	return v.Kind() == reflect.Array && v.Type().Elem().Kind() == reflect.Uint8
}

func arrayBytes(v reflect.Value) []byte {
	out := make([]byte, v.Len())
	reflect.Copy(reflect.ValueOf(out), v)
	return out
}
