package aml

import (
	"fmt"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// UnexpectedEnd is returned when the bytecode ends before a required
// field.
type UnexpectedEnd struct{}

func (UnexpectedEnd) Error() string { return "aml: unexpected end of bytecode" }

// InvalidAML is returned for a byte sequence the walker cannot make
// sense of (an unrecognized NameString lead character, for instance).
type InvalidAML struct{}

func (InvalidAML) Error() string { return "aml: invalid bytecode" }

// ValueKind discriminates the cases of Value.
type ValueKind uint8

const (
	KindUnresolved ValueKind = iota
	KindInteger
	KindString
	KindEisaID
)

// EisaID is a compressed ACPI EISA ID (the DWord found inside
// Buffer(4){...} initializers for _HID/_CID).
type EisaID struct {
	Raw uint32
}

// String decodes the compressed ID into its canonical "PNP0A08"-style
// form, following ACPICA's AcpiExEisaIdToString: a big-endian byte swap
// of the raw DWord, then three 5-bit letters followed by four hex
// nibbles.
func (e EisaID) String() string {
	sw := swap32(e.Raw)
	c0 := byte('@' + ((sw >> 26) & 0x1f))
	c1 := byte('@' + ((sw >> 21) & 0x1f))
	c2 := byte('@' + ((sw >> 16) & 0x1f))
	return fmt.Sprintf("%c%c%c%04X", c0, c1, c2, sw&0xffff)
}

func swap32(v uint32) uint32 {
	return v>>24&0xff | v>>8&0xff00 | v<<8&0xff0000 | v<<24&0xff000000
}

// InlineString is a borrowed byte slice holding an AML StringConst's
// payload, not yet validated as UTF-8.
type InlineString struct {
	raw []byte
}

// InlineStringFromBytes wraps raw bytes as an InlineString.
func InlineStringFromBytes(raw []byte) InlineString { return InlineString{raw: raw} }

// sanitizer replaces ill-formed UTF-8 with the Unicode replacement
// character and strips C0/C1 control characters, so a corrupted or
// adversarial DSDT string can't smuggle control bytes into log output.
var sanitizer = transform.Chain(runes.ReplaceIllFormed(), runes.Remove(runes.In(unicode.Cc)))

// String returns the sanitized text of the string constant.
func (s InlineString) String() string {
	out, _, err := transform.String(sanitizer, string(s.raw))
	if err != nil {
		return string(s.raw)
	}
	return out
}

// Value is a resolved (or unresolved) AML data object: the value half of
// a DefName, or an EISA ID pulled out of a _HID/_CID Buffer initializer.
type Value struct {
	Kind    ValueKind
	Integer uint64
	Str     InlineString
	EisaID  EisaID
}

func unresolvedValue() Value   { return Value{Kind: KindUnresolved} }
func integerValue(v uint64) Value { return Value{Kind: KindInteger, Integer: v} }
func stringValue(s InlineString) Value { return Value{Kind: KindString, Str: s} }
func eisaIDValue(e EisaID) Value { return Value{Kind: KindEisaID, EisaID: e} }
