package acpi

import (
	"encoding/binary"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const sdtHeaderSize = 36

// SDTHeader is the 36-byte header common to every ACPI system
// description table (spec.md §6).
type SDTHeader struct {
	Signature       [4]byte
	Length          uint32
	Revision        uint8
	Checksum        uint8
	OEMID           [6]byte
	OEMTableID      [8]byte
	OEMRevision     uint32
	CreatorID       uint32
	CreatorRevision uint32
}

// sanitizer replaces ill-formed UTF-8 and strips C0/C1 control bytes, so
// a corrupted or adversarial OEM ID can't smuggle control characters
// into a log line. Shared idiom with the aml package's string sanitizer.
var sanitizer = transform.Chain(runes.ReplaceIllFormed(), runes.Remove(runes.In(unicode.Cc)))

func sanitizeFixed(raw []byte) string {
	out, _, err := transform.String(sanitizer, string(raw))
	if err != nil {
		return string(raw)
	}
	return out
}

// OEMIDString returns the sanitized, NUL-trimmed OEM ID.
func (h SDTHeader) OEMIDString() string { return sanitizeFixed(trimNUL(h.OEMID[:])) }

// OEMTableIDString returns the sanitized, NUL-trimmed OEM table ID.
func (h SDTHeader) OEMTableIDString() string { return sanitizeFixed(trimNUL(h.OEMTableID[:])) }

// SignatureString returns the table's 4-character signature.
func (h SDTHeader) SignatureString() string { return string(h.Signature[:]) }

func trimNUL(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

// parseHeader reads the 36-byte SDT header at the start of data and
// verifies the whole-table checksum (the byte-sum of the entire table,
// including the header, must be zero mod 256).
func parseHeader(data []byte) (SDTHeader, error) {
	if len(data) < sdtHeaderSize {
		return SDTHeader{}, Truncated{Table: "SDT header"}
	}
	var h SDTHeader
	copy(h.Signature[:], data[0:4])
	h.Length = binary.LittleEndian.Uint32(data[4:8])
	h.Revision = data[8]
	h.Checksum = data[9]
	copy(h.OEMID[:], data[10:16])
	copy(h.OEMTableID[:], data[16:24])
	h.OEMRevision = binary.LittleEndian.Uint32(data[24:28])
	h.CreatorID = binary.LittleEndian.Uint32(data[28:32])
	h.CreatorRevision = binary.LittleEndian.Uint32(data[32:36])

	if int(h.Length) < sdtHeaderSize || int(h.Length) > len(data) {
		return SDTHeader{}, Truncated{Table: h.SignatureString()}
	}
	if !checksumOK(data[:h.Length]) {
		return SDTHeader{}, BadChecksum{Table: h.SignatureString()}
	}
	return h, nil
}

func checksumOK(data []byte) bool {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum == 0
}

// ParseHeader parses and checksum-validates the table at data without
// knowledge of its specific signature, for callers that only need to
// identify a table before dispatching to a typed parser.
func ParseHeader(data []byte) (SDTHeader, error) { return parseHeader(data) }
