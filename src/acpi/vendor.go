package acpi

// DMAR (Intel VT-d remapping) and IVRS (AMD-Vi remapping) describe IOMMU
// hardware. Nothing in scope configures an IOMMU, so platform init only
// needs to recognize these tables are present and hand back their raw
// body for a future IOMMU driver — unlike MADT/SRAT, their remapping
// structures aren't decoded here.
type RawTable struct {
	Header SDTHeader
	Body   []byte
}

// ParseDMAR recognizes a DMAR table without decoding its remapping
// structure stream.
func ParseDMAR(data []byte) (RawTable, error) { return parseRawTable(data, "DMAR") }

// ParseIVRS recognizes an IVRS table without decoding its remapping
// structure stream.
func ParseIVRS(data []byte) (RawTable, error) { return parseRawTable(data, "IVRS") }

func parseRawTable(data []byte, signature string) (RawTable, error) {
	header, err := parseHeader(data)
	if err != nil {
		return RawTable{}, err
	}
	if header.SignatureString() != signature {
		return RawTable{}, BadSignature{Want: signature, Got: header.SignatureString()}
	}
	return RawTable{Header: header, Body: data[sdtHeaderSize:header.Length]}, nil
}
