package dwarfline

// DW_LNCT_* content type codes (DWARF v5 directory/file table format
// descriptors).
const (
	lnctPath           = 0x01
	lnctDirectoryIndex = 0x02
)

// DW_FORM_* form codes this parser understands.
const (
	formString  = 0x08
	formData2   = 0x05
	formData1   = 0x0b
	formStrp    = 0x0e
	formUdata   = 0x0f
	formLineStrp = 0x1f
)

func parseV4Directories(data []byte, off int, h *Header) (int, error) {
	for {
		if off >= len(data) {
			return 0, Truncated{}
		}
		if data[off] == 0 {
			off++
			break
		}
		s, n, err := readNulStr(data, off)
		if err != nil {
			return 0, err
		}
		if len(h.directories) >= MaxDirectories {
			return 0, TooManyDirectories{}
		}
		h.directories = append(h.directories, s)
		off += n + 1
	}
	return off, nil
}

func parseV4Files(data []byte, off int, h *Header) (int, error) {
	for {
		if off >= len(data) {
			return 0, Truncated{}
		}
		if data[off] == 0 {
			off++
			break
		}
		name, n, err := readNulStr(data, off)
		if err != nil {
			return 0, err
		}
		off += n + 1

		dirIdx, consumed, ok := decodeULEB128(data[off:])
		if !ok {
			return 0, Truncated{}
		}
		off += consumed

		// mtime — skip
		if _, consumed, ok = decodeULEB128(data[off:]); !ok {
			return 0, Truncated{}
		}
		off += consumed

		// size — skip
		if _, consumed, ok = decodeULEB128(data[off:]); !ok {
			return 0, Truncated{}
		}
		off += consumed

		if len(h.files) >= MaxFiles {
			return 0, TooManyFiles{}
		}
		h.files = append(h.files, FileEntry{DirectoryIndex: dirIdx, Name: name})
	}
	return off, nil
}

type formValue struct {
	isStr     bool
	strOff    int
	strLen    int
	u         uint64
	isExtStr  bool
}

func (v formValue) asString(data []byte) (string, error) {
	if v.isExtStr {
		return "<external>", nil
	}
	if !v.isStr {
		return "", nil
	}
	if v.strOff+v.strLen > len(data) {
		return "", Truncated{}
	}
	return string(data[v.strOff : v.strOff+v.strLen]), nil
}

func readFormValue(data []byte, off int, form uint64) (formValue, int, error) {
	switch form {
	case formString:
		s, n, err := readNulStr(data, off)
		if err != nil {
			return formValue{}, 0, err
		}
		return formValue{isStr: true, strOff: off, strLen: len(s)}, off + n + 1, nil
	case formLineStrp, formStrp:
		if off+4 > len(data) {
			return formValue{}, 0, Truncated{}
		}
		return formValue{isExtStr: true, u: uint64(leU32(data, off))}, off + 4, nil
	case formData1:
		if off >= len(data) {
			return formValue{}, 0, Truncated{}
		}
		return formValue{u: uint64(data[off])}, off + 1, nil
	case formData2:
		if off+2 > len(data) {
			return formValue{}, 0, Truncated{}
		}
		return formValue{u: uint64(leU16(data, off))}, off + 2, nil
	case formUdata:
		v, n, ok := decodeULEB128(data[off:])
		if !ok {
			return formValue{}, 0, Truncated{}
		}
		return formValue{u: v}, off + n, nil
	default:
		return formValue{}, 0, InvalidOffset{}
	}
}

type formatPair struct {
	contentType uint64
	form        uint64
}

func readFormats(data []byte, off int) ([]formatPair, int, error) {
	if off >= len(data) {
		return nil, 0, Truncated{}
	}
	count := int(data[off])
	off++
	formats := make([]formatPair, 0, count)
	for i := 0; i < count; i++ {
		ct, n, ok := decodeULEB128(data[off:])
		if !ok {
			return nil, 0, Truncated{}
		}
		off += n
		form, n, ok := decodeULEB128(data[off:])
		if !ok {
			return nil, 0, Truncated{}
		}
		off += n
		formats = append(formats, formatPair{contentType: ct, form: form})
	}
	return formats, off, nil
}

func parseV5Directories(data []byte, off int, h *Header) (int, error) {
	formats, off, err := readFormats(data, off)
	if err != nil {
		return 0, err
	}
	entryCount, n, ok := decodeULEB128(data[off:])
	if !ok {
		return 0, Truncated{}
	}
	off += n

	for i := uint64(0); i < entryCount; i++ {
		var path string
		for _, f := range formats {
			v, newOff, err := readFormValue(data, off, f.form)
			if err != nil {
				return 0, err
			}
			off = newOff
			if f.contentType == lnctPath {
				path, err = v.asString(data)
				if err != nil {
					return 0, err
				}
			}
		}
		if len(h.directories) >= MaxDirectories {
			return 0, TooManyDirectories{}
		}
		h.directories = append(h.directories, path)
	}
	return off, nil
}

func parseV5Files(data []byte, off int, h *Header) (int, error) {
	formats, off, err := readFormats(data, off)
	if err != nil {
		return 0, err
	}
	entryCount, n, ok := decodeULEB128(data[off:])
	if !ok {
		return 0, Truncated{}
	}
	off += n

	for i := uint64(0); i < entryCount; i++ {
		var name string
		var dirIdx uint64
		for _, f := range formats {
			v, newOff, err := readFormValue(data, off, f.form)
			if err != nil {
				return 0, err
			}
			off = newOff
			switch f.contentType {
			case lnctPath:
				name, err = v.asString(data)
				if err != nil {
					return 0, err
				}
			case lnctDirectoryIndex:
				dirIdx = v.u
			}
		}
		if len(h.files) >= MaxFiles {
			return 0, TooManyFiles{}
		}
		h.files = append(h.files, FileEntry{DirectoryIndex: dirIdx, Name: name})
	}
	return off, nil
}

func readNulStr(data []byte, off int) (string, int, error) {
	if off >= len(data) {
		return "", 0, Truncated{}
	}
	rest := data[off:]
	nul := -1
	for i, b := range rest {
		if b == 0 {
			nul = i
			break
		}
	}
	if nul < 0 {
		return "", 0, Truncated{}
	}
	return string(rest[:nul]), nul, nil
}

// decodeULEB128 decodes an unsigned LEB128 value from the start of b,
// returning the value, the number of bytes consumed, and whether
// decoding succeeded.
func decodeULEB128(b []byte) (uint64, int, bool) {
	var result uint64
	var shift uint
	for i, by := range b {
		if shift >= 64 {
			return 0, 0, false
		}
		result |= uint64(by&0x7f) << shift
		if by&0x80 == 0 {
			return result, i + 1, true
		}
		shift += 7
	}
	return 0, 0, false
}
