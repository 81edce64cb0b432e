// Package aml walks ACPI Machine Language (AML) bytecode — the
// bytecode encoding of a DSDT/SSDT's device tree — extracting only its
// static namespace topology (scopes, devices, methods, named values) via
// a single-pass, allocation-light visitor dispatch. Control flow and
// method bodies are never evaluated; PkgLength-delimited blocks the
// walker doesn't understand are skipped wholesale so one malformed
// object doesn't abort the rest of the table.
//
// Grounded line-for-line on
// original_source/crates/parse/acpi/src/aml/parser.rs.
package aml

// WalkAML walks data (the raw AML bytecode of a DSDT or SSDT, i.e.
// everything after the ACPI SDT header) and dispatches namespace objects
// to visitor.
func WalkAML(data []byte, visitor Visitor) error {
	path := NewPath()
	parseTermList(data, len(data), path, visitor)
	return nil
}

// parseTermList parses a TermList (sequence of TermObj) up to end bytes
// from the start of data. A TermObj that fails to parse ends the scope
// early rather than the whole walk — matching the original's recovery
// policy for partially valid tables.
func parseTermList(data []byte, end int, path *Path, visitor Visitor) {
	r := newReader(data)
	for r.position() < end && r.position() < r.len() {
		if err := parseTermObj(r, end, path, visitor); err != nil {
			break
		}
	}
}

func isNameLead(op byte) bool {
	return (op >= 'A' && op <= 'Z') || op == '_' || op == '\\' || op == '^' || op == '.' || op == '/'
}

func isLocalOrArg(op byte) bool {
	return (op >= 0x60 && op <= 0x6E)
}

func parseTermObj(r *reader, scopeEnd int, path *Path, visitor Visitor) error {
	if r.position() >= scopeEnd || r.isAtEnd() {
		return UnexpectedEnd{}
	}
	op, ok := r.readU8()
	if !ok {
		return UnexpectedEnd{}
	}

	switch {
	case op == 0x08: // DefName
		return parseDefName(r, path, visitor)
	case op == 0x10: // DefScope
		return parseDefScope(r, path, visitor)
	case op == 0x14: // DefMethod
		return parseDefMethod(r, path, visitor)
	case op == 0x5B: // ExtOpPrefix
		extOp, ok := r.readU8()
		if !ok {
			return UnexpectedEnd{}
		}
		switch extOp {
		case 0x80: // DefOpRegion
			return skipOpRegion(r)
		case 0x81: // DefField
			return skipPkgLengthBlock(r)
		case 0x82: // DefDevice
			return parseDefDevice(r, path, visitor)
		case 0x83: // DefProcessor
			return parseDefProcessor(r, path, visitor)
		case 0x84: // DefPowerRes
			return parseDefPowerRes(r, path, visitor)
		case 0x85: // DefThermalZone
			return parseDefThermalZone(r, path, visitor)
		case 0x01, 0x02: // DefMutex, DefEvent
			if err := skipNameString(r); err != nil {
				return err
			}
			r.skip(1)
			return nil
		case 0x86, 0x87: // DefIndexField, DefBankField
			return skipPkgLengthBlock(r)
		case 0x13, 0x0D: // DefCreateField variants
			return InvalidAML{}
		default:
			return skipPkgLengthBlock(r)
		}
	case op == 0x0A: // ByteConst
		r.skip(1)
		return nil
	case op == 0x0B: // WordConst
		r.skip(2)
		return nil
	case op == 0x0C: // DWordConst
		r.skip(4)
		return nil
	case op == 0x0D: // StringConst
		skipString(r)
		return nil
	case op == 0x0E: // QWordConst
		r.skip(8)
		return nil
	case op == 0x11: // DefBuffer
		return skipPkgLengthBlock(r)
	case op == 0x12 || op == 0x13: // DefPackage / DefVarPackage
		return skipPkgLengthBlock(r)
	case op == 0x00 || op == 0x01 || op == 0xFF: // Zero, One, Ones
		return nil
	case isLocalOrArg(op): // Local0-7, Arg0-6
		return nil
	case isNameLead(op):
		return skipRemainingNameAfterLead(r, op)
	case op == 0xA0 || op == 0xA1 || op == 0xA2: // DefIf, DefElse, DefWhile
		return skipPkgLengthBlock(r)
	case op == 0xA4: // DefReturn
		return skipDataObject(r)
	case op == 0xA3: // NoOp
		return nil
	case op == 0xA5: // DefBreak
		return nil
	default:
		return nil
	}
}

func parseDefName(r *reader, path *Path, visitor Visitor) error {
	name, ok := r.readNameSeg()
	if !ok {
		return UnexpectedEnd{}
	}
	value := resolveDataObject(r)
	visitor.NameObject(path, name, value)
	return nil
}

func parseDefScope(r *reader, path *Path, visitor Visitor) error {
	pkgRemaining, err := decodePkgLength(r)
	if err != nil {
		return err
	}
	absEnd := r.position() + pkgRemaining

	name, err := readNamePath(r)
	if err != nil {
		return err
	}

	if err := path.Push(name); err != nil {
		return err
	}
	visitor.EnterScope(path)

	remaining := r.remaining()
	blockLen := clampLen(absEnd-r.position(), len(remaining))
	parseTermList(remaining[:blockLen], blockLen, path, visitor)

	skipTo(r, absEnd)
	visitor.ExitScope()
	path.Pop()
	return nil
}

func parseDefMethod(r *reader, path *Path, visitor Visitor) error {
	pkgRemaining, err := decodePkgLength(r)
	if err != nil {
		return err
	}
	absEnd := r.position() + pkgRemaining

	name, ok := r.readNameSeg()
	if !ok {
		return UnexpectedEnd{}
	}
	flags, ok := r.readU8()
	if !ok {
		return UnexpectedEnd{}
	}
	argCount := flags & 0x07
	serialized := flags&0x08 != 0

	visitor.Method(path, name, argCount, serialized)
	skipTo(r, absEnd)
	return nil
}

func parseDefDevice(r *reader, path *Path, visitor Visitor) error {
	pkgRemaining, err := decodePkgLength(r)
	if err != nil {
		return err
	}
	absEnd := r.position() + pkgRemaining

	name, ok := r.readNameSeg()
	if !ok {
		return UnexpectedEnd{}
	}

	if err := path.Push(name); err != nil {
		return err
	}
	visitor.Device(path, name)
	visitor.EnterScope(path)

	remaining := r.remaining()
	blockLen := clampLen(absEnd-r.position(), len(remaining))
	parseTermList(remaining[:blockLen], blockLen, path, visitor)

	skipTo(r, absEnd)
	visitor.ExitScope()
	path.Pop()
	return nil
}

func parseDefProcessor(r *reader, path *Path, visitor Visitor) error {
	pkgRemaining, err := decodePkgLength(r)
	if err != nil {
		return err
	}
	absEnd := r.position() + pkgRemaining

	name, ok := r.readNameSeg()
	if !ok {
		return UnexpectedEnd{}
	}
	procID, ok := r.readU8()
	if !ok {
		return UnexpectedEnd{}
	}
	visitor.Processor(path, name, procID)
	skipTo(r, absEnd)
	return nil
}

func parseDefPowerRes(r *reader, path *Path, visitor Visitor) error {
	pkgRemaining, err := decodePkgLength(r)
	if err != nil {
		return err
	}
	absEnd := r.position() + pkgRemaining

	name, ok := r.readNameSeg()
	if !ok {
		return UnexpectedEnd{}
	}
	visitor.PowerResource(path, name)
	skipTo(r, absEnd)
	return nil
}

func parseDefThermalZone(r *reader, path *Path, visitor Visitor) error {
	pkgRemaining, err := decodePkgLength(r)
	if err != nil {
		return err
	}
	absEnd := r.position() + pkgRemaining

	name, ok := r.readNameSeg()
	if !ok {
		return UnexpectedEnd{}
	}

	if err := path.Push(name); err != nil {
		return err
	}
	visitor.ThermalZone(path, name)
	visitor.EnterScope(path)

	remaining := r.remaining()
	blockLen := clampLen(absEnd-r.position(), len(remaining))
	parseTermList(remaining[:blockLen], blockLen, path, visitor)

	skipTo(r, absEnd)
	visitor.ExitScope()
	path.Pop()
	return nil
}

func skipOpRegion(r *reader) error {
	if err := skipNameString(r); err != nil {
		return err
	}
	r.skip(1) // RegionSpace
	if err := skipDataObject(r); err != nil {
		return err
	}
	return skipDataObject(r)
}

func skipPkgLengthBlock(r *reader) error {
	pkgRemaining, err := decodePkgLength(r)
	if err != nil {
		return err
	}
	skipTo(r, r.position()+pkgRemaining)
	return nil
}

// ─── Name parsing ───────────────────────────────────────────────────────

func readNamePath(r *reader) (NameSeg, error) {
	for {
		rest := r.remaining()
		if len(rest) == 0 {
			return NameSeg{}, UnexpectedEnd{}
		}
		if rest[0] == '\\' || rest[0] == '^' {
			r.skip(1)
			continue
		}
		break
	}

	rest := r.remaining()
	if len(rest) == 0 {
		return NameSeg{}, UnexpectedEnd{}
	}

	switch {
	case rest[0] == 0x00: // NullName
		r.skip(1)
		return nullNameSeg, nil
	case rest[0] == 0x2E: // DualNamePath
		r.skip(1)
		if _, ok := r.readNameSeg(); !ok {
			return NameSeg{}, UnexpectedEnd{}
		}
		second, ok := r.readNameSeg()
		if !ok {
			return NameSeg{}, UnexpectedEnd{}
		}
		return second, nil
	case rest[0] == 0x2F: // MultiNamePath
		r.skip(1)
		segCount, ok := r.readU8()
		if !ok {
			return NameSeg{}, UnexpectedEnd{}
		}
		last := nullNameSeg
		for i := 0; i < int(segCount); i++ {
			seg, ok := r.readNameSeg()
			if !ok {
				return NameSeg{}, UnexpectedEnd{}
			}
			last = seg
		}
		return last, nil
	case (rest[0] >= 'A' && rest[0] <= 'Z') || rest[0] == '_':
		seg, ok := r.readNameSeg()
		if !ok {
			return NameSeg{}, UnexpectedEnd{}
		}
		return seg, nil
	default:
		return NameSeg{}, InvalidAML{}
	}
}

func skipNameString(r *reader) error {
	for {
		rest := r.remaining()
		if len(rest) == 0 {
			return UnexpectedEnd{}
		}
		if rest[0] == '\\' || rest[0] == '^' {
			r.skip(1)
			continue
		}
		break
	}

	rest := r.remaining()
	if len(rest) == 0 {
		return UnexpectedEnd{}
	}

	switch {
	case rest[0] == 0x00:
		r.skip(1)
		return nil
	case rest[0] == 0x2E:
		r.skip(1 + 8)
		return nil
	case rest[0] == 0x2F:
		r.skip(1)
		segCount, ok := r.readU8()
		if !ok {
			return UnexpectedEnd{}
		}
		r.skip(int(segCount) * 4)
		return nil
	case (rest[0] >= 'A' && rest[0] <= 'Z') || rest[0] == '_':
		r.skip(4)
		return nil
	default:
		return InvalidAML{}
	}
}

func skipRemainingNameAfterLead(r *reader, lead byte) error {
	switch {
	case lead == '\\' || lead == '^':
		return skipNameString(r)
	case lead == '.':
		r.skip(8)
		return nil
	case lead == '/':
		segCount, ok := r.readU8()
		if !ok {
			return UnexpectedEnd{}
		}
		r.skip(int(segCount) * 4)
		return nil
	case (lead >= 'A' && lead <= 'Z') || lead == '_':
		r.skip(3)
		return nil
	default:
		return nil
	}
}

// ─── PkgLength decoding ──────────────────────────────────────────────────

// decodePkgLength decodes an ACPI PkgLength field (1-4 bytes) and
// returns the number of bytes belonging to the package that follow the
// PkgLength field itself.
func decodePkgLength(r *reader) (int, error) {
	lead, ok := r.readU8()
	if !ok {
		return 0, UnexpectedEnd{}
	}
	byteCount := (lead >> 6) & 0x03

	if byteCount == 0 {
		length := int(lead & 0x3F)
		return maxInt(length-1, 0), nil
	}

	length := int(lead & 0x0F)
	for i := 0; i < int(byteCount); i++ {
		b, ok := r.readU8()
		if !ok {
			return 0, UnexpectedEnd{}
		}
		length |= int(b) << (4 + i*8)
	}
	headerSize := 1 + int(byteCount)
	return maxInt(length-headerSize, 0), nil
}

// ─── Data object resolution ──────────────────────────────────────────────

func resolveDataObject(r *reader) Value {
	rest := r.remaining()
	if len(rest) == 0 {
		return unresolvedValue()
	}

	switch rest[0] {
	case 0x00: // ZeroOp
		r.skip(1)
		return integerValue(0)
	case 0x01: // OneOp
		r.skip(1)
		return integerValue(1)
	case 0xFF: // OnesOp
		r.skip(1)
		return integerValue(^uint64(0))
	case 0x0A: // ByteConst
		r.skip(1)
		v, ok := r.readU8()
		if !ok {
			return unresolvedValue()
		}
		return integerValue(uint64(v))
	case 0x0B: // WordConst
		r.skip(1)
		v, ok := r.readU16()
		if !ok {
			return unresolvedValue()
		}
		return integerValue(uint64(v))
	case 0x0C: // DWordConst
		r.skip(1)
		v, ok := r.readU32()
		if !ok {
			return unresolvedValue()
		}
		return integerValue(uint64(v))
	case 0x0D: // StringConst
		r.skip(1)
		start := r.position()
		skipString(r)
		end := maxInt(r.position()-1, start) // exclude NUL terminator
		if end > r.len() {
			end = r.len()
		}
		return stringValue(InlineStringFromBytes(r.data[start:end]))
	case 0x0E: // QWordConst
		r.skip(1)
		v, ok := r.readU64()
		if !ok {
			return unresolvedValue()
		}
		return integerValue(v)
	case 0x11: // Buffer — check for EISAID pattern
		return tryResolveEisaID(r)
	case 0x12, 0x13: // Package / VarPackage
		r.skip(1)
		_ = skipPkgLengthBlockInner(r)
		return unresolvedValue()
	case 0x5B: // Revision op
		if len(rest) > 1 && rest[1] == 0x30 {
			r.skip(2)
			return integerValue(2)
		}
		return unresolvedValue()
	default:
		return unresolvedValue()
	}
}

// tryResolveEisaID recognizes the `Buffer(4){DWordConst}` pattern used
// to encode an EISA ID for _HID/_CID and decodes it; anything else
// inside the buffer is skipped as Unresolved.
func tryResolveEisaID(r *reader) Value {
	r.skip(1) // Buffer op (0x11)

	pkgRemaining, err := decodePkgLength(r)
	if err != nil {
		return unresolvedValue()
	}
	bodyEnd := r.position() + pkgRemaining

	rest := r.remaining()
	if len(rest) == 0 {
		skipTo(r, bodyEnd)
		return unresolvedValue()
	}

	var bufSize int
	var haveBufSize bool
	switch rest[0] {
	case 0x0A:
		r.skip(1)
		v, ok := r.readU8()
		bufSize, haveBufSize = int(v), ok
	case 0x0C:
		r.skip(1)
		v, ok := r.readU32()
		bufSize, haveBufSize = int(v), ok
	case 0x00:
		r.skip(1)
		bufSize, haveBufSize = 0, true
	}

	if haveBufSize && bufSize == 4 {
		rest = r.remaining()
		if len(rest) > 0 && rest[0] == 0x0C {
			r.skip(1)
			if raw, ok := r.readU32(); ok {
				skipTo(r, bodyEnd)
				return eisaIDValue(EisaID{Raw: raw})
			}
		} else if len(rest) >= 4 {
			if raw, ok := r.readU32(); ok {
				skipTo(r, bodyEnd)
				return eisaIDValue(EisaID{Raw: raw})
			}
		}
	}

	skipTo(r, bodyEnd)
	return unresolvedValue()
}

func skipDataObject(r *reader) error {
	rest := r.remaining()
	if len(rest) == 0 {
		return UnexpectedEnd{}
	}
	switch {
	case rest[0] == 0x00 || rest[0] == 0x01 || rest[0] == 0xFF:
		r.skip(1)
	case rest[0] == 0x0A:
		r.skip(2)
	case rest[0] == 0x0B:
		r.skip(3)
	case rest[0] == 0x0C:
		r.skip(5)
	case rest[0] == 0x0D:
		r.skip(1)
		skipString(r)
	case rest[0] == 0x0E:
		r.skip(9)
	case rest[0] == 0x11 || rest[0] == 0x12 || rest[0] == 0x13:
		r.skip(1)
		return skipPkgLengthBlockInner(r)
	case isLocalOrArg(rest[0]):
		r.skip(1)
	case isNameLead(rest[0]):
		return skipNameString(r)
	default:
		r.skip(1)
	}
	return nil
}

// ─── Helpers ──────────────────────────────────────────────────────────

func skipString(r *reader) {
	for {
		b, ok := r.readU8()
		if !ok || b == 0 {
			return
		}
	}
}

func skipPkgLengthBlockInner(r *reader) error {
	pkgRemaining, err := decodePkgLength(r)
	if err != nil {
		return err
	}
	skipTo(r, r.position()+pkgRemaining)
	return nil
}

func skipTo(r *reader, target int) {
	if target > r.len() {
		target = r.len()
	}
	amount := target - r.position()
	if amount > 0 {
		r.skip(amount)
	}
}

func clampLen(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
