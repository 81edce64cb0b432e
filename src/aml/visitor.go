package aml

// Visitor receives namespace objects as WalkAML encounters them. The
// walker never evaluates control flow or method bodies; it only
// extracts static topology, so a Visitor sees scopes, devices, named
// values, and method signatures — never an executed value.
type Visitor interface {
	// EnterScope is called after path has been pushed with the segment
	// for a Scope/Device/ThermalZone object, before its TermList is
	// walked.
	EnterScope(path *Path)
	// ExitScope is called after a scope's TermList has been fully
	// walked, before the segment is popped.
	ExitScope()
	// NameObject reports a DefName: a named value directly in path.
	NameObject(path *Path, name NameSeg, value Value)
	// Method reports a DefMethod signature (body is not parsed).
	Method(path *Path, name NameSeg, argCount uint8, serialized bool)
	// Device reports a DefDevice, immediately before EnterScope for its
	// body.
	Device(path *Path, name NameSeg)
	// Processor reports a DefProcessor.
	Processor(path *Path, name NameSeg, procID uint8)
	// PowerResource reports a DefPowerRes.
	PowerResource(path *Path, name NameSeg)
	// ThermalZone reports a DefThermalZone, immediately before
	// EnterScope for its body.
	ThermalZone(path *Path, name NameSeg)
}
