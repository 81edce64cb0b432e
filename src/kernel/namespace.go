package kernel

import "hadron/src/aml"

// NamespaceDevice records one Device(...) object discovered while
// walking a DSDT/SSDT.
type NamespaceDevice struct {
	Path string
	Name string
}

// NamespaceObject records one named value (DefName) discovered while
// walking a DSDT/SSDT.
type NamespaceObject struct {
	Path  string
	Name  string
	Value aml.Value
}

// Namespace is the persisted result of walking the DSDT and any SSDTs
// (spec.md §4.G step 4: "persist the resulting namespace"). It
// implements aml.Visitor directly rather than delegating to a
// stand-alone builder type, since nothing outside platform init
// constructs one.
type Namespace struct {
	Devices []NamespaceDevice
	Objects []NamespaceObject
}

// NewNamespace returns an empty Namespace ready to receive one or more
// aml.WalkAML calls (one per DSDT/SSDT table).
func NewNamespace() *Namespace { return &Namespace{} }

func (n *Namespace) EnterScope(path *aml.Path) {}
func (n *Namespace) ExitScope()                {}

func (n *Namespace) NameObject(path *aml.Path, name aml.NameSeg, value aml.Value) {
	n.Objects = append(n.Objects, NamespaceObject{Path: path.String(), Name: name.String(), Value: value})
}

func (n *Namespace) Method(path *aml.Path, name aml.NameSeg, argCount uint8, serialized bool) {}

func (n *Namespace) Device(path *aml.Path, name aml.NameSeg) {
	n.Devices = append(n.Devices, NamespaceDevice{Path: path.String(), Name: name.String()})
}

func (n *Namespace) Processor(path *aml.Path, name aml.NameSeg, procID uint8) {}
func (n *Namespace) PowerResource(path *aml.Path, name aml.NameSeg)           {}
func (n *Namespace) ThermalZone(path *aml.Path, name aml.NameSeg)             {}

// Find returns the named object at the given dotted path ("\_SB.PCI0",
// "_HID"), or false if nothing was recorded under that name.
func (n *Namespace) Find(path, name string) (NamespaceObject, bool) {
	for _, o := range n.Objects {
		if o.Path == path && o.Name == name {
			return o, true
		}
	}
	return NamespaceObject{}, false
}
