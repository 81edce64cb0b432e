package bootinfo

import (
	"hadron/src/addr"
	"hadron/src/fvec"
)

// InitrdInfo locates an initial ramdisk image in physical memory.
type InitrdInfo struct {
	PhysAddr addr.Phys
	Size     uint64
}

// KernelAddress is where the kernel image was loaded, in both physical
// and virtual terms.
type KernelAddress struct {
	PhysicalBase addr.Phys
	VirtualBase  addr.Virt
}

// Info is the fixed-field, immutable-after-boot handoff record the
// kernel's entry point builds from Limine responses and never mutates
// again: every subsystem that needs boot-time facts (the page-table
// mapper's HHDM offset, platform init's RSDP, the scheduler's CPU count)
// reads it, none of them write it.
//
// Grounded on spec.md §6's boot-info record field list.
type Info struct {
	HHDMOffset     uint64
	PagingMode     PagingMode
	KernelAddress  KernelAddress
	PageTableRoot  addr.Phys
	MemoryMap      *fvec.V[MemoryRegion]
	Framebuffers   *fvec.V[FramebufferInfo]
	RSDPAddress    *addr.Phys
	DTBAddress     *addr.Phys
	SMBIOS32       *addr.Phys
	SMBIOS64       *addr.Phys
	CommandLine    *string
	Initrd         *InitrdInfo
	SMPCPUs        *fvec.V[MPCPUEntry]
	BSPLAPICID     uint32
}

const (
	maxMemoryMapEntries  = 256
	maxFramebufferInfos  = 8
	maxSMPCPUEntries     = 256
)

// NewInfo returns an empty Info with its bounded lists sized to the
// spec's fixed upper bounds, ready for a caller to populate via Build.
func NewInfo() *Info {
	return &Info{
		MemoryMap:    fvec.New[MemoryRegion](maxMemoryMapEntries),
		Framebuffers: fvec.New[FramebufferInfo](maxFramebufferInfos),
		SMPCPUs:      fvec.New[MPCPUEntry](maxSMPCPUEntries),
	}
}

// Responses bundles every Limine response the kernel's entry stub reads
// before assembling Info. Optional fields are nil when the bootloader
// left the corresponding request unanswered.
type Responses struct {
	HHDM         *HHDMResponse
	PagingMode   *PagingModeResponse
	Address      *ExecutableAddressResponse
	Memmap       *MemmapResponse
	Framebuffer  *FramebufferResponse
	RSDP         *RSDPResponse
	SMBIOS       *SMBIOSResponse
	DTB          *DeviceTreeBlobResponse
	CmdLine      *ExecutableCmdlineResponse
	Initrd       *InitrdInfo
	MP           *MPResponse
	PageTableRoot addr.Phys
}

// Build assembles an Info record from a set of Limine responses,
// clamping every bounded list at its fixed capacity (spec.md §6's
// V<_, 256>/V<_, 8> upper bounds) rather than growing past it. Fields
// with no corresponding response are left at their zero/nil value.
func Build(r Responses) *Info {
	info := NewInfo()

	if r.HHDM != nil {
		info.HHDMOffset = r.HHDM.Offset
	}
	if r.PagingMode != nil {
		info.PagingMode = r.PagingMode.Mode
	}
	if r.Address != nil {
		info.KernelAddress = KernelAddress{
			PhysicalBase: r.Address.PhysicalBase,
			VirtualBase:  r.Address.VirtualBase,
		}
	}
	info.PageTableRoot = r.PageTableRoot

	if r.Memmap != nil {
		for i := 0; i < r.Memmap.Count && i < maxMemoryMapEntries; i++ {
			info.MemoryMap.Push(r.Memmap.Regions[i])
		}
	}
	if r.Framebuffer != nil {
		for i := 0; i < r.Framebuffer.Count && i < maxFramebufferInfos; i++ {
			info.Framebuffers.Push(r.Framebuffer.Framebuffers[i])
		}
	}
	if r.RSDP != nil {
		addrCopy := r.RSDP.Address
		info.RSDPAddress = &addrCopy
	}
	if r.DTB != nil {
		addrCopy := r.DTB.Address
		info.DTBAddress = &addrCopy
	}
	if r.SMBIOS != nil {
		if r.SMBIOS.Entry32 != 0 {
			v := r.SMBIOS.Entry32
			info.SMBIOS32 = &v
		}
		if r.SMBIOS.Entry64 != 0 {
			v := r.SMBIOS.Entry64
			info.SMBIOS64 = &v
		}
	}
	if r.CmdLine != nil {
		line := r.CmdLine.CmdLine
		info.CommandLine = &line
	}
	if r.Initrd != nil {
		initrd := *r.Initrd
		info.Initrd = &initrd
	}
	if r.MP != nil {
		info.BSPLAPICID = r.MP.BSPLAPICID
		for i := 0; i < r.MP.Count && i < maxSMPCPUEntries; i++ {
			info.SMPCPUs.Push(r.MP.CPUs[i])
		}
	}

	return info
}

// UsableMemoryTotal sums the length of every MemoryUsable region, the
// figure platform init logs at the start of boot (spec.md §8 scenario 1).
func (i *Info) UsableMemoryTotal() uint64 {
	var total uint64
	for _, r := range i.MemoryMap.Slice() {
		if r.Kind == MemoryUsable {
			total += r.Length
		}
	}
	return total
}

// HasACPI reports whether the bootloader handed over an RSDP address.
func (i *Info) HasACPI() bool { return i.RSDPAddress != nil }
