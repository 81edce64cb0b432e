package bootinfo

import "hadron/src/addr"

// BootloaderInfoResponse names the bootloader that booted the kernel.
type BootloaderInfoResponse struct {
	Name    string
	Version string
}

// ExecutableCmdlineResponse carries the kernel command line verbatim.
type ExecutableCmdlineResponse struct {
	CmdLine string
}

// FirmwareType enumerates how the machine was booted.
type FirmwareType uint32

const (
	FirmwareX86BIOS FirmwareType = iota
	FirmwareUEFI32
	FirmwareUEFI64
	FirmwareSBI
)

// FirmwareTypeResponse reports which firmware the bootloader ran under.
type FirmwareTypeResponse struct {
	Type FirmwareType
}

// StackSizeResponse acknowledges a stack-size request; an empty response
// still means the requested size was honored, per the Limine contract.
type StackSizeResponse struct{}

// HHDMResponse carries the half-high direct-map's virtual base offset.
type HHDMResponse struct {
	Offset uint64
}

// PixelFormatKind distinguishes a packed RGB/BGR framebuffer from one
// described by an explicit per-channel bitmask.
type PixelFormatKind uint8

const (
	PixelFormatRGB32 PixelFormatKind = iota
	PixelFormatBGR32
	PixelFormatBitmask
)

// PixelFormat describes how to decode one framebuffer pixel. Only
// Bitmask uses the per-channel fields; RGB32/BGR32 are fixed layouts.
type PixelFormat struct {
	Kind       PixelFormatKind
	RedSize    uint8
	RedShift   uint8
	GreenSize  uint8
	GreenShift uint8
	BlueSize   uint8
	BlueShift  uint8
}

// FramebufferInfo describes one linear framebuffer the bootloader set up.
type FramebufferInfo struct {
	Address addr.Virt
	Width   uint32
	Height  uint32
	Pitch   uint32
	BPP     uint8
	Format  PixelFormat
}

const maxFramebuffers = 8

// FramebufferResponse carries every framebuffer the bootloader exposed.
type FramebufferResponse struct {
	Framebuffers [maxFramebuffers]FramebufferInfo
	Count        int
}

// PagingMode selects the depth of the x86_64 page-table hierarchy.
type PagingMode uint32

const (
	PagingLevel4 PagingMode = iota
	PagingLevel5
)

// PagingModeResponse reports the paging mode the bootloader actually set
// up, which may differ from the kernel's preferred mode if it fell
// outside [min, max].
type PagingModeResponse struct {
	Mode PagingMode
}

// MPCPUEntry describes one CPU the bootloader parked, including the
// addresses of the fields the BSP writes to launch it (spec.md §6's "AP
// bring-up" handoff).
type MPCPUEntry struct {
	ProcessorID     uint32
	LAPICID         uint32
	GotoAddress     uintptr
	ExtraArgument   uintptr
}

const maxSMPCPUs = 256

// MPResponse enumerates every CPU in the system, BSP included.
type MPResponse struct {
	Flags      uint64
	BSPLAPICID uint32
	CPUs       [maxSMPCPUs]MPCPUEntry
	Count      int
}

// MemoryRegionKind classifies a memory-map entry.
type MemoryRegionKind uint32

const (
	MemoryUsable MemoryRegionKind = iota
	MemoryReserved
	MemoryACPIReclaimable
	MemoryACPINVS
	MemoryBadMemory
	MemoryBootloaderReclaimable
	MemoryKernelAndModules
	MemoryFramebuffer
)

// MemoryRegion describes one contiguous physical memory range.
type MemoryRegion struct {
	Base   addr.Phys
	Length uint64
	Kind   MemoryRegionKind
}

const maxMemoryRegions = 256

// MemmapResponse carries the full physical memory map.
type MemmapResponse struct {
	Regions [maxMemoryRegions]MemoryRegion
	Count   int
}

// EntryPointResponse acknowledges a custom-entry-point request.
type EntryPointResponse struct{}

// ExecutableFileResponse describes the kernel's own loaded image.
type ExecutableFileResponse struct {
	Path    string
	CmdLine string
}

const maxModules = 64

// ModuleInfo describes one loaded module file.
type ModuleInfo struct {
	Address addr.Virt
	Size    uint64
	Path    string
	CmdLine string
}

// ModuleResponse enumerates every module the bootloader loaded.
type ModuleResponse struct {
	Modules [maxModules]ModuleInfo
	Count   int
}

// RSDPResponse carries the physical address of the ACPI RSDP.
type RSDPResponse struct {
	Address addr.Phys
}

// SMBIOSResponse carries the physical addresses of the 32-bit and 64-bit
// SMBIOS entry points; zero means absent.
type SMBIOSResponse struct {
	Entry32 addr.Phys
	Entry64 addr.Phys
}

// EFISystemTableResponse carries the virtual address of the UEFI system
// table, when booted via UEFI.
type EFISystemTableResponse struct {
	Address addr.Virt
}

// EFIMemoryMapResponse carries the raw UEFI memory map and its
// descriptor geometry, when booted via UEFI.
type EFIMemoryMapResponse struct {
	Address          addr.Virt
	Size             uint64
	DescriptorSize   uint64
	DescriptorVersion uint32
}

// DateAtBootResponse carries a UNIX timestamp captured at handoff.
type DateAtBootResponse struct {
	UnixSeconds int64
}

// ExecutableAddressResponse carries the kernel's load addresses.
type ExecutableAddressResponse struct {
	PhysicalBase addr.Phys
	VirtualBase  addr.Virt
}

// DeviceTreeBlobResponse carries the physical address of the flattened
// device tree, on platforms that use one instead of ACPI.
type DeviceTreeBlobResponse struct {
	Address addr.Phys
}

// BootloaderPerformanceResponse reports coarse boot-stage timings for
// diagnostics.
type BootloaderPerformanceResponse struct {
	ResetToHandoffMicros uint64
}
