package paging

import (
	"unsafe"

	"hadron/src/addr"
)

// NotMapped is returned by Unmap, UpdateFlags, and TranslateAddr when the
// requested virtual address has no mapping at any level of the walk.
type NotMapped struct{}

func (NotMapped) Error() string { return "paging: address not mapped" }

// SizeMismatch is returned by Map/Unmap when a Page and PhysFrame (or a
// Page and the size actually found live in the tables) disagree on size.
type SizeMismatch struct{}

func (SizeMismatch) Error() string { return "paging: page/frame size mismatch" }

// FrameAllocationFailed is returned by Map when a new intermediate table
// is needed and the injected FrameAllocator has no frame to give.
type FrameAllocationFailed struct{}

func (FrameAllocationFailed) Error() string { return "paging: frame allocator exhausted" }

// FrameAllocator hands out zeroed 4 KiB physical frames for new
// intermediate page tables. Implementations for the real kernel draw
// from the boot-time memory map; hostsim draws from ordinary Go
// allocations whose address stands in for a physical one.
type FrameAllocator interface {
	AllocFrame() (addr.Phys, bool)
}

// FlushToken records that a mapping operation changed a translation and
// the TLB entry for its address may be stale. Flush is separate from the
// mapping call itself so callers can batch invalidation (e.g. shootdown
// IPIs) instead of flushing inline on every Map/Unmap.
type FlushToken struct {
	addr    addr.Virt
	pending bool
}

// Flush marks the token as handled. It only clears the pending mark that
// Pending reports; it issues no INVLPG and touches no TLB.
func (t *FlushToken) Flush() { t.pending = false }

// Pending reports whether Flush has not yet been called.
func (t FlushToken) Pending() bool { return t.pending }

func flushFor(v addr.Virt) FlushToken { return FlushToken{addr: v, pending: true} }

// Mapper walks and mutates a single x86_64 4-level page-table hierarchy
// rooted at a PML4 frame, addressing physical memory through the HHDM.
//
// Grounded on
// original_source/kernel/hadron-core/src/arch/x86_64/paging/mapper.rs
// (PageTableMapper, map_2mib/map_1gib/map_4k, unmap_4k, translate).
type Mapper struct {
	hhdmOffset uint64
	root       addr.Phys
	alloc      FrameAllocator
}

// New constructs a Mapper over an existing PML4 table at root, reachable
// through the HHDM at hhdmOffset. New intermediate tables are drawn from
// alloc.
func New(root addr.Phys, hhdmOffset uint64, alloc FrameAllocator) *Mapper {
	return &Mapper{hhdmOffset: hhdmOffset, root: root, alloc: alloc}
}

func (m *Mapper) tableAt(phys addr.Phys) *Table {
	v := phys.ToVirt(m.hhdmOffset)
	return (*Table)(unsafe.Pointer(uintptr(v)))
}

// ensureTable returns the table that parent.Entries[idx] points to,
// allocating and zeroing a fresh frame if the entry is not yet present.
// An existing intermediate entry's flags are only ever OR'd with
// Present|Writable (and User, if wantUser) — never cleared — so a single
// intermediate table can serve mappings with different per-leaf
// permissions.
func (m *Mapper) ensureTable(parent *Table, idx uint16, wantUser bool) (*Table, error) {
	entry := &parent.Entries[idx]
	if !entry.IsPresent() {
		frame, ok := m.alloc.AllocFrame()
		if !ok {
			return nil, FrameAllocationFailed{}
		}
		*m.tableAt(frame) = Table{}
		flags := Present | Writable
		if wantUser {
			flags |= User
		}
		*entry = NewEntry(uint64(frame), flags)
		return m.tableAt(frame), nil
	}
	flags := entry.Flags() | Present | Writable
	if wantUser {
		flags |= User
	}
	*entry = NewEntry(entry.Address(), flags)
	return m.tableAt(addr.Phys(entry.Address())), nil
}

// Map installs a mapping from page to frame with the given leaf flags.
// page.Size and frame.Size must agree, else SizeMismatch. A page that is
// already mapped is silently overwritten with the new frame and flags —
// relabeling a live mapping is the caller's responsibility — so the only
// other failure is FrameAllocationFailed, when a new intermediate table
// is needed and the injected FrameAllocator has none to give.
func (m *Mapper) Map(page addr.Page, frame addr.PhysFrame, flags Flags) (FlushToken, error) {
	if page.Size != frame.Size {
		return FlushToken{}, SizeMismatch{}
	}
	pml4, pdpt, pd, pt := page.Base.Indices()
	wantUser := flags.Has(User)

	pdptTable, err := m.ensureTable(m.tableAt(m.root), pml4, wantUser)
	if err != nil {
		return FlushToken{}, err
	}

	if frame.Size == addr.Size1GiB {
		pdptTable.Entries[pdpt] = NewEntry(uint64(frame.Base), flags|Present|HugePage)
		return flushFor(page.Base), nil
	}

	pdTable, err := m.ensureTable(pdptTable, pdpt, wantUser)
	if err != nil {
		return FlushToken{}, err
	}

	if frame.Size == addr.Size2MiB {
		pdTable.Entries[pd] = NewEntry(uint64(frame.Base), flags|Present|HugePage)
		return flushFor(page.Base), nil
	}

	ptTable, err := m.ensureTable(pdTable, pd, wantUser)
	if err != nil {
		return FlushToken{}, err
	}
	ptTable.Entries[pt] = NewEntry(uint64(frame.Base), flags|Present)
	return flushFor(page.Base), nil
}

// walkResult identifies the table holding the leaf entry for a virtual
// address, the index of that entry within the table, and the page size
// the entry actually represents.
type walkResult struct {
	table *Table
	index uint16
	size  addr.PageSizeTag
}

func (m *Mapper) walk(v addr.Virt) (walkResult, error) {
	pml4, pdpt, pd, pt := v.Indices()

	root := m.tableAt(m.root)
	pml4Entry := &root.Entries[pml4]
	if !pml4Entry.IsPresent() {
		return walkResult{}, NotMapped{}
	}
	pdptTable := m.tableAt(addr.Phys(pml4Entry.Address()))

	pdptEntry := &pdptTable.Entries[pdpt]
	if !pdptEntry.IsPresent() {
		return walkResult{}, NotMapped{}
	}
	if pdptEntry.Flags().Has(HugePage) {
		return walkResult{table: pdptTable, index: pdpt, size: addr.Size1GiB}, nil
	}
	pdTable := m.tableAt(addr.Phys(pdptEntry.Address()))

	pdEntry := &pdTable.Entries[pd]
	if !pdEntry.IsPresent() {
		return walkResult{}, NotMapped{}
	}
	if pdEntry.Flags().Has(HugePage) {
		return walkResult{table: pdTable, index: pd, size: addr.Size2MiB}, nil
	}
	ptTable := m.tableAt(addr.Phys(pdEntry.Address()))

	ptEntry := &ptTable.Entries[pt]
	if !ptEntry.IsPresent() {
		return walkResult{}, NotMapped{}
	}
	return walkResult{table: ptTable, index: pt, size: addr.Size4KiB}, nil
}

// Unmap clears the leaf entry backing page and returns the frame that was
// mapped there. It never frees or reclaims intermediate tables (see
// DESIGN.md's Open Question decisions): an emptied PT/PD/PDPT is left
// allocated for reuse by later mappings in the same region.
func (m *Mapper) Unmap(page addr.Page) (addr.PhysFrame, FlushToken, error) {
	w, err := m.walk(page.Base)
	if err != nil {
		return addr.PhysFrame{}, FlushToken{}, err
	}
	if w.size != page.Size {
		return addr.PhysFrame{}, FlushToken{}, SizeMismatch{}
	}
	entry := &w.table.Entries[w.index]
	frame := addr.PhysFrame{Size: w.size, Base: addr.Phys(entry.Address())}
	*entry = Empty()
	return frame, flushFor(page.Base), nil
}

// UpdateFlags replaces the leaf flags for page with newFlags, preserving
// the mapped address and the HugePage bit. If newFlags grants User
// access, User is OR'd into every intermediate entry along the walk (an
// ancestor table's permissions are only ever widened, never narrowed, so
// sibling mappings already relying on a tighter ancestor are unaffected
// in the other direction).
func (m *Mapper) UpdateFlags(page addr.Page, newFlags Flags) (FlushToken, error) {
	pml4, pdpt, pd, pt := page.Base.Indices()
	wantUser := newFlags.Has(User)

	root := m.tableAt(m.root)
	pml4Entry := &root.Entries[pml4]
	if !pml4Entry.IsPresent() {
		return FlushToken{}, NotMapped{}
	}
	if wantUser {
		*pml4Entry = NewEntry(pml4Entry.Address(), pml4Entry.Flags()|User)
	}
	pdptTable := m.tableAt(addr.Phys(pml4Entry.Address()))

	pdptEntry := &pdptTable.Entries[pdpt]
	if !pdptEntry.IsPresent() {
		return FlushToken{}, NotMapped{}
	}
	if pdptEntry.Flags().Has(HugePage) {
		if page.Size != addr.Size1GiB {
			return FlushToken{}, SizeMismatch{}
		}
		*pdptEntry = NewEntry(pdptEntry.Address(), newFlags|Present|HugePage)
		return flushFor(page.Base), nil
	}
	if wantUser {
		*pdptEntry = NewEntry(pdptEntry.Address(), pdptEntry.Flags()|User)
	}
	pdTable := m.tableAt(addr.Phys(pdptEntry.Address()))

	pdEntry := &pdTable.Entries[pd]
	if !pdEntry.IsPresent() {
		return FlushToken{}, NotMapped{}
	}
	if pdEntry.Flags().Has(HugePage) {
		if page.Size != addr.Size2MiB {
			return FlushToken{}, SizeMismatch{}
		}
		*pdEntry = NewEntry(pdEntry.Address(), newFlags|Present|HugePage)
		return flushFor(page.Base), nil
	}
	if wantUser {
		*pdEntry = NewEntry(pdEntry.Address(), pdEntry.Flags()|User)
	}
	ptTable := m.tableAt(addr.Phys(pdEntry.Address()))

	ptEntry := &ptTable.Entries[pt]
	if !ptEntry.IsPresent() {
		return FlushToken{}, NotMapped{}
	}
	if page.Size != addr.Size4KiB {
		return FlushToken{}, SizeMismatch{}
	}
	*ptEntry = NewEntry(ptEntry.Address(), newFlags|Present)
	return flushFor(page.Base), nil
}

// TranslateAddr resolves a virtual address to its physical address and
// the flags of the leaf entry mapping it, accounting for whatever offset
// v has within its (possibly huge) page.
func (m *Mapper) TranslateAddr(v addr.Virt) (addr.Phys, Flags, error) {
	w, err := m.walk(v)
	if err != nil {
		return 0, 0, err
	}
	entry := w.table.Entries[w.index]
	offset := uint64(v) & (w.size.Bytes() - 1)
	return addr.Phys(entry.Address() + offset), entry.Flags(), nil
}

// Translate returns the PhysFrame backing page, with no offset applied.
func (m *Mapper) Translate(page addr.Page) (addr.PhysFrame, error) {
	w, err := m.walk(page.Base)
	if err != nil {
		return addr.PhysFrame{}, err
	}
	if w.size != page.Size {
		return addr.PhysFrame{}, SizeMismatch{}
	}
	entry := w.table.Entries[w.index]
	return addr.PhysFrame{Size: w.size, Base: addr.Phys(entry.Address())}, nil
}
