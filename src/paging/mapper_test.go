package paging

import (
	"testing"
	"unsafe"

	"hadron/src/addr"
)

// bumpAllocator hands out sequential page-aligned frames cut from a
// single Go allocation. Standing in for the boot-time physical frame
// allocator in host-testable builds: hhdmOffset is kept at 0, so the
// "physical" addresses handed out are real, dereferenceable Go memory.
type bumpAllocator struct {
	backing []byte
	base    uintptr
	next    int
	count   int
}

func newBumpAllocator(n int) *bumpAllocator {
	backing := make([]byte, (n+1)*addr.PageSize)
	base := uintptr(unsafe.Pointer(&backing[0]))
	aligned := (base + addr.PageSize - 1) &^ (addr.PageSize - 1)
	return &bumpAllocator{backing: backing, base: aligned, count: n}
}

func (b *bumpAllocator) AllocFrame() (addr.Phys, bool) {
	if b.next >= b.count {
		return 0, false
	}
	p := b.base + uintptr(b.next*addr.PageSize)
	b.next++
	return addr.Phys(p), true
}

func (b *bumpAllocator) allocated() int { return b.next }

func newTestMapper(frames int) (*Mapper, *bumpAllocator) {
	alloc := newBumpAllocator(frames)
	root, ok := alloc.AllocFrame()
	if !ok {
		panic("test setup: could not allocate root frame")
	}
	return New(root, 0, alloc), alloc
}

func TestMapTranslateRoundTrip4K(t *testing.T) {
	m, alloc := newTestMapper(16)
	frame, ok := alloc.AllocFrame()
	if !ok {
		t.Fatalf("alloc frame")
	}
	page := addr.NewPage(addr.Size4KiB, addr.Virt(0x0000_4000_0000))
	pf := addr.NewPhysFrame(addr.Size4KiB, frame)

	if _, err := m.Map(page, pf, Present|Writable); err != nil {
		t.Fatalf("Map: %v", err)
	}

	got, err := m.Translate(page)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got.Base != frame {
		t.Fatalf("Translate = %v, want %v", got.Base, frame)
	}

	phys, flags, err := m.TranslateAddr(addr.Virt(uint64(page.Base) + 0x10))
	if err != nil {
		t.Fatalf("TranslateAddr: %v", err)
	}
	if phys != addr.Phys(uint64(frame)+0x10) {
		t.Fatalf("TranslateAddr offset mismatch: got %v", phys)
	}
	if !flags.Has(Writable) {
		t.Fatalf("expected Writable flag preserved")
	}
}

func TestMapTranslateRoundTrip2MAnd1G(t *testing.T) {
	m, alloc := newTestMapper(16)

	frame2M, _ := alloc.AllocFrame()
	page2M := addr.NewPage(addr.Size2MiB, addr.Virt(0x0000_2000_0000))
	pf2M := addr.NewPhysFrame(addr.Size2MiB, addr.Phys(uint64(frame2M)&^(2<<20-1)))
	if _, err := m.Map(page2M, pf2M, Present|Writable); err != nil {
		t.Fatalf("Map 2MiB: %v", err)
	}
	got, err := m.Translate(page2M)
	if err != nil || got.Base != pf2M.Base {
		t.Fatalf("Translate 2MiB mismatch: %v %v", got, err)
	}

	frame1G, _ := alloc.AllocFrame()
	page1G := addr.NewPage(addr.Size1GiB, addr.Virt(0x0000_4000_0000))
	pf1G := addr.NewPhysFrame(addr.Size1GiB, addr.Phys(uint64(frame1G)&^(1<<30-1)))
	if _, err := m.Map(page1G, pf1G, Present|Writable); err != nil {
		t.Fatalf("Map 1GiB: %v", err)
	}
	got, err = m.Translate(page1G)
	if err != nil || got.Base != pf1G.Base {
		t.Fatalf("Translate 1GiB mismatch: %v %v", got, err)
	}
}

func TestUnmapTearsDownLeafOnly(t *testing.T) {
	m, alloc := newTestMapper(16)
	frame, _ := alloc.AllocFrame()
	page := addr.NewPage(addr.Size4KiB, addr.Virt(0x0000_6000_0000))
	pf := addr.NewPhysFrame(addr.Size4KiB, frame)

	if _, err := m.Map(page, pf, Present|Writable); err != nil {
		t.Fatalf("Map: %v", err)
	}
	freed, _, err := m.Unmap(page)
	if err != nil {
		t.Fatalf("Unmap: %v", err)
	}
	if freed.Base != frame {
		t.Fatalf("Unmap returned wrong frame")
	}

	if _, _, err := m.TranslateAddr(page.Base); err == nil {
		t.Fatalf("expected NotMapped after Unmap")
	}

	// Re-mapping the same page must succeed: intermediate tables were
	// left in place, not torn down, per the Unmap contract.
	if _, err := m.Map(page, pf, Present|Writable); err != nil {
		t.Fatalf("remap after unmap: %v", err)
	}
}

func TestUpdateFlagsPropagatesUserUpTheWalk(t *testing.T) {
	m, alloc := newTestMapper(16)
	frame, _ := alloc.AllocFrame()
	page := addr.NewPage(addr.Size4KiB, addr.Virt(0x0000_8000_0000))
	pf := addr.NewPhysFrame(addr.Size4KiB, frame)

	if _, err := m.Map(page, pf, Present|Writable); err != nil {
		t.Fatalf("Map: %v", err)
	}
	if _, err := m.UpdateFlags(page, Present|Writable|User); err != nil {
		t.Fatalf("UpdateFlags: %v", err)
	}

	pml4, pdpt, pd, _ := page.Base.Indices()
	root := m.tableAt(m.root)
	if !root.Entries[pml4].Flags().Has(User) {
		t.Fatalf("PML4 entry missing propagated User flag")
	}
	pdptTable := m.tableAt(addr.Phys(root.Entries[pml4].Address()))
	if !pdptTable.Entries[pdpt].Flags().Has(User) {
		t.Fatalf("PDPT entry missing propagated User flag")
	}
	pdTable := m.tableAt(addr.Phys(pdptTable.Entries[pdpt].Address()))
	if !pdTable.Entries[pd].Flags().Has(User) {
		t.Fatalf("PD entry missing propagated User flag")
	}

	_, flags, err := m.TranslateAddr(page.Base)
	if err != nil {
		t.Fatalf("TranslateAddr: %v", err)
	}
	if !flags.Has(User) {
		t.Fatalf("leaf entry missing User flag")
	}
}

// TestIntermediateTableCountForSpanningRegion checks the frame-count
// property from spec.md §8: mapping 2 MiB pages across a span that
// crosses a 1 GiB (single PD) boundary costs exactly one PDPT entry
// (shared PML4->PDPT->PD path reused) plus one PD table per distinct
// 1 GiB window touched.
func TestIntermediateTableCountForSpanningRegion(t *testing.T) {
	m, alloc := newTestMapper(64)

	const giB = uint64(1) << 30
	const miB2 = uint64(2) << 20

	// Two 2 MiB pages inside the same 1 GiB window: one PDPT + one PD
	// table, both shared.
	before := alloc.allocated()
	for i := 0; i < 2; i++ {
		frame, _ := alloc.AllocFrame()
		page := addr.NewPage(addr.Size2MiB, addr.Virt(uint64(i)*miB2))
		pf := addr.NewPhysFrame(addr.Size2MiB, addr.Phys(uint64(frame)&^(miB2-1)))
		if _, err := m.Map(page, pf, Present|Writable); err != nil {
			t.Fatalf("Map page %d: %v", i, err)
		}
	}
	tablesForFirstWindow := alloc.allocated() - before - 2 // subtract the 2 leaf frames themselves
	if tablesForFirstWindow != 2 {
		t.Fatalf("expected 2 intermediate tables (PDPT+PD) for same-window pages, got %d", tablesForFirstWindow)
	}

	// A third 2 MiB page one 1 GiB window over: new PD table. The PDPT
	// table is reused since addresses under 512 GiB share PML4 entry 0;
	// 1 GiB selects PDPT entry 1, which has no PD yet.
	before = alloc.allocated()
	frame, _ := alloc.AllocFrame()
	page := addr.NewPage(addr.Size2MiB, addr.Virt(giB))
	pf := addr.NewPhysFrame(addr.Size2MiB, addr.Phys(uint64(frame)&^(miB2-1)))
	if _, err := m.Map(page, pf, Present|Writable); err != nil {
		t.Fatalf("Map third page: %v", err)
	}
	tablesForSecondWindow := alloc.allocated() - before - 1
	if tablesForSecondWindow != 1 {
		t.Fatalf("expected 1 new PD table crossing a 1 GiB window, got %d", tablesForSecondWindow)
	}
}

func TestTranslateAddrNotMapped(t *testing.T) {
	m, _ := newTestMapper(4)
	if _, _, err := m.TranslateAddr(addr.Virt(0x0000_1234_5000)); err == nil {
		t.Fatalf("expected NotMapped for untouched address space")
	}
}

func TestMapSizeMismatch(t *testing.T) {
	m, alloc := newTestMapper(8)
	frame, _ := alloc.AllocFrame()
	page := addr.NewPage(addr.Size4KiB, addr.Virt(0x1000))
	pf := addr.NewPhysFrame(addr.Size2MiB, addr.Phys(uint64(frame)&^(2<<20-1)))
	if _, err := m.Map(page, pf, Present); err == nil {
		t.Fatalf("expected SizeMismatch")
	}
}
