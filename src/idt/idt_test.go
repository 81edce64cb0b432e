package idt

import "testing"

func TestMissingEntryNotPresent(t *testing.T) {
	e := Missing()
	if e.Present() {
		t.Fatalf("a missing entry must not be present")
	}
}

func TestSetHandlerSplitsAddressAndMarksPresent(t *testing.T) {
	var e Entry
	addr := HandlerAddr(0xffff_8000_1234_5678)
	e.SetHandler(addr, 0x08)

	if !e.Present() {
		t.Fatalf("SetHandler must mark the entry present")
	}
	if e.Address() != addr {
		t.Fatalf("Address() = %#x, want %#x", e.Address(), addr)
	}
	if e.selector != 0x08 {
		t.Fatalf("selector = %#x, want 0x08", e.selector)
	}
}

func TestEntryOptionsISTAndDPL(t *testing.T) {
	var e Entry
	opts := e.SetHandler(0x1000, 0x08)
	opts.SetISTIndex(2).SetDPL(3)

	if *opts&istMask != 2 {
		t.Fatalf("IST index not set: %#x", *opts)
	}
	if (*opts&dplMask)>>dplShift != 3 {
		t.Fatalf("DPL not set: %#x", *opts)
	}
}

func TestSetISTIndexRejectsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for IST index > 7")
		}
	}()
	var o EntryOptions
	o.SetISTIndex(8)
}

func TestSetDPLRejectsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for DPL > 3")
		}
	}()
	var o EntryOptions
	o.SetDPL(4)
}

func TestTrapGateSetsBit(t *testing.T) {
	o := newOptions()
	o.SetTrapGate()
	if o&trapGateBit == 0 {
		t.Fatalf("trap gate bit not set")
	}
}

func TestTableIndexVector32PlusWorks(t *testing.T) {
	idt := New()
	e := idt.Index(32)
	e.SetHandler(0x2000, 0x08)
	if !idt.Interrupts[0].Present() {
		t.Fatalf("Index(32) must alias Interrupts[0]")
	}
}

func TestTableIndexRejectsExceptionVector(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for vector < 32")
		}
	}()
	idt := New()
	idt.Index(13)
}

func TestPointerLimitCoversWholeTable(t *testing.T) {
	idt := New()
	ptr := idt.Pointer(0xffff_9000_0000_0000)
	if ptr.Limit != tableSize-1 {
		t.Fatalf("Limit = %d, want %d", ptr.Limit, tableSize-1)
	}
	if ptr.Base != 0xffff_9000_0000_0000 {
		t.Fatalf("Base = %#x", ptr.Base)
	}
}
