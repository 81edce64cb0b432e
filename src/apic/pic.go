package apic

// PortIO abstracts x86 port I/O so the 8259 PIC remap is host-testable:
// bare-metal backs it with real `in`/`out` instructions, hostsim backs
// it with an in-memory port map recording what the kernel would have
// written.
type PortIO interface {
	Out8(port uint16, v uint8)
	In8(port uint16) uint8
}

const (
	picMasterCommand = 0x20
	picMasterData    = 0x21
	picSlaveCommand  = 0xA0
	picSlaveData     = 0xA1

	icw1Init     = 0x10
	icw1ICW4     = 0x01
	icw4_8086    = 0x01

	picMaskAll = 0xFF
)

// RemapAndMask reprograms the legacy 8259 PIC pair so its interrupt
// vectors don't collide with CPU exception vectors 0-31, then masks
// every line — every interrupt this kernel cares about is routed
// through the I/O APIC instead (spec.md §4.G step 5).
func RemapAndMask(io PortIO, masterOffset, slaveOffset uint8) {
	// ICW1: begin initialization, expect ICW4.
	io.Out8(picMasterCommand, icw1Init|icw1ICW4)
	io.Out8(picSlaveCommand, icw1Init|icw1ICW4)

	// ICW2: vector offset for each PIC's 8 lines.
	io.Out8(picMasterData, masterOffset)
	io.Out8(picSlaveData, slaveOffset)

	// ICW3: cascade wiring — master has a slave on IRQ2 (bit 2), slave
	// identifies itself as cascade identity 2.
	io.Out8(picMasterData, 1<<2)
	io.Out8(picSlaveData, 2)

	// ICW4: 8086 mode.
	io.Out8(picMasterData, icw4_8086)
	io.Out8(picSlaveData, icw4_8086)

	// OCW1: mask every line on both PICs.
	io.Out8(picMasterData, picMaskAll)
	io.Out8(picSlaveData, picMaskAll)
}
