package memory

import "github.com/zxcodes/gbcore/internal/util"

// dmaCycles is how long an OAM DMA transfer occupies the bus: 160 bytes at
// one machine cycle (4 clock cycles) each (§4.8).
const dmaCycles = 160 * 4

// dmaEngine drives OAM DMA (§4.8): writing to the DMA register (0xFF46)
// copies 160 bytes from srcBase<<8 into OAM over 160 machine cycles, during
// which OAM is borrowed and blocked; other regions stay accessible to the
// CPU. The transfer is scheduled through the
// shared event scheduler rather than polled every tick.
type dmaEngine struct {
	mmu       *MMU
	scheduler *util.Scheduler
	active    bool
	srcBase   uint16
}

func newDMAEngine(mmu *MMU, scheduler *util.Scheduler) *dmaEngine {
	return &dmaEngine{mmu: mmu, scheduler: scheduler}
}

// Start begins a transfer from srcBase<<8. Real hardware lets a new DMA
// write restart an in-flight transfer; this mirrors that by simply
// overwriting state and rescheduling completion.
func (d *dmaEngine) Start(srcHighByte byte) {
	d.srcBase = uint16(srcHighByte) << 8
	d.active = true
	d.mmu.oam.borrow()
	d.scheduler.ScheduleAt(d.mmu.cycles+dmaCycles, util.EventDMAComplete, nil)
}

// Active reports whether a transfer is currently in flight (OAM is
// borrowed for its duration).
func (d *dmaEngine) Active() bool { return d.active }

// Complete performs the actual byte copy and releases OAM; invoked by the
// MMU when the scheduler fires EventDMAComplete.
func (d *dmaEngine) Complete() {
	if !d.active {
		return
	}
	d.mmu.oam.release()
	for i := 0; i < 160; i++ {
		v := d.mmu.rawRead(d.srcBase + uint16(i))
		d.mmu.oam.rawWrite(uint16(i), v)
	}
	d.active = false
}
