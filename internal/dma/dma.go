// Package dma implements the four-channel DMA controller. Channels sit
// idle until the enable bit of their control register is written; a
// triggered transfer then runs to completion synchronously, inside the
// triggering bus write.
package dma

import "github.com/Notedsite/supergba/internal/bus"

// Each channel owns a 12-byte register window: 32-bit source, 32-bit
// destination, 16-bit unit count, 16-bit control. Channel 0 starts at
// 0x0B0; channel 3's window is 0x0D4-0x0DF.
const (
	channelCount  = 4
	channelBase   = 0x0B0
	channelStride = 12

	offSource  = 0
	offDest    = 4
	offCount   = 8
	offControl = 10
)

// Control register bits.
const (
	ctlEnable = 1 << 15
	ctl32Bit  = 1 << 10
)

// A zero unit count means the hardware maximum.
const maxUnits = 0x4000

// Controller reacts to IO writes into the channel register windows and
// performs the block copies through the bus.
type Controller struct {
	bus *bus.Bus
}

func New(b *bus.Bus) *Controller {
	return &Controller{bus: b}
}

// OnIOWrite implements bus.IOWriteObserver. Only a write to a channel's
// control register with the enable bit set triggers a transfer.
func (c *Controller) OnIOWrite(addr uint32, value uint16) {
	off := addr - bus.IOBase
	if off < channelBase+offControl || value&ctlEnable == 0 {
		return
	}
	for ch := uint32(0); ch < channelCount; ch++ {
		if off == channelBase+ch*channelStride+offControl {
			c.run(channelBase + ch*channelStride)
			return
		}
	}
}

// run executes one channel's transfer and clears its enable bit. Source
// and destination advance by the unit size each step; all accesses go
// through the bus so sentinel and mirroring rules apply.
func (c *Controller) run(win uint32) {
	src := c.bus.Read32(bus.IOBase + win + offSource)
	dst := c.bus.Read32(bus.IOBase + win + offDest)
	count := uint32(c.bus.ReadIO16(win + offCount))
	ctl := c.bus.ReadIO16(win + offControl)
	if count == 0 {
		count = maxUnits
	}

	if ctl&ctl32Bit != 0 {
		for i := uint32(0); i < count; i++ {
			c.bus.Write32(dst+i*4, c.bus.Read32(src+i*4))
		}
	} else {
		for i := uint32(0); i < count; i++ {
			c.bus.Write16(dst+i*2, c.bus.Read16(src+i*2))
		}
	}

	c.bus.StoreIO16(win+offControl, ctl&^ctlEnable)
}
