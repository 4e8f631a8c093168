// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bus

import (
	"io"
)

const (
	PAGE_SHIFT = 16
	PAGE_SIZE  = 1 << PAGE_SHIFT
	PAGE_MASK  = PAGE_SIZE - 1
	PAGE_COUNT = (ADDRBUS_MASK + 1) >> PAGE_SHIFT
)

// WaitRegion adds wait states to accesses inside [Start, End].
type WaitRegion struct {
	Start uint32 // First address of the region.
	End   uint32 // Last address of the region, inclusive.
	Read  int    // Extra cycles per read.
	Write int    // Extra cycles per write.
}

// Contains is true when addr falls in the region.
func (wr WaitRegion) Contains(addr uint32) bool {
	return addr >= wr.Start && addr <= wr.End
}

// Paged is a sparse 16MiB memory. Pages are allocated on first write;
// reads from untouched pages return the fill pattern.
type Paged struct {
	Fill    uint32       // Big-endian pattern returned by untouched memory.
	Waits   []WaitRegion // Wait state regions, first match wins.
	OnReset func()       // Called by ResetInstruction, if set.

	pages [PAGE_COUNT][]byte
}

var _ Bus = (*Paged)(nil)

// NewPaged creates an empty memory with the given fill pattern.
func NewPaged(fill uint32) (pm *Paged) {
	pm = &Paged{
		Fill: fill,
	}

	return
}

func (pm *Paged) fillByte(addr uint32) uint8 {
	shift := 8 * (3 - (addr & 3))
	return uint8(pm.Fill >> shift)
}

func (pm *Paged) page(addr uint32) (page []byte) {
	index := addr >> PAGE_SHIFT
	page = pm.pages[index]
	if page == nil {
		page = make([]byte, PAGE_SIZE)
		base := index << PAGE_SHIFT
		for n := range page {
			page[n] = pm.fillByte(base + uint32(n))
		}
		pm.pages[index] = page
	}
	return
}

// Pages returns the number of allocated pages.
func (pm *Paged) Pages() (count int) {
	for _, page := range pm.pages {
		if page != nil {
			count++
		}
	}
	return
}

// Read8 reads a byte.
func (pm *Paged) Read8(space AddressSpace, addr uint32) uint32 {
	addr &= ADDRBUS_MASK
	page := pm.pages[addr>>PAGE_SHIFT]
	if page == nil {
		return uint32(pm.fillByte(addr))
	}
	return uint32(page[addr&PAGE_MASK])
}

// Read16 reads a big-endian word.
func (pm *Paged) Read16(space AddressSpace, addr uint32) uint32 {
	return ReadWord(pm, space, addr)
}

// Read32 reads a big-endian long.
func (pm *Paged) Read32(space AddressSpace, addr uint32) uint32 {
	return ReadLong(pm, space, addr)
}

// Write8 writes a byte.
func (pm *Paged) Write8(space AddressSpace, addr uint32, value uint32) {
	addr &= ADDRBUS_MASK
	pm.page(addr)[addr&PAGE_MASK] = uint8(value)
}

// Write16 writes a big-endian word.
func (pm *Paged) Write16(space AddressSpace, addr uint32, value uint32) {
	WriteWord(pm, space, addr, value)
}

// Write32 writes a big-endian long.
func (pm *Paged) Write32(space AddressSpace, addr uint32, value uint32) {
	WriteLong(pm, space, addr, value)
}

// CopyFrom deep copies the pages and fill pattern of another *Paged,
// looking through any Wrapper around it. Any other implementation is a
// caller error.
func (pm *Paged) CopyFrom(other Bus) {
	inner := Storage(other)
	src, ok := inner.(*Paged)
	if !ok {
		panic(ErrCopyType{Want: typeName(pm), Got: typeName(inner)})
	}

	pm.Fill = src.Fill
	for n, page := range src.pages {
		if page == nil {
			pm.pages[n] = nil
			continue
		}
		pm.pages[n] = append([]byte(nil), page...)
	}
}

// ResetInstruction calls OnReset.
func (pm *Paged) ResetInstruction() {
	if pm.OnReset != nil {
		pm.OnReset()
	}
}

// WaitCycles returns the wait states of the first region holding addr.
func (pm *Paged) WaitCycles(addr uint32, size int, write bool) (cycles int) {
	addr &= ADDRBUS_MASK
	for _, wr := range pm.Waits {
		if !wr.Contains(addr) {
			continue
		}
		if write {
			cycles = wr.Write
		} else {
			cycles = wr.Read
		}
		return
	}
	return
}

// Load copies data into memory at addr.
func (pm *Paged) Load(addr uint32, data []byte) (err error) {
	if uint64(addr&ADDRBUS_MASK)+uint64(len(data)) > uint64(ADDRBUS_MASK)+1 {
		err = ErrImageRange
		return
	}

	for n, b := range data {
		pm.Write8(SUPERVISOR_DATA, addr+uint32(n), uint32(b))
	}

	return
}

// LoadFrom reads an image from r into memory at addr.
func (pm *Paged) LoadFrom(r io.Reader, addr uint32) (n int, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	err = pm.Load(addr, data)
	if err != nil {
		return
	}

	n = len(data)
	return
}
