package irq

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func levels(mask uint8) (out []uint8) {
	for n := uint8(1); n <= 7; n++ {
		if mask&(1<<(n-1)) != 0 {
			out = append(out, n)
		}
	}
	return
}

func TestAutoHighestOfSubset(t *testing.T) {
	assert := assert.New(t)

	for mask := range uint8(0x80) {
		set := levels(mask)
		var want uint8
		if len(set) > 0 {
			want = set[len(set)-1]
		}

		forward := NewAuto()
		for _, level := range set {
			forward.RequestInterrupt(level)
		}
		backward := NewAuto()
		for n := len(set) - 1; n >= 0; n-- {
			backward.RequestInterrupt(set[n])
		}

		assert.Equal(want, forward.HighestPriority(), "mask %07b", mask)
		assert.Equal(want, backward.HighestPriority(), "mask %07b", mask)
		assert.Equal(mask, forward.Pending())
		assert.Equal(mask, backward.Pending())
	}
}

func TestAutoAcknowledge(t *testing.T) {
	assert := assert.New(t)

	for level := LEVEL_MIN; level <= LEVEL_NMI; level++ {
		ac := NewAuto()
		ac.RequestInterrupt(level)
		vector, ok := ac.AcknowledgeInterrupt(level)
		assert.True(ok)
		assert.Equal(AUTOVECTOR_BASE+level, vector)
		assert.Equal(uint8(0), ac.HighestPriority())
	}
}

func TestAutoScenario(t *testing.T) {
	assert := assert.New(t)

	ac := NewAuto()
	assert.Equal(uint8(0b0000010), ac.RequestInterrupt(2))
	assert.Equal(uint8(0b0010010), ac.RequestInterrupt(5))
	assert.Equal(uint8(5), ac.HighestPriority())

	vector, ok := ac.AcknowledgeInterrupt(5)
	assert.True(ok)
	assert.Equal(uint8(29), vector)
	assert.Equal(uint8(2), ac.HighestPriority())
}

func TestAutoIdempotent(t *testing.T) {
	assert := assert.New(t)

	ac := NewAuto()
	ac.RequestInterrupt(3)
	ac.RequestInterrupt(3)
	assert.Equal(uint8(0b100), ac.Pending())

	for range 4 {
		assert.Equal(uint8(3), ac.HighestPriority())
	}
	assert.Equal(uint8(0b100), ac.Pending())

	// One acknowledge consumes a doubly requested level.
	ac.AcknowledgeInterrupt(3)
	assert.Equal(uint8(0), ac.HighestPriority())
}

func TestAutoReset(t *testing.T) {
	assert := assert.New(t)

	ac := NewAuto()
	ac.RequestInterrupt(2)
	ac.RequestInterrupt(7)
	ac.ResetExternalDevices()
	assert.Equal(uint8(0), ac.HighestPriority())
	ac.ResetExternalDevices()
	assert.Equal(uint8(0), ac.Pending())
}

func TestPriorityRange(t *testing.T) {
	assert := assert.New(t)

	for _, level := range []uint8{0, 8, 255} {
		assert.PanicsWithError(ErrPriority(level).Error(), func() {
			NewAuto().RequestInterrupt(level)
		})
		assert.Panics(func() {
			NewAuto().AcknowledgeInterrupt(level)
		})
		assert.Panics(func() {
			NewVectored(nil).RequestInterrupt(level)
		})
	}

	assert.ErrorIs(ErrPriority(9), ErrPriorityRange)
}

func TestAcknowledgeNotHighest(t *testing.T) {
	assert := assert.New(t)

	ac := NewAuto()
	ac.RequestInterrupt(2)
	assert.PanicsWithError(ErrAcknowledge{Priority: 6, Highest: 2}.Error(), func() {
		ac.AcknowledgeInterrupt(6)
	})
	assert.Equal(uint8(0b10), ac.Pending(), "nothing consumed")

	ac.RequestInterrupt(5)
	assert.PanicsWithError(ErrAcknowledge{Priority: 2, Highest: 5}.Error(), func() {
		ac.AcknowledgeInterrupt(2)
	})
	assert.PanicsWithError(ErrAcknowledge{Priority: 3, Highest: 0}.Error(), func() {
		NewAuto().AcknowledgeInterrupt(3)
	})

	vc := NewVectored(map[uint8]uint8{4: 0x40})
	vc.RequestInterrupt(4)
	vc.RequestInterrupt(1)
	vc.Withdraw(4)
	assert.PanicsWithError(ErrAcknowledge{Priority: 1, Highest: 4}.Error(), func() {
		vc.AcknowledgeInterrupt(1)
	})
	_, ok := vc.AcknowledgeInterrupt(4)
	assert.False(ok, "withdrawn level stays highest until acknowledged")

	assert.ErrorIs(ErrAcknowledge{Priority: 1, Highest: 2}, ErrNotHighest)
}

func TestVectored(t *testing.T) {
	assert := assert.New(t)

	vc := NewVectored(map[uint8]uint8{4: 0x40, 6: 0x64})
	vc.RequestInterrupt(4)
	vc.RequestInterrupt(6)
	vc.RequestInterrupt(1)

	assert.Equal(uint8(6), vc.HighestPriority())
	vector, ok := vc.AcknowledgeInterrupt(6)
	assert.True(ok)
	assert.Equal(uint8(0x64), vector)

	vector, ok = vc.AcknowledgeInterrupt(4)
	assert.True(ok)
	assert.Equal(uint8(0x40), vector)

	// No host vector: autovector.
	vector, ok = vc.AcknowledgeInterrupt(1)
	assert.True(ok)
	assert.Equal(AUTOVECTOR_BASE+1, vector)
	assert.Equal(uint8(0), vc.Pending())
}

func TestVectoredWithdraw(t *testing.T) {
	assert := assert.New(t)

	vc := NewVectored(nil)
	vc.RequestInterrupt(3)
	vc.Withdraw(3)

	// Still visible until the acknowledge cycle.
	assert.Equal(uint8(3), vc.HighestPriority())
	_, ok := vc.AcknowledgeInterrupt(3)
	assert.False(ok)
	assert.Equal(uint8(0), vc.HighestPriority())

	// The next request is delivered normally.
	vc.RequestInterrupt(3)
	vector, ok := vc.AcknowledgeInterrupt(3)
	assert.True(ok)
	assert.Equal(AUTOVECTOR_BASE+3, vector)

	// Withdrawing an idle level does nothing.
	vc.Withdraw(5)
	vc.RequestInterrupt(5)
	_, ok = vc.AcknowledgeInterrupt(5)
	assert.True(ok)

	vc.RequestInterrupt(2)
	vc.Withdraw(2)
	vc.RequestInterrupt(2)
	_, ok = vc.AcknowledgeInterrupt(2)
	assert.True(ok)
}

func TestLocked(t *testing.T) {
	assert := assert.New(t)

	lc := NewLocked(NewAuto())

	var wg sync.WaitGroup
	for level := LEVEL_MIN; level <= LEVEL_NMI; level++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lc.RequestInterrupt(level)
		}()
	}
	wg.Wait()

	assert.Equal(LEVEL_NMI, lc.HighestPriority())
	lc.Do(func(r Requester) {
		assert.Equal(uint8(0x7f), r.(*Auto).Pending())
	})

	vector, ok := lc.AcknowledgeInterrupt(7)
	assert.True(ok)
	assert.Equal(uint8(31), vector)
	assert.Equal(uint8(6), lc.HighestPriority())

	lc.ResetExternalDevices()
	assert.Equal(uint8(0), lc.HighestPriority())
}

func TestLockedLatchesDuringAcknowledge(t *testing.T) {
	assert := assert.New(t)

	lc := NewLocked(NewVectored(map[uint8]uint8{6: 0x66}))
	lc.RequestInterrupt(3)
	assert.Equal(uint8(3), lc.HighestPriority())

	// Raised between sampling and acknowledging level 3.
	assert.Equal(uint8(0b100100), lc.RequestInterrupt(6))
	assert.Equal(uint8(0b100100), lc.Pending())

	vector, ok := lc.AcknowledgeInterrupt(3)
	assert.True(ok)
	assert.Equal(AUTOVECTOR_BASE+3, vector)

	assert.Equal(uint8(6), lc.HighestPriority())
	vector, ok = lc.AcknowledgeInterrupt(6)
	assert.True(ok)
	assert.Equal(uint8(0x66), vector)
	assert.Equal(uint8(0), lc.Pending())

	// Lower levels are not held back.
	lc.RequestInterrupt(5)
	assert.Equal(uint8(5), lc.HighestPriority())
	lc.RequestInterrupt(2)
	lc.Do(func(r Requester) {
		assert.Equal(uint8(0b10010), r.Pending())
	})

	assert.PanicsWithError(ErrAcknowledge{Priority: 2, Highest: 5}.Error(), func() {
		lc.AcknowledgeInterrupt(2)
	})
}

func TestDefines(t *testing.T) {
	assert := assert.New(t)

	defs := map[string]string{}
	for k, v := range Defines() {
		defs[k] = v
	}
	assert.Equal("0x18", defs["SPURIOUS_INTERRUPT"])
	assert.Equal("7", defs["LEVEL_NMI"])
}
