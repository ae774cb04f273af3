// Package header parses a Gen 1 sound header: a small table of
// per-channel (id, addr) entries, packed with the channel count, that
// seeds up to four channel.Iterators for the mixer. Every channel in
// the table shares the header's own bank.
package header

import (
	"fmt"

	"crydx/internal/channel"
	"crydx/internal/command"
	"crydx/internal/rom"
)

// MaxChannels is the number of hardware sound channels a header can
// address: two pulse, one wave, one noise.
const MaxChannels = 4

// InvalidChannelId reports a channel id byte outside the 1-8 range the
// hardware defines (1-4 select music kinds, 5-8 the same slots as SFX).
type InvalidChannelId struct {
	Bank uint8
	Addr uint16
	ID   uint8
}

func (e *InvalidChannelId) Error() string {
	return fmt.Sprintf("header: invalid channel id %#02x at bank %02x addr %04x", e.ID, e.Bank, e.Addr)
}

// DuplicateChannel reports a header that assigns two entries to the
// same hardware slot (pulse1, pulse2, wave, or noise) — regardless of
// whether both used the music or the SFX id for that slot.
type DuplicateChannel struct {
	Slot string
}

func (e *DuplicateChannel) Error() string {
	return fmt.Sprintf("header: duplicate entry for channel slot %s", e.Slot)
}

// slotForID maps a hardware channel id (1-8) to the physical slot it
// occupies and the decoder kind that slot starts out as.
func slotForID(id uint8) (slot string, kind command.ChannelKind, ok bool) {
	switch id {
	case 1:
		return "pulse1", command.MusicPulse, true
	case 2:
		return "pulse2", command.MusicPulse, true
	case 3:
		return "wave", command.MusicWave, true
	case 4:
		return "noise", command.MusicNoise, true
	case 5:
		return "pulse1", command.SfxPulse, true
	case 6:
		return "pulse2", command.SfxPulse, true
	case 7:
		return "wave", command.SfxWave, true
	case 8:
		return "noise", command.SfxNoise, true
	default:
		return "", 0, false
	}
}

// Parse reads the channel table at (bank, addr). The first byte packs
// the channel count (its high two bits, plus one) and the first
// channel's id (its low nibble, plus one); its own address is
// immediately followed by that first channel's little-endian 16-bit
// pointer. Every subsequent entry is one id byte (low nibble, plus
// one; its high bits are unused) followed by its own 16-bit pointer.
// All pointers are resolved against the header's own bank.
func Parse(view rom.View, bank uint8, addr uint16) ([]*channel.Iterator, error) {
	data := view.Slice(bank, addr)
	if len(data) == 0 {
		return nil, &rom.ErrShortRead{Bank: bank, Addr: addr, Need: 1, Have: 0}
	}
	count := int(data[0]>>6) + 1

	seen := make(map[string]struct{}, count)
	iterators := make([]*channel.Iterator, 0, count)

	cursor := addr
	for i := 0; i < count; i++ {
		entry := view.Slice(bank, cursor)
		if len(entry) < 3 {
			return nil, &rom.ErrShortRead{Bank: bank, Addr: cursor, Need: 3, Have: len(entry)}
		}
		id := (view.Read8(bank, cursor) & 0xf) + 1
		chAddr := view.Read16LE(bank, cursor+1)
		idAddr := cursor
		cursor += 3

		slot, kind, ok := slotForID(id)
		if !ok {
			return nil, &InvalidChannelId{Bank: bank, Addr: idAddr, ID: id}
		}
		if _, dup := seen[slot]; dup {
			return nil, &DuplicateChannel{Slot: slot}
		}
		seen[slot] = struct{}{}

		iterators = append(iterators, channel.New(view, bank, chAddr, kind))
	}

	return iterators, nil
}
