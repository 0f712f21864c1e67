package cantype

import (
	"fmt"
	"strings"
)

// ASC renders the frame as a Vector ASC trace record, one line without the
// trailing newline.
func ASC(f Frame) string {
	dataStr := " "
	if !f.IsRemote() {
		var b strings.Builder
		for _, v := range f.Data() {
			fmt.Fprintf(&b, "%02x ", v)
		}
		dataStr = b.String()
	}

	ts := float64(f.Timestamp()) / 1000.0

	if f.IsFD() {
		flags := uint32(1) << 12
		brs := 0
		if f.IsBitrateSwitch() {
			flags |= 1 << 13
			brs = 1
		}
		esi := 0
		if f.IsESI() {
			flags |= 1 << 14
			esi = 1
		}
		return fmt.Sprintf("%.3f CANFD %s %s %s %d %d %s %s %s %s %s %s %s %s %s %s %s",
			ts,
			f.Channel(),
			f.Direction(),
			fmt.Sprintf("%8x", f.ID().Raw()),
			brs,
			esi,
			fmt.Sprintf("%2d", f.DLC()),
			fmt.Sprintf("%2d", f.Length()),
			dataStr,
			fmt.Sprintf("%8d", 0), // message duration
			fmt.Sprintf("%-4d", 0), // message length
			fmt.Sprintf("%8x", flags),
			fmt.Sprintf("%8d", 0), // crc
			fmt.Sprintf("%8d", 0), // bit timing conf arb
			fmt.Sprintf("%8d", 0), // bit timing conf data
			fmt.Sprintf("%8d", 0), // bit timing conf ext arb
			fmt.Sprintf("%8d", 0), // bit timing conf ext data
		)
	}

	ext := ""
	if f.IsExtended() {
		ext = "x"
	}
	kind := "d"
	if f.IsRemote() {
		kind = "r"
	}
	return fmt.Sprintf("%.3f %s %s%-4s %s %s %s %s",
		ts,
		f.Channel(),
		fmt.Sprintf("%8x", f.ID().Raw()),
		ext,
		f.Direction(),
		kind,
		fmt.Sprintf("%2d", f.Length()),
		dataStr,
	)
}
