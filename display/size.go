package display

import "github.com/dustin/go-humanize"

// FormatSize renders a signed byte count with SI units, e.g. "-1.5 kB".
func FormatSize(n int64) string {
	if n < 0 {
		// -(n+1)+1 avoids overflowing on math.MinInt64.
		return "-" + humanize.Bytes(uint64(-(n+1))+1)
	}
	return humanize.Bytes(uint64(n))
}
