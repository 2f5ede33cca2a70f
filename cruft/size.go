package cruft

import (
	"fmt"
	"strings"

	"git.sr.ht/~motiejus/cruftspy/imagetar"
)

var _units = []string{"B", "KB", "MB", "GB", "TB"}

// SumPrefix returns the total size of members whose name starts with base.
func SumPrefix(members []imagetar.Member, base string) int64 {
	var total int64
	for _, m := range members {
		if strings.HasPrefix(m.Name, base) {
			total += m.Size
		}
	}
	return total
}

// FormatSize renders n bytes in the largest unit that keeps the value at or
// under 512, e.g. "512 B", "0.5 KB", "2.0 MB". Values past 512 TB stay in TB.
func FormatSize(n int64) string {
	size := float64(n)
	mag := 0
	for size > 512 && mag < len(_units)-1 {
		size /= 1024
		mag++
	}
	if mag == 0 {
		return fmt.Sprintf("%d %s", n, _units[0])
	}
	return fmt.Sprintf("%.1f %s", size, _units[mag])
}
