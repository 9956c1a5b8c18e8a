package util

import "fmt"

var sizeUnits = []string{"B", "KiB", "MiB", "GiB", "TiB"}

// FormatSize renders a byte count with binary prefixes, one decimal place
// past KiB.
func FormatSize(size int64) string {
	value := float64(size)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d B", size)
	}
	return fmt.Sprintf("%.1f %s", value, sizeUnits[unit])
}
