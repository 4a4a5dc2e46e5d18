package cli

import "fmt"

// FormatBytes formats a byte count for humans, e.g. "1.50 KB".
func FormatBytes(n int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case n >= GB:
		return fmt.Sprintf("%.2f GB", float64(n)/GB)
	case n >= MB:
		return fmt.Sprintf("%.2f MB", float64(n)/MB)
	case n >= KB:
		return fmt.Sprintf("%.2f KB", float64(n)/KB)
	}
	return fmt.Sprintf("%d B", n)
}

// FormatCoords formats coordinates as "(x, y, z)" or "-" when unset.
func FormatCoords(xyz []float64) string {
	if xyz == nil {
		return "-"
	}
	s := "("
	for i, f := range xyz {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%g", f)
	}
	return s + ")"
}
