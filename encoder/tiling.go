package encoder

// ChooseTiling picks libvpx -tile-columns/-tile-rows (log2 values) from the
// frame size. Without known dimensions it returns (1, 0).
func ChooseTiling(width, height int, known bool) (cols, rows int) {
	if !known {
		return 1, 0
	}
	switch {
	case width > 3840:
		cols = 4
	case width > 1920:
		cols = 3
	case width > 1280:
		cols = 2
	case width > 640:
		cols = 1
	}
	if height > 1440 {
		rows = 1
	}
	return cols, rows
}
