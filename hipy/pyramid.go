package hipy

// The pyramid is stored in one storage buffer: level 0 (the per-cell
// counts, zero-padded to a power of four) first, then each coarser
// level, apex last. Every element of level i+1 sums four children of
// level i.

const (
	reduceFanIn   = 4
	maxLevels     = 16 // matches the level_off array in extract.wgsl
	workgroupSize = 256
)

type pyramidLevel struct {
	Off uint32 // element offset into the pyramid buffer
	Len uint32 // element count
}

// pyramidLayout computes the level table for a grid with the given cell
// count. The base is padded to the next power of four so every node has
// exactly four children; the last level always has length 1.
func pyramidLayout(cells uint32) []pyramidLevel {
	if cells == 0 {
		return nil
	}
	base := uint32(1)
	levels := 1
	for base < cells {
		base *= reduceFanIn
		levels++
	}

	out := make([]pyramidLevel, 0, levels)
	off := uint32(0)
	length := base
	for {
		out = append(out, pyramidLevel{Off: off, Len: length})
		if length == 1 {
			break
		}
		off += length
		length /= reduceFanIn
	}
	return out
}

// pyramidElements is the total element count across all levels.
func pyramidElements(levels []pyramidLevel) uint32 {
	if len(levels) == 0 {
		return 0
	}
	last := levels[len(levels)-1]
	return last.Off + last.Len
}

func dispatchSize1D(n uint32) uint32 {
	return (n + workgroupSize - 1) / workgroupSize
}
