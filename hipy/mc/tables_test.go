package mc

import (
	"testing"
)

func TestEdgeTableBoundaryCases(t *testing.T) {
	if EdgeTable[0] != 0 {
		t.Errorf("case 0 (all outside) should cross no edges, got %#x", EdgeTable[0])
	}
	if EdgeTable[255] != 0 {
		t.Errorf("case 255 (all inside) should cross no edges, got %#x", EdgeTable[255])
	}
}

func TestEdgeTableComplementSymmetry(t *testing.T) {
	// Inverting inside/outside flips the case index but crosses the
	// same edges.
	for i := 0; i < 256; i++ {
		if EdgeTable[i] != EdgeTable[255-i] {
			t.Errorf("case %d and complement %d disagree: %#x vs %#x",
				i, 255-i, EdgeTable[i], EdgeTable[255-i])
		}
	}
}

func TestTriTableRows(t *testing.T) {
	for i := 0; i < 256; i++ {
		row := TriTable[i]
		terminated := false
		count := 0
		for j := 0; j < 16; j++ {
			if row[j] < 0 {
				terminated = true
				// No live entries after the terminator.
				for k := j; k < 16; k++ {
					if row[k] >= 0 {
						t.Fatalf("case %d has entry after terminator at %d", i, k)
					}
				}
				break
			}
			if row[j] >= 12 {
				t.Fatalf("case %d references edge %d", i, row[j])
			}
			if EdgeTable[i]&(1<<uint(row[j])) == 0 {
				t.Errorf("case %d uses edge %d not present in the edge mask", i, row[j])
			}
			count++
		}
		if !terminated && count != 15 {
			t.Errorf("case %d row is not terminated", i)
		}
		if count%3 != 0 {
			t.Errorf("case %d vertex count %d is not a triangle multiple", i, count)
		}
	}
}

func TestCaseVertexCountMatchesTriTable(t *testing.T) {
	for i := 0; i < 256; i++ {
		count := uint32(0)
		for j := 0; j < 16 && TriTable[i][j] >= 0; j++ {
			count++
		}
		if CaseVertexCount[i] != count {
			t.Errorf("case %d: vertex count %d, triangle table holds %d",
				i, CaseVertexCount[i], count)
		}
	}
}

func TestPackedTriTable(t *testing.T) {
	packed := PackedTriTable()
	if len(packed) != 256*16 {
		t.Fatalf("packed table has %d entries, want %d", len(packed), 256*16)
	}
	for i := 0; i < 256; i++ {
		for j := 0; j < 16; j++ {
			v := packed[i*16+j]
			if TriTable[i][j] < 0 {
				if v != 0xFFFFFFFF {
					t.Fatalf("case %d entry %d: terminator packed as %d", i, j, v)
				}
			} else if v != uint32(TriTable[i][j]) {
				t.Fatalf("case %d entry %d: packed %d, want %d", i, j, v, TriTable[i][j])
			}
		}
	}
}

func TestEdgeCornersSpanUnitEdges(t *testing.T) {
	for e, pair := range EdgeCorners {
		a := CornerOffsets[pair[0]]
		b := CornerOffsets[pair[1]]
		diff := 0
		for i := 0; i < 3; i++ {
			if a[i] != b[i] {
				diff++
			}
		}
		if diff != 1 {
			t.Errorf("edge %d does not span exactly one axis", e)
		}
	}
}
