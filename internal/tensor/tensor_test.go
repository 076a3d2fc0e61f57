package tensor

import "testing"

// TestNewZeroFilled verifies New allocates zero-filled storage.
func TestNewZeroFilled(t *testing.T) {
	x := New(Shape{2, 3})
	if x.NumElements() != 6 {
		t.Fatalf("NumElements() = %d, want 6", x.NumElements())
	}
	for i, v := range x.Data() {
		if v != 0 {
			t.Errorf("element %d = %f, want 0", i, v)
		}
	}
}

// TestNewInvalidShape verifies New panics on non-positive dimensions.
func TestNewInvalidShape(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New with zero dimension should panic")
		}
	}()
	New(Shape{2, 0})
}

// TestFromSlice verifies construction from a slice and the size check.
func TestFromSlice(t *testing.T) {
	x, err := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if x.At(1, 0) != 3 {
		t.Errorf("At(1,0) = %f, want 3", x.At(1, 0))
	}

	if _, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2}); err == nil {
		t.Error("FromSlice with mismatched size should return an error")
	}
}

// TestCloneIndependence verifies Clone does not alias storage.
func TestCloneIndependence(t *testing.T) {
	x, _ := FromSlice([]float32{1, 2}, Shape{2})
	y := x.Clone()
	y.Data()[0] = 9
	if x.Data()[0] != 1 {
		t.Error("Clone should not share storage with the original")
	}
}

// TestCopyFromResizes verifies CopyFrom adopts the source shape.
func TestCopyFromResizes(t *testing.T) {
	dst := New(Shape{1})
	src, _ := FromSlice([]float32{1, 2, 3}, Shape{3})
	dst.CopyFrom(src)
	if !dst.Shape().Equal(Shape{3}) {
		t.Errorf("CopyFrom shape = %v, want [3]", dst.Shape())
	}
	if dst.Data()[2] != 3 {
		t.Errorf("CopyFrom data[2] = %f, want 3", dst.Data()[2])
	}
}

// TestShapeEqual exercises Shape comparison.
func TestShapeEqual(t *testing.T) {
	if !(Shape{2, 3}).Equal(Shape{2, 3}) {
		t.Error("equal shapes reported unequal")
	}
	if (Shape{2, 3}).Equal(Shape{3, 2}) {
		t.Error("unequal shapes reported equal")
	}
	if (Shape{2}).Equal(Shape{2, 1}) {
		t.Error("shapes of different rank reported equal")
	}
}
