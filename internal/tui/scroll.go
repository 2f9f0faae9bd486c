package tui

// ScrollState tracks the selected row and the first row on screen.
type ScrollState struct {
	Cursor      int
	Offset      int
	VisibleRows int // set on window resize
}

// Move shifts the cursor by delta rows, clamped to [0, count). It reports
// whether the cursor changed.
func (s *ScrollState) Move(delta, count int) bool {
	if count <= 0 {
		return false
	}
	target := min(max(s.Cursor+delta, 0), count-1)
	if target == s.Cursor {
		return false
	}
	s.SetCursorTo(target)
	return true
}

// Page is the distance moved by page up and page down. One row of the
// previous screen stays visible.
func (s *ScrollState) Page() int {
	return max(s.VisibleRows-1, 1)
}

// Window returns the half-open range of rows on screen.
func (s *ScrollState) Window(count int) (start, end int) {
	end = min(s.Offset+s.VisibleRows, count)
	start = min(s.Offset, end)
	return start, end
}

// Clamp pulls cursor and offset back inside a list of count rows after the
// list was replaced.
func (s *ScrollState) Clamp(count int) {
	s.Cursor = max(min(s.Cursor, count-1), 0)
	s.Offset = max(min(s.Offset, s.Cursor), 0)
}

// SetCursorTo selects row i and scrolls the least amount needed to show it.
func (s *ScrollState) SetCursorTo(i int) {
	s.Cursor = i
	switch {
	case i < s.Offset:
		s.Offset = i
	case s.VisibleRows > 0 && i >= s.Offset+s.VisibleRows:
		s.Offset = i - s.VisibleRows + 1
	}
}
