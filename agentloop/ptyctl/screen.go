package ptyctl

import (
	"strconv"
	"strings"
	"sync"
)

// CellAttr is the SGR attribute state applied to a cell when it was
// written. FG/BG of -1 means "default colour".
type CellAttr struct {
	Bold      bool
	Underline bool
	Reverse   bool
	FG        int
	BG        int
}

func defaultAttr() CellAttr { return CellAttr{FG: -1, BG: -1} }

// Cell is one character position on the screen grid.
type Cell struct {
	Rune rune
	Attr CellAttr
}

func blankCell() Cell { return Cell{Rune: ' ', Attr: defaultAttr()} }

// parserMode tracks where Write currently is within an escape sequence.
type parserMode int

const (
	modeNormal parserMode = iota
	modeEscape
	modeCSI
)

// Screen is a minimal VT100/ANSI screen buffer: a fixed-size grid of cells,
// a cursor position, current SGR attribute state, and a bounded scrollback
// of rows evicted off the top on scroll. It understands cursor movement
// (CUU/CUD/CUF/CUB/CUP), erase-in-display/erase-in-line, and SGR colour
// attributes — the common subset emitted by interactive shells, line
// editors, and full-screen programs like less/vim/gdb. Bytes are applied
// in arrival order by a single reader goroutine per session (see
// Manager.readLoop), so Screen itself needs no internal synchronisation
// beyond the mutex guarding concurrent snapshot reads from GetScreen and
// GetCursor against an in-flight Write.
type Screen struct {
	mu              sync.Mutex
	cols, rows      int
	grid            [][]Cell
	scrollback      [][]Cell
	scrollbackLimit int
	cursorX         int
	cursorY         int
	savedX          int
	savedY          int
	curAttr         CellAttr
	mode            parserMode
	csiParams       string
}

// NewScreen creates a blank screen of the given dimensions with the given
// scrollback line limit (0 disables scrollback retention).
func NewScreen(cols, rows, scrollbackLimit int) *Screen {
	s := &Screen{
		cols:            cols,
		rows:            rows,
		scrollbackLimit: scrollbackLimit,
		curAttr:         defaultAttr(),
	}
	s.grid = newGrid(cols, rows)
	return s
}

func newGrid(cols, rows int) [][]Cell {
	grid := make([][]Cell, rows)
	for i := range grid {
		row := make([]Cell, cols)
		for j := range row {
			row[j] = blankCell()
		}
		grid[i] = row
	}
	return grid
}

// Write feeds raw output bytes from the child process into the parser.
func (s *Screen) Write(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range p {
		s.feed(rune(b))
	}
}

func (s *Screen) feed(r rune) {
	switch s.mode {
	case modeNormal:
		s.feedNormal(r)
	case modeEscape:
		if r == '[' {
			s.mode = modeCSI
			s.csiParams = ""
			return
		}
		// Unsupported two-byte escape; drop back to normal.
		s.mode = modeNormal
	case modeCSI:
		if r >= '0' && r <= '9' || r == ';' || r == '?' {
			s.csiParams += string(r)
			return
		}
		s.applyCSI(r, s.csiParams)
		s.mode = modeNormal
	}
}

func (s *Screen) feedNormal(r rune) {
	switch r {
	case 0x1b: // ESC
		s.mode = modeEscape
	case '\r':
		s.cursorX = 0
	case '\n':
		s.newline()
	case '\b':
		if s.cursorX > 0 {
			s.cursorX--
		}
	case '\t':
		next := (s.cursorX/8 + 1) * 8
		if next >= s.cols {
			next = s.cols - 1
		}
		s.cursorX = next
	default:
		if r < 0x20 {
			return // ignore other control bytes
		}
		s.putChar(r)
	}
}

func (s *Screen) putChar(r rune) {
	if s.cursorX >= s.cols {
		s.cursorX = 0
		s.newline()
	}
	s.grid[s.cursorY][s.cursorX] = Cell{Rune: r, Attr: s.curAttr}
	s.cursorX++
}

// newline advances the cursor to the next line, scrolling the grid (and
// pushing the evicted top row into bounded scrollback) if already at the
// bottom row.
func (s *Screen) newline() {
	if s.cursorY < s.rows-1 {
		s.cursorY++
		return
	}
	if s.scrollbackLimit > 0 {
		s.scrollback = append(s.scrollback, s.grid[0])
		if len(s.scrollback) > s.scrollbackLimit {
			s.scrollback = s.scrollback[len(s.scrollback)-s.scrollbackLimit:]
		}
	}
	copy(s.grid, s.grid[1:])
	s.grid[s.rows-1] = newBlankRow(s.cols)
}

func newBlankRow(cols int) []Cell {
	row := make([]Cell, cols)
	for i := range row {
		row[i] = blankCell()
	}
	return row
}

func csiInts(params string, def int, n int) []int {
	parts := strings.Split(params, ";")
	out := make([]int, n)
	for i := range out {
		out[i] = def
	}
	for i, p := range parts {
		if i >= n || p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err == nil {
			out[i] = v
		}
	}
	return out
}

func (s *Screen) applyCSI(final rune, params string) {
	switch final {
	case 'A': // cursor up
		n := csiInts(params, 1, 1)[0]
		s.cursorY = clamp(s.cursorY-n, 0, s.rows-1)
	case 'B': // cursor down
		n := csiInts(params, 1, 1)[0]
		s.cursorY = clamp(s.cursorY+n, 0, s.rows-1)
	case 'C': // cursor forward
		n := csiInts(params, 1, 1)[0]
		s.cursorX = clamp(s.cursorX+n, 0, s.cols-1)
	case 'D': // cursor back
		n := csiInts(params, 1, 1)[0]
		s.cursorX = clamp(s.cursorX-n, 0, s.cols-1)
	case 'H', 'f': // cursor position: row;col, 1-based
		p := csiInts(params, 1, 2)
		s.cursorY = clamp(p[0]-1, 0, s.rows-1)
		s.cursorX = clamp(p[1]-1, 0, s.cols-1)
	case 'J': // erase in display
		mode := csiInts(params, 0, 1)[0]
		s.eraseDisplay(mode)
	case 'K': // erase in line
		mode := csiInts(params, 0, 1)[0]
		s.eraseLine(mode)
	case 's': // save cursor
		s.savedX, s.savedY = s.cursorX, s.cursorY
	case 'u': // restore cursor
		s.cursorX, s.cursorY = s.savedX, s.savedY
	case 'm': // SGR
		s.applySGR(params)
	default:
		// Unsupported CSI final byte (scroll region, mode set, etc.) — ignored.
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *Screen) eraseDisplay(mode int) {
	switch mode {
	case 0: // cursor to end
		s.eraseLine(0)
		for y := s.cursorY + 1; y < s.rows; y++ {
			s.grid[y] = newBlankRow(s.cols)
		}
	case 1: // start to cursor
		s.eraseLine(1)
		for y := 0; y < s.cursorY; y++ {
			s.grid[y] = newBlankRow(s.cols)
		}
	case 2, 3: // entire screen
		s.grid = newGrid(s.cols, s.rows)
	}
}

func (s *Screen) eraseLine(mode int) {
	row := s.grid[s.cursorY]
	switch mode {
	case 0:
		for x := s.cursorX; x < s.cols; x++ {
			row[x] = blankCell()
		}
	case 1:
		for x := 0; x <= s.cursorX && x < s.cols; x++ {
			row[x] = blankCell()
		}
	case 2:
		for x := range row {
			row[x] = blankCell()
		}
	}
}

func (s *Screen) applySGR(params string) {
	if params == "" {
		s.curAttr = defaultAttr()
		return
	}
	for _, p := range strings.Split(params, ";") {
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		switch {
		case n == 0:
			s.curAttr = defaultAttr()
		case n == 1:
			s.curAttr.Bold = true
		case n == 4:
			s.curAttr.Underline = true
		case n == 7:
			s.curAttr.Reverse = true
		case n == 22:
			s.curAttr.Bold = false
		case n == 24:
			s.curAttr.Underline = false
		case n == 27:
			s.curAttr.Reverse = false
		case n >= 30 && n <= 37:
			s.curAttr.FG = n - 30
		case n == 39:
			s.curAttr.FG = -1
		case n >= 40 && n <= 47:
			s.curAttr.BG = n - 40
		case n == 49:
			s.curAttr.BG = -1
		}
	}
}

// Resize changes the grid dimensions, preserving existing content in the
// overlapping region and blank-padding any newly added rows/columns.
func (s *Screen) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	newG := newGrid(cols, rows)
	for y := 0; y < rows && y < s.rows; y++ {
		for x := 0; x < cols && x < s.cols; x++ {
			newG[y][x] = s.grid[y][x]
		}
	}
	s.grid = newG
	s.cols, s.rows = cols, rows
	s.cursorX = clamp(s.cursorX, 0, cols-1)
	s.cursorY = clamp(s.cursorY, 0, rows-1)
}

// SetScrollbackLimit changes the bounded scrollback retention, trimming
// immediately if the new limit is smaller than the current backlog.
func (s *Screen) SetScrollbackLimit(limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollbackLimit = limit
	if limit > 0 && len(s.scrollback) > limit {
		s.scrollback = s.scrollback[len(s.scrollback)-limit:]
	} else if limit == 0 {
		s.scrollback = nil
	}
}

// Cursor returns the current 0-based cursor position.
func (s *Screen) Cursor() (x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursorX, s.cursorY
}

// Render renders the current visible grid to text. When colors is true,
// each run of cells sharing an attribute is wrapped in the corresponding
// SGR escape sequence.
func (s *Screen) Render(colors bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sb strings.Builder
	for y, row := range s.grid {
		if y > 0 {
			sb.WriteByte('\n')
		}
		if colors {
			sb.WriteString(renderRowColored(row))
		} else {
			sb.WriteString(renderRowPlain(row))
		}
	}
	return sb.String()
}

func renderRowPlain(row []Cell) string {
	var sb strings.Builder
	for _, c := range row {
		sb.WriteRune(c.Rune)
	}
	return strings.TrimRight(sb.String(), " ")
}

func renderRowColored(row []Cell) string {
	var sb strings.Builder
	var cur CellAttr
	open := false
	for _, c := range row {
		if !open || c.Attr != cur {
			if open {
				sb.WriteString("\x1b[0m")
			}
			sb.WriteString(sgrEscape(c.Attr))
			cur = c.Attr
			open = true
		}
		sb.WriteRune(c.Rune)
	}
	if open {
		sb.WriteString("\x1b[0m")
	}
	return strings.TrimRight(sb.String(), " \x1b[0m")
}

func sgrEscape(a CellAttr) string {
	codes := []string{}
	if a.Bold {
		codes = append(codes, "1")
	}
	if a.Underline {
		codes = append(codes, "4")
	}
	if a.Reverse {
		codes = append(codes, "7")
	}
	if a.FG >= 0 {
		codes = append(codes, strconv.Itoa(30+a.FG))
	}
	if a.BG >= 0 {
		codes = append(codes, strconv.Itoa(40+a.BG))
	}
	if len(codes) == 0 {
		return "\x1b[0m"
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}
