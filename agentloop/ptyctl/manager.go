// Package ptyctl implements the PTY Session Manager: a bounded set of
// interactive child processes, each wrapped in a VT100 parser (screen.go)
// with configurable scrollback. Process spawning uses github.com/creack/pty
// (grounded on wick_go/go.mod and wick_deep_agent/server/go.mod in the
// example pack, which both declare it for exactly this purpose) so tools
// get a real pseudo-terminal fd pair instead of plain pipes — required for
// correct cursor/resize semantics in full-screen programs.
//
// MAX_CONCURRENT_SESSIONS in apchat-terminal (original_source) is the
// grounding for this package's default session ceiling of 15.
package ptyctl

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"
)

// DefaultMaxConcurrentSessions is the default ceiling on live sessions,
// grounded on original_source's MAX_CONCURRENT_SESSIONS constant.
const DefaultMaxConcurrentSessions = 15

// DefaultScrollbackLines is the default bounded scrollback retained per
// session.
const DefaultScrollbackLines = 1000

// DefaultUserInputTimeout is the default wait for pty_request_user_input.
const DefaultUserInputTimeout = 300 * time.Second

// Status is a PTY session's lifecycle state.
type Status struct {
	Kind     string `json:"kind"` // running | stopped | exited
	ExitCode int    `json:"exit_code,omitempty"`
}

var (
	StatusRunning = Status{Kind: "running"}
	StatusStopped = Status{Kind: "stopped"}
)

// SessionInfo is a read-only snapshot of a session's metadata, returned by
// List and Launch.
type SessionInfo struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	WorkingDir string    `json:"working_dir"`
	CreatedAt  time.Time `json:"created_at"`
	Status     Status    `json:"status"`
	Cols       int       `json:"cols"`
	Rows       int       `json:"rows"`
	Capturing  bool      `json:"capturing"`
}

// InputHandoff is the abstract capability used by RequestUserInput to hand
// a session over to direct user control. The CLI binds this to the
// terminal, the web frontend binds it to a WebSocket round-trip; neither
// binding lives in this package. TakeOver blocks until the user signals
// completion (EOF) or timeout elapses, whichever is first.
type InputHandoff interface {
	TakeOver(sessionID, message string, timeout time.Duration) error
}

// Session is one managed PTY-wrapped child process.
type Session struct {
	info    SessionInfo
	infoMu  sync.Mutex
	ptmx    *os.File
	cmd     *exec.Cmd
	screen  *Screen
	ioMu    sync.Mutex // serialises SendKeys against GetScreen, per §4.7
	capMu   sync.Mutex
	capture *capture
}

func (s *Session) snapshot() SessionInfo {
	s.infoMu.Lock()
	defer s.infoMu.Unlock()
	return s.info
}

func (s *Session) setStatus(st Status) {
	s.infoMu.Lock()
	s.info.Status = st
	s.infoMu.Unlock()
}

// Manager owns the bounded session table. Its own lock guards the table;
// per-session locks guard per-session state, per §5's shared-resources
// rule.
type Manager struct {
	mu                sync.Mutex
	sessions          map[string]*Session
	maxSessions       int
	defaultScrollback int
	captureDir        string
	handoff           InputHandoff
}

// NewManager constructs a Manager. captureDir is where start_capture writes
// JSONL files; handoff may be nil if the embedding application never
// expects pty_request_user_input to be called.
func NewManager(maxSessions, defaultScrollback int, captureDir string, handoff InputHandoff) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxConcurrentSessions
	}
	if defaultScrollback <= 0 {
		defaultScrollback = DefaultScrollbackLines
	}
	return &Manager{
		sessions:          make(map[string]*Session),
		maxSessions:       maxSessions,
		defaultScrollback: defaultScrollback,
		captureDir:        captureDir,
		handoff:           handoff,
	}
}

// Launch spawns command under a fresh pseudo-terminal of the given
// dimensions and starts its reader goroutine. Fails with ErrCapacity if the
// manager is already at its session ceiling.
func (m *Manager) Launch(command, cwd string, cols, rows int) (SessionInfo, error) {
	m.mu.Lock()
	if len(m.sessions) >= m.maxSessions {
		m.mu.Unlock()
		return SessionInfo{}, ErrCapacity{Limit: m.maxSessions}
	}
	m.mu.Unlock()

	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}

	cmd := exec.Command("/bin/sh", "-c", command)
	if cwd != "" {
		cmd.Dir = cwd
	}
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
	if err != nil {
		return SessionInfo{}, fmt.Errorf("spawning pty: %w", err)
	}

	id := uuid.New().String()
	sess := &Session{
		ptmx:   ptmx,
		cmd:    cmd,
		screen: NewScreen(cols, rows, m.defaultScrollback),
		info: SessionInfo{
			ID:         id,
			Command:    command,
			WorkingDir: cwd,
			CreatedAt:  time.Now(),
			Status:     StatusRunning,
			Cols:       cols,
			Rows:       rows,
		},
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	go m.readLoop(id, sess)
	go m.waitLoop(id, sess)

	return sess.snapshot(), nil
}

func (m *Manager) readLoop(id string, sess *Session) {
	buf := make([]byte, 4096)
	for {
		n, err := sess.ptmx.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			sess.screen.Write(chunk)
			sess.capMu.Lock()
			cap := sess.capture
			sess.capMu.Unlock()
			if cap != nil {
				_ = cap.write(chunk)
			}
		}
		if err != nil {
			return
		}
	}
}

func (m *Manager) waitLoop(id string, sess *Session) {
	err := sess.cmd.Wait()
	code := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}
	sess.setStatus(Status{Kind: "exited", ExitCode: code})
	sess.capMu.Lock()
	if sess.capture != nil {
		_ = sess.capture.close()
		sess.capture = nil
	}
	sess.capMu.Unlock()
}

// ErrCapacity is returned by Launch when the session ceiling is reached.
type ErrCapacity struct{ Limit int }

func (e ErrCapacity) Error() string { return fmt.Sprintf("at concurrent session limit (%d)", e.Limit) }

// ErrNotFound is returned by any operation referencing an unknown session id.
type ErrNotFound struct{ ID string }

func (e ErrNotFound) Error() string { return fmt.Sprintf("no session with id %q", e.ID) }

func (m *Manager) get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound{ID: id}
	}
	return sess, nil
}

// SendKeys appends bytes to the child's input, translating special-key
// notation first when interpretSpecials is set.
func (m *Manager) SendKeys(id, keys string, interpretSpecials bool) error {
	sess, err := m.get(id)
	if err != nil {
		return err
	}
	translated := InterpretKeys(keys, interpretSpecials)
	sess.ioMu.Lock()
	defer sess.ioMu.Unlock()
	_, err = sess.ptmx.Write([]byte(translated))
	return err
}

// GetScreen renders the session's current VT100 screen buffer.
func (m *Manager) GetScreen(id string, includeColors, includeCursor bool) (text string, cursorX, cursorY int, err error) {
	sess, err := m.get(id)
	if err != nil {
		return "", 0, 0, err
	}
	sess.ioMu.Lock()
	defer sess.ioMu.Unlock()
	text = sess.screen.Render(includeColors)
	if includeCursor {
		cursorX, cursorY = sess.screen.Cursor()
	}
	return text, cursorX, cursorY, nil
}

// GetCursor returns the session's current cursor position.
func (m *Manager) GetCursor(id string) (x, y int, err error) {
	sess, err := m.get(id)
	if err != nil {
		return 0, 0, err
	}
	x, y = sess.screen.Cursor()
	return x, y, nil
}

// Resize changes the session's PTY and screen-buffer dimensions.
func (m *Manager) Resize(id string, cols, rows int) error {
	sess, err := m.get(id)
	if err != nil {
		return err
	}
	if err := pty.Setsize(sess.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}); err != nil {
		return fmt.Errorf("resizing pty: %w", err)
	}
	sess.screen.Resize(cols, rows)
	sess.infoMu.Lock()
	sess.info.Cols, sess.info.Rows = cols, rows
	sess.infoMu.Unlock()
	return nil
}

// SetScrollback changes the session's bounded scrollback retention.
func (m *Manager) SetScrollback(id string, lines int) error {
	sess, err := m.get(id)
	if err != nil {
		return err
	}
	sess.screen.SetScrollbackLimit(lines)
	return nil
}

// StartCapture begins writing a timestamped JSONL record per output chunk
// to a capture file under the manager's configured capture directory.
func (m *Manager) StartCapture(id string) error {
	sess, err := m.get(id)
	if err != nil {
		return err
	}
	cap, err := startCapture(m.captureDir, id)
	if err != nil {
		return err
	}
	sess.capMu.Lock()
	sess.capture = cap
	sess.capMu.Unlock()
	return nil
}

// StopCapture stops writing the capture file and returns its path.
func (m *Manager) StopCapture(id string) (string, error) {
	sess, err := m.get(id)
	if err != nil {
		return "", err
	}
	sess.capMu.Lock()
	defer sess.capMu.Unlock()
	if sess.capture == nil {
		return "", fmt.Errorf("session %s is not capturing", id)
	}
	path := sess.capture.path
	err = sess.capture.close()
	sess.capture = nil
	return path, err
}

// List returns a snapshot of all sessions. Pure: successive calls with no
// intervening mutation return equal snapshots.
func (m *Manager) List() []SessionInfo {
	m.mu.Lock()
	ids := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		ids = append(ids, s)
	}
	m.mu.Unlock()

	infos := make([]SessionInfo, len(ids))
	for i, s := range ids {
		info := s.snapshot()
		s.capMu.Lock()
		info.Capturing = s.capture != nil
		s.capMu.Unlock()
		infos[i] = info
	}
	return infos
}

// Kill sends signal (default SIGTERM) to the session's child process.
// Escalation to SIGKILL is the caller's explicit choice, not automatic.
func (m *Manager) Kill(id string, signal string) error {
	sess, err := m.get(id)
	if err != nil {
		return err
	}
	var sig syscall.Signal
	switch signal {
	case "", "SIGTERM":
		sig = syscall.SIGTERM
	case "SIGKILL":
		sig = syscall.SIGKILL
	case "SIGINT":
		sig = syscall.SIGINT
	case "SIGHUP":
		sig = syscall.SIGHUP
	case "SIGQUIT":
		sig = syscall.SIGQUIT
	default:
		return fmt.Errorf("unsupported signal %q", signal)
	}
	if err := sess.cmd.Process.Signal(sig); err != nil {
		return fmt.Errorf("signalling session %s: %w", id, err)
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// RequestUserInput suspends the agent for up to timeout while the user is
// given direct control of the session through the configured InputHandoff.
// Returns on user completion (EOF) or timeout, whichever is first.
func (m *Manager) RequestUserInput(id, message string, timeout time.Duration) error {
	sess, err := m.get(id)
	if err != nil {
		return err
	}
	_ = sess
	if timeout <= 0 {
		timeout = DefaultUserInputTimeout
	}
	if m.handoff == nil {
		return fmt.Errorf("no input handoff configured for session %s", id)
	}
	return m.handoff.TakeOver(id, message, timeout)
}

// Shutdown sends SIGTERM to every running session, waits up to grace, then
// escalates any still-running session to SIGKILL. The Coordinator has no
// shutdown path and does not call it; the Manager's owner does.
func (m *Manager) Shutdown(grace time.Duration) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		if s.snapshot().Status.Kind == "running" {
			_ = s.cmd.Process.Signal(syscall.SIGTERM)
		}
	}
	time.Sleep(grace)
	for _, s := range sessions {
		if s.snapshot().Status.Kind == "running" {
			_ = s.cmd.Process.Signal(syscall.SIGKILL)
		}
	}
}
