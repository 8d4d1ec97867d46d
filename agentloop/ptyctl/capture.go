package ptyctl

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// captureRecord is one line of a capture file: a timestamped output chunk,
// per the §6 capture-file format.
type captureRecord struct {
	Timestamp string `json:"timestamp"`
	Data      string `json:"data"`
}

// capture writes one JSONL record per output chunk to an unbounded file.
// Safe for concurrent use by the session's reader goroutine and a manager
// shutdown racing to close it.
type capture struct {
	mu   sync.Mutex
	file *os.File
	path string
}

func startCapture(dir, sessionID string) (*capture, error) {
	path := fmt.Sprintf("%s/pty-%s-%d.jsonl", dir, sessionID, time.Now().UnixNano())
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating capture file: %w", err)
	}
	return &capture{file: f, path: path}, nil
}

func (c *capture) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return nil
	}
	rec := captureRecord{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Data:      string(data),
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = c.file.Write(line)
	return err
}

func (c *capture) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}
