// Package memory provides an in-memory recap appender used when no
// spreadsheet is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"lapor/internal/core"
	ports "lapor/internal/sheets"
)

type Client struct {
	mu   sync.Mutex
	rows []core.Report
}

var _ ports.RecapAppender = (*Client)(nil)

func New() *Client {
	return &Client{}
}

func (c *Client) AppendRecapRow(_ context.Context, rep core.Report) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, rep)
	return fmt.Sprintf("memory:%d", len(c.rows)), nil
}

// Rows returns a copy of every appended report, in order.
func (c *Client) Rows() []core.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Report, len(c.rows))
	copy(out, c.rows)
	return out
}
