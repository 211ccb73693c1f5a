package mcp

// PendingCount reports the number of unconsumed responses held by the client.
func PendingCount(c *Client) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// StreamActive reports whether the client still holds a cancel function for
// its stream context.
func StreamActive(c *Client) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelStream != nil
}
