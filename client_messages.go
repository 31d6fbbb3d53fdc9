package portalkit

import "context"

const (
	actionGetMessages = "get-messages"
	actionSendMessage = "send-message"
)

// FetchMessages describes the fetchmessages operation and its observable behavior.
//
// FetchMessages may return an error when input validation, dependency calls, or security checks fail.
// FetchMessages does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) FetchMessages(ctx context.Context) ([]Message, error) {
	_, err := c.guard(func(p Permissions) bool { return p.CanView })
	if err != nil {
		return nil, err
	}

	resp, err := c.callGet(ctx, actionGetMessages)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, rejectionError(resp)
	}

	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, ErrMalformedResponse
	}

	unread := 0
	for _, m := range out.Messages {
		if !m.Read {
			unread++
		}
	}

	c.mu.Lock()
	c.msgs = out.Messages
	c.unread = unread
	c.mu.Unlock()

	return out.Messages, nil
}

// SendMessage describes the sendmessage operation and its observable behavior.
//
// SendMessage may return an error when input validation, dependency calls, or security checks fail.
// SendMessage does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) SendMessage(ctx context.Context, body string) (Message, error) {
	_, err := c.guard(func(p Permissions) bool { return p.CanMessage })
	if err != nil {
		return Message{}, err
	}

	c.RecordActivity()

	resp, err := c.callJSON(ctx, actionSendMessage, map[string]string{"body": body})
	if err != nil {
		return Message{}, err
	}
	if !resp.OK() {
		return Message{}, rejectionError(resp)
	}

	var out struct {
		Message Message `json:"message"`
	}
	if err := resp.Decode(&out); err != nil || out.Message.ID == "" {
		return Message{}, ErrMalformedResponse
	}

	c.mu.Lock()
	c.msgs = append(c.msgs, out.Message)
	c.mu.Unlock()

	return out.Message, nil
}
