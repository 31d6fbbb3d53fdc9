package portalkit

import "context"

const (
	actionGetPayments    = "get-payments"
	actionRequestPayment = "request-payment"
)

// FetchPayments describes the fetchpayments operation and its observable behavior.
//
// FetchPayments may return an error when input validation, dependency calls, or security checks fail.
// FetchPayments does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) FetchPayments(ctx context.Context) ([]Payment, error) {
	_, err := c.guard(func(p Permissions) bool { return p.CanView })
	if err != nil {
		return nil, err
	}

	resp, err := c.callGet(ctx, actionGetPayments)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, rejectionError(resp)
	}

	var out struct {
		Payments []Payment `json:"payments"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, ErrMalformedResponse
	}

	c.mu.Lock()
	c.pays = out.Payments
	c.mu.Unlock()

	return out.Payments, nil
}

// RequestPayment describes the requestpayment operation and its observable behavior.
//
// RequestPayment may return an error when input validation, dependency calls, or security checks fail.
// RequestPayment does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) RequestPayment(ctx context.Context, paymentID string) (Payment, error) {
	_, err := c.guard(func(p Permissions) bool { return p.CanPay })
	if err != nil {
		return Payment{}, err
	}

	c.RecordActivity()

	resp, err := c.callJSON(ctx, actionRequestPayment, map[string]string{"payment_id": paymentID})
	if err != nil {
		return Payment{}, err
	}
	if !resp.OK() {
		return Payment{}, rejectionError(resp)
	}

	var out struct {
		Payment Payment `json:"payment"`
	}
	if err := resp.Decode(&out); err != nil || out.Payment.ID == "" {
		return Payment{}, ErrMalformedResponse
	}

	c.mu.Lock()
	replaced := false
	for i := range c.pays {
		if c.pays[i].ID == out.Payment.ID {
			c.pays[i] = out.Payment
			replaced = true
			break
		}
	}
	if !replaced {
		c.pays = append(c.pays, out.Payment)
	}
	c.mu.Unlock()

	return out.Payment, nil
}
