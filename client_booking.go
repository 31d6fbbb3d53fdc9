package portalkit

import "context"

const (
	actionGetBooking        = "get-booking"
	actionRequestReschedule = "request-reschedule"
)

// FetchBooking describes the fetchbooking operation and its observable behavior.
//
// FetchBooking may return an error when input validation, dependency calls, or security checks fail.
// FetchBooking does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) FetchBooking(ctx context.Context) (Booking, error) {
	_, err := c.guard(func(p Permissions) bool { return p.CanView })
	if err != nil {
		return Booking{}, err
	}

	resp, err := c.callGet(ctx, actionGetBooking)
	if err != nil {
		return Booking{}, err
	}
	if !resp.OK() {
		return Booking{}, rejectionError(resp)
	}

	var out struct {
		Booking Booking `json:"booking"`
	}
	if err := resp.Decode(&out); err != nil || out.Booking.ID == "" {
		return Booking{}, ErrMalformedResponse
	}

	c.mu.Lock()
	booking := out.Booking
	c.booking = &booking
	c.mu.Unlock()

	return out.Booking, nil
}

// RequestReschedule describes the requestreschedule operation and its observable behavior.
//
// RequestReschedule may return an error when input validation, dependency calls, or security checks fail.
// RequestReschedule does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) RequestReschedule(ctx context.Context, preferredDate, note string) error {
	_, err := c.guard(func(p Permissions) bool { return p.CanReschedule })
	if err != nil {
		return err
	}

	c.RecordActivity()

	resp, err := c.callJSON(ctx, actionRequestReschedule, map[string]string{
		"preferred_date": preferredDate,
		"note":           note,
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return rejectionError(resp)
	}

	return nil
}
