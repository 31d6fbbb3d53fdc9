package portalkit

import (
	"context"
	"io"
	"strconv"

	"github.com/inkfold/portalkit/gateway"
)

const (
	actionGetHealingEntries  = "get-healing-entries"
	actionUploadHealingPhoto = "upload-healing-photo"
	actionAnalyzeHealing     = "analyze-healing-photo-customer"
	actionRequestCertificate = "request-certificate"
)

// FetchHealingEntries describes the fetchhealingentries operation and its observable behavior.
//
// FetchHealingEntries may return an error when input validation, dependency calls, or security checks fail.
// FetchHealingEntries does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) FetchHealingEntries(ctx context.Context) ([]HealingEntry, error) {
	_, err := c.guard(func(p Permissions) bool { return p.CanView })
	if err != nil {
		return nil, err
	}

	resp, err := c.callGet(ctx, actionGetHealingEntries)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, rejectionError(resp)
	}

	var out struct {
		Entries []HealingEntry `json:"entries"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, ErrMalformedResponse
	}

	c.mu.Lock()
	c.healing = out.Entries
	c.mu.Unlock()

	return out.Entries, nil
}

// UploadHealingPhoto describes the uploadhealingphoto operation and its observable behavior.
//
// UploadHealingPhoto may return an error when input validation, dependency calls, or security checks fail.
// UploadHealingPhoto does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) UploadHealingPhoto(ctx context.Context, day int, note, filename string, content io.Reader) (HealingEntry, error) {
	_, err := c.guard(func(p Permissions) bool { return p.CanUpload })
	if err != nil {
		return HealingEntry{}, err
	}

	c.RecordActivity()

	resp, err := c.callMultipart(ctx, actionUploadHealingPhoto, map[string]string{
		"day":  strconv.Itoa(day),
		"note": note,
	}, &gateway.FileUpload{
		Field:    "photo",
		Filename: filename,
		Content:  content,
	})
	if err != nil {
		return HealingEntry{}, err
	}
	if !resp.OK() {
		return HealingEntry{}, rejectionError(resp)
	}

	var out struct {
		Entry HealingEntry `json:"entry"`
	}
	if err := resp.Decode(&out); err != nil || out.Entry.ID == "" {
		return HealingEntry{}, ErrMalformedResponse
	}

	c.mu.Lock()
	c.healing = append(c.healing, out.Entry)
	c.mu.Unlock()

	return out.Entry, nil
}

// AnalyzeHealingPhoto describes the analyzehealingphoto operation and its observable behavior.
//
// AnalyzeHealingPhoto may return an error when input validation, dependency calls, or security checks fail.
// AnalyzeHealingPhoto does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) AnalyzeHealingPhoto(ctx context.Context, entryID string) (HealingAnalysis, error) {
	_, err := c.guard(func(p Permissions) bool { return p.CanView })
	if err != nil {
		return HealingAnalysis{}, err
	}

	resp, err := c.callJSON(ctx, actionAnalyzeHealing, map[string]string{"entry_id": entryID})
	if err != nil {
		return HealingAnalysis{}, err
	}
	if !resp.OK() {
		return HealingAnalysis{}, rejectionError(resp)
	}

	var out struct {
		Analysis HealingAnalysis `json:"analysis"`
	}
	if err := resp.Decode(&out); err != nil || out.Analysis.EntryID == "" {
		return HealingAnalysis{}, ErrMalformedResponse
	}

	return out.Analysis, nil
}

// RequestCertificate describes the requestcertificate operation and its observable behavior.
//
// RequestCertificate may return an error when input validation, dependency calls, or security checks fail.
// RequestCertificate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) RequestCertificate(ctx context.Context) error {
	_, err := c.guard(func(p Permissions) bool { return p.CanView })
	if err != nil {
		return err
	}

	c.RecordActivity()

	resp, err := c.callJSON(ctx, actionRequestCertificate, nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return rejectionError(resp)
	}

	return nil
}
