package portalkit

import (
	"context"
	"io"

	"github.com/inkfold/portalkit/gateway"
)

const actionUploadReference = "upload-reference"

// UploadReference describes the uploadreference operation and its observable behavior.
//
// UploadReference may return an error when input validation, dependency calls, or security checks fail.
// UploadReference does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) UploadReference(ctx context.Context, filename string, content io.Reader) error {
	_, err := c.guard(func(p Permissions) bool { return p.CanUpload })
	if err != nil {
		return err
	}

	c.RecordActivity()

	resp, err := c.callMultipart(ctx, actionUploadReference, nil, &gateway.FileUpload{
		Field:    "file",
		Filename: filename,
		Content:  content,
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return rejectionError(resp)
	}

	return nil
}
