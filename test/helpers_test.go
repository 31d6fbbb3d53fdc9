//go:build integration
// +build integration

package test

import (
	"net/http/httptest"
	"testing"

	portalkit "github.com/inkfold/portalkit"
	"github.com/inkfold/portalkit/internal/bffstub"
)

const (
	integrationAPIKey  = "integration-key"
	integrationMagic   = "integration-magic-token"
	integrationSignKey = "portal-integration-sign-32-bytes"
)

func newIntegrationClient(t *testing.T) (*portalkit.Client, *bffstub.Stub) {
	t.Helper()

	stub, err := bffstub.New(bffstub.Config{
		APIKey:         integrationAPIKey,
		SigningKey:     []byte(integrationSignKey),
		MagicLinkToken: integrationMagic,
		Permissions: portalkit.Permissions{
			CanView:       true,
			CanMessage:    true,
			CanUpload:     true,
			CanPay:        true,
			CanReschedule: true,
		},
	})
	if err != nil {
		t.Fatalf("bffstub new failed: %v", err)
	}

	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	cfg := portalkit.DefaultConfig()
	cfg.Gateway.BaseURL = srv.URL
	cfg.Gateway.APIKey = integrationAPIKey

	client, err := portalkit.New().
		WithConfig(cfg).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("client build failed: %v", err)
	}
	t.Cleanup(client.Close)

	return client, stub
}
