package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/weperezh01/isp-core/internal/observability/tracing"
	permissiondomain "github.com/weperezh01/isp-core/internal/permission/domain"
)

// Syncer pushes one grant to the provisioning backend.
type Syncer interface {
	Sync(ctx context.Context, grant permissiondomain.UserPermission) error
}

// NoopSyncer confirms every grant locally. Used when no endpoint is
// configured.
type NoopSyncer struct{}

func (NoopSyncer) Sync(context.Context, permissiondomain.UserPermission) error { return nil }

// HTTPSyncer POSTs grants to a provisioning endpoint and treats any non-2xx
// response as a failure.
type HTTPSyncer struct {
	endpoint string
	client   *http.Client
}

func NewHTTPSyncer(endpoint string, client *http.Client) *HTTPSyncer {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSyncer{
		endpoint: endpoint,
		client:   tracing.WrapHTTPClient(client),
	}
}

func (s *HTTPSyncer) Sync(ctx context.Context, grant permissiondomain.UserPermission) error {
	body, err := json.Marshal(map[string]any{
		"id_usuario":    grant.UserID.String(),
		"id_permiso":    grant.PermissionID,
		"id_subpermiso": grant.SubPermissionID,
		"habilitado":    grant.Enabled,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sync_endpoint_status_%d", resp.StatusCode)
	}
	return nil
}

// NewSyncer picks the syncer for the configured endpoint.
func NewSyncer(cfg Config) Syncer {
	if cfg.EndpointURL == "" {
		return NoopSyncer{}
	}
	return NewHTTPSyncer(cfg.EndpointURL, nil)
}
