package vault

import (
	"fmt"
	"os"

	"github.com/hashicorp/vault/api"
	"github.com/hengadev/cbcx"
)

// NewClientFromEnvironment builds a Vault client from the standard VAULT_* variables.
//
// VAULT_ADDR is required. TLS settings (VAULT_CACERT, VAULT_CLIENT_CERT, VAULT_SKIP_VERIFY, ...)
// and VAULT_NAMESPACE are honoured. The client authenticates with VAULT_TOKEN when set, and
// otherwise logs in through AppRole with VAULT_ROLE_ID and VAULT_SECRET_ID.
func NewClientFromEnvironment() (*api.Client, error) {
	if os.Getenv(api.EnvVaultAddress) == "" {
		return nil, fmt.Errorf("%w: %s environment variable is required", cbcx.ErrInvalidConfiguration, api.EnvVaultAddress)
	}

	cfg := api.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("%w: vault client environment: %w", cbcx.ErrInvalidConfiguration, cfg.Error)
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, cbcx.NewSecretStorageError("vault", fmt.Errorf("failed to create Vault client: %w", err))
	}
	if namespace := os.Getenv(api.EnvVaultNamespace); namespace != "" {
		client.SetNamespace(namespace)
	}

	if err := authenticate(client); err != nil {
		return nil, err
	}
	return client, nil
}

func authenticate(client *api.Client) error {
	if token := os.Getenv(api.EnvVaultToken); token != "" {
		client.SetToken(token)
		return nil
	}

	roleID, secretID := os.Getenv("VAULT_ROLE_ID"), os.Getenv("VAULT_SECRET_ID")
	if roleID == "" || secretID == "" {
		return fmt.Errorf("%w: no Vault authentication method configured (set VAULT_TOKEN or VAULT_ROLE_ID+VAULT_SECRET_ID)",
			cbcx.ErrInvalidConfiguration)
	}

	resp, err := client.Logical().Write("auth/approle/login", map[string]any{
		"role_id":   roleID,
		"secret_id": secretID,
	})
	if err != nil {
		return cbcx.NewSecretStorageError("vault", fmt.Errorf("approle login: %w", err))
	}
	if resp == nil || resp.Auth == nil {
		return fmt.Errorf("%w: approle login returned no auth info", cbcx.ErrInvalidConfiguration)
	}
	client.SetToken(resp.Auth.ClientToken)
	return nil
}
