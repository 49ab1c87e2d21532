// Package secret resolves the provider API key from AWS Secrets Manager.
package secret

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// ErrEmptySecret is returned when the secret holds no usable value.
var ErrEmptySecret = errors.New("secret has no value")

// SecretsManagerAPI is the slice of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver reads API keys from Secrets Manager.
type Resolver struct {
	client SecretsManagerAPI
}

// NewResolver uses the default AWS credential chain.
func NewResolver(ctx context.Context) (*Resolver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewResolverWithClient(secretsmanager.NewFromConfig(cfg)), nil
}

// NewResolverWithClient wraps an existing client.
func NewResolverWithClient(client SecretsManagerAPI) *Resolver {
	return &Resolver{client: client}
}

// APIKey returns the key stored under secretID. Plain string secrets are
// used as-is; JSON secrets must carry an "api_key" field.
func (r *Resolver) APIKey(ctx context.Context, secretID string) (string, error) {
	if secretID == "" {
		return "", errors.New("secret id cannot be empty")
	}
	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &secretID})
	if err != nil {
		return "", fmt.Errorf("reading secret %q: %w", secretID, err)
	}

	var value string
	switch {
	case out.SecretString != nil:
		value = *out.SecretString
	case out.SecretBinary != nil:
		value = string(out.SecretBinary)
	}
	value = strings.TrimSpace(value)

	if strings.HasPrefix(value, "{") {
		var fields struct {
			APIKey string `json:"api_key"`
		}
		if err := json.Unmarshal([]byte(value), &fields); err != nil {
			return "", fmt.Errorf("secret %q: %w", secretID, err)
		}
		value = strings.TrimSpace(fields.APIKey)
	}
	if value == "" {
		return "", fmt.Errorf("secret %q: %w", secretID, ErrEmptySecret)
	}
	return value, nil
}
