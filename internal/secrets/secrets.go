// Package secrets resolves the remote API token from configuration.
package secrets

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"

	"git.home.luguber.info/inful/menusync/internal/config"
	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
)

// AWS error codes that map to non-transient categories.
const (
	resourceNotFoundException = "ResourceNotFoundException"
	accessDeniedException     = "AccessDeniedException"
)

// ManagerAPI is the subset of the Secrets Manager client used here.
type ManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver looks up the API token.
type Resolver struct {
	lookupEnv func(string) (string, bool)
	newAPI    func(ctx context.Context, region string) (ManagerAPI, error)
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(r *Resolver) { r.lookupEnv = fn }
}

// WithManagerAPI makes the resolver use api instead of a client built from
// the default AWS configuration.
func WithManagerAPI(api ManagerAPI) Option {
	return func(r *Resolver) {
		r.newAPI = func(context.Context, string) (ManagerAPI, error) { return api, nil }
	}
}

// NewResolver returns a resolver backed by the process environment and AWS.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{lookupEnv: os.LookupEnv, newAPI: defaultManagerAPI}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultManagerAPI(ctx context.Context, region string) (ManagerAPI, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.SecretsError("failed to load AWS configuration").WithCause(err).Build()
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// Token returns the API token. Sources are tried in order: literal token,
// environment variable, Secrets Manager secret. An account section with no
// source yields an empty token.
func (r *Resolver) Token(ctx context.Context, acct config.AccountConfig) (string, error) {
	if acct.Token != "" {
		return acct.Token, nil
	}
	if acct.TokenEnv != "" {
		v, ok := r.lookupEnv(acct.TokenEnv)
		if !ok || strings.TrimSpace(v) == "" {
			return "", errors.ConfigError("token environment variable is not set").
				WithContext("env", acct.TokenEnv).
				Build()
		}
		return strings.TrimSpace(v), nil
	}
	if acct.TokenSecret != "" {
		return r.fromSecret(ctx, acct.TokenSecret, acct.SecretRegion)
	}
	return "", nil
}

func (r *Resolver) fromSecret(ctx context.Context, secretID, region string) (string, error) {
	api, err := r.newAPI(ctx, region)
	if err != nil {
		return "", err
	}
	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(secretID)})
	if err != nil {
		return "", classify(err, secretID)
	}
	if out == nil || out.SecretString == nil || strings.TrimSpace(*out.SecretString) == "" {
		return "", errors.SecretsError("secret value is empty").
			WithContext("secret", secretID).
			Build()
	}
	return strings.TrimSpace(*out.SecretString), nil
}

func classify(err error, secretID string) error {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case resourceNotFoundException:
			return errors.NotFoundError("secret not found").
				WithCause(err).
				WithContext("secret", secretID).
				Build()
		case accessDeniedException:
			return errors.AuthError("access denied to secret").
				WithCause(err).
				WithContext("secret", secretID).
				Build()
		}
		return errors.SecretsError("secrets manager request failed").
			WithCause(err).
			WithContext("secret", secretID).
			WithContext("code", apiErr.ErrorCode()).
			Retryable().
			Build()
	}
	return errors.SecretsError("secrets manager request failed").
		WithCause(err).
		WithContext("secret", secretID).
		Retryable().
		Build()
}
