// Package creds implements the Credential Resolver (spec §4.2): it turns a
// (profile, bucket) pair into a ready-to-use S3 client, running an optional
// setup script and walking an optional role-assumption chain.
package creds

import (
	"context"
	"os"
	"os/exec"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/s3c/s3c/internal/apperr"
	"github.com/s3c/s3c/internal/config"
)

// Resolved is the value object carrying the final credential triple plus
// effective endpoint/region (spec §3). It is exclusively owned by the S3
// Gateway it parameterizes and is never logged.
type Resolved struct {
	Client      *s3.Client
	Region      string
	EndpointURL string
	PathStyle   bool
}

// cacheKey is (profile name, bucket name).
type cacheKey struct{ profile, bucket string }

// Resolver resolves and caches clients for the duration of a bucket
// session (spec §4.2 "Caching").
type Resolver struct {
	mu    sync.Mutex
	cache map[cacheKey]*Resolved

	// RunScript executes profile.SetupScript. Overridable in tests.
	RunScript func(ctx context.Context, script string) error
	// AssumeRole performs one step of the role chain. Overridable in
	// tests to avoid real STS calls.
	AssumeRole func(ctx context.Context, cfgOpts aws.Config, arn string) (aws.Credentials, error)
}

// NewResolver builds a Resolver with real subprocess/STS backends.
func NewResolver() *Resolver {
	r := &Resolver{cache: make(map[cacheKey]*Resolved)}
	r.RunScript = runScriptReal
	r.AssumeRole = assumeRoleReal
	return r
}

// Get returns a cached client for (profile, bucket) if one is resolved and
// still in this session, else nil.
func (r *Resolver) Get(profileName, bucketName string) *Resolved {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache[cacheKey{profileName, bucketName}]
}

// Drop evicts the cached client for (profile, bucket), called when the
// user navigates out of that bucket (spec §4.2).
func (r *Resolver) Drop(profileName, bucketName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, cacheKey{profileName, bucketName})
}

// Resolve runs the full algorithm in spec §4.2: optional setup script,
// base client construction, then the role-assumption chain.
func (r *Resolver) Resolve(ctx context.Context, profile config.Profile, bucket config.Bucket) (*Resolved, error) {
	if profile.SetupScript != "" {
		if err := r.RunScript(ctx, profile.SetupScript); err != nil {
			code := 1
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			}
			return nil, apperr.SetupFailed(code)
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithSharedConfigProfile(profile.Name),
		awsconfig.WithRegion(bucket.Region),
	)
	if err != nil {
		return nil, apperr.WrapMsg(apperr.Other, "load aws config", err)
	}

	if len(bucket.RoleChain) > 0 {
		current := awsCfg
		total := len(bucket.RoleChain)
		for i, arn := range bucket.RoleChain {
			newCreds, err := r.AssumeRole(ctx, current, arn)
			if err != nil {
				return nil, apperr.RoleFailed(i+1, total, arn, err)
			}
			current.Credentials = credentials.StaticCredentialsProvider{Value: newCreds}
		}
		awsCfg = current
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if bucket.EndpointURL != "" {
			o.BaseEndpoint = aws.String(bucket.EndpointURL)
		}
		o.UsePathStyle = bucket.PathStyle
	})

	resolved := &Resolved{
		Client:      client,
		Region:      bucket.Region,
		EndpointURL: bucket.EndpointURL,
		PathStyle:   bucket.PathStyle,
	}

	r.mu.Lock()
	r.cache[cacheKey{profile.Name, bucket.Name}] = resolved
	r.mu.Unlock()

	return resolved, nil
}

func runScriptReal(ctx context.Context, script string) error {
	shell, flag := "sh", "-c"
	if os.Getenv("SHELL") != "" {
		shell = os.Getenv("SHELL")
	}
	cmd := exec.CommandContext(ctx, shell, flag, script)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func assumeRoleReal(ctx context.Context, cfgOpts aws.Config, arn string) (aws.Credentials, error) {
	client := sts.NewFromConfig(cfgOpts)
	out, err := client.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(arn),
		RoleSessionName: aws.String("s3c"),
	})
	if err != nil {
		return aws.Credentials{}, err
	}
	return aws.Credentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
		Expires:         aws.ToTime(out.Credentials.Expiration),
		CanExpire:       true,
	}, nil
}
