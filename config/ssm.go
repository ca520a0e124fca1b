package config

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SSMPrefix marks a value that names an SSM Parameter Store parameter, for
// example JWT_SECRET=ssm:/rpgm/prod/jwt-secret.
const SSMPrefix = "ssm:"

// ParameterGetter is the part of the SSM client the resolver uses.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMReferences returns the keys whose values point at SSM parameters.
func SSMReferences(config map[string]string) []string {
	var keys []string
	for key, value := range config {
		if strings.HasPrefix(value, SSMPrefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// NewSSMClient builds a client from the default AWS credential chain.
func NewSSMClient(ctx context.Context, region string) (*ssm.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return ssm.NewFromConfig(awsCfg), nil
}

// ResolveSSM replaces every ssm: value in config with the decrypted
// parameter. It stops at the first parameter that cannot be read.
func ResolveSSM(ctx context.Context, config map[string]string, client ParameterGetter) error {
	for _, key := range SSMReferences(config) {
		name := strings.TrimPrefix(config[key], SSMPrefix)
		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(name),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("read %s from ssm parameter %s: %w", key, name, err)
		}
		if out.Parameter == nil || out.Parameter.Value == nil {
			return fmt.Errorf("ssm parameter %s for %s has no value", name, key)
		}
		config[key] = aws.ToString(out.Parameter.Value)
	}
	return nil
}
