package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

func FetchAWSParams(ctx context.Context, keys ...string) (map[string]string, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(DefaultAWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := ssm.NewFromConfig(cfg)
	parameters, err := client.GetParameters(ctx, &ssm.GetParametersInput{
		Names:          keys,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get parameters: %w", err)
	}

	params := make(map[string]string, len(parameters.Parameters))
	for _, param := range parameters.Parameters {
		params[aws.ToString(param.Name)] = aws.ToString(param.Value)
	}

	if missing := missingKeys(params, keys); len(missing) > 0 {
		return params, fmt.Errorf("missing parameter values: %v", missing)
	}

	return params, nil
}

func missingKeys(params map[string]string, keys []string) []string {
	var res []string
	for _, key := range keys {
		if _, exists := params[key]; !exists {
			res = append(res, key)
		}
	}
	return res
}
