package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/smithy-go"
)

type CognitoAPI interface {
	GetUser(ctx context.Context, params *cognitoidentityprovider.GetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error)
}

// CognitoVerifier asks a Cognito user pool who owns an access token. The
// owner is the user's "sub" attribute.
type CognitoVerifier struct {
	client CognitoAPI
}

func NewCognitoVerifier(client CognitoAPI) *CognitoVerifier {
	return &CognitoVerifier{client: client}
}

func InitCognitoVerifier(ctx context.Context, region string) (*CognitoVerifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewCognitoVerifier(cognitoidentityprovider.NewFromConfig(cfg)), nil
}

func (v *CognitoVerifier) Verify(ctx context.Context, token string) (string, error) {
	out, err := v.client.GetUser(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(token),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "NotAuthorizedException", "UserNotFoundException", "UserNotConfirmedException":
				return "", fmt.Errorf("%w: %s", ErrUnauthenticated, apiErr.ErrorCode())
			}
		}
		return "", fmt.Errorf("cognito get user: %w", err)
	}

	for _, attr := range out.UserAttributes {
		if aws.ToString(attr.Name) == "sub" && aws.ToString(attr.Value) != "" {
			return aws.ToString(attr.Value), nil
		}
	}
	return "", fmt.Errorf("%w: token has no sub attribute", ErrUnauthenticated)
}
