package object_store

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyendpoints "github.com/aws/smithy-go/endpoints"
)

// EndpointResolver implements the s3.EndpointResolverV2 interface to provide a custom endpoint.
var _ s3.EndpointResolverV2 = (*EndpointResolver)(nil)

type EndpointResolver struct {
	endpointUrl string
}

func NewEndpointResolver(endpointUrl string) *EndpointResolver {
	return &EndpointResolver{endpointUrl: endpointUrl}
}

func (r *EndpointResolver) ResolveEndpoint(ctx context.Context, params s3.EndpointParameters) (smithyendpoints.Endpoint, error) {
	if r.endpointUrl == "" {
		return s3.NewDefaultEndpointResolverV2().ResolveEndpoint(ctx, params)
	}

	parsedUrl, err := url.Parse(r.endpointUrl)
	if err != nil {
		return smithyendpoints.Endpoint{}, &aws.EndpointNotFoundError{Err: fmt.Errorf("failed to parse custom endpoint Url '%s': %w", r.endpointUrl, err)}
	}

	return smithyendpoints.Endpoint{
		URI: *parsedUrl,
	}, nil
}
