package ports

import (
	"context"

	"github.com/salonbook/webapp/internal/apiclient"
)

// APIClient is the backend REST API as seen by the session store.
// Failures are *apiclient.ResponseError, *apiclient.NoResponseError or
// *apiclient.RequestError.
type APIClient interface {
	Get(ctx context.Context, path string) (*apiclient.Response, error)
	Post(ctx context.Context, path string, body any) (*apiclient.Response, error)
	Put(ctx context.Context, path string, body any) (*apiclient.Response, error)
	Patch(ctx context.Context, path string, body any) (*apiclient.Response, error)
	Delete(ctx context.Context, path string) (*apiclient.Response, error)
}
