package ports

import "context"

// Navigator moves the browser to another route.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}
