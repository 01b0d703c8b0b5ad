package adminapi

import (
	"context"
	"net/http"
)

// VectorStatus returns the vector index status. Its shape is defined by
// the vectors service and passed through as is.
func (c *Client) VectorStatus(ctx context.Context) (map[string]any, error) {
	var status map[string]any
	if err := c.gw.Do(ctx, http.MethodGet, VectorsBase+"/vectors", nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}
