// ABOUTME: MCP resource handlers for exposing pipeline data
// ABOUTME: Provides read-only access to pipelines and deals via deals:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "deals://"

type ResourceHandlers struct {
	engine *engine.Engine
}

func NewResourceHandlers(e *engine.Engine) *ResourceHandlers {
	return &ResourceHandlers{engine: e}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, uriScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", uriScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, uriScheme), "/")
	switch parts[0] {
	case "pipelines":
		if len(parts) == 1 {
			return jsonResource(uri, h.engine.Catalog().Pipelines())
		}
		p, err := h.engine.Catalog().Pipeline(parts[1])
		if err != nil {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		return jsonResource(uri, p)

	case "deals":
		if len(parts) == 1 {
			return jsonResource(uri, h.engine.Deals())
		}
		return h.readDeal(uri, parts[1])

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func (h *ResourceHandlers) readDeal(uri, id string) (*mcp.ReadResourceResult, error) {
	deal, err := h.engine.Deal(id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	dealData := struct {
		models.Deal
		Status string `json:"status"`
	}{
		Deal:   deal,
		Status: engine.DealStatus(h.engine.Catalog(), deal),
	}
	return jsonResource(uri, dealData)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
