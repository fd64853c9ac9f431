// ABOUTME: Builds the MCP server with every deal pipeline tool, resource and prompt
// ABOUTME: Shared by the mcp subcommand and the handler tests
package handlers

import (
	"github.com/harperreed/dealflow/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer registers all handlers against e, attributing changes to user.
func NewServer(e *engine.Engine, user, version string) *mcp.Server {
	dealHandlers := NewDealHandlers(e, user)
	queryHandlers := NewQueryHandlers(e, dealHandlers)
	bulkHandlers := NewBulkHandlers(e, user)
	vizHandlers := NewVizHandlers(e)
	resourceHandlers := NewResourceHandlers(e)
	promptHandlers := NewPromptHandlers(e)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "dealflow",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_deal",
		Description: "Create a deal in a pipeline, placed in its initial stage",
	}, dealHandlers.CreateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_deal",
		Description: "Update a deal's details; use transition_deal to change its stage",
	}, dealHandlers.UpdateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "transition_deal",
		Description: "Move a deal to another stage of its pipeline and record the stage history",
	}, dealHandlers.TransitionDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "deal_history",
		Description: "List the stages a deal has passed through with time spent in each",
	}, dealHandlers.DealHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_deal_activity",
		Description: "Log a call, email, meeting, task or note against a deal",
	}, dealHandlers.LogDealActivity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_deals",
		Description: "Filter, sort and paginate deals, or run a saved view",
	}, queryHandlers.QueryDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_metrics",
		Description: "Total, weighted and average deal value, won/lost/open counts and win rate for matching deals",
	}, queryHandlers.PipelineMetrics)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_deals",
		Description: "Export matching deals as spreadsheet rows",
	}, queryHandlers.ExportDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_view",
		Description: "Save a named filter, sort and page combination",
	}, queryHandlers.SaveView)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_views",
		Description: "List saved views",
	}, queryHandlers.ListViews)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "bulk_update_deals",
		Description: "Apply one action to many deals, reporting success or failure per deal",
	}, bulkHandlers.BulkUpdateDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Render a pipeline's stage flow as GraphViz DOT",
	}, vizHandlers.GenerateGraph)

	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "pipelines",
		Name:        "pipelines",
		Description: "Every pipeline with its ordered stages",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "pipelines/{id}",
		Name:        "pipeline",
		Description: "One pipeline with its ordered stages",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "deals",
		Name:        "deals",
		Description: "Every deal in the workspace",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "deals/{id}",
		Name:        "deal",
		Description: "One deal with its stage history and derived status",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "pipeline-review",
		Description: "Review stage counts, values and win rate of a pipeline",
		Arguments: []*mcp.PromptArgument{
			{Name: "pipeline_id", Description: "Pipeline to review (default: the default pipeline)"},
			{Name: "owner_id", Description: "Only this owner's deals"},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "deal-analysis",
		Description: "Analyze one deal's progress and risks",
		Arguments: []*mcp.PromptArgument{
			{Name: "deal_id", Description: "Deal to analyze", Required: true},
		},
	}, promptHandlers.GetPrompt)

	return server
}
