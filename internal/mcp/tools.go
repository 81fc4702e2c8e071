package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listPagesTool defines the list_pages MCP tool.
var listPagesTool = mcp.NewTool("list_pages",
	mcp.WithDescription("List the pages of the study guide with their routes and titles."),
	mcp.WithString("prefix",
		mcp.Description("Only list pages whose route starts with this prefix, e.g. /zh/ or /basic-components/"),
	),
)

// readPageTool defines the read_page MCP tool.
var readPageTool = mcp.NewTool("read_page",
	mcp.WithDescription("Get the markdown source of a guide page."),
	mcp.WithString("page",
		mcp.Required(),
		mcp.Description("Route (/basic-components/button) or file path relative to the content root (basic-components/button.md)"),
	),
)

// searchGuideTool defines the search_guide MCP tool.
var searchGuideTool = mcp.NewTool("search_guide",
	mcp.WithDescription("Search the study guide by keyword. Returns matching pages ranked by relevance."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Words to look for in titles, summaries and page text"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
)
