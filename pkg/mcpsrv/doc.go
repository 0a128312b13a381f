// Package mcpsrv provides an extensible MCP server for federated cohort
// summaries.
//
// This package exposes a high-level API for creating and running an MCP
// server with all builtin fedsum tools. Users can extend the server with
// custom tools using functional options.
//
// # Basic Usage
//
// Create a server for two cohort servers:
//
//	alspac := opal.New("alspac", "https://opal.alspac.example.org",
//	    opal.WithToken(os.Getenv("FEDSUM_TOKEN_ALSPAC")))
//	ninfea := opal.New("ninfea", "https://opal.ninfea.example.org")
//
//	server, err := mcpsrv.NewServer([]*opal.Client{alspac, ninfea})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// # Extension
//
// Add custom tools using MCP SDK types directly:
//
//	import mcp "github.com/modelcontextprotocol/go-sdk/mcp"
//
//	type MyInput struct {
//	    Variable string `json:"variable"`
//	}
//
//	type MyOutput struct {
//	    Count int `json:"count"`
//	}
//
//	func myHandler(ctx context.Context, req *mcp.CallToolRequest, input MyInput) (*mcp.CallToolResult, MyOutput, error) {
//	    return nil, MyOutput{Count: 42}, nil
//	}
//
//	server, err := mcpsrv.NewServer(cohorts,
//	    mcpsrv.WithTool(&mcp.Tool{Name: "my_tool", Description: "My tool"}, myHandler),
//	)
//
// # Configuration
//
// Configure logging and other options:
//
//	server, err := mcpsrv.NewServer(cohorts,
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/fedsum-mcp.log"),
//	)
package mcpsrv
