package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with all archmirror tools registered.
func NewServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "archmirror",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "scan_tree",
		Description: "Scan the tracked directory tree, rebuilding the relationship graph and the content mirror. Reports node and relationship counts per kind.",
	}, svc.ScanTree)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_paths",
		Description: "Bring specific files or directories in sync with the filesystem. Incremental by default, using content hashes to detect modified, new, and deleted files; force rebuilds unconditionally.",
	}, svc.SyncPaths)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_node",
		Description: "Look up one graph node by id at a chosen detail level.",
	}, svc.GetNode)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_nodes",
		Description: "List every graph node of one kind (file, directory, function, class, method, feature) at a chosen detail level.",
	}, svc.QueryNodes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_relationships",
		Description: "List a node's relationships, outgoing and/or incoming, at a chosen detail level.",
	}, svc.GetRelationships)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_mirrored_content",
		Description: "Read the mirrored structural record of one source file or directory at a chosen detail level.",
	}, svc.GetMirroredContent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_mirrors",
		Description: "List every source path currently tracked by the content mirror.",
	}, svc.ListMirrors)

	return server
}

// RunServer starts an HTTP server exposing the archmirror MCP tools.
func RunServer(ctx context.Context, svc *Service, addr string) error {
	server := NewServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
