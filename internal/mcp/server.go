// Package mcp exposes the recipe catalog and execution engine as MCP tools
// so other agents can run recipes over the MCP protocol.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"recipe-runner/backend/internal/engine"
	"recipe-runner/backend/internal/repository"
	"recipe-runner/backend/internal/services"
	"recipe-runner/backend/pkg/models"
)

// Server bridges MCP tool calls to the recipe service and runner. Calls are
// scoped to the tenant owning defaultDomain; MCP clients act as agents of
// that tenant.
type Server struct {
	mcpServer     *server.MCPServer
	repo          repository.Repository
	recipes       *services.RecipeService
	runner        *engine.Runner
	defaultDomain string
}

// NewServer creates the MCP tool surface.
func NewServer(repo repository.Repository, recipes *services.RecipeService, runner *engine.Runner, defaultDomain string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Recipe Runner",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		repo:          repo,
		recipes:       recipes,
		runner:        runner,
		defaultDomain: defaultDomain,
	}

	s.registerTools()
	return s
}

// GetMCPServer returns the underlying MCP server for mounting.
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_recipes",
			mcp.WithDescription("List the recipes available to the tenant"),
		),
		s.handleListRecipes,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_recipe",
			mcp.WithDescription("Get a recipe definition, including its declared variables"),
			mcp.WithString("recipe_id", mcp.Required(), mcp.Description("The ID of the recipe")),
		),
		s.handleGetRecipe,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"execute_recipe",
			mcp.WithDescription("Execute a recipe with concrete variable values and return the run record"),
			mcp.WithString("recipe_id", mcp.Required(), mcp.Description("The ID of the recipe to execute")),
			mcp.WithObject("variables", mcp.Description("Values for the recipe's declared variables")),
		),
		s.handleExecuteRecipe,
	)
}

// tenant resolves the tenant MCP calls operate under.
func (s *Server) tenant(ctx context.Context) (*models.Tenant, error) {
	tenant, err := s.repo.GetTenantByDomain(ctx, s.defaultDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tenant for domain %q: %w", s.defaultDomain, err)
	}
	return tenant, nil
}

func (s *Server) handleListRecipes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tenant, err := s.tenant(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	recipes, err := s.recipes.List(ctx, tenant.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list recipes: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(recipes)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetRecipe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	recipeID, ok := args["recipe_id"].(string)
	if !ok || recipeID == "" {
		return mcp.NewToolResultError("Missing required parameter: recipe_id"), nil
	}

	tenant, err := s.tenant(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	recipe, err := s.recipes.Get(ctx, tenant.ID, recipeID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get recipe: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(recipe)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleExecuteRecipe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	recipeID, ok := args["recipe_id"].(string)
	if !ok || recipeID == "" {
		return mcp.NewToolResultError("Missing required parameter: recipe_id"), nil
	}

	values, _ := args["variables"].(map[string]interface{})
	if values == nil {
		values = map[string]interface{}{}
	}

	tenant, err := s.tenant(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	recipe, err := s.recipes.Get(ctx, tenant.ID, recipeID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get recipe: %v", err)), nil
	}

	identity := models.Identity{UserID: "mcp-client", Email: "mcp@" + tenant.Domain, Role: "agent"}

	// The MCP session stays responsive to cancellation while the run
	// executes on the async path.
	outcome := <-s.runner.ExecuteAsync(ctx, tenant, recipe, values, identity)
	if outcome.Err != nil {
		var verr *engine.ValidationError
		if errors.As(outcome.Err, &verr) {
			jsonBytes, _ := json.Marshal(verr.Errors)
			return mcp.NewToolResultError("Variable validation failed: " + string(jsonBytes)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to execute recipe: %v", outcome.Err)), nil
	}

	jsonBytes, _ := json.Marshal(outcome.Run)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MountHTTPHandlers mounts the MCP SSE endpoints on the given mux.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
