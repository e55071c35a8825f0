// Package mcptools exposes the rating service as MCP tools over the
// streamable HTTP transport.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	service "github.com/okian/gridiron/internal/app"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/roster"
	"github.com/okian/gridiron/internal/domain/types"
	"github.com/okian/gridiron/pkg/logger"
	"github.com/okian/gridiron/pkg/metrics"
)

// Service is the subset of the rating service the tools call.
type Service interface {
	Teams() []string
	PredictWithContext(ctx context.Context, req service.PredictRequest) (service.Prediction, error)
	Retune(ctx context.Context, mode model.Mode) (model.Task, error)
	Task(ctx context.Context, id string) (model.Task, error)
	Tasks(ctx context.Context) []model.Task
	Strength(ctx context.Context, code string, season, week int, refresh bool) (roster.Result, error)
	LeagueStrength(ctx context.Context, season, week int, refresh bool) (service.LeagueStrength, error)
	Rankings(ctx context.Context) ([]types.Entry, error)
}

// Tool argument shapes.
type (
	NoArgs struct{}

	PredictArgs struct {
		Home   string `json:"home" jsonschema:"Home team code, e.g. KC"`
		Away   string `json:"away" jsonschema:"Away team code, e.g. BUF"`
		Season int    `json:"season,omitempty" jsonschema:"Season for roster context (optional)"`
		Week   int    `json:"week,omitempty" jsonschema:"Week for roster context (optional)"`
	}

	RetuneArgs struct {
		Mode string `json:"mode,omitempty" jsonschema:"quick or full (default quick)"`
	}

	RetuneStatusArgs struct {
		TaskID string `json:"task_id,omitempty" jsonschema:"Task id; empty lists every task"`
	}

	StrengthArgs struct {
		Team   string `json:"team,omitempty" jsonschema:"Team code; empty returns the whole league normalized"`
		Season int    `json:"season" jsonschema:"Season"`
		Week   int    `json:"week" jsonschema:"Week"`
	}
)

// ToolNames lists the registered tools in registration order.
var ToolNames = []string{"teams", "predict", "retune", "retune_status", "strength", "rankings"}

// Version is reported to MCP clients.
const Version = "1.0.0"

// NewServer registers every tool against svc.
func NewServer(svc Service, log logger.Logger) *mcp.Server {
	if log == nil {
		log = logger.Nop()
	}
	server := mcp.NewServer(&mcp.Implementation{Name: "gridiron", Version: Version}, nil)

	addTool(server, log, &mcp.Tool{
		Name:        "teams",
		Description: "List the 32 team codes the model rates",
	}, func(ctx context.Context, _ NoArgs) (any, error) {
		return map[string]any{"teams": svc.Teams()}, nil
	})

	addTool(server, log, &mcp.Tool{
		Name:        "predict",
		Description: "Home win probability and point spread for a matchup, with optional roster strength for a season week",
	}, func(ctx context.Context, args PredictArgs) (any, error) {
		return svc.PredictWithContext(ctx, service.PredictRequest{
			Home:   args.Home,
			Away:   args.Away,
			Season: args.Season,
			Week:   args.Week,
		})
	})

	addTool(server, log, &mcp.Tool{
		Name:        "retune",
		Description: "Start a background tuning run; only one runs at a time",
	}, func(ctx context.Context, args RetuneArgs) (any, error) {
		task, err := svc.Retune(ctx, model.ParseMode(args.Mode))
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "retune_started", "task_id": task.ID, "mode": task.Mode}, nil
	})

	addTool(server, log, &mcp.Tool{
		Name:        "retune_status",
		Description: "Status of one tuning task, or every task when no id is given",
	}, func(ctx context.Context, args RetuneStatusArgs) (any, error) {
		if args.TaskID == "" {
			return map[string]any{"tasks": svc.Tasks(ctx)}, nil
		}
		return svc.Task(ctx, args.TaskID)
	})

	addTool(server, log, &mcp.Tool{
		Name:        "strength",
		Description: "Roster strength of a team for a season week, or the whole league normalized",
	}, func(ctx context.Context, args StrengthArgs) (any, error) {
		if args.Season <= 0 || args.Week <= 0 {
			return nil, fmt.Errorf("season and week are required")
		}
		if args.Team == "" {
			return svc.LeagueStrength(ctx, args.Season, args.Week, false)
		}
		return svc.Strength(ctx, args.Team, args.Season, args.Week, false)
	})

	addTool(server, log, &mcp.Tool{
		Name:        "rankings",
		Description: "Teams ordered by current rating",
	}, func(ctx context.Context, _ NoArgs) (any, error) {
		r, err := svc.Rankings(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"rankings": r}, nil
	})

	return server
}

// Handler serves server over streamable HTTP with JSON responses.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func addTool[T any](server *mcp.Server, log logger.Logger, tool *mcp.Tool, fn func(context.Context, T) (any, error)) {
	mcp.AddTool(server, tool, func(ctx context.Context, _ *mcp.CallToolRequest, args T) (*mcp.CallToolResult, any, error) {
		out, err := fn(ctx, args)
		if err != nil {
			metrics.RecordErrorByComponent("mcp", tool.Name)
			log.Debug(ctx, "tool failed", logger.String("tool", tool.Name), logger.Error(err))
			return toolError(err), nil, nil
		}
		b, err := json.Marshal(out)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(b), nil, nil
	})
}

func toolJSON(b []byte) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
