// Package mcp exposes the training log to LLM clients as MCP tools and resources.
package mcp

import (
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog strength training log. Sessions carry a total load (effective weight × effective reps × sets) used for rankings and progress. Exercises can be referenced by id or by title."),
	)

	h := &handlers{ds: ds, log: log, now: time.Now, loc: dataLocation(ds)}

	s.AddTools(
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolPreviewLoad, Handler: h.previewLoad},
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
		server.ServerTool{Tool: toolGetTopSessions, Handler: h.getTopSessions},
		server.ServerTool{Tool: toolGetLoadSeries, Handler: h.getLoadSeries},
		server.ServerTool{Tool: toolGetSummary, Handler: h.getSummary},
	)

	s.AddResources(
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
		server.ServerResource{Resource: resWeeklyPlan, Handler: h.weeklyPlan},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
	now func() time.Time
	// loc is the zone date-only arguments are read in.
	loc *time.Location
}

// dataLocation returns the zone of a data source that reports one, such as
// a local service, and time.Local otherwise.
func dataLocation(ds DataSource) *time.Location {
	if l, ok := ds.(interface{ Location() *time.Location }); ok && l.Location() != nil {
		return l.Location()
	}
	return time.Local
}

// --- Resource definitions ---

var resExerciseCatalog = mcp.NewResource(
	"liftlog://exercises",
	"Exercise Catalog",
	mcp.WithResourceDescription("Every exercise with its type and bodyweight percentage"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"liftlog://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Sessions logged in the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resWeeklyPlan = mcp.NewResource(
	"liftlog://plan",
	"Weekly Plan",
	mcp.WithResourceDescription("Planned exercises per weekday with rep ranges and sets"),
	mcp.WithMIMEType("application/json"),
)
