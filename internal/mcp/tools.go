package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/logbook"
	"github.com/claude/liftlog/internal/progress"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns the range between start and end, defaulting to
// the last days days. Date-only values are calendar days in loc, and a
// date-only end covers its whole day.
func defaultTimeRange(startStr, endStr string, now time.Time, loc *time.Location, days int) (progress.Range, error) {
	var r progress.Range

	if endStr != "" {
		end, dateOnly, err := parseFlexTime(endStr, loc)
		if err != nil {
			return r, err
		}
		if dateOnly {
			end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		r.End = end
	} else {
		r.End = now
	}

	if startStr != "" {
		start, _, err := parseFlexTime(startStr, loc)
		if err != nil {
			return r, err
		}
		r.Start = start
	} else {
		r.Start = r.End.AddDate(0, 0, -days)
	}

	if r.Start.After(r.End) {
		return r, fmt.Errorf("start %s is after end %s", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
	return r, nil
}

func parseFlexTime(s string, loc *time.Location) (time.Time, bool, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, false, nil
	}
	t, err = time.ParseInLocation(time.DateOnly, s, loc)
	if err == nil {
		return t, true, nil
	}
	return time.Time{}, false, err
}

// resolveExercise accepts an exercise id or a case-insensitive title. An
// empty reference means every exercise.
func (h *handlers) resolveExercise(ctx context.Context, ref string) (uuid.UUID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return uuid.Nil, nil
	}
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	exercises, err := h.ds.ListExercises(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	for _, ex := range exercises {
		if strings.EqualFold(ex.Title, ref) {
			return ex.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("no exercise named %q", ref)
}

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}

// --- Tool definitions ---

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List every exercise with its id, type (weight or bodyweight) and bodyweight percentage."),
)

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("Query logged sessions, newest first. Each session has reps (complete, negative, failed), sets, weight, rest time and its computed total load."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Exercise id or title. Defaults to all exercises.")),
)

var toolPreviewLoad = mcp.NewTool("preview_load",
	mcp.WithDescription("Compute the total load a session would have without storing it. Negative reps count 0.7 and failed reps 0.6 of a complete rep; bodyweight exercises scale the weight by their percentage."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise id or title")),
	mcp.WithNumber("complete_reps", mcp.Description("Complete repetitions per set")),
	mcp.WithNumber("negative_reps", mcp.Description("Negative-only repetitions per set")),
	mcp.WithNumber("failed_reps", mcp.Description("Failed repetitions per set")),
	mcp.WithNumber("sets", mcp.Description("Number of sets. Defaults to 1.")),
	mcp.WithNumber("weight", mcp.Description("Weight in kg (bodyweight for bodyweight exercises)")),
)

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Percent change of total load between the first and last session in a range, per exercise."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Exercise id or title. Defaults to all exercises with sessions.")),
)

var toolGetTopSessions = mcp.NewTool("get_top_sessions",
	mcp.WithDescription("Rank sessions by total load, highest first, with the improvement of each entry over the next one."),
	mcp.WithString("exercise", mcp.Description("Exercise id or title. Defaults to all exercises.")),
	mcp.WithString("period", mcp.Description("Trailing window. Defaults to all."), mcp.Enum("2d", "7d", "15d", "30d", "90d", "all")),
	mcp.WithNumber("limit", mcp.Description("Maximum entries. Defaults to the server's configured top count.")),
	mcp.WithBoolean("records_only", mcp.Description("Only sessions that qualify as records (few sets, short rest).")),
)

var toolGetLoadSeries = mcp.NewTool("get_load_series",
	mcp.WithDescription("Total load summed per day, week or month, oldest first."),
	mcp.WithString("exercise", mcp.Description("Exercise id or title. Defaults to all exercises.")),
	mcp.WithString("period", mcp.Description("Trailing window. Defaults to 90d."), mcp.Enum("2d", "7d", "15d", "30d", "90d", "all")),
	mcp.WithString("bucket", mcp.Description("Grouping. Defaults to week."), mcp.Enum("day", "week", "month")),
)

var toolGetSummary = mcp.NewTool("get_summary",
	mcp.WithDescription("All-time overview: session count, total load, favorite exercise, training streaks and per-exercise totals."),
)

// --- Tool handlers ---

func (h *handlers) listExercises(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.ds.ListExercises(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(exercises), nil
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rng, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), h.now(), h.loc, 30)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	exerciseID, err := h.resolveExercise(ctx, req.GetString("exercise", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sessions, err := h.ds.ListSessions(ctx, rng, exerciseID)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(sessions), nil
}

func (h *handlers) previewLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	exerciseID, err := h.resolveExercise(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := h.ds.Preview(ctx, logbook.SessionForm{
		ExerciseID:   exerciseID,
		CompleteReps: req.GetInt("complete_reps", 0),
		NegativeReps: req.GetInt("negative_reps", 0),
		FailedReps:   req.GetInt("failed_reps", 0),
		Sets:         req.GetInt("sets", 1),
		Weight:       req.GetFloat("weight", 0),
	})
	if err != nil {
		h.log.Error("mcp preview_load", "error", err)
		return mcp.NewToolResultError("preview failed: " + err.Error()), nil
	}
	return jsonResult(res), nil
}

func (h *handlers) getProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rng, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), h.now(), h.loc, 30)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	exerciseID, err := h.resolveExercise(ctx, req.GetString("exercise", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := h.ds.Progress(ctx, rng, exerciseID)
	if err != nil {
		h.log.Error("mcp get_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(result), nil
}

func (h *handlers) getTopSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	period, err := progress.ParsePeriod(req.GetString("period", "all"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	exerciseID, err := h.resolveExercise(ctx, req.GetString("exercise", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ranked, err := h.ds.Top(ctx, logbook.TopQuery{
		ExerciseID:  exerciseID,
		Period:      period,
		Limit:       req.GetInt("limit", 0),
		RecordsOnly: req.GetBool("records_only", false),
	})
	if err != nil {
		h.log.Error("mcp get_top_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(ranked), nil
}

func (h *handlers) getLoadSeries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	period, err := progress.ParsePeriod(req.GetString("period", "90d"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bucket, err := progress.ParseBucket(req.GetString("bucket", "week"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	exerciseID, err := h.resolveExercise(ctx, req.GetString("exercise", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	points, err := h.ds.Series(ctx, exerciseID, period, bucket, 0)
	if err != nil {
		h.log.Error("mcp get_load_series", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(points), nil
}

func (h *handlers) getSummary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.Stats(ctx)
	if err != nil {
		h.log.Error("mcp get_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats), nil
}
