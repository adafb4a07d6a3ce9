// Package mcpserver exposes controller commands as Model Context Protocol
// tools over stdio, so an assistant can manage jobs on the user's behalf.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/pokeme/internal/control"
	"github.com/flemzord/pokeme/internal/store"
)

// Commands is the controller surface exposed as tools.
type Commands interface {
	Add(ctx context.Context, req control.AddRequest) (control.Result, error)
	Remove(ctx context.Context, name string) (control.Result, error)
	ToggleSound(ctx context.Context, name string) (control.Result, error)
	Refresh(ctx context.Context) error
	Status(ctx context.Context) (control.Status, error)
	List(ctx context.Context, head int) ([]store.Job, error)
}

// Server holds the MCP server and its command backend.
type Server struct {
	cmds   Commands
	server *server.MCPServer
}

// New creates a server with every tool registered.
func New(cmds Commands, version string) *Server {
	s := &Server{
		cmds:   cmds,
		server: server.NewMCPServer("pokeme", version, server.WithToolCapabilities(true)),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks serving requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.server)
}

func (s *Server) registerTools() {
	s.server.AddTool(mcp.NewTool("list_jobs",
		mcp.WithDescription("List scheduled notification jobs, newest first"),
		mcp.WithNumber("head", mcp.Description("Return only the most recent N jobs")),
	), s.handleList)

	s.server.AddTool(mcp.NewTool("add_job",
		mcp.WithDescription("Schedule a recurring desktop notification"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Unique job name")),
		mcp.WithString("cron", mcp.Required(),
			mcp.Description("6-field cron expression: second minute hour day month weekday"),
		),
		mcp.WithString("message", mcp.Description("Notification body")),
		mcp.WithBoolean("sound", mcp.Description("Play a sound with the notification (default: false)")),
	), s.handleAdd)

	s.server.AddTool(mcp.NewTool("remove_job",
		mcp.WithDescription("Delete a scheduled job by name"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Job name")),
	), s.handleRemove)

	s.server.AddTool(mcp.NewTool("toggle_sound",
		mcp.WithDescription("Flip the sound setting of a job"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Job name")),
	), s.handleToggleSound)

	s.server.AddTool(mcp.NewTool("refresh",
		mcp.WithDescription("Ask the running service to reload its jobs"),
	), s.handleRefresh)

	s.server.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Report whether the notification service is running"),
	), s.handleStatus)
}

type jobView struct {
	Name     string `json:"name"`
	Schedule string `json:"cron"`
	Message  string `json:"message,omitempty"`
	Sound    bool   `json:"sound"`
	Created  string `json:"created"`
}

func (s *Server) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	head := req.GetInt("head", 0)
	jobs, err := s.cmds.List(ctx, head)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list jobs: %v", err)), nil
	}
	if len(jobs) == 0 {
		return mcp.NewToolResultText("No jobs scheduled yet"), nil
	}

	views := make([]jobView, len(jobs))
	for i, j := range jobs {
		views[i] = jobView{
			Name:     j.Name,
			Schedule: j.Schedule,
			Message:  j.Message,
			Sound:    j.SoundEnabled,
			Created:  j.CreatedAt.Format("2006-01-02 15:04"),
		}
	}
	return jsonResult(views)
}

func (s *Server) handleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	schedule, err := req.RequireString("cron")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.cmds.Add(ctx, control.AddRequest{
		Name:         name,
		Schedule:     schedule,
		Message:      req.GetString("message", ""),
		SoundEnabled: req.GetBool("sound", false),
	})
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}
	return mcp.NewToolResultText(withNote(fmt.Sprintf("Job %q added", res.Job.Name), res.Note)), nil
}

func (s *Server) handleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.cmds.Remove(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}
	return mcp.NewToolResultText(withNote(fmt.Sprintf("Job %q removed", name), res.Note)), nil
}

func (s *Server) handleToggleSound(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.cmds.ToggleSound(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}
	state := "OFF"
	if res.Sound {
		state = "ON"
	}
	return mcp.NewToolResultText(withNote(fmt.Sprintf("Sound toggled to %s for job %q", state, name), res.Note)), nil
}

func (s *Server) handleRefresh(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.cmds.Refresh(ctx); err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}
	return mcp.NewToolResultText("Service refresh signal sent"), nil
}

func (s *Server) handleStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.cmds.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}
	return jsonResult(st)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcpserver: encode result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func withNote(msg, note string) string {
	if note == "" {
		return msg
	}
	return msg + "\nNote: " + note
}

// describe turns controller errors into user-facing tool errors.
func describe(err error) string {
	switch {
	case errors.Is(err, store.ErrDuplicateName):
		return "A job with that name already exists"
	case errors.Is(err, store.ErrNotFound):
		return "No job with that name"
	case errors.Is(err, control.ErrNotRunning):
		return "The notification service is not running"
	default:
		return err.Error()
	}
}
