// Package mcp provides an MCP (Model Context Protocol) server for ptree.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/juanibiapina/ptree/internal/dispatch"
	"github.com/juanibiapina/ptree/internal/telemetry"
	"github.com/juanibiapina/ptree/internal/tree"
)

type toolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Server wraps the MCP server with ptree-specific functionality.
type Server struct {
	mcpServer  *server.MCPServer
	tree       *tree.Engine
	dispatcher *dispatch.Dispatcher
	handlers   map[string]toolHandler
}

// NewServer creates a new MCP server answering from engine and signalling
// through d.
func NewServer(version string, engine *tree.Engine, d *dispatch.Dispatcher) *Server {
	s := &Server{
		tree:       engine,
		dispatcher: d,
		handlers:   make(map[string]toolHandler),
	}

	s.mcpServer = server.NewMCPServer(
		"ptree",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.registerTools()

	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// ListToolNames returns the registered tool names, sorted.
func (s *Server) ListToolNames() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) registerTools() {
	s.registerPIDQuery("ptree_children", "List direct children of a process", s.tree.DirectChildren)
	s.registerPIDQuery("ptree_siblings", "List processes sharing the parent of a process", s.tree.Siblings)
	s.registerPIDQuery("ptree_zombie_siblings", "List zombie processes sharing the parent of a process", s.tree.ZombieSiblings)
	s.registerPIDQuery("ptree_descendants", "List every descendant of a process", s.tree.Descendants)
	s.registerPIDQuery("ptree_non_direct", "List descendants of a process that are not its direct children", s.tree.NonDirectDescendants)
	s.registerPIDQuery("ptree_zombies", "List zombie descendants of a process", s.tree.ZombieDescendants)
	s.registerPIDQuery("ptree_grandchildren", "List children of the children of a process", s.tree.Grandchildren)
	s.registerZombieCount()
	s.registerStatus()

	s.registerDispatch("ptree_stop", "Send SIGSTOP to every descendant of a process", s.dispatcher.Stop)
	s.registerDispatch("ptree_continue", "Send SIGCONT to every stopped descendant of a process", s.dispatcher.Continue)
	s.registerDispatch("ptree_kill", "Send SIGKILL to every descendant of a process, then once more to any that were missed", s.dispatcher.Kill)
	s.registerDispatch("ptree_kill_zombie_parents", "Send SIGKILL to the parent of every zombie descendant of a process", s.dispatcher.KillZombieParents)
	s.registerKillRoot()
}

func (s *Server) addTool(tool mcp.Tool, handler toolHandler) {
	name := tool.Name
	wrapped := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		telemetry.MCPToolCall(name)
		return handler(ctx, request)
	}
	s.handlers[name] = wrapped
	s.mcpServer.AddTool(tool, wrapped)
}

// newPIDTool declares a tool taking the root_pid/pid pair every ptree
// command takes.
func newPIDTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithNumber("root_pid",
			mcp.Required(),
			mcp.Description("PID of the root of the tree; pid must be inside it"),
		),
		mcp.WithNumber("pid",
			mcp.Required(),
			mcp.Description("PID of the process to operate on"),
		),
	)
}

// gate validates the root_pid/pid pair. A non-nil result ends the call.
func (s *Server) gate(request mcp.CallToolRequest) (int, *mcp.CallToolResult) {
	root, err := request.RequireInt("root_pid")
	if err != nil {
		return 0, mcp.NewToolResultError(err.Error())
	}
	pid, err := request.RequireInt("pid")
	if err != nil {
		return 0, mcp.NewToolResultError(err.Error())
	}
	if root <= 0 || pid <= 0 {
		return 0, mcp.NewToolResultError("root_pid and pid must be positive")
	}

	err = s.tree.Check(root, pid)
	switch {
	case errors.Is(err, tree.ErrRootNotFound):
		return 0, mcp.NewToolResultError(fmt.Sprintf("root process %d does not exist or is inaccessible", root))
	case errors.Is(err, tree.ErrNotInTree):
		result, _ := jsonResult(map[string]any{
			"in_tree": false,
			"notice":  fmt.Sprintf("process %d does not belong to the tree rooted at %d", pid, root),
		})
		return 0, result
	case err != nil:
		return 0, mcp.NewToolResultError(err.Error())
	}
	return pid, nil
}

// jsonResult marshals a result to JSON and returns a tool result.
func jsonResult(result any) (*mcp.CallToolResult, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) registerPIDQuery(name, description string, query func(int) ([]int, error)) {
	s.addTool(newPIDTool(name, description), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pid, stop := s.gate(request)
		if stop != nil {
			return stop, nil
		}

		pids, err := query(pid)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if pids == nil {
			pids = []int{}
		}
		return jsonResult(map[string]any{"pid": pid, "pids": pids})
	})
}

func (s *Server) registerZombieCount() {
	tool := newPIDTool("ptree_zombie_count", "Count zombie processes in the tree of a process, including the process itself")

	s.addTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pid, stop := s.gate(request)
		if stop != nil {
			return stop, nil
		}

		count, err := s.tree.ZombieDescendantCount(pid)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{"pid": pid, "count": count})
	})
}

func (s *Server) registerStatus() {
	tool := newPIDTool("ptree_status", "Report whether a process is defunct (zombie)")

	s.addTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pid, stop := s.gate(request)
		if stop != nil {
			return stop, nil
		}

		rec, ok := s.tree.Lookup(pid)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("process %d does not exist or is inaccessible", pid)), nil
		}
		return jsonResult(map[string]any{
			"pid":     rec.PID,
			"ppid":    rec.PPID,
			"state":   rec.State.String(),
			"defunct": rec.IsZombie(),
		})
	})
}

type failureJSON struct {
	PID    int    `json:"pid"`
	Zombie int    `json:"zombie,omitempty"`
	Error  string `json:"error"`
}

type signalJSON struct {
	PID    int `json:"pid"`
	Zombie int `json:"zombie,omitempty"`
}

func (s *Server) registerDispatch(name, description string, op func(int) (*dispatch.Report, error)) {
	s.addTool(newPIDTool(name, description), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pid, stop := s.gate(request)
		if stop != nil {
			return stop, nil
		}

		report, err := op(pid)
		if report == nil {
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			report = &dispatch.Report{}
		}
		result := reportJSON(pid, report)
		if err == nil {
			return jsonResult(result)
		}
		result["error"] = err.Error()
		res, _ := jsonResult(result)
		res.IsError = true
		return res, nil
	})
}

func reportJSON(pid int, report *dispatch.Report) map[string]any {
	signaled := []signalJSON{}
	failed := []failureJSON{}
	for _, o := range report.Outcomes {
		if o.Err != nil {
			failed = append(failed, failureJSON{PID: o.PID, Zombie: o.Zombie, Error: o.Err.Error()})
			continue
		}
		signaled = append(signaled, signalJSON{PID: o.PID, Zombie: o.Zombie})
	}
	skipped := report.Skipped
	if skipped == nil {
		skipped = []int{}
	}
	return map[string]any{
		"pid":        pid,
		"signaled":   signaled,
		"failed":     failed,
		"skipped":    skipped,
		"reconciled": report.Reconciled(),
		"overflow":   report.Overflow,
	}
}

func (s *Server) registerKillRoot() {
	tool := newPIDTool("ptree_kill_root", "Send SIGKILL to the root process only")

	s.addTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if _, stop := s.gate(request); stop != nil {
			return stop, nil
		}
		root, _ := request.RequireInt("root_pid")

		if err := s.dispatcher.KillRoot(root); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to kill root process %d: %v", root, err)), nil
		}
		return jsonResult(map[string]any{"pid": root, "killed": true})
	})
}
