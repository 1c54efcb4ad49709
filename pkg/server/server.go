package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/richard-senior/footytrends/internal/logger"
	"github.com/richard-senior/footytrends/pkg/protocol"
	"github.com/richard-senior/footytrends/pkg/transport"
)

const (
	ServerName    = "footytrends"
	ServerVersion = "1.0.0"

	// used when the client does not say which protocol version it speaks
	defaultProtocolVersion = "2024-11-05"
)

// HandlerFunc is a function that handles an MCP request
type HandlerFunc func(params any) (any, error)

// ResourceReader serves resources/list and resources/read
type ResourceReader interface {
	Resources() []protocol.Resource
	Read(uri string) (protocol.ResourceContents, error)
}

// Server represents an MCP server
type Server struct {
	transport transport.Transport

	mu        sync.Mutex
	handlers  map[string]HandlerFunc
	tools     []protocol.Tool
	toolFuncs map[string]HandlerFunc
	resources ResourceReader
	stopping  bool
}

// NewServer creates a server reading from t with the built-in methods
// registered. Tools and resources are added by the caller
func NewServer(t transport.Transport) *Server {
	s := &Server{
		transport: t,
		handlers:  make(map[string]HandlerFunc),
		toolFuncs: make(map[string]HandlerFunc),
	}
	s.handlers[string(protocol.MethodInitialize)] = s.handleInitialize
	s.handlers[string(protocol.MethodPing)] = s.handlePing
	s.handlers[string(protocol.MethodToolsList)] = s.handleToolsList
	s.handlers[string(protocol.MethodToolsCall)] = s.handleToolsCall
	s.handlers[string(protocol.MethodResourcesList)] = s.handleResourcesList
	s.handlers[string(protocol.MethodResourcesRead)] = s.handleResourcesRead
	s.handlers[string(protocol.MethodShutdown)] = s.handleShutdown
	return s
}

// RegisterTool registers a tool with the server
func (s *Server) RegisterTool(tool protocol.Tool, handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, tool)
	s.toolFuncs[tool.Name] = handler
	logger.Info("Registered tool:", tool.Name)
}

// RegisterResources sets the source of resources/list and resources/read
func (s *Server) RegisterResources(r ResourceReader) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resources = r
	for _, res := range r.Resources() {
		logger.Info("Registered resource:", res.Name)
	}
}

// GetTools returns the list of registered tools
func (s *Server) GetTools() []protocol.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Tool(nil), s.tools...)
}

// Start processes requests until the client disconnects, a shutdown request
// arrives, ctx is cancelled or the process receives SIGINT/SIGTERM
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting MCP server")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start processing in a goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.ProcessRequests()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("Stopping:", ctx.Err())
		return nil
	}
}

// ProcessRequests reads and answers requests until the input ends. A request
// that cannot be parsed is answered with a parse error and the loop carries on
func (s *Server) ProcessRequests() error {
	for {
		req, err := s.transport.ReadRequest()
		if errors.Is(err, transport.ErrMalformedRequest) {
			if werr := s.transport.WriteResponse(protocol.NewJsonRpcErrorResponse(protocol.ErrParse, err.Error(), nil, nil)); werr != nil {
				return werr
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		// a nil response means none is required
		resp := s.HandleRequest(req)
		if resp != nil {
			if err := s.transport.WriteResponse(resp); err != nil {
				return err
			}
		}

		s.mu.Lock()
		stopping := s.stopping
		s.mu.Unlock()
		if stopping {
			logger.Info("Shutdown requested")
			return nil
		}
	}
}

// HandleRequest processes a request and returns a response, or nil for
// notifications
func (s *Server) HandleRequest(req *protocol.JsonRpcRequest) *protocol.JsonRpcResponse {
	logger.Info(">> ", req.Method)

	if req.IsNotification() || strings.HasPrefix(req.Method, "notifications/") {
		logger.Info("Received notification:", req.Method)
		return nil
	}

	s.mu.Lock()
	handler := s.handlers[req.Method]
	s.mu.Unlock()
	if handler == nil {
		return protocol.NewJsonRpcErrorResponse(protocol.ErrMethodNotFound,
			fmt.Sprintf("Method not found: %s", req.Method), nil, req.ID)
	}

	var params any
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return protocol.NewJsonRpcErrorResponse(protocol.ErrInvalidParams,
				"Invalid parameters: "+err.Error(), nil, req.ID)
		}
	}

	result, err := handler(params)
	if err != nil {
		var rpcErr *protocol.JsonRpcError
		if errors.As(err, &rpcErr) {
			return protocol.NewJsonRpcErrorResponse(rpcErr.Code, rpcErr.Message, rpcErr.Data, req.ID)
		}
		return protocol.NewJsonRpcErrorResponse(protocol.ErrToolExecutionFailed, err.Error(), nil, req.ID)
	}

	resp, err := protocol.NewJsonRpcResponse(result, req.ID)
	if err != nil {
		return protocol.NewJsonRpcErrorResponse(protocol.ErrInternal,
			"Failed to marshal result: "+err.Error(), nil, req.ID)
	}
	logger.Debug("Full response:", string(resp.Result))
	return resp
}

// decodeParams re-decodes generic params into a typed struct
func decodeParams(params any, dst any) error {
	b, err := json.Marshal(params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "Invalid parameters: " + err.Error()}
	}
	return nil
}

func (s *Server) handleInitialize(params any) (any, error) {
	var p struct {
		ProtocolVersion string `json:"protocolVersion"`
		ClientInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"clientInfo"`
	}
	if params != nil {
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
	}
	version := p.ProtocolVersion
	if version == "" {
		version = defaultProtocolVersion
	}
	logger.Info("Initialize from", p.ClientInfo.Name, p.ClientInfo.Version, "protocol", version)

	s.mu.Lock()
	defer s.mu.Unlock()
	capabilities := map[string]any{}
	if len(s.tools) > 0 {
		capabilities["tools"] = map[string]any{"listChanged": false}
	}
	if s.resources != nil {
		capabilities["resources"] = map[string]any{"listChanged": false, "subscribe": false}
	}

	return map[string]any{
		"protocolVersion": version,
		"capabilities":    capabilities,
		"serverInfo": map[string]string{
			"name":    ServerName,
			"version": ServerVersion,
		},
	}, nil
}

func (s *Server) handlePing(params any) (any, error) {
	return map[string]any{}, nil
}

func (s *Server) handleShutdown(params any) (any, error) {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()
	return map[string]any{}, nil
}

// handleToolsList handles the tools/list method
func (s *Server) handleToolsList(params any) (any, error) {
	return map[string]any{"tools": s.GetTools()}, nil
}

// handleToolsCall looks up the named tool and runs it with the call's arguments
func (s *Server) handleToolsCall(params any) (any, error) {
	var call struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := decodeParams(params, &call); err != nil {
		return nil, err
	}
	logger.Info("Tool call requested for:", call.Name)

	s.mu.Lock()
	handler := s.toolFuncs[call.Name]
	s.mu.Unlock()
	if handler == nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "Unknown tool: " + call.Name}
	}

	result, err := handler(call.Arguments)
	if err != nil {
		return nil, fmt.Errorf("tool execution failed: %w", err)
	}
	return result, nil
}

func (s *Server) handleResourcesList(params any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []protocol.Resource{}
	if s.resources != nil {
		list = s.resources.Resources()
	}
	return map[string]any{"resources": list}, nil
}

func (s *Server) handleResourcesRead(params any) (any, error) {
	var p struct {
		URI string `json:"uri"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	s.mu.Lock()
	reader := s.resources
	s.mu.Unlock()
	if reader == nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "Resource not found: " + p.URI}
	}
	contents, err := reader.Read(p.URI)
	if err != nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: err.Error()}
	}
	return map[string]any{"contents": []protocol.ResourceContents{contents}}, nil
}
