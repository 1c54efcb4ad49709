package processor

import (
	"encoding/json"
	"fmt"

	"github.com/richard-senior/footytrends/internal/logger"
	"github.com/richard-senior/footytrends/pkg/protocol"
)

// Handler answers a single JSON-RPC request. *server.Server implements it
type Handler interface {
	HandleRequest(req *protocol.JsonRpcRequest) *protocol.JsonRpcResponse
}

// ProcessRequest handles one JSON-RPC request given as raw JSON and returns
// the indented response. Input that is not a valid request gets a parse
// error response rather than an error. Notifications produce no output
func ProcessRequest(h Handler, input []byte) ([]byte, error) {
	req, err := protocol.ParseJsonRpcRequest(input)
	if err != nil {
		logger.Error("Failed to parse input JSON", err)
		return json.MarshalIndent(protocol.NewJsonRpcErrorResponse(protocol.ErrParse,
			fmt.Sprintf("Invalid request: %v", err), nil, nil), "", "  ")
	}

	logger.Info("Processing request", req.Method)
	resp := h.HandleRequest(req)
	if resp == nil {
		return nil, nil
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return out, nil
}

// ToolCall builds the raw tools/call request for name with args, for callers
// that start from command line words rather than JSON
func ToolCall(id any, name string, args map[string]any) ([]byte, error) {
	req, err := protocol.NewJsonRpcRequest(string(protocol.MethodToolsCall), map[string]any{
		"name":      name,
		"arguments": args,
	}, id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(req)
}
