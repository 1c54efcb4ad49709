package transport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/richard-senior/footytrends/internal/logger"
	"github.com/richard-senior/footytrends/pkg/protocol"
)

// StdioTransport reads JSON-RPC requests from one stream and writes
// newline-terminated responses to another
type StdioTransport struct {
	reader *bufio.Reader
	writer *bufio.Writer
}

// NewStdioTransport creates a new transport that uses stdin/stdout
func NewStdioTransport() *StdioTransport {
	return NewStreamTransport(os.Stdin, os.Stdout)
}

// NewStreamTransport creates a transport over arbitrary streams
func NewStreamTransport(r io.Reader, w io.Writer) *StdioTransport {
	return &StdioTransport{
		reader: bufio.NewReader(r),
		writer: bufio.NewWriter(w),
	}
}

// readMessage returns the bytes of the next complete top level JSON object.
// Clients are not required to send one message per line so objects are
// delimited by tracking brace depth outside string literals
func (t *StdioTransport) readMessage() ([]byte, error) {
	var data []byte
	var depth int
	var inString, escaped bool

	for {
		b, err := t.reader.ReadByte()
		if err != nil {
			if err == io.EOF && len(data) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		// skip whitespace and separators between messages
		if depth == 0 && b != '{' {
			continue
		}
		data = append(data, b)

		switch {
		case escaped:
			escaped = false
		case inString && b == '\\':
			escaped = true
		case b == '"':
			inString = !inString
		case inString:
		case b == '{':
			depth++
		case b == '}':
			depth--
			if depth == 0 {
				return data, nil
			}
		}
	}
}

// ReadRequest reads a JSON-RPC request from the input stream
func (t *StdioTransport) ReadRequest() (*protocol.JsonRpcRequest, error) {
	logger.Debug("Waiting for request on stdin...")

	data, err := t.readMessage()
	if err != nil {
		if err == io.EOF {
			logger.Info("Received EOF on stdin, client disconnected")
		} else {
			logger.Error("Error reading from stdin:", err)
		}
		return nil, err
	}
	logger.Debug("Received raw request:", string(data))

	request, err := protocol.ParseJsonRpcRequest(data)
	if err != nil {
		logger.Error("Failed to parse JSON-RPC request:", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return request, nil
}

// WriteResponse writes a JSON-RPC response as a single line
func (t *StdioTransport) WriteResponse(response *protocol.JsonRpcResponse) error {
	responseBytes, err := json.Marshal(response)
	if err != nil {
		logger.Error("Failed to marshal response:", err)
		return err
	}
	responseBytes = append(responseBytes, '\n')

	logger.Debug("Sending response:", string(responseBytes))

	if _, err := t.writer.Write(responseBytes); err != nil {
		logger.Error("Failed to write response:", err)
		return err
	}
	if err := t.writer.Flush(); err != nil {
		logger.Error("Failed to flush response:", err)
		return err
	}
	return nil
}
