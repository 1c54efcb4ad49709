package protocol

import "encoding/base64"

type ToolProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

type InputSchema struct {
	Type                 string                  `json:"type"`
	Properties           map[string]ToolProperty `json:"properties,omitempty"`
	Required             []string                `json:"required"`
	AdditionalProperties bool                    `json:"additionalProperties"`
}

// Tool describes an invocable tool in a tools/list response
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// Resource is a read-only document the client may fetch with resources/read
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContents is one entry of a resources/read result
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

// Content types for tool results
const (
	ContentText  = "text"
	ContentImage = "image"
)

// Content is a single block of a tools/call result
type Content struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// ToolResult is the result of a tools/call. User facing failures (team not
// found, missing keys) are reported with IsError set rather than as JSON-RPC
// errors so the client shows them as text
type ToolResult struct {
	Content           []Content `json:"content"`
	StructuredContent any       `json:"structuredContent,omitempty"`
	IsError           bool      `json:"isError,omitempty"`
}

// TextContent builds a text block
func TextContent(text string) Content {
	return Content{Type: ContentText, Text: text}
}

// ImageContent builds a base64 image block
func ImageContent(data []byte, mimeType string) Content {
	return Content{
		Type:     ContentImage,
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}
}

// NewToolResult builds a successful result from text blocks
func NewToolResult(texts ...string) *ToolResult {
	r := &ToolResult{}
	for _, t := range texts {
		r.Content = append(r.Content, TextContent(t))
	}
	return r
}

// NewToolError builds a user visible failure result
func NewToolError(message string) *ToolResult {
	return &ToolResult{
		Content: []Content{TextContent(message)},
		IsError: true,
	}
}
