package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameAuditPath   = "audit_path"
	ToolNameAuditSource = "audit_source"
	ToolNamePolicyShow  = "policy_show"
)

// MaxSourceInputBytes is the maximum allowed size for inline source input (1 MiB).
const MaxSourceInputBytes = 1 << 20

// Sentinel errors for tool input validation.
var (
	// ErrEmptySource indicates the source parameter is empty.
	ErrEmptySource = errors.New("source parameter is required and must not be empty")
	// ErrSourceTooLarge indicates the inline source exceeds the size limit.
	ErrSourceTooLarge = errors.New("source input exceeds maximum size")
	// ErrEmptyTarget indicates the target parameter is empty.
	ErrEmptyTarget = errors.New("target parameter is required and must not be empty")
	// ErrTargetNotAbsolute indicates the target is not an absolute path.
	ErrTargetNotAbsolute = errors.New("target must be an absolute path")
	// ErrTargetNotFound indicates the target path does not exist.
	ErrTargetNotFound = errors.New("target path does not exist")
)

// Input types (auto-generate JSON schemas via struct tags).

// AuditPathInput is the input schema for the audit_path tool.
type AuditPathInput struct {
	Target string `json:"target"           jsonschema:"absolute path to a Python file or project directory"`
	Config string `json:"config,omitempty" jsonschema:"optional explicit policy file path, bypasses discovery"`
}

// AuditSourceInput is the input schema for the audit_source tool.
type AuditSourceInput struct {
	Source   string `json:"source"             jsonschema:"Python source text to audit"`
	Filename string `json:"filename,omitempty" jsonschema:"display name for the snippet in the report (default inline.py)"`
}

// PolicyShowInput is the input schema for the policy_show tool.
type PolicyShowInput struct {
	Target string `json:"target"           jsonschema:"absolute path whose effective policy to resolve"`
	Config string `json:"config,omitempty" jsonschema:"optional explicit policy file path, bypasses discovery"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateTarget checks common target path constraints. Relative paths are
// rejected because the server's working directory is not the caller's.
func validateTarget(target string) error {
	if target == "" {
		return ErrEmptyTarget
	}

	if !filepath.IsAbs(target) {
		return fmt.Errorf("%w: %s", ErrTargetNotAbsolute, target)
	}

	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, target)
	}

	return nil
}

// validateSource checks inline source constraints.
func validateSource(source string) error {
	if source == "" {
		return ErrEmptySource
	}

	if len(source) > MaxSourceInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrSourceTooLarge, len(source), MaxSourceInputBytes)
	}

	return nil
}
