package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/archgate/pkg/policy"
)

// policyView is the JSON shape of a resolved policy. Source is empty when the
// built-in defaults applied.
type policyView struct {
	Source              string   `json:"source,omitempty"`
	MaxCC               int      `json:"max_cc"`
	ADFThreshold        float64  `json:"adf_threshold"`
	CCRThreshold        float64  `json:"ccr_threshold"`
	ProjectMaxCC        int      `json:"project_max_cc"`
	IllegalPatterns     []string `json:"illegal_patterns"`
	LegacyAPIPatterns   []string `json:"legacy_api_patterns"`
	ExcludedDirs        []string `json:"excluded_dirs"`
	ChurnWindowDays     int      `json:"churn_window_days"`
	ChurnTimeoutSeconds int      `json:"churn_timeout_seconds"`
	ChurnBaseline       int      `json:"churn_baseline"`
	Workers             int      `json:"workers"`
}

// handlePolicyShow processes policy_show tool calls.
func (s *Server) handlePolicyShow(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input PolicyShowInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateTarget(input.Target); err != nil {
		return errorResult(err)
	}

	pol, err := policy.Load(input.Config, input.Target, s.logger)
	if err != nil {
		return errorResult(fmt.Errorf("load policy: %w", err))
	}

	return jsonResult(policyView{
		Source:              pol.Source,
		MaxCC:               pol.MaxCC,
		ADFThreshold:        pol.ADFThreshold,
		CCRThreshold:        pol.CCRThreshold,
		ProjectMaxCC:        pol.ProjectMaxCC,
		IllegalPatterns:     pol.IllegalPatterns,
		LegacyAPIPatterns:   pol.LegacyAPIPatterns,
		ExcludedDirs:        pol.ExcludedDirs,
		ChurnWindowDays:     pol.ChurnWindowDays,
		ChurnTimeoutSeconds: pol.ChurnTimeoutSeconds,
		ChurnBaseline:       pol.ChurnBaseline,
		Workers:             pol.Workers,
	})
}
