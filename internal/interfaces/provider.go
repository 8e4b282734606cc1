package interfaces

import (
	"context"
	"time"
)

// TaskType classifies a model request for provider routing
type TaskType string

const (
	TaskTypeSearch     TaskType = "search"
	TaskTypeSummarize  TaskType = "summarize"
	TaskTypeAnalyze    TaskType = "analyze"
	TaskTypeClassify   TaskType = "classify"
	TaskTypeExtract    TaskType = "extract"
	TaskTypeCodeGen    TaskType = "code-gen"
	TaskTypeMultimodal TaskType = "multimodal"
)

// CompletionRequest is a single-prompt model request. Provider, when set,
// overrides task routing: that provider is used exclusively if it is
// available. Timeout bounds each provider attempt; zero means the
// orchestrator default.
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	Provider     string
	Timeout      time.Duration
}

// CompletionResponse carries the provider's text answer plus attribution
type CompletionResponse struct {
	Text     string
	Provider string
	Model    string
}

// Provider defines one AI vendor client. Available must be cheap: it reports
// configuration presence, not network reachability.
type Provider interface {
	// Name returns the stable provider identifier used in routing tables
	Name() string

	// Available reports whether the provider is configured with credentials
	Available() bool

	// Complete sends a single-prompt request and returns the text response
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// PreviousResponsePlaceholder is the template marker a collaboration step
// replaces with the preceding step's response text.
const PreviousResponsePlaceholder = "{previous_response}"

// CollaborationStep is one stage of a collaboration pipeline: the template
// is formatted with the previous step's output and routed by task type.
type CollaborationStep struct {
	Task     TaskType
	Template string
}

// Orchestrator routes task-typed requests across providers with fallback
type Orchestrator interface {
	// Request tries providers in task preference order until one succeeds
	Request(ctx context.Context, task TaskType, req *CompletionRequest) (*CompletionResponse, error)

	// RequestParallel fans the same request out to multiple providers and
	// returns every successful response. With no provider names it uses
	// all available providers. Individual failures are logged and dropped,
	// never surfaced.
	RequestParallel(ctx context.Context, req *CompletionRequest, providers ...string) []*CompletionResponse

	// Collaborate runs a multi-step pipeline where each step's template is
	// formatted with the previous step's response and routed by its task
	// type. All step responses are returned in order.
	Collaborate(ctx context.Context, initialPrompt string, steps []CollaborationStep, req *CompletionRequest) ([]*CompletionResponse, error)

	// AvailableProviders lists the names of configured providers
	AvailableProviders() []string
}
