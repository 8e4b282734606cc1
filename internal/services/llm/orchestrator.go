package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/interfaces"
)

// defaultRequestTimeout bounds a single provider attempt when the request
// does not carry its own timeout.
const defaultRequestTimeout = 60 * time.Second

var (
	// ErrNoProviderAvailable means no configured provider serves the task
	ErrNoProviderAvailable = errors.New("no provider available for task")

	// ErrAllProvidersFailed means every candidate provider returned an error
	ErrAllProvidersFailed = errors.New("all providers failed")
)

// taskPreferences orders providers by fitness for each task type. Routing
// walks the list and skips unconfigured providers.
var taskPreferences = map[interfaces.TaskType][]string{
	interfaces.TaskTypeSearch:     {"perplexity", "openai"},
	interfaces.TaskTypeSummarize:  {"openai", "anthropic", "google"},
	interfaces.TaskTypeAnalyze:    {"anthropic", "openai", "google"},
	interfaces.TaskTypeClassify:   {"openai", "anthropic", "google"},
	interfaces.TaskTypeExtract:    {"anthropic", "openai", "google"},
	interfaces.TaskTypeCodeGen:    {"anthropic", "openai"},
	interfaces.TaskTypeMultimodal: {"google", "openai"},
}

// Orchestrator routes task-typed requests across registered providers with
// ordered fallback. A preferred provider, when configured and registered,
// is promoted to the front of every task's candidate list.
type Orchestrator struct {
	providers map[string]interfaces.Provider
	preferred string
	timeout   time.Duration
	retry     *RetryConfig
	logger    arbor.ILogger
}

// NewOrchestrator creates an orchestrator over the given providers. A zero
// timeout selects the 60s default per provider attempt.
func NewOrchestrator(providers []interfaces.Provider, preferred string, timeout time.Duration, logger arbor.ILogger) *Orchestrator {
	registry := make(map[string]interfaces.Provider, len(providers))
	for _, p := range providers {
		registry[p.Name()] = p
	}

	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	o := &Orchestrator{
		providers: registry,
		preferred: preferred,
		timeout:   timeout,
		retry:     NewDefaultRetryConfig(),
		logger:    logger,
	}

	logger.Info().
		Strs("available", o.AvailableProviders()).
		Str("preferred", preferred).
		Msg("AI orchestrator initialized")

	return o
}

// AvailableProviders lists the names of configured providers
func (o *Orchestrator) AvailableProviders() []string {
	names := make([]string, 0, len(o.providers))
	for name, p := range o.providers {
		if p.Available() {
			names = append(names, name)
		}
	}
	return names
}

// candidates resolves the ordered, available provider list for a task
func (o *Orchestrator) candidates(task interfaces.TaskType) []interfaces.Provider {
	order, ok := taskPreferences[task]
	if !ok {
		order = taskPreferences[interfaces.TaskTypeAnalyze]
	}

	if o.preferred != "" {
		promoted := []string{o.preferred}
		for _, name := range order {
			if name != o.preferred {
				promoted = append(promoted, name)
			}
		}
		order = promoted
	}

	result := make([]interfaces.Provider, 0, len(order))
	for _, name := range order {
		if p, ok := o.providers[name]; ok && p.Available() {
			result = append(result, p)
		}
	}
	return result
}

// requestTimeout resolves the per-attempt timeout for a request
func (o *Orchestrator) requestTimeout(req *interfaces.CompletionRequest) time.Duration {
	if req != nil && req.Timeout > 0 {
		return req.Timeout
	}
	return o.timeout
}

// attempt runs one provider call under the per-attempt timeout
func (o *Orchestrator) attempt(ctx context.Context, provider interfaces.Provider, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.requestTimeout(req))
	defer cancel()
	return completeWithRetry(attemptCtx, provider, req, o.retry, o.logger)
}

// Request tries providers in task preference order until one succeeds.
// A request-level provider override, when available, is used exclusively.
func (o *Orchestrator) Request(ctx context.Context, task interfaces.TaskType, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	var providers []interfaces.Provider
	if req.Provider != "" {
		if p, ok := o.providers[req.Provider]; ok && p.Available() {
			providers = []interfaces.Provider{p}
		}
	}
	if len(providers) == 0 {
		providers = o.candidates(task)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoProviderAvailable, task)
	}

	var lastErr error
	for _, provider := range providers {
		resp, err := o.attempt(ctx, provider, req)
		if err == nil {
			o.logger.Debug().
				Str("task", string(task)).
				Str("provider", provider.Name()).
				Msg("Request completed")
			return resp, nil
		}

		lastErr = err
		o.logger.Warn().
			Str("task", string(task)).
			Str("provider", provider.Name()).
			Err(err).
			Msg("Provider failed, falling back")

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: %s: %v", ErrAllProvidersFailed, task, lastErr)
}

// RequestParallel fans the same request out to multiple providers and
// returns every successful response, in provider order. With no provider
// names it uses all available providers. Failures are logged and dropped.
func (o *Orchestrator) RequestParallel(ctx context.Context, req *interfaces.CompletionRequest, providerNames ...string) []*interfaces.CompletionResponse {
	if len(providerNames) == 0 {
		providerNames = o.AvailableProviders()
	}

	providers := make([]interfaces.Provider, 0, len(providerNames))
	for _, name := range providerNames {
		if p, ok := o.providers[name]; ok && p.Available() {
			providers = append(providers, p)
		}
	}

	responses := make([]*interfaces.CompletionResponse, len(providers))
	var wg sync.WaitGroup

	for i, provider := range providers {
		wg.Add(1)
		go func(idx int, p interfaces.Provider) {
			defer wg.Done()
			resp, err := o.attempt(ctx, p, req)
			if err != nil {
				o.logger.Warn().
					Str("provider", p.Name()).
					Err(err).
					Msg("Parallel provider failed")
				return
			}
			responses[idx] = resp
		}(i, provider)
	}
	wg.Wait()

	successful := make([]*interfaces.CompletionResponse, 0, len(responses))
	for _, resp := range responses {
		if resp != nil {
			successful = append(successful, resp)
		}
	}
	return successful
}

// Collaborate runs a pipeline where each step's template is formatted with
// the previous step's response and routed by its task type. The initial
// prompt seeds the first step. All step responses are returned in order;
// a failing step aborts the pipeline.
func (o *Orchestrator) Collaborate(ctx context.Context, initialPrompt string, steps []interfaces.CollaborationStep, req *interfaces.CompletionRequest) ([]*interfaces.CompletionResponse, error) {
	responses := make([]*interfaces.CompletionResponse, 0, len(steps))
	current := initialPrompt

	for i, step := range steps {
		stepReq := &interfaces.CompletionRequest{
			Prompt: strings.ReplaceAll(step.Template, interfaces.PreviousResponsePlaceholder, current),
		}
		if req != nil {
			stepReq.SystemPrompt = req.SystemPrompt
			stepReq.MaxTokens = req.MaxTokens
			stepReq.Temperature = req.Temperature
			stepReq.Timeout = req.Timeout
		}

		resp, err := o.Request(ctx, step.Task, stepReq)
		if err != nil {
			return responses, fmt.Errorf("collaboration step %d (%s): %w", i+1, step.Task, err)
		}
		responses = append(responses, resp)
		current = resp.Text
	}
	return responses, nil
}
