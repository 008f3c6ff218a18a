// Package session hosts one pipeline state and wires it to the
// boundaries: card provider, preset store, history persistence, the
// completion client, and export. It enforces the single in-flight
// request rule and owns cancellation; the core state transitions stay
// pure underneath it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cardforge/internal/card"
	"cardforge/internal/export"
	"cardforge/internal/history"
	"cardforge/internal/llm"
	"cardforge/internal/pipeline"
	"cardforge/internal/preset"
	"cardforge/internal/prompt"
	"cardforge/internal/refine"
	"cardforge/internal/schema"
)

// ErrBusy is returned when a stage is requested while another request is
// in flight.
var ErrBusy = errors.New("session: a stage is already running")

type Session struct {
	mu      sync.Mutex
	state   pipeline.State
	running bool
	cancel  context.CancelFunc

	provider  card.Provider
	presets   *preset.Store
	histories *history.Store
	client    llm.Client
	composer  *prompt.Composer
	artifacts *export.ArtifactStore

	events *hub
}

type Options struct {
	Provider  card.Provider
	Presets   *preset.Store
	Histories *history.Store
	Client    llm.Client
	Artifacts *export.ArtifactStore // optional
	UserName  string
}

func New(opts Options) *Session {
	s := &Session{
		state:     pipeline.NewState(),
		provider:  opts.Provider,
		presets:   opts.Presets,
		histories: opts.Histories,
		client:    opts.Client,
		artifacts: opts.Artifacts,
		events:    newHub(),
	}
	s.composer = &prompt.Composer{UserName: opts.UserName}
	return s
}

// State returns a copy of the current pipeline state value.
func (s *Session) State() pipeline.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers an event watcher; the returned func unsubscribes.
func (s *Session) Subscribe() (chan Event, func()) {
	return s.events.subscribe()
}

// SelectCard points the pipeline at a provider card and loads its
// persisted iteration history best-effort. Re-selecting the current
// index is a no-op.
func (s *Session) SelectCard(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrBusy
	}
	if index >= 0 && index == s.state.CardIndex {
		// Redundant selection event; SetCard treats this as a no-op too.
		return nil
	}
	c, ok := s.provider.Get(index)
	if !ok {
		return fmt.Errorf("session: no card at index %d", index)
	}
	s.state = pipeline.SetCard(s.state, c, index)
	if snaps := s.histories.Load(ctx, c.Name); len(snaps) > 0 {
		s.state.History = snaps
		s.state.Iteration = snaps[len(snaps)-1].Iteration + 1
	}
	return nil
}

// UpdateStageConfig replaces one stage's generation config.
func (s *Session) UpdateStageConfig(stage pipeline.Stage, cfg pipeline.StageConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Maps are shared with readers of the previous state value; go
	// through a transition-style copy before writing.
	copied := pipeline.SetSelectedStages(s.state, s.state.Selected)
	copied.Configs[stage] = cfg
	s.state = copied
}

func (s *Session) ToggleStage(stage pipeline.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = pipeline.ToggleStage(s.state, stage)
}

func (s *Session) SetSelectedStages(stages []pipeline.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = pipeline.SetSelectedStages(s.state, stages)
}

func (s *Session) SelectAllStages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = pipeline.SelectAllStages(s.state)
}

// SetFieldSelection replaces the card field selection.
func (s *Session) SetFieldSelection(sel card.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := pipeline.SetSelectedStages(s.state, s.state.Selected)
	copied.Selection = sel.Clone()
	s.state = copied
}

// Validate aggregates run preconditions for the whole pipeline.
func (s *Session) Validate() pipeline.CheckResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pipeline.ValidatePipeline(s.state, s.resolver(), s.client.Connected())
}

func (s *Session) resolver() pipeline.PromptResolver {
	st := s.state
	return func(stage pipeline.Stage) string {
		return s.presets.ResolvePrompt(st.Configs[stage])
	}
}

// RunStage executes one stage end to end: compose, resolve schema, call
// the completion service, commit or roll back. Returns the run id.
func (s *Session) RunStage(ctx context.Context, stage pipeline.Stage) (string, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return "", ErrBusy
	}
	check := pipeline.CanRunStage(s.state, stage)
	if !check.CanRun {
		s.mu.Unlock()
		return "", errors.New(check.Reason)
	}
	cfg := s.state.Configs[stage]
	s.composer.Resolve = s.resolver()
	promptText := s.composer.StagePrompt(s.state, stage)
	if strings.TrimSpace(promptText) == "" {
		s.mu.Unlock()
		return "", fmt.Errorf("session: %s stage has no prompt configured", stage)
	}
	outSchema, schemaText, err := s.resolveSchema(cfg)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}

	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.state = pipeline.StartStage(s.state, stage)
	s.mu.Unlock()

	s.events.emit(Event{RunID: runID, Stage: string(stage), Type: EventStarted})
	resp, genErr := s.client.Generate(runCtx, llm.Request{Prompt: promptText, Schema: outSchema})

	s.mu.Lock()
	defer func() {
		s.running = false
		s.cancel = nil
		cancel()
		s.mu.Unlock()
	}()

	if genErr != nil {
		// Rollback either way; cancellation stays silent.
		s.state = pipeline.FailStage(s.state, stage)
		if errors.Is(genErr, llm.ErrCancelled) {
			s.events.emit(Event{RunID: runID, Stage: string(stage), Type: EventCancelled})
			return runID, llm.ErrCancelled
		}
		s.events.emit(Event{RunID: runID, Stage: string(stage), Type: EventFailed, Message: genErr.Error()})
		return runID, genErr
	}

	s.state = pipeline.CompleteStage(s.state, stage, resp.Text, promptText, schemaText, resp.Structured)
	s.events.emit(Event{RunID: runID, Stage: string(stage), Type: EventCompleted})
	return runID, nil
}

// resolveSchema validates the stage's effective schema text. A schema
// that fails validation blocks the run with the aggregated error.
func (s *Session) resolveSchema(cfg pipeline.StageConfig) (*schema.OutputSchema, string, error) {
	if !cfg.Structured {
		return nil, "", nil
	}
	text := s.presets.ResolveSchema(cfg)
	res := schema.Validate(text)
	if !res.Valid {
		return nil, "", fmt.Errorf("session: schema invalid:\n%s", res.Error)
	}
	for _, w := range res.Warnings {
		log.Printf("session: schema warning: %s", w)
	}
	return res.Schema, text, nil
}

// CancelRun aborts the in-flight generation, if any.
func (s *Session) CancelRun() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// StartRefinement snapshots the current cycle and regenerates the
// rewrite from the refinement prompt.
func (s *Session) StartRefinement(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return "", ErrBusy
	}
	check := pipeline.ValidateRefinement(s.state, s.resolver(), s.client.Connected())
	if !check.OK() {
		s.mu.Unlock()
		return "", errors.New(strings.Join(check.Errors, "; "))
	}
	s.composer.Resolve = s.resolver()
	promptText := s.composer.RefinementPrompt(s.state)
	if promptText == "" {
		s.mu.Unlock()
		return "", errors.New("session: refinement prompt could not be built")
	}
	cfg := s.state.Configs[pipeline.StageRewrite]
	outSchema, schemaText, err := s.resolveSchema(cfg)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}

	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	prev := s.state
	s.state = refine.StartRefinement(s.state)
	s.mu.Unlock()

	s.events.emit(Event{RunID: runID, Stage: string(pipeline.StageRewrite), Type: EventRefining})
	resp, genErr := s.client.Generate(runCtx, llm.Request{Prompt: promptText, Schema: outSchema})

	s.mu.Lock()
	defer func() {
		s.running = false
		s.cancel = nil
		cancel()
		s.mu.Unlock()
	}()

	if genErr != nil {
		// No partial commit: the pre-refinement state comes back whole.
		s.state = prev
		if errors.Is(genErr, llm.ErrCancelled) {
			s.events.emit(Event{RunID: runID, Type: EventCancelled})
			return runID, llm.ErrCancelled
		}
		s.events.emit(Event{RunID: runID, Type: EventFailed, Message: genErr.Error()})
		return runID, genErr
	}

	s.state = refine.CompleteRefinement(s.state, resp.Text, promptText, schemaText, resp.Structured)
	s.persistHistory(ctx)
	s.events.emit(Event{RunID: runID, Stage: string(pipeline.StageRewrite), Type: EventCompleted})
	return runID, nil
}

// AcceptRewrite locks the current rewrite and ends refinement.
func (s *Session) AcceptRewrite(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = refine.AcceptRewrite(s.state)
	s.persistHistory(ctx)
}

// RevertToIteration restores a historical rewrite.
func (s *Session) RevertToIteration(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrBusy
	}
	next, err := refine.RevertToIteration(s.state, index)
	if err != nil {
		return err
	}
	s.state = next
	s.persistHistory(ctx)
	s.events.emit(Event{Type: EventReverted, Message: fmt.Sprintf("reverted to iteration %d", index)})
	return nil
}

func (s *Session) persistHistory(ctx context.Context) {
	if s.state.Card == nil {
		return
	}
	if err := s.histories.Save(ctx, s.state.Card.Name, s.state.History); err != nil {
		log.Printf("session: persist history: %v", err)
	}
}

// LockResult / UnlockResult / ClearResult / SkipStage are thin pass-throughs.
func (s *Session) LockResult(stage pipeline.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = pipeline.LockStageResult(s.state, stage)
}

func (s *Session) UnlockResult(stage pipeline.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = pipeline.UnlockStageResult(s.state, stage)
}

func (s *Session) ClearResult(stage pipeline.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.state.Results[stage]; r != nil && r.Locked {
		return fmt.Errorf("session: %s result is locked", stage)
	}
	s.state = pipeline.ClearStageResult(s.state, stage)
	return nil
}

func (s *Session) SkipStage(stage pipeline.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = pipeline.SkipStage(s.state, stage)
}

// Export renders the markdown document, uploads it when an artifact
// store is configured, and records it on the state.
func (s *Session) Export(ctx context.Context) (string, string, error) {
	s.mu.Lock()
	if !pipeline.CanExport(s.state) {
		s.mu.Unlock()
		return "", "", errors.New("session: nothing to export; run rewrite first")
	}
	doc := export.Markdown(s.state, time.Now())
	copied := pipeline.SetSelectedStages(s.state, s.state.Selected)
	copied.Export = doc
	s.state = copied
	name := s.state.Card.Name
	s.mu.Unlock()

	var key string
	if s.artifacts != nil {
		k, err := s.artifacts.Put(ctx, name, doc)
		if err != nil {
			log.Printf("session: export upload: %v", err)
		} else {
			key = k
		}
	}
	s.events.emit(Event{Type: EventExported, Message: key})
	return doc, key, nil
}

// SaveState serializes the pipeline state projection.
func (s *Session) SaveState() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pipeline.Serialize(s.state)
}

// RestoreState replaces the session state from a serialized projection;
// a malformed payload leaves the session unchanged.
func (s *Session) RestoreState(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrBusy
	}
	restored, err := pipeline.Restore(data, s.provider.Get)
	if err != nil {
		log.Printf("session: restore: %v", err)
		return err
	}
	s.state = restored
	return nil
}
