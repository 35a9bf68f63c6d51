package transform

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"brandify/internal/agent"
)

// UploadResult is the upload collaborator's answer. The workflow
// requires at least one non-blank asset identifier on success.
type UploadResult struct {
	Success  bool     `json:"success"`
	AssetIDs []string `json:"asset_ids"`
	Error    string   `json:"error,omitempty"`
}

// Uploader pushes the staged source asset to wherever the agent can
// reach it.
type Uploader interface {
	Upload(ctx context.Context, src SourceAsset) (UploadResult, error)
}

// InvokeOptions carries per-invocation parameters.
type InvokeOptions struct {
	Assets []string
}

// Invoker calls the remote agent and returns its raw response envelope.
type Invoker interface {
	Invoke(ctx context.Context, message, agentID string, opts InvokeOptions) (agent.Envelope, error)
}

// Capturer receives the raw envelope when an otherwise-successful
// response yielded no image. Implementations must not fail the
// workflow.
type Capturer interface {
	Capture(ctx context.Context, sessionID string, env agent.Envelope)
}

// Options configures a Workflow.
type Options struct {
	SessionID string
	Uploader  Uploader
	Invoker   Invoker
	Capturer  Capturer
	AgentID   string
	Logger    zerolog.Logger
}

// Workflow drives one transform session through its phases:
// idle -> uploading -> invoking -> extracting -> succeeded, with failed
// reachable from any of the three active phases. The two collaborator
// calls are awaited sequentially; extraction is synchronous and pure.
//
// Each (re)selection bumps a generation counter, and a pipeline run
// only applies its result while its generation is still current. A
// completion that lands after the user discarded or replaced the file
// is dropped without touching session state.
type Workflow struct {
	uploader Uploader
	invoker  Invoker
	capturer Capturer
	agentID  string
	logger   zerolog.Logger

	mu         sync.Mutex
	sessionID  string
	generation uint64
	phase      Phase
	source     *SourceAsset
	directive  string
	progress   string
	imageURL   string
	details    *agent.TransformationDetails
	errKind    ErrorKind
	errMsg     string
	rawEnv     agent.Envelope
	watchers   map[int]chan Snapshot
	nextWatch  int
}

// New constructs an idle workflow for a single session.
func New(opts Options) *Workflow {
	return &Workflow{
		uploader:  opts.Uploader,
		invoker:   opts.Invoker,
		capturer:  opts.Capturer,
		agentID:   opts.AgentID,
		logger:    opts.Logger,
		sessionID: opts.SessionID,
		phase:     PhaseIdle,
		watchers:  make(map[int]chan Snapshot),
	}
}

// Select stages a new source asset. Any in-flight or finished session
// state is discarded and the workflow returns to idle; an in-flight
// network call is not cancelled, but its completion will be stale and
// therefore dropped.
func (w *Workflow) Select(src SourceAsset, directive string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.generation++
	w.source = &src
	w.directive = directive
	w.resetResultLocked()
	w.phase = PhaseIdle
	w.notifyLocked()
}

// Clear removes the current source asset and returns to idle.
func (w *Workflow) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.generation++
	w.source = nil
	w.directive = ""
	w.resetResultLocked()
	w.phase = PhaseIdle
	w.notifyLocked()
}

func (w *Workflow) resetResultLocked() {
	w.progress = ""
	w.imageURL = ""
	w.details = nil
	w.errKind = ""
	w.errMsg = ""
	w.rawEnv = nil
}

// Start initiates the pipeline for the selected asset. It returns
// ErrNoSource when nothing is selected (the session stays idle) and
// ErrInFlight when a run is already active. The pipeline itself runs in
// its own goroutine; observe completion via Watch or Snapshot.
func (w *Workflow) Start(ctx context.Context) error {
	gen, err := w.begin(false)
	if err != nil {
		return err
	}
	go w.run(ctx, gen)
	return nil
}

// Retry re-enters the pipeline from the top with the same asset and
// style directive. Only valid from the failed phase.
func (w *Workflow) Retry(ctx context.Context) error {
	gen, err := w.begin(true)
	if err != nil {
		return err
	}
	go w.run(ctx, gen)
	return nil
}

func (w *Workflow) begin(retry bool) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.source == nil {
		return 0, ErrNoSource
	}
	if w.phase.Active() {
		return 0, ErrInFlight
	}
	if retry && w.phase != PhaseFailed {
		return 0, ErrNotRetryable
	}
	if !retry && w.phase != PhaseIdle {
		return 0, ErrInFlight
	}
	w.resetResultLocked()
	w.phase = PhaseUploading
	w.progress = progressUploading
	w.notifyLocked()
	return w.generation, nil
}

func (w *Workflow) run(ctx context.Context, gen uint64) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().Str("session_id", w.sessionID).Interface("panic", r).
				Msg("transform: pipeline panicked")
			w.fail(gen, ErrorUnexpected, msgUnexpected, nil)
		}
	}()

	src, directive, ok := w.input(gen)
	if !ok {
		return
	}

	upload, err := w.uploader.Upload(ctx, src)
	if err != nil {
		w.logger.Error().Err(err).Str("session_id", w.sessionID).Msg("transform: upload failed")
		w.fail(gen, ErrorUpload, msgUploadFailed, nil)
		return
	}
	assetID := ""
	if len(upload.AssetIDs) > 0 {
		assetID = strings.TrimSpace(upload.AssetIDs[0])
	}
	if !upload.Success || assetID == "" {
		msg := strings.TrimSpace(upload.Error)
		if msg == "" {
			msg = msgUploadFailed
		}
		w.fail(gen, ErrorUpload, msg, nil)
		return
	}
	if !w.advance(gen, PhaseInvoking, progressInvoking) {
		return
	}

	env, err := w.invoker.Invoke(ctx, BuildMessage(directive), w.agentID, InvokeOptions{Assets: []string{assetID}})
	if err != nil {
		w.logger.Error().Err(err).Str("session_id", w.sessionID).Msg("transform: agent invocation failed")
		w.fail(gen, ErrorInvocation, msgInvocationFailed, nil)
		return
	}
	if !env.Success() {
		msg := env.Error()
		if msg == "" {
			msg = strings.TrimSpace(env.Message())
		}
		if msg == "" {
			msg = msgInvocationFailed
		}
		w.fail(gen, ErrorInvocation, msg, nil)
		return
	}
	if !w.advance(gen, PhaseExtracting, "") {
		return
	}

	url, found := agent.ExtractImageURL(env)
	if !found {
		if w.fail(gen, ErrorExtraction, msgNoImage, env) && w.capturer != nil {
			w.capturer.Capture(ctx, w.sessionID, env)
		}
		return
	}
	w.succeed(gen, url, agent.ExtractDetails(env))
}

// input re-reads the pipeline parameters under the lock so a stale run
// never observes a replacement asset.
func (w *Workflow) input(gen uint64) (SourceAsset, string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.generation || w.source == nil {
		return SourceAsset{}, "", false
	}
	return *w.source, w.directive, true
}

// advance moves to the next phase unless the run went stale.
func (w *Workflow) advance(gen uint64, phase Phase, progress string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.generation {
		w.logger.Debug().Str("session_id", w.sessionID).Str("phase", string(phase)).
			Msg("transform: discarding stale transition")
		return false
	}
	w.phase = phase
	w.progress = progress
	w.notifyLocked()
	return true
}

// fail records a failure; the raw envelope, when given, is kept for
// diagnostics only and never shown to the user. Returns false when the
// run went stale and nothing was recorded.
func (w *Workflow) fail(gen uint64, kind ErrorKind, msg string, env agent.Envelope) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.generation {
		w.logger.Debug().Str("session_id", w.sessionID).Msg("transform: discarding stale failure")
		return false
	}
	w.phase = PhaseFailed
	w.progress = ""
	w.errKind = kind
	w.errMsg = msg
	w.rawEnv = env
	w.notifyLocked()
	w.logger.Warn().Str("session_id", w.sessionID).Str("kind", string(kind)).Str("message", msg).
		Msg("transform: session failed")
	return true
}

func (w *Workflow) succeed(gen uint64, url string, details *agent.TransformationDetails) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.generation {
		w.logger.Debug().Str("session_id", w.sessionID).Msg("transform: discarding stale result")
		return
	}
	w.phase = PhaseSucceeded
	w.progress = ""
	w.imageURL = url
	w.details = details
	w.notifyLocked()
	w.logger.Info().Str("session_id", w.sessionID).Str("image_url", url).
		Msg("transform: session succeeded")
}

// Snapshot returns the current read-only projection of the session.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workflow) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: w.sessionID,
		Phase:     w.phase,
		Progress:  w.progress,
		ImageURL:  w.imageURL,
		Details:   w.details,
		ErrorKind: w.errKind,
		Error:     w.errMsg,
	}
	if w.source != nil {
		snap.SourceName = w.source.Name
	}
	return snap
}

// Source returns the currently selected asset, if any.
func (w *Workflow) Source() (SourceAsset, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.source == nil {
		return SourceAsset{}, false
	}
	return *w.source, true
}

// Watch subscribes to session snapshots. Every phase transition emits
// one snapshot; slow consumers miss intermediate states rather than
// blocking the pipeline. The returned cancel function must be called
// when done.
func (w *Workflow) Watch() (<-chan Snapshot, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextWatch
	w.nextWatch++
	ch := make(chan Snapshot, 16)
	w.watchers[id] = ch
	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if c, ok := w.watchers[id]; ok {
			delete(w.watchers, id)
			close(c)
		}
	}
	return ch, cancel
}

func (w *Workflow) notifyLocked() {
	snap := w.snapshotLocked()
	for _, ch := range w.watchers {
		select {
		case ch <- snap:
		default:
		}
	}
}
