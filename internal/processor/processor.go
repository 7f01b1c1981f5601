package processor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/shakil/hookpipe/internal/classify"
	"github.com/shakil/hookpipe/internal/config"
	"github.com/shakil/hookpipe/internal/models"
	"github.com/shakil/hookpipe/internal/storage"
	"github.com/shakil/hookpipe/internal/verify"
)

// Reporter posts verification outcomes back to the origin system. Both
// calls are best-effort: a reporting failure is logged and does not affect
// the event's terminal state.
type Reporter interface {
	PostComment(ctx context.Context, owner, repo string, number int, body string) error
	ApplyLabels(ctx context.Context, owner, repo string, number int, labels []string) error
}

// Processor drains unprocessed webhook events: it polls the store on a
// fixed interval, dispatches trigger events to the verification runner in
// concurrency-bounded batches, reports outcomes, and marks every fetched
// event processed exactly once. An event is never retried automatically;
// callers needing a second attempt must re-deliver.
//
// A single Processor instance per database is assumed. There is no row
// claiming, so two instances polling the same store can both pick up the
// same event and double-post results.
type Processor struct {
	store         storage.Storage
	runner        verify.Runner
	reporter      Reporter
	pollInterval  time.Duration
	batchSize     int
	fetchLimit    int
	workspaceRoot string
	log           zerolog.Logger

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

func New(cfg config.ProcessorConfig, store storage.Storage, runner verify.Runner, reporter Reporter, log zerolog.Logger) *Processor {
	batchSize := cfg.BatchConcurrency
	if batchSize <= 0 {
		batchSize = 3
	}
	fetchLimit := cfg.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = 10
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}

	return &Processor{
		store:         store,
		runner:        runner,
		reporter:      reporter,
		pollInterval:  pollInterval,
		batchSize:     batchSize,
		fetchLimit:    fetchLimit,
		workspaceRoot: cfg.WorkspaceRoot,
		log:           log,
		stop:          make(chan struct{}),
	}
}

// Start launches the polling loop. A second call is a no-op.
func (p *Processor) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		p.log.Warn().Msg("processor already started")
		return
	}
	p.started = true
	p.mu.Unlock()

	p.log.Info().
		Dur("poll_interval", p.pollInterval).
		Int("batch_concurrency", p.batchSize).
		Msg("starting event processor")

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.pollLoop(ctx)
	}()
}

// Stop halts polling and waits for the in-flight tick to finish.
func (p *Processor) Stop() {
	p.log.Info().Msg("stopping event processor")
	close(p.stop)
	p.wg.Wait()
	p.log.Info().Msg("event processor stopped")
}

func (p *Processor) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.processTick(ctx)
		}
	}
}

// processTick fetches pending events oldest-first and works through them in
// batches of batchSize, waiting for each batch before starting the next so
// no more than batchSize verification calls are ever in flight.
func (p *Processor) processTick(ctx context.Context) {
	events, err := p.store.GetUnprocessedEvents(ctx, p.fetchLimit)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to fetch unprocessed events")
		return
	}
	if len(events) == 0 {
		return
	}

	p.log.Debug().Int("count", len(events)).Msg("processing events")

	for start := 0; start < len(events); start += p.batchSize {
		end := start + p.batchSize
		if end > len(events) {
			end = len(events)
		}

		var wg conc.WaitGroup
		for _, evt := range events[start:end] {
			evt := evt
			wg.Go(func() {
				p.handleEvent(ctx, evt)
			})
		}
		wg.Wait()
	}
}

// handleEvent makes exactly one terminal processing attempt. Verification
// and reporting errors are recorded or logged, never propagated; the event
// is always marked processed.
func (p *Processor) handleEvent(ctx context.Context, evt models.WebhookEvent) {
	if !evt.TriggerVerification || evt.ProjectName == nil || evt.WorkItemNumber == nil {
		p.markProcessed(ctx, evt.ID, "")
		return
	}

	projectName := *evt.ProjectName
	workItemNumber := *evt.WorkItemNumber

	p.log.Info().
		Str("event_id", evt.ID).
		Str("project", projectName).
		Int("work_item", workItemNumber).
		Msg("running verification")

	result, err := p.runner.Run(ctx, projectName, workItemNumber, p.workspaceRoot)
	if err != nil {
		p.log.Error().Err(err).
			Str("event_id", evt.ID).
			Str("project", projectName).
			Msg("verification failed")
		p.markProcessed(ctx, evt.ID, err.Error())
		return
	}

	p.report(ctx, projectName, workItemNumber, result)
	p.markProcessed(ctx, evt.ID, "")
}

// report posts the verification outcome as a comment and a status label.
// Owner/repo addressing comes from the payload of the first stored event
// for the work item, since the trigger comment itself may lack it.
func (p *Processor) report(ctx context.Context, projectName string, workItemNumber int, result *verify.Result) {
	first, err := p.store.GetFirstEventForWorkItem(ctx, projectName, workItemNumber)
	if err != nil || first == nil {
		p.log.Error().Err(err).
			Str("project", projectName).
			Int("work_item", workItemNumber).
			Msg("failed to find event for result reporting")
		return
	}

	payload, err := classify.ParsePayload(first.Payload)
	if err != nil {
		p.log.Error().Err(err).Str("event_id", first.ID).Msg("failed to parse stored payload")
		return
	}
	owner, repo, ok := payload.OwnerRepo()
	if !ok {
		p.log.Error().Str("event_id", first.ID).Msg("stored payload has no repository full name")
		return
	}

	body := FormatResult(projectName, workItemNumber, result)
	if err := p.reporter.PostComment(ctx, owner, repo, workItemNumber, body); err != nil {
		p.log.Error().Err(err).
			Str("project", projectName).
			Int("work_item", workItemNumber).
			Msg("failed to post result comment")
	}
	if err := p.reporter.ApplyLabels(ctx, owner, repo, workItemNumber, []string{StatusLabel(result.Status)}); err != nil {
		p.log.Error().Err(err).
			Str("project", projectName).
			Int("work_item", workItemNumber).
			Msg("failed to apply result label")
	}
}

func (p *Processor) markProcessed(ctx context.Context, id, errorMessage string) {
	if err := p.store.MarkEventProcessed(ctx, id, errorMessage); err != nil {
		p.log.Error().Err(err).Str("event_id", id).Msg("failed to mark event processed")
	}
}
