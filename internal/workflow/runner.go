package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"quizreel/internal/config"
	"quizreel/internal/logging"
	"quizreel/internal/notifications"
	"quizreel/internal/questionbank"
	"quizreel/internal/services"
	"quizreel/internal/services/render"
	"quizreel/internal/services/youtube"
	"quizreel/internal/titles"
)

// Runner executes production jobs sequentially.
type Runner struct {
	cfg      *config.Config
	store    *questionbank.Store
	renderer render.Client
	uploader youtube.Uploader
	notifier notifications.Service
	catalog  *titles.Catalog
	logger   *slog.Logger

	jobSeq atomic.Int64
}

// RunnerOption configures optional Runner dependencies, mainly for tests.
type RunnerOption func(*Runner)

// WithRenderer overrides the render client.
func WithRenderer(client render.Client) RunnerOption {
	return func(r *Runner) {
		if client != nil {
			r.renderer = client
		}
	}
}

// WithUploader overrides the upload client.
func WithUploader(uploader youtube.Uploader) RunnerOption {
	return func(r *Runner) {
		if uploader != nil {
			r.uploader = uploader
		}
	}
}

// WithNotifier overrides the notification service.
func WithNotifier(notifier notifications.Service) RunnerOption {
	return func(r *Runner) {
		if notifier != nil {
			r.notifier = notifier
		}
	}
}

// WithCatalog overrides the title catalog.
func WithCatalog(catalog *titles.Catalog) RunnerOption {
	return func(r *Runner) {
		if catalog != nil {
			r.catalog = catalog
		}
	}
}

// NewRunner constructs a runner with production defaults. The YouTube client
// is built lazily by callers that need it; tests inject fakes through options.
func NewRunner(cfg *config.Config, store *questionbank.Store, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	runner := &Runner{
		cfg:      cfg,
		store:    store,
		renderer: render.NewCLI(render.WithBinary(cfg.Renderer.Binary)),
		notifier: notifications.NewService(cfg),
		catalog:  titles.NewCatalog(0),
		logger:   logging.WithComponent(logger, "workflow"),
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// SetUploader installs the upload client after construction. NewRunner cannot
// build it unconditionally because credentials are optional for bank-only
// commands.
func (r *Runner) SetUploader(uploader youtube.Uploader) {
	r.uploader = uploader
}

// Plan builds the run order for one invocation: shorts and longforms
// interleaved, topics cycling through the configured rotation.
func (r *Runner) Plan(shorts, longforms int) []Request {
	rotation := r.cfg.Selection.TopicRotation
	topicAt := func(i int) string {
		if len(rotation) == 0 {
			return ""
		}
		return rotation[i%len(rotation)]
	}

	requests := make([]Request, 0, shorts+longforms)
	topicIdx := 0
	for shorts > 0 || longforms > 0 {
		if shorts > 0 {
			requests = append(requests, Request{Kind: KindShort, Topic: topicAt(topicIdx)})
			topicIdx++
			shorts--
		}
		if longforms > 0 {
			requests = append(requests, Request{Kind: KindLongform, Topic: topicAt(topicIdx)})
			topicIdx++
			longforms--
		}
	}
	return requests
}

// Run executes the requests in order. A quota failure stops the loop early
// since every later upload would hit the same wall; other failures move on to
// the next job.
func (r *Runner) Run(ctx context.Context, requests []Request) (Summary, error) {
	var summary Summary
	if len(requests) == 0 {
		return summary, nil
	}

	kinds := make([]string, len(requests))
	for i, req := range requests {
		kinds[i] = string(req.Kind)
	}
	if err := r.notifier.NotifyRunStarted(ctx, kinds); err != nil {
		r.logger.Warn("run-started notification failed", logging.Error(err))
	}

	start := time.Now()
	pause := time.Duration(r.cfg.Workflow.PauseBetweenJobsSeconds) * time.Second
	for i, req := range requests {
		job, err := r.RunJob(ctx, req)
		if err == nil {
			summary.Uploaded++
		} else {
			summary.Failed++
			if notifyErr := r.notifier.NotifyError(ctx, err, fmt.Sprintf("%s job %d", req.Kind, job.ID)); notifyErr != nil {
				r.logger.Warn("error notification failed", logging.Error(notifyErr))
			}
			if errors.Is(err, services.ErrQuotaExceeded) {
				summary.QuotaStopped = true
				if notifyErr := r.notifier.NotifyQuotaExhausted(ctx, summary.Uploaded); notifyErr != nil {
					r.logger.Warn("quota notification failed", logging.Error(notifyErr))
				}
				break
			}
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break
			}
		}

		if i < len(requests)-1 && pause > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(pause):
			}
		}
	}

	elapsed := time.Since(start)
	r.logger.Info("run completed",
		logging.Int("uploaded", summary.Uploaded),
		logging.Int("failed", summary.Failed),
		logging.Bool("quota_stopped", summary.QuotaStopped),
		logging.Duration("duration", elapsed))
	if err := r.notifier.NotifyRunCompleted(ctx, summary.Uploaded, summary.Failed, elapsed); err != nil {
		r.logger.Warn("run-completed notification failed", logging.Error(err))
	}
	return summary, nil
}

// RunJob produces and uploads one video. The returned job carries the final
// state for reporting; the error is nil only when the upload was confirmed
// and the batch committed.
func (r *Runner) RunJob(ctx context.Context, req Request) (*Job, error) {
	job := &Job{
		ID:    r.jobSeq.Add(1),
		Kind:  req.Kind,
		Topic: req.Topic,
		State: StateSelecting,
	}
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithJobKind(ctx, string(job.Kind))
	log := r.logger.With(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldJobKind, string(job.Kind)))

	log.Info("job started", logging.String("topic", job.Topic))

	if err := r.selectBatch(ctx, job); err != nil {
		return r.fail(ctx, job, err)
	}
	log.Info("batch reserved",
		logging.String(logging.FieldBatch, job.Batch.Token),
		logging.Int("questions", job.Batch.Size()),
		logging.Bool("relaxed", job.Batch.Relaxed()))

	job.State = StateRendering
	if err := r.renderWithRetry(ctx, job, log); err != nil {
		return r.fail(ctx, job, err)
	}
	log.Info("render complete", logging.String("output", job.OutputPath))

	job.State = StateUploading
	if err := r.uploadWithRetry(ctx, job, log); err != nil {
		return r.fail(ctx, job, err)
	}

	// The upload is confirmed; consume the batch. Commit is idempotent so a
	// crash between here and process exit cannot double-charge usage.
	commitCtx := context.WithoutCancel(ctx)
	if _, err := r.store.Commit(commitCtx, job.Batch); err != nil {
		log.Error("commit after upload failed", logging.Error(err))
		return r.failWithoutRelease(job, fmt.Errorf("commit batch after upload: %w", err))
	}
	if err := r.store.MarkVideoUploaded(commitCtx, job.VideoRowID, job.VideoID); err != nil {
		log.Warn("record upload failed", logging.Error(err))
	}
	r.cleanupArtifact(job, log)

	job.State = StateSucceeded
	log.Info("job succeeded",
		logging.String("video_id", job.VideoID),
		logging.Int("attempts", job.Attempts))

	if err := r.notifier.NotifyVideoUploaded(ctx, job.Title, job.VideoID, string(job.Kind), job.Batch.Size()); err != nil {
		log.Warn("upload notification failed", logging.Error(err))
	}
	return job, nil
}

func (r *Runner) selectBatch(ctx context.Context, job *Job) error {
	policy := questionbank.ReservePolicy{
		Count:          job.Kind.BatchSize(r.cfg),
		UsageCap:       r.cfg.Selection.UsageCap,
		Topic:          job.Topic,
		DistinctTopics: job.Topic == "",
		MaxAge:         time.Duration(r.cfg.Selection.ReservationMaxAgeMinutes) * time.Minute,
	}
	batch, err := r.store.Reserve(ctx, policy)
	if err != nil {
		if errors.Is(err, questionbank.ErrInsufficientSupply) {
			stats, statsErr := r.store.PoolStats(ctx, policy.UsageCap)
			if statsErr == nil {
				if notifyErr := r.notifier.NotifyLowSupply(ctx, job.Topic, stats.Eligible, policy.Count); notifyErr != nil {
					r.logger.Warn("low-supply notification failed", logging.Error(notifyErr))
				}
			}
			return services.Wrap(services.ErrNotFound, "select", "reserve", "eligible pool exhausted", err)
		}
		return services.Wrap(services.ErrTransient, "select", "reserve", "reservation failed", err)
	}
	job.Batch = batch

	if job.Kind == KindShort {
		job.Title = r.catalog.ShortTitle(job.Topic, batch.Size())
		job.Description = r.catalog.Description(job.Topic, batch.Size(), true)
	} else {
		job.Title = r.catalog.LongformTitle(job.Topic, batch.Size())
		job.Description = r.catalog.Description(job.Topic, batch.Size(), false)
	}
	return nil
}

func (r *Runner) renderWithRetry(ctx context.Context, job *Job, log *slog.Logger) error {
	spec := render.Spec{
		Title:     job.Title,
		Kind:      string(job.Kind),
		Width:     r.cfg.Renderer.Width,
		Height:    r.cfg.Renderer.Height,
		Questions: job.Batch.Questions,
	}

	return r.withRetry(ctx, log, "render", func(ctx context.Context) error {
		renderCtx := ctx
		if timeout := time.Duration(r.cfg.Renderer.TimeoutSeconds) * time.Second; timeout > 0 {
			var cancel context.CancelFunc
			renderCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		job.Attempts++
		outputPath, err := r.renderer.Render(renderCtx, spec, r.cfg.Paths.OutputDir, func(update render.ProgressUpdate) {
			log.Debug("render progress",
				logging.String("stage", update.Stage),
				logging.Any("percent", update.Percent))
		})
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "render", "run", "renderer failed", err)
		}
		job.OutputPath = outputPath

		video := &questionbank.Video{
			Title:         job.Title,
			FilePath:      outputPath,
			Kind:          string(job.Kind),
			QuestionCount: job.Batch.Size(),
		}
		if recordErr := r.store.RecordVideo(ctx, video); recordErr != nil {
			return services.Wrap(services.ErrTransient, "render", "record", "persist video row", recordErr)
		}
		job.VideoRowID = video.ID
		return nil
	})
}

func (r *Runner) uploadWithRetry(ctx context.Context, job *Job, log *slog.Logger) error {
	if r.uploader == nil {
		return services.Wrap(services.ErrConfiguration, "upload", "client", "no uploader configured", nil)
	}
	req := youtube.UploadRequest{
		FilePath:    job.OutputPath,
		Title:       job.Title,
		Description: job.Description,
	}

	return r.withRetry(ctx, log, "upload", func(ctx context.Context) error {
		uploadCtx := ctx
		if timeout := time.Duration(r.cfg.YouTube.UploadTimeout) * time.Second; timeout > 0 {
			var cancel context.CancelFunc
			uploadCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		job.Attempts++
		videoID, err := r.uploader.Upload(uploadCtx, req)
		if err != nil {
			return err
		}
		job.VideoID = videoID
		return nil
	})
}

// withRetry runs fn under the configured attempt budget with exponential
// backoff. Non-retryable markers abort immediately.
func (r *Runner) withRetry(ctx context.Context, log *slog.Logger, operation string, fn func(context.Context) error) error {
	maxAttempts := r.cfg.Workflow.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	baseDelay := time.Duration(r.cfg.Workflow.RetryBaseDelaySeconds) * time.Second
	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	backoff := retry.WithMaxRetries(uint64(maxAttempts-1), retry.NewExponential(baseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if services.IsRetryable(err) {
			log.Warn(operation+" attempt failed, will retry",
				logging.String(logging.FieldErrorKind, services.FailureKind(err)),
				logging.Error(err))
			return retry.RetryableError(err)
		}
		return err
	})
}

// fail releases the batch so its questions return to the pool, removes any
// rendered artifact and its video row, then records the failure on the job.
// Cleanup uses a detached context so cancellation of the job cannot strand
// the reservation or leave an unpublished artifact referenced.
func (r *Runner) fail(ctx context.Context, job *Job, err error) (*Job, error) {
	detached := context.WithoutCancel(ctx)
	if job.Batch != nil {
		if _, releaseErr := r.store.Release(detached, job.Batch); releaseErr != nil {
			r.logger.Error("release after failure failed",
				logging.Int64(logging.FieldJobID, job.ID),
				logging.Error(releaseErr))
		}
	}
	if job.VideoRowID != 0 {
		if deleteErr := r.store.DeleteVideo(detached, job.VideoRowID); deleteErr != nil {
			r.logger.Warn("video row cleanup failed",
				logging.Int64(logging.FieldJobID, job.ID),
				logging.Error(deleteErr))
		}
	}
	r.cleanupArtifact(job, r.logger)
	return r.failWithoutRelease(job, err)
}

func (r *Runner) failWithoutRelease(job *Job, err error) (*Job, error) {
	job.State = StateFailed
	job.Err = err
	r.logger.Error("job failed",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldJobKind, string(job.Kind)),
		logging.String(logging.FieldJobState, string(job.State)),
		logging.String(logging.FieldErrorKind, services.FailureKind(err)),
		logging.Int("attempts", job.Attempts),
		logging.Error(err))
	return job, err
}

func (r *Runner) cleanupArtifact(job *Job, log *slog.Logger) {
	if job.OutputPath == "" {
		return
	}
	if err := os.Remove(job.OutputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("artifact cleanup failed",
			logging.String("path", job.OutputPath),
			logging.Error(err))
	}
}
