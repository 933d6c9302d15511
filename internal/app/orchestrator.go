// Package app wires the loader, rules, detectors, scoring, and persistence
// into the operations the CLI and server shells call: synchronous file
// analysis and asynchronous analysis jobs with progress events.
package app

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avendel/reqstress/internal/analyzer"
	"github.com/avendel/reqstress/internal/detector"
	"github.com/avendel/reqstress/internal/loader"
	"github.com/avendel/reqstress/internal/logging"
	"github.com/avendel/reqstress/internal/model"
	"github.com/avendel/reqstress/internal/registry"
	"github.com/avendel/reqstress/internal/rules"
	"github.com/avendel/reqstress/internal/scoring"
)

// Progress stage percentages reported over job events. Detection progress
// interpolates between StageDetecting and StageScoring.
const (
	StageLoading    = 10
	StageParsing    = 30
	StageDetecting  = 50
	StageScoring    = 70
	StageGenerating = 80
	StageComplete   = 100
)

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For progress
	Progress  int `json:"progress,omitempty"`
	Processed int `json:"processed,omitempty"`
	Total     int `json:"total,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

// Job is one asynchronous analysis run over a stored upload.
type Job struct {
	ID        string        `json:"id"`
	UploadID  string        `json:"upload_id"`
	Filename  string        `json:"filename"`
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	Progress  int           `json:"progress"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Events    chan JobEvent `json:"-"`

	Report *model.Report `json:"report,omitempty"`
}

// Orchestrator ties together config, rules, detectors, and storage.
type Orchestrator struct {
	cfg       *Config
	detectors *detector.Registry
	store     *registry.Store
	loader    *loader.Loader
	logger    logging.Logger

	rulesMu sync.RWMutex
	rules   *rules.Config

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
}

// NewOrchestrator loads the ruleset named by cfg and returns the assembled
// orchestrator. store may be nil for shells that do not persist anything.
func NewOrchestrator(cfg *Config, store *registry.Store, logger logging.Logger) (*Orchestrator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	ruleCfg := rules.Default()
	if cfg.RulesPath != "" {
		var err error
		ruleCfg, err = rules.Load(cfg.RulesPath)
		if err != nil {
			return nil, err
		}
	}

	return &Orchestrator{
		cfg:        cfg,
		detectors:  detector.NewRegistry(),
		store:      store,
		loader:     loader.New(logger),
		logger:     logger,
		rules:      ruleCfg,
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
	}, nil
}

// Store exposes the persistence layer to server handlers. Nil when the
// orchestrator runs without one.
func (o *Orchestrator) Store() *registry.Store { return o.store }

// Rules returns the currently loaded ruleset.
func (o *Orchestrator) Rules() *rules.Config {
	o.rulesMu.RLock()
	defer o.rulesMu.RUnlock()
	return o.rules
}

// SetCategoryEnabled toggles a detector category on the live ruleset.
// Running analyses keep the config they started with.
func (o *Orchestrator) SetCategoryEnabled(name string, enabled bool) (*rules.Config, error) {
	o.rulesMu.Lock()
	defer o.rulesMu.Unlock()
	next, err := o.rules.WithCategoryEnabled(name, enabled)
	if err != nil {
		return nil, err
	}
	o.rules = next
	o.logger.Info("detector category toggled",
		logging.Field{Key: "category", Value: name},
		logging.Field{Key: "enabled", Value: enabled})
	return next, nil
}

// ReloadRules re-reads the ruleset from its original source.
func (o *Orchestrator) ReloadRules() error {
	o.rulesMu.Lock()
	defer o.rulesMu.Unlock()
	next, err := o.rules.Reload()
	if err != nil {
		return err
	}
	o.rules = next
	o.logger.Info("rules reloaded", logging.Field{Key: "source", Value: next.Source()})
	return nil
}

// ProgressFunc observes pipeline stages during a synchronous run.
type ProgressFunc func(percent int, stage string)

// AnalyzeFile runs the full pipeline on a requirements file and returns the
// report. This is the synchronous path used by the CLI.
func (o *Orchestrator) AnalyzeFile(ctx context.Context, path string) (*model.Report, error) {
	return o.AnalyzeFileObserved(ctx, path, nil)
}

// AnalyzeFileObserved is AnalyzeFile with a progress observer. observe may
// be nil.
func (o *Orchestrator) AnalyzeFileObserved(ctx context.Context, path string, observe ProgressFunc) (*model.Report, error) {
	if observe == nil {
		observe = func(int, string) {}
	}

	observe(StageLoading, "loading document")
	reqs, err := o.loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	observe(StageParsing, "parsing requirements")
	observe(StageDetecting, "running detectors")

	rep, err := o.analyze(ctx, path, reqs, func(done, total int) {
		observe(detectionProgress(done, total), "running detectors")
	})
	if err != nil {
		return nil, err
	}

	observe(StageScoring, "scoring requirements")
	observe(StageGenerating, "generating report")
	observe(StageComplete, "complete")
	return rep, nil
}

// detectionProgress maps detector completion onto the detecting..scoring
// progress band.
func detectionProgress(done, total int) int {
	p := StageDetecting
	if total > 0 {
		p += (StageScoring - StageDetecting) * done / total
	}
	return p
}

// AnalyzeDocument runs the pipeline on in-memory document content.
func (o *Orchestrator) AnalyzeDocument(ctx context.Context, name string, content []byte) (*model.Report, error) {
	reqs, err := o.loader.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return o.analyze(ctx, name, reqs, nil)
}

// analyze is the shared pipeline core: build the enabled detector set, run
// the engine, score, rank, assemble the report.
func (o *Orchestrator) analyze(ctx context.Context, sourceName string, reqs []model.Requirement, onProgress func(done, total int)) (*model.Report, error) {
	ruleCfg := o.Rules()

	ds, err := o.detectors.BuildEnabled(ruleCfg)
	if err != nil {
		return nil, fmt.Errorf("build detectors: %w", err)
	}

	engine := analyzer.NewEngine(ds, o.cfg.Workers, o.logger)
	engine.OnProgress = onProgress

	started := time.Now()
	risks, err := engine.Analyze(ctx, reqs)
	if err != nil {
		return nil, err
	}

	summaries := scoring.Summarize(reqs, risks)
	top := scoring.TopN(reqs, risks, summaries, o.cfg.TopN)

	rep := &model.Report{
		SourceFile:   sourceName,
		GeneratedAt:  time.Now().UTC(),
		Requirements: reqs,
		Risks:        risks,
		Summaries:    summaries,
		TopRisks:     top,
	}

	o.logger.Info("analysis complete",
		logging.Field{Key: "source", Value: sourceName},
		logging.Field{Key: "requirements", Value: len(reqs)},
		logging.Field{Key: "risks", Value: rep.TotalRisks()},
		logging.Field{Key: "duration_ms", Value: time.Since(started).Milliseconds()})
	return rep, nil
}

// StartAnalysisJob launches an asynchronous analysis of a stored upload and
// returns immediately with the pending job. Progress and status changes are
// delivered on the job's Events channel, which closes when the job ends.
func (o *Orchestrator) StartAnalysisJob(ctx context.Context, uploadID string) (*Job, error) {
	if o.store == nil {
		return nil, fmt.Errorf("no storage configured for analysis jobs")
	}

	up, err := o.store.GetUpload(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	o.pruneJobs()

	job := &Job{
		ID:        uuid.New().String(),
		UploadID:  up.ID,
		Filename:  up.Filename,
		Status:    JobPending,
		StartedAt: time.Now().UTC(),
		Events:    make(chan JobEvent, o.cfg.JobEventBuffer),
	}
	o.setJob(job)

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.setCancel(job.ID, cancel)

	o.emitStatus(job.ID, JobPending, "")

	go o.runAnalysisJob(jobCtx, job.ID, up)

	return job, nil
}

// runAnalysisJob drives one job through the pipeline stages.
func (o *Orchestrator) runAnalysisJob(ctx context.Context, jobID string, up *registry.Upload) {
	defer func() {
		o.jobsMu.Lock()
		job := o.jobs[jobID]
		if job != nil {
			job.EndedAt = time.Now().UTC()
		}
		o.jobsMu.Unlock()
		o.deleteCancel(jobID)
		if job != nil && job.Events != nil {
			close(job.Events)
		}
	}()

	o.updateJob(jobID, func(j *Job) { j.Status = JobRunning })
	o.emitStatus(jobID, JobRunning, "")
	o.emitProgress(jobID, StageLoading, 0, 0)

	reqs, err := o.loader.Parse(bytes.NewReader(up.Content))
	if err != nil {
		o.failJob(jobID, err)
		return
	}
	o.emitProgress(jobID, StageParsing, 0, len(reqs))
	o.emitProgress(jobID, StageDetecting, 0, len(reqs))

	rep, err := o.analyze(ctx, up.Filename, reqs, func(done, total int) {
		p := detectionProgress(done, total)
		o.updateJob(jobID, func(j *Job) { j.Progress = p })
		o.emitProgress(jobID, p, done, total)
	})
	if err != nil {
		if ctx.Err() != nil {
			o.updateJob(jobID, func(j *Job) {
				j.Status = JobCanceled
				j.Error = ctx.Err().Error()
			})
			o.emitStatus(jobID, JobCanceled, ctx.Err().Error())
			return
		}
		o.failJob(jobID, err)
		return
	}

	o.emitProgress(jobID, StageScoring, len(reqs), len(reqs))
	o.emitProgress(jobID, StageGenerating, len(reqs), len(reqs))

	if _, err := o.store.SaveReport(ctx, up.ID, jobID, rep); err != nil {
		o.failJob(jobID, fmt.Errorf("persist report: %w", err))
		return
	}

	o.updateJob(jobID, func(j *Job) {
		j.Status = JobDone
		j.Progress = StageComplete
		j.Report = rep
	})
	o.emitProgress(jobID, StageComplete, len(reqs), len(reqs))
	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventResult, Status: JobDone, Progress: StageComplete})
}

func (o *Orchestrator) failJob(jobID string, err error) {
	o.logger.Error("analysis job failed",
		logging.Field{Key: "job_id", Value: jobID},
		logging.Field{Key: "error", Value: err.Error()})
	o.updateJob(jobID, func(j *Job) {
		j.Status = JobFailed
		j.Error = err.Error()
	})
	o.emitStatus(jobID, JobFailed, err.Error())
}

// GetJob returns a job by id, or nil when unknown.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	return o.jobs[jobID]
}

// ListJobs returns all known jobs, unordered.
func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, j)
	}
	return out
}

// CancelJob cancels a running job. Unknown or finished jobs are a no-op.
func (o *Orchestrator) CancelJob(jobID string) {
	o.jobsMu.Lock()
	cancel := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// pruneJobs drops finished jobs older than the retention window.
func (o *Orchestrator) pruneJobs() {
	if o.cfg.JobRetention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-o.cfg.JobRetention)
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	for id, j := range o.jobs {
		switch j.Status {
		case JobDone, JobFailed, JobCanceled:
			if !j.EndedAt.IsZero() && j.EndedAt.Before(cutoff) {
				delete(o.jobs, id)
			}
		}
	}
}

func (o *Orchestrator) setJob(job *Job) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	o.jobs[job.ID] = job
}

func (o *Orchestrator) updateJob(jobID string, fn func(*Job)) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if j, ok := o.jobs[jobID]; ok {
		fn(j)
	}
}

func (o *Orchestrator) setCancel(jobID string, cancel context.CancelFunc) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	o.jobCancels[jobID] = cancel
}

func (o *Orchestrator) deleteCancel(jobID string) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	delete(o.jobCancels, jobID)
}

func (o *Orchestrator) emitStatus(jobID string, status JobStatus, errMsg string) {
	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: status, Error: errMsg})
}

func (o *Orchestrator) emitProgress(jobID string, progress, processed, total int) {
	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventProgress, Progress: progress, Processed: processed, Total: total})
}

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}
