// Package datasource owns the authoritative task collection. It loads it from
// the remote source or a file import, keeps the local backup up to date and
// applies edits optimistically while the outbox syncs them back.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"project-tracker/internal/converter"
	"project-tracker/internal/importer"
	"project-tracker/internal/log"
	"project-tracker/internal/models"
	"project-tracker/internal/normalize"
	"project-tracker/internal/outbox"
	"project-tracker/internal/realtime"
	"project-tracker/internal/store"
	"project-tracker/internal/validation"
)

// State is the controller state.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateOffline State = "offline"
)

// SourceKind tells where the current collection came from.
type SourceKind string

const (
	SourceInitial SourceKind = "initial"
	SourceRemote  SourceKind = "remote"
	SourceBackup  SourceKind = "backup"
	SourceFile    SourceKind = "file"
)

// Source reads the raw task records.
type Source interface {
	Read(ctx context.Context) ([]map[string]any, error)
}

// Backups persists the offline copy of the collection.
type Backups interface {
	SaveBackup(ctx context.Context, tasks []models.Task, source string) error
	LoadBackup(ctx context.Context) (store.Backup, error)
}

// Outbox queues remote mutations.
type Outbox interface {
	Enqueue(ctx context.Context, action models.OperationAction, task models.Task) (models.Operation, error)
}

// Publisher broadcasts collection changes.
type Publisher interface {
	Publish(ev realtime.Event)
}

// Config is the configuration of Controller.
type Config struct {
	Source     Source
	Converter  *converter.Converter
	Normalizer *normalize.Normalizer
	Validator  *validation.Validator
	Backups    Backups
	// Outbox is optional, without it the controller never pushes changes.
	Outbox Outbox
	// Kick asks the outbox worker to flush now.
	Kick           func()
	Publisher      Publisher
	Timeout        time.Duration
	ReconcileDelay time.Duration
	// Initial is the collection used when neither the source nor a backup is
	// available.
	Initial []models.Task
	Logger  log.Logger
}

func (c *Config) defaults() error {
	if c.Backups == nil {
		return fmt.Errorf("backups are required")
	}
	if c.Normalizer == nil {
		c.Normalizer = normalize.New(nil, nil)
	}
	if c.Converter == nil {
		return fmt.Errorf("converter is required")
	}
	if c.Validator == nil {
		c.Validator = validation.New(c.Normalizer, nil)
	}
	if c.Kick == nil {
		c.Kick = func() {}
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	if c.Timeout <= 0 {
		c.Timeout = 8 * time.Second
	}
	if c.ReconcileDelay < 0 {
		c.ReconcileDelay = 0
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "datasource.Controller"})
	return nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(realtime.Event) {}

// Status describes the controller without the tasks.
type Status struct {
	State         State      `json:"state"`
	Source        SourceKind `json:"source"`
	Offline       bool       `json:"offline"`
	Error         string     `json:"error,omitempty"`
	FileName      string     `json:"fileName,omitempty"`
	Revision      uint64     `json:"revision"`
	Count         int        `json:"count"`
	LoadedAt      time.Time  `json:"loadedAt"`
	LastSyncError string     `json:"lastSyncError,omitempty"`
}

// Controller is safe for concurrent use.
type Controller struct {
	source         Source
	conv           *converter.Converter
	norm           *normalize.Normalizer
	validator      *validation.Validator
	backups        Backups
	outbox         Outbox
	kick           func()
	publisher      Publisher
	timeout        time.Duration
	reconcileDelay time.Duration
	initial        []models.Task
	logger         log.Logger

	mu            sync.RWMutex
	tasks         []models.Task
	state         State
	sourceKind    SourceKind
	errMsg        string
	fileName      string
	revision      uint64
	loadedAt      time.Time
	lastSyncError string
	// reconcile maps the op id of a pushed create to the revision it produced.
	reconcile map[string]uint64
	timers    []*time.Timer
}

// New returns a Controller in the loading state with the initial collection.
func New(cfg Config) (*Controller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid datasource config: %w", err)
	}
	return &Controller{
		source:         cfg.Source,
		conv:           cfg.Converter,
		norm:           cfg.Normalizer,
		validator:      cfg.Validator,
		backups:        cfg.Backups,
		outbox:         cfg.Outbox,
		kick:           cfg.Kick,
		publisher:      cfg.Publisher,
		timeout:        cfg.Timeout,
		reconcileDelay: cfg.ReconcileDelay,
		initial:        models.CloneTasks(cfg.Initial),
		logger:         cfg.Logger,

		tasks:      models.CloneTasks(cfg.Initial),
		state:      StateLoading,
		sourceKind: SourceInitial,
		reconcile:  map[string]uint64{},
	}, nil
}

// Tasks returns a copy of the collection.
func (c *Controller) Tasks() []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return models.CloneTasks(c.tasks)
}

// Task returns one task or models.ErrNotFound.
func (c *Controller) Task(id models.TaskID) (models.Task, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := indexOf(c.tasks, id); i >= 0 {
		return c.tasks[i], nil
	}
	return models.Task{}, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
}

// Status returns the controller status.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{
		State:         c.state,
		Source:        c.sourceKind,
		Offline:       c.state == StateOffline,
		Error:         c.errMsg,
		FileName:      c.fileName,
		Revision:      c.revision,
		Count:         len(c.tasks),
		LoadedAt:      c.loadedAt,
		LastSyncError: c.lastSyncError,
	}
}

// Today is the reference date of the controller's clock.
func (c *Controller) Today() string { return c.validator.Today() }

// Load fetches the collection from the source. Failures never propagate: the
// controller falls back to the local backup, or to the initial collection,
// and goes offline with an annotated error.
func (c *Controller) Load(ctx context.Context) Status {
	c.mu.Lock()
	c.state = StateLoading
	c.mu.Unlock()

	records, err := c.read(ctx)
	if err != nil {
		return c.fallback(ctx, err)
	}

	res, kind := c.conv.Normalize(records)
	if len(res.Errors) > 0 {
		c.logger.Warningf("%d of %d remote records skipped: %s", res.Stats.Failed, res.Stats.Total, strings.Join(res.Errors, "; "))
	}
	c.logger.Infof("loaded %d tasks from the remote source (%s records)", len(res.Data), kind)

	c.mu.Lock()
	c.tasks = res.Data
	c.state = StateReady
	c.sourceKind = SourceRemote
	c.errMsg = ""
	c.fileName = ""
	c.loadedAt = time.Now().UTC()
	c.revision++
	snapshot := models.CloneTasks(c.tasks)
	c.mu.Unlock()

	c.backup(ctx, snapshot, string(SourceRemote))
	c.publisher.Publish(realtime.Event{Type: realtime.EventTasksLoaded, Data: c.Status()})
	return c.Status()
}

func (c *Controller) read(ctx context.Context) ([]map[string]any, error) {
	if c.source == nil {
		return nil, errors.New("no remote source configured")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.source.Read(ctx)
}

func (c *Controller) fallback(ctx context.Context, cause error) Status {
	msg := cause.Error()
	c.logger.Warningf("remote load failed: %s", msg)

	b, err := c.backups.LoadBackup(ctx)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		c.logger.Errorf("could not read local backup: %s", err)
	}

	c.mu.Lock()
	if err == nil {
		c.tasks = b.Tasks
		c.sourceKind = SourceBackup
		c.errMsg = fmt.Sprintf("%s - using local backup (%s)", msg, b.SavedAt.UTC().Format(time.RFC3339))
		c.fileName = ""
		if b.Source != string(SourceRemote) {
			c.fileName = b.Source
		}
	} else {
		c.tasks = models.CloneTasks(c.initial)
		c.sourceKind = SourceInitial
		c.errMsg = msg
		c.fileName = ""
	}
	c.state = StateOffline
	c.loadedAt = time.Now().UTC()
	c.revision++
	c.mu.Unlock()

	c.publisher.Publish(realtime.Event{Type: realtime.EventTasksLoaded, Data: c.Status()})
	return c.Status()
}

// ImportResult reports a successful (maybe partial) import.
type ImportResult struct {
	Stats   converter.Stats `json:"stats"`
	Errors  []string        `json:"errors"`
	Partial bool            `json:"partial"`
}

// Import replaces the collection with the rows of a spreadsheet or CSV file.
// Parse errors and imports with no convertible row leave the collection as it
// was. File data is not pushed to the remote source.
func (c *Controller) Import(ctx context.Context, filename string, r io.Reader) (ImportResult, error) {
	records, err := importer.Parse(filename, r)
	if err != nil {
		return ImportResult{}, err
	}

	res := c.conv.ConvertExternalToTask(records)
	if res.Stats.Converted == 0 {
		return ImportResult{Stats: res.Stats, Errors: res.Errors}, &ImportError{File: filename, Errors: res.Errors}
	}

	c.mu.Lock()
	c.tasks = res.Data
	c.state = StateOffline
	c.sourceKind = SourceFile
	c.fileName = filename
	c.errMsg = ""
	c.loadedAt = time.Now().UTC()
	c.revision++
	snapshot := models.CloneTasks(c.tasks)
	c.mu.Unlock()

	c.backup(ctx, snapshot, filename)
	c.logger.Infof("imported %d of %d rows from %s", res.Stats.Converted, res.Stats.Total, filename)
	c.publisher.Publish(realtime.Event{Type: realtime.EventTasksLoaded, Data: c.Status()})

	return ImportResult{Stats: res.Stats, Errors: res.Errors, Partial: !res.Success}, nil
}

// SaveRequest is a create (Editing false) or a full replace of an existing task.
type SaveRequest struct {
	Task                models.Task `json:"task"`
	Editing             bool        `json:"editing"`
	AcknowledgeWarnings bool        `json:"acknowledgeWarnings"`
}

// SaveResult is an accepted save.
type SaveResult struct {
	Task     models.Task `json:"task"`
	Warnings []string    `json:"warnings,omitempty"`
	Queued   bool        `json:"queued"`
	OpID     string      `json:"opId,omitempty"`
}

// Check normalizes the task of a request and returns every issue a save would
// raise. It does not modify the collection.
func (c *Controller) Check(req SaveRequest) (models.Task, validation.Issues) {
	t := req.Task
	t.ID = models.TaskID(strings.TrimSpace(string(t.ID)))
	if strings.TrimSpace(t.Date) == "" {
		t.Date = c.validator.Today()
	} else if d := c.norm.Date(t.Date); d != "" {
		t.Date = d
	}
	t.StartDate = c.norm.Date(t.StartDate)
	t.IssueDate = c.norm.Date(t.IssueDate)
	t.Dependency = strings.Join(validation.ParseDependencies(t.Dependency), ",")

	issues := c.validator.ValidateTask(t)

	if t.Dependency == "" {
		return t, issues
	}
	all := c.Tasks()
	deps := validation.ValidateDependencies(t.Dependency, t.ID, all)
	if req.Editing {
		// Every dependency problem blocks an edit, dangling references included.
		for i := range deps {
			deps[i].Severity = validation.SeverityError
		}
		if validation.DetectCircularDependency(t.ID, t.Dependency, all) {
			deps = append(deps, validation.Issue{
				Severity: validation.SeverityError,
				Field:    "dependency",
				Message:  (&validation.CycleError{TaskID: string(t.ID)}).Error(),
			})
		}
	}
	return t, append(issues, deps...)
}

// Save validates and applies a create or update. The collection and the backup
// are updated before returning; the remote push goes through the outbox when
// online.
func (c *Controller) Save(ctx context.Context, req SaveRequest) (SaveResult, error) {
	t, issues := c.Check(req)
	if issues.HasBlocking() || (len(issues) > 0 && !req.AcknowledgeWarnings) {
		return SaveResult{}, &ValidationError{Issues: issues}
	}

	c.mu.Lock()
	if req.Editing {
		i := indexOf(c.tasks, t.ID)
		if i < 0 {
			c.mu.Unlock()
			return SaveResult{}, fmt.Errorf("task %s: %w", t.ID, models.ErrNotFound)
		}
		c.tasks[i] = t
	} else {
		if t.ID == "" {
			t.ID = nextID(c.tasks)
		} else if indexOf(c.tasks, t.ID) >= 0 {
			c.mu.Unlock()
			return SaveResult{}, fmt.Errorf("task %s: %w", t.ID, models.ErrAlreadyExists)
		}
		c.tasks = append(c.tasks, t)
	}
	c.revision++
	rev := c.revision
	online := c.state == StateReady
	snapshot := models.CloneTasks(c.tasks)
	backupSource := c.backupSource()
	c.mu.Unlock()

	c.backup(ctx, snapshot, backupSource)

	res := SaveResult{Task: t, Warnings: issues.Warnings().Messages()}
	if online && c.outbox != nil {
		action := models.ActionUpsert
		if req.Editing {
			action = models.ActionUpdate
		}
		op, err := c.outbox.Enqueue(ctx, action, t)
		if err != nil {
			c.logger.Errorf("could not queue %s of task %s: %s", action, t.ID, err)
		} else {
			if !req.Editing {
				c.mu.Lock()
				c.reconcile[op.ID] = rev
				c.mu.Unlock()
			}
			res.Queued, res.OpID = true, op.ID
			c.kick()
		}
	}

	c.publisher.Publish(realtime.Event{Type: realtime.EventTaskSaved, Data: t})
	return res, nil
}

// Delete removes a task after explicit confirmation.
func (c *Controller) Delete(ctx context.Context, id models.TaskID, confirmed bool) error {
	if !confirmed {
		return models.ErrConfirmationRequired
	}

	c.mu.Lock()
	i := indexOf(c.tasks, id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	removed := c.tasks[i]
	c.tasks = append(c.tasks[:i:i], c.tasks[i+1:]...)
	c.revision++
	online := c.state == StateReady
	snapshot := models.CloneTasks(c.tasks)
	backupSource := c.backupSource()
	c.mu.Unlock()

	c.backup(ctx, snapshot, backupSource)

	if online && c.outbox != nil {
		if _, err := c.outbox.Enqueue(ctx, models.ActionDelete, removed); err != nil {
			c.logger.Errorf("could not queue delete of task %s: %s", id, err)
		} else {
			c.kick()
		}
	}

	c.publisher.Publish(realtime.Event{Type: realtime.EventTaskDeleted, Data: map[string]any{"id": id}})
	return nil
}

// HandleSyncResult is the outbox worker callback. Failures are reported and
// never roll back local state. A delivered create schedules a reconciling
// re-fetch.
func (c *Controller) HandleSyncResult(r outbox.Result) {
	c.mu.Lock()
	rev, isCreate := c.reconcile[r.Op.ID]
	if r.Err == nil || r.GaveUp {
		delete(c.reconcile, r.Op.ID)
	}
	if r.Err != nil {
		c.lastSyncError = fmt.Sprintf("%s of task %s: %s", r.Op.Action, r.Op.TaskID, r.Err)
	}
	c.mu.Unlock()

	if r.Err != nil {
		if r.GaveUp {
			c.publisher.Publish(realtime.Event{Type: realtime.EventSyncFailed, Data: map[string]any{
				"opId":   r.Op.ID,
				"taskId": r.Op.TaskID,
				"action": r.Op.Action,
				"error":  r.Err.Error(),
			}})
		}
		return
	}

	if isCreate {
		c.scheduleReconcile(rev)
	}
}

func (c *Controller) scheduleReconcile(rev uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := time.AfterFunc(c.reconcileDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if _, err := c.Reconcile(ctx, rev); err != nil {
			c.logger.Warningf("reconcile failed: %s", err)
		}
	})
	c.timers = append(c.timers, t)
}

// Reconcile re-reads the source and applies it only when the collection is
// still at revision rev. It reports whether the result was applied.
func (c *Controller) Reconcile(ctx context.Context, rev uint64) (bool, error) {
	records, err := c.read(ctx)
	if err != nil {
		return false, err
	}
	res, _ := c.conv.Normalize(records)

	c.mu.Lock()
	if c.revision != rev || c.state != StateReady {
		current := c.revision
		c.mu.Unlock()
		c.logger.Debugf("reconcile for revision %d skipped, collection is at %d", rev, current)
		return false, nil
	}
	c.tasks = res.Data
	c.revision++
	c.loadedAt = time.Now().UTC()
	snapshot := models.CloneTasks(c.tasks)
	c.mu.Unlock()

	c.backup(ctx, snapshot, string(SourceRemote))
	c.publisher.Publish(realtime.Event{Type: realtime.EventTasksLoaded, Data: c.Status()})
	return true, nil
}

// Close stops pending reconciliations.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
}

func (c *Controller) backupSource() string {
	if c.sourceKind == SourceFile && c.fileName != "" {
		return c.fileName
	}
	return string(SourceRemote)
}

func (c *Controller) backup(ctx context.Context, tasks []models.Task, source string) {
	if err := c.backups.SaveBackup(ctx, tasks, source); err != nil {
		c.logger.Warningf("local backup failed: %s", err)
	}
}

func indexOf(tasks []models.Task, id models.TaskID) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// nextID is one past the largest integer id in use.
func nextID(tasks []models.Task) models.TaskID {
	max := 0
	for _, t := range tasks {
		if n, ok := t.ID.Int(); ok && n > max {
			max = n
		}
	}
	return models.TaskID(strconv.Itoa(max + 1))
}
