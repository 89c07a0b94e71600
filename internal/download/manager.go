package download

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sony/gobreaker"

	"resource-gateway/internal/backend"
	"resource-gateway/internal/domain/resource"
	"resource-gateway/pkg/apperrors"
)

// Status of a download job. SUCCESS and ERROR are terminal; a job never
// leaves a terminal status.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
	StatusError      Status = "ERROR"
	StatusUnknown    Status = "UNKNOWN"
)

// ErrPending signals that the backend call is still running when the bounded
// wait expires; the caller gets the token and polls later.
var ErrPending = errors.New("download still in progress")

// Job is the ephemeral record correlating an async download with its
// terminal payload. Owned by exactly the (UserID, ObjectID) pair that
// created it.
type Job struct {
	Token       string
	UserID      string
	ObjectID    string
	ObjectType  resource.ObjectType
	Status      Status
	Payload     []byte
	ArchivePath string
	ErrMessage  string
	CreatedAt   time.Time
}

const (
	defaultJobCapacity = 4096

	// Two consecutive failures (including bounded-wait expiries) trip the
	// breaker; it is treated as an infrastructure fault, not swallowed.
	breakerTripThreshold = 2
)

// Manager tracks download jobs and drives the bounded-completion protocol: a
// breaker-guarded synchronous attempt that degrades to an accepted+token
// reply. The backend call is never cancelled on caller timeout — aborting it
// would strand the job IN_PROGRESS with no path to completion.
type Manager struct {
	mu      sync.Mutex
	jobs    *expirable.LRU[string, *Job]
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *slog.Logger
}

// NewManager builds a manager. timeout bounds how long a caller waits on the
// synchronous attempt; jobTTL bounds how long an unclaimed job survives.
func NewManager(timeout, jobTTL time.Duration, logger *slog.Logger) *Manager {
	m := &Manager{
		jobs:    expirable.NewLRU[string, *Job](defaultJobCapacity, nil, jobTTL),
		timeout: timeout,
		logger:  logger.With(slog.String("component", "download_manager")),
	}

	m.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "resource-download",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripThreshold
		},
	})

	return m
}

// NewToken allocates a job token keyed by object type: plain file download
// vs. folder-zip assembly.
func (m *Manager) NewToken(objType resource.ObjectType) string {
	if objType == resource.ObjectFolder {
		return "zip-" + uuid.NewString()
	}
	return "file-" + uuid.NewString()
}

// Begin registers a fresh IN_PROGRESS job under token.
func (m *Manager) Begin(token, userID, objectID string, objType resource.ObjectType) *Job {
	job := &Job{
		Token:      token,
		UserID:     userID,
		ObjectID:   objectID,
		ObjectType: objType,
		Status:     StatusInProgress,
		CreatedAt:  time.Now().UTC(),
	}

	m.mu.Lock()
	m.jobs.Add(token, job)
	m.mu.Unlock()

	return job
}

// RunFunc is the backend download call the manager drives.
type RunFunc func(ctx context.Context) (*backend.DownloadResult, error)

type outcome struct {
	res *backend.DownloadResult
	err error
}

// Execute runs fn under the breaker. It returns the result when fn finishes
// inside the bounded wait, ErrPending when it is still running (fn keeps
// going in the background and writes the job's terminal status itself), or
// the breaker/backend error. The job record is updated on every completion
// path, observed or not.
func (m *Manager) Execute(ctx context.Context, job *Job, fn RunFunc) (*backend.DownloadResult, error) {
	out, err := m.breaker.Execute(func() (interface{}, error) {
		done := make(chan outcome, 1)

		// Detached from the request context: the call must run to
		// completion even after the caller has been answered.
		bgCtx := context.WithoutCancel(ctx)
		go func() {
			res, err := fn(bgCtx)
			m.complete(job.Token, res, err)
			done <- outcome{res: res, err: err}
		}()

		select {
		case o := <-done:
			return o.res, o.err
		case <-time.After(m.timeout):
			return nil, ErrPending
		}
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// Fail the job so a poll on the token does not hang forever.
			m.complete(job.Token, nil, err)
			return nil, apperrors.Infrastructure("download_unavailable", "download temporarily unavailable", err)
		}
		return nil, err
	}
	return out.(*backend.DownloadResult), nil
}

// complete writes the terminal status for token. Once a job is terminal it
// stays terminal; late or duplicate completions are dropped.
func (m *Manager) complete(token string, res *backend.DownloadResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs.Get(token)
	if !ok {
		return
	}
	if job.Status == StatusSuccess || job.Status == StatusError {
		return
	}

	if err != nil {
		job.Status = StatusError
		job.ErrMessage = err.Error()
		m.logger.Warn("download job failed",
			slog.String("token", token),
			slog.String("error", err.Error()),
		)
		return
	}

	job.Status = StatusSuccess
	if res != nil {
		job.Payload = res.Payload
		job.ArchivePath = res.ArchivePath
	}
}

// Get returns a snapshot of the job for token, validated against the
// caller's (userId, objectId). The copy is taken under the lock so a poll
// racing a background completion never observes the terminal status without
// its payload fields. A valid token presented by the wrong owner is
// indistinguishable from an unknown one.
func (m *Manager) Get(token, userID, objectID string) (*Job, *apperrors.AppError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs.Get(token)
	if !ok || job.UserID != userID || job.ObjectID != objectID {
		return nil, apperrors.UnknownRequestToken()
	}

	snapshot := *job
	return &snapshot, nil
}

// Remove drops the job record for token, if any.
func (m *Manager) Remove(token string) {
	m.mu.Lock()
	m.jobs.Remove(token)
	m.mu.Unlock()
}
