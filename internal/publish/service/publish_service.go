package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/richmenu-studio/richmenu-backend/internal/menu"
	"github.com/richmenu-studio/richmenu-backend/internal/publish/domain"
	"github.com/richmenu-studio/richmenu-backend/internal/publish/line"
)

// LineAPI is the slice of the LINE Messaging API the orchestrator drives.
type LineAPI interface {
	ListMenus(ctx context.Context, token string) ([]line.RichMenuSummary, error)
	DeleteMenu(ctx context.Context, token, richMenuID string) error
	CreateMenu(ctx context.Context, token string, payload menu.Payload) (string, error)
	UploadImage(ctx context.Context, token, richMenuID string, image []byte) error
	UpdateAlias(ctx context.Context, token, aliasID, richMenuID string) error
	CreateAlias(ctx context.Context, token, aliasID, richMenuID string) error
	ListAliases(ctx context.Context, token string) ([]line.Alias, error)
	DeleteAlias(ctx context.Context, token, aliasID string) error
	SetDefault(ctx context.Context, token, richMenuID string) error
	UnsetDefault(ctx context.Context, token string) error
}

// JobStore is the durable side of the job ledger.
type JobStore interface {
	Insert(ctx context.Context, job *domain.PublishJob) error
	UpdateProgress(ctx context.Context, jobID, currentStep string, progress []domain.MenuProgress) error
	UpdateStatus(ctx context.Context, jobID, status, errMsg string) error
}

// VersionStore is the durable side of the version ledger.
type VersionStore interface {
	Insert(ctx context.Context, v *domain.Version) error
	DeactivateByAlias(ctx context.Context, userID, aliasID string) error
}

// ProgressCache receives live job snapshots for observers. Optional; a nil
// cache disables live updates.
type ProgressCache interface {
	Set(ctx context.Context, job *domain.PublishJob) error
}

// PublishService drives validated menus through remote provisioning:
// create -> upload image -> bind alias -> record version per menu, then set
// the main menu as the platform-wide default. Everything is strictly
// sequential; each step's remote success gates the next, and the platform
// rate-limits per account.
type PublishService struct {
	line     LineAPI
	jobs     JobStore
	versions VersionStore
	cache    ProgressCache
	fetcher  *http.Client

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewPublishService creates a new PublishService. cache may be nil.
func NewPublishService(lineAPI LineAPI, jobs JobStore, versions VersionStore, cache ProgressCache) *PublishService {
	return &PublishService{
		line:     lineAPI,
		jobs:     jobs,
		versions: versions,
		cache:    cache,
		fetcher: &http.Client{
			Timeout: 30 * time.Second,
		},
		userLocks: make(map[string]*sync.Mutex),
	}
}

// PublishInput is one publish invocation for one user.
type PublishInput struct {
	UserID        string
	AccessToken   string
	DraftID       string
	CleanOldMenus bool
	Menus         []menu.PublishMenu
}

// PublishOutput carries the job ID and, on success, the per-menu results.
type PublishOutput struct {
	JobID      string
	Results    []domain.PublishResult
	MainMenuID string
}

// Publish runs the full provisioning sequence. The returned output always
// carries the job ID once a job row exists, even when err is non-nil, so
// callers can point users at the failed job's progress.
//
// Invocations for the same user are serialized in-process; two concurrent
// publishes would race on the shared remote alias/menu state otherwise.
func (s *PublishService) Publish(ctx context.Context, in PublishInput) (*PublishOutput, error) {
	if len(in.Menus) == 0 {
		return nil, domain.ErrNoMenus
	}
	if err := preflightImages(in.Menus); err != nil {
		return nil, err
	}

	lock := s.userLock(in.UserID)
	lock.Lock()
	defer lock.Unlock()

	job := &domain.PublishJob{
		UserID:      in.UserID,
		DraftID:     in.DraftID,
		Status:      domain.JobPublishing,
		CurrentStep: domain.StepCreateMenu,
		Progress:    make([]domain.MenuProgress, 0, len(in.Menus)),
	}
	for _, m := range in.Menus {
		job.Progress = append(job.Progress, domain.MenuProgress{
			AliasID:  m.AliasID,
			MenuName: m.MenuName,
			Step:     domain.StepCreateMenu,
			Status:   domain.ProgressPending,
		})
	}
	if err := s.jobs.Insert(ctx, job); err != nil {
		return nil, fmt.Errorf("insert publish job: %w", err)
	}
	s.snapshot(ctx, job)

	out := &PublishOutput{JobID: job.ID}

	// Stale leftovers are a nuisance, not a blocker: wipe failures are
	// logged and publishing proceeds.
	if in.CleanOldMenus {
		s.wipeRemote(ctx, in.AccessToken)
	}

	for i := range in.Menus {
		m := in.Menus[i]
		p := &job.Progress[i]

		// Create menu object
		if err := s.transition(ctx, job, p, domain.StepCreateMenu); err != nil {
			return out, s.fail(ctx, job, p, err)
		}
		richMenuID, err := s.line.CreateMenu(ctx, in.AccessToken, m.MenuData)
		if err != nil {
			return out, s.fail(ctx, job, p, err)
		}
		p.RichMenuID = richMenuID

		// Upload image
		image, err := s.resolveImage(ctx, m)
		if err != nil {
			p.Step = domain.StepUploadImage
			return out, s.fail(ctx, job, p, err)
		}
		if image != nil {
			if err := s.transition(ctx, job, p, domain.StepUploadImage); err != nil {
				return out, s.fail(ctx, job, p, err)
			}
			if err := s.line.UploadImage(ctx, in.AccessToken, richMenuID, image); err != nil {
				return out, s.fail(ctx, job, p, err)
			}
		}

		// Bind alias. Prior ledger versions are deactivated before the
		// remote call succeeds; a failure between the two leaves the ledger
		// momentarily without an active version, which is acceptable for an
		// audit trail.
		if err := s.transition(ctx, job, p, domain.StepSetAlias); err != nil {
			return out, s.fail(ctx, job, p, err)
		}
		if err := s.versions.DeactivateByAlias(ctx, in.UserID, m.AliasID); err != nil {
			return out, s.fail(ctx, job, p, err)
		}
		if err := s.bindAlias(ctx, in.AccessToken, m.AliasID, richMenuID); err != nil {
			return out, s.fail(ctx, job, p, err)
		}

		// Record version
		if err := s.transition(ctx, job, p, domain.StepRecordVersion); err != nil {
			return out, s.fail(ctx, job, p, err)
		}
		version := &domain.Version{
			UserID:     in.UserID,
			DraftID:    in.DraftID,
			JobID:      job.ID,
			AliasID:    m.AliasID,
			RichMenuID: richMenuID,
			MenuName:   m.MenuName,
			IsMain:     m.IsMain,
			IsActive:   true,
		}
		if err := s.versions.Insert(ctx, version); err != nil {
			return out, s.fail(ctx, job, p, err)
		}

		p.Status = domain.ProgressSuccess
		if err := s.persistProgress(ctx, job, p.Step); err != nil {
			return out, s.fail(ctx, job, p, err)
		}

		out.Results = append(out.Results, domain.PublishResult{
			AliasID:    m.AliasID,
			RichMenuID: richMenuID,
			IsMain:     m.IsMain,
		})
		if m.IsMain {
			out.MainMenuID = richMenuID
		}
	}

	// The menus exist and are aliased at this point; a stale default
	// pointer is not worth failing the publish over.
	if out.MainMenuID != "" {
		if err := s.persistProgress(ctx, job, domain.StepSetDefault); err != nil {
			log.Printf("[publish] job=%s persist set_default step: %v", job.ID, err)
		}
		if err := s.line.SetDefault(ctx, in.AccessToken, out.MainMenuID); err != nil {
			log.Printf("[publish] job=%s set default menu failed: %v", job.ID, err)
		}
	}

	job.Status = domain.JobCompleted
	if err := s.persistProgress(ctx, job, domain.StepDone); err != nil {
		log.Printf("[publish] job=%s persist completion progress: %v", job.ID, err)
	}
	if err := s.jobs.UpdateStatus(ctx, job.ID, domain.JobCompleted, ""); err != nil {
		log.Printf("[publish] job=%s mark completed: %v", job.ID, err)
	}
	s.snapshot(ctx, job)

	return out, nil
}

// preflightImages refuses to start a publish when an inline image violates
// the platform's hard limits. The validation endpoint reports the same
// errors with friendlier context; this check is the last gate.
func preflightImages(menus []menu.PublishMenu) error {
	for _, m := range menus {
		if m.ImageBase64 == "" {
			continue
		}
		if !menu.ValidateImageFileSize(m.ImageBase64) {
			return fmt.Errorf("menu %q: image exceeds 1MB limit", m.MenuName)
		}
		data, err := menu.DecodeBase64Image(m.ImageBase64)
		if err != nil {
			return fmt.Errorf("menu %q: %w", m.MenuName, err)
		}
		w, h, err := menu.ImageDimensions(data)
		if err != nil {
			return fmt.Errorf("menu %q: %w", m.MenuName, err)
		}
		if err := menu.ValidateImageDimensions(w, h); err != nil {
			return fmt.Errorf("menu %q: %w", m.MenuName, err)
		}
	}
	return nil
}

// wipeRemote unlinks the default menu and deletes every remote alias and
// menu object. Best-effort throughout.
func (s *PublishService) wipeRemote(ctx context.Context, token string) {
	if err := s.line.UnsetDefault(ctx, token); err != nil {
		log.Printf("[publish] unset default menu: %v", err)
	}

	aliases, err := s.line.ListAliases(ctx, token)
	if err != nil {
		log.Printf("[publish] list aliases for wipe: %v", err)
	}
	for _, a := range aliases {
		if err := s.line.DeleteAlias(ctx, token, a.RichMenuAliasID); err != nil {
			log.Printf("[publish] delete alias %s: %v", a.RichMenuAliasID, err)
		}
	}

	menus, err := s.line.ListMenus(ctx, token)
	if err != nil {
		log.Printf("[publish] list menus for wipe: %v", err)
	}
	for _, m := range menus {
		if err := s.line.DeleteMenu(ctx, token, m.RichMenuID); err != nil {
			log.Printf("[publish] delete menu %s: %v", m.RichMenuID, err)
		}
	}
}

// bindAlias updates the alias binding, creating it fresh when the platform
// has never seen it.
func (s *PublishService) bindAlias(ctx context.Context, token, aliasID, richMenuID string) error {
	err := s.line.UpdateAlias(ctx, token, aliasID, richMenuID)
	if line.IsNotFound(err) {
		return s.line.CreateAlias(ctx, token, aliasID, richMenuID)
	}
	return err
}

// resolveImage returns the image bytes for a menu, downloading URL
// references first. A menu without any image yields (nil, nil).
func (s *PublishService) resolveImage(ctx context.Context, m menu.PublishMenu) ([]byte, error) {
	if m.ImageBase64 != "" {
		return menu.DecodeBase64Image(m.ImageBase64)
	}
	if m.ImageURL == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.ImageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	resp, err := s.fetcher.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// transition moves a menu to the given step and persists the whole progress
// array, keeping external observers current.
func (s *PublishService) transition(ctx context.Context, job *domain.PublishJob, p *domain.MenuProgress, step string) error {
	p.Step = step
	return s.persistProgress(ctx, job, step)
}

func (s *PublishService) persistProgress(ctx context.Context, job *domain.PublishJob, currentStep string) error {
	job.CurrentStep = currentStep
	if err := s.jobs.UpdateProgress(ctx, job.ID, currentStep, job.Progress); err != nil {
		return fmt.Errorf("persist job progress: %w", err)
	}
	s.snapshot(ctx, job)
	return nil
}

// fail marks the menu's progress and the job as failed with the causing
// error, preserving progress up to the point of failure, then returns the
// error for the caller. Already-created remote menus are left as orphans
// until the next full wipe.
func (s *PublishService) fail(ctx context.Context, job *domain.PublishJob, p *domain.MenuProgress, cause error) error {
	p.Status = domain.ProgressFailed
	p.Error = cause.Error()
	job.Status = domain.JobFailed
	job.Error = cause.Error()

	if err := s.jobs.UpdateProgress(ctx, job.ID, job.CurrentStep, job.Progress); err != nil {
		log.Printf("[publish] job=%s persist failure progress: %v", job.ID, err)
	}
	if err := s.jobs.UpdateStatus(ctx, job.ID, domain.JobFailed, cause.Error()); err != nil {
		log.Printf("[publish] job=%s mark failed: %v", job.ID, err)
	}
	s.snapshot(ctx, job)

	return cause
}

// snapshot pushes the live job state to the cache; cache trouble never
// affects the publish.
func (s *PublishService) snapshot(ctx context.Context, job *domain.PublishJob) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, job); err != nil {
		log.Printf("[publish] job=%s cache snapshot: %v", job.ID, err)
	}
}

func (s *PublishService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}
