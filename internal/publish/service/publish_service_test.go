package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richmenu-studio/richmenu-backend/internal/menu"
	"github.com/richmenu-studio/richmenu-backend/internal/publish/domain"
	"github.com/richmenu-studio/richmenu-backend/internal/publish/line"
)

type fakeLineAPI struct {
	mu      sync.Mutex
	calls   []string
	failOn  map[string]error
	nextID  int
	aliases map[string]string // known alias -> rich menu id
}

func newFakeLineAPI() *fakeLineAPI {
	return &fakeLineAPI{
		failOn:  make(map[string]error),
		aliases: make(map[string]string),
	}
}

func (f *fakeLineAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeLineAPI) ListMenus(ctx context.Context, token string) ([]line.RichMenuSummary, error) {
	return nil, f.record("ListMenus")
}

func (f *fakeLineAPI) DeleteMenu(ctx context.Context, token, id string) error {
	return f.record("DeleteMenu")
}

func (f *fakeLineAPI) CreateMenu(ctx context.Context, token string, payload menu.Payload) (string, error) {
	if err := f.record("CreateMenu"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("richmenu-%d", f.nextID), nil
}

func (f *fakeLineAPI) UploadImage(ctx context.Context, token, id string, img []byte) error {
	return f.record("UploadImage")
}

func (f *fakeLineAPI) UpdateAlias(ctx context.Context, token, aliasID, richMenuID string) error {
	if err := f.record("UpdateAlias"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.aliases[aliasID]; !ok {
		return &line.APIError{Status: 404, Body: `{"message":"richmenu alias not found"}`}
	}
	f.aliases[aliasID] = richMenuID
	return nil
}

func (f *fakeLineAPI) CreateAlias(ctx context.Context, token, aliasID, richMenuID string) error {
	if err := f.record("CreateAlias"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aliases[aliasID] = richMenuID
	return nil
}

func (f *fakeLineAPI) ListAliases(ctx context.Context, token string) ([]line.Alias, error) {
	return nil, f.record("ListAliases")
}

func (f *fakeLineAPI) DeleteAlias(ctx context.Context, token, aliasID string) error {
	return f.record("DeleteAlias")
}

func (f *fakeLineAPI) SetDefault(ctx context.Context, token, richMenuID string) error {
	return f.record("SetDefault")
}

func (f *fakeLineAPI) UnsetDefault(ctx context.Context, token string) error {
	return f.record("UnsetDefault")
}

type fakeJobStore struct {
	job        *domain.PublishJob
	lastStatus string
	lastError  string
}

func (s *fakeJobStore) Insert(ctx context.Context, job *domain.PublishJob) error {
	job.ID = "job-1"
	s.job = job
	s.lastStatus = job.Status
	return nil
}

func (s *fakeJobStore) UpdateProgress(ctx context.Context, jobID, step string, progress []domain.MenuProgress) error {
	return nil
}

func (s *fakeJobStore) UpdateStatus(ctx context.Context, jobID, status, errMsg string) error {
	s.lastStatus = status
	s.lastError = errMsg
	return nil
}

type fakeVersionStore struct {
	rows []domain.Version
}

func (s *fakeVersionStore) Insert(ctx context.Context, v *domain.Version) error {
	s.rows = append(s.rows, *v)
	return nil
}

func (s *fakeVersionStore) DeactivateByAlias(ctx context.Context, userID, aliasID string) error {
	for i := range s.rows {
		if s.rows[i].UserID == userID && s.rows[i].AliasID == aliasID {
			s.rows[i].IsActive = false
		}
	}
	return nil
}

func (s *fakeVersionStore) activeCount(aliasID string) int {
	n := 0
	for _, v := range s.rows {
		if v.AliasID == aliasID && v.IsActive {
			n++
		}
	}
	return n
}

func validImage(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 800, 400))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func publishInput(t *testing.T, clean bool) PublishInput {
	return PublishInput{
		UserID:        "user-1",
		AccessToken:   "token",
		DraftID:       "draft-1",
		CleanOldMenus: clean,
		Menus: []menu.PublishMenu{
			{
				MenuData:    menu.Payload{Name: "Main", ChatBarText: "Menu"},
				ImageBase64: validImage(t),
				AliasID:     "mainalias",
				IsMain:      true,
				MenuName:    "Main",
			},
			{
				MenuData:    menu.Payload{Name: "Sub", ChatBarText: "Sub"},
				ImageBase64: validImage(t),
				AliasID:     "subalias",
				IsMain:      false,
				MenuName:    "Sub",
			},
		},
	}
}

func TestPublish_Success(t *testing.T) {
	api := newFakeLineAPI()
	jobs := &fakeJobStore{}
	versions := &fakeVersionStore{}
	svc := NewPublishService(api, jobs, versions, nil)

	out, err := svc.Publish(context.Background(), publishInput(t, false))
	require.NoError(t, err)

	assert.Equal(t, "job-1", out.JobID)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "mainalias", out.Results[0].AliasID)
	assert.True(t, out.Results[0].IsMain)
	assert.Equal(t, out.Results[0].RichMenuID, out.MainMenuID)

	assert.Equal(t, domain.JobCompleted, jobs.lastStatus)
	for _, p := range jobs.job.Progress {
		assert.Equal(t, domain.ProgressSuccess, p.Status)
		assert.NotEmpty(t, p.RichMenuID)
	}

	require.Len(t, versions.rows, 2)
	assert.True(t, versions.rows[0].IsActive)
	assert.Equal(t, "job-1", versions.rows[0].JobID)

	// Fresh aliases: update got 404, create followed.
	assert.Contains(t, api.calls, "UpdateAlias")
	assert.Contains(t, api.calls, "CreateAlias")
	assert.Contains(t, api.calls, "SetDefault")
}

func TestPublish_UploadFailureAbortsMenu(t *testing.T) {
	api := newFakeLineAPI()
	api.failOn["UploadImage"] = errors.New("line api returned status 400: invalid image")
	jobs := &fakeJobStore{}
	versions := &fakeVersionStore{}
	svc := NewPublishService(api, jobs, versions, nil)

	out, err := svc.Publish(context.Background(), publishInput(t, false))
	require.Error(t, err)
	assert.Equal(t, "job-1", out.JobID, "job id survives the failure")

	// First menu failed at upload_image; nothing after that step ran.
	p := jobs.job.Progress[0]
	assert.Equal(t, domain.StepUploadImage, p.Step)
	assert.Equal(t, domain.ProgressFailed, p.Status)
	assert.Contains(t, p.Error, "invalid image")

	assert.NotContains(t, api.calls, "UpdateAlias")
	assert.NotContains(t, api.calls, "CreateAlias")
	assert.Empty(t, versions.rows, "no version row for a failed menu")

	// Second menu never started.
	assert.Equal(t, domain.ProgressPending, jobs.job.Progress[1].Status)

	assert.Equal(t, domain.JobFailed, jobs.lastStatus)
	assert.Contains(t, jobs.lastError, "invalid image")
}

func TestPublish_CreateFailureAbortsPublish(t *testing.T) {
	api := newFakeLineAPI()
	api.failOn["CreateMenu"] = errors.New("line api returned status 429: quota exceeded")
	jobs := &fakeJobStore{}
	svc := NewPublishService(api, jobs, &fakeVersionStore{}, nil)

	_, err := svc.Publish(context.Background(), publishInput(t, false))
	require.Error(t, err)

	assert.Equal(t, domain.StepCreateMenu, jobs.job.Progress[0].Step)
	assert.Equal(t, domain.ProgressFailed, jobs.job.Progress[0].Status)
	assert.NotContains(t, api.calls, "UploadImage")
}

func TestPublish_IdempotentRepublish(t *testing.T) {
	api := newFakeLineAPI()
	jobs := &fakeJobStore{}
	versions := &fakeVersionStore{}
	svc := NewPublishService(api, jobs, versions, nil)

	in := publishInput(t, false)
	_, err := svc.Publish(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, versions.activeCount("mainalias"))

	_, err = svc.Publish(context.Background(), in)
	require.NoError(t, err)

	// Two rows total for the alias, exactly one active: history appended,
	// never deleted.
	total := 0
	for _, v := range versions.rows {
		if v.AliasID == "mainalias" {
			total++
		}
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, versions.activeCount("mainalias"))

	// The second publish found the alias and rebound it without creating.
	creates := 0
	for _, c := range api.calls {
		if c == "CreateAlias" {
			creates++
		}
	}
	assert.Equal(t, 2, creates, "one create per alias, first publish only")
}

func TestPublish_WipeFailuresAreNonFatal(t *testing.T) {
	api := newFakeLineAPI()
	api.failOn["UnsetDefault"] = errors.New("line api returned status 500: oops")
	api.failOn["ListAliases"] = errors.New("line api returned status 500: oops")
	api.failOn["ListMenus"] = errors.New("line api returned status 500: oops")
	jobs := &fakeJobStore{}
	svc := NewPublishService(api, jobs, &fakeVersionStore{}, nil)

	out, err := svc.Publish(context.Background(), publishInput(t, true))
	require.NoError(t, err)
	assert.Len(t, out.Results, 2)
	assert.Equal(t, domain.JobCompleted, jobs.lastStatus)
}

func TestPublish_SetDefaultFailureIsNonFatal(t *testing.T) {
	api := newFakeLineAPI()
	api.failOn["SetDefault"] = errors.New("line api returned status 500: oops")
	jobs := &fakeJobStore{}
	svc := NewPublishService(api, jobs, &fakeVersionStore{}, nil)

	out, err := svc.Publish(context.Background(), publishInput(t, false))
	require.NoError(t, err)
	assert.NotEmpty(t, out.MainMenuID)
	assert.Equal(t, domain.JobCompleted, jobs.lastStatus)
}

func TestPublish_RejectsEmptyAndInvalidInput(t *testing.T) {
	svc := NewPublishService(newFakeLineAPI(), &fakeJobStore{}, &fakeVersionStore{}, nil)

	t.Run("no menus", func(t *testing.T) {
		_, err := svc.Publish(context.Background(), PublishInput{UserID: "user-1"})
		assert.ErrorIs(t, err, domain.ErrNoMenus)
	})

	t.Run("oversized image refused before any job exists", func(t *testing.T) {
		jobs := &fakeJobStore{}
		svc := NewPublishService(newFakeLineAPI(), jobs, &fakeVersionStore{}, nil)

		in := publishInput(t, false)
		in.Menus[0].ImageBase64 = base64.StdEncoding.EncodeToString(make([]byte, menu.MaxImageBytes+1))

		_, err := svc.Publish(context.Background(), in)
		require.Error(t, err)
		assert.Nil(t, jobs.job, "validation failures must not create a job")
	})
}

func TestPublish_MenuWithoutImageSkipsUpload(t *testing.T) {
	api := newFakeLineAPI()
	jobs := &fakeJobStore{}
	svc := NewPublishService(api, jobs, &fakeVersionStore{}, nil)

	in := publishInput(t, false)
	in.Menus = in.Menus[:1]
	in.Menus[0].ImageBase64 = ""

	out, err := svc.Publish(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, out.Results, 1)
	assert.NotContains(t, api.calls, "UploadImage")
}
