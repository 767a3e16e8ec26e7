package meeting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resido/internal/core/apperror"
	appctx "resido/internal/core/context"
	"resido/internal/core/id"
)

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	items      map[id.ID]*Request
	lastFilter *id.ID
}

func (m *memRepo) Create(_ context.Context, r *Request) error {
	m.items[r.ID] = r
	return nil
}

func (m *memRepo) GetForUpdate(_ context.Context, requestID id.ID) (*Request, error) {
	r, ok := m.items[requestID]
	if !ok {
		return nil, apperror.NewNotFound("meeting request", requestID.String())
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) SaveDecision(_ context.Context, r *Request) error {
	m.items[r.ID] = r
	return nil
}

func (m *memRepo) List(_ context.Context, residentID *id.ID, status Status) ([]*Request, error) {
	m.lastFilter = residentID
	var out []*Request
	for _, r := range m.items {
		if residentID != nil && r.ResidentID != *residentID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

var now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func newTestService() (*Service, *memRepo) {
	repo := &memRepo{items: map[id.ID]*Request{}}
	svc := NewService(repo, passTx{})
	svc.now = func() time.Time { return now }
	return svc, repo
}

func as(class appctx.Class, principal id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: principal.String(), Class: class})
}

func TestRequest(t *testing.T) {
	svc, repo := newTestService()
	resident := id.New()

	r, err := svc.Request(as(appctx.ClassResident, resident), RequestInput{
		Subject:      "  Noise on floor 3 ",
		RequestedFor: now.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Noise on floor 3", r.Subject)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, resident, r.ResidentID)
	assert.Contains(t, repo.items, r.ID)
}

func TestRequest_Rejections(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Request(as(appctx.ClassAdmin, id.New()), RequestInput{Subject: "x", RequestedFor: now.Add(time.Hour)})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	_, err = svc.Request(as(appctx.ClassResident, id.New()), RequestInput{Subject: "x", RequestedFor: now.Add(-time.Hour)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Request(as(appctx.ClassResident, id.New()), RequestInput{RequestedFor: now.Add(time.Hour)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestList_ScopedByClass(t *testing.T) {
	svc, repo := newTestService()
	resident := id.New()
	for _, who := range []id.ID{resident, id.New()} {
		_, err := svc.Request(as(appctx.ClassResident, who), RequestInput{Subject: "hi", RequestedFor: now.Add(time.Hour)})
		require.NoError(t, err)
	}

	own, err := svc.List(as(appctx.ClassResident, resident), "")
	require.NoError(t, err)
	assert.Len(t, own, 1)
	require.NotNil(t, repo.lastFilter)
	assert.Equal(t, resident, *repo.lastFilter)

	all, err := svc.List(as(appctx.ClassAdmin, id.New()), StatusPending)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Nil(t, repo.lastFilter)

	_, err = svc.List(as(appctx.ClassUser, id.New()), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	_, err = svc.List(as(appctx.ClassAdmin, id.New()), "maybe")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidFilterValue))
}

func TestDecide(t *testing.T) {
	svc, _ := newTestService()
	r, err := svc.Request(as(appctx.ClassResident, id.New()), RequestInput{Subject: "hi", RequestedFor: now.Add(time.Hour)})
	require.NoError(t, err)

	admin := id.New()
	_, err = svc.Decide(as(appctx.ClassResident, id.New()), r.ID, StatusApproved, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	_, err = svc.Decide(as(appctx.ClassAdmin, admin), r.ID, StatusPending, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	decided, err := svc.Decide(as(appctx.ClassAdmin, admin), r.ID, StatusApproved, " see you ")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, decided.Status)
	assert.Equal(t, "see you", decided.Note)
	require.NotNil(t, decided.DecidedBy)
	assert.Equal(t, admin, *decided.DecidedBy)

	_, err = svc.Decide(as(appctx.ClassAdmin, admin), r.ID, StatusRejected, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))

	_, err = svc.Decide(as(appctx.ClassAdmin, admin), id.New(), StatusRejected, "")
	assert.True(t, apperror.IsNotFound(err))
}
