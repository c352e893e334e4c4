package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medsport/attachments/internal/db/dbtest"
	"github.com/medsport/attachments/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttachment(entityType model.EntityType, entityID string, category model.Category, size int64, createdAt time.Time) *model.Attachment {
	id := uuid.New().String()
	name := fmt.Sprintf("%d-%s.pdf", createdAt.UnixNano(), id)
	return &model.Attachment{
		ID:               id,
		EntityType:       entityType,
		EntityID:         entityID,
		Category:         category,
		Filename:         name,
		OriginalFilename: "report.pdf",
		MimeType:         "application/pdf",
		StoragePath:      "attachments/" + name,
		URL:              "/attachments/" + id + "/view",
		SizeBytes:        size,
		IsSensitive:      true,
		Status:           model.StateActive,
		Version:          1,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func TestCreateAndByID(t *testing.T) {
	repo := NewAttachmentRepository(dbtest.New(t))
	ctx := context.Background()

	a := newAttachment(model.EntityVisitPCMA, "visit-1", model.CategoryECG, 2048, Now())
	digest := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	a.SHA256 = &digest
	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.ByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.EntityType, got.EntityType)
	assert.Equal(t, a.Category, got.Category)
	assert.Equal(t, int64(2048), got.SizeBytes)
	require.NotNil(t, got.SHA256)
	assert.Equal(t, digest, *got.SHA256)
	assert.Nil(t, got.UploadedBy)
	assert.False(t, got.Metadata.Valid)
	assert.True(t, got.IsSensitive)
	assert.True(t, a.CreatedAt.Equal(got.CreatedAt))

	_, err = repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestFilenameIsUnique(t *testing.T) {
	repo := NewAttachmentRepository(dbtest.New(t))
	ctx := context.Background()

	a := newAttachment(model.EntityPlayer, "p1", model.CategoryGeneral, 1, Now())
	require.NoError(t, repo.Create(ctx, a))

	b := newAttachment(model.EntityPlayer, "p1", model.CategoryGeneral, 1, Now())
	b.Filename = a.Filename
	assert.Error(t, repo.Create(ctx, b))
}

func TestListForEntity(t *testing.T) {
	repo := NewAttachmentRepository(dbtest.New(t))
	ctx := context.Background()
	base := Now()

	ecgOld := newAttachment(model.EntityVisit, "v1", model.CategoryECG, 10, base)
	ecgNew := newAttachment(model.EntityVisit, "v1", model.CategoryECG, 20, base.Add(time.Second))
	blood := newAttachment(model.EntityVisit, "v1", model.CategoryBloodTest, 30, base.Add(2*time.Second))
	deleted := newAttachment(model.EntityVisit, "v1", model.CategoryECG, 40, base.Add(3*time.Second))
	deletedAt := base.Add(4 * time.Second)
	deleted.Status = model.StateSoftDeleted
	deleted.DeletedAt = &deletedAt
	other := newAttachment(model.EntityPlayer, "v1", model.CategoryECG, 50, base)

	for _, a := range []*model.Attachment{ecgOld, ecgNew, blood, deleted, other} {
		require.NoError(t, repo.Create(ctx, a))
	}

	t.Run("excludes deleted and orders newest first", func(t *testing.T) {
		list, err := repo.ListForEntity(ctx, ListFilter{EntityType: model.EntityVisit, EntityID: "v1"})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, blood.ID, list[0].ID)
		assert.Equal(t, ecgNew.ID, list[1].ID)
		assert.Equal(t, ecgOld.ID, list[2].ID)
	})

	t.Run("include deleted", func(t *testing.T) {
		list, err := repo.ListForEntity(ctx, ListFilter{EntityType: model.EntityVisit, EntityID: "v1", IncludeDeleted: true})
		require.NoError(t, err)
		require.Len(t, list, 4)
		assert.Equal(t, deleted.ID, list[0].ID)
	})

	t.Run("category filter", func(t *testing.T) {
		list, err := repo.ListForEntity(ctx, ListFilter{EntityType: model.EntityVisit, EntityID: "v1", Category: model.CategoryECG, IncludeDeleted: true})
		require.NoError(t, err)
		require.Len(t, list, 3)
		for _, a := range list {
			assert.Equal(t, model.CategoryECG, a.Category)
		}
	})

	t.Run("unknown entity is empty not nil", func(t *testing.T) {
		list, err := repo.ListForEntity(ctx, ListFilter{EntityType: model.EntityInjury, EntityID: "nope"})
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})
}

func TestUpdateLifecycleCompareAndSwap(t *testing.T) {
	repo := NewAttachmentRepository(dbtest.New(t))
	ctx := context.Background()

	a := newAttachment(model.EntityInjury, "i1", model.CategoryMRI, 100, Now())
	require.NoError(t, repo.Create(ctx, a))

	stale := *a

	deletedAt := Now()
	actor := "doctor-7"
	a.Status = model.StateSoftDeleted
	a.DeletedAt = &deletedAt
	a.DeletedBy = &actor
	a.UpdatedAt = deletedAt
	require.NoError(t, repo.UpdateLifecycle(ctx, a))
	assert.Equal(t, int64(2), a.Version)

	got, err := repo.ByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateSoftDeleted, got.Status)
	require.NotNil(t, got.DeletedBy)
	assert.Equal(t, actor, *got.DeletedBy)
	assert.Equal(t, int64(2), got.Version)

	stale.Category = model.CategoryXRay
	err = repo.UpdateDetails(ctx, &stale)
	assert.ErrorIs(t, err, ErrVersionConflict)

	err = repo.Delete(ctx, a.ID, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	require.NoError(t, repo.Delete(ctx, a.ID, a.Version))
	err = repo.Delete(ctx, a.ID, a.Version)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
	err = repo.UpdateLifecycle(ctx, a)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestStats(t *testing.T) {
	repo := NewAttachmentRepository(dbtest.New(t))
	ctx := context.Background()
	base := Now()

	rows := []*model.Attachment{
		newAttachment(model.EntityVisit, "v1", model.CategoryECG, 100, base),
		newAttachment(model.EntityVisit, "v1", model.CategoryECG, 200, base.Add(time.Millisecond)),
		newAttachment(model.EntityVisit, "v1", model.CategoryBloodTest, 300, base.Add(2*time.Millisecond)),
		newAttachment(model.EntityVisit, "v2", model.CategoryECG, 400, base.Add(3*time.Millisecond)),
	}
	gone := newAttachment(model.EntityVisit, "v1", model.CategoryECG, 999, base)
	gone.Status = model.StateSoftDeleted
	gone.DeletedAt = &base
	rows = append(rows, gone)
	for _, a := range rows {
		require.NoError(t, repo.Create(ctx, a))
	}

	stats, err := repo.Stats(ctx, model.Scope{EntityType: model.EntityVisit, EntityID: "v1"})
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryStats{
		{Category: model.CategoryBloodTest, Count: 1, TotalSizeBytes: 300},
		{Category: model.CategoryECG, Count: 2, TotalSizeBytes: 300},
	}, stats)

	all, err := repo.Stats(ctx, model.Scope{})
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryStats{
		{Category: model.CategoryBloodTest, Count: 1, TotalSizeBytes: 300},
		{Category: model.CategoryECG, Count: 3, TotalSizeBytes: 700},
	}, all)
}
