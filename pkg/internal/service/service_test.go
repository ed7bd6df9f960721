package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/types"
)

// fakeBlob 内存对象存储，记录写入与打标情况.
type fakeBlob struct {
	mu       sync.Mutex
	objects  map[string][]byte
	tags     map[string]map[string]string
	failTags bool
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{
		objects: map[string][]byte{},
		tags:    map[string]map[string]string{},
	}
}

func (f *fakeBlob) Put(_ context.Context, objectKey string, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[objectKey] = data

	return objectKey, nil
}

func (f *fakeBlob) GetURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://blob.local/" + objectKey, nil
}

func (f *fakeBlob) Delete(_ context.Context, objectKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectKey)
	delete(f.tags, objectKey)

	return nil
}

func (f *fakeBlob) SetTags(_ context.Context, objectKey string, tagSet map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failTags {
		return fmt.Errorf("blob store unavailable")
	}

	f.tags[objectKey] = tagSet

	return nil
}

func (f *fakeBlob) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.objects)
}

func testConfig() configs.VersioningConfig {
	return configs.VersioningConfig{
		MaxFileSize:         configs.DefaultMaxFileSize,
		AllowedFileTypes:    configs.DefaultAllowedFileTypes,
		GracePeriodDays:     configs.DefaultGracePeriodDays,
		NumberingRetries:    5,
		TagSyncRetries:      0,
		ReaperCron:          configs.DefaultReaperCron,
		PresignedExpirySecs: configs.DefaultPresignedExpirySec,
	}
}

// newTestService 基于内存 SQLite 构建服务.
// 单连接池保证内存库在整个测试期间存活，并天然串行化写事务.
func newTestService(t *testing.T) (*DocumentService, *fakeBlob) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	blob := newFakeBlob()

	return newDocumentService(gdb, blob, nil, testConfig()), blob
}

func uploadBody(content string) (io.Reader, int64) {
	return bytes.NewReader([]byte(content)), int64(len(content))
}

func mustCreateDocument(t *testing.T, svc *DocumentService, user, title string) *types.DocumentResponse {
	t.Helper()

	body, size := uploadBody("v1 content of " + title)

	doc, err := svc.CreateDocument(context.Background(), user, types.CreateDocumentRequest{
		Title: title, Description: "initial",
	}, body, "report.pdf", size)
	if err != nil {
		t.Fatalf("CreateDocument(%s): %v", title, err)
	}

	return doc
}

func mustCreateVersion(t *testing.T, svc *DocumentService, user, docID, changes string) *types.VersionResponse {
	t.Helper()

	body, size := uploadBody("content " + changes)

	ver, err := svc.CreateVersion(context.Background(), user, docID, types.CreateVersionRequest{
		ChangesDescription: changes,
	}, body, "report.pdf", size)
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	return ver
}

func TestCreateDocumentWithFirstVersion(t *testing.T) {
	svc, blob := newTestService(t)
	ctx := context.Background()

	doc := mustCreateDocument(t, svc, "alice@example.com", "quarterly report")

	if doc.CurrentVersionNumber != 1 {
		t.Fatalf("current version number = %d, want 1", doc.CurrentVersionNumber)
	}

	if doc.CurrentVersionID == "" {
		t.Fatal("current version pointer should be set after creation")
	}

	if doc.ShortID == "" || len(doc.ShortID) > 12 {
		t.Fatalf("bad short id %q", doc.ShortID)
	}

	if doc.Status != string(model.StatusDraft) {
		t.Fatalf("default status = %q, want draft", doc.Status)
	}

	if blob.count() != 1 {
		t.Fatalf("blob count = %d, want 1", blob.count())
	}

	// short_id 查询与 ID 查询等价
	byShort, err := svc.GetDocument(ctx, "alice@example.com", doc.ShortID)
	if err != nil {
		t.Fatalf("GetDocument by short id: %v", err)
	}

	if byShort.ID != doc.ID {
		t.Fatalf("short id lookup returned %s, want %s", byShort.ID, doc.ID)
	}

	// 同 owner 下标题唯一
	body, size := uploadBody("dup")
	if _, err := svc.CreateDocument(ctx, "alice@example.com", types.CreateDocumentRequest{Title: "quarterly report"}, body, "x.pdf", size); err == nil {
		t.Fatal("duplicate title for same owner should fail")
	} else if KindOf(err) != KindStateConflict {
		t.Fatalf("duplicate title kind = %v, want conflict", KindOf(err))
	}
}

func TestCreateEmptyDocument(t *testing.T) {
	svc, blob := newTestService(t)
	ctx := context.Background()

	// 不带文件创建：空文档，指针留空
	doc, err := svc.CreateDocument(ctx, "alice@example.com", types.CreateDocumentRequest{Title: "draft outline"}, nil, "", 0)
	if err != nil {
		t.Fatalf("CreateDocument without file: %v", err)
	}

	if doc.CurrentVersionID != "" || doc.CurrentVersionNumber != 0 {
		t.Fatalf("empty document should have no current version, got %+v", doc)
	}

	if doc.VersionCount != 0 {
		t.Fatalf("version count = %d, want 0", doc.VersionCount)
	}

	if blob.count() != 0 {
		t.Fatalf("blob count = %d, want 0", blob.count())
	}

	if _, err := svc.DownloadCurrentURL(ctx, "alice@example.com", doc.ID); KindOf(err) != KindNotFound {
		t.Fatalf("download on empty document should be not found, got %v", err)
	}

	// 首个版本上传后指针生效
	v1 := mustCreateVersion(t, svc, "alice@example.com", doc.ID, "first upload")
	if v1.VersionNumber != 1 {
		t.Fatalf("first version number = %d, want 1", v1.VersionNumber)
	}

	got, err := svc.GetDocument(ctx, "alice@example.com", doc.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}

	if got.CurrentVersionID != v1.ID {
		t.Fatal("pointer should reference the first uploaded version")
	}
}

func TestCreateVersionNumberingAndPointer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc := mustCreateDocument(t, svc, "alice@example.com", "doc")

	v2 := mustCreateVersion(t, svc, "alice@example.com", doc.ID, "second")
	if v2.VersionNumber != 2 {
		t.Fatalf("version number = %d, want 2", v2.VersionNumber)
	}

	// 元数据继承：未覆盖的标题取自当前版本
	if v2.Title != "doc" {
		t.Fatalf("inherited title = %q, want %q", v2.Title, "doc")
	}

	v3 := mustCreateVersion(t, svc, "alice@example.com", doc.ID, "third")
	if v3.VersionNumber != 3 {
		t.Fatalf("version number = %d, want 3", v3.VersionNumber)
	}

	got, err := svc.GetDocument(ctx, "alice@example.com", doc.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}

	if got.CurrentVersionID != v3.ID {
		t.Fatal("pointer should follow the newest version")
	}

	if got.VersionCount != 3 {
		t.Fatalf("version count = %d, want 3", got.VersionCount)
	}
}

func TestConcurrentVersionNumbering(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc := mustCreateDocument(t, svc, "alice@example.com", "contended")

	const workers = 8

	var g errgroup.Group

	for i := range workers {
		g.Go(func() error {
			body, size := uploadBody(fmt.Sprintf("worker %d", i))
			_, err := svc.CreateVersion(ctx, "alice@example.com", doc.ID, types.CreateVersionRequest{}, body, "report.pdf", size)

			return err
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent CreateVersion: %v", err)
	}

	history, err := svc.History(ctx, "alice@example.com", doc.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	if history.Total != workers+1 {
		t.Fatalf("total versions = %d, want %d", history.Total, workers+1)
	}

	// 编号必须连续且互不重复：降序排列应为 N..1
	for i, v := range history.Versions {
		want := int(history.Total) - i
		if v.VersionNumber != want {
			t.Fatalf("version at index %d has number %d, want %d", i, v.VersionNumber, want)
		}
	}
}

func TestRollback(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc := mustCreateDocument(t, svc, "alice@example.com", "doc")
	v2 := mustCreateVersion(t, svc, "alice@example.com", doc.ID, "second")
	v3 := mustCreateVersion(t, svc, "alice@example.com", doc.ID, "third")

	// 回滚到 v2：纯指针移动，不产生新版本
	resp, err := svc.Rollback(ctx, "alice@example.com", doc.ID, types.RollbackRequest{TargetVersionID: v2.ID, Reason: "bad upload"})
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	if resp.ResultingVersionNumber != 2 {
		t.Fatalf("resulting version number = %d, want 2", resp.ResultingVersionNumber)
	}

	history, err := svc.History(ctx, "alice@example.com", doc.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	if history.Total != 3 {
		t.Fatalf("rollback must not change version count, got %d", history.Total)
	}

	got, _ := svc.GetDocument(ctx, "alice@example.com", doc.ID)
	if got.CurrentVersionID != v2.ID {
		t.Fatal("pointer should reference the rollback target")
	}

	// 再前滚回 v3 同样只是移动指针
	if _, err := svc.Rollback(ctx, "alice@example.com", doc.ID, types.RollbackRequest{TargetVersionID: v3.ID}); err != nil {
		t.Fatalf("roll forward: %v", err)
	}

	// 目标已是当前版本：回滚幂等，重复执行仍成功且指针不变
	again, err := svc.Rollback(ctx, "alice@example.com", doc.ID, types.RollbackRequest{TargetVersionID: v3.ID})
	if err != nil {
		t.Fatalf("rollback to current version should be an idempotent success, got %v", err)
	}

	if again.ResultingVersionNumber != 3 {
		t.Fatalf("idempotent rollback resulting number = %d, want 3", again.ResultingVersionNumber)
	}

	got, _ = svc.GetDocument(ctx, "alice@example.com", doc.ID)
	if got.CurrentVersionID != v3.ID {
		t.Fatal("pointer must stay on the target after repeated rollback")
	}

	// 目标属于其他文档
	other := mustCreateDocument(t, svc, "alice@example.com", "other")
	otherVer, _ := svc.History(ctx, "alice@example.com", other.ID)

	if _, err := svc.Rollback(ctx, "alice@example.com", doc.ID, types.RollbackRequest{TargetVersionID: otherVer.Versions[0].ID}); KindOf(err) != KindNotFound {
		t.Fatalf("foreign target should be not found, got %v", err)
	}
}

func TestDeleteVersionGuards(t *testing.T) {
	svc, blob := newTestService(t)
	ctx := context.Background()

	doc := mustCreateDocument(t, svc, "alice@example.com", "doc")

	history, _ := svc.History(ctx, "alice@example.com", doc.ID)
	only := history.Versions[0]

	// 仅剩的版本不可删除
	if err := svc.DeleteVersion(ctx, "alice@example.com", doc.ID, only.ID); KindOf(err) != KindStateConflict {
		t.Fatalf("deleting the only version should conflict, got %v", err)
	}

	v2 := mustCreateVersion(t, svc, "alice@example.com", doc.ID, "second")

	// 当前版本不可删除
	if err := svc.DeleteVersion(ctx, "alice@example.com", doc.ID, v2.ID); KindOf(err) != KindStateConflict {
		t.Fatalf("deleting the current version should conflict, got %v", err)
	}

	before := blob.count()

	// 历史版本可删，内容一并清理
	if err := svc.DeleteVersion(ctx, "alice@example.com", doc.ID, only.ID); err != nil {
		t.Fatalf("DeleteVersion: %v", err)
	}

	if blob.count() != before-1 {
		t.Fatalf("blob count = %d, want %d", blob.count(), before-1)
	}

	history, _ = svc.History(ctx, "alice@example.com", doc.ID)
	if history.Total != 1 {
		t.Fatalf("remaining versions = %d, want 1", history.Total)
	}

	// 回收站内的文档冻结全部版本，历史版本也不可删除
	mustCreateVersion(t, svc, "alice@example.com", doc.ID, "third")

	if err := svc.SoftDelete(ctx, "alice@example.com", doc.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	frozen := blob.count()
	if err := svc.DeleteVersion(ctx, "alice@example.com", doc.ID, v2.ID); KindOf(err) != KindStateConflict {
		t.Fatalf("deleting a version of a trashed document should conflict, got %v", err)
	}

	if blob.count() != frozen {
		t.Fatalf("blob count changed on frozen document: %d -> %d", frozen, blob.count())
	}

	// 恢复后文档回到删除前的完整状态
	if err := svc.Restore(ctx, "alice@example.com", doc.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	history, _ = svc.History(ctx, "alice@example.com", doc.ID)
	if history.Total != 2 {
		t.Fatalf("versions after restore = %d, want 2", history.Total)
	}
}

func TestSoftDeleteRestoreCycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc := mustCreateDocument(t, svc, "alice@example.com", "doc")

	if err := svc.SoftDelete(ctx, "alice@example.com", doc.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	// 重复删除
	if err := svc.SoftDelete(ctx, "alice@example.com", doc.ID); KindOf(err) != KindStateConflict {
		t.Fatalf("double delete should conflict, got %v", err)
	}

	// 回收站内禁止写操作
	body, size := uploadBody("x")
	if _, err := svc.CreateVersion(ctx, "alice@example.com", doc.ID, types.CreateVersionRequest{}, body, "x.pdf", size); KindOf(err) != KindStateConflict {
		t.Fatalf("CreateVersion on trashed doc should conflict, got %v", err)
	}

	// 活跃列表不含回收站文档
	list, err := svc.ListDocuments(ctx, "alice@example.com", types.ListDocumentsRequest{})
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}

	if list.Total != 0 {
		t.Fatalf("active list total = %d, want 0", list.Total)
	}

	trash, err := svc.ListTrash(ctx, "alice@example.com", 1, 20)
	if err != nil {
		t.Fatalf("ListTrash: %v", err)
	}

	if trash.Total != 1 || trash.Items[0].DocumentID != doc.ID {
		t.Fatalf("trash should contain the document, got %+v", trash)
	}

	if trash.Items[0].DaysUntilPurge != 30 {
		t.Fatalf("days until purge = %d, want 30", trash.Items[0].DaysUntilPurge)
	}

	if err := svc.Restore(ctx, "alice@example.com", doc.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	// 恢复后软删除字段全部清空
	got, err := svc.GetDocument(ctx, "alice@example.com", doc.ID)
	if err != nil {
		t.Fatalf("GetDocument after restore: %v", err)
	}

	if got.IsDeleted || got.DeletedAt != nil || got.DeletedBy != "" {
		t.Fatalf("restore should clear delete fields: %+v", got)
	}

	// 未删除状态不可恢复
	if err := svc.Restore(ctx, "alice@example.com", doc.ID); KindOf(err) != KindStateConflict {
		t.Fatalf("restore of active doc should conflict, got %v", err)
	}
}

func TestPurgeRemovesEverything(t *testing.T) {
	svc, blob := newTestService(t)
	ctx := context.Background()

	doc := mustCreateDocument(t, svc, "alice@example.com", "doc")
	mustCreateVersion(t, svc, "alice@example.com", doc.ID, "second")

	if _, err := svc.AttachTags(ctx, "alice@example.com", doc.ID, types.AttachTagsRequest{
		Tags: []types.TagInput{{Key: "project", Value: "alpha"}},
	}); err != nil {
		t.Fatalf("AttachTags: %v", err)
	}

	// 未入回收站不可清除
	if _, err := svc.Purge(ctx, "alice@example.com", doc.ID); KindOf(err) != KindStateConflict {
		t.Fatalf("purge of active doc should conflict, got %v", err)
	}

	if err := svc.SoftDelete(ctx, "alice@example.com", doc.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	resp, err := svc.Purge(ctx, "alice@example.com", doc.ID)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}

	if resp.VersionsRemoved != 2 {
		t.Fatalf("versions removed = %d, want 2", resp.VersionsRemoved)
	}

	if resp.BlobsRemoved != 2 || blob.count() != 0 {
		t.Fatalf("blobs removed = %d (remaining %d), want all gone", resp.BlobsRemoved, blob.count())
	}

	// 孤儿标签一并清理
	if resp.TagsRemoved != 1 {
		t.Fatalf("tags removed = %d, want 1", resp.TagsRemoved)
	}

	if _, err := svc.GetDocument(ctx, "alice@example.com", doc.ID); KindOf(err) != KindNotFound {
		t.Fatalf("purged document should be gone, got %v", err)
	}
}

func TestReapExpired(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	expired := mustCreateDocument(t, svc, "alice@example.com", "old")
	fresh := mustCreateDocument(t, svc, "alice@example.com", "new")

	// old 在宽限期外，new 在宽限期内
	svc.now = func() time.Time { return time.Now().Add(-31 * 24 * time.Hour) }
	if err := svc.SoftDelete(ctx, "alice@example.com", expired.ID); err != nil {
		t.Fatalf("SoftDelete old: %v", err)
	}

	svc.now = time.Now
	if err := svc.SoftDelete(ctx, "alice@example.com", fresh.ID); err != nil {
		t.Fatalf("SoftDelete new: %v", err)
	}

	cutoff := time.Now().Add(-30 * 24 * time.Hour)

	// dry-run 只统计
	result, err := svc.ReapExpired(ctx, cutoff, true)
	if err != nil {
		t.Fatalf("ReapExpired dry-run: %v", err)
	}

	if result.Scanned != 1 || result.Purged != 0 {
		t.Fatalf("dry-run scanned=%d purged=%d, want 1/0", result.Scanned, result.Purged)
	}

	if _, err := svc.GetDocument(ctx, "alice@example.com", expired.ID); err != nil {
		t.Fatalf("dry-run must not delete: %v", err)
	}

	// 正式清扫只删除过期文档
	result, err = svc.ReapExpired(ctx, cutoff, false)
	if err != nil {
		t.Fatalf("ReapExpired: %v", err)
	}

	if result.Purged != 1 {
		t.Fatalf("purged = %d, want 1", result.Purged)
	}

	if _, err := svc.GetDocument(ctx, "alice@example.com", expired.ID); KindOf(err) != KindNotFound {
		t.Fatalf("expired doc should be purged, got %v", err)
	}

	if _, err := svc.GetDocument(ctx, "alice@example.com", fresh.ID); err != nil {
		t.Fatalf("fresh doc must survive the reaper: %v", err)
	}
}

func TestTagsGetOrCreate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc := mustCreateDocument(t, svc, "alice@example.com", "doc")

	in := types.AttachTagsRequest{Tags: []types.TagInput{{Key: "project", Value: "alpha"}}}

	first, err := svc.AttachTags(ctx, "alice@example.com", doc.ID, in)
	if err != nil {
		t.Fatalf("AttachTags: %v", err)
	}

	// 相同键值重复附加复用同一条记录
	second, err := svc.AttachTags(ctx, "alice@example.com", doc.ID, in)
	if err != nil {
		t.Fatalf("AttachTags again: %v", err)
	}

	if len(second.Tags) != 1 || second.Tags[0].ID != first.Tags[0].ID {
		t.Fatalf("get-or-create should reuse the tag, got %+v", second.Tags)
	}

	if second.Tags[0].DisplayName != "project: alpha" {
		t.Fatalf("display name = %q", second.Tags[0].DisplayName)
	}

	if second.Tags[0].Color != model.DefaultTagColor {
		t.Fatalf("default color = %q, want %q", second.Tags[0].Color, model.DefaultTagColor)
	}

	// 值可空：仅有键的标签照常创建，展示名只含键
	keyOnly, err := svc.AttachTags(ctx, "alice@example.com", doc.ID, types.AttachTagsRequest{Tags: []types.TagInput{{Key: "urgent"}}})
	if err != nil {
		t.Fatalf("AttachTags key-only: %v", err)
	}

	found := false
	for _, tg := range keyOnly.Tags {
		if tg.Key == "urgent" && tg.Value == "" && tg.DisplayName == "urgent" {
			found = true
		}
	}

	if !found {
		t.Fatalf("key-only tag missing or mislabeled, got %+v", keyOnly.Tags)
	}
}

func TestTagSuggestions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc := mustCreateDocument(t, svc, "alice@example.com", "doc")

	var inputs []types.TagInput
	for i := range 25 {
		inputs = append(inputs, types.TagInput{Key: "project", Value: fmt.Sprintf("p%02d", i)})
	}

	if _, err := svc.AttachTags(ctx, "alice@example.com", doc.ID, types.AttachTagsRequest{Tags: inputs}); err != nil {
		t.Fatalf("AttachTags: %v", err)
	}

	// 上限 20 条
	got, err := svc.SuggestTags(ctx, "alice@example.com", types.SuggestTagsRequest{})
	if err != nil {
		t.Fatalf("SuggestTags: %v", err)
	}

	if len(got.Tags) != maxTagSuggestions {
		t.Fatalf("suggestions = %d, want %d", len(got.Tags), maxTagSuggestions)
	}

	// 前缀过滤
	got, err = svc.SuggestTags(ctx, "alice@example.com", types.SuggestTagsRequest{Query: "p01"})
	if err != nil {
		t.Fatalf("SuggestTags with query: %v", err)
	}

	if len(got.Tags) != 1 || got.Tags[0].Value != "p01" {
		t.Fatalf("prefix filter returned %+v", got.Tags)
	}

	// 其他用户看不到
	got, err = svc.SuggestTags(ctx, "bob@example.com", types.SuggestTagsRequest{})
	if err != nil {
		t.Fatalf("SuggestTags other user: %v", err)
	}

	if len(got.Tags) != 0 {
		t.Fatalf("tags must be scoped per owner, got %d", len(got.Tags))
	}
}

func TestVersionTagInheritance(t *testing.T) {
	svc, blob := newTestService(t)
	ctx := context.Background()

	doc := mustCreateDocument(t, svc, "alice@example.com", "doc")

	if _, err := svc.AttachTags(ctx, "alice@example.com", doc.ID, types.AttachTagsRequest{
		Tags: []types.TagInput{{Key: "env", Value: "prod"}},
	}); err != nil {
		t.Fatalf("AttachTags: %v", err)
	}

	v2 := mustCreateVersion(t, svc, "alice@example.com", doc.ID, "second")
	if len(v2.Tags) != 1 || v2.Tags[0].Key != "env" {
		t.Fatalf("new version should inherit tags, got %+v", v2.Tags)
	}

	// 新版本的对象存储标签同步生效
	blob.mu.Lock()
	syncedCount := len(blob.tags)
	blob.mu.Unlock()

	if syncedCount == 0 {
		t.Fatal("blob tags should be synced for the new version")
	}

	// 显式关闭继承
	off := false
	body, size := uploadBody("no tags")

	v3, err := svc.CreateVersion(ctx, "alice@example.com", doc.ID, types.CreateVersionRequest{InheritTags: &off}, body, "report.pdf", size)
	if err != nil {
		t.Fatalf("CreateVersion without inheritance: %v", err)
	}

	if len(v3.Tags) != 0 {
		t.Fatalf("inheritance disabled but got tags %+v", v3.Tags)
	}
}

func TestFileValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// 扩展名不在白名单
	body, size := uploadBody("#!/bin/sh")
	if _, err := svc.CreateDocument(ctx, "alice@example.com", types.CreateDocumentRequest{Title: "script"}, body, "run.sh", size); KindOf(err) != KindValidation {
		t.Fatalf("disallowed extension should fail validation, got %v", err)
	}

	// 超过大小上限
	big := bytes.NewReader(make([]byte, 8))
	if _, err := svc.CreateDocument(ctx, "alice@example.com", types.CreateDocumentRequest{Title: "big"}, big, "big.pdf", configs.DefaultMaxFileSize+1); KindOf(err) != KindValidation {
		t.Fatalf("oversize file should fail validation, got %v", err)
	}

	// 空文件
	empty := bytes.NewReader(nil)
	if _, err := svc.CreateDocument(ctx, "alice@example.com", types.CreateDocumentRequest{Title: "empty"}, empty, "empty.pdf", 0); KindOf(err) != KindValidation {
		t.Fatalf("empty file should fail validation, got %v", err)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc := mustCreateDocument(t, svc, "alice@example.com", "private")

	if _, err := svc.GetDocument(ctx, "bob@example.com", doc.ID); KindOf(err) != KindPermissionDenied {
		t.Fatalf("cross-owner access kind = %v, want permission denied", KindOf(err))
	}

	if err := svc.SoftDelete(ctx, "bob@example.com", doc.ID); KindOf(err) != KindPermissionDenied {
		t.Fatalf("cross-owner delete kind = %v, want permission denied", KindOf(err))
	}

	list, err := svc.ListDocuments(ctx, "bob@example.com", types.ListDocumentsRequest{})
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}

	if list.Total != 0 {
		t.Fatalf("bob should see no documents, got %d", list.Total)
	}
}

func TestTagSyncFailureDoesNotBlock(t *testing.T) {
	svc, blob := newTestService(t)
	ctx := context.Background()

	doc := mustCreateDocument(t, svc, "alice@example.com", "doc")

	if _, err := svc.AttachTags(ctx, "alice@example.com", doc.ID, types.AttachTagsRequest{
		Tags: []types.TagInput{{Key: "env", Value: "prod"}},
	}); err != nil {
		t.Fatalf("AttachTags: %v", err)
	}

	blob.mu.Lock()
	blob.failTags = true
	blob.mu.Unlock()

	// 打标失败不影响版本创建
	ver := mustCreateVersion(t, svc, "alice@example.com", doc.ID, "tagged")
	if ver.VersionNumber != 2 {
		t.Fatalf("version number = %d, want 2", ver.VersionNumber)
	}

	got, err := svc.GetVersion(ctx, "alice@example.com", doc.ID, ver.ID)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}

	if !got.IsCurrent {
		t.Fatal("new version should be current despite tag sync failure")
	}
}

func TestDownloadURL(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc := mustCreateDocument(t, svc, "alice@example.com", "doc")

	history, _ := svc.History(ctx, "alice@example.com", doc.ID)

	resp, err := svc.DownloadURL(ctx, "alice@example.com", doc.ID, history.Versions[0].ID)
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}

	if resp.GetURL == "" || resp.ExpiresIn != configs.DefaultPresignedExpirySec {
		t.Fatalf("unexpected download url response %+v", resp)
	}

	cur, err := svc.DownloadCurrentURL(ctx, "alice@example.com", doc.ID)
	if err != nil {
		t.Fatalf("DownloadCurrentURL: %v", err)
	}

	if cur.ObjectKey != resp.ObjectKey {
		t.Fatalf("current version download should point at version 1 object, got %q want %q", cur.ObjectKey, resp.ObjectKey)
	}
}
