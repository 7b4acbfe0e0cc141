package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
	"lore-context-api/internal/infrastructure/messaging"
)

type fakeChapterRepo struct {
	created []*entity.Chapter
}

func (r *fakeChapterRepo) Create(ctx context.Context, ch *entity.Chapter) error {
	ch.ID = "ch-1"
	r.created = append(r.created, ch)
	return nil
}

func (r *fakeChapterRepo) GetByID(ctx context.Context, id string) (*entity.Chapter, error) {
	return nil, nil
}

func (r *fakeChapterRepo) Update(ctx context.Context, ch *entity.Chapter) error { return nil }
func (r *fakeChapterRepo) Delete(ctx context.Context, id string) error          { return nil }

func (r *fakeChapterRepo) ListByProject(ctx context.Context, projectID string, p repository.Pagination) (*repository.PagedResult[*entity.Chapter], error) {
	return repository.NewPagedResult[*entity.Chapter](nil, 0, p), nil
}

func (r *fakeChapterRepo) GetByNumber(ctx context.Context, projectID string, number int) (*entity.Chapter, error) {
	return nil, nil
}

func (r *fakeChapterRepo) ListByNumberRange(ctx context.Context, projectID string, start, end int) ([]*entity.Chapter, error) {
	return nil, nil
}

func (r *fakeChapterRepo) ListByNumbers(ctx context.Context, projectID string, numbers []int) ([]*entity.Chapter, error) {
	return nil, nil
}

func (r *fakeChapterRepo) FindByTitle(ctx context.Context, projectID, title string) (*entity.Chapter, error) {
	return nil, nil
}

func (r *fakeChapterRepo) ListByArc(ctx context.Context, arcID string) ([]*entity.Chapter, error) {
	return nil, nil
}

func (r *fakeChapterRepo) NumberBounds(ctx context.Context, projectID string) (int, int, error) {
	return 0, 0, nil
}

func (r *fakeChapterRepo) UpdateMetadata(ctx context.Context, id, summary, artStyle string) error {
	return nil
}

// unreachableProducer 连不上的 Redis，投递必然失败
func unreachableProducer() *messaging.Producer {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	return messaging.NewProducer(rdb, 100)
}

func postChapter(t *testing.T, h *ChapterHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "pid", Value: "p1"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/projects/p1/chapters", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.CreateChapter(c)
	return w
}

// 元数据任务投递失败只记日志，不影响创建结果
func TestCreateChapterPublishFailureTolerated(t *testing.T) {
	repo := &fakeChapterRepo{}
	h := NewChapterHandler(repo, nil, unreachableProducer())

	w := postChapter(t, h, `{"chapter_number":1,"title":"第一章","content":"正文内容"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "正文内容", repo.created[0].Content)
}

func TestCreateChapterWithoutContentSkipsSideEffects(t *testing.T) {
	repo := &fakeChapterRepo{}
	h := NewChapterHandler(repo, nil, unreachableProducer())

	w := postChapter(t, h, `{"chapter_number":2,"title":"占位章"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "", repo.created[0].Content)
}
