package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"image-optimizer/internal/delivery/http/handlers"
	"image-optimizer/internal/delivery/http/routers"
	"image-optimizer/internal/domain/dto"
	"image-optimizer/internal/domain/entities"
	"image-optimizer/internal/domain/repositories"
	"image-optimizer/internal/infrastructure/catalog"
	"image-optimizer/internal/infrastructure/codec"
	"image-optimizer/internal/infrastructure/processor"
	"image-optimizer/internal/infrastructure/queue"
	"image-optimizer/internal/infrastructure/storage"
	"image-optimizer/internal/usecases"
	"image-optimizer/pkg/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	name string
	data []byte
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 30), G: uint8(y * 40), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newApp(t *testing.T, jobs handlers.JobQueue, results handlers.JobResults) *fiber.App {
	t.Helper()
	return newAppWithRuns(t, jobs, results, nil)
}

func newAppWithRuns(t *testing.T, jobs handlers.JobQueue, results handlers.JobResults, runs repositories.RunRepository) *fiber.App {
	t.Helper()
	store := storage.NewMemoryStorage()
	cat := catalog.Default()
	proc := processor.NewItemProcessor(codec.New(), store, cat, processor.Options{}, nil)
	svc := usecases.NewOptimizeService(usecases.NewBatchOrchestrator(proc, nil), store, runs, cat, nil)

	defaults := config.OptimizeConfig{BinaryField: "data", Formats: []string{"png", "jpeg"}, ChannelCount: 1}
	app := fiber.New()
	routers.SetupOptimizeRoutes(app, handlers.NewOptimizeHandler(svc, store, defaults, jobs, results, nil))
	return app
}

func multipartRequest(t *testing.T, files []upload, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestOptimize_Sync(t *testing.T) {
	app := newApp(t, nil, nil)
	img := pngBytes(t)

	resp, err := app.Test(multipartRequest(t, []upload{{"a.png", img}, {"b.png", img}}, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[dto.OptimizeResponse](t, resp)
	assert.Equal(t, "completed", out.Status)
	require.Len(t, out.Channels, 1)
	require.Len(t, out.Channels[0], 4)

	wantPairs := []int{0, 0, 1, 1}
	wantFormats := []string{"png", "jpeg", "png", "jpeg"}
	for i, rec := range out.Channels[0] {
		assert.Equal(t, wantPairs[i], rec.PairedItem)
		assert.Equal(t, wantFormats[i], rec.JSON["format"])
	}
	assert.Equal(t, "a.min.png", out.Channels[0][0].Binary["data"].FileName)
	assert.Equal(t, "b.min.jpg", out.Channels[0][3].Binary["data"].FileName)

	url := out.Channels[0][1].Binary["data"].URL
	require.NotEmpty(t, url)
	bin, err := app.Test(httptest.NewRequest(http.MethodGet, url, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, bin.StatusCode)
	assert.Equal(t, "image/jpeg", bin.Header.Get("Content-Type"))
	data, _ := io.ReadAll(bin.Body)
	assert.NotEmpty(t, data)
}

func TestOptimize_FailFastReportsItem(t *testing.T) {
	app := newApp(t, nil, nil)

	files := []upload{{"a.png", pngBytes(t)}, {"notes.txt", []byte("just some text")}}
	resp, err := app.Test(multipartRequest(t, files, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.Equal(t, "unsupported_kind", body["error"])
	assert.EqualValues(t, 1, body["item_index"])
}

func TestOptimize_ContinueOnFail(t *testing.T) {
	app := newApp(t, nil, nil)

	files := []upload{{"notes.txt", []byte("just some text")}, {"a.png", pngBytes(t)}}
	fields := map[string]string{"continue_on_fail": "true", "formats": "jpeg"}
	resp, err := app.Test(multipartRequest(t, files, fields), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[dto.OptimizeResponse](t, resp)
	assert.Equal(t, "partial", out.Status)
	require.Len(t, out.Channels[0], 2)
	assert.Contains(t, out.Channels[0][0].JSON["error"], "unsupported file type")
	assert.Equal(t, 1, out.Channels[0][1].PairedItem)
}

func TestOptimize_BadParameters(t *testing.T) {
	app := newApp(t, nil, nil)
	img := []upload{{"a.png", pngBytes(t)}}

	resp, err := app.Test(multipartRequest(t, img, map[string]string{"formats": "bmp"}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unsupported_format", decode[map[string]any](t, resp)["error"])

	resp, err = app.Test(multipartRequest(t, img, map[string]string{"channel_count": "0"}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(multipartRequest(t, img, map[string]string{"continue_on_fail": "perhaps"}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(multipartRequest(t, nil, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOptimize_Async(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	q := queue.NewRedisQueue(rdb)
	results := queue.NewResultStore(nil)

	app := newApp(t, q, results)
	resp, err := app.Test(multipartRequest(t, []upload{{"a.png", pngBytes(t)}}, map[string]string{"async": "true"}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	accepted := decode[dto.JobAcceptedResponse](t, resp)
	assert.Equal(t, "queued", accepted.Status)

	job, err := q.Dequeue(context.Background(), time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, accepted.JobID, job.ID)
	att := job.Records[0].Binary["data"]
	require.NotNil(t, att)
	assert.NotEmpty(t, att.ID)
	assert.Nil(t, att.Data)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	results.Put(queue.BatchResult{JobID: job.ID, Status: "completed", RunID: "r1"})
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "r1", decode[dto.JobStatusResponse](t, resp).RunID)
}

func TestOptimize_AsyncDisabled(t *testing.T) {
	app := newApp(t, nil, nil)
	resp, err := app.Test(multipartRequest(t, []upload{{"a.png", pngBytes(t)}}, map[string]string{"async": "true"}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestFormatsAndHealth(t *testing.T) {
	app := newApp(t, nil, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil), -1)
	require.NoError(t, err)
	formats := decode[[]dto.FormatDTO](t, resp)
	require.Len(t, formats, 4)
	assert.Equal(t, "png", formats[0].ID)
	assert.Equal(t, true, formats[0].Options["palette"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/runs/abc", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "no run store configured")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// stubRuns answers every lookup with err.
type stubRuns struct {
	err error
}

func (s stubRuns) CreateRun(ctx context.Context, run *entities.OptimizeRun) error { return nil }

func (s stubRuns) GetRunByID(ctx context.Context, id string) (*entities.OptimizeRun, error) {
	return nil, s.err
}

func (s stubRuns) ListRuns(ctx context.Context, limit int) ([]*entities.OptimizeRun, error) {
	return nil, s.err
}

func (s stubRuns) DeleteRun(ctx context.Context, id string) error { return s.err }

func TestGetRun_ErrorStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing run", fmt.Errorf("run %q: %w", "abc", repositories.ErrRunNotFound), http.StatusNotFound},
		{"database down", errors.New("dial tcp 127.0.0.1:5432: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newAppWithRuns(t, nil, nil, stubRuns{err: tc.err})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/runs/abc", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}

	app := newAppWithRuns(t, nil, nil, stubRuns{err: errors.New("connection reset")})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
