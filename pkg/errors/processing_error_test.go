package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"image-optimizer/pkg/errors/i18n"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProcessingError_IsByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrDecode(io.ErrUnexpectedEOF))

	assert.ErrorIs(t, err, DecodeError)
	assert.NotErrorIs(t, err, EncodeError)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, CodeDecodeError, CodeOf(err))
	assert.Equal(t, "", CodeOf(io.EOF))
}

func TestProcessingError_Messages(t *testing.T) {
	assert.Equal(t, "unsupported_format: unsupported image format 'bmp'", ErrUnsupportedFormat("bmp").Error())
	assert.Equal(t, "bmp", ErrUnsupportedFormat("bmp").Format)

	enc := ErrEncode("webp", ErrFileTooLarge)
	assert.Contains(t, enc.Error(), "encoding to webp failed")
	assert.ErrorIs(t, enc, ErrFileTooLarge)

	assert.ErrorIs(t, ErrReadInput("data", io.EOF), MissingInput)
}

func TestWithIndex(t *testing.T) {
	assert.Nil(t, WithIndex(3, nil))

	err := WithIndex(2, ErrMissingInput("data"))
	var ie *ItemError
	require.True(t, stderrors.As(err, &ie))
	assert.Equal(t, 2, ie.Index)
	assert.ErrorIs(t, err, MissingInput)
	assert.Equal(t, `item 2: missing_input: input data required in binary field "data"`, err.Error())

	// an index already present is kept
	again := WithIndex(5, err)
	require.True(t, stderrors.As(again, &ie))
	assert.Equal(t, 2, ie.Index)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(CodeMissingInput))
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(CodeUnsupportedFormat))
	assert.Equal(t, fiber.StatusUnprocessableEntity, StatusFor(CodeDecodeError))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor("other"))
}

func TestHandleError(t *testing.T) {
	app := fiber.New()
	app.Get("/decode", func(c *fiber.Ctx) error {
		return HandleError(c, zap.NewNop(), WithIndex(4, ErrDecode(io.EOF)))
	})
	app.Get("/bad", func(c *fiber.Ctx) error {
		return HandleError(c, zap.NewNop(), fiber.NewError(fiber.StatusBadRequest, "nope"))
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return HandleError(c, zap.NewNop(), stderrors.New("boom"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/decode", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"item_index":4`)
	assert.Contains(t, string(body), `"error":"decode_error"`)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/bad", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestTranslations(t *testing.T) {
	t.Cleanup(func() { _ = i18n.Load("en") })

	assert.Equal(t, "Image could not be decoded", i18n.T(CodeDecodeError))
	assert.Equal(t, "no_such_code", i18n.T("no_such_code"))

	require.NoError(t, i18n.Load("tr"))
	assert.NotEqual(t, "Image could not be decoded", i18n.T(CodeDecodeError))
	assert.Error(t, i18n.Load("xx"))
}
