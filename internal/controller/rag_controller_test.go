package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"pdf-rag-be/internal/dto"
	"pdf-rag-be/internal/entity"
	"pdf-rag-be/internal/pkg/serverutils"
	"pdf-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRagService struct {
	uploadRes   *dto.UploadResponse
	uploadErr   error
	uploadedPDF []service.UploadedPDF
	statusRes   *dto.StatusResponse
	queryRes    *dto.QueryResponse
	queryErr    error
	queryReq    *dto.QueryRequest
}

func (f *fakeRagService) BeginUpload(ctx context.Context, sessionId string, files []service.UploadedPDF) (*dto.UploadResponse, error) {
	f.uploadedPDF = files
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploadRes, nil
}

func (f *fakeRagService) GetStatus(ctx context.Context, sessionId string) (*dto.StatusResponse, error) {
	return f.statusRes, nil
}

func (f *fakeRagService) Query(ctx context.Context, sessionId string, request *dto.QueryRequest) (*dto.QueryResponse, error) {
	f.queryReq = request
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryRes, nil
}

func setupApp(t *testing.T, svc service.IRagService) (*fiber.App, string) {
	t.Helper()
	uploadDir := t.TempDir()

	app := fiber.New()
	app.Use(func(ctx *fiber.Ctx) error {
		ctx.Locals(serverutils.SessionIdLocalsKey, "test-session")
		return ctx.Next()
	})
	NewRagController(svc, uploadDir, 10, 10).RegisterRoutes(app)

	return app, uploadDir
}

func pdfUploadRequest(t *testing.T, filenames []string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range filenames {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="pdfs"; filename="`+name+`"`)
		header.Set("Content-Type", "application/pdf")
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 fake content"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadSavesFilesAndDelegates(t *testing.T) {
	svc := &fakeRagService{
		uploadRes: &dto.UploadResponse{
			Message:   "PDFs uploaded successfully",
			SessionId: "test-session",
			Files:     []dto.UploadedFile{{Name: "a.pdf"}},
		},
	}
	app, uploadDir := setupApp(t, svc)

	resp, err := app.Test(pdfUploadRequest(t, []string{"a.pdf"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, svc.uploadedPDF, 1)
	assert.Equal(t, "a.pdf", svc.uploadedPDF[0].OriginalName)

	// The file must land under uploads/{sessionId}/.
	entries, err := os.ReadDir(uploadDir + "/test-session")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUploadRejectsEmptyForm(t *testing.T) {
	svc := &fakeRagService{}
	app, _ := setupApp(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/upload", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, svc.uploadedPDF)
}

func TestUploadRejectsNonPdf(t *testing.T) {
	svc := &fakeRagService{}
	app, _ := setupApp(t, svc)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("pdfs", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("plain text"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, svc.uploadedPDF)
}

func TestStatusReturnsServiceResponse(t *testing.T) {
	svc := &fakeRagService{
		statusRes: &dto.StatusResponse{Status: "ingesting"},
	}
	app, _ := setupApp(t, svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ingesting", out["status"])
}

func TestQueryHappyPath(t *testing.T) {
	svc := &fakeRagService{
		queryRes: &dto.QueryResponse{Answer: "it is about pdfs"},
	}
	app, _ := setupApp(t, svc)

	payload := `{"question":"what is it about?","chatHistory":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/query", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.QueryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "it is about pdfs", out.Answer)

	require.NotNil(t, svc.queryReq)
	assert.Equal(t, "what is it about?", svc.queryReq.Question)
	require.Len(t, svc.queryReq.ChatHistory, 1)
}

func TestQueryRejectsMissingQuestion(t *testing.T) {
	svc := &fakeRagService{}
	app, _ := setupApp(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/query", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, svc.queryReq)
}

func TestQueryMapsNotReadyTo400WithStatus(t *testing.T) {
	svc := &fakeRagService{
		queryErr: &service.NotReadyError{Status: entity.SessionStatusIngesting},
	}
	app, _ := setupApp(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/query", bytes.NewBufferString(`{"question":"q"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	bodyBytes, _ := io.ReadAll(resp.Body)
	var out map[string]string
	require.NoError(t, json.Unmarshal(bodyBytes, &out))
	assert.Equal(t, "Documents still ingesting", out["error"])
	assert.Equal(t, "ingesting", out["status"])
}

func TestQueryMapsNoDocumentsTo400(t *testing.T) {
	svc := &fakeRagService{queryErr: service.ErrNoDocuments}
	app, _ := setupApp(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/query", bytes.NewBufferString(`{"question":"q"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "No documents indexed for this session", out["error"])
}
