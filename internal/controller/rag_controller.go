package controller

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"pdf-rag-be/internal/dto"
	"pdf-rag-be/internal/pkg/serverutils"
	"pdf-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const uploadFieldName = "pdfs"

var unsafeNameChars = regexp.MustCompile(`\s+`)

type IRagController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Query(ctx *fiber.Ctx) error
}

type ragController struct {
	ragService  service.IRagService
	uploadDir   string
	maxFiles    int
	maxFileSize int64
}

func NewRagController(ragService service.IRagService, uploadDir string, maxFiles, maxFileSizeMB int) IRagController {
	if maxFiles <= 0 {
		maxFiles = 10
	}
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = 10
	}
	return &ragController{
		ragService:  ragService,
		uploadDir:   uploadDir,
		maxFiles:    maxFiles,
		maxFileSize: int64(maxFileSizeMB) * 1024 * 1024,
	}
}

func (c *ragController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/v1")
	h.Post("upload", c.Upload)
	h.Get("status", c.Status)
	h.Post("query", c.Query)
}

func (c *ragController) Upload(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)

	form, err := ctx.MultipartForm()
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No PDF files uploaded"})
	}

	files := form.File[uploadFieldName]
	if len(files) == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No PDF files uploaded"})
	}
	if len(files) > c.maxFiles {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Too many files, at most %d allowed", c.maxFiles),
		})
	}

	for _, file := range files {
		if !isPdf(file) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only PDF files are allowed"})
		}
		if file.Size > c.maxFileSize {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("File %s exceeds the size limit", file.Filename),
			})
		}
	}

	sessionDir := filepath.Join(c.uploadDir, sessionId)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	saved := make([]service.UploadedPDF, 0, len(files))
	for _, file := range files {
		safeName := unsafeNameChars.ReplaceAllString(file.Filename, "_")
		destination := filepath.Join(sessionDir, fmt.Sprintf("%d-%s", time.Now().UnixMilli(), safeName))
		if err := ctx.SaveFile(file, destination); err != nil {
			return fmt.Errorf("save uploaded file: %w", err)
		}
		saved = append(saved, service.UploadedPDF{
			Path:         destination,
			OriginalName: file.Filename,
			Size:         file.Size,
		})
	}

	res, err := c.ragService.BeginUpload(ctx.Context(), sessionId, saved)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *ragController) Status(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)

	res, err := c.ragService.GetStatus(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *ragController) Query(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)

	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question is required and must be a string"})
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question is required and must be a string"})
	}

	res, err := c.ragService.Query(ctx.Context(), sessionId, &req)
	if err != nil {
		var notReady *service.NotReadyError
		if errors.As(err, &notReady) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "Documents still ingesting",
				"status": notReady.Status.String(),
			})
		}
		if errors.Is(err, service.ErrNoDocuments) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No documents indexed for this session",
			})
		}
		return err
	}

	return ctx.JSON(res)
}

func isPdf(file *multipart.FileHeader) bool {
	contentType := file.Header.Get("Content-Type")
	return contentType == "application/pdf" &&
		strings.EqualFold(filepath.Ext(file.Filename), ".pdf")
}
