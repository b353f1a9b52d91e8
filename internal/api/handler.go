package api

import (
	"bytes"
	"context"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/insightdelivered/revenue-scorer/internal/analyzer"
	"github.com/insightdelivered/revenue-scorer/internal/extractor"
	"github.com/insightdelivered/revenue-scorer/internal/kyc"
	"github.com/insightdelivered/revenue-scorer/internal/logger"
	"github.com/insightdelivered/revenue-scorer/internal/models"
	"github.com/insightdelivered/revenue-scorer/internal/oracle"
	"github.com/insightdelivered/revenue-scorer/internal/parser"
	"github.com/insightdelivered/revenue-scorer/internal/scoring"
	"github.com/insightdelivered/revenue-scorer/internal/writer"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// pageBreak separates pages in client-extracted PDF text.
const pageBreak = "\n---PAGE_BREAK---\n"

// AnalyzeResponse is the JSON response from the /api/analyze endpoint.
type AnalyzeResponse struct {
	Success     bool                       `json:"success"`
	Document    string                     `json:"document,omitempty"`
	Source      parser.SourceKind          `json:"source"`
	Aggregates  models.FinancialAggregates `json:"aggregates"`
	Score       models.ScoreResult         `json:"score"`
	Eligibility models.Eligibility         `json:"eligibility"`
	CSV         string                     `json:"csv,omitempty"`
	Oracle      *oracle.Update             `json:"oracle,omitempty"`
	Bond        *oracle.BondRequest        `json:"bond,omitempty"`
	Published   bool                       `json:"published"`
	Trace       []models.TraceLine         `json:"trace,omitempty"`
	Version     string                     `json:"version,omitempty"`
}

// OracleScoreRequest is the body of /api/oracle/score.
type OracleScoreRequest struct {
	MRR       float64 `json:"mrr"`
	Customers int     `json:"customers"`
}

// Options configures the app built by New.
type Options struct {
	BodyLimitMB int
	AllowOrigin string
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Analyzer  *analyzer.Analyzer
	KYC       *kyc.Service
	Publisher oracle.Publisher
	Limiter   *rate.Limiter // throttles /api/analyze; nil disables
	Log       zerolog.Logger
}

// New builds the fiber app with middleware and all routes registered.
func New(h *Handler, opts Options) *fiber.App {
	if opts.BodyLimitMB <= 0 {
		opts.BodyLimitMB = 32
	}
	if opts.AllowOrigin == "" {
		opts.AllowOrigin = "*"
	}

	app := fiber.New(fiber.Config{
		AppName:               "revenue-scorer",
		BodyLimit:             opts.BodyLimitMB << 20,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})
	app.Use(requestid.New())
	app.Use(requestLogger(h.Log))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowOrigin,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/health", HandleHealth)
	api.Post("/analyze", h.HandleAnalyze)
	api.Post("/oracle/score", h.HandleOracleScore)
	api.Get("/kyc", h.HandleListKYC)
	api.Post("/kyc", h.HandleSubmitKYC)
	api.Post("/kyc/:id/approve", h.HandleApproveKYC)
	api.Post("/kyc/:id/reject", h.HandleRejectKYC)
}

// HandleHealth reports liveness.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": Version,
		"engine":  "fiber",
	})
}

// HandleAnalyze scores an uploaded statement.
func (h *Handler) HandleAnalyze(c *fiber.Ctx) error {
	if h.Limiter != nil && !h.Limiter.Allow() {
		return writeError(c, fiber.StatusTooManyRequests, CodeRateLimited, "Too many uploads, try again shortly.")
	}

	opts := analyzer.Options{Trace: c.FormValue("debug") == "true"}
	if v := strings.TrimSpace(c.FormValue("customers")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return writeError(c, fiber.StatusBadRequest, CodeBadRequest, "customers must be a non-negative integer")
		}
		opts.Customers = n
	}

	business := strings.TrimSpace(c.FormValue("business"))
	if business != "" && !oracle.IsAddress(business) {
		return writeError(c, fiber.StatusBadRequest, CodeBadRequest, "business must be a 0x-prefixed account address")
	}
	publish := c.FormValue("publish") == "true"
	if publish && business == "" {
		return writeError(c, fiber.StatusBadRequest, CodeBadRequest, "publish requires a business address")
	}

	// The slot is taken before the upload is read, so a second document is
	// refused without being rendered.
	var document string
	report, err := h.Analyzer.AnalyzeFrom(c.UserContext(), func(ctx context.Context) (parser.Source, error) {
		src, name, err := h.loadSource(ctx, c)
		document = name
		return src, err
	}, opts)
	if err != nil {
		return fail(c, err)
	}

	var csvBuf bytes.Buffer
	csvWriter := &writer.ReportWriter{IncludeHeader: c.FormValue("header") != "false"}
	if err := csvWriter.Write(&csvBuf, document, report); err != nil {
		return writeError(c, fiber.StatusInternalServerError, CodeInternal, "CSV generation failed: "+err.Error())
	}

	resp := AnalyzeResponse{
		Success:     true,
		Document:    document,
		Source:      report.Source,
		Aggregates:  report.Aggregates,
		Score:       report.Score,
		Eligibility: report.Eligibility,
		CSV:         csvBuf.String(),
		Trace:       report.Trace,
		Version:     Version,
	}

	// Only eligible businesses get oracle and bond payloads.
	if business != "" && report.Eligibility.Eligible {
		update, err := oracle.NewUpdate(business, report.Score, report.Aggregates.CustomerCount)
		if err != nil {
			return fail(c, err)
		}
		bond, err := oracle.NewBondRequest(business, report.Score, 0)
		if err != nil {
			return fail(c, err)
		}
		resp.Oracle = &update
		resp.Bond = &bond

		if publish && h.Publisher != nil {
			if err := h.Publisher.Publish(c.UserContext(), update); err != nil {
				return writeError(c, fiber.StatusBadGateway, CodePublishFailed, err.Error())
			}
			resp.Published = true
		}
	}

	return c.JSON(resp)
}

// loadSource reads the upload, preferring text the client already
// extracted from a PDF.
func (h *Handler) loadSource(ctx context.Context, c *fiber.Ctx) (parser.Source, string, error) {
	fh, fileErr := c.FormFile("file")
	document := ""
	if fileErr == nil {
		document = fh.Filename
	}

	if text := c.FormValue("extractedText"); strings.TrimSpace(text) != "" {
		text = strings.ReplaceAll(text, pageBreak, "\n")
		return parser.TextSource{Lines: parser.SplitLines(text)}, document, nil
	}

	if fileErr != nil {
		return nil, "", badRequest("No file uploaded. Use form field 'file'.")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", badRequest("Failed to read uploaded file.")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", badRequest("Failed to read uploaded file.")
	}

	src, err := extractor.Load(fh.Filename, fh.Header.Get(fiber.HeaderContentType), data)
	if err != nil {
		log := logger.FromContext(ctx, h.Log)
		log.Warn().Err(err).Str("document", fh.Filename).Msg("load failed")
		return nil, "", err
	}
	return src, document, nil
}

// HandleOracleScore scores verified oracle state.
func (h *Handler) HandleOracleScore(c *fiber.Ctx) error {
	var req OracleScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid JSON body")
	}
	if math.IsNaN(req.MRR) || math.IsInf(req.MRR, 0) || req.MRR < 0 || req.Customers < 0 {
		return writeError(c, fiber.StatusBadRequest, CodeBadRequest, "mrr and customers must be non-negative")
	}

	score := scoring.ScoreOracle(req.MRR, req.Customers)
	return c.JSON(fiber.Map{
		"success": true,
		"score":   score,
		"bond":    score.Metrics.Floor(),
	})
}

// HandleListKYC lists submissions, optionally filtered by status and address.
func (h *Handler) HandleListKYC(c *fiber.Ctx) error {
	status, err := kyc.ParseStatus(c.Query("status"))
	if err != nil {
		return fail(c, err)
	}
	subs, err := h.KYC.List(c.UserContext(), kyc.Filter{Status: status, Address: c.Query("address")})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"submissions": subs,
		"count":       len(subs),
	})
}

// HandleSubmitKYC stores a new pending submission.
func (h *Handler) HandleSubmitKYC(c *fiber.Ctx) error {
	var req kyc.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid JSON body")
	}
	sub, err := h.KYC.Submit(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "submission": sub})
}

// HandleApproveKYC approves a pending submission.
func (h *Handler) HandleApproveKYC(c *fiber.Ctx) error {
	sub, err := h.KYC.Approve(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "submission": sub})
}

// HandleRejectKYC rejects a pending submission with a reason.
func (h *Handler) HandleRejectKYC(c *fiber.Ctx) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid JSON body")
		}
	}
	sub, err := h.KYC.Reject(c.UserContext(), c.Params("id"), req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "submission": sub})
}
