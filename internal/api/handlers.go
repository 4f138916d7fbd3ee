package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"propertyreport/config"
	"propertyreport/internal/database"
	"propertyreport/internal/finance"
	"propertyreport/internal/geocoding"
	"propertyreport/internal/images"
	"propertyreport/internal/models"
	"propertyreport/internal/pipeline"
	"propertyreport/internal/queue"
	"propertyreport/internal/telegram"
)

// Locator resolves a free-text address.
type Locator interface {
	Lookup(ctx context.Context, query string) (*geocoding.Lookup, error)
}

// JobSubmitter queues background report jobs.
type JobSubmitter interface {
	Submit(in models.ReportInput, outPath string) (*models.ReportJob, error)
}

// JobReader reads job records.
type JobReader interface {
	GetJob(id string) (*models.ReportJob, error)
	ListJobs(limit int) ([]models.ReportJob, error)
}

// Deps are the services behind the handlers. Locator, Jobs, Store and
// Telegram are optional; their endpoints answer 503 when missing.
type Deps struct {
	Generator  *pipeline.Generator
	Classifier *images.Classifier
	Locator    Locator
	Jobs       JobSubmitter
	Store      JobReader
	Telegram   *telegram.Service
	OutputDir  string
}

type Handler struct {
	deps   Deps
	logger *logrus.Logger
}

type ClassifyRequest struct {
	Paths []string `json:"paths" binding:"required"`
}

func NewHandler(deps Deps, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if deps.Classifier == nil {
		deps.Classifier = images.NewClassifier()
	}
	if deps.Generator == nil {
		deps.Generator = pipeline.NewGenerator(pipeline.Options{Classifier: deps.Classifier}, logger)
	}
	return &Handler{deps: deps, logger: logger}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// GenerateReport renders the posted input and returns the PDF, or the
// Markdown summary with ?format=markdown.
func (h *Handler) GenerateReport(c *gin.Context) {
	var in models.ReportInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.WithError(err).Error("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var buf bytes.Buffer
	var res *pipeline.Result
	var err error
	markdown := c.Query("format") == "markdown"
	if markdown {
		res, err = h.deps.Generator.WriteMarkdown(&buf, in)
	} else {
		res, err = h.deps.Generator.Write(&buf, in)
	}
	if err != nil {
		h.writeGenerateError(c, err)
		return
	}

	c.Header("X-Report-Id", res.ID)
	c.Header("X-Report-Placeholders", strconv.Itoa(res.Placeholder))
	if markdown {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", buf.Bytes())
		return
	}
	c.Header("X-Report-Pages", strconv.Itoa(res.Pages))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *Handler) writeGenerateError(c *gin.Context, err error) {
	var verr *pipeline.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": verr.Field})
		return
	}
	h.logger.WithError(err).Error("Failed to generate report")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
}

// ComputeMetrics returns the investment metrics of the posted inputs.
func (h *Handler) ComputeMetrics(c *gin.Context) {
	var in models.InvestmentInputs
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	m := finance.ComputeMetrics(in)
	c.JSON(http.StatusOK, gin.H{
		"metrics": m,
		"errors":  m.ErrorStrings(),
	})
}

// ClassifyImages assigns each posted path to its section.
func (h *Handler) ClassifyImages(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request parameters"})
		return
	}

	col := images.NewCollection(h.deps.Classifier)
	for _, p := range req.Paths {
		if strings.TrimSpace(p) != "" {
			col.Add(p)
		}
	}
	sections := make(map[string][]string)
	for tag, paths := range col.Sections() {
		sections[string(tag)] = paths
	}
	c.JSON(http.StatusOK, gin.H{
		"images":   col.Refs(),
		"sections": sections,
	})
}

// LookupLocation answers GET /api/location?q=...; format=geojson returns
// the points as a feature collection.
func (h *Handler) LookupLocation(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q is required"})
		return
	}
	if h.deps.Locator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Location lookup is disabled"})
		return
	}

	l, err := h.deps.Locator.Lookup(c.Request.Context(), q)
	switch {
	case errors.Is(err, geocoding.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
		return
	case err != nil:
		h.logger.WithError(err).WithField("query", q).Error("Location lookup failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Location lookup failed"})
		return
	}

	if c.Query("format") == "geojson" {
		c.JSON(http.StatusOK, l.FeatureCollection())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lookup": l,
		"fields": l.Fields(),
	})
}

// SubmitJob queues a report to be written into the output directory.
func (h *Handler) SubmitJob(c *gin.Context) {
	if h.deps.Jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Background jobs are disabled"})
		return
	}
	var in models.ReportInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	outDir := h.deps.OutputDir
	if outDir != "" {
		outDir = filepath.Clean(outDir) + string(os.PathSeparator)
	}
	job, err := h.deps.Jobs.Submit(in, outDir)
	var verr *pipeline.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": verr.Field})
		return
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrQueueClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.WithError(err).Error("Failed to submit job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit job"})
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func (h *Handler) ListJobs(c *gin.Context) {
	if h.deps.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Background jobs are disabled"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	jobs, err := h.deps.Store.ListJobs(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list jobs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs"})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) GetJob(c *gin.Context) {
	if h.deps.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Background jobs are disabled"})
		return
	}
	job, err := h.deps.Store.GetJob(c.Param("id"))
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	case err != nil:
		h.logger.WithError(err).Error("Failed to get job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) ListCities(c *gin.Context) {
	c.JSON(http.StatusOK, config.Cities())
}

func (h *Handler) GetCity(c *gin.Context) {
	city := config.GetCityByName(c.Param("name"))
	if city == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "City not found"})
		return
	}
	c.JSON(http.StatusOK, city)
}

func (h *Handler) GetTelegramConfig(c *gin.Context) {
	if h.deps.Telegram == nil {
		c.JSON(http.StatusOK, gin.H{
			"is_enabled": false,
			"chat_id":    "",
			"bot_token":  "",
		})
		return
	}

	// Don't send the full bot token back to the client
	c.JSON(http.StatusOK, h.deps.Telegram.Config().Redacted())
}

// UpdateTelegramConfig updates the Telegram configuration
func (h *Handler) UpdateTelegramConfig(c *gin.Context) {
	if h.deps.Telegram == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Telegram is not available"})
		return
	}
	var request models.TelegramConfig
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.WithError(err).Error("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// Basic validation
	if len(request.BotToken) < 20 || !strings.Contains(request.BotToken, ":") {
		h.logger.Error("Invalid bot token format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bot token format. Please check your bot token from @BotFather"})
		return
	}

	if request.ChatID == "" {
		h.logger.Error("Chat ID is required")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chat ID is required"})
		return
	}

	// Test the Telegram configuration before saving
	request.APIURL = h.deps.Telegram.Config().APIURL
	request.IsEnabled = true
	testService := telegram.NewService(h.logger)
	testService.UpdateConfig(request)

	testMessage := "🔔 Test notification from Property Report\n\nIf you see this message, your Telegram configuration is working correctly!"
	if err := testService.SendMessage(testMessage); err != nil {
		h.logger.WithError(err).Error("Failed to send test message")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.deps.Telegram.UpdateConfig(request)
	c.JSON(http.StatusOK, gin.H{"message": "Telegram configuration updated successfully"})
}

// TestTelegramConfig sends a sample report notification
func (h *Handler) TestTelegramConfig(c *gin.Context) {
	if h.deps.Telegram == nil || !h.deps.Telegram.Config().IsEnabled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Telegram is not configured or is disabled"})
		return
	}

	sample := &pipeline.Result{
		ID:          "test",
		Address:     "5, Ridley Road",
		Filename:    "5, Ridley Road - Investment Report.pdf",
		Pages:       8,
		Placeholder: 1,
		Metrics: finance.Metrics{
			TotalInvestment: 84840,
			RentalYieldPct:  11.4,
			ROIPct:          17.8,
		},
	}
	if err := h.deps.Telegram.NotifyReport(sample); err != nil {
		h.logger.WithError(err).Error("Failed to send test notification")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Test notification sent successfully"})
}
