package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"propertyreport/internal/database"
	"propertyreport/internal/geocoding"
	"propertyreport/internal/models"
	"propertyreport/internal/queue"
	"propertyreport/internal/telegram"
)

const sampleInput = `{
	"property": {"address": "5, Ridley Road", "postal_code": "L6 6DN", "asking_price": "£290,000"},
	"investment": {
		"purchase_price": "290000", "deposit_percent": "20", "monthly_rent": "2750", "mortgage_rate": "5.8",
		"council_tax": "1670", "repairs_maintenance": "660", "utilities": "1080", "water": "300",
		"broadband_tv": "480", "insurance": "480", "stamp_duty": "19000", "survey_cost": "800",
		"legal_fees": "2400", "loan_setup": "4640"
	},
	"epc": {"current_rating": "84", "potential_rating": "72"},
	"location": {"city": "Liverpool"}
}`

type MockLocator struct {
	mock.Mock
}

func (m *MockLocator) Lookup(ctx context.Context, query string) (*geocoding.Lookup, error) {
	args := m.Called(query)
	l, _ := args.Get(0).(*geocoding.Lookup)
	return l, args.Error(1)
}

type MockJobs struct {
	mock.Mock
}

func (m *MockJobs) Submit(in models.ReportInput, outPath string) (*models.ReportJob, error) {
	args := m.Called(in.Property.Address, outPath)
	job, _ := args.Get(0).(*models.ReportJob)
	return job, args.Error(1)
}

func (m *MockJobs) GetJob(id string) (*models.ReportJob, error) {
	args := m.Called(id)
	job, _ := args.Get(0).(*models.ReportJob)
	return job, args.Error(1)
}

func (m *MockJobs) ListJobs(limit int) ([]models.ReportJob, error) {
	args := m.Called(limit)
	jobs, _ := args.Get(0).([]models.ReportJob)
	return jobs, args.Error(1)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(deps, quietLogger()), nil)
}

func do(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	w := do(t, setupRouter(Deps{}), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestGenerateReport(t *testing.T) {
	router := setupRouter(Deps{})

	w := do(t, router, http.MethodPost, "/api/reports", sampleInput)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="5, Ridley Road - Investment Report.pdf"`, w.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, w.Header().Get("X-Report-Id"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = do(t, router, http.MethodPost, "/api/reports?format=markdown", sampleInput)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "# 5, Ridley Road - Investment Report")
}

func TestGenerateReportErrors(t *testing.T) {
	router := setupRouter(Deps{})

	w := do(t, router, http.MethodPost, "/api/reports", `{"property": {"address": ""}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "address", decode(t, w)["field"])

	w = do(t, router, http.MethodPost, "/api/reports", `{"property": {"address": "x"}, "images": {"garden": ["a.png"]}}`)
	assert.Equal(t, http.StatusOK, w.Code, "unknown image sections are skipped")

	w = do(t, router, http.MethodPost, "/api/reports", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComputeMetrics(t *testing.T) {
	router := setupRouter(Deps{})

	var body struct {
		Input json.RawMessage `json:"investment"`
	}
	require.NoError(t, json.Unmarshal([]byte(sampleInput), &body))

	w := do(t, router, http.MethodPost, "/api/metrics", string(body.Input))
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	metrics := out["metrics"].(map[string]interface{})
	assert.InDelta(t, 84840, metrics["total_investment"], 1e-6)
	assert.Equal(t, false, metrics["degraded"])
	assert.Empty(t, out["errors"])

	w = do(t, router, http.MethodPost, "/api/metrics", `{"purchase_price": "lots"}`)
	require.Equal(t, http.StatusOK, w.Code)
	out = decode(t, w)
	assert.Equal(t, true, out["metrics"].(map[string]interface{})["degraded"])
	assert.NotEmpty(t, out["errors"])
}

func TestClassifyImages(t *testing.T) {
	router := setupRouter(Deps{})

	w := do(t, router, http.MethodPost, "/api/classify",
		`{"paths": ["exterior_front.jpg", "kitchen.jpg", "floor_plan.png", "city_centre_map.png", "liverpool_docks.jpg", ""]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Sections map[string][]string `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, []string{"exterior_front.jpg"}, out.Sections["cover"])
	assert.Equal(t, []string{"kitchen.jpg"}, out.Sections["property"])
	assert.Equal(t, []string{"floor_plan.png"}, out.Sections["floor_plans"])
	assert.Equal(t, []string{"city_centre_map.png"}, out.Sections["directions"])
	assert.Equal(t, []string{"liverpool_docks.jpg"}, out.Sections["city"])

	w = do(t, router, http.MethodPost, "/api/classify", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLookupLocation(t *testing.T) {
	locator := &MockLocator{}
	locator.On("Lookup", "5 Ridley Road").Return(&geocoding.Lookup{City: "Liverpool", CarMinutes: 6, DistanceMiles: 1.68}, nil)
	locator.On("Lookup", "Atlantis").Return(nil, geocoding.ErrNotFound)
	locator.On("Lookup", "Anywhere").Return(nil, errors.New("connection refused"))
	router := setupRouter(Deps{Locator: locator})

	w := do(t, router, http.MethodGet, "/api/location?q=5+Ridley+Road", "")
	require.Equal(t, http.StatusOK, w.Code)
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.Equal(t, "Liverpool", fields["city"])
	assert.Equal(t, "6", fields["time_car"])
	assert.Equal(t, "1.7", fields["distance_city_centre"])

	w = do(t, router, http.MethodGet, "/api/location?q=5+Ridley+Road&format=geojson", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FeatureCollection", decode(t, w)["type"])

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/location?q=Atlantis", "").Code)
	assert.Equal(t, http.StatusBadGateway, do(t, router, http.MethodGet, "/api/location?q=Anywhere", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/location?q=", "").Code)

	disabled := setupRouter(Deps{})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, disabled, http.MethodGet, "/api/location?q=x", "").Code)
}

func TestJobs(t *testing.T) {
	jobs := &MockJobs{}
	jobs.On("Submit", "5, Ridley Road", "reports/").Return(&models.ReportJob{ID: "j1", Status: models.JobQueued}, nil).Once()
	jobs.On("Submit", "5, Ridley Road", "reports/").Return(nil, queue.ErrQueueFull).Once()
	jobs.On("GetJob", "j1").Return(&models.ReportJob{ID: "j1", Status: models.JobSucceeded}, nil)
	jobs.On("GetJob", "nope").Return(nil, database.ErrNotFound)
	jobs.On("ListJobs", 5).Return([]models.ReportJob{{ID: "j1"}}, nil)
	router := setupRouter(Deps{Jobs: jobs, Store: jobs, OutputDir: "reports"})

	w := do(t, router, http.MethodPost, "/api/reports/jobs", sampleInput)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "j1", decode(t, w)["id"])

	w = do(t, router, http.MethodPost, "/api/reports/jobs", sampleInput)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, router, http.MethodGet, "/api/reports/jobs/j1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "succeeded", decode(t, w)["status"])

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/reports/jobs/nope", "").Code)

	w = do(t, router, http.MethodGet, "/api/reports/jobs?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"j1"`)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/reports/jobs?limit=x", "").Code)
	jobs.AssertExpectations(t)

	disabled := setupRouter(Deps{})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, disabled, http.MethodPost, "/api/reports/jobs", sampleInput).Code)
}

func TestCities(t *testing.T) {
	router := setupRouter(Deps{})

	w := do(t, router, http.MethodGet, "/api/cities", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Liverpool"`)

	w = do(t, router, http.MethodGet, "/api/cities/liverpool", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(486100), decode(t, w)["population"])

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/cities/atlantis", "").Code)
}

func TestTelegramConfig(t *testing.T) {
	var sent atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := telegram.NewService(quietLogger())
	svc.UpdateConfig(models.TelegramConfig{APIURL: srv.URL})
	router := setupRouter(Deps{Telegram: svc})

	w := do(t, router, http.MethodGet, "/api/telegram/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["is_enabled"])

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/telegram/test", "").Code)

	w = do(t, router, http.MethodPut, "/api/telegram/config", `{"bot_token": "short", "chat_id": "42"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := "123456789:ABCdefGHIjklMNOpqr"
	w = do(t, router, http.MethodPut, "/api/telegram/config", `{"bot_token": "`+token+`", "chat_id": "42"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.Config().IsEnabled)
	assert.Equal(t, srv.URL, svc.Config().APIURL)

	w = do(t, router, http.MethodGet, "/api/telegram/config", "")
	assert.Equal(t, "••••Opqr", decode(t, w)["bot_token"])

	w = do(t, router, http.MethodPost, "/api/telegram/test", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(2), sent.Load())
}

func TestTelegramConfigKeepsServerAPIURL(t *testing.T) {
	var sent, diverted atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		diverted.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer other.Close()

	svc := telegram.NewService(quietLogger())
	svc.UpdateConfig(models.TelegramConfig{APIURL: srv.URL})
	router := setupRouter(Deps{Telegram: svc})

	body := `{"bot_token": "123456789:ABCdefGHIjklMNOpqr", "chat_id": "42", "api_url": "` + other.URL + `"}`
	w := do(t, router, http.MethodPut, "/api/telegram/config", body)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, srv.URL, svc.Config().APIURL)
	assert.Equal(t, int32(1), sent.Load())
	assert.Zero(t, diverted.Load())

	w = do(t, router, http.MethodGet, "/api/telegram/config", "")
	assert.NotContains(t, decode(t, w), "api_url")
}
