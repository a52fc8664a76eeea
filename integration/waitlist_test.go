package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/keylet/waitlist-api/config"
	"github.com/keylet/waitlist-api/config/router"
	"github.com/keylet/waitlist-api/domain"
	"github.com/keylet/waitlist-api/internal/log"
	"github.com/keylet/waitlist-api/internal/models"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testAdminSecret = "integration-admin-secret"

type WaitlistAPITestSuite struct {
	suite.Suite
	db        *gorm.DB
	server    *httptest.Server
	baseURL   string
	logger    *log.Logger
	appConfig *config.ApplicationConfig
}

func (suite *WaitlistAPITestSuite) SetupSuite() {
	os.Setenv("ADMIN_SECRET_KEY", testAdminSecret)

	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(&models.WaitlistEntry{})
	suite.Require().NoError(err)

	suite.logger = log.NewLoggerWithJSONOutput()

	suite.appConfig = &config.ApplicationConfig{
		DB:     suite.db,
		Logger: suite.logger,
		Config: config.NewAppConfig(),
	}

	suite.appConfig.RouterService = router.CreateRouterService(suite.logger, nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    30 * time.Second,
	})

	domain.SetupCoreDomain(suite.appConfig)

	suite.server = httptest.NewServer(suite.appConfig.RouterService.GetEngine())
	suite.baseURL = suite.server.URL
}

func (suite *WaitlistAPITestSuite) TearDownSuite() {
	os.Unsetenv("ADMIN_SECRET_KEY")

	if suite.server != nil {
		suite.server.Close()
	}
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		sqlDB.Close()
	}
}

func (suite *WaitlistAPITestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM waitlist_entries")
}

func (suite *WaitlistAPITestSuite) postJSON(path string, body map[string]string) (*http.Response, map[string]interface{}) {
	jsonBody, err := json.Marshal(body)
	suite.Require().NoError(err)

	resp, err := http.Post(suite.baseURL+path, "application/json", bytes.NewBuffer(jsonBody))
	suite.Require().NoError(err)
	defer resp.Body.Close()

	var envelope map[string]interface{}
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&envelope))

	return resp, envelope
}

func (suite *WaitlistAPITestSuite) adminGet(path, secret string) (*http.Response, []byte) {
	req, err := http.NewRequest(http.MethodGet, suite.baseURL+path, nil)
	suite.Require().NoError(err)
	if secret != "" {
		req.Header.Set("X-Admin-Secret", secret)
	}

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)

	return resp, body
}

func (suite *WaitlistAPITestSuite) TestHealthCheck() {
	resp, err := http.Get(suite.baseURL + "/health")
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)

	var response map[string]interface{}
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))

	suite.Equal(float64(200), response["code"])
	suite.Contains(response["message"], "health check completed")

	data := response["data"].(map[string]interface{})
	suite.Equal(float64(1), data["database"])
	suite.Contains(data, "uptime")
}

func (suite *WaitlistAPITestSuite) TestJoinWaitlist_NewEmail() {
	resp, envelope := suite.postJSON("/v1/waitlist", map[string]string{"email": "new@example.com"})

	suite.Equal(http.StatusCreated, resp.StatusCode)
	suite.Equal("Thank you for joining our waitlist!", envelope["message"])

	data := envelope["data"].(map[string]interface{})
	suite.Equal(true, data["accepted"])
	suite.Equal(false, data["already_existed"])

	var entry models.WaitlistEntry
	suite.Require().NoError(suite.db.Where("email = ?", "new@example.com").First(&entry).Error)
	suite.Equal(models.StatusPending, entry.Status)
	suite.Equal("website", entry.Metadata["source"])
	suite.NotZero(entry.ID)
	suite.False(entry.Timestamp.IsZero())
}

func (suite *WaitlistAPITestSuite) TestJoinWaitlist_DuplicateIsIdempotent() {
	_, first := suite.postJSON("/v1/waitlist", map[string]string{"email": "dup@example.com"})
	suite.Equal(float64(201), first["code"])

	resp, second := suite.postJSON("/v1/waitlist", map[string]string{"email": "dup@example.com"})

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("You're already on our waitlist!", second["message"])

	data := second["data"].(map[string]interface{})
	suite.Equal(true, data["accepted"])
	suite.Equal(true, data["already_existed"])

	var count int64
	suite.Require().NoError(suite.db.Model(&models.WaitlistEntry{}).Where("email = ?", "dup@example.com").Count(&count).Error)
	suite.EqualValues(1, count)
}

func (suite *WaitlistAPITestSuite) TestJoinWaitlist_MalformedEmails() {
	malformed := []string{
		"notanemail",
		"a@b",        // domain has no dot
		"a b@c.com",  // whitespace in local part
		"a@b c.com",  // whitespace in domain
		"@example.com",
	}

	for _, email := range malformed {
		resp, envelope := suite.postJSON("/v1/waitlist", map[string]string{"email": email})

		suite.Equal(http.StatusBadRequest, resp.StatusCode, "email %q", email)
		suite.Equal("Please enter a valid email address.", envelope["message"], "email %q", email)
	}

	var count int64
	suite.Require().NoError(suite.db.Model(&models.WaitlistEntry{}).Count(&count).Error)
	suite.Zero(count, "malformed submissions must not reach the store")
}

func (suite *WaitlistAPITestSuite) TestAdminSession() {
	resp, envelope := suite.postJSON("/v1/admin/session", map[string]string{"password": testAdminSecret})
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("Authentication successful", envelope["message"])
	suite.Equal(true, envelope["data"].(map[string]interface{})["authenticated"])

	for _, wrong := range []string{"", "wrong", testAdminSecret + " ", strings.ToUpper(testAdminSecret)} {
		resp, envelope = suite.postJSON("/v1/admin/session", map[string]string{"password": wrong})
		suite.Equal(http.StatusUnauthorized, resp.StatusCode, "password %q", wrong)
		suite.Equal("Invalid password. Please try again.", envelope["message"], "password %q", wrong)
	}
}

func (suite *WaitlistAPITestSuite) TestAdminSession_MissingSecretIsConfigError() {
	os.Unsetenv("ADMIN_SECRET_KEY")
	defer os.Setenv("ADMIN_SECRET_KEY", testAdminSecret)

	resp, envelope := suite.postJSON("/v1/admin/session", map[string]string{"password": "anything"})

	suite.Equal(http.StatusInternalServerError, resp.StatusCode)
	suite.Equal("Server configuration error", envelope["message"])
}

func (suite *WaitlistAPITestSuite) TestAdminList_RequiresSecret() {
	resp, _ := suite.adminGet("/v1/admin/waitlist", "")
	suite.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = suite.adminGet("/v1/admin/waitlist", "not-the-secret")
	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (suite *WaitlistAPITestSuite) TestAdminList_NewestFirst() {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seed := []models.WaitlistEntry{
		{Email: "first@example.com", Status: models.StatusPending, Timestamp: base, Metadata: models.JSONMap{"source": "website"}},
		{Email: "second@example.com", Status: models.StatusPending, Timestamp: base.Add(time.Hour), Metadata: models.JSONMap{"source": "website"}},
		{Email: "third@example.com", Status: models.StatusPending, Timestamp: base.Add(2 * time.Hour), Metadata: models.JSONMap{"source": "website"}},
	}
	for i := range seed {
		suite.Require().NoError(suite.db.Create(&seed[i]).Error)
	}

	resp, body := suite.adminGet("/v1/admin/waitlist", testAdminSecret)
	suite.Equal(http.StatusOK, resp.StatusCode)

	var envelope struct {
		Code int `json:"code"`
		Data []struct {
			ID        uint              `json:"id"`
			Email     string            `json:"email"`
			Status    string            `json:"status"`
			Metadata  map[string]string `json:"metadata"`
			Timestamp string            `json:"timestamp"`
		} `json:"data"`
		Message string `json:"message"`
	}
	suite.Require().NoError(json.Unmarshal(body, &envelope))

	suite.Require().Len(envelope.Data, 3)
	suite.Equal("third@example.com", envelope.Data[0].Email)
	suite.Equal("second@example.com", envelope.Data[1].Email)
	suite.Equal("first@example.com", envelope.Data[2].Email)

	for _, entry := range envelope.Data {
		suite.Equal(models.StatusPending, entry.Status)
		suite.Equal("website", entry.Metadata["source"])
	}

	// Timestamps strictly non-increasing.
	for i := 1; i < len(envelope.Data); i++ {
		prev, err := time.Parse(time.RFC3339, envelope.Data[i-1].Timestamp)
		suite.Require().NoError(err)
		cur, err := time.Parse(time.RFC3339, envelope.Data[i].Timestamp)
		suite.Require().NoError(err)
		suite.False(prev.Before(cur))
	}
}

func (suite *WaitlistAPITestSuite) TestAdminExportCSV() {
	_, envelope := suite.postJSON("/v1/waitlist", map[string]string{"email": "export@example.com"})
	suite.Equal(float64(201), envelope["code"])

	resp, _ := suite.adminGet("/v1/admin/waitlist/export", "")
	suite.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, body := suite.adminGet("/v1/admin/waitlist/export", testAdminSecret)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(resp.Header.Get("Content-Type"), "text/csv")
	suite.Contains(resp.Header.Get("Content-Disposition"), "waitlist.csv")

	csv := string(body)
	suite.True(strings.HasPrefix(csv, "id,email,status,source,timestamp\n"))
	suite.Contains(csv, "export@example.com,pending,website,")
}

func (suite *WaitlistAPITestSuite) TestEndToEndScenario() {
	// Empty store, one signup, one admin read: the full happy path.
	resp, envelope := suite.postJSON("/v1/waitlist", map[string]string{"email": "new@example.com"})
	suite.Equal(http.StatusCreated, resp.StatusCode)
	data := envelope["data"].(map[string]interface{})
	suite.Equal(true, data["accepted"])
	suite.Equal(false, data["already_existed"])

	listResp, body := suite.adminGet("/v1/admin/waitlist", testAdminSecret)
	suite.Equal(http.StatusOK, listResp.StatusCode)

	var listEnvelope struct {
		Data []struct {
			Email    string            `json:"email"`
			Status   string            `json:"status"`
			Metadata map[string]string `json:"metadata"`
		} `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(body, &listEnvelope))

	suite.Require().Len(listEnvelope.Data, 1)
	suite.Equal("new@example.com", listEnvelope.Data[0].Email)
	suite.Equal("pending", listEnvelope.Data[0].Status)
	suite.Equal("website", listEnvelope.Data[0].Metadata["source"])
}

func TestWaitlistAPITestSuite(t *testing.T) {
	suite.Run(t, new(WaitlistAPITestSuite))
}
