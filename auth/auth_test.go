package auth_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Iamvinnie254/freshharvest-api/auth"
	"github.com/Iamvinnie254/freshharvest-api/middleware"
	"github.com/Iamvinnie254/freshharvest-api/models"
)

func setupAuthTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	r := gin.New()
	r.POST("/auth/register", auth.RegisterHandler(db))
	r.POST("/auth/login", auth.LoginHandler(db))

	protected := r.Group("/api")
	protected.Use(middleware.ValidateToken)
	protected.GET("/whoami", func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		userType, _ := c.Get("user_type")
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "user_type": userType})
	})

	return r, db
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterLoginFlow(t *testing.T) {
	r, db := setupAuthTest(t)

	w := postJSON(r, "/auth/register", gin.H{
		"username":         "wanjiku",
		"email":            "wanjiku@example.com",
		"password":         "hunter2hunter2",
		"password_confirm": "hunter2hunter2",
		"user_type":        "consumer",
		"location":         "Nairobi",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password_hash")

	var stored models.User
	assert.NoError(t, db.Where("email = ?", "wanjiku@example.com").First(&stored).Error)
	assert.NotEqual(t, "hunter2hunter2", stored.PasswordHash)

	w = postJSON(r, "/auth/login", gin.H{
		"email":    "wanjiku@example.com",
		"password": "hunter2hunter2",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var loginResp struct {
		Token string `json:"token"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	assert.NotEmpty(t, loginResp.Token)

	// Token is accepted by the JWT middleware and carries identity claims.
	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var whoami map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &whoami))
	assert.EqualValues(t, stored.ID, whoami["user_id"])
	assert.Equal(t, "consumer", whoami["user_type"])
}

func TestRegisterRejections(t *testing.T) {
	r, _ := setupAuthTest(t)

	t.Run("password mismatch", func(t *testing.T) {
		w := postJSON(r, "/auth/register", gin.H{
			"username":         "a",
			"email":            "a@example.com",
			"password":         "hunter2hunter2",
			"password_confirm": "different1234",
			"user_type":        "consumer",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad user_type", func(t *testing.T) {
		w := postJSON(r, "/auth/register", gin.H{
			"username":         "b",
			"email":            "b@example.com",
			"password":         "hunter2hunter2",
			"password_confirm": "hunter2hunter2",
			"user_type":        "wholesaler",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		body := gin.H{
			"username":         "c",
			"email":            "c@example.com",
			"password":         "hunter2hunter2",
			"password_confirm": "hunter2hunter2",
			"user_type":        "farmer",
		}
		assert.Equal(t, http.StatusCreated, postJSON(r, "/auth/register", body).Code)
		assert.Equal(t, http.StatusConflict, postJSON(r, "/auth/register", body).Code)
	})
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r, _ := setupAuthTest(t)

	postJSON(r, "/auth/register", gin.H{
		"username":         "wanjiku",
		"email":            "wanjiku@example.com",
		"password":         "hunter2hunter2",
		"password_confirm": "hunter2hunter2",
		"user_type":        "consumer",
	})

	w := postJSON(r, "/auth/login", gin.H{"email": "wanjiku@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/auth/login", gin.H{"email": "nobody@example.com", "password": "hunter2hunter2"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
