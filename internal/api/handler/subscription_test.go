package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/notemeet_server/config"
	"github.com/qs3c/notemeet_server/internal/api/middleware"
	"github.com/qs3c/notemeet_server/internal/model"
	"github.com/qs3c/notemeet_server/internal/model/dto"
	"github.com/qs3c/notemeet_server/internal/repository"
	"github.com/qs3c/notemeet_server/internal/service"
	"github.com/qs3c/notemeet_server/internal/testutil"
)

func newSubscriptionHandler(env *testEnv) *SubscriptionHandler {
	subRepo := repository.NewSubscriptionRepository(env.db)
	cfg := &config.Config{
		Entitlement: config.EntitlementConfig{DefaultLimits: map[string]int64{
			model.LimitMeetings: 3,
		}},
	}
	return NewSubscriptionHandler(
		service.NewEntitlementService(subRepo, repository.NewUsageRepository(env.db), cfg),
		service.NewSubscriptionService(subRepo, repository.NewUserRepository(env.db), repository.NewPlanRepository(env.db)),
	)
}

func TestSubscriptionHandler_Me_NoSubscriptions(t *testing.T) {
	env := setupEnv(t)
	user := testutil.TestUser(t, env.db)
	router := gin.New()
	router.GET("/me", mockAuth(user), newSubscriptionHandler(env).Me)

	w := performRequest(router, "GET", "/me", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"subscriptions": [],
		"limits": {"meetings": 3, "transcription_minutes": 0, "ai_summaries": 0},
		"usage": {"meetings": 0, "transcription_minutes": 0, "ai_summaries": 0}
	}`, w.Body.String())
}

func TestSubscriptionHandler_Me(t *testing.T) {
	env := setupEnv(t)
	user := testutil.TestUser(t, env.db)
	plan := testutil.TestPlan(t, env.db, 20, 600, 30)
	sub := testutil.TestSubscription(t, env.db, user.ID, plan.ID)
	testutil.TestUsage(t, env.db, user.ID, model.LimitAISummaries, 4, time.Now())

	router := gin.New()
	router.GET("/me", mockAuth(user), newSubscriptionHandler(env).Me)

	w := performRequest(router, "GET", "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result dto.EntitlementResult
	decode(t, w, &result)
	require.Len(t, result.Subscriptions, 1)
	assert.Equal(t, sub.ID, result.Subscriptions[0].ID)
	assert.Equal(t, map[string]int64{
		model.LimitMeetings:             20,
		model.LimitTranscriptionMinutes: 600,
		model.LimitAISummaries:          30,
	}, result.Limits)
	assert.Equal(t, int64(4), result.Usage[model.LimitAISummaries])
}

func TestSubscriptionHandler_Me_Unauthorized(t *testing.T) {
	env := setupEnv(t)
	router := gin.New()
	router.GET("/me", middleware.Auth(testJWTSecret, env.auth), newSubscriptionHandler(env).Me)

	w := performRequest(router, "GET", "/me", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestSubscriptionHandler_Me_StoreFailure(t *testing.T) {
	env := setupEnv(t)
	user := testutil.TestUser(t, env.db)
	router := gin.New()
	router.GET("/me", mockAuth(user), newSubscriptionHandler(env).Me)

	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w := performRequest(router, "GET", "/me", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", parseError(t, w))
}

func adminSubscriptionRouter(env *testEnv, caller *model.User) *gin.Engine {
	h := newSubscriptionHandler(env)
	router := gin.New()
	admin := router.Group("/admin", mockAuth(caller), middleware.RequireRole(model.RoleAdmin))
	admin.POST("/subscriptions", h.Grant)
	admin.DELETE("/subscriptions/:id", h.Cancel)
	return router
}

func TestSubscriptionHandler_GrantAndCancel(t *testing.T) {
	env := setupEnv(t)
	admin := testutil.TestUser(t, env.db, testutil.WithRole(model.RoleAdmin))
	user := testutil.TestUser(t, env.db)
	plan := testutil.TestPlan(t, env.db, 10, 100, 5)
	router := adminSubscriptionRouter(env, admin)

	w := performRequest(router, "POST", "/admin/subscriptions", map[string]interface{}{
		"user_id": user.ID,
		"plan_id": plan.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var sub model.UserSubscription
	decode(t, w, &sub)
	assert.Equal(t, model.SubscriptionStatusActive, sub.Status)

	w = performRequest(router, "DELETE", "/admin/subscriptions/"+sub.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &sub)
	assert.Equal(t, model.SubscriptionStatusCancelled, sub.Status)

	w = performRequest(router, "DELETE", "/admin/subscriptions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscriptionHandler_Grant_Errors(t *testing.T) {
	env := setupEnv(t)
	admin := testutil.TestUser(t, env.db, testutil.WithRole(model.RoleAdmin))
	plan := testutil.TestPlan(t, env.db, 10, 100, 5)
	router := adminSubscriptionRouter(env, admin)

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
	}{
		{"missing fields", map[string]interface{}{}, http.StatusBadRequest},
		{"unknown user", map[string]interface{}{"user_id": 99999, "plan_id": plan.ID}, http.StatusNotFound},
		{"unknown plan", map[string]interface{}{"user_id": admin.ID, "plan_id": 99999}, http.StatusNotFound},
		{"bad window", map[string]interface{}{
			"user_id":    admin.ID,
			"plan_id":    plan.ID,
			"expires_at": time.Now().Add(-time.Hour).Format(time.RFC3339),
		}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, "POST", "/admin/subscriptions", tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestSubscriptionHandler_Grant_Forbidden(t *testing.T) {
	env := setupEnv(t)
	user := testutil.TestUser(t, env.db)
	router := adminSubscriptionRouter(env, user)

	w := performRequest(router, "POST", "/admin/subscriptions", map[string]interface{}{"user_id": user.ID, "plan_id": 1})

	assert.Equal(t, http.StatusForbidden, w.Code)
}
