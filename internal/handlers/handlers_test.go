package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"points-mall/internal/auth"
	"points-mall/internal/config"
	"points-mall/internal/handlers"
	"points-mall/internal/logging"
	"points-mall/internal/model"
	"points-mall/internal/store/memstore"
)

type env struct {
	server *handlers.Server
	store  *memstore.Store
	router http.Handler
	admin  *model.User
	member *model.User
	cfg    config.Config
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.Config{
		Address:   "localhost:0",
		JWTSecret: "test-secret",
		UploadDir: t.TempDir(),
	}
	st := memstore.New()
	server, err := handlers.NewServer(st, cfg, logging.New("error", io.Discard))
	require.NoError(t, err)

	ctx := context.Background()
	adminHash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	admin := &model.User{Username: "admin", PasswordHash: adminHash, RealName: "Admin", Role: model.RoleAdmin}
	require.NoError(t, st.CreateUser(ctx, admin))

	memberHash, err := auth.HashPassword("alice123")
	require.NoError(t, err)
	member := &model.User{Username: "alice", PasswordHash: memberHash, RealName: "Alice", Role: model.RoleMember}
	require.NoError(t, st.CreateUser(ctx, member))

	return &env{
		server: server,
		store:  st,
		router: server.Router(),
		admin:  admin,
		member: member,
		cfg:    cfg,
	}
}

func (e *env) token(t *testing.T, u *model.User) string {
	t.Helper()
	token, err := auth.GenerateToken(u, e.cfg.JWTSecret)
	require.NoError(t, err)
	return token
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)

	t.Run("successful registration", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "bob", "password": "bob12345", "real_name": "Bob",
		})
		require.Equal(t, http.StatusOK, rr.Code)
		u := decode[model.User](t, rr)
		assert.Equal(t, model.RoleMember, u.Role)
		assert.Zero(t, u.TotalPoints)
	})

	t.Run("duplicate username", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice", "password": "whatever", "real_name": "Other Alice",
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "x"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("login returns token", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "alice", "password": "alice123",
		})
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[map[string]any](t, rr)
		assert.NotEmpty(t, resp["token"])

		claims, err := auth.ParseToken(resp["token"].(string), e.cfg.JWTSecret)
		require.NoError(t, err)
		assert.Equal(t, e.member.ID, claims.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "alice", "password": "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("protected route without token", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/api/auth/info", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestThumbsEndpoint(t *testing.T) {
	e := newEnv(t)
	adminTok := e.token(t, e.admin)
	memberTok := e.token(t, e.member)

	t.Run("admin grants a double", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/thumbs", adminTok, map[string]any{
			"user_id": e.member.ID, "thumb_type": "double", "reason": "great demo",
		})
		require.Equal(t, http.StatusOK, rr.Code)
		rec := decode[model.AwardRecord](t, rr)
		assert.Equal(t, 5, rec.Points)
		assert.Equal(t, "Alice", rec.UserName)
		assert.Equal(t, "Admin", rec.GivenByName)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/thumbs", memberTok, map[string]any{
			"user_id": e.admin.ID, "thumb_type": "single",
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown kind", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/thumbs", adminTok, map[string]any{
			"user_id": e.member.ID, "thumb_type": "triple",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing recipient", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/thumbs", adminTok, map[string]any{
			"user_id": 9999, "thumb_type": "single",
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("stats reflect the award", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/api/thumbs/stats", memberTok, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		stats := decode[model.AwardStats](t, rr)
		assert.Equal(t, 5, stats.TotalPoints)
		assert.Equal(t, 5, stats.AvailablePoints)
		assert.Equal(t, 1, stats.DoubleCount)
	})
}

func TestExchangeFlow(t *testing.T) {
	e := newEnv(t)
	adminTok := e.token(t, e.admin)
	memberTok := e.token(t, e.member)

	// Give the member 25 points.
	for i := 0; i < 5; i++ {
		rr := e.do(t, http.MethodPost, "/api/thumbs", adminTok, map[string]any{
			"user_id": e.member.ID, "thumb_type": "double",
		})
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := e.do(t, http.MethodPost, "/api/products", adminTok, map[string]any{
		"name": "Mug", "points_required": 10, "stock": 3, "status": "listed",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	product := decode[model.Product](t, rr)

	var record model.RedemptionRecord

	t.Run("redeem two units", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/exchanges", memberTok, map[string]any{
			"product_id": product.ID, "quantity": 2,
		})
		require.Equal(t, http.StatusOK, rr.Code)
		record = decode[model.RedemptionRecord](t, rr)
		assert.Equal(t, model.RedemptionCompleted, record.Status)
		assert.Equal(t, 20, record.PointsSpent)
	})

	t.Run("insufficient points is a conflict", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/exchanges", memberTok, map[string]any{
			"product_id": product.ID, "quantity": 1,
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("delete product with history is a conflict", func(t *testing.T) {
		rr := e.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", product.ID), adminTok, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("cancel restores points and stock", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, fmt.Sprintf("/api/exchanges/%d/cancel", record.ID), memberTok, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		rec := decode[model.RedemptionRecord](t, rr)
		assert.Equal(t, model.RedemptionCancelled, rec.Status)

		info := e.do(t, http.MethodGet, "/api/auth/info", memberTok, nil)
		u := decode[model.User](t, info)
		assert.Equal(t, 25, u.AvailablePoints)
	})

	t.Run("second cancel is a conflict", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, fmt.Sprintf("/api/exchanges/%d/cancel", record.ID), memberTok, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("members see only their own history", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/api/exchanges", memberTok, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[struct {
			List  []model.RedemptionRecord `json:"list"`
			Total int                      `json:"total"`
		}](t, rr)
		require.Equal(t, 1, resp.Total)
		assert.Equal(t, e.member.ID, resp.List[0].UserID)
	})
}

func TestProductEndpoints(t *testing.T) {
	e := newEnv(t)
	adminTok := e.token(t, e.admin)
	memberTok := e.token(t, e.member)

	t.Run("member cannot create products", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/products", memberTok, map[string]any{
			"name": "Mug", "points_required": 10,
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("price must be positive", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/products", adminTok, map[string]any{
			"name": "Free mug", "points_required": 0,
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	rr := e.do(t, http.MethodPost, "/api/products", adminTok, map[string]any{
		"name": "Sticker pack", "points_required": 2, "stock": 10,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	product := decode[model.Product](t, rr)
	assert.Equal(t, model.ProductUnlisted, product.Status, "new products default to unlisted")

	t.Run("toggle lists the product", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, fmt.Sprintf("/api/products/%d/toggle-status", product.ID), adminTok, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		got := decode[model.Product](t, rr)
		assert.Equal(t, model.ProductListed, got.Status)
	})

	t.Run("catalog is public", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/api/products?status=listed", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[struct {
			List  []model.Product `json:"list"`
			Total int             `json:"total"`
		}](t, rr)
		assert.Equal(t, 1, resp.Total)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		rr := e.do(t, http.MethodPut, fmt.Sprintf("/api/products/%d", product.ID), adminTok, map[string]any{
			"stock": 42,
		})
		require.Equal(t, http.StatusOK, rr.Code)
		got := decode[model.Product](t, rr)
		assert.Equal(t, 42, got.Stock)
		assert.Equal(t, "Sticker pack", got.Name)
		assert.Equal(t, 2, got.PointsRequired)
	})

	t.Run("delete without history succeeds", func(t *testing.T) {
		rr := e.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", product.ID), adminTok, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = e.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", product.ID), "", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUserAdministration(t *testing.T) {
	e := newEnv(t)
	adminTok := e.token(t, e.admin)
	memberTok := e.token(t, e.member)

	t.Run("admin creates another admin", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/users", adminTok, map[string]any{
			"username": "root2", "password": "root1234", "real_name": "Second Admin", "role": "admin",
		})
		require.Equal(t, http.StatusOK, rr.Code)
		u := decode[model.User](t, rr)
		assert.Equal(t, model.RoleAdmin, u.Role)
	})

	t.Run("member cannot create users", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/users", memberTok, map[string]any{
			"username": "eve", "password": "eve12345", "real_name": "Eve",
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("member edits own profile only", func(t *testing.T) {
		rr := e.do(t, http.MethodPut, fmt.Sprintf("/api/users/%d", e.member.ID), memberTok, map[string]any{
			"email": "alice@example.com",
		})
		require.Equal(t, http.StatusOK, rr.Code)
		u := decode[model.User](t, rr)
		assert.Equal(t, "alice@example.com", u.Email)

		rr = e.do(t, http.MethodPut, fmt.Sprintf("/api/users/%d", e.admin.ID), memberTok, map[string]any{
			"real_name": "Hacked",
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin resets a password", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/reset-password", e.member.ID), adminTok, map[string]any{
			"new_password": "fresh-start",
		})
		require.Equal(t, http.StatusOK, rr.Code)

		login := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "alice", "password": "fresh-start",
		})
		assert.Equal(t, http.StatusOK, login.Code)
	})

	t.Run("change own password verifies the old one", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/api/auth/change-password", adminTok, map[string]any{
			"old_password": "wrong", "new_password": "whatever1",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = e.do(t, http.MethodPost, "/api/auth/change-password", adminTok, map[string]any{
			"old_password": "admin123", "new_password": "better-secret",
		})
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestDashboard(t *testing.T) {
	e := newEnv(t)
	adminTok := e.token(t, e.admin)
	memberTok := e.token(t, e.member)

	rr := e.do(t, http.MethodPost, "/api/thumbs", adminTok, map[string]any{
		"user_id": e.member.ID, "thumb_type": "single",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	t.Run("admin view", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/api/stats/dashboard", adminTok, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		stats := decode[model.DashboardStats](t, rr)
		assert.Equal(t, 1, stats.TotalUsers)
		assert.Equal(t, 1, stats.TotalAwards)
	})

	t.Run("member view", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/api/stats/dashboard", memberTok, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		stats := decode[map[string]int](t, rr)
		assert.Equal(t, 1, stats["total_points"])
		assert.Equal(t, 1, stats["total_thumbs"])
	})
}

func TestUpload(t *testing.T) {
	e := newEnv(t)
	memberTok := e.token(t, e.member)

	upload := func(t *testing.T, filename string) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("not really an image"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+memberTok)
		rr := httptest.NewRecorder()
		e.router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("png roundtrip", func(t *testing.T) {
		rr := upload(t, "avatar.png")
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[map[string]string](t, rr)
		require.NotEmpty(t, resp["url"])

		get := e.do(t, http.MethodGet, resp["url"], "", nil)
		require.Equal(t, http.StatusOK, get.Code)
		assert.Equal(t, "not really an image", get.Body.String())
	})

	t.Run("unsupported extension", func(t *testing.T) {
		rr := upload(t, "malware.exe")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
