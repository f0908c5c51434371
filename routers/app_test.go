package routers

import (
	"bytes"
	"code212/config"
	"code212/database"
	"code212/database/dbtest"
	"code212/utils/logger"
	"code212/utils/render"
	"code212/utils/storage"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubRenderer struct{}

func (stubRenderer) Render(data render.CertificateData) (*render.Document, error) {
	return &render.Document{Preview: []byte("png"), PDF: []byte("%PDF-1.3 " + data.Code)}, nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t   *testing.T
	app *fiber.App
}

func (cl client) do(method, path, token string, body interface{}) (int, envelope) {
	cl.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(cl.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := cl.app.Test(req, -1)
	require.NoError(cl.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(cl.t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(cl.t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

func (cl client) login(email, password string) string {
	cl.t.Helper()
	status, env := cl.do(fiber.MethodPost, "/auth/login", "", fiber.Map{"email": email, "password": password})
	require.Equal(cl.t, fiber.StatusOK, status, env.Message)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(cl.t, json.Unmarshal(env.Data, &data))
	return data.Token
}

func decodeInto(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

func newTestApp(t *testing.T) (client, *storage.Local) {
	t.Helper()
	cfg := &config.Config{
		JWTKey:        "test-secret",
		SaltRound:     bcrypt.MinCost,
		PublicBaseURL: "http://code212.test",
		CORSOrigins:   "*",
	}
	config.AppConfig = cfg
	db := dbtest.Open(t)
	database.Database = database.DbInstance{Db: db}

	store := storage.NewLocal(t.TempDir(), cfg.PublicBaseURL+"/files")
	deps := Deps{Config: cfg, DB: db, Log: logger.Nop(), Renderer: stubRenderer{}, Storage: store}
	return client{t: t, app: SetupApp(deps, NewServices(deps))}, store
}

func TestHealth(t *testing.T) {
	cl, _ := newTestApp(t)
	status, env := cl.do(fiber.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Status)
}

func TestSignupRules(t *testing.T) {
	cl, _ := newTestApp(t)

	status, env := cl.do(fiber.MethodPost, "/auth/signup", "", fiber.Map{"name": "Al", "email": "nope", "password": "short"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	var errs map[string]string
	decodeInto(t, env.Data, &errs)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")

	status, _ = cl.do(fiber.MethodPost, "/auth/signup", "", fiber.Map{"name": "Directrice", "email": "admin@code212.ma", "password": "motdepasse1", "role": "admin"})
	assert.Equal(t, fiber.StatusCreated, status)

	status, _ = cl.do(fiber.MethodPost, "/auth/signup", "", fiber.Map{"name": "Intrus", "email": "intrus@code212.ma", "password": "motdepasse1", "role": "ADMIN"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = cl.do(fiber.MethodPost, "/auth/signup", "", fiber.Map{"name": "Doublon", "email": "ADMIN@code212.ma", "password": "motdepasse1"})
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestLoginBlocksAfterThreeFailures(t *testing.T) {
	cl, _ := newTestApp(t)
	status, _ := cl.do(fiber.MethodPost, "/auth/signup", "", fiber.Map{"name": "Etudiant", "email": "e@uca.ma", "password": "motdepasse1"})
	require.Equal(t, fiber.StatusCreated, status)

	for i := 0; i < 3; i++ {
		status, _ = cl.do(fiber.MethodPost, "/auth/login", "", fiber.Map{"email": "e@uca.ma", "password": "mauvaismdp"})
		assert.Equal(t, fiber.StatusUnauthorized, status)
	}
	status, env := cl.do(fiber.MethodPost, "/auth/login", "", fiber.Map{"email": "e@uca.ma", "password": "motdepasse1"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, env.Message, "temporarily blocked")
}

func TestCertificationFlow(t *testing.T) {
	cl, _ := newTestApp(t)

	status, _ := cl.do(fiber.MethodPost, "/auth/signup", "", fiber.Map{"name": "Directrice", "email": "admin@code212.ma", "password": "motdepasse1", "role": "ADMIN"})
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = cl.do(fiber.MethodPost, "/auth/signup", "", fiber.Map{"name": "Yasmine Idrissi", "email": "yasmine@uca.ma", "password": "motdepasse1"})
	require.Equal(t, fiber.StatusCreated, status)
	admin := cl.login("admin@code212.ma", "motdepasse1")
	student := cl.login("yasmine@uca.ma", "motdepasse1")

	// Administrator builds and publishes a three module formation.
	status, env := cl.do(fiber.MethodPost, "/admin/formations", admin, fiber.Map{
		"title": "Internet des Objets", "level": "beginner", "duration": 12,
		"objectives": []string{"Câbler un capteur", "Publier en MQTT"},
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var f struct {
		ID uint `json:"ID"`
	}
	decodeInto(t, env.Data, &f)

	status, _ = cl.do(fiber.MethodPost, "/admin/formations", admin, fiber.Map{"title": ""})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	status, _ = cl.do(fiber.MethodPost, "/admin/formations", student, fiber.Map{"title": "Piratage"})
	assert.Equal(t, fiber.StatusForbidden, status)

	moduleIDs := make([]uint, 0, 3)
	for _, title := range []string{"Capteurs", "Microcontrôleurs", "Projet"} {
		status, env = cl.do(fiber.MethodPost, fmt.Sprintf("/admin/formations/%d/modules", f.ID), admin, fiber.Map{"title": title})
		require.Equal(t, fiber.StatusCreated, status, env.Message)
		var m struct {
			ID uint `json:"ID"`
		}
		decodeInto(t, env.Data, &m)
		moduleIDs = append(moduleIDs, m.ID)
	}

	status, env = cl.do(fiber.MethodGet, fmt.Sprintf("/formations/%d", f.ID), student, nil)
	assert.Equal(t, fiber.StatusNotFound, status, "draft formations are hidden")

	status, _ = cl.do(fiber.MethodPost, fmt.Sprintf("/admin/formations/%d/publish", f.ID), admin, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, env = cl.do(fiber.MethodGet, "/formations?page=1&limit=5", student, nil)
	require.Equal(t, fiber.StatusOK, status)
	var list struct {
		Formations []json.RawMessage `json:"formations"`
	}
	decodeInto(t, env.Data, &list)
	assert.Len(t, list.Formations, 1)

	// Learner must be approved before tracking progress.
	toggle := func(id uint) (int, envelope) {
		return cl.do(fiber.MethodPost, fmt.Sprintf("/modules/%d/toggle-completion", id), student, nil)
	}
	status, _ = toggle(moduleIDs[0])
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = cl.do(fiber.MethodPost, fmt.Sprintf("/formations/%d/register", f.ID), student, nil)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var reg struct {
		ID     uint   `json:"ID"`
		Status string `json:"status"`
	}
	decodeInto(t, env.Data, &reg)
	assert.Equal(t, "pending", reg.Status)

	status, _ = cl.do(fiber.MethodPost, fmt.Sprintf("/formations/%d/register", f.ID), student, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, env = cl.do(fiber.MethodGet, "/admin/registrations?status=pending", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), "Yasmine Idrissi")

	status, _ = cl.do(fiber.MethodPatch, fmt.Sprintf("/admin/registrations/%d/approve", reg.ID), admin, nil)
	require.Equal(t, fiber.StatusOK, status)

	type toggleResult struct {
		Completed bool `json:"completed"`
		Progress  struct {
			Percentage int `json:"percentage"`
		} `json:"progress"`
		CanGenerate bool `json:"can_generate"`
	}
	var tr toggleResult
	for _, id := range moduleIDs[:2] {
		status, env = toggle(id)
		require.Equal(t, fiber.StatusOK, status, env.Message)
	}
	decodeInto(t, env.Data, &tr)
	assert.True(t, tr.Completed)
	assert.Equal(t, 67, tr.Progress.Percentage)
	assert.False(t, tr.CanGenerate)

	status, env = toggle(moduleIDs[2])
	require.Equal(t, fiber.StatusOK, status)
	decodeInto(t, env.Data, &tr)
	assert.Equal(t, 100, tr.Progress.Percentage)
	assert.True(t, tr.CanGenerate)

	status, env = cl.do(fiber.MethodGet, "/user/certificates", student, nil)
	require.Equal(t, fiber.StatusOK, status)
	var mine []struct {
		ID          uint `json:"ID"`
		CanGenerate bool `json:"can_generate"`
	}
	decodeInto(t, env.Data, &mine)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].CanGenerate)
	certPath := fmt.Sprintf("/admin/certificates/%d/generate", mine[0].ID)

	status, _ = cl.do(fiber.MethodPost, certPath, student, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = cl.do(fiber.MethodPost, certPath, admin, nil)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var generated struct {
		Code             string `json:"code"`
		VerificationCode string `json:"verification_code"`
		PDFPath          string `json:"pdf_path"`
	}
	decodeInto(t, env.Data, &generated)
	require.NotEmpty(t, generated.VerificationCode)

	status, _ = cl.do(fiber.MethodPost, certPath, admin, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, env = cl.do(fiber.MethodGet, "/certificates/verify/"+generated.VerificationCode, "", nil)
	require.Equal(t, fiber.StatusOK, status)
	var v struct {
		Code           string `json:"code"`
		StudentName    string `json:"student_name"`
		FormationTitle string `json:"formation_title"`
		PDFURL         string `json:"pdf_url"`
	}
	decodeInto(t, env.Data, &v)
	assert.Equal(t, generated.Code, v.Code)
	assert.Equal(t, "Yasmine Idrissi", v.StudentName)
	assert.Equal(t, "Internet des Objets", v.FormationTitle)
	assert.Equal(t, "http://code212.test/files/"+generated.PDFPath, v.PDFURL)

	status, _ = cl.do(fiber.MethodGet, "/certificates/verify/0123456789abcdef", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = cl.do(fiber.MethodGet, "/certificates/verify/not-a-code", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	resp, err := cl.app.Test(httptest.NewRequest(fiber.MethodGet, "/files/"+generated.PDFPath, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, env = cl.do(fiber.MethodGet, fmt.Sprintf("/admin/certificates?formation_id=%d&status=generated", f.ID), admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	var listed struct {
		Certificates []json.RawMessage `json:"certificates"`
	}
	decodeInto(t, env.Data, &listed)
	assert.Len(t, listed.Certificates, 1)

	status, _ = cl.do(fiber.MethodGet, "/admin/certificates?issued_on=30-06-2025", admin, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, env = cl.do(fiber.MethodPost, "/admin/certificates/bulk-generate", admin, fiber.Map{"ids": []uint{mine[0].ID, 999}})
	require.Equal(t, fiber.StatusOK, status)
	var bulk struct {
		Generated int `json:"generated"`
		Failed    int `json:"failed"`
	}
	decodeInto(t, env.Data, &bulk)
	assert.Equal(t, 0, bulk.Generated)
	assert.Equal(t, 2, bulk.Failed)

	status, _ = cl.do(fiber.MethodPost, "/admin/certificates/bulk-generate", admin, fiber.Map{"ids": []uint{}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestUserAdministration(t *testing.T) {
	cl, _ := newTestApp(t)

	status, _ := cl.do(fiber.MethodPost, "/auth/signup", "", fiber.Map{"name": "Directrice", "email": "admin@code212.ma", "password": "motdepasse1", "role": "ADMIN"})
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = cl.do(fiber.MethodPost, "/auth/signup", "", fiber.Map{"name": "Omar", "email": "omar@uca.ma", "password": "motdepasse1"})
	require.Equal(t, fiber.StatusCreated, status)
	admin := cl.login("admin@code212.ma", "motdepasse1")
	student := cl.login("omar@uca.ma", "motdepasse1")

	status, env := cl.do(fiber.MethodPut, "/user/profile", student, fiber.Map{"name": "Omar Benali", "institution": "FSSM"})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var me struct {
		ID          uint   `json:"ID"`
		Name        string `json:"name"`
		Institution string `json:"institution"`
	}
	decodeInto(t, env.Data, &me)
	assert.Equal(t, "Omar Benali", me.Name)
	assert.Equal(t, "FSSM", me.Institution)

	status, _ = cl.do(fiber.MethodPut, "/user/profile", student, fiber.Map{})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = cl.do(fiber.MethodGet, "/admin/users", student, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = cl.do(fiber.MethodGet, "/admin/users?role=student&search=benali", admin, nil)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var list struct {
		Users []struct {
			Email string `json:"email"`
		} `json:"users"`
	}
	decodeInto(t, env.Data, &list)
	require.Len(t, list.Users, 1)
	assert.Equal(t, "omar@uca.ma", list.Users[0].Email)

	for i := 0; i < 3; i++ {
		cl.do(fiber.MethodPost, "/auth/login", "", fiber.Map{"email": "omar@uca.ma", "password": "mauvaismdp"})
	}
	status, _ = cl.do(fiber.MethodPost, "/auth/login", "", fiber.Map{"email": "omar@uca.ma", "password": "motdepasse1"})
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = cl.do(fiber.MethodPatch, fmt.Sprintf("/admin/users/%d/unblock", me.ID), admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	cl.login("omar@uca.ma", "motdepasse1")

	status, env = cl.do(fiber.MethodGet, "/auth/login-history?limit=5", student, nil)
	require.Equal(t, fiber.StatusOK, status)
	var history struct {
		LoginTracking []struct {
			UserID uint `json:"user_id"`
		} `json:"loginTracking"`
	}
	decodeInto(t, env.Data, &history)
	require.Len(t, history.LoginTracking, 2)
	assert.Equal(t, me.ID, history.LoginTracking[0].UserID)

	status, _ = cl.do(fiber.MethodPatch, "/admin/users/999/unblock", admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env = cl.do(fiber.MethodGet, "/admin/users/1/permissions", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	var perms struct {
		Permissions []string `json:"permissions"`
	}
	decodeInto(t, env.Data, &perms)
	assert.ElementsMatch(t, []string{"manage-certificates", "manage-formations", "manage-users"}, perms.Permissions)
}
