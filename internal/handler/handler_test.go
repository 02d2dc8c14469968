package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"aira/internal/config"
	"aira/internal/model"
	"aira/internal/repository"
	"aira/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spruceid/siwe-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "valid-token"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) Complete(ctx context.Context, messages []service.ChatMessage) (string, error) {
	return s.reply, s.err
}

func (s *stubLLM) IsEnabled() bool { return s.err == nil }

type stubPinner struct {
	hash string
	err  error
	name string
	body []byte
}

func (s *stubPinner) Pin(ctx context.Context, filename, name string, file io.Reader) (string, error) {
	s.name = name
	s.body, _ = io.ReadAll(file)
	return s.hash, s.err
}

type stubTokens struct{}

func (stubTokens) ParseToken(token string) (*model.Profile, error) {
	if token != testToken {
		return nil, service.ErrUnauthorized
	}
	return &model.Profile{UserID: "user-1", WalletAddress: "0xAbC"}, nil
}

type testEnv struct {
	router *gin.Engine
	store  *repository.FileStore
	llm    *stubLLM
	pinner *stubPinner
}

func newTestEnv(t *testing.T, props ...model.Property) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := repository.NewFileStore(filepath.Join(t.TempDir(), "properties.data.json"))
	require.NoError(t, err)
	// Append prepends, so insert oldest first
	for i := len(props) - 1; i >= 0; i-- {
		require.NoError(t, store.Append(ctx, props[i]))
	}

	llm := &stubLLM{}
	pinner := &stubPinner{hash: "QmTestHash"}

	properties, err := service.NewPropertyService(ctx, store, nil, nil, pinner, "https://gateway.test/ipfs", nil)
	require.NoError(t, err)
	t.Cleanup(func() { properties.Close() })

	auth := service.NewAuthService(
		repository.NewMemoryUserStore(),
		repository.NewMemoryNonceStore(),
		&config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, NonceTTL: time.Minute},
		nil,
	)

	router := NewRouter(Handlers{
		Advisor:  NewAdvisorHandler(service.NewAdvisorService(store, llm, 2, nil), nil),
		Chat:     NewChatHandler(service.NewChatService(llm, service.DefaultHistoryWindow, nil)),
		Property: NewPropertyHandler(properties, nil),
		Auth:     NewAuthHandler(auth, nil),
	}, stubTokens{}, "*", BuildInfo{Version: "test"}, nil)

	return &testEnv{router: router, store: store, llm: llm, pinner: pinner}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func property(id, name, price string) model.Property {
	return model.Property{
		ID:              id,
		Name:            name,
		Description:     "A fine home in " + name,
		Location:        "Jakarta",
		ImageURL:        "https://gateway.test/ipfs/Qm" + id,
		TotalShares:     100,
		Price:           price,
		Yield:           "5.0%",
		SharesAvailable: 100,
	}
}

func TestHealthAndVersion(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	var health map[string]string
	decode(t, w, &health)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "test", health["version"])

	w = env.do(t, http.MethodGet, "/version", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestNoRoute(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"API endpoint not found"}`, w.Body.String())
}

func TestPropertyHandler_ListAndGet(t *testing.T) {
	env := newTestEnv(t,
		property("2", "Bali Beach Villa", "$120,000"),
		property("1", "Jakarta Loft", "$80,000"),
	)

	w := env.do(t, http.MethodGet, "/api/v1/properties", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.Property
	decode(t, w, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "2", list[0].ID)

	w = env.do(t, http.MethodGet, "/api/v1/properties?q=villa", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Bali Beach Villa", list[0].Name)

	w = env.do(t, http.MethodGet, "/api/v1/properties/1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var p model.Property
	decode(t, w, &p)
	assert.Equal(t, "Jakarta Loft", p.Name)

	w = env.do(t, http.MethodGet, "/api/v1/properties/404", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Property not found"}`, w.Body.String())
}

func TestPropertyHandler_Similar(t *testing.T) {
	env := newTestEnv(t, property("1", "Jakarta Loft", "$80,000"))

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"no vector store", "/api/v1/properties/1/similar", http.StatusNotImplemented},
		{"bad limit", "/api/v1/properties/1/similar?limit=abc", http.StatusBadRequest},
		{"zero limit", "/api/v1/properties/1/similar?limit=0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, nil, "")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func addBody(tokenID string) model.AddPropertyRequest {
	return model.AddPropertyRequest{
		CreatePropertyDTO: model.CreatePropertyDTO{
			PropertyName:  "Ubud Retreat",
			Description:   "Rice terrace views",
			Location:      "Bali",
			TotalShares:   "1000",
			PricePerShare: "150",
		},
		IPFSHash: "QmImage",
		TokenID:  tokenID,
	}
}

func TestPropertyHandler_Add(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/properties/add", addBody("7"), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/properties/add", addBody("7"), testToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp model.AddPropertyResponse
	decode(t, w, &resp)
	assert.Equal(t, service.PropertyAddedMessage, resp.Message)
	assert.Equal(t, "7", resp.Property.ID)
	assert.Equal(t, "$150,000", resp.Property.Price)
	assert.Equal(t, "https://gateway.test/ipfs/QmImage", resp.Property.ImageURL)
	assert.Equal(t, 1000, resp.Property.SharesAvailable)

	w = env.do(t, http.MethodPost, "/api/v1/properties/add", addBody("7"), testToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	bad := addBody("8")
	bad.CreatePropertyDTO.TotalShares = "zero"
	w = env.do(t, http.MethodPost, "/api/v1/properties/add", bad, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/properties/add", map[string]string{"tokenId": "9"}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stored, err := env.store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func multipartUpload(t *testing.T, propertyName string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if propertyName != "" {
		require.NoError(t, mw.WriteField("propertyName", propertyName))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "house.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestPropertyHandler_Upload(t *testing.T) {
	tests := []struct {
		name     string
		property string
		image    []byte
		pinErr   error
		status   int
	}{
		{"pinned", "Ubud Retreat", []byte("png-bytes"), nil, http.StatusCreated},
		{"missing image", "Ubud Retreat", nil, nil, http.StatusBadRequest},
		{"missing name", "", []byte("png-bytes"), nil, http.StatusBadRequest},
		{"pinning fails", "Ubud Retreat", []byte("png-bytes"), errors.New("pinata down"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.pinner.err = tt.pinErr

			body, contentType := multipartUpload(t, tt.property, tt.image)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/properties/upload", body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Authorization", "Bearer "+testToken)
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusCreated {
				var resp model.UploadResponse
				decode(t, w, &resp)
				assert.Equal(t, "QmTestHash", resp.IPFSHash)
				assert.Equal(t, service.ImageUploadedMessage, resp.Message)
				assert.Equal(t, "Ubud Retreat", env.pinner.name)
				assert.Equal(t, tt.image, env.pinner.body)
			}
		})
	}
}

func TestAdvisorHandler_Advise(t *testing.T) {
	tests := []struct {
		name      string
		body      interface{}
		reply     string
		llmErr    error
		status    int
		wantTitle string
		wantRecs  int
	}{
		{
			name:   "missing budget",
			body:   map[string]interface{}{"goal": "growth"},
			status: http.StatusBadRequest,
		},
		{
			name:      "nothing affordable",
			body:      model.AdvisorRequest{Goal: "growth", Budget: 10},
			status:    http.StatusOK,
			wantTitle: service.NoPropertiesTitle,
		},
		{
			name:      "model failure",
			body:      model.AdvisorRequest{Goal: "growth", Budget: 1000000},
			llmErr:    errors.New("quota"),
			status:    http.StatusOK,
			wantTitle: service.AnalysisErrorTitle,
		},
		{
			name:      "recommendations joined",
			body:      model.AdvisorRequest{Goal: "income", Budget: 1000000},
			reply:     "```json\n{\"portfolioTitle\":\"Steady\",\"portfolioAnalysis\":\"Good\",\"recommendations\":[{\"id\":\"1\",\"reason\":\"cheap\"}]}\n```",
			status:    http.StatusOK,
			wantTitle: "Steady",
			wantRecs:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, property("1", "Jakarta Loft", "$80,000"))
			env.llm.reply = tt.reply
			env.llm.err = tt.llmErr

			w := env.do(t, http.MethodPost, "/api/v1/advisor", tt.body, "")
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			var result model.AdvisorResult
			decode(t, w, &result)
			assert.Equal(t, tt.wantTitle, result.PortfolioTitle)
			assert.Len(t, result.Recommendations, tt.wantRecs)
			if tt.wantRecs > 0 {
				assert.Equal(t, "Jakarta Loft", result.Recommendations[0].Name)
				assert.Equal(t, "cheap", result.Recommendations[0].Reason)
			}
		})
	}
}

func TestChatHandler_Chat(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		reply  string
		llmErr error
		status int
		want   string
	}{
		{"reply", model.ChatRequest{Message: "What is AIRA?"}, "A marketplace.", nil, http.StatusOK, "A marketplace."},
		{"model failure", model.ChatRequest{Message: "hi"}, "", errors.New("down"), http.StatusOK, service.ChatFallback},
		{"blank message", map[string]string{"message": "   "}, "", nil, http.StatusBadRequest, ""},
		{"missing message", map[string]string{}, "", nil, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.llm.reply = tt.reply
			env.llm.err = tt.llmErr

			w := env.do(t, http.MethodPost, "/api/v1/chat", tt.body, "")
			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				var resp model.ChatResponse
				decode(t, w, &resp)
				assert.Equal(t, tt.want, resp.Response)
			}
		})
	}
}

func TestAuthHandler(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/auth/nonce", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var nonce model.NonceResponse
	decode(t, w, &nonce)
	assert.Len(t, nonce.Nonce, 64)

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", model.LoginRequest{Message: "not siwe", Signature: "0x00"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"`+service.UnauthorizedMessage+`"}`, w.Body.String())

	msg, err := siwe.InitMessage("aira.example", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"https://aira.example", nonce.Nonce, map[string]interface{}{"chainId": 1})
	require.NoError(t, err)
	w = env.do(t, http.MethodPost, "/api/v1/auth/login", model.LoginRequest{Message: msg.String(), Signature: "0x1234"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"`+service.UnauthorizedMessage+`"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"message": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/profile", nil, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/profile", nil, testToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":"user-1","walletAddress":"0xAbC"}`, w.Body.String())
}
