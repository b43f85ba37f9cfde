package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/eventease-dev/eventease/internal/access"
	"github.com/eventease-dev/eventease/internal/ai"
	"github.com/eventease-dev/eventease/internal/assistant"
	"github.com/eventease-dev/eventease/internal/config"
	"github.com/eventease-dev/eventease/internal/handlers"
	"github.com/eventease-dev/eventease/internal/imaging"
	"github.com/eventease-dev/eventease/internal/mail"
	"github.com/eventease-dev/eventease/internal/monitors"
	"github.com/eventease-dev/eventease/internal/router"
	"github.com/eventease-dev/eventease/internal/services"
	"github.com/eventease-dev/eventease/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (r *recordingSender) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) messages() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mail.Message(nil), r.sent...)
}

// scriptedGenerator answers prompts in order and remembers them.
type scriptedGenerator struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	out := g.responses[0]
	g.responses = g.responses[1:]
	return out, nil
}

type fakeCaptioner struct {
	caption string
	err     error
	calls   int
}

func (f *fakeCaptioner) Caption(_ context.Context, image []byte, contentType string) (string, error) {
	f.calls++
	return f.caption, f.err
}

type fakeTranslator struct{}

func (fakeTranslator) Translate(_ context.Context, text, target string) (string, error) {
	if target == "!!" {
		return "", ai.ErrInvalidLanguage
	}
	return "[" + target + "] " + text, nil
}

type fakeSpeaker struct{}

func (fakeSpeaker) Speak(_ context.Context, text, lang string) ([]byte, error) {
	return []byte("ID3" + text), nil
}

type testEnv struct {
	db        *gorm.DB
	h         *handlers.Handler
	router    *gin.Engine
	sender    *recordingSender
	generator *scriptedGenerator
	captioner *fakeCaptioner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := testutil.SetupTestDB(t)

	enforcer, err := access.NewEnforcer()
	require.NoError(t, err)

	sender := &recordingSender{}
	mailer, err := mail.NewWithSender(sender, "noreply@eventease.test", "https://eventease.test", zap.NewNop())
	require.NoError(t, err)

	generator := &scriptedGenerator{}
	captioner := &fakeCaptioner{}

	cfg := &config.AppConfig{
		Env:            "test",
		PublicURL:      "https://eventease.test",
		Domain:         "eventease.test",
		UploadMaxBytes: 1 << 20,
	}

	h := &handlers.Handler{
		DB:     database,
		Config: cfg,
		Logger: zap.NewNop(),
		Access: enforcer,
		Mailer: mailer,
		AI: ai.Services{
			Generator:  generator,
			Captioner:  captioner,
			Translator: fakeTranslator{},
			Speaker:    fakeSpeaker{},
		},
		Assistant: assistant.New(generator),
		Images:    imaging.NewStore(t.TempDir()),
		Notifier:  services.NewNotifier(nil, zap.NewNop()),
		Hub:       handlers.NewHub(zap.NewNop(), []string{"https://eventease.test"}),
		Probes: []monitors.Probe{
			{Name: "database", Check: func(ctx context.Context) error { return monitors.CheckDatabase(ctx, database) }},
		},
	}

	t.Cleanup(mailer.Wait)

	return &testEnv{
		db:        database,
		h:         h,
		router:    router.NewRouter(h),
		sender:    sender,
		generator: generator,
		captioner: captioner,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.DoJSON(t, e.router, method, path, body, token)
}

// doMultipart posts fields plus an optional file.
func (e *testEnv) doMultipart(t *testing.T, method, path string, fields map[string]string, fileField, fileName string, file []byte, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func tokenFromLink(t *testing.T, text, prefix string) string {
	t.Helper()

	idx := strings.Index(text, prefix)
	require.GreaterOrEqual(t, idx, 0, "link %q not found in %q", prefix, text)

	rest := text[idx+len(prefix):]
	end := strings.IndexAny(rest, " \n\r\t\"<")
	if end >= 0 {
		rest = rest[:end]
	}
	return rest
}

// webhookRecorder stands in for a Discord webhook endpoint.
type webhookRecorder struct {
	server *httptest.Server
	mu     sync.Mutex
	got    []services.DiscordWebhookRequest
}

func newWebhookRecorder(t *testing.T) *webhookRecorder {
	t.Helper()

	rec := &webhookRecorder{}
	rec.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload services.DiscordWebhookRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rec.mu.Lock()
		rec.got = append(rec.got, payload)
		rec.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(rec.server.Close)
	return rec
}

func (r *webhookRecorder) payloads() []services.DiscordWebhookRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]services.DiscordWebhookRequest(nil), r.got...)
}
