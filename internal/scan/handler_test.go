package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Chenxue3/restaurant-sub001/internal/apperr"
	"github.com/Chenxue3/restaurant-sub001/internal/menu"
)

// fakeVisionModel returns a canned model response.
type fakeVisionModel struct {
	response string
	err      error
	calls    int
}

func (f *fakeVisionModel) GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func setupScanRouter(model *fakeVisionModel) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	service := NewService(model, 1<<20)
	handler := NewHandler(service)

	r.POST("/scan-menu", handler.ScanMenu)
	return r
}

func multipartScanRequest(t *testing.T, image []byte, contentType, language string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="image"; filename="menu.jpg"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(image); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteField("language", language); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest("POST", "/scan-menu", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestScanMenu_Success(t *testing.T) {
	model := &fakeVisionModel{response: `{
		"menuType": "dinner",
		"categories": [
			{"name": "Appetizers", "items": [{"name": "Spring Rolls", "price": "$8.99"}]}
		]
	}`}
	router := setupScanRouter(model)

	req := multipartScanRequest(t, []byte("fake image bytes"), "image/jpeg", "English")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool               `json:"success"`
		Data    menu.ExtractedMenu `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Fatal("expected success envelope")
	}

	item := resp.Data.Categories[0].Items[0]
	if item.ID != "item-0-0" {
		t.Errorf("expected synthesized id item-0-0, got %q", item.ID)
	}
	if item.Name != "Spring Rolls" || item.Price != "$8.99" {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestScanMenu_InvalidUploadSkipsModelCall(t *testing.T) {
	model := &fakeVisionModel{response: "{}"}
	router := setupScanRouter(model)

	req := multipartScanRequest(t, []byte("not an image"), "application/pdf", "English")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if model.calls != 0 {
		t.Errorf("invalid input reached the model (%d calls)", model.calls)
	}
}

func TestScanMenu_MissingFile(t *testing.T) {
	router := setupScanRouter(&fakeVisionModel{})

	req, _ := http.NewRequest("POST", "/scan-menu", &bytes.Buffer{})
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestScanMenu_UnparsableModelOutput(t *testing.T) {
	secret := "RAW-MODEL-GIBBERISH-12345"
	model := &fakeVisionModel{response: "sorry, no menu here. " + secret}
	router := setupScanRouter(model)

	req := multipartScanRequest(t, []byte("fake image bytes"), "image/jpeg", "English")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code == http.StatusOK {
		t.Fatalf("expected failure status, got 200: %s", w.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not a clean envelope: %v", err)
	}
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Message == "" {
		t.Error("expected a user-facing message")
	}
	if strings.Contains(w.Body.String(), secret) {
		t.Error("raw model output leaked into the response")
	}
}

func TestScanMenu_UpstreamFailureMapped(t *testing.T) {
	model := &fakeVisionModel{err: apperr.New(apperr.UpstreamTransient, "gemini returned status 503")}
	router := setupScanRouter(model)

	req := multipartScanRequest(t, []byte("fake image bytes"), "image/jpeg", "English")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestScan_ParseErrorKind(t *testing.T) {
	service := NewService(&fakeVisionModel{response: "not json"}, 1<<20)

	_, err := service.Scan(context.Background(), []byte("img"), "image/jpeg", "English")
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.ExtractionParse {
		t.Fatalf("expected ExtractionParse, got %v", err)
	}
}
