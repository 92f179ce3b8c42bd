package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOcrClient(endpoint string) *OcrClient {
	return NewOcrClient(OcrClientOptions{
		Endpoint: endpoint,
		APIKey:   "test-key",
		Timeout:  2 * time.Second,
	})
}

func TestRecognizeJoinsParsedBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Equal(t, "test-key", r.FormValue("apikey"))
		assert.Equal(t, "eng", r.FormValue("language"))
		assert.Equal(t, "5", r.FormValue("OCREngine"))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "payment.jpg", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"IsErroredOnProcessing": false,
			"ParsedResults": [{"ParsedText": "Paid Rs 900"}, {"ParsedText": "to Aditya Kuveskar"}]
		}`))
	}))
	defer srv.Close()

	text, err := newTestOcrClient(srv.URL).Recognize(context.Background(), []byte("img"), "payment.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "Paid Rs 900\nto Aditya Kuveskar", text)
}

func TestRecognizeProviderProcessingError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"IsErroredOnProcessing": true, "ErrorMessage": ["Unable to recognize the file type", "E216"]}`))
	}))
	defer srv.Close()

	_, err := newTestOcrClient(srv.URL).Recognize(context.Background(), []byte("img"), "shot.jpg", "image/jpeg")
	var provider *OcrProviderError
	require.ErrorAs(t, err, &provider)
	assert.Equal(t, "Unable to recognize the file type; E216", provider.Message)
}

func TestRecognizeProviderStringError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"IsErroredOnProcessing": true, "ErrorMessage": "quota exceeded"}`))
	}))
	defer srv.Close()

	_, err := newTestOcrClient(srv.URL).Recognize(context.Background(), []byte("img"), "shot.jpg", "image/jpeg")
	var provider *OcrProviderError
	require.ErrorAs(t, err, &provider)
	assert.Equal(t, "quota exceeded", provider.Message)
}

func TestRecognizeNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server blew up", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestOcrClient(srv.URL).Recognize(context.Background(), []byte("img"), "shot.jpg", "image/jpeg")
	var provider *OcrProviderError
	require.ErrorAs(t, err, &provider)
	assert.Equal(t, http.StatusInternalServerError, provider.StatusCode)
}

func TestRecognizeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewOcrClient(OcrClientOptions{
		Endpoint: srv.URL,
		APIKey:   "test-key",
		Timeout:  50 * time.Millisecond,
	})

	_, err := client.Recognize(context.Background(), []byte("img"), "shot.jpg", "image/jpeg")
	assert.ErrorIs(t, err, ErrOcrUnavailable)
}

func TestRecognizeUnreachableEndpoint(t *testing.T) {
	client := newTestOcrClient("http://127.0.0.1:1/parse/image")

	_, err := client.Recognize(context.Background(), []byte("img"), "shot.jpg", "image/jpeg")
	assert.ErrorIs(t, err, ErrOcrUnavailable)
}

func TestRecognizeRequiresAPIKey(t *testing.T) {
	client := NewOcrClient(OcrClientOptions{Endpoint: "http://example.invalid"})

	_, err := client.Recognize(context.Background(), []byte("img"), "shot.jpg", "image/jpeg")
	assert.Error(t, err)
}

func TestEnsureJpegFilename(t *testing.T) {
	assert.Equal(t, "my_shot.jpg", ensureJpegFilename("My Shot.PNG", "payment"))
	assert.Equal(t, "payment.jpg", ensureJpegFilename("", "payment"))
	assert.Equal(t, "receipt.jpg", ensureJpegFilename("receipt.webp", "payment"))
}
