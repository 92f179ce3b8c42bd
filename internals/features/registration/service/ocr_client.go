package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"sspl_backend/internals/helpers/objectstore"
)

// ErrOcrUnavailable covers network failures and the request timeout; the
// caller gets a retryable-looking message, never a hang.
var ErrOcrUnavailable = errors.New("failed to reach the OCR service")

// OcrProviderError is a reply the provider did send: a non-2xx status or a
// processing error reported inside the JSON envelope.
type OcrProviderError struct {
	StatusCode int
	Message    string
}

func (e *OcrProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ocr request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return "ocr processing failed: " + e.Message
}

// OcrClientOptions carry the OCR.space form fields alongside the endpoint.
type OcrClientOptions struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	Language string
	Engine   string
}

// OcrClient sends image bytes to the remote OCR endpoint and extracts the
// concatenated recognized text.
type OcrClient struct {
	opts       OcrClientOptions
	httpClient *http.Client
}

func NewOcrClient(opts OcrClientOptions) *OcrClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.Engine == "" {
		opts.Engine = "5"
	}
	return &OcrClient{
		opts:       opts,
		httpClient: &http.Client{},
	}
}

// ocrEnvelope is the provider's response shape. ErrorMessage arrives as a
// string or a string array depending on the failure.
type ocrEnvelope struct {
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
	ParsedResults         []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
}

func (env *ocrEnvelope) errorMessage() string {
	if len(env.ErrorMessage) == 0 {
		return "OCR processing failed."
	}
	var single string
	if err := json.Unmarshal(env.ErrorMessage, &single); err == nil {
		if single == "" {
			return "OCR processing failed."
		}
		return single
	}
	var many []string
	if err := json.Unmarshal(env.ErrorMessage, &many); err == nil && len(many) > 0 {
		return strings.Join(many, "; ")
	}
	return "OCR processing failed."
}

// Recognize uploads the image as multipart form data and returns the parsed
// text blocks joined with newlines (empty string when the provider found
// none). The request is cancelled after the configured timeout.
func (oc *OcrClient) Recognize(ctx context.Context, imageBytes []byte, filename, mimeType string) (string, error) {
	if oc.opts.APIKey == "" {
		return "", errors.New("OCR_SPACE_API_KEY is not configured")
	}
	if mimeType == "" {
		mimeType = jpegMimeType
	}

	body, contentType, err := oc.buildForm(imageBytes, filename, mimeType)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, oc.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, oc.opts.Endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	log.Printf("[OCR] request endpoint=%s filename=%s bytes=%d", oc.opts.Endpoint, filename, len(imageBytes))

	resp, err := oc.httpClient.Do(req)
	if err != nil {
		log.Printf("[OCR] request failed to send: %v", err)
		return "", fmt.Errorf("%w: %v", ErrOcrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("[OCR] non-OK response status=%d body=%s", resp.StatusCode, string(raw))
		return "", &OcrProviderError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var env ocrEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", &OcrProviderError{StatusCode: resp.StatusCode, Message: "invalid OCR response payload"}
	}

	if env.IsErroredOnProcessing {
		msg := env.errorMessage()
		log.Printf("[OCR] provider reported processing error: %s", msg)
		return "", &OcrProviderError{Message: msg}
	}

	parts := make([]string, 0, len(env.ParsedResults))
	for _, r := range env.ParsedResults {
		parts = append(parts, r.ParsedText)
	}
	text := strings.Join(parts, "\n")
	log.Printf("[OCR] text extracted length=%d", len(text))
	return text, nil
}

func (oc *OcrClient) buildForm(imageBytes []byte, filename, mimeType string) (*bytes.Buffer, string, error) {
	body := new(bytes.Buffer)
	form := multipart.NewWriter(body)

	fields := map[string]string{
		"apikey":            oc.opts.APIKey,
		"language":          oc.opts.Language,
		"isOverlayRequired": "false",
		"scale":             "true",
		"OCREngine":         oc.opts.Engine,
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, ensureJpegFilename(filename, "payment")))
	header.Set("Content-Type", mimeType)
	part, err := form.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(imageBytes); err != nil {
		return nil, "", err
	}
	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return body, form.FormDataContentType(), nil
}

// ensureJpegFilename sanitizes the upload name to a transport-safe charset
// and forces a .jpg suffix to match the re-encoded payload.
func ensureJpegFilename(filename, fallbackBase string) string {
	base := objectstore.SanitizeFilename(filename)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" || base == "upload" && filename == "" {
		base = fallbackBase
	}
	return base + ".jpg"
}
