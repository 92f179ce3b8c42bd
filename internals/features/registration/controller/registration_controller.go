package controller

import (
	"context"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sspl_backend/internals/configs"
	"sspl_backend/internals/features/registration/dto"
	"sspl_backend/internals/features/registration/model"
	"sspl_backend/internals/features/registration/repository"
	"sspl_backend/internals/features/registration/service"
	helper "sspl_backend/internals/helpers"
	"sspl_backend/internals/helpers/objectstore"
)

// raw uploads above this are refused before any decode work
const maxUploadSizeBytes = 10 * 1024 * 1024

const failureReasonPaymentNotConfirmed = "payment_not_confirmed"

// RegistrationController runs the submission pipeline:
// field validation -> compression -> OCR -> payment evaluation -> persistence.
type RegistrationController struct {
	Store      repository.SubmissionStore
	Objects    objectstore.Store
	Compressor *service.ImageCompressor
	Ocr        *service.OcrClient
	Payments   *service.PaymentValidator
	Limit      int
	validate   *validator.Validate
}

func NewRegistrationController(
	cfg *configs.AppConfig,
	store repository.SubmissionStore,
	objects objectstore.Store,
	compressor *service.ImageCompressor,
	ocr *service.OcrClient,
	payments *service.PaymentValidator,
) *RegistrationController {
	return &RegistrationController{
		Store:      store,
		Objects:    objects,
		Compressor: compressor,
		Ocr:        ocr,
		Payments:   payments,
		Limit:      cfg.RegistrationLimit,
		validate:   validator.New(),
	}
}

// Register handles POST /api/register.
func (ctrl *RegistrationController) Register(c *fiber.Ctx) error {
	form := dto.ParseRegistrationForm(c)
	if err := ctrl.validate.Struct(form); err != nil {
		return helper.ValidationError(c, err)
	}

	photoFH, err := c.FormFile("photo")
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Please complete all required fields with valid uploads.")
	}
	paymentFH, err := c.FormFile("paymentScreenshot")
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Please complete all required fields with valid uploads.")
	}

	if !dto.LooksLikeImage(photoFH) || !dto.LooksLikeImage(paymentFH) {
		return helper.Error(c, fiber.StatusBadRequest, "Only image files are accepted for photo and payment proof.")
	}
	if photoFH.Size > maxUploadSizeBytes || paymentFH.Size > maxUploadSizeBytes {
		return helper.Error(c, fiber.StatusRequestEntityTooLarge, "Images must be 10 MB or smaller before upload.")
	}

	ctx := c.UserContext()

	total, err := ctrl.Store.CountActive(ctx)
	if err != nil {
		log.Printf("[REGISTRATION] capacity check failed: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Something went wrong while processing the registration.")
	}
	if total >= int64(ctrl.Limit) {
		return helper.Error(c, fiber.StatusConflict, "Registration is closed: all slots are taken.")
	}

	photoBytes, err := readUpload(photoFH)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Unable to read the uploaded photo.")
	}
	paymentBytes, err := readUpload(paymentFH)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Unable to read the uploaded payment screenshot.")
	}

	compressedPhoto, err := ctrl.Compressor.Compress(photoBytes, photoFH.Filename)
	if err != nil {
		return compressionError(c, err)
	}
	compressedPayment, err := ctrl.Compressor.Compress(paymentBytes, paymentFH.Filename)
	if err != nil {
		return compressionError(c, err)
	}
	log.Printf("[REGISTRATION] compressed photo=%dB payment=%dB", len(compressedPhoto.Bytes), len(compressedPayment.Bytes))

	// OCR failure fails the whole request: a submission is never accepted
	// as an unvalidated success. No retries; the user resubmits.
	text, err := ctrl.Ocr.Recognize(ctx, compressedPayment.Bytes, paymentFH.Filename, compressedPayment.ContentType)
	if err != nil {
		log.Printf("[REGISTRATION] OCR failed: %v", err)
		if errors.Is(err, service.ErrOcrUnavailable) {
			return helper.Error(c, fiber.StatusInternalServerError, "Failed to reach the OCR service. Please try again.")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "Something went wrong while processing the registration.")
	}

	summary := ctrl.Payments.Evaluate(text)

	sub := ctrl.buildSubmission(form, text, summary)

	if !summary.Matched {
		// diagnostic side channel: keep the evidence for manual review, but
		// the user-facing outcome stays "payment not confirmed"
		ctrl.recordFailedSubmission(ctx, sub, photoFH, paymentFH, compressedPhoto, compressedPayment)
		return helper.Error(c, fiber.StatusUnprocessableEntity,
			"Unable to confirm the payment from the screenshot. Please ensure the amount and payee name are clearly visible.")
	}

	photoKey, err := ctrl.uploadImage(ctx, "photos", photoFH, compressedPhoto)
	if err != nil {
		log.Printf("[REGISTRATION] photo upload failed: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Something went wrong while processing the registration.")
	}
	paymentKey, err := ctrl.uploadImage(ctx, "payments", paymentFH, compressedPayment)
	if err != nil {
		log.Printf("[REGISTRATION] payment screenshot upload failed: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Something went wrong while processing the registration.")
	}

	sub.PhotoKey = photoKey
	sub.PhotoContentType = compressedPhoto.ContentType
	sub.PaymentScreenshotKey = paymentKey
	sub.PaymentContentType = compressedPayment.ContentType

	if err := ctrl.Store.Insert(ctx, sub); err != nil {
		log.Printf("[REGISTRATION] persist failed: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Something went wrong while processing the registration.")
	}

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Registration received.", fiber.Map{
		"submissionId": sub.SubmissionID,
	})
}

// Status handles GET /api/register/status.
func (ctrl *RegistrationController) Status(c *fiber.Ctx) error {
	total, err := ctrl.Store.CountActive(c.UserContext())
	if err != nil {
		log.Printf("[REGISTRATION] capacity read failed: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Unable to determine registration capacity.")
	}
	available := int64(ctrl.Limit) - total
	if available < 0 {
		available = 0
	}
	return c.JSON(dto.RegistrationStatus{
		Total:     total,
		Limit:     ctrl.Limit,
		Available: available,
		Open:      total < int64(ctrl.Limit),
	})
}

func (ctrl *RegistrationController) buildSubmission(form dto.RegistrationForm, ocrText string, summary service.ValidationSummary) *model.Submission {
	now := time.Now().UTC()
	return &model.Submission{
		SubmissionID:      uuid.New(),
		SubmissionName:    form.Name,
		SubmissionAddress: form.Address,
		PlayerType:        form.PlayerType,
		PlayerTypeOther:   dto.OtherOrEmpty(form.PlayerType, form.PlayerTypeOther),
		TshirtSize:        form.TshirtSize,
		JerseyName:        form.JerseyName,
		JerseyNumber:      form.JerseyNumber,
		FoodType:          form.FoodType,
		FoodTypeOther:     dto.OtherOrEmpty(form.FoodType, form.FoodTypeOther),
		FeeResponse:       form.FeeResponse,
		FeeResponseOther:  dto.OtherOrEmpty(form.FeeResponse, form.FeeResponseOther),
		OcrText:           ocrText,
		DetectedAmounts:   summary.Amounts,
		MatchedReasons:    summary.Reasons,
		MatchedAmount:     summary.MatchedAmount,
		PaymentDetected:   summary.Matched,
		PaymentValidated:  summary.Matched,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// recordFailedSubmission is best-effort: every error here is logged and
// swallowed, the 422 to the caller does not depend on it.
func (ctrl *RegistrationController) recordFailedSubmission(
	ctx context.Context,
	sub *model.Submission,
	photoFH, paymentFH *multipart.FileHeader,
	photo, payment *service.CompressedImage,
) {
	if key, err := ctrl.uploadImage(ctx, "failed/photos", photoFH, photo); err != nil {
		log.Printf("[REGISTRATION] failed-track photo upload error: %v", err)
	} else {
		sub.PhotoKey = key
		sub.PhotoContentType = photo.ContentType
	}
	if key, err := ctrl.uploadImage(ctx, "failed/payments", paymentFH, payment); err != nil {
		log.Printf("[REGISTRATION] failed-track payment upload error: %v", err)
	} else {
		sub.PaymentScreenshotKey = key
		sub.PaymentContentType = payment.ContentType
	}

	failed := &model.FailedSubmission{
		Submission:     *sub,
		FailureReason:  failureReasonPaymentNotConfirmed,
		FailureMessage: "OCR could not confirm the expected payment amount and payee name.",
	}
	if err := ctrl.Store.InsertFailed(ctx, failed); err != nil {
		log.Printf("[REGISTRATION] failed-track persist error: %v", err)
	}
}

func (ctrl *RegistrationController) uploadImage(ctx context.Context, folder string, fh *multipart.FileHeader, img *service.CompressedImage) (string, error) {
	key := objectstore.BuildStorageKey(folder, fh.Filename)
	return ctrl.Objects.Upload(ctx, key, img.Bytes, img.ContentType, map[string]string{
		"originalname": objectstore.SanitizeFilename(fh.Filename),
		"originaltype": fh.Header.Get("Content-Type"),
	})
}

func compressionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCompressionLimit):
		return helper.Error(c, fiber.StatusRequestEntityTooLarge, "Unable to compress image under 1 MB.")
	case errors.Is(err, service.ErrUnsupportedImage):
		return helper.Error(c, fiber.StatusBadRequest, "Unsupported image format (use jpg/png/webp).")
	default:
		log.Printf("[REGISTRATION] compression failed: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Something went wrong while processing the registration.")
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}
