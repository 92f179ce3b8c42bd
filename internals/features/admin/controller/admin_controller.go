package controller

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"sspl_backend/internals/configs"
	"sspl_backend/internals/features/admin/dto"
	"sspl_backend/internals/features/registration/model"
	"sspl_backend/internals/features/registration/repository"
	helper "sspl_backend/internals/helpers"
	"sspl_backend/internals/helpers/objectstore"
)

// AdminController serves the dashboard: listings, the approve/delete/override
// actions, signed attachment URLs, and the xlsx export.
type AdminController struct {
	Store   repository.SubmissionStore
	Objects objectstore.Store
	cfg     *configs.AppConfig
}

func NewAdminController(cfg *configs.AppConfig, store repository.SubmissionStore, objects objectstore.Store) *AdminController {
	return &AdminController{Store: store, Objects: objects, cfg: cfg}
}

// Submissions handles GET /api/admin/submissions and returns both tracks.
func (ctrl *AdminController) Submissions(c *fiber.Ctx) error {
	subs, err := ctrl.Store.List(c.Context())
	if err != nil {
		log.Printf("[ADMIN] list submissions: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load submissions.")
	}
	failed, err := ctrl.Store.ListFailed(c.Context())
	if err != nil {
		log.Printf("[ADMIN] list failed submissions: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load submissions.")
	}
	return helper.Success(c, "OK", fiber.Map{
		"submissions":       subs,
		"failedSubmissions": failed,
	})
}

// Approve handles POST /api/admin/approve. It moves a failed submission into
// the successful track with paymentValidated forced true.
func (ctrl *AdminController) Approve(c *fiber.Ctx) error {
	id, err := ctrl.parseActionID(c)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}

	moved, err := ctrl.Store.Approve(c.Context(), id)
	if err != nil {
		log.Printf("[ADMIN] approve %s: %v", id, err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to approve the submission.")
	}
	if moved == nil {
		return helper.Error(c, fiber.StatusNotFound, "Submission not found.")
	}
	return helper.Success(c, "Submission approved.", moved)
}

// Delete handles POST /api/admin/delete (soft delete on either track).
func (ctrl *AdminController) Delete(c *fiber.Ctx) error {
	id, err := ctrl.parseActionID(c)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}

	removed, err := ctrl.Store.SoftDelete(c.Context(), id)
	if err != nil {
		log.Printf("[ADMIN] delete %s: %v", id, err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to delete the submission.")
	}
	if !removed {
		return helper.Error(c, fiber.StatusNotFound, "Submission not found.")
	}
	return helper.Success(c, "Submission deleted.", fiber.Map{"id": id})
}

// PaymentValidation handles POST /api/admin/payment-validation, the manual
// override on a successful submission. Omitted "validated" means true.
func (ctrl *AdminController) PaymentValidation(c *fiber.Ctx) error {
	var body dto.ActionRequest
	if err := c.BodyParser(&body); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid request body. Expected JSON payload.")
	}
	id, err := uuid.Parse(body.ID)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid submission id.")
	}
	validated := true
	if body.Validated != nil {
		validated = *body.Validated
	}

	updated, err := ctrl.Store.SetPaymentValidated(c.Context(), id, validated)
	if err != nil {
		log.Printf("[ADMIN] payment-validation %s: %v", id, err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to update the submission.")
	}
	if updated == nil {
		return helper.Error(c, fiber.StatusNotFound, "Submission not found.")
	}
	return helper.Success(c, "Payment validation updated.", updated)
}

// SignedURL handles GET /api/admin/signed-url?key=... and returns a
// short-lived download URL for one attachment.
func (ctrl *AdminController) SignedURL(c *fiber.Ctx) error {
	key := c.Query("key")
	if !objectstore.KeyLooksSafe(key) {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid object key.")
	}

	url, err := ctrl.Objects.SignedURL(c.Context(), key, ctrl.cfg.SignedURLTTL)
	if err != nil {
		log.Printf("[ADMIN] presign %s: %v", key, err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to sign the object URL.")
	}
	return helper.Success(c, "OK", fiber.Map{
		"url":       url,
		"expiresIn": int(ctrl.cfg.SignedURLTTL / time.Second),
	})
}

var exportHeader = []string{
	"Submitted At", "Name", "Address", "Player Type", "T-Shirt Size",
	"Jersey Name", "Jersey Number", "Food Preference", "Fee Response",
	"Payment Validated", "Photo URL", "Payment Screenshot URL", "Submission ID",
}

// Export handles GET /api/admin/export. It streams an xlsx workbook of the
// successful track; ?track=failed exports the failed track instead, with the
// failure reason appended.
func (ctrl *AdminController) Export(c *fiber.Ctx) error {
	failedTrack := c.Query("track") == "failed"

	var rows []model.Submission
	var reasons []string
	if failedTrack {
		failed, err := ctrl.Store.ListFailed(c.Context())
		if err != nil {
			log.Printf("[ADMIN] export failed track: %v", err)
			return helper.Error(c, fiber.StatusInternalServerError, "Failed to export submissions.")
		}
		for _, f := range failed {
			rows = append(rows, f.Submission)
			reasons = append(reasons, f.FailureReason)
		}
	} else {
		subs, err := ctrl.Store.List(c.Context())
		if err != nil {
			log.Printf("[ADMIN] export: %v", err)
			return helper.Error(c, fiber.StatusInternalServerError, "Failed to export submissions.")
		}
		rows = subs
	}

	book, err := ctrl.buildWorkbook(c, rows, reasons, failedTrack)
	if err != nil {
		log.Printf("[ADMIN] build workbook: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to export submissions.")
	}
	defer book.Close()

	buf, err := book.WriteToBuffer()
	if err != nil {
		log.Printf("[ADMIN] write workbook: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to export submissions.")
	}

	filename := fmt.Sprintf("submissions-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Send(buf.Bytes())
}

func (ctrl *AdminController) buildWorkbook(c *fiber.Ctx, rows []model.Submission, reasons []string, failedTrack bool) (*excelize.File, error) {
	book := excelize.NewFile()
	const sheet = "Submissions"
	book.SetSheetName(book.GetSheetName(0), sheet)

	header := exportHeader
	if failedTrack {
		header = append(append([]string{}, exportHeader...), "Failure Reason")
	}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, sub := range rows {
		photoURL := ctrl.bestEffortSignedURL(c, sub.PhotoKey)
		paymentURL := ctrl.bestEffortSignedURL(c, sub.PaymentScreenshotKey)

		row := []interface{}{
			sub.CreatedAt.UTC().Format(time.RFC3339),
			sub.SubmissionName,
			sub.SubmissionAddress,
			displayChoice(sub.PlayerType, sub.PlayerTypeOther),
			sub.TshirtSize,
			sub.JerseyName,
			sub.JerseyNumber,
			displayChoice(sub.FoodType, sub.FoodTypeOther),
			displayChoice(sub.FeeResponse, sub.FeeResponseOther),
			sub.PaymentValidated,
			photoURL,
			paymentURL,
			sub.SubmissionID.String(),
		}
		if failedTrack {
			row = append(row, reasons[i])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return book, nil
}

// bestEffortSignedURL falls back to the raw key; an export with keys is more
// useful than a failed export.
func (ctrl *AdminController) bestEffortSignedURL(c *fiber.Ctx, key string) string {
	if key == "" {
		return ""
	}
	url, err := ctrl.Objects.SignedURL(c.Context(), key, ctrl.cfg.SignedURLTTL)
	if err != nil {
		log.Printf("[ADMIN] presign for export %s: %v", key, err)
		return key
	}
	return url
}

func (ctrl *AdminController) parseActionID(c *fiber.Ctx) (uuid.UUID, error) {
	var body dto.ActionRequest
	if err := c.BodyParser(&body); err != nil {
		return uuid.Nil, fmt.Errorf("Invalid request body. Expected JSON payload.")
	}
	id, err := uuid.Parse(body.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("Invalid submission id.")
	}
	return id, nil
}

// displayChoice renders the free-text variant when the enum value is "other".
func displayChoice(value, other string) string {
	if value == "other" && other != "" {
		return other
	}
	return value
}
