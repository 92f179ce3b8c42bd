package dto

import (
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RegistrationForm is the multipart form body of POST /api/register.
// Conditional *Other fields are required when their enum selects "other".
type RegistrationForm struct {
	Name    string `json:"name" validate:"required,max=100"`
	Address string `json:"address" validate:"required"`

	PlayerType      string `json:"playerType" validate:"required,oneof=batsman bowler all_rounder other"`
	PlayerTypeOther string `json:"playerTypeOther" validate:"required_if=PlayerType other,max=100"`

	TshirtSize   string `json:"tshirtSize" validate:"required,max=10"`
	JerseyName   string `json:"jerseyName" validate:"required,max=50"`
	JerseyNumber string `json:"jerseyNumber" validate:"required,max=10"`

	FoodType      string `json:"foodType" validate:"required,oneof=veg non_veg other"`
	FoodTypeOther string `json:"foodTypeOther" validate:"required_if=FoodType other,max=100"`

	FeeResponse      string `json:"feeResponse" validate:"required,oneof=paid pending other"`
	FeeResponseOther string `json:"feeResponseOther" validate:"required_if=FeeResponse other,max=100"`
}

func ParseRegistrationForm(c *fiber.Ctx) RegistrationForm {
	get := func(key string) string { return strings.TrimSpace(c.FormValue(key)) }
	return RegistrationForm{
		Name:             get("name"),
		Address:          get("address"),
		PlayerType:       get("playerType"),
		PlayerTypeOther:  get("playerTypeOther"),
		TshirtSize:       get("tshirtSize"),
		JerseyName:       get("jerseyName"),
		JerseyNumber:     get("jerseyNumber"),
		FoodType:         get("foodType"),
		FoodTypeOther:    get("foodTypeOther"),
		FeeResponse:      get("feeResponse"),
		FeeResponseOther: get("feeResponseOther"),
	}
}

// OtherOrEmpty keeps free-text only when its enum actually selected "other".
func OtherOrEmpty(enumValue, freeText string) string {
	if enumValue == "other" {
		return freeText
	}
	return ""
}

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".heic": {}, ".heif": {}, ".gif": {},
}

// LooksLikeImage accepts an image/* MIME or an allow-listed extension.
func LooksLikeImage(fh *multipart.FileHeader) bool {
	if fh == nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(fh.Header.Get("Content-Type")), "image/") {
		return true
	}
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(fh.Filename))]
	return ok
}

// RegistrationStatus is the capacity payload of GET /api/register/status.
type RegistrationStatus struct {
	Total     int64 `json:"total"`
	Limit     int   `json:"limit"`
	Available int64 `json:"available"`
	Open      bool  `json:"open"`
}
