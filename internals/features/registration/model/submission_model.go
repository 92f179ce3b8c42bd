package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission is one verified tournament registration. Attachment bytes live
// in object storage; the record only carries keys.
type Submission struct {
	SubmissionID uuid.UUID `gorm:"column:submission_id;type:uuid;primaryKey" json:"id"`

	SubmissionName    string `gorm:"column:submission_name;type:varchar(100);not null" json:"name"`
	SubmissionAddress string `gorm:"column:submission_address;type:text;not null" json:"address"`

	PlayerType      string `gorm:"column:player_type;type:varchar(20);not null" json:"playerType"`
	PlayerTypeOther string `gorm:"column:player_type_other;type:varchar(100)" json:"playerTypeOther"`

	TshirtSize   string `gorm:"column:tshirt_size;type:varchar(10);not null" json:"tshirtSize"`
	JerseyName   string `gorm:"column:jersey_name;type:varchar(50);not null" json:"jerseyName"`
	JerseyNumber string `gorm:"column:jersey_number;type:varchar(10);not null" json:"jerseyNumber"`

	FoodType      string `gorm:"column:food_type;type:varchar(20);not null" json:"foodType"`
	FoodTypeOther string `gorm:"column:food_type_other;type:varchar(100)" json:"foodTypeOther"`

	FeeResponse      string `gorm:"column:fee_response;type:varchar(20);not null" json:"feeResponse"`
	FeeResponseOther string `gorm:"column:fee_response_other;type:varchar(100)" json:"feeResponseOther"`

	// attachments: immutable once written
	PhotoKey             string `gorm:"column:photo_key;type:varchar(255);not null" json:"photoKey"`
	PhotoContentType     string `gorm:"column:photo_content_type;type:varchar(50)" json:"photoContentType"`
	PaymentScreenshotKey string `gorm:"column:payment_screenshot_key;type:varchar(255);not null" json:"paymentScreenshotKey"`
	PaymentContentType   string `gorm:"column:payment_content_type;type:varchar(50)" json:"paymentContentType"`

	// validation evidence
	OcrText          string                        `gorm:"column:ocr_text;type:text" json:"ocrText"`
	DetectedAmounts  datatypes.JSONSlice[float64]  `gorm:"column:detected_amounts" json:"detectedAmounts"`
	MatchedReasons   datatypes.JSONSlice[string]   `gorm:"column:matched_reasons" json:"matchedReasons"`
	MatchedAmount    *float64                      `gorm:"column:matched_amount" json:"matchedAmount"`
	PaymentDetected  bool                          `gorm:"column:payment_detected" json:"paymentDetected"`
	PaymentValidated bool                          `gorm:"column:payment_validated" json:"paymentValidated"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deletedAt,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

// FailedSubmission is record-equivalent to Submission but lives in its own
// track and always carries a failure reason. A logical entry exists in
// exactly one active track at a time; Approve is the only transition.
type FailedSubmission struct {
	Submission `gorm:"embedded"`

	FailureReason  string `gorm:"column:failure_reason;type:varchar(50);not null" json:"failureReason"`
	FailureMessage string `gorm:"column:failure_message;type:text" json:"failureMessage"`
}

func (FailedSubmission) TableName() string {
	return "failed_submissions"
}
