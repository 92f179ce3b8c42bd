package service

import (
	"regexp"
	"strconv"
	"strings"
)

// Reason tags carried on the validation summary. The admin UI keys off these,
// so they are part of the record format.
const (
	ReasonCurrencyContext  = "currency_context"
	ReasonNumericPattern   = "numeric_pattern"
	ReasonNumericAmount    = "numeric_amount"
	ReasonSpelledOut       = "spelled_out"
	ReasonPayeeName        = "payee_name"
	ReasonMissingPayeeName = "missing_payee_name"
)

// candidate amounts within this distance of a target count as a hit;
// printed digits come back noisy from OCR.
const amountTolerance = 1.0

// ValidationSummary is the full, auditable outcome of evaluating OCR text.
type ValidationSummary struct {
	Matched           bool      `json:"matched"`
	Reasons           []string  `json:"reasons"`
	Amounts           []float64 `json:"amounts"`
	MatchedAmount     *float64  `json:"matchedAmount"`
	PayeeNameDetected bool      `json:"payeeNameDetected"`
}

var (
	currencyAmountRe = regexp.MustCompile(`(?i)(?:₹|rs\.?|inr\.?|amount|paid|payment|total)\s*[:=]?\s*([0-9]+(?:[.,][0-9]+)?)`)
	plainNumberRe    = regexp.MustCompile(`\b([0-9]{2,6})(?:[.,][0-9]{2})?\b`)
	spelledPrimaryRe = regexp.MustCompile(`(?i)\bnine\s*(?:hund(?:red)?)\b(?:\s*(?:and)?\s*(?:00|zero|0))?`)

	ambiguousGlyphs = strings.NewReplacer("o", "0", "$", "s")
	strippedChars   = strings.NewReplacer(",", "", "₹", "")
)

// amountRuleSet holds the precompiled detection rules for one allowed amount.
// Rules live in a table rather than branches so each can be tested alone.
type amountRuleSet struct {
	amount   float64
	currency *regexp.Regexp // keyword/symbol-adjacent exact match, on the glyph-corrected text
	numeric  *regexp.Regexp // bare numeric-boundary match, on the stripped text
	spelled  *regexp.Regexp // spelled-out words, primary amount only; nil otherwise
}

// PaymentValidator interprets OCR text into a pass/fail payment decision.
// Evaluate is pure and deterministic.
type PaymentValidator struct {
	rules []amountRuleSet
	payee *regexp.Regexp
}

// NewPaymentValidator builds rule tables for the allowed amounts, in
// preference order (primary first), and the required payee-name pattern.
func NewPaymentValidator(allowedAmounts []float64, payeeName string) *PaymentValidator {
	rules := make([]amountRuleSet, 0, len(allowedAmounts))
	for i, amount := range allowedAmounts {
		rendered := regexp.QuoteMeta(strconv.FormatFloat(amount, 'f', -1, 64))
		rs := amountRuleSet{
			amount:   amount,
			currency: regexp.MustCompile(`(?i)(?:₹|rs\.?|inr\.?|amount|paid|payment|total)\s*[:=]?\s*` + rendered + `(?:\.00)?\b`),
			numeric:  regexp.MustCompile(`(?i)\b` + rendered + `(?:\.00)?\b`),
		}
		if i == 0 {
			rs.spelled = spelledPrimaryRe
		}
		rules = append(rules, rs)
	}
	return &PaymentValidator{
		rules: rules,
		payee: compilePayeePattern(payeeName),
	}
}

func compilePayeePattern(payeeName string) *regexp.Regexp {
	parts := strings.Fields(strings.ToLower(payeeName))
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	if len(parts) == 0 {
		parts = []string{regexp.QuoteMeta(payeeName)}
	}
	return regexp.MustCompile(`(?i)\b(?:name\s*[:\-]?\s*)?` + strings.Join(parts, `\s+`) + `\b`)
}

// Evaluate parses OCR text into candidate amounts and payee evidence and
// applies the rule tables. An amount hit alone is not enough: the payee name
// must also be present, otherwise the summary keeps the matched amount and
// rule reasons but stays unmatched, tagged missing_payee_name.
func (v *PaymentValidator) Evaluate(rawText string) ValidationSummary {
	summary := ValidationSummary{
		Reasons: []string{},
		Amounts: []float64{},
	}
	if rawText == "" {
		return summary
	}

	normalized := strings.ToLower(rawText)
	// glyph correction is for amount scanning only; payee matching sees the
	// untouched prose ("o" stays a letter there)
	zeroFriendly := ambiguousGlyphs.Replace(normalized)
	sanitized := strippedChars.Replace(zeroFriendly)

	summary.PayeeNameDetected = v.payee.MatchString(normalized)
	// candidates come from the stripped copy so grouped digits ("7,900")
	// parse as one number instead of shedding a bogus 900
	summary.Amounts = extractCandidateAmounts(sanitized)

	for _, rs := range v.rules {
		var reasons []string
		if rs.currency.MatchString(zeroFriendly) {
			reasons = append(reasons, ReasonCurrencyContext)
		}
		if rs.numeric.MatchString(sanitized) {
			reasons = append(reasons, ReasonNumericPattern)
		}
		if candidatesContain(summary.Amounts, rs.amount) {
			reasons = append(reasons, ReasonNumericAmount)
		}
		if rs.spelled != nil && rs.spelled.MatchString(rawText) {
			reasons = append(reasons, ReasonSpelledOut)
		}

		if len(reasons) == 0 {
			continue
		}

		// first amount with any rule hit wins
		matched := rs.amount
		summary.MatchedAmount = &matched
		if summary.PayeeNameDetected {
			summary.Matched = true
			summary.Reasons = append(reasons, ReasonPayeeName)
		} else {
			summary.Reasons = append(reasons, ReasonMissingPayeeName)
		}
		break
	}

	if !summary.Matched && !summary.PayeeNameDetected && !containsReason(summary.Reasons, ReasonMissingPayeeName) {
		summary.Reasons = append(summary.Reasons, ReasonMissingPayeeName)
	}
	return summary
}

// extractCandidateAmounts runs the high-confidence (currency-adjacent) pass
// and the low-confidence (bare 2-6 digit token) pass into one ordered list.
// Duplicates are fine; matching only needs presence.
func extractCandidateAmounts(text string) []float64 {
	amounts := []float64{}

	for _, m := range currencyAmountRe.FindAllStringSubmatch(text, -1) {
		raw := strings.ReplaceAll(m[1], ",", "")
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			amounts = append(amounts, value)
		}
	}

	for _, m := range plainNumberRe.FindAllStringSubmatch(text, -1) {
		if value, err := strconv.ParseFloat(m[1], 64); err == nil {
			amounts = append(amounts, value)
		}
	}

	return amounts
}

func candidatesContain(amounts []float64, target float64) bool {
	for _, value := range amounts {
		diff := value - target
		if diff < 0 {
			diff = -diff
		}
		if diff <= amountTolerance {
			return true
		}
	}
	return false
}

func containsReason(reasons []string, tag string) bool {
	for _, r := range reasons {
		if r == tag {
			return true
		}
	}
	return false
}
