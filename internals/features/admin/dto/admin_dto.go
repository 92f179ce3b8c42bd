package dto

// LoginRequest is the JSON body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ActionRequest targets one submission by id. Validated is only read by the
// payment-validation endpoint and defaults to true when omitted.
type ActionRequest struct {
	ID        string `json:"id"`
	Validated *bool  `json:"validated"`
}
