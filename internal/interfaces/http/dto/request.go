package dto

// InitiatePaymentRequest is the HTTP request body for starting a course
// purchase. The paying user comes from the auth token, never from the body.
type InitiatePaymentRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
}
