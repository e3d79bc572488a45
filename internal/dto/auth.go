package dto

// CreateAdminRequest provisions a back-office account.
type CreateAdminRequest struct {
	Username string `validate:"required,min=3,max=64"`
	Password string `validate:"required,min=10,max=72"`
	Role     string `validate:"required"`
}

// ActivateStudentRequest completes a pending student account.
type ActivateStudentRequest struct {
	StudentCode string `json:"studentId" validate:"required,max=32"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Phone       string `json:"phone" validate:"required,min=6,max=32"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	IP          string `json:"-"`
}
