package http

type submitReviewRequest struct {
	NeededReviewID string            `json:"needed_review_id" validate:"required,custom_id,min=1,max=100"`
	Form           map[string]string `json:"form" validate:"required,min=1"`
}

type endDateRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,custom_id,min=1,max=100"`
	ProjectID  string `json:"project_id" validate:"required,custom_id,min=1,max=100"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type confirmEndDateRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,custom_id,min=1,max=100"`
	ProjectID  string `json:"project_id" validate:"required,custom_id,min=1,max=100"`
}
