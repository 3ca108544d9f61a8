package api

// User is the public view of an account.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by Register and Login.
type AuthResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"access_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

type UpdateDeviceTokenRequest struct {
	DeviceToken string `json:"device_token"`
}

type DeleteAccountRequest struct{}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

type Category struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type ListCategoriesRequest struct {
	Description string `json:"description,omitempty"`
	Offset      int    `json:"offset,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

type ListCategoriesResponse struct {
	Categories []*Category `json:"categories"`
}

type CreateCategoryRequest struct {
	Description string `json:"description"`
}

type CategoryResponse struct {
	Category *Category `json:"category"`
}

type DeleteCategoryRequest struct {
	CategoryID string `json:"category_id"`
}

// Debt is the public view of a debt. Dates are YYYY-MM-DD.
type Debt struct {
	ID               string  `json:"id"`
	Description      string  `json:"description"`
	Value            float64 `json:"value"`
	Plots            int     `json:"plots"`
	PurchaseDate     string  `json:"purchase_date"`
	Note             string  `json:"note,omitempty"`
	CategoryID       string  `json:"category_id"`
	Category         string  `json:"category,omitempty"`
	State            string  `json:"state"`
	PaidInstallments int     `json:"paid_installments"`
	CreatedAt        int64   `json:"created_at"`
	UpdatedAt        int64   `json:"updated_at"`
}

// Installment is the public view of one installment.
type Installment struct {
	ID         string   `json:"id"`
	DebtID     string   `json:"debt_id"`
	Number     int      `json:"number"`
	Amount     float64  `json:"amount"`
	DueDate    string   `json:"due_date"`
	PaidAmount *float64 `json:"paid_amount"`
	PaidDate   *string  `json:"paid_date"`
	State      string   `json:"state"`
}

type CreateDebtRequest struct {
	Description      string    `json:"description"`
	Value            float64   `json:"value"`
	Plots            PlotCount `json:"plots"`
	PurchaseDate     string    `json:"purchase_date"`
	Note             string    `json:"note,omitempty"`
	CategoryID       string    `json:"category_id"`
	PaidInstallments int       `json:"paid_installments,omitempty"`
}

type DebtResponse struct {
	Debt *Debt `json:"debt"`
}

type GetDebtRequest struct {
	DebtID string `json:"debt_id"`
}

type GetDebtResponse struct {
	Debt         *Debt          `json:"debt"`
	Installments []*Installment `json:"installments"`
}

type ListDebtsRequest struct {
	Description string `json:"description,omitempty"`
	State       string `json:"state,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Offset      int    `json:"offset,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

type ListDebtsResponse struct {
	Debts []*Debt `json:"debts"`
}

// UpdateDebtRequest changes only the fields that are set.
type UpdateDebtRequest struct {
	DebtID      string  `json:"debt_id"`
	Description *string `json:"description,omitempty"`
	Note        *string `json:"note,omitempty"`
	CategoryID  *string `json:"category_id,omitempty"`
	State       *string `json:"state,omitempty"`
}

type PayInstallmentsRequest struct {
	DebtID         string   `json:"debt_id"`
	InstallmentIDs []string `json:"installment_ids"`
	// Amount overrides the paid amount of every installment when set.
	Amount *float64 `json:"amount,omitempty"`
}

type PayInstallmentsResponse struct {
	Message      string         `json:"message"`
	Installments []*Installment `json:"installments"`
}

type DeleteDebtRequest struct {
	DebtID string `json:"debt_id"`
}

// ListInstallmentsRequest lists one debt's installments. Without State only
// pending and overdue installments are returned.
type ListInstallmentsRequest struct {
	DebtID string `json:"debt_id"`
	State  string `json:"state,omitempty"`
	Offset int    `json:"offset,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type ListInstallmentsResponse struct {
	Installments []*Installment `json:"installments"`
}

// GetDashboardRequest bounds the installments by due date. Missing dates
// default to the first and last day of the current month.
type GetDashboardRequest struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Offset    int    `json:"offset,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Dashboard holds installment counts and values per state.
type Dashboard struct {
	TotalDebt          float64 `json:"total_debt"`
	TotalDebtValue     float64 `json:"total_debt_value"`
	TotalPay           float64 `json:"total_pay"`
	TotalPayValue      float64 `json:"total_pay_value"`
	TotalPending       float64 `json:"total_pending"`
	TotalPendingValue  float64 `json:"total_pending_value"`
	TotalOverdue       float64 `json:"total_overdue"`
	TotalOverdueValue  float64 `json:"total_overdue_value"`
	TotalCanceled      float64 `json:"total_canceled"`
	TotalCanceledValue float64 `json:"total_canceled_value"`
}
