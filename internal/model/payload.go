// Package model defines the typed records flowing through the import
// pipeline: raw spreadsheet rows, API-bound payloads, per-row outcomes,
// and the row-error taxonomy.
package model

// AmountType distinguishes percentage from absolute-currency tax and
// discount values on the destination API.
type AmountType string

const (
	AmountPercentage AmountType = "PERCENTAGE"
	AmountCurrency   AmountType = "CURRENCY"
)

// RawRow is one spreadsheet row keyed by column header, untouched after
// reading. It is retained alongside any derived error for reporting.
type RawRow struct {
	Index  int // 1-based data row index (header excluded)
	Sheet  string
	Source string // originating filename
	Cells  map[string]string
}

// Expense is a one-off vehicle expense.
type Expense struct {
	Name                 string     `json:"name,omitempty"`
	ExpenseTypeID        int64      `json:"expenseTypeId"`
	Subtotal             float64    `json:"subtotal"`
	TaxType              AmountType `json:"taxType"`
	Tax                  float64    `json:"tax"`
	DiscountType         AmountType `json:"discountType"`
	Discount             float64    `json:"discount"`
	Total                float64    `json:"total"`
	Date                 string     `json:"date,omitempty"`
	VehicleID            int64      `json:"vehicleId"`
	DriverID             *int64     `json:"driverId"`
	SupplierID           int64      `json:"supplierId"`
	LocationID           *int64     `json:"locationId,omitempty"`
	PaymentMethodID      int64      `json:"paymentMethodId"`
	Odometer             *int64     `json:"odometer,omitempty"`
	CustomFieldsMetadata string     `json:"customFieldsMetadata,omitempty"`
}

// Fuel is a refueling record from a tax-inclusive fuel feed.
type Fuel struct {
	Volume               float64    `json:"volume"`
	PricePerUnit         float64    `json:"pricePerUnit"`
	TaxType              AmountType `json:"taxType"`
	Tax                  float64    `json:"tax"`
	DiscountType         AmountType `json:"discountType"`
	Discount             float64    `json:"discount"`
	Total                float64    `json:"total"`
	Date                 string     `json:"date"`
	FuelTypeID           int64      `json:"fuelTypeId"`
	VehicleID            int64      `json:"vehicleId"`
	DriverID             *int64     `json:"driverId"`
	SupplierID           int64      `json:"supplierId"`
	LocationID           *int64     `json:"locationId,omitempty"`
	Reference            string     `json:"reference,omitempty"`
	PaymentMethodID      int64      `json:"paymentMethodId"`
	Odometer             *int64     `json:"odometer,omitempty"`
	CustomFieldsMetadata string     `json:"customFieldsMetadata,omitempty"`
}

// ScheduledExpense is a recurring expense (renting, leasing, insurance fees).
type ScheduledExpense struct {
	Name            string     `json:"name"`
	ExpenseTypeID   int64      `json:"expenseTypeId"`
	Subtotal        float64    `json:"subtotal"`
	TaxType         AmountType `json:"taxType"`
	Tax             float64    `json:"tax"`
	DiscountType    AmountType `json:"discountType"`
	Discount        float64    `json:"discount"`
	Total           float64    `json:"total"`
	UserID          *int64     `json:"userId"`
	VehicleID       *int64     `json:"vehicleId"`
	PaymentMethodID int64      `json:"paymentMethodId"`
	SupplierID      int64      `json:"supplierId"`
	StartDate       string     `json:"startDate,omitempty"`
	EndDate         string     `json:"endDate,omitempty"`
	Frequency       string     `json:"frecuency,omitempty"` // sic: API field name
}

// Notification is a reminder notification channel and lead time.
type Notification struct {
	TypeID string `json:"typeId"` // "email" or "push"
	Amount int    `json:"amount"`
	Unit   string `json:"unit"` // "minutes", "hours", "days"
}

// Reminder is a dated task bound to a driver or a vehicle.
type Reminder struct {
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	LimitDate     string         `json:"limitDate"`
	PriorityID    string         `json:"priorityId"` // "high", "medium", "low"
	Notifications []Notification `json:"notifications"`
	UserIDs       []int64        `json:"userIds"`
	EntityType    string         `json:"entityType"` // "drivers" or "vehicles"
	EntityID      int64          `json:"entityId"`
	ResponsibleID int64          `json:"responsibleId"`
}

// Insurance is the insurance property block written onto a vehicle.
type Insurance struct {
	VehicleID              int64      `json:"-"`
	PolicyNumber           string     `json:"insurancePolicyNumber"`
	SupplierID             int64      `json:"insuranceSupplierId"`
	StartDate              string     `json:"insuranceStartDate"`
	EndDate                string     `json:"insuranceEndDate"`
	Subtotal               float64    `json:"insuranceSubtotal"`
	TaxType                AmountType `json:"insuranceTaxType"`
	Tax                    float64    `json:"insuranceTax"`
	TotalAmount            float64    `json:"insuranceTotalAmount"`
	TypeID                 int64      `json:"insuranceTypeId"`
	PaymentFrequency       string     `json:"insurancePaymentFrequency"`
	CreateScheduledExpense bool       `json:"createInsuranceScheduledExpense"`
}
