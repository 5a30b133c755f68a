package domain

// Documents tracks which supporting documents a user has uploaded.
type Documents struct {
	SalarySlip      bool `json:"salarySlip" firestore:"salarySlip"`
	PropertyPapers  bool `json:"propertyPapers" firestore:"propertyPapers"`
	VehicleRC       bool `json:"vehicleRC" firestore:"vehicleRC"`
	AdmissionLetter bool `json:"admissionLetter" firestore:"admissionLetter"`
}

// Profile is the user document read by the identity and document tools.
type Profile struct {
	UserID           UserID
	Name             string
	CreditScore      int
	PreApprovedLimit int64
	PANCard          string
	Documents        Documents
}

// LoanProduct is one entry of the loan catalog.
type LoanProduct struct {
	ID           string  `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	Type         string  `json:"type" yaml:"type"`
	InterestRate float64 `json:"interestRate" yaml:"interestRate"`
	MaxAmount    int64   `json:"maxAmount" yaml:"maxAmount"`
	MinSalary    int64   `json:"minSalary" yaml:"minSalary"`
	Features     string  `json:"features" yaml:"features"`
	Description  string  `json:"description" yaml:"description"`
}

// ChatStatus is merged into the per-chat status record. Zero fields are
// left untouched by stores.
type ChatStatus struct {
	Status       LoanStatus
	LoanAmount   int64
	EMIAmount    int64
	TenureMonths int
	NextEMIDate  string
	LoanScheme   string
}
