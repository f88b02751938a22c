// internal/models/application.go
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// BehavioralFlags carries soft signals observed during the conversation.
type BehavioralFlags struct {
	StressDetected         bool `json:"stress_detected"`
	InconsistentStatements bool `json:"inconsistent_statements"`
}

// ApplicationData is the structured financial profile of one loan request.
// All numeric fields default to zero when absent; ratios are computed only
// when denominators are positive and degrade to worst-case 1.0 otherwise.
type ApplicationData struct {
	MonthlyIncome           float64         `json:"monthly_income"`
	ExistingEMI             float64         `json:"existing_emi"`
	LoanAmount              float64         `json:"loan_amount"`
	CreditScore             float64         `json:"credit_score"`
	EmploymentYears         float64         `json:"employment_years"`
	BusinessVintageYears    int             `json:"business_vintage_years"`
	ITRYearsSubmitted       int             `json:"itr_years_submitted"`
	BankStatementMonths     int             `json:"bank_statement_months"`
	RecentDelinquencyMonths int             `json:"recent_delinquency_months"`
	UrgencyFlag             bool            `json:"urgency_flag"`
	Behavioral              BehavioralFlags `json:"behavioral_flags"`
	AddressChangesLast12M   int             `json:"address_changes_last_12_months"`
	GeoRiskFlag             bool            `json:"geo_risk_flag"`
	Currency                string          `json:"currency"`
	Name                    string          `json:"name"`
	Aadhaar                 string          `json:"aadhaar"`
	PAN                     string          `json:"pan"`
	FraudScore              float64         `json:"fraud_score,omitempty"`
	HasFraudScore           bool            `json:"-"`
}

// EMIRatio is existing EMI over monthly income, worst-case 1.0 when income
// is not positive.
func (a ApplicationData) EMIRatio() float64 {
	if a.MonthlyIncome <= 0 {
		return 1.0
	}
	return a.ExistingEMI / a.MonthlyIncome
}

// LTI is requested loan amount over annualized income, worst-case 1.0 when
// income is not positive.
func (a ApplicationData) LTI() float64 {
	if a.MonthlyIncome <= 0 {
		return 1.0
	}
	return a.LoanAmount / (a.MonthlyIncome * 12)
}

// ApplicationFromMap coerces a loose JSON object into an ApplicationData
// record. Callers send numbers as JSON numbers or strings with separators;
// anything unparseable falls back to the zero value.
func ApplicationFromMap(raw map[string]interface{}) ApplicationData {
	if raw == nil {
		return ApplicationData{}
	}

	app := ApplicationData{
		MonthlyIncome:           parseFloat(raw["monthly_income"]),
		ExistingEMI:             parseFloat(raw["existing_emi"]),
		LoanAmount:              parseFloat(raw["loan_amount"]),
		CreditScore:             parseFloat(raw["credit_score"]),
		EmploymentYears:         parseFloat(raw["employment_years"]),
		BusinessVintageYears:    parseIntValue(raw["business_vintage_years"]),
		ITRYearsSubmitted:       parseIntValue(raw["itr_years_submitted"]),
		BankStatementMonths:     parseIntValue(raw["bank_statement_months"]),
		RecentDelinquencyMonths: parseIntValue(raw["recent_delinquency_months"]),
		UrgencyFlag:             parseBool(raw["urgency_flag"]),
		AddressChangesLast12M:   parseIntValue(raw["address_changes_last_12_months"]),
		GeoRiskFlag:             parseBool(raw["geo_risk_flag"]),
		Currency:                parseString(raw["currency"]),
		Name:                    parseString(raw["name"]),
		Aadhaar:                 parseString(raw["aadhaar"]),
		PAN:                     parseString(raw["pan"]),
	}

	if bf, ok := raw["behavioral_flags"].(map[string]interface{}); ok {
		app.Behavioral = BehavioralFlags{
			StressDetected:         parseBool(bf["stress_detected"]),
			InconsistentStatements: parseBool(bf["inconsistent_statements"]),
		}
	}

	if fs, ok := raw["fraud_score"]; ok {
		app.FraudScore = parseFloat(fs)
		app.HasFraudScore = true
	}

	return app
}

// DocumentPayload holds the identity documents submitted for verification.
type DocumentPayload struct {
	Aadhaar string `json:"aadhaar"`
	PAN     string `json:"pan"`
	Name    string `json:"name,omitempty"`
}

// IsEmpty reports whether nothing at all was submitted.
func (d DocumentPayload) IsEmpty() bool {
	return d.Aadhaar == "" && d.PAN == "" && d.Name == ""
}

// DocumentsFromMap coerces a loose JSON object into a DocumentPayload.
func DocumentsFromMap(raw map[string]interface{}) DocumentPayload {
	if raw == nil {
		return DocumentPayload{}
	}
	return DocumentPayload{
		Aadhaar: parseString(raw["aadhaar"]),
		PAN:     parseString(raw["pan"]),
		Name:    parseString(raw["name"]),
	}
}

func parseFloat(raw interface{}) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return f
		}
	}
	return 0
}

func parseIntValue(raw interface{}) int {
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
		if n, err := strconv.Atoi(cleaned); err == nil {
			return n
		}
	}
	return 0
}

func parseBool(raw interface{}) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	case float64:
		return v != 0
	}
	return false
}

func parseString(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
