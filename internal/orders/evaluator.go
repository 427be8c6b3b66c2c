// Package orders implements the order evaluation core: judging whether actual
// weather satisfies a wagered order, validating order-form input before
// submission, and computing refunds. Every function in this package is pure;
// identical inputs always yield identical results.
package orders

import (
	"fmt"
	"strconv"
	"strings"

	"weatherwager/internal/types"
)

// Result messages. The refund message embeds the failure reason.
const (
	successMessage      = "Weather matched your order. Payment kept."
	refundMessageFormat = "Refund Processed! The %s did not match your order."
)

// EvaluateOrder judges an order against the actual weather.
//
// An absent or unparseable desired temperature means no temperature floor.
// An absent desired condition matches any condition; otherwise the comparison
// is exact and case-sensitive. When both constraints fail, the reported
// reason is always temperature.
func EvaluateOrder(order types.Order, actual types.ActualWeather) types.EvaluationResult {
	desiredTemp, err := strconv.ParseFloat(strings.TrimSpace(order.DesiredTemp), 64)
	tempMatches := true
	if err == nil {
		tempMatches = actual.Temp >= desiredTemp
	}

	conditionMatches := order.DesiredCondition == "" ||
		actual.Condition == order.DesiredCondition

	if tempMatches && conditionMatches {
		return types.EvaluationResult{
			IsSuccess: true,
			Message:   successMessage,
		}
	}

	reason := types.ReasonCondition
	if !tempMatches {
		reason = types.ReasonTemperature
	}

	return types.EvaluationResult{
		IsSuccess: false,
		Message:   fmt.Sprintf(refundMessageFormat, reason),
		Reason:    reason,
	}
}

// FieldError is one order-form validation failure, tied to the field that
// caused it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult accumulates all order-form failures in check order.
// FirstError is nil when the form is valid.
type ValidationResult struct {
	IsValid    bool         `json:"is_valid"`
	Errors     []FieldError `json:"errors"`
	FirstError *FieldError  `json:"first_error,omitempty"`
}

// OrderForm carries the raw form fields as submitted. All values are strings
// because they come straight from inputs; TokensToSpend is parsed here.
type OrderForm struct {
	SelectedDate     string `json:"selected_date"`
	DesiredTemp      string `json:"desired_temp"`
	DesiredCondition string `json:"desired_condition"`
	TokensToSpend    string `json:"tokens_to_spend"`
}

// ValidateOrderForm checks the form fields in fixed order, accumulating all
// failures rather than short-circuiting. The token amount must parse to a
// positive integer and must not exceed the available balance.
func ValidateOrderForm(form OrderForm, availableTokens int) ValidationResult {
	var errs []FieldError

	if strings.TrimSpace(form.SelectedDate) == "" {
		errs = append(errs, FieldError{Field: "selectedDate", Message: "Please select a date"})
	}

	if strings.TrimSpace(form.DesiredTemp) == "" {
		errs = append(errs, FieldError{Field: "desiredTemp", Message: "Please enter desired temperature"})
	}

	if strings.TrimSpace(form.DesiredCondition) == "" {
		errs = append(errs, FieldError{Field: "desiredConditions", Message: "Please select weather condition"})
	}

	tokens, err := strconv.Atoi(strings.TrimSpace(form.TokensToSpend))
	if err != nil || tokens <= 0 {
		errs = append(errs, FieldError{Field: "tokensToSpend", Message: "Please enter a valid token amount"})
	} else if tokens > availableTokens {
		errs = append(errs, FieldError{
			Field:   "tokensToSpend",
			Message: fmt.Sprintf("Not enough tokens! You have %d", availableTokens),
		})
	}

	result := ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
	if len(errs) > 0 {
		first := errs[0]
		result.FirstError = &first
	}
	return result
}

// CalculateRefund returns the tokens to credit back after an evaluation:
// zero on success, the original wager on failure.
func CalculateRefund(evaluation types.EvaluationResult, originalTokens int) int {
	if evaluation.IsSuccess {
		return 0
	}
	return originalTokens
}
