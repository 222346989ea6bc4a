package assets

import (
	"fmt"
	"time"
)

// ValidationError reports the first invalid field of an asset.
type ValidationError struct {
	Field   string // form field name
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func required(field, label, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: label + " is required"}
	}
	return nil
}

// Validate checks the required fields in form order, then the optional
// dates. It returns the first problem found.
func Validate(a Asset) error {
	checks := []struct {
		field, label, value string
	}{
		{FieldSerialNumber, "serial number", a.SerialNumber},
		{FieldName, "asset name", a.Name},
		{FieldCategory, "device type", a.Category},
		{FieldBrand, "brand", a.Brand},
		{FieldDepartment, "department", a.Department},
		{FieldLocation, "location", a.Location},
		{FieldSupplier, "supplier", a.Supplier},
		{FieldRecipient, "recipient", a.Recipient},
		{FieldRecipientDepartment, "recipient department", a.RecipientDepartment},
	}
	for _, c := range checks {
		if err := required(c.field, c.label, c.value); err != nil {
			return err
		}
	}

	dates := []struct {
		field, label, value string
	}{
		{FieldApplicationDate, "application date", a.ApplicationDate},
		{FieldOrderDate, "order date", a.OrderDate},
		{FieldCreatedAt, "created date", a.CreatedAt},
	}
	for _, d := range dates {
		if err := ValidateDate(d.value); err != nil {
			return &ValidationError{
				Field:   d.field,
				Message: fmt.Sprintf("%s must be YYYY-MM-DD, got %q", d.label, d.value),
			}
		}
	}
	return nil
}

// ValidateDate accepts "" or a real calendar date in DateLayout.
func ValidateDate(s string) error {
	if s == "" {
		return nil
	}
	if len(s) != len(DateLayout) {
		return fmt.Errorf("invalid date %q", s)
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	return nil
}

// Normalize fills CreatedAt with today's date when it is unset.
func Normalize(a Asset, now time.Time) Asset {
	if a.CreatedAt == "" {
		a.CreatedAt = now.Format(DateLayout)
	}
	return a
}
