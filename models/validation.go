package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var fishMessages = map[string]string{
	"Name.required":      "Fish name is required",
	"PricePerKg.gte":     "Price cannot be negative",
	"Category.oneof":     "Category must be one of: freshwater, saltwater, shellfish, exotic",
	"Availability.oneof": "Availability must be one of: available, limited, out_of_stock",
	"Stock.gte":          "Stock cannot be negative",
}

// Normalize trims the fields that are stored trimmed.
func (f *Fish) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
}

// Validate runs the catalog field rules and joins every violation into one
// message, in field order.
func (f *Fish) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := fe.StructField() + "." + fe.Tag()
		if msg, ok := fishMessages[key]; ok {
			msgs = append(msgs, msg)
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
	}
	return errors.New(strings.Join(msgs, ", "))
}

// ValidateItems checks the shape of checkout items.
func ValidateItems(items []OrderItem) error {
	if len(items) == 0 {
		return errors.New("Order must contain at least one item")
	}
	for i, it := range items {
		if it.FishID.IsZero() {
			return fmt.Errorf("item %d: fishId is required", i+1)
		}
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("item %d: name is required", i+1)
		}
		if it.PricePerKg < 0 {
			return fmt.Errorf("item %d: price cannot be negative", i+1)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("item %d: quantity must be at least 1", i+1)
		}
	}
	return nil
}

// ValidateEmail checks the address format.
func ValidateEmail(email string) error {
	return validate.Var(email, "required,email")
}
