package checkout

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	namePattern      = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s'-]+$`)
	mobilePattern    = regexp.MustCompile(`^0[67]\d{8}$`)
	scriptProtocol   = regexp.MustCompile(`(?i)javascript:`)
	inlineHandler    = regexp.MustCompile(`(?i)on\w+=`)
	angleBrackets    = strings.NewReplacer("<", "", ">", "")
	customerValidate = newCustomerValidator()
)

// CustomerInput is the raw delivery form.
type CustomerInput struct {
	Name    string `json:"customer_name"`
	Phone   string `json:"customer_phone"`
	Address string `json:"customer_address"`
	City    string `json:"customer_city"`
	Notes   string `json:"notes,omitempty"`
}

// CustomerInfo holds sanitized, validated delivery details.
type CustomerInfo struct {
	Name    string `validate:"min=2,max=100,person_name"`
	Phone   string `validate:"ma_mobile"`
	Address string `validate:"min=10,max=500"`
	City    string `validate:"required"`
	Notes   string `validate:"max=500"`
}

func newCustomerValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("ma_mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	return v
}

// SanitizeText trims the value and strips angle brackets, javascript: URLs and
// inline event handlers.
func SanitizeText(input string) string {
	out := angleBrackets.Replace(strings.TrimSpace(input))
	out = scriptProtocol.ReplaceAllString(out, "")
	out = inlineHandler.ReplaceAllString(out, "")
	return out
}

// ValidateCustomer sanitizes the form and reports the first invalid field in
// the order name, phone, address, city.
func ValidateCustomer(input CustomerInput) (CustomerInfo, error) {
	info := CustomerInfo{
		Name:    SanitizeText(input.Name),
		Phone:   SanitizeText(input.Phone),
		Address: SanitizeText(input.Address),
		City:    SanitizeText(input.City),
		Notes:   SanitizeText(input.Notes),
	}
	err := customerValidate.Struct(info)
	if err == nil {
		return info, nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return CustomerInfo{}, validationFailed("customer", "invalid", "Informations client invalides")
	}
	first := errs[0]
	field, reason, message := describe(first)
	return CustomerInfo{}, validationFailed(field, reason, message)
}

func describe(fe validator.FieldError) (field, reason, message string) {
	switch fe.StructField() {
	case "Name":
		switch fe.Tag() {
		case "min":
			return "customer_name", "too_short", "Le nom doit contenir au moins 2 caractères"
		case "max":
			return "customer_name", "too_long", "Le nom ne peut pas dépasser 100 caractères"
		}
		return "customer_name", "invalid_characters", "Le nom contient des caractères invalides"
	case "Phone":
		return "customer_phone", "invalid_format", "Numéro de téléphone invalide (doit commencer par 06 ou 07)"
	case "Address":
		if fe.Tag() == "max" {
			return "customer_address", "too_long", "L'adresse ne peut pas dépasser 500 caractères"
		}
		return "customer_address", "too_short", "L'adresse doit contenir au moins 10 caractères"
	case "City":
		return "customer_city", "required", "Veuillez sélectionner une ville"
	}
	return "notes", "too_long", "Les notes ne peuvent pas dépasser 500 caractères"
}
