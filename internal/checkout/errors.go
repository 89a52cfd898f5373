package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
)

// ValidationError names the first customer field that failed validation.
type ValidationError struct {
	Field   string
	Reason  string
	message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Message is the shopper-facing text.
func (e *ValidationError) Message() string {
	if e.message != "" {
		return e.message
	}
	return "Champ invalide: " + e.Field
}

// InsufficientStockError reports the first cart line that cannot be served.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Message() string {
	if e.Name == "" {
		return fmt.Sprintf("Stock insuffisant: %d disponible", e.Available)
	}
	return fmt.Sprintf("Stock insuffisant pour %s: %d disponible", e.Name, e.Available)
}

// OrderPersistenceError hides the storage failure behind a generic message.
type OrderPersistenceError struct {
	Cause error
}

func (e *OrderPersistenceError) Error() string {
	return "persist order: " + e.Cause.Error()
}

func (e *OrderPersistenceError) Unwrap() error {
	return e.Cause
}

const persistenceMessage = "Une erreur est survenue lors de la commande"

func validationFailed(field, reason, message string) error {
	ve := &ValidationError{Field: field, Reason: reason, message: message}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ve, ve.Message()).
		WithDetails(map[string]string{field: reason})
}

func insufficientStock(e *InsufficientStockError) error {
	return pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, e, e.Message()).
		WithDetails(map[string]any{
			"product_id":   e.ProductID.String(),
			"product_name": e.Name,
			"available":    e.Available,
		})
}

func persistenceFailed(cause error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, &OrderPersistenceError{Cause: cause}, persistenceMessage)
}
