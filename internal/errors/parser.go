package errors

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrorInfo is a code and message safe to return to clients.
type ErrorInfo struct {
	Code    string
	Message string
}

// PostgreSQL SQLSTATE classes we translate.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqNotNullViolation    = "23502"
	pqCheckViolation      = "23514"
)

// ParseError turns a repository or driver error into a client-facing code.
// Driver details are never leaked.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: getDefaultErrorMessage(context)}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: getNotFoundMessage(context)}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		detail := strings.ToLower(pqErr.Constraint + " " + pqErr.Column + " " + pqErr.Message)
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return parseDuplicateKeyError(detail)
		case pqForeignKeyViolation:
			return parseForeignKeyError(detail)
		case pqNotNullViolation:
			return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
		case pqCheckViolation:
			return ErrorInfo{Code: ValidationInvalidInput, Message: "Some values are out of range"}
		}
	}

	// sqlite and wrapped errors only carry text
	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "duplicate key"), strings.Contains(errLower, "unique constraint"):
		return parseDuplicateKeyError(errLower)
	case strings.Contains(errLower, "foreign key constraint"):
		return parseForeignKeyError(errLower)
	case strings.Contains(errLower, "connection refused"),
		strings.Contains(errLower, "no such host"),
		strings.Contains(errLower, "timeout"):
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "An upstream service is unavailable. Please try again shortly",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: getDefaultErrorMessage(context)}
}

func parseDuplicateKeyError(detail string) ErrorInfo {
	switch {
	case strings.Contains(detail, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "An account with this email already exists"}
	case strings.Contains(detail, "slug"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "That slug is already in use"}
	case strings.Contains(detail, "wishlist"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Item already in wishlist"}
	case strings.Contains(detail, "order_number"):
		return ErrorInfo{Code: ResourceConflict, Message: "Order number collision. Please retry"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func parseForeignKeyError(detail string) ErrorInfo {
	switch {
	case strings.Contains(detail, "still referenced"):
		return ErrorInfo{Code: ResourceConflict, Message: "This record is still in use"}
	case strings.Contains(detail, "product"):
		return ErrorInfo{Code: ProductNotFound, Message: "Product not found"}
	case strings.Contains(detail, "user"):
		return ErrorInfo{Code: ResourceNotFound, Message: "User not found"}
	}
	return ErrorInfo{Code: ResourceNotFound, Message: "A referenced record does not exist"}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "product"):
		return "Product not found"
	case strings.Contains(contextLower, "cart"):
		return "Cart item not found"
	case strings.Contains(contextLower, "wishlist"):
		return "Item not in wishlist"
	case strings.Contains(contextLower, "order"):
		return "Order not found"
	case strings.Contains(contextLower, "user"):
		return "User not found"
	}
	return "The requested resource was not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "create"), strings.Contains(contextLower, "add"):
		return "Could not save. Please try again shortly"
	case strings.Contains(contextLower, "update"):
		return "Could not update. Please try again shortly"
	case strings.Contains(contextLower, "delete"), strings.Contains(contextLower, "remove"):
		return "Could not delete. Please try again shortly"
	}
	return "Something went wrong. Please try again shortly"
}

// ParseAndRespond parses err and writes it with statusCode.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{Error: info.Code, Message: info.Message})
}
