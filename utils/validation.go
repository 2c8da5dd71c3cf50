package utils

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type ValidationErr struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Valid  bool
	Errors []ValidationErr
}

func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors = append(v.Errors, ValidationErr{
		Field:   field,
		Message: message,
	})
}

func (v *ValidationResult) HasErrors() bool {
	return !v.Valid
}

func (v *ValidationResult) Error() string {
	if !v.Valid {
		messages := make([]string, len(v.Errors))
		for i, e := range v.Errors {
			messages[i] = e.Message
		}
		return strings.Join(messages, "; ")
	}
	return ""
}

func NewValidationResult() *ValidationResult {
	return &ValidationResult{Valid: true}
}

func ValidateStringNotEmpty(value, fieldName string) *ValidationResult {
	result := NewValidationResult()
	if strings.TrimSpace(value) == "" {
		result.AddError(fieldName, fieldName+" cannot be empty")
	}
	return result
}

func ValidateStringLength(value, fieldName string, min, max int) *ValidationResult {
	result := NewValidationResult()
	length := len(strings.TrimSpace(value))
	if length < min {
		result.AddError(fieldName, fieldName+" must be at least "+strconv.Itoa(min)+" characters")
	}
	if max > 0 && length > max {
		result.AddError(fieldName, fieldName+" must be at most "+strconv.Itoa(max)+" characters")
	}
	return result
}

// accountIDRegex follows the NEAR account naming rules: lowercase alphanumeric
// segments joined by a single separator (. _ -), 2 to 64 characters overall.
var accountIDRegex = regexp.MustCompile(`^(([a-z\d]+[-_])*[a-z\d]+\.)*([a-z\d]+[-_])*[a-z\d]+$`)

func ValidateAccountID(value string) *ValidationResult {
	result := NewValidationResult()
	if strings.TrimSpace(value) == "" {
		result.AddError("account_id", "account_id is required")
		return result
	}
	if len(value) < 2 || len(value) > 64 {
		result.AddError("account_id", "account_id must be between 2 and 64 characters")
		return result
	}
	if !accountIDRegex.MatchString(value) {
		result.AddError("account_id", "account_id is not a valid NEAR account")
	}
	return result
}

func ValidatePublicKey(value string) *ValidationResult {
	result := NewValidationResult()
	if strings.TrimSpace(value) == "" {
		result.AddError("public_key", "public_key is required")
		return result
	}
	if !strings.HasPrefix(value, "ed25519:") {
		result.AddError("public_key", "public_key must be an ed25519 key")
	}
	return result
}

func ValidateRequest(ctx *gin.Context, validators ...*ValidationResult) bool {
	for _, v := range validators {
		if v.HasErrors() {
			BadRequest(ctx, v.Error())
			return false
		}
	}
	return true
}

func BindAndValidate(ctx *gin.Context, dest interface{}, validators ...*ValidationResult) bool {
	if err := ctx.ShouldBindJSON(dest); err != nil {
		SendValidationError(ctx, err.Error())
		return false
	}

	for _, v := range validators {
		if v.HasErrors() {
			SendValidationError(ctx, v.Error())
			return false
		}
	}

	return true
}

func SendValidationError(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusBadRequest, gin.H{
		"error":   "Validation error",
		"code":    http.StatusBadRequest,
		"details": message,
	})
}
