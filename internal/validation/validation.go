// Package validation holds one named validator per request body. Each
// returns nil or an *apperr.Error of KindValidation listing every bad field.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/01moynul/stockroom/internal/apperr"
	"github.com/01moynul/stockroom/internal/models"
)

const MinPasswordLength = 6

var validate = validator.New()

// checker collects field errors in order.
type checker struct {
	message string
	fields  []apperr.FieldError
}

func (c *checker) add(field, message string) {
	c.fields = append(c.fields, apperr.FieldError{Field: field, Message: message})
}

func (c *checker) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	msg := c.message
	if msg == "" {
		msg = "Validation failed"
	}
	return apperr.Validation(msg, c.fields...)
}

func (c *checker) email(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.add(field, "Email is required")
		return
	}
	if validate.Var(strings.TrimSpace(value), "email") != nil {
		c.add(field, "Invalid email address")
	}
}

func (c *checker) optionalEmail(field string, value *string) {
	if value != nil && *value != "" && validate.Var(*value, "email") != nil {
		c.add(field, "Invalid email address")
	}
}

func (c *checker) optionalURL(field string, value *string) {
	if value != nil && *value != "" && validate.Var(*value, "url") != nil {
		c.add(field, "Must be a valid URL")
	}
}

func (c *checker) optionalUUID(field string, value *string) {
	if value != nil && validate.Var(*value, "uuid") != nil {
		c.add(field, "Must be a valid id")
	}
}

func (c *checker) optionalColor(field string, value *string) {
	if value != nil && *value != "" && (len(*value) != 7 || validate.Var(*value, "hexcolor") != nil) {
		c.add(field, "Invalid hex color")
	}
}

func (c *checker) required(field, value, message string) {
	if strings.TrimSpace(value) == "" {
		c.add(field, message)
	}
}

func (c *checker) nonNegative(field string, value *int) {
	if value == nil {
		return
	}
	switch {
	case *value < 0:
		c.add(field, "Must be zero or more")
	case *value > models.MaxQuantity:
		c.add(field, tooLarge)
	}
}

var tooLarge = fmt.Sprintf("Must be at most %d", models.MaxQuantity)

// ParseDate accepts RFC 3339 timestamps and bare YYYY-MM-DD dates and
// returns the instant in UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// present returns the value only when the key was sent with a non-null value.
func present(o models.Optional[string]) *string {
	if !o.Set || o.Null {
		return nil
	}
	return &o.Value
}

// --- Auth ---

func CheckEmail(in *models.CheckEmailInput) error {
	c := checker{message: "Invalid email format"}
	c.email("email", in.Email)
	return c.err()
}

func Login(in *models.LoginInput) error {
	c := checker{message: "Invalid email or password format"}
	c.email("email", in.Email)
	if len(in.Password) < MinPasswordLength {
		c.add("password", "Password must be at least 6 characters")
	}
	return c.err()
}

func SetupPassword(in *models.SetupPasswordInput) error {
	var c checker
	c.email("email", in.Email)
	if len(in.Password) < MinPasswordLength {
		c.add("password", "Password must be at least 6 characters")
	}
	if in.Password != in.ConfirmPassword {
		c.add("confirmPassword", "Passwords don't match")
	}
	return c.err()
}

// --- Items ---

func CreateItem(in *models.CreateItemInput) error {
	c := checker{message: "Validation error"}
	c.required("baseName", in.BaseName, "Item name is required")
	c.optionalURL("imageUrl", in.ImageURL)
	c.optionalUUID("storageLocationId", in.StorageLocationID)
	c.optionalUUID("categoryId", in.CategoryID)
	c.optionalUUID("supplierId", in.SupplierID)
	if in.Cost != nil && in.Cost.IsNegative() {
		c.add("cost", "Must be zero or more")
	}
	c.nonNegative("reorderQty", in.ReorderQty)
	c.nonNegative("currentStock", in.CurrentStock)
	return c.err()
}

func UpdateItem(in *models.UpdateItemInput) error {
	c := checker{message: "Validation error"}
	if in.BaseName.Set && (in.BaseName.Null || strings.TrimSpace(in.BaseName.Value) == "") {
		c.add("baseName", "Item name is required")
	}
	if in.HasExpiry.Set && in.HasExpiry.Null {
		c.add("hasExpiry", "Cannot be null")
	}
	if in.IsCritical.Set && in.IsCritical.Null {
		c.add("isCritical", "Cannot be null")
	}
	c.optionalURL("imageUrl", present(in.ImageURL))
	c.optionalUUID("storageLocationId", present(in.StorageLocationID))
	c.optionalUUID("categoryId", present(in.CategoryID))
	c.optionalUUID("supplierId", present(in.SupplierID))
	if in.Cost.Set && !in.Cost.Null && in.Cost.Value.IsNegative() {
		c.add("cost", "Must be zero or more")
	}
	if in.ReorderQty.Set {
		if in.ReorderQty.Null {
			c.add("reorderQty", "Cannot be null")
		} else {
			c.nonNegative("reorderQty", &in.ReorderQty.Value)
		}
	}
	if in.CurrentStock.Set {
		if in.CurrentStock.Null {
			c.add("currentStock", "Cannot be null")
		} else {
			c.nonNegative("currentStock", &in.CurrentStock.Value)
		}
	}
	return c.err()
}

// StockAdjustment checks the body and parses its dates.
func StockAdjustment(in *models.StockAdjustmentInput) (models.StockAdjustment, error) {
	c := checker{message: "Validation error"}
	out := models.StockAdjustment{
		Type:     models.AdjustmentType(in.Type),
		Quantity: in.Quantity,
		Reason:   strings.TrimSpace(in.Reason),
	}

	switch out.Type {
	case models.AdjustAdd, models.AdjustRemove, models.AdjustSet:
	default:
		c.add("type", "Type must be one of ADD, REMOVE, SET")
	}
	switch {
	case in.Quantity <= 0:
		c.add("quantity", "Quantity must be positive")
	case in.Quantity > models.MaxQuantity:
		c.add("quantity", tooLarge)
	}
	if out.Reason == "" {
		c.add("reason", "Reason is required")
	}
	if in.BatchID != nil && *in.BatchID != "" {
		c.optionalUUID("batchId", in.BatchID)
		out.BatchID = in.BatchID
	}
	if in.BatchCode != nil && strings.TrimSpace(*in.BatchCode) != "" {
		code := strings.TrimSpace(*in.BatchCode)
		out.BatchCode = &code
	}
	if in.ExpiryDate != nil && *in.ExpiryDate != "" {
		t, err := ParseDate(*in.ExpiryDate)
		if err != nil {
			c.add("expiryDate", "Must be an ISO-8601 date")
		} else {
			out.ExpiryDate = &t
		}
	}
	if in.DateReceived != nil && *in.DateReceived != "" {
		t, err := ParseDate(*in.DateReceived)
		if err != nil {
			c.add("dateReceived", "Must be an ISO-8601 date")
		} else {
			out.DateReceived = &t
		}
	}

	if err := c.err(); err != nil {
		return models.StockAdjustment{}, err
	}
	return out, nil
}

// --- Reference data ---

func Category(in *models.CategoryInput) error {
	var c checker
	c.required("name", in.Name, "Category name is required")
	c.optionalColor("color", in.Color)
	return c.err()
}

var supplierTypes = map[string]bool{
	"DISTRIBUTOR": true, "RETAILER": true, "ONLINE": true,
	"WHOLESALE": true, "PRODUCER": true, "OTHER": true,
}

var minOrderTypes = map[string]bool{"QUANTITY": true, "ITEMS": true, "PRICE": true}

func Supplier(in *models.SupplierInput) error {
	var c checker
	c.required("name", in.Name, "Supplier name is required")
	c.optionalEmail("email", in.Email)
	c.optionalURL("website", in.Website)
	if in.SupplierType != nil && !supplierTypes[*in.SupplierType] {
		c.add("supplierType", "Unknown supplier type")
	}
	if in.MinOrderType != nil && !minOrderTypes[*in.MinOrderType] {
		c.add("minOrderType", "Must be one of QUANTITY, ITEMS, PRICE")
	}
	if in.MinOrderValue != nil && in.MinOrderValue.IsNegative() {
		c.add("minOrderValue", "Must be zero or more")
	}
	return c.err()
}

func StorageLocation(in *models.StorageLocationInput) error {
	var c checker
	c.required("name", in.Name, "Location name is required")
	return c.err()
}

// optionalName rejects a name key sent as null or blank. An absent key is fine.
func (c *checker) optionalName(field string, o models.Optional[string], message string) {
	if o.Set && (o.Null || strings.TrimSpace(o.Value) == "") {
		c.add(field, message)
	}
}

func (c *checker) notNull(field string, set, null bool) {
	if set && null {
		c.add(field, "Cannot be null")
	}
}

func UpdateCategory(in *models.UpdateCategoryInput) error {
	var c checker
	c.optionalName("name", in.Name, "Category name is required")
	c.optionalColor("color", present(in.Color))
	c.notNull("isActive", in.IsActive.Set, in.IsActive.Null)
	return c.err()
}

func UpdateSupplier(in *models.UpdateSupplierInput) error {
	var c checker
	c.optionalName("name", in.Name, "Supplier name is required")
	c.optionalEmail("email", present(in.Email))
	c.optionalURL("website", present(in.Website))
	if v := present(in.SupplierType); v != nil && !supplierTypes[*v] {
		c.add("supplierType", "Unknown supplier type")
	}
	if v := present(in.MinOrderType); v != nil && !minOrderTypes[*v] {
		c.add("minOrderType", "Must be one of QUANTITY, ITEMS, PRICE")
	}
	if in.MinOrderValue.Set && !in.MinOrderValue.Null && in.MinOrderValue.Value.IsNegative() {
		c.add("minOrderValue", "Must be zero or more")
	}
	c.notNull("isActive", in.IsActive.Set, in.IsActive.Null)
	return c.err()
}

func UpdateStorageLocation(in *models.UpdateStorageLocationInput) error {
	var c checker
	c.optionalName("name", in.Name, "Location name is required")
	c.notNull("isActive", in.IsActive.Set, in.IsActive.Null)
	return c.err()
}

// --- Users & settings ---

func CreateUser(in *models.CreateUserInput) error {
	var c checker
	c.email("email", in.Email)
	if in.Role == "" {
		in.Role = models.RoleStaff
	}
	if !in.Role.Valid() {
		c.add("role", "Role must be ADMIN or STAFF")
	}
	return c.err()
}

func UpdateUser(in *models.UpdateUserInput) error {
	var c checker
	if in.Role.Set && (in.Role.Null || !in.Role.Value.Valid()) {
		c.add("role", "Role must be ADMIN or STAFF")
	}
	if in.IsActive.Set && in.IsActive.Null {
		c.add("isActive", "Cannot be null")
	}
	return c.err()
}

func Setting(key string, in *models.UpdateSettingInput) error {
	var c checker
	c.required("key", key, "Key is required")
	if len(key) > 100 {
		c.add("key", "Key is too long")
	}
	return c.err()
}
