// Package form is the product edit form: string fields as typed by the user,
// validated with the same rules the server applies.
package form

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"productdesk/internal/models"
	"productdesk/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Field names.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldQuantity    = "quantity"
)

// Form titles.
const (
	TitleAdd  = "Add Product"
	TitleEdit = "Edit Product"
)

// ErrUnknownField is returned by SetField for a name the form does not have.
var ErrUnknownField = errors.New("unknown form field")

var fieldOrder = []string{FieldName, FieldDescription, FieldPrice, FieldQuantity}

// Errors maps field names to validation messages.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return strings.Join(parts, "; ")
}

// Form holds the raw field text of one product being added or edited.
type Form struct {
	title    string
	fields   map[string]string
	boundID  *int64
	validate *validator.Validate
}

// New returns a blank form. Quantity starts at "0".
func New(title string) *Form {
	f := &Form{title: title, validate: models.NewValidator()}
	f.Reset()
	return f
}

// Title returns the form title.
func (f *Form) Title() string { return f.title }

// Reset clears every field and unbinds the form.
func (f *Form) Reset() {
	f.fields = map[string]string{
		FieldName:        "",
		FieldDescription: "",
		FieldPrice:       "",
		FieldQuantity:    "0",
	}
	f.boundID = nil
}

// LoadRecord fills the fields from r and binds the form to its id.
func (f *Form) LoadRecord(r store.Record) {
	f.fields[FieldName] = r.Name
	f.fields[FieldDescription] = r.Description
	f.fields[FieldPrice] = r.Price.StringFixed(models.PricePlaces)
	f.fields[FieldQuantity] = strconv.Itoa(r.Quantity)
	f.boundID = nil
	if r.ID != nil {
		f.boundID = store.Int64(*r.ID)
	}
}

// SetField sets the raw text of a field.
func (f *Form) SetField(name, value string) error {
	if _, ok := f.fields[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	f.fields[name] = value
	return nil
}

// Field returns the raw text of a field, or "" for an unknown name.
func (f *Form) Field(name string) string { return f.fields[name] }

// Fields returns the field names in display order.
func Fields() []string { return append([]string(nil), fieldOrder...) }

// BoundID returns the id of the record being edited, or nil when adding.
func (f *Form) BoundID() *int64 {
	if f.boundID == nil {
		return nil
	}
	return store.Int64(*f.boundID)
}

// Validate checks every field and returns the messages of those that fail.
// The result is empty when the form can be saved.
func (f *Form) Validate() Errors {
	_, errs := f.parse()
	return errs
}

// IsValid reports whether every field passes validation.
func (f *Form) IsValid() bool { return len(f.Validate()) == 0 }

// CanSave reports whether the save action is enabled.
func (f *Form) CanSave() bool { return f.IsValid() }

// Values returns the parsed field values. Price is rounded to two places and a blank
// quantity is 0. It fails with Errors when the form is invalid.
func (f *Form) Values() (store.Values, error) {
	values, errs := f.parse()
	if len(errs) > 0 {
		return store.Values{}, errs
	}
	return values, nil
}

// NewRecord builds an unsaved record from the form.
func (f *Form) NewRecord() (*store.Record, error) {
	values, err := f.Values()
	if err != nil {
		return nil, err
	}
	return store.NewRecord(values), nil
}

func (f *Form) parse() (store.Values, Errors) {
	errs := Errors{}
	input := models.ProductInput{
		Name:        f.fields[FieldName],
		Description: f.fields[FieldDescription],
	}
	input.Normalize()

	if raw := strings.TrimSpace(f.fields[FieldPrice]); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			errs[FieldPrice] = "Must be a number"
		} else {
			input.Price = &price
		}
	}

	quantity := 0
	if raw := strings.TrimSpace(f.fields[FieldQuantity]); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs[FieldQuantity] = "Must be a whole number"
		} else {
			quantity = n
		}
	}
	input.Quantity = &quantity

	if err := f.validate.Struct(input); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			errs["_"] = err.Error()
		}
		for _, e := range validationErrors {
			if _, seen := errs[e.Field()]; !seen {
				errs[e.Field()] = message(e)
			}
		}
	}
	if len(errs) > 0 {
		return store.Values{}, errs
	}

	return store.Values{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price.Round(models.PricePlaces),
		Quantity:    quantity,
	}, nil
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "gte":
		return "Must be at least " + e.Param()
	case "max":
		return "Must be at most " + e.Param() + " characters"
	default:
		return fmt.Sprintf("Failed on the '%s' tag", e.Tag())
	}
}
