package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Bounds accepted for a rating range.
const (
	MinRating = 0
	MaxRating = 10
)

// Range is an inclusive numeric range.
type Range struct {
	Min float64 `json:"min" validate:"ltefield=Max"`
	Max float64 `json:"max"`
}

func (r Range) String() string {
	return fmt.Sprintf("%g-%g", r.Min, r.Max)
}

// ParseRange decodes "min-max", "min,max" or "[min,max]".
func ParseRange(s string) (*Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if strings.HasPrefix(s, "[") {
		return decodeRange([]byte(s))
	}

	sep := ","
	if !strings.Contains(s, ",") {
		sep = "-"
	}
	lo, hi, found := strings.Cut(s, sep)
	if !found {
		return nil, fmt.Errorf("range %q must have the form min-max", s)
	}

	var r Range
	if _, err := fmt.Sscan(strings.TrimSpace(lo), &r.Min); err != nil {
		return nil, fmt.Errorf("invalid range minimum %q: %w", lo, err)
	}
	if _, err := fmt.Sscan(strings.TrimSpace(hi), &r.Max); err != nil {
		return nil, fmt.Errorf("invalid range maximum %q: %w", hi, err)
	}
	return &r, nil
}

func decodeRange(data []byte) (*Range, error) {
	var bounds []float64
	if err := json.Unmarshal(data, &bounds); err != nil {
		return nil, fmt.Errorf("invalid range %s: %w", data, err)
	}
	if len(bounds) != 2 {
		return nil, fmt.Errorf("range %s must have exactly two bounds", data)
	}
	return &Range{Min: bounds[0], Max: bounds[1]}, nil
}

// FilterSetting is a saved filter preset.
//
// The backend stores ranges and genres as JSON-encoded strings ("[1990,2000]", "[28,12]").
// FilterSetting decodes them into typed fields and encodes them back when marshalled.
type FilterSetting struct {
	ID                   int    `json:"id"`
	Name                 string `json:"name" validate:"required,max=100"`
	SearchText           string `json:"search_text,omitempty" validate:"max=200"`
	YearRange            *Range `json:"year_range,omitempty"`
	RatingRange          *Range `json:"rating_range,omitempty"`
	PopularityRange      *Range `json:"popularity_range,omitempty"`
	Genres               []int  `json:"genres,omitempty" validate:"dive,gt=0"`
	IsHomepageEnabled    bool   `json:"is_homepage_enabled"`
	HomepageDisplayOrder *int   `json:"homepage_display_order" validate:"omitempty,gte=0"`
	CreatedAt            string `json:"created_at,omitempty"`
	UpdatedAt            string `json:"updated_at,omitempty"`
}

// filterWire is the backend's representation of a [FilterSetting].
type filterWire struct {
	ID                   int             `json:"id,omitempty"`
	Name                 string          `json:"name"`
	SearchText           *string         `json:"search_text"`
	YearRange            json.RawMessage `json:"year_range"`
	RatingRange          json.RawMessage `json:"rating_range"`
	PopularityRange      json.RawMessage `json:"popularity_range"`
	Genres               json.RawMessage `json:"genres"`
	IsHomepageEnabled    bool            `json:"is_homepage_enabled"`
	HomepageDisplayOrder *int            `json:"homepage_display_order"`
	CreatedAt            string          `json:"created_at,omitempty"`
	UpdatedAt            string          `json:"updated_at,omitempty"`
}

func (f FilterSetting) MarshalJSON() ([]byte, error) {
	w := filterWire{
		ID:                   f.ID,
		Name:                 f.Name,
		IsHomepageEnabled:    f.IsHomepageEnabled,
		HomepageDisplayOrder: f.HomepageDisplayOrder,
		CreatedAt:            f.CreatedAt,
		UpdatedAt:            f.UpdatedAt,
	}
	if f.SearchText != "" {
		w.SearchText = &f.SearchText
	}

	var err error
	if w.YearRange, err = encodeRange(f.YearRange); err != nil {
		return nil, err
	}
	if w.RatingRange, err = encodeRange(f.RatingRange); err != nil {
		return nil, err
	}
	if w.PopularityRange, err = encodeRange(f.PopularityRange); err != nil {
		return nil, err
	}
	if w.Genres, err = EncodeGenres(f.Genres); err != nil {
		return nil, err
	}

	return json.Marshal(w)
}

func (f *FilterSetting) UnmarshalJSON(data []byte) error {
	var w filterWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := FilterSetting{
		ID:                   w.ID,
		Name:                 w.Name,
		IsHomepageEnabled:    w.IsHomepageEnabled,
		HomepageDisplayOrder: w.HomepageDisplayOrder,
		CreatedAt:            w.CreatedAt,
		UpdatedAt:            w.UpdatedAt,
	}
	if w.SearchText != nil {
		out.SearchText = *w.SearchText
	}

	var err error
	if out.YearRange, err = rangeField(w.YearRange); err != nil {
		return fmt.Errorf("year_range: %w", err)
	}
	if out.RatingRange, err = rangeField(w.RatingRange); err != nil {
		return fmt.Errorf("rating_range: %w", err)
	}
	if out.PopularityRange, err = rangeField(w.PopularityRange); err != nil {
		return fmt.Errorf("popularity_range: %w", err)
	}
	if out.Genres, err = genresField(w.Genres); err != nil {
		return fmt.Errorf("genres: %w", err)
	}

	*f = out
	return nil
}

// unquote returns the payload of a JSON-string field, or the raw value when the backend sent a bare array.
func unquote(raw json.RawMessage) ([]byte, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false, nil
	}
	if raw[0] != '"' {
		return raw, true, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, err
	}
	if s = strings.TrimSpace(s); s == "" || s == "null" {
		return nil, false, nil
	}
	return []byte(s), true, nil
}

func rangeField(raw json.RawMessage) (*Range, error) {
	payload, ok, err := unquote(raw)
	if err != nil || !ok {
		return nil, err
	}
	return decodeRange(payload)
}

func genresField(raw json.RawMessage) ([]int, error) {
	payload, ok, err := unquote(raw)
	if err != nil || !ok {
		return nil, err
	}

	var genres []int
	if err := json.Unmarshal(payload, &genres); err != nil {
		return nil, fmt.Errorf("invalid genre list %s: %w", payload, err)
	}
	return genres, nil
}

// encodeRange produces the JSON-string wire form of r, or null.
func encodeRange(r *Range) (json.RawMessage, error) {
	if r == nil {
		return json.RawMessage("null"), nil
	}
	inner, err := json.Marshal([]float64{r.Min, r.Max})
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(inner))
}

// EncodeGenres produces the JSON-string wire form of a genre id list, or null when empty.
func EncodeGenres(genres []int) (json.RawMessage, error) {
	if len(genres) == 0 {
		return json.RawMessage("null"), nil
	}
	inner, err := json.Marshal(genres)
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(inner))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		f := sl.Current().Interface().(FilterSetting)
		if r := f.RatingRange; r != nil && (r.Min < MinRating || r.Max > MaxRating) {
			sl.ReportError(f.RatingRange, "RatingRange", "RatingRange", "rating_bounds", "")
		}
		if r := f.PopularityRange; r != nil && r.Min < 0 {
			sl.ReportError(f.PopularityRange, "PopularityRange", "PopularityRange", "gte", "0")
		}
	}, FilterSetting{})
	return v
}

// ErrInvalidFilter is returned by [FilterSetting.Validate].
var ErrInvalidFilter = errors.New("invalid filter setting")

// Validate checks the preset before it is written to the backend.
func (f FilterSetting) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	msgs := make([]string, 0, len(ve))
	for _, e := range ve {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fieldName(e)+" is required")
		case "ltefield":
			msgs = append(msgs, fieldName(e)+" minimum must not exceed maximum")
		case "rating_bounds":
			msgs = append(msgs, fmt.Sprintf("rating range must be within %d-%d", MinRating, MaxRating))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fieldName(e), e.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidFilter, strings.Join(msgs, "; "))
}

// fieldName names the offending field by its parent for nested range errors.
func fieldName(e validator.FieldError) string {
	ns := e.StructNamespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if parent, _, found := strings.Cut(ns, "."); found {
		return parent
	}
	return ns
}

// HomepageOrder returns the display order or -1 when unset.
func (f FilterSetting) HomepageOrder() int {
	if f.HomepageDisplayOrder == nil {
		return -1
	}
	return *f.HomepageDisplayOrder
}
