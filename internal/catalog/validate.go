package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinRating = 1
	MaxRating = 5
)

type movieFields struct {
	Title    string `json:"title" validate:"required"`
	Year     string `json:"year" validate:"required"`
	Genre    string `json:"genre" validate:"required"`
	Director string `json:"director" validate:"required"`
}

type reviewFields struct {
	Text   string `json:"text" validate:"required"`
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Store) checkMovie(in MovieInput) (MovieInput, int, error) {
	in = in.trimmed()
	fields := movieFields{Title: in.Title, Year: string(in.Year), Genre: in.Genre, Director: in.Director}
	if err := s.validate.Struct(fields); err != nil {
		return in, 0, toValidationError(err)
	}
	year, err := strconv.Atoi(string(in.Year))
	if err != nil {
		return in, 0, &ValidationError{Field: "year", Reason: "year must be a whole number"}
	}
	return in, year, nil
}

func (s *Store) checkReview(in ReviewInput) (ReviewInput, int, error) {
	in = in.trimmed()
	rating, err := strconv.Atoi(string(in.Rating))
	if err != nil {
		return in, 0, &ValidationError{Field: "rating", Reason: ratingReason()}
	}
	if err := s.validate.Struct(reviewFields{Text: in.Text, Rating: rating}); err != nil {
		return in, 0, toValidationError(err)
	}
	return in, rating, nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Reason: err.Error()}
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: fe.Field(), Reason: fe.Field() + " is required"}
	case "gte", "lte":
		if fe.Field() == "rating" {
			return &ValidationError{Field: "rating", Reason: ratingReason()}
		}
	}
	return &ValidationError{Field: fe.Field(), Reason: fmt.Sprintf("%s is invalid", fe.Field())}
}

func ratingReason() string {
	return fmt.Sprintf("rating must be a whole number between %d and %d", MinRating, MaxRating)
}
