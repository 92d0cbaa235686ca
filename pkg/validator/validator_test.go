package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createProductInput struct {
	Name     string `validate:"required,max=100"`
	Price    int64  `validate:"required,gt=0"`
	Category string `validate:"required,oneof=Electronics Cameras Laptops Accessories Headphones Food Books Clothes Beauty Sports Outdoor Home"`
}

func TestValidate_Valid(t *testing.T) {
	in := createProductInput{Name: "SanDisk Ultra 128GB", Price: 4599, Category: "Electronics"}

	err := Validate(in)

	assert.NoError(t, err)
}

func TestValidate_MissingRequired(t *testing.T) {
	in := createProductInput{Price: 4599, Category: "Electronics"}

	err := Validate(in)

	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "is required", valErr.Fields()["Name"])
}

func TestValidate_OneOf(t *testing.T) {
	in := createProductInput{Name: "Widget", Price: 100, Category: "Gadgets"}

	err := Validate(in)

	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Category"], "must be one of")
}

func TestValidate_MultipleFailures(t *testing.T) {
	in := createProductInput{}

	err := Validate(in)

	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Len(t, valErr.Fields(), 3)
}
