package userinfo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRow(name string) ResultRow {
	return ResultRow{
		"1 Main St",
		"Acme",
		"555-0100",
		name + "@acme.test",
		"John " + name,
		"http://img/" + name + ".png",
		name,
		"555-0101",
		"Admin",
	}
}

func TestDecodeRowMapsPositions(t *testing.T) {
	info, err := DecodeRow(0, sampleRow("jdoe"))
	require.NoError(t, err)

	assert.Equal(t, "1 Main St", info.CompanyAddress)
	assert.Equal(t, "Acme", info.CompanyName)
	assert.Equal(t, "555-0100", info.CompanyPhone)
	assert.Equal(t, "jdoe@acme.test", info.UserEmail)
	assert.Equal(t, "John jdoe", info.UserFullName)
	assert.Equal(t, "http://img/jdoe.png", info.UserImage)
	assert.Equal(t, "jdoe", info.UserName)
	assert.Equal(t, "555-0101", info.UserPhone)
	assert.Equal(t, "Admin", info.UserRole)
}

func TestDecodeRowIgnoresExtraFields(t *testing.T) {
	row := append(sampleRow("jdoe"), "extra")
	info, err := DecodeRow(0, row)
	require.NoError(t, err)
	assert.Equal(t, "Admin", info.UserRole)
}

func TestDecodeRowRejectsShortRows(t *testing.T) {
	_, err := DecodeRow(3, ResultRow{"a", "b"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRow))

	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 3, rowErr.Index)
	assert.Equal(t, 2, rowErr.Fields)
}

func TestPositionalReordersByFieldNames(t *testing.T) {
	model := ResultsModel{
		Fields: []string{
			"userRole", "user_phone", "User Name", "user_image", "user_fullname",
			"user_email", "company_phone", "company_name", "company_address",
		},
		Rows: []ResultRow{
			{"Admin", "555-0101", "jdoe", "img", "John Doe", "jdoe@acme.test", "555-0100", "Acme", "1 Main St"},
		},
	}
	rows := model.Positional()
	require.Len(t, rows, 1)

	info, err := DecodeRow(0, rows[0])
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", info.CompanyAddress)
	assert.Equal(t, "John Doe", info.UserFullName)
	assert.Equal(t, "Admin", info.UserRole)
	assert.Equal(t, "jdoe", info.UserName)
}

func TestPositionalKeepsRowsWhenColumnsUnknown(t *testing.T) {
	model := ResultsModel{
		Fields: []string{"a", "b"},
		Rows:   []ResultRow{sampleRow("jdoe")},
	}
	assert.Equal(t, model.Rows, model.Positional())

	model.Fields = nil
	assert.Equal(t, model.Rows, model.Positional())
}

func TestPositionalTruncatesRowsMissingCells(t *testing.T) {
	fields := append([]string(nil), Columns...)
	fields[0], fields[8] = fields[8], fields[0]
	model := ResultsModel{
		Fields: fields,
		Rows:   []ResultRow{{"Admin", "Acme"}},
	}
	rows := model.Positional()
	require.Len(t, rows, 1)
	_, err := DecodeRow(0, rows[0])
	assert.ErrorIs(t, err, ErrMalformedRow)
}
