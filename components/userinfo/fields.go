package userinfo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ettle/strcase"
)

// Positional field layout of a user info result row.
const (
	FieldCompanyAddress = iota
	FieldCompanyName
	FieldCompanyPhone
	FieldUserEmail
	FieldUserFullName
	FieldUserImage
	FieldUserName
	FieldUserPhone
	FieldUserRole

	// RowWidth is the number of fields a well-formed row carries.
	RowWidth
)

// Columns lists the canonical column names in positional order.
var Columns = []string{
	"company_address",
	"company_name",
	"company_phone",
	"user_email",
	"user_fullname",
	"user_image",
	"user_name",
	"user_phone",
	"user_role",
}

// ErrMalformedRow is returned for rows with fewer than RowWidth fields.
var ErrMalformedRow = errors.New("userinfo: malformed result row")

// RowError reports a row that could not be decoded.
type RowError struct {
	Index  int
	Fields int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("userinfo: row %d has %d fields, want %d", e.Index, e.Fields, RowWidth)
}

func (e *RowError) Unwrap() error { return ErrMalformedRow }

// UserInfo is a decoded result row.
type UserInfo struct {
	CompanyAddress string `json:"company_address"`
	CompanyName    string `json:"company_name"`
	CompanyPhone   string `json:"company_phone"`
	UserEmail      string `json:"user_email"`
	UserFullName   string `json:"user_fullname"`
	UserImage      string `json:"user_image"`
	UserName       string `json:"-"`
	UserPhone      string `json:"user_phone"`
	UserRole       string `json:"user_role"`
}

// DecodeRow maps positional fields to a UserInfo. Extra trailing fields are ignored.
func DecodeRow(index int, row ResultRow) (UserInfo, error) {
	if len(row) < RowWidth {
		return UserInfo{}, &RowError{Index: index, Fields: len(row)}
	}
	return UserInfo{
		CompanyAddress: row[FieldCompanyAddress],
		CompanyName:    row[FieldCompanyName],
		CompanyPhone:   row[FieldCompanyPhone],
		UserEmail:      row[FieldUserEmail],
		UserFullName:   row[FieldUserFullName],
		UserImage:      row[FieldUserImage],
		UserName:       row[FieldUserName],
		UserPhone:      row[FieldUserPhone],
		UserRole:       row[FieldUserRole],
	}, nil
}

// Positional returns the rows reordered into canonical column positions when
// Fields names every canonical column. Otherwise rows are returned as-is.
func (m ResultsModel) Positional() []ResultRow {
	if len(m.Fields) == 0 {
		return m.Rows
	}
	index := make(map[string]int, len(m.Fields))
	for i, field := range m.Fields {
		index[normalizeColumn(field)] = i
	}
	order := make([]int, len(Columns))
	identity := true
	for pos, column := range Columns {
		idx, ok := index[normalizeColumn(column)]
		if !ok {
			return m.Rows
		}
		order[pos] = idx
		if idx != pos {
			identity = false
		}
	}
	if identity {
		return m.Rows
	}
	out := make([]ResultRow, len(m.Rows))
	for i, row := range m.Rows {
		reordered := make(ResultRow, len(order))
		for pos, idx := range order {
			if idx >= len(row) {
				// truncated at the first missing cell so DecodeRow rejects it
				reordered = reordered[:pos]
				break
			}
			reordered[pos] = row[idx]
		}
		out[i] = reordered
	}
	return out
}

// normalizeColumn folds "userFullName", "User Full-Name" and "user_fullname" together.
func normalizeColumn(name string) string {
	return strings.ReplaceAll(strcase.ToSnake(strings.TrimSpace(name)), "_", "")
}
