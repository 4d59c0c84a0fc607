package schema_test

import (
	"testing"

	"ddl-pump/internal/schema"

	"github.com/stretchr/testify/assert"
)

func TestExpandName(t *testing.T) {
	assert.Equal(t, "user name", schema.ExpandName("usr_nm"))
	assert.Equal(t, "registered date", schema.ExpandName("REG_DT"))
	assert.Equal(t, "order total", schema.ExpandName("order-total"))
}

func TestAnalyzeMeaning(t *testing.T) {
	tests := []struct {
		col  string
		want schema.Meaning
	}{
		{"isbn13", schema.MeaningISBN},
		{"contact_mail", schema.MeaningEmail},
		{"usr_nm", schema.MeaningUsername},
		{"handle", schema.MeaningUsername},
		{"tel", schema.MeaningPhone},
		{"zip", schema.MeaningZipcode},
		{"home_addr", schema.MeaningAddress},
		{"city", schema.MeaningCity},
		{"website", schema.MeaningURL},
		{"release_year", schema.MeaningYear},
		{"unit_price", schema.MeaningPrice},
		{"stock_qty", schema.MeaningCount},
		{"use_yn", schema.MeaningYesNo},
		{"title", schema.MeaningTitle},
		{"desc", schema.MeaningText},
		{"first_name", schema.MeaningName},
		{"sku", schema.MeaningCode},
		{"created_at", schema.MeaningNone},
	}
	for _, tt := range tests {
		t.Run(tt.col, func(t *testing.T) {
			assert.Equal(t, tt.want, schema.AnalyzeMeaning(tt.col))
		})
	}
}
