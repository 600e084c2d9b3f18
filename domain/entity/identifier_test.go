package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerwolf1/bigData/shared/common"
)

const (
	// 10-digit device id + DDMMYYYY date + HHMMSS time + 4-digit sequence.
	summaryID = "4000000123" + "15082021" + "134501" + "0042"
	// Receipt identifiers append the 4-digit receipt number.
	receiptID = summaryID + "0077"
)

func TestDecodeIdentifier(t *testing.T) {
	fields, err := DecodeIdentifier(summaryID, false)
	require.NoError(t, err)

	assert.Equal(t, "4000000123", fields.DeviceID)
	assert.Equal(t, "13:45:01", fields.TimeOfDay)
	assert.Equal(t, "0042", fields.SequenceNumber)
	assert.Equal(t, "15-08-2021", fields.Date)
	assert.Nil(t, fields.ReceiptNumber)
}

func TestDecodeIdentifierWithReceiptNumber(t *testing.T) {
	fields, err := DecodeIdentifier(receiptID, true)
	require.NoError(t, err)

	require.NotNil(t, fields.ReceiptNumber)
	assert.Equal(t, 77, *fields.ReceiptNumber)
	assert.Equal(t, "4000000123", fields.DeviceID)
	assert.Equal(t, "15-08-2021", fields.Date)
}

func TestDecodeIdentifierReceiptNumberFromTail(t *testing.T) {
	// The receipt number is always the last four characters, whatever the
	// total length.
	long := receiptID + "extra0123"
	fields, err := DecodeIdentifier(long, true)
	require.NoError(t, err)

	require.NotNil(t, fields.ReceiptNumber)
	assert.Equal(t, 123, *fields.ReceiptNumber)
}

func TestDecodeIdentifierDateLayouts(t *testing.T) {
	tests := []struct {
		name    string
		dateStr string
		want    string
	}{
		{"day first", "15082021", "15-08-2021"},
		{"year first", "20210815", "15-08-2021"},
		// Valid under both layouts; the day-first reading wins.
		{"ambiguous prefers day first", "20011212", "20-01-1212"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := "4000000123" + tt.dateStr + "134501" + "0042"
			fields, err := DecodeIdentifier(id, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fields.Date)
		})
	}
}

func TestDecodeIdentifierInvalidDate(t *testing.T) {
	id := "4000000123" + "99999999" + "134501" + "0042"
	_, err := DecodeIdentifier(id, false)
	require.Error(t, err)
	assert.True(t, common.HasErrorCode(err, common.ErrCodeInvalidFormat))
}

func TestDecodeIdentifierTooShort(t *testing.T) {
	_, err := DecodeIdentifier("40000001231508", false)
	require.Error(t, err)
	assert.True(t, common.HasErrorCode(err, common.ErrCodeInvalidFormat))

	// 28 characters is enough without a receipt number but not with one.
	_, err = DecodeIdentifier(summaryID, false)
	assert.NoError(t, err)
	_, err = DecodeIdentifier(summaryID, true)
	require.Error(t, err)
	assert.True(t, common.HasErrorCode(err, common.ErrCodeInvalidFormat))
}

func TestNormalize(t *testing.T) {
	fields, err := DecodeIdentifier(receiptID, true)
	require.NoError(t, err)

	record, err := fields.Normalize()
	require.NoError(t, err)

	assert.Equal(t, int64(4000000123), record.DeviceID)
	assert.Equal(t, TimeOfDay{Hour: 13, Minute: 45, Second: 1}, record.TimeOfDay)
	assert.Equal(t, 42, record.SequenceNumber)
	assert.Equal(t, time.Date(2021, time.August, 15, 0, 0, 0, 0, time.UTC), record.Date)
	require.NotNil(t, record.ReceiptNumber)
	assert.Equal(t, 77, *record.ReceiptNumber)
}

func TestNormalizeRejectsBadFields(t *testing.T) {
	tests := []struct {
		name   string
		fields ParsedFields
	}{
		{"device id", ParsedFields{DeviceID: "40000x0123", TimeOfDay: "13:45:01", SequenceNumber: "0042", Date: "15-08-2021"}},
		{"time", ParsedFields{DeviceID: "4000000123", TimeOfDay: "25:99:99", SequenceNumber: "0042", Date: "15-08-2021"}},
		{"sequence", ParsedFields{DeviceID: "4000000123", TimeOfDay: "13:45:01", SequenceNumber: "00x2", Date: "15-08-2021"}},
		{"date", ParsedFields{DeviceID: "4000000123", TimeOfDay: "13:45:01", SequenceNumber: "0042", Date: "2021-08-15"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fields.Normalize()
			require.Error(t, err)
			assert.True(t, common.HasErrorCode(err, common.ErrCodeTypeConversion))
		})
	}
}

func TestSerializeValue(t *testing.T) {
	date := time.Date(2021, time.August, 15, 0, 0, 0, 0, time.UTC)
	s, err := SerializeValue(date)
	require.NoError(t, err)
	assert.Equal(t, "15-08-2021", s)

	s, err = SerializeValue(TimeOfDay{Hour: 13, Minute: 45, Second: 1})
	require.NoError(t, err)
	assert.Equal(t, "13:45:01", s)

	_, err = SerializeValue(42)
	assert.Error(t, err)
}

func TestWireDocumentRoundTrip(t *testing.T) {
	fields, err := DecodeIdentifier(receiptID, true)
	require.NoError(t, err)
	record, err := fields.Normalize()
	require.NoError(t, err)

	doc, err := record.WireDocument()
	require.NoError(t, err)

	assert.Equal(t, int64(4000000123), doc["nui"])
	assert.Equal(t, "13:45:01", doc["hour"])
	assert.Equal(t, 42, doc["nr_z"])
	assert.Equal(t, "15-08-2021", doc["DATA"])
	assert.Equal(t, 77, doc["nr_bon"])

	// The string fields come back out exactly as they were decoded.
	assert.Equal(t, fields.Date, doc["DATA"])
	assert.Equal(t, fields.TimeOfDay, doc["hour"])
}

func TestWireDocumentWithoutReceiptNumber(t *testing.T) {
	fields, err := DecodeIdentifier(summaryID, false)
	require.NoError(t, err)
	record, err := fields.Normalize()
	require.NoError(t, err)

	doc, err := record.WireDocument()
	require.NoError(t, err)

	_, ok := doc["nr_bon"]
	assert.False(t, ok)
}

func TestPadding(t *testing.T) {
	assert.Equal(t, "0042", PadSequence(42))
	assert.Equal(t, "1042", PadSequence(1042))
	assert.Equal(t, "4000000123", PadDeviceID(4000000123))
	assert.Equal(t, "0000000007", PadDeviceID(7))
}

func TestParseWireDate(t *testing.T) {
	d, err := ParseWireDate("15-08-2021")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, time.August, 15, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseWireDate("2021-08-15")
	assert.Error(t, err)
}
