package entity

import (
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/powerwolf1/bigData/shared/common"
)

// Encoded identifier layout (0-indexed, half-open ranges):
//
//	[0,10)  device identifier (NUI), 10 digits
//	[10,18) date, DDMMYYYY or YYYYMMDD
//	[18,24) time of day, three 2-digit groups
//	[24,28) daily sequence number (Z-report), 4 digits
//	last 4  per-receipt number, receipt-level identifiers only
const (
	deviceIDWidth      = 10
	dateOffset         = 10
	dateWidth          = 8
	timeOffset         = 18
	sequenceOffset     = 24
	sequenceWidth      = 4
	receiptNumberWidth = 4

	minIdentifierLen            = sequenceOffset + sequenceWidth
	minIdentifierLenWithReceipt = minIdentifierLen + receiptNumberWidth
)

// WireDateLayout is the dd-mm-yyyy form dates take in the collections.
const WireDateLayout = "02-01-2006"

// WireTimeLayout is the HH:MM:SS form times take in the collections.
const WireTimeLayout = "15:04:05"

// dateTrialLayouts are tried in order against the identifier's date
// substring. Order matters: DDMMYYYY wins when both would parse.
var dateTrialLayouts = []string{"02012006", "20060102"}

// ParsedFields is the wire-shaped record extracted from an encoded
// identifier: zero-padded digit strings and formatted date/time strings,
// exactly as they are stored in the parsed collections.
type ParsedFields struct {
	DeviceID       string `bson:"nui" json:"nui"`
	TimeOfDay      string `bson:"hour" json:"hour"`
	SequenceNumber string `bson:"nr_z" json:"nr_z"`
	Date           string `bson:"DATA" json:"DATA"`
	ReceiptNumber  *int   `bson:"nr_bon,omitempty" json:"nr_bon,omitempty"`
}

// Record is the typed form of ParsedFields.
type Record struct {
	DeviceID       int64
	TimeOfDay      TimeOfDay
	SequenceNumber int
	Date           time.Time
	ReceiptNumber  *int
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses an HH:MM:SS string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(WireTimeLayout, s)
	if err != nil {
		return TimeOfDay{}, err
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

// String formats the time as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// DecodeIdentifier extracts the semantic fields from an encoded identifier.
// The receipt number, when requested, is always the integer value of the
// LAST four characters regardless of total length.
func DecodeIdentifier(id string, includeReceiptNumber bool) (*ParsedFields, error) {
	minLen := minIdentifierLen
	if includeReceiptNumber {
		minLen = minIdentifierLenWithReceipt
	}
	if len(id) < minLen {
		return nil, common.ErrInvalidFormat(
			fmt.Sprintf("identifier %q is %d characters, need at least %d", id, len(id), minLen))
	}

	fields := &ParsedFields{
		DeviceID: id[:deviceIDWidth],
		TimeOfDay: fmt.Sprintf("%s:%s:%s",
			id[timeOffset:timeOffset+2],
			id[timeOffset+2:timeOffset+4],
			id[timeOffset+4:timeOffset+6]),
		SequenceNumber: id[sequenceOffset : sequenceOffset+sequenceWidth],
	}

	dateStr := id[dateOffset : dateOffset+dateWidth]
	date, err := parseTrialDate(dateStr)
	if err != nil {
		return nil, err
	}
	fields.Date = date.Format(WireDateLayout)

	if includeReceiptNumber {
		tail := id[len(id)-receiptNumberWidth:]
		nr, err := strconv.Atoi(tail)
		if err != nil {
			return nil, common.ErrInvalidFormat(
				fmt.Sprintf("receipt number %q is not numeric", tail))
		}
		fields.ReceiptNumber = &nr
	}

	return fields, nil
}

// parseTrialDate tries each known layout in order; failing both is a hard
// error, never a silent fallback.
func parseTrialDate(dateStr string) (time.Time, error) {
	for _, layout := range dateTrialLayouts {
		if d, err := time.Parse(layout, dateStr); err == nil {
			return d, nil
		}
	}
	return time.Time{}, common.ErrInvalidFormat(fmt.Sprintf("error parsing date: %s", dateStr))
}

// ParseWireDate converts a dd-mm-yyyy wire string into a calendar date.
// Both date-bearing fields (DATA and the lowercase data variant some raw
// documents carry) go through this same conversion.
func ParseWireDate(s string) (time.Time, error) {
	return time.Parse(WireDateLayout, s)
}

// Normalize converts the wire-shaped fields to their typed form.
func (f *ParsedFields) Normalize() (*Record, error) {
	deviceID, err := strconv.ParseInt(f.DeviceID, 10, 64)
	if err != nil {
		return nil, common.ErrTypeConversion("nui", err)
	}

	tod, err := ParseTimeOfDay(f.TimeOfDay)
	if err != nil {
		return nil, common.ErrTypeConversion("hour", err)
	}

	seq, err := strconv.Atoi(f.SequenceNumber)
	if err != nil {
		return nil, common.ErrTypeConversion("nr_z", err)
	}

	date, err := ParseWireDate(f.Date)
	if err != nil {
		return nil, common.ErrTypeConversion("DATA", err)
	}

	rec := &Record{
		DeviceID:       deviceID,
		TimeOfDay:      tod,
		SequenceNumber: seq,
		Date:           date,
	}
	if f.ReceiptNumber != nil {
		nr := *f.ReceiptNumber
		rec.ReceiptNumber = &nr
	}
	return rec, nil
}

// SerializeValue renders a date or time-of-day value in its wire string
// form. Any other type is rejected.
func SerializeValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case time.Time:
		return val.Format(WireDateLayout), nil
	case TimeOfDay:
		return val.String(), nil
	default:
		return "", fmt.Errorf("type %T not serializable", v)
	}
}

// WireDocument emits the JSON/BSON-compatible document for a normalized
// record, the form the parsed collections store: integers stay integers,
// date and time-of-day values are serialized back to wire strings.
func (r *Record) WireDocument() (bson.M, error) {
	dateStr, err := SerializeValue(r.Date)
	if err != nil {
		return nil, err
	}
	hourStr, err := SerializeValue(r.TimeOfDay)
	if err != nil {
		return nil, err
	}

	doc := bson.M{
		"nui":  r.DeviceID,
		"hour": hourStr,
		"nr_z": r.SequenceNumber,
		"DATA": dateStr,
	}
	if r.ReceiptNumber != nil {
		doc["nr_bon"] = *r.ReceiptNumber
	}
	return doc, nil
}

// PadSequence renders a sequence number back to its 4-digit wire form.
func PadSequence(seq int) string {
	return fmt.Sprintf("%04d", seq)
}

// PadDeviceID renders a device identifier back to its 10-digit wire form.
func PadDeviceID(id int64) string {
	return fmt.Sprintf("%010d", id)
}
