package entity

import "go.mongodb.org/mongo-driver/bson/primitive"

// The collections keep their historical Romanian field names; these types
// are the declared schema for each one (no runtime field sniffing in the
// core). Raw collections store every value as a string, the way the
// ingestion side writes them.

// Organization is one merchant, keyed by its fiscal tax code (CUI).
// Collection: ECR.firma.
type Organization struct {
	TaxCode string `bson:"_id" json:"_id"`
	Name    string `bson:"nume" json:"nume"`
}

// DeviceRegistration links a fiscal device (NUI) to an organization by
// name. Collection: ECR.nui.
type DeviceRegistration struct {
	DeviceID         string `bson:"_id" json:"_id"`
	OrganizationName string `bson:"firma" json:"firma"`
}

// DailySummary is a raw Z-report document keyed by its encoded identifier.
// Collection: ECR.bon_zilnic.
type DailySummary struct {
	ID             string `bson:"_id" json:"_id"`
	Date           string `bson:"DATA" json:"DATA"`
	Time           string `bson:"ORA,omitempty" json:"ORA,omitempty"`
	SequenceNumber string `bson:"nr" json:"nr"`
	ReceiptCount   string `bson:"nr_bonuri" json:"nr_bonuri"`
	TotalSales     string `bson:"total_vanzari,omitempty" json:"total_vanzari,omitempty"`
	TotalA         string `bson:"total_a,omitempty" json:"total_a,omitempty"`
	TotalB         string `bson:"total_b,omitempty" json:"total_b,omitempty"`
	TotalC         string `bson:"total_c,omitempty" json:"total_c,omitempty"`
	TotalD         string `bson:"total_d,omitempty" json:"total_d,omitempty"`
	Cash           string `bson:"numerar,omitempty" json:"numerar,omitempty"`
	Card           string `bson:"card,omitempty" json:"card,omitempty"`
}

// DailySummaryParsed is the decoded counterpart of a DailySummary,
// rebuilt from the encoded identifier. Collection: ECR.bon_zilnic.parsed.
type DailySummaryParsed struct {
	DeviceID       int64  `bson:"nui" json:"nui"`
	TimeOfDay      string `bson:"hour" json:"hour"`
	SequenceNumber int    `bson:"nr_z" json:"nr_z"`
	Date           string `bson:"DATA" json:"DATA"`
	Timestamp      int64  `bson:"timestamp,omitempty" json:"timestamp,omitempty"`
}

// Receipt is one raw fiscal receipt keyed by its encoded identifier.
// Collection: ECR.bon.
type Receipt struct {
	ID             string `bson:"_id" json:"_id"`
	Date           string `bson:"DATA" json:"DATA"`
	Time           string `bson:"ORA,omitempty" json:"ORA,omitempty"`
	SequenceNumber string `bson:"Z" json:"Z"`
	ReceiptNumber  string `bson:"BF" json:"BF"`
	Total          string `bson:"total,omitempty" json:"total,omitempty"`
	TotalA         string `bson:"totA,omitempty" json:"totA,omitempty"`
	TotalB         string `bson:"totB,omitempty" json:"totB,omitempty"`
	TotalC         string `bson:"totC,omitempty" json:"totC,omitempty"`
	TotalD         string `bson:"totD,omitempty" json:"totD,omitempty"`
}

// LineItem is one product line on a receipt, linked by the receipt's
// encoded identifier. Collection: ECR.produs.
type LineItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	ReceiptID   string             `bson:"bon_id" json:"bon_id"`
	ProductName string             `bson:"nume" json:"nume"`
	Quantity    string             `bson:"cantitate" json:"cantitate"`
	Value       string             `bson:"valoare" json:"valoare"`
	TaxRate     string             `bson:"cota" json:"cota"`
}

// AggregateProduct is the product slice of an aggregate record.
type AggregateProduct struct {
	Name     string `bson:"nume" json:"nume"`
	Quantity string `bson:"cantitate" json:"cantitate"`
	Value    string `bson:"valoare" json:"valoare"`
	TaxRate  string `bson:"cota" json:"cota"`
}

// AggregateRecord is the denormalized join of organization, device, daily
// summary, receipt and line item. Collection: ECR.aggregated (append-only,
// one document per line item per run).
type AggregateRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	TaxCode        string             `bson:"cui" json:"cui"`
	DeviceID       string             `bson:"nui" json:"nui"`
	Date           string             `bson:"DATA" json:"DATA"`
	SequenceNumber string             `bson:"nr_z" json:"nr_z"`
	ReceiptNumber  string             `bson:"nr_bon" json:"nr_bon"`
	Product        AggregateProduct   `bson:"produs" json:"produs"`
}
