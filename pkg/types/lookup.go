package types

import (
	"errors"
	"fmt"
)

// Lookup describes one staging/promotion pipeline: a master lookup table,
// its staging table, and the source table whose observations feed intake.
// Items, brands, and products are all instances of this one shape; they
// differ only in table and column names, which come from configuration.
type Lookup struct {
	Key string `json:"key" yaml:"key"`

	// Master lookup table.
	MasterTable        string `json:"master_table" yaml:"master_table"`
	IDColumn           string `json:"id_column" yaml:"id_column"`
	NameColumn         string `json:"name_column" yaml:"name_column"`
	CanonicalColumn    string `json:"canonical_column" yaml:"canonical_column"`
	ActiveColumn       string `json:"active_column" yaml:"active_column"`
	PromotedFlagColumn string `json:"promoted_flag_column" yaml:"promoted_flag_column"`
	NotesColumn        string `json:"notes_column" yaml:"notes_column"`

	// Human-readable sequential identifier; optional. The counter key
	// names the sequence in the counter store.
	HumanIDColumn string `json:"human_id_column" yaml:"human_id_column"`
	HumanIDPrefix string `json:"human_id_prefix" yaml:"human_id_prefix"`
	HumanIDPad    int    `json:"human_id_pad" yaml:"human_id_pad"`
	CounterKey    string `json:"counter_key" yaml:"counter_key"`

	// Staging table.
	StagingTable          string `json:"staging_table" yaml:"staging_table"`
	StagingIDColumn       string `json:"staging_id_column" yaml:"staging_id_column"`
	CanonicalNameColumn   string `json:"canonical_name_column" yaml:"canonical_name_column"`
	EnteredNameColumn     string `json:"entered_name_column" yaml:"entered_name_column"`
	ApprovedNameColumn    string `json:"approved_name_column" yaml:"approved_name_column"`
	ApprovedColumn        string `json:"approved_column" yaml:"approved_column"`
	LookupPromotedColumn  string `json:"lookup_promoted_column" yaml:"lookup_promoted_column"`
	MappedIDColumn        string `json:"mapped_id_column" yaml:"mapped_id_column"`
	ReviewStatusColumn    string `json:"review_status_column" yaml:"review_status_column"`
	StagingNotesColumn    string `json:"staging_notes_column" yaml:"staging_notes_column"`

	// Source table feeding intake. Each source row carries its own
	// identifier, a column where the resolved master identifier lands,
	// the name as entered, and (optionally) a pre-normalized canonical
	// name. When the canonical column is absent or blank the canonical
	// form is derived from the entered name.
	SourceTable           string `json:"source_table" yaml:"source_table"`
	SourceIDColumn        string `json:"source_id_column" yaml:"source_id_column"`
	SourceNameColumn      string `json:"source_name_column" yaml:"source_name_column"`
	SourceCanonicalColumn string `json:"source_canonical_column" yaml:"source_canonical_column"`
	SourceMappedColumn    string `json:"source_mapped_column" yaml:"source_mapped_column"`
}

// Review status values written by intake and promotion.
const (
	ReviewPending  = "Pending"
	ReviewPromoted = "Promoted"
)

// Lookup validation errors.
var (
	ErrLookupKeyEmpty   = errors.New("lookup key must not be empty")
	ErrLookupTableEmpty = errors.New("lookup table name must not be empty")
	ErrLookupNotFound   = errors.New("lookup not found")
)

// Validate checks the fields every workflow depends on. Optional pieces
// (human ids, source table) are validated by the workflows that use them.
func (l Lookup) Validate() error {
	if l.Key == "" {
		return ErrLookupKeyEmpty
	}
	for _, t := range []string{l.MasterTable, l.StagingTable} {
		if t == "" {
			return fmt.Errorf("lookup %s: %w", l.Key, ErrLookupTableEmpty)
		}
	}
	return nil
}

// HasHumanID reports whether this lookup assigns human-readable ids.
func (l Lookup) HasHumanID() bool {
	return l.HumanIDColumn != "" && l.CounterKey != ""
}

// MasterColumns returns the header of a freshly created master table.
func (l Lookup) MasterColumns() []string {
	cols := []string{l.IDColumn}
	if l.HumanIDColumn != "" {
		cols = append(cols, l.HumanIDColumn)
	}
	return append(cols, l.NameColumn, l.CanonicalColumn, l.ActiveColumn, l.PromotedFlagColumn, l.NotesColumn)
}

// StagingColumns returns the header of a freshly created staging table.
func (l Lookup) StagingColumns() []string {
	return []string{
		l.StagingIDColumn, l.CanonicalNameColumn, l.EnteredNameColumn,
		l.ApprovedNameColumn, l.ApprovedColumn, l.LookupPromotedColumn,
		l.MappedIDColumn, l.ReviewStatusColumn, l.StagingNotesColumn,
	}
}

// SourceColumns returns the columns this lookup expects on its source
// table, beyond whatever the source table defines for itself.
func (l Lookup) SourceColumns() []string {
	cols := []string{l.SourceIDColumn, l.SourceNameColumn}
	if l.SourceCanonicalColumn != "" {
		cols = append(cols, l.SourceCanonicalColumn)
	}
	return append(cols, l.SourceMappedColumn)
}

// EntryTable describes the transaction-grain raw entry table. The natural
// key is the full KeyColumns tuple; the derived identifier is present iff
// every natural-key field is present.
type EntryTable struct {
	Table          string   `json:"table" yaml:"table"`
	IDColumn       string   `json:"id_column" yaml:"id_column"`
	KeyColumns     []string `json:"key_columns" yaml:"key_columns"`
	QuantityColumn string   `json:"quantity_column" yaml:"quantity_column"`
	PriceColumn    string   `json:"price_column" yaml:"price_column"`
	ItemColumn     string   `json:"item_column" yaml:"item_column"`
	DateColumn     string   `json:"date_column" yaml:"date_column"`
}

// Columns returns the header of a freshly created entry table: the
// identifier column followed by the natural-key columns.
func (t EntryTable) Columns() []string {
	return append([]string{t.IDColumn}, t.KeyColumns...)
}

// EvalTable describes the price evaluation log maintained by the upsert
// workflow: one row per canonical item name.
type EvalTable struct {
	Table              string `json:"table" yaml:"table"`
	ItemColumn         string `json:"item_column" yaml:"item_column"`
	LastPriceColumn    string `json:"last_price_column" yaml:"last_price_column"`
	LastDateColumn     string `json:"last_date_column" yaml:"last_date_column"`
	ObservationsColumn string `json:"observations_column" yaml:"observations_column"`
	UpdatedAtColumn    string `json:"updated_at_column" yaml:"updated_at_column"`
}

// DefaultLookups returns the built-in item/brand/product pipelines. Config
// may override or extend them.
func DefaultLookups() []Lookup {
	base := func(key, master, staging, source, id, mapped, srcName, srcCanonical, prefix string) Lookup {
		return Lookup{
			Key:                key,
			MasterTable:        master,
			IDColumn:           id,
			NameColumn:         "name",
			CanonicalColumn:    "canonical_name",
			ActiveColumn:       "is_active",
			PromotedFlagColumn: "is_staging_promoted",
			NotesColumn:        "notes",
			HumanIDColumn:      "human_id",
			HumanIDPrefix:      prefix,
			HumanIDPad:         6,
			CounterKey:         key,

			StagingTable:         staging,
			StagingIDColumn:      "staging_id",
			CanonicalNameColumn:  "canonical_name",
			EnteredNameColumn:    "entered_name",
			ApprovedNameColumn:   "approved_name",
			ApprovedColumn:       "is_approved",
			LookupPromotedColumn: "is_lookup_promoted",
			MappedIDColumn:       mapped,
			ReviewStatusColumn:   "review_status",
			StagingNotesColumn:   "notes",

			SourceTable:           source,
			SourceIDColumn:        "entry_id",
			SourceNameColumn:      srcName,
			SourceCanonicalColumn: srcCanonical,
			SourceMappedColumn:    mapped,
		}
	}

	items := base("items", "Items", "Items_Staging", "Entries", "item_id", "item_id", "item", "canonical_item", "ITM-")
	products := base("products", "Products", "Products_Staging", "Entries", "product_id", "product_id", "product", "canonical_product", "PRD-")
	brands := base("brands", "Brands", "Brands_Staging", "Products", "brand_id", "brand_id", "brand", "canonical_brand", "BRD-")
	brands.SourceIDColumn = "product_id"

	return []Lookup{items, brands, products}
}

// DefaultEntryTable returns the built-in raw entry table definition.
func DefaultEntryTable() EntryTable {
	return EntryTable{
		Table:          "Entries",
		IDColumn:       "entry_id",
		KeyColumns:     []string{"date", "item", "quantity", "unit", "unit_price"},
		QuantityColumn: "quantity",
		PriceColumn:    "unit_price",
		ItemColumn:     "item",
		DateColumn:     "date",
	}
}

// DefaultEvalTable returns the built-in price evaluation log definition.
func DefaultEvalTable() EvalTable {
	return EvalTable{
		Table:              "Price_Log",
		ItemColumn:         "item",
		LastPriceColumn:    "last_price",
		LastDateColumn:     "last_date",
		ObservationsColumn: "observations",
		UpdatedAtColumn:    "updated_at",
	}
}
