package docModel

// Document is the raw uploaded loan disclosure. It is built once at ingestion
// and discarded after segmentation.
type Document struct {
	Id        string `json:"document_id"`
	Name      string `json:"document_name"`
	MediaType string `json:"media_type"`
	PageCount int    `json:"page_count"`
	Content   []byte `json:"-"`
}

// Chunk is a page-bounded sub-document sent to the recognition backend as one
// unit. FromPage/ToPage are inclusive and 1-based over the source document.
type Chunk struct {
	Index    int    `json:"index"`
	FromPage int    `json:"from_page"`
	ToPage   int    `json:"to_page"`
	Content  []byte `json:"-"`
}

func (c Chunk) PageCount() int {
	return c.ToPage - c.FromPage + 1
}

// Entity is a typed span recognized by the backend. Page references are
// chunk-local until the aggregator rewrites them to document-global numbers.
// Types outside the known set are carried through and ignored by the fusion
// engine.
type Entity struct {
	Type            string           `json:"type"`
	MentionText     string           `json:"mentionText"`
	NormalizedValue *NormalizedValue `json:"normalizedValue,omitempty"`
	Confidence      float64          `json:"confidence"`
	PageRefs        []int            `json:"pageRefs,omitempty"`
}

// NormalizedValue is the backend's machine-readable form of an entity. At
// most one branch is set.
type NormalizedValue struct {
	Money *MoneyValue `json:"moneyValue,omitempty"`
	Date  *DateValue  `json:"dateValue,omitempty"`
	Text  string      `json:"text,omitempty"`
}

type MoneyValue struct {
	Units        int64  `json:"units"`
	Nanos        int32  `json:"nanos"`
	CurrencyCode string `json:"currencyCode"`
}

func (m MoneyValue) Amount() float64 {
	return float64(m.Units) + float64(m.Nanos)/1e9
}

type DateValue struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// RecognitionResult is one chunk's outcome. Err is nil exactly when Success
// is true.
type RecognitionResult struct {
	ChunkIndex int
	Success    bool
	Entities   []Entity
	Text       string
	Err        error
}

// AggregatedDocument is the document-level merge of all chunk results: text
// joined in chunk order and entities with corrected page references. Built
// once per run; read-only input to the fusion engine.
type AggregatedDocument struct {
	Text     string
	Entities []Entity
}

// FieldValue is one normalized output field. Source identifies the evidence
// mechanism: "entity:<type>" or "pattern:<rule>".
type FieldValue struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// Canonical field keys of the extracted record.
const (
	FieldPrincipal      = "principal"
	FieldTermMonths     = "term_months"
	FieldNominalRate    = "nominal_rate"
	FieldAPR            = "apr"
	FieldMonthlyPayment = "monthly_payment"
	FieldReferenceIndex = "reference_index"
	FieldSpread         = "spread"
	FieldAmortization   = "amortization_system"
	FieldBonifications  = "bonifications"
	FieldOpeningFee     = "opening_fee"
	FieldExpenses       = "expenses"
	FieldOfferDate      = "offer_date"
	FieldValidityDate   = "validity_date"
	FieldDebitAccount   = "debit_account"
)

// ExtractionResult is the final record for one document run.
type ExtractionResult struct {
	DocumentId       string                `json:"document_id"`
	Provider         string                `json:"provider"`
	Fields           map[string]FieldValue `json:"fields"`
	GlobalConfidence float64               `json:"global_confidence"`
	PendingFields    []string              `json:"pending_fields,omitempty"`
	Warnings         []string              `json:"warnings,omitempty"`
	RateType         string                `json:"rate_type,omitempty"`
}
