package models

// TextType klassifiziert ein Text-Payload nach absteigender Inhaltstiefe.
const (
	TextTypeFulltext = "fulltext"
	TextTypeAbstract = "abstract"
	TextTypeTitle    = "title"
)

// FulltextSourcePriority ordnet Volltext-Quellen nach Verlässlichkeit.
// Kleinerer Index gewinnt; unbekannte Quellen rangieren dahinter.
var FulltextSourcePriority = []string{
	"pmc_oa",
	"manuscripts",
	"cord19_pmc_xml",
	"elsevier",
	"cord19_pdf",
}

// AbstractSourcePriority ordnet Abstract-Quellen nach Verlässlichkeit.
var AbstractSourcePriority = []string{
	"pubmed",
	"cord19_abstract",
}

// CandidateText repräsentiert eine Zeile der Staging-Tabelle text_content:
// ein Text-Payload, das mit anderen um die Repräsentation eines Dokuments
// konkurriert. Die IDs stammen aus der Upstream-Datenbank und werden nie
// dokumentübergreifend wiederverwendet.
type CandidateText struct {
	ID        int64  `json:"id" gorm:"column:id;primaryKey"`
	TextRefID int64  `json:"text_ref_id" gorm:"column:text_ref_id"`
	TextType  string `json:"text_type" gorm:"column:text_type"`
	Source    string `json:"source" gorm:"column:source"`
	Content   string `json:"content" gorm:"column:content"`
}

// TableName gibt explizit den Tabellennamen an.
func (CandidateText) TableName() string {
	return "text_content"
}

// BestContent repräsentiert den pro Dokument ausgewählten Gewinner-Text.
// Content ist ein JSON-Array von Absatz-Strings, optional zlib-komprimiert
// als BLOB abgelegt. TextContentID2 ist nur bei kombinierten
// Titel+Abstract-Zeilen gesetzt.
type BestContent struct {
	ID             int64  `json:"id" gorm:"column:id;primaryKey"`
	TextRefID      int64  `json:"text_ref_id" gorm:"column:text_ref_id"`
	TextContentID1 int64  `json:"text_content_id1" gorm:"column:text_content_id1"`
	TextContentID2 *int64 `json:"text_content_id2,omitempty" gorm:"column:text_content_id2"`
	TextType       string `json:"text_type" gorm:"column:text_type"`
	Content        []byte `json:"content" gorm:"column:content"`
}

// TableName gibt explizit den Tabellennamen an.
func (BestContent) TableName() string {
	return "best_content"
}
