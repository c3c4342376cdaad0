package models

// PmidTextRef verknüpft die interne Dokument-ID (text_ref_id) mit der
// externen PubMed-ID. Nicht jedes Dokument hat eine PMID.
type PmidTextRef struct {
	TextRefID int64  `json:"text_ref_id" gorm:"column:text_ref_id;primaryKey"`
	PMID      *int64 `json:"pmid,omitempty" gorm:"column:pmid"`
}

// TableName gibt explizit den Tabellennamen an.
func (PmidTextRef) TableName() string {
	return "pmid_text_refs"
}

// AgentText repräsentiert einen rohen Agent-Text (Entitätserwähnung) aus
// einer Reader-Extraktion, zurückverlinkt auf das Quelldokument.
type AgentText struct {
	ID        int64  `json:"id" gorm:"column:id;primaryKey"`
	AgentText string `json:"agent_text" gorm:"column:agent_text"`
	TextRefID int64  `json:"text_ref_id" gorm:"column:text_ref_id"`
}

// TableName gibt explizit den Tabellennamen an.
func (AgentText) TableName() string {
	return "agent_texts"
}
