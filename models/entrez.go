package models

// EntrezPmid ist eine denormalisierte Gen-Annotation: welcher Artikel (pmid)
// wurde in Entrez für welches Gen annotiert. uniprot_id und hgnc_id werden
// einmalig beim Build aus der entrez_id abgeleitet.
type EntrezPmid struct {
	ID        int64  `json:"id" gorm:"column:id;primaryKey"`
	TaxonID   int64  `json:"taxon_id" gorm:"column:taxon_id"`
	EntrezID  int64  `json:"entrez_id" gorm:"column:entrez_id"`
	UniprotID string `json:"uniprot_id,omitempty" gorm:"column:uniprot_id"`
	HGNCID    *int64 `json:"hgnc_id,omitempty" gorm:"column:hgnc_id"`
	PMID      int64  `json:"pmid" gorm:"column:pmid"`
}

// TableName gibt explizit den Tabellennamen an.
func (EntrezPmid) TableName() string {
	return "entrez_pmids"
}
