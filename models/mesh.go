package models

import (
	"fmt"
	"strconv"
)

// MeshPmid repräsentiert eine MeSH-Annotation eines Artikels in kompakter
// numerischer Form (siehe MeshIDToNum). major_topic markiert die Annotation
// als Hauptthema des Artikels.
type MeshPmid struct {
	MeshNum    int64 `json:"mesh_num" gorm:"column:mesh_num"`
	IsConcept  int   `json:"is_concept" gorm:"column:is_concept"`
	MajorTopic int   `json:"major_topic" gorm:"column:major_topic"`
	PMIDNum    int64 `json:"pmid_num" gorm:"column:pmid_num"`
}

// TableName gibt explizit den Tabellennamen an.
func (MeshPmid) TableName() string {
	return "mesh_pmids"
}

// MeshXref verknüpft ein MeSH-Heading mit einem externen Ontologie-Identifier
// (Curie der Form "namespace:local_id").
type MeshXref struct {
	ID        int64  `json:"id" gorm:"column:id;primaryKey"`
	MeshNum   int64  `json:"mesh_num" gorm:"column:mesh_num"`
	IsConcept int    `json:"is_concept" gorm:"column:is_concept"`
	Curie     string `json:"curie" gorm:"column:curie"`
}

// TableName gibt explizit den Tabellennamen an.
func (MeshXref) TableName() string {
	return "mesh_xrefs"
}

// MeshIDToNum bildet eine textuelle MeSH-ID (z.B. "D018599") auf die interne
// numerische Form ab: die Ziffern ohne führende Nullen plus ein Flag, ob es
// sich um ein Supplementary Concept ('C') oder einen Descriptor ('D') handelt.
// is_concept ist int statt bool, damit der Wert beim Tabellen-Transfer nicht
// zu "true"/"false" wird. IDs mit anderem Präfix oder nicht-numerischem Rest
// werden nicht unterstützt: ok ist dann false, es wird nie ein Fehler geworfen.
func MeshIDToNum(meshID string) (meshNum int64, isConcept int, ok bool) {
	if len(meshID) < 2 {
		return 0, 0, false
	}
	switch meshID[0] {
	case 'C':
		isConcept = 1
	case 'D':
		isConcept = 0
	default:
		return 0, 0, false
	}
	num, err := strconv.ParseInt(meshID[1:], 10, 64)
	if err != nil || num < 0 {
		return 0, 0, false
	}
	return num, isConcept, true
}

// MeshNumToID bildet das Paar (mesh_num, is_concept) zurück auf die textuelle
// MeSH-ID. Die Breite der Nullauffüllung folgt einem empirischen Schwellwert
// pro Präfix (Descriptor: 6-stellig unter 66332, sonst 9; Concept: 6-stellig
// unter 588418, sonst 9) und rekonstruiert damit die zum Build-Zeitpunkt
// beobachteten IDs; eine garantierte Bijektion für alle historischen IDs ist
// das nicht.
func MeshNumToID(meshNum int64, isConcept int) string {
	prefix := "D"
	threshold := int64(66332)
	if isConcept != 0 {
		prefix = "C"
		threshold = 588418
	}
	width := 6
	if meshNum >= threshold {
		width = 9
	}
	return fmt.Sprintf("%s%0*d", prefix, width, meshNum)
}
