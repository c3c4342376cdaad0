package medline

// XML-Strukturen für die MEDLINE/PubMed-Baseline-Dateien. Es wird nur der
// Ausschnitt abgebildet, den die MeSH-Extraktion braucht.

// PubmedArticleSet ist das Wurzelelement jeder Baseline-Datei.
type PubmedArticleSet struct {
	Articles []PubmedArticle `xml:"PubmedArticle"`
}

// PubmedArticle enthält die Zitation eines einzelnen Artikels.
type PubmedArticle struct {
	Citation MedlineCitation `xml:"MedlineCitation"`
}

// MedlineCitation trägt die PMID und die MeSH-Annotationen.
type MedlineCitation struct {
	PMID         string          `xml:"PMID"`
	MeshHeadings []MeshHeading   `xml:"MeshHeadingList>MeshHeading"`
	Chemicals    []Chemical      `xml:"ChemicalList>Chemical"`
	SupplMesh    []SupplMeshName `xml:"SupplMeshList>SupplMeshName"`
}

// MeshHeading ist ein Deskriptor mit optionalen Qualifiern.
type MeshHeading struct {
	Descriptor DescriptorName  `xml:"DescriptorName"`
	Qualifiers []QualifierName `xml:"QualifierName"`
}

// DescriptorName ist ein MeSH-Deskriptor (D-Terme).
type DescriptorName struct {
	UI           string `xml:"UI,attr"`
	MajorTopicYN string `xml:"MajorTopicYN,attr"`
	Name         string `xml:",chardata"`
}

// QualifierName ist ein Qualifier eines Deskriptors.
type QualifierName struct {
	UI           string `xml:"UI,attr"`
	MajorTopicYN string `xml:"MajorTopicYN,attr"`
	Name         string `xml:",chardata"`
}

// Chemical verweist über NameOfSubstance auf Supplementary-Concept-Records
// (C-Terme).
type Chemical struct {
	Substance SubstanceName `xml:"NameOfSubstance"`
}

// SubstanceName ist der UI-tragende Name einer Substanz.
type SubstanceName struct {
	UI   string `xml:"UI,attr"`
	Name string `xml:",chardata"`
}

// SupplMeshName ist ein Supplementary-Concept-Eintrag der Zitation.
type SupplMeshName struct {
	UI   string `xml:"UI,attr"`
	Name string `xml:",chardata"`
}
