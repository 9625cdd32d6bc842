package bus

// Subjects consumed by the analysis workers.
const (
	SubjectEmbedUpsert = "embed.upsert"
	SubjectClusterRun  = "cluster.run"
	SubjectLabelRun    = "label.run"
	SubjectSummaryMake = "summary.make"
	SubjectBundleMake  = "bundle.make"
	SubjectExportMake  = "export.make"
)

// DefaultBundleSize is used when a bundle request does not name k.
const DefaultBundleSize = 10

type ProjectMessage struct {
	ProjectID string `json:"projectId"`
}

type SummaryMessage struct {
	ThemeID string `json:"themeId"`
}

type BundleMessage struct {
	ThemeID   string `json:"themeId"`
	ProjectID string `json:"projectId"`
	K         int    `json:"k"`
}

type ExportMessage struct {
	ProjectID string `json:"projectId"`
	Type      string `json:"type"`
}
