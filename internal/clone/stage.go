package clone

// Stage names a step of an export or import run.
type Stage string

const (
	StageDumping    Stage = "DUMPING"
	StageUploading  Stage = "UPLOADING"
	StageSourceDone Stage = "SOURCE_DONE"

	StageDownloading       Stage = "DOWNLOADING"
	StageSchemaRewrite     Stage = "SCHEMA_REWRITE"
	StageIdentifierRewrite Stage = "IDENTIFIER_REWRITE"
	StageDBRestore         Stage = "DB_RESTORE"
	StageTenantRowInsert   Stage = "TENANT_ROW_INSERT"
	StageFilesRestore      Stage = "FILES_RESTORE"
	StageRestoreDone       Stage = "RESTORE_DONE"
)

var (
	ExportStages = []Stage{StageDumping, StageUploading, StageSourceDone}
	ImportStages = []Stage{
		StageDownloading,
		StageSchemaRewrite,
		StageIdentifierRewrite,
		StageDBRestore,
		StageTenantRowInsert,
		StageFilesRestore,
		StageRestoreDone,
	}
)
