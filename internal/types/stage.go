package types

// Stage names a step of a clip pipeline or of finalization. A failed
// pipeline is reported as a *JobError holding the stage it failed in.
type Stage string

const (
	StageDetecting  Stage = "detecting"
	StageParsing    Stage = "parsing"
	StageSelecting  Stage = "selecting"
	StageExtracting Stage = "extracting"
	StageDone       Stage = "done"

	StageCombining  Stage = "combining"
	StageReencoding Stage = "re-encoding"
)

func (s Stage) String() string { return string(s) }
