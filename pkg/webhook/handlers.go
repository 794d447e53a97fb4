package webhook

import "github.com/xtergo/dnaresearch/pkg/apperr"

// Handler processes one admitted Event and returns the annotation to
// merge into Event.Result, or an error to trigger the retry path.
type Handler func(event *Event) (map[string]any, error)

// defaultHandlers implements the behavior for each partner event type:
// sequencing completion, QC completion, analysis completion, upload
// completion, and error notification.
func defaultHandlers() map[EventType]Handler {
	return map[EventType]Handler{
		EventSequencingComplete: handleSequencingComplete,
		EventQCComplete:         handleQCComplete,
		EventAnalysisComplete:   handleAnalysisComplete,
		EventUploadComplete:     handleUploadComplete,
		EventErrorNotification:  handleErrorNotification,
	}
}

func handleSequencingComplete(e *Event) (map[string]any, error) {
	sampleID, ok := e.Data["sample_id"]
	if !ok {
		return nil, apperr.New(apperr.Validation, "sequencing_complete event requires sample_id")
	}
	return map[string]any{
		"sample_id":       sampleID,
		"processed_files": e.Data["processed_files"],
		"next_step":       "quality_control",
	}, nil
}

func handleQCComplete(e *Event) (map[string]any, error) {
	metrics, _ := e.Data["qc_metrics"].(map[string]any)
	passed, _ := metrics["passed"].(bool)
	nextStep := "resequencing_required"
	if passed {
		nextStep = "variant_calling"
	}
	return map[string]any{
		"quality_score": metrics["quality_score"],
		"coverage":      metrics["coverage"],
		"next_step":     nextStep,
	}, nil
}

func handleAnalysisComplete(e *Event) (map[string]any, error) {
	count, _ := e.Data["variant_count"].(float64)
	quality := "standard"
	if count > 1000 {
		quality = "high"
	}
	return map[string]any{
		"analysis_quality": quality,
		"next_step":        "report_generation",
	}, nil
}

func handleUploadComplete(e *Event) (map[string]any, error) {
	return map[string]any{
		"upload_verified":  true,
		"checksum_matches": e.Data["checksum_matches"],
		"next_step":        "file_processing",
	}, nil
}

func handleErrorNotification(e *Event) (map[string]any, error) {
	severity, _ := e.Data["severity"].(string)
	requiresAttention := severity == "high" || severity == "critical"
	return map[string]any{
		"requires_attention": requiresAttention,
	}, nil
}
