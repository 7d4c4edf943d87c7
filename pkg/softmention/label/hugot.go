package label

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/cognicore/softmention/pkg/softmention/mention"
)

// tokenClassifier is the part of the hugot pipeline the labeler uses.
type tokenClassifier interface {
	RunPipeline(inputs []string) (*pipelines.TokenClassificationOutput, error)
}

// HugotLabeler runs an ONNX token classification model through hugot and
// projects the predicted character spans back onto tokens.
type HugotLabeler struct {
	session  *hugot.Session
	pipeline tokenClassifier
}

// PrepareModel returns the local path of modelName under modelDir,
// downloading the model first if needed.
func PrepareModel(modelName, modelDir string) (string, error) {
	modelPath := filepath.Join(modelDir, filepath.Base(modelName))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !os.IsNotExist(err) {
		return "", err
	}

	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}
	downloadOptions := hugot.NewDownloadOptions()
	downloadOptions.OnnxFilePath = "onnx/model.onnx"
	downloadedPath, err := hugot.DownloadModel(modelName, modelDir, downloadOptions)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return downloadedPath, nil
}

// NewHugotLabeler loads the model at modelPath. Close releases it.
func NewHugotLabeler(modelPath string) (*HugotLabeler, error) {
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "software-mentions",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{Outside}),
		},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create token classification pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create token classification pipeline: %w", err)
	}

	return &HugotLabeler{session: session, pipeline: pipeline}, nil
}

// Label classifies the text covered by tokens.
func (h *HugotLabeler) Label(ctx context.Context, tokens []mention.Token) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	result, err := h.pipeline.RunPipeline([]string{mention.TokensText(tokens)})
	if err != nil {
		return nil, fmt.Errorf("failed to run token classification: %w", err)
	}
	if len(result.Entities) == 0 {
		return outside(len(tokens)), nil
	}

	spans := make([]predicted, 0, len(result.Entities[0]))
	for _, e := range result.Entities[0] {
		spans = append(spans, predicted{
			kind: mention.ParseKind(e.Entity),
			span: mention.Span{Start: int(e.Start), End: int(e.End)},
		})
	}
	return project(tokens, spans), nil
}

// Close releases the hugot session.
func (h *HugotLabeler) Close() error {
	if h.session == nil {
		return nil
	}
	return h.session.Destroy()
}

// predicted is a labeled span relative to the start of the labeled text.
type predicted struct {
	kind mention.Kind
	span mention.Span
}

// project turns predicted spans into per-token labels. A token takes the
// kind of the first span it overlaps; the first token of each span gets a
// "B-" label.
func project(tokens []mention.Token, spans []predicted) []string {
	labels := outside(len(tokens))
	if len(tokens) == 0 {
		return labels
	}
	base := tokens[0].Offset

	for _, p := range spans {
		if p.kind == mention.KindOther || p.span.Len() <= 0 {
			continue
		}
		first := true
		for i, tok := range tokens {
			rel := mention.Span{Start: tok.Offset - base, End: tok.End() - base}
			if !rel.Overlaps(p.span) || labels[i] != Outside {
				continue
			}
			if tok.IsSpace() && first {
				continue
			}
			if first {
				labels[i] = Begin(p.kind)
				first = false
			} else {
				labels[i] = Inside(p.kind)
			}
		}
	}
	return labels
}
