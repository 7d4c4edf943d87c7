package label

import (
	"context"
	"errors"
	"testing"

	"github.com/knights-analytics/hugot/pipelines"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/softmention/pkg/softmention/ingest"
	"github.com/cognicore/softmention/pkg/softmention/mention"
)

func TestGazetteer(t *testing.T) {
	tok := ingest.NewTokenizer()
	g := NewGazetteer(tok, []string{"SPSS Statistics", "R"})
	assert.Equal(t, 2, g.Len())

	tokens := tok.Tokenize("We used SPSS Statistics and R.")
	labels, err := g.Label(context.Background(), tokens)
	require.NoError(t, err)
	require.Len(t, labels, len(tokens))

	got := map[string]string{}
	for i, l := range labels {
		if l != Outside {
			got[tokens[i].Text] = l
		}
	}
	assert.Equal(t, map[string]string{
		"SPSS":       "B-software",
		" ":          "I-software",
		"Statistics": "I-software",
		"R":          "B-software",
	}, got)

	t.Run("Cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := g.Label(ctx, tokens)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFunc(t *testing.T) {
	boom := errors.New("model unavailable")
	var l Labeler = Func(func(context.Context, []mention.Token) ([]string, error) {
		return nil, boom
	})
	_, err := l.Label(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}

type fakeClassifier struct {
	entities []pipelines.Entity
	err      error
	inputs   []string
}

func (f *fakeClassifier) RunPipeline(inputs []string) (*pipelines.TokenClassificationOutput, error) {
	f.inputs = inputs
	if f.err != nil {
		return nil, f.err
	}
	return &pipelines.TokenClassificationOutput{Entities: [][]pipelines.Entity{f.entities}}, nil
}

func TestHugotLabeler(t *testing.T) {
	tok := ingest.NewTokenizer()
	// tokens carry document offsets; the model sees offsets from 0
	tokens := tok.TokenizeAt("ImageJ 1.52 from NIH", 100, 1)

	fake := &fakeClassifier{entities: []pipelines.Entity{
		{Entity: "SOFTWARE", Word: "ImageJ", Start: 0, End: 6},
		{Entity: "VERSION", Word: "1.52", Start: 7, End: 11},
		{Entity: "CREATOR", Word: "NIH", Start: 17, End: 20},
	}}
	h := &HugotLabeler{pipeline: fake}

	labels, err := h.Label(context.Background(), tokens)
	require.NoError(t, err)
	assert.Equal(t, []string{"ImageJ 1.52 from NIH"}, fake.inputs)

	byText := func(text string) []string {
		var out []string
		for i, tk := range tokens {
			if tk.Text == text {
				out = append(out, labels[i])
			}
		}
		return out
	}
	assert.Equal(t, []string{"B-software"}, byText("ImageJ"))
	assert.Equal(t, []string{"B-version"}, byText("1"))
	assert.Equal(t, []string{"I-version"}, byText("."))
	assert.Equal(t, []string{"I-version"}, byText("52"))
	assert.Equal(t, []string{"O"}, byText("from"))
	assert.Equal(t, []string{"B-creator"}, byText("NIH"))

	t.Run("Pipeline failure", func(t *testing.T) {
		h := &HugotLabeler{pipeline: &fakeClassifier{err: errors.New("onnx")}}
		_, err := h.Label(context.Background(), tokens)
		assert.Error(t, err)
	})

	t.Run("Empty input", func(t *testing.T) {
		labels, err := h.Label(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, labels)
	})

	t.Run("Close without session", func(t *testing.T) {
		assert.NoError(t, h.Close())
	})
}

func TestProjectSkipsUnknownKinds(t *testing.T) {
	tok := ingest.NewTokenizer()
	tokens := tok.Tokenize("Berlin uses R")
	labels := project(tokens, []predicted{
		{kind: mention.KindOther, span: mention.Span{Start: 0, End: 6}},
		{kind: mention.KindSoftware, span: mention.Span{Start: 12, End: 13}},
	})
	assert.Equal(t, []string{"O", "O", "O", "O", "B-software"}, labels)
}
