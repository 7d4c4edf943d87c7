package training

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cognicore/softmention/pkg/softmention/mention"
)

func comp(kind mention.Kind, start, end int) mention.Component {
	return mention.Component{Kind: kind, Span: mention.Span{Start: start, End: end}}
}

func TestRender(t *testing.T) {
	text := "We used SPSS 22 & R."

	t.Run("Components are wrapped and text escaped", func(t *testing.T) {
		got := Render([]mention.Component{
			comp(mention.KindVersion, 13, 15),
			comp(mention.KindSoftware, 8, 12),
			comp(mention.KindSoftware, 18, 19),
		}, text)
		assert.Equal(t, `<p>We used <rs type="software">SPSS</rs> <rs type="version">22</rs> &amp; <rs type="software">R</rs>.</p>`, got)
	})

	t.Run("No components", func(t *testing.T) {
		assert.Equal(t, "<p>a &lt;b&gt;</p>", Render(nil, "a <b>"))
	})

	t.Run("Overlapping and out of range spans are skipped", func(t *testing.T) {
		got := Render([]mention.Component{
			comp(mention.KindSoftware, 8, 12),
			comp(mention.KindVersion, 10, 15),
			comp(mention.KindURL, 18, 40),
		}, text)
		assert.Equal(t, `<p>We used <rs type="software">SPSS</rs> 22 &amp; R.</p>`, got)
	})
}

func TestRenderEntities(t *testing.T) {
	text := "ImageJ 1.52 (NIH)"
	e := mention.NewEntity(comp(mention.KindSoftware, 0, 6))
	e.SetComponent(comp(mention.KindVersion, 7, 11))
	e.SetComponent(comp(mention.KindCreator, 13, 16))

	got := RenderEntities([]mention.Entity{e}, text)
	assert.Equal(t, `<p><rs type="software">ImageJ</rs> <rs type="version">1.52</rs> (<rs type="creator">NIH</rs>)</p>`, got)
}

func TestParagraphs(t *testing.T) {
	text := "  First line\nstill first.\n\n\nSecond one.\n   \nThird"
	assert.Equal(t, []string{"First line still first.", "Second one.", "Third"}, Paragraphs(text))
	assert.Empty(t, Paragraphs(" \n\n "))
}

func TestDocument(t *testing.T) {
	got := Document("en", []string{"<p>a</p>", "<p>b</p>"})
	assert.Equal(t, "<text xml:lang=\"en\">\n<p>a</p>\n<p>b</p>\n</text>\n", got)
}
