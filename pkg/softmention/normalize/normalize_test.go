package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2.1", "2.1"},
		{"(version 2.1)", "2.1"},
		{"v.3", "3"},
		{"Version\n 10", "10"},
		{"release 4.0.1.", "4.0.1"},
		{"[1.2]", "1.2"},
		{"build 1234", "1234"},
		{"1.0 version", "1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Version(tt.in))
		})
	}
}

func TestURL(t *testing.T) {
	t.Run("Keeps a clean URL", func(t *testing.T) {
		assert.Equal(t, "https://github.com/foo/bar", URL("https://github.com/foo/bar"))
	})

	t.Run("Strips surrounding punctuation", func(t *testing.T) {
		assert.Equal(t, "http://www.r-project.org", URL("(http://www.r-project.org)."))
	})

	t.Run("Removes inner spaces", func(t *testing.T) {
		assert.Equal(t, "http://example.org/tool", URL("http: //example.org/ tool"))
	})

	t.Run("Falls back to trimmed text", func(t *testing.T) {
		assert.Equal(t, "www.example.org", URL(" www.example.org; "))
	})
}

func TestCreator(t *testing.T) {
	assert.Equal(t, "SPSS Inc.", Creator("SPSS Inc., Chicago, IL"))
	assert.Equal(t, "Microsoft Corp", Creator("(Microsoft Corp)"))
	assert.Equal(t, "R Core Team", Creator("R Core Team"))
}

func TestName(t *testing.T) {
	t.Run("Case folding and whitespace", func(t *testing.T) {
		assert.Equal(t, "image j", Name("  Image   J "))
		assert.Equal(t, Name("SPSS"), Name("spss"))
	})

	t.Run("Trims quotes and brackets", func(t *testing.T) {
		assert.Equal(t, "stata", Name("“Stata”"))
		assert.Equal(t, "matlab", Name("(MATLAB)"))
	})

	t.Run("NFKC folds compatibility characters", func(t *testing.T) {
		assert.Equal(t, "gromacs", Name("ＧＲＯＭＡＣＳ"))
	})
}

func TestText(t *testing.T) {
	assert.Equal(t, "a b c", Text("a\nb\tc"))
	assert.Equal(t, "fi", Text("ﬁ"))
}
