package aggregate

import (
	"testing"

	"github.com/cognicore/softmention/pkg/softmention/mention"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func c(kind mention.Kind, raw string, start, end int) mention.Component {
	return mention.Component{Kind: kind, Raw: raw, Span: mention.Span{Start: start, End: end}}
}

func sw(raw string, start, end int) mention.Component {
	return c(mention.KindSoftware, raw, start, end)
}

func TestGroupByEntitiesEmpty(t *testing.T) {
	assert.Empty(t, GroupByEntities(nil))

	t.Run("Fields without any name are dropped", func(t *testing.T) {
		assert.Empty(t, GroupByEntities([]mention.Component{c(mention.KindVersion, "2", 0, 1)}))
	})
}

func TestGroupByEntitiesOneAnchorPerName(t *testing.T) {
	entities := GroupByEntities([]mention.Component{
		sw("B", 50, 51),
		sw("A", 0, 1),
		c(mention.KindVersion, "1.0", 2, 5),
	})
	require.Len(t, entities, 2)
	assert.Equal(t, "A", entities[0].Name.Raw)
	assert.Equal(t, "B", entities[1].Name.Raw)
	assert.True(t, mention.IsSorted(entities))
}

func TestGroupByEntitiesSingleEntity(t *testing.T) {
	entities := GroupByEntities([]mention.Component{
		c(mention.KindCreator, "IBM", 0, 3),
		sw("SPSS", 10, 14),
		c(mention.KindVersion, "22", 15, 17),
		c(mention.KindURL, "http://ibm.com", 40, 54),
	})
	require.Len(t, entities, 1)
	e := entities[0]
	require.NotNil(t, e.Creator)
	require.NotNil(t, e.Version)
	require.NotNil(t, e.URL)
	assert.Equal(t, "IBM", e.Creator.Raw)
}

func TestGroupByEntitiesProximityTieBreak(t *testing.T) {
	// previous name ends at 100, current name starts at 140
	entities := GroupByEntities([]mention.Component{
		sw("Prev", 96, 100),
		c(mention.KindVersion, "2.1", 115, 120),
		sw("Cur", 140, 143),
	})
	require.Len(t, entities, 2)
	require.NotNil(t, entities[0].Version, "distLeft=15 <= 2*distRight=40 attaches left")
	assert.Nil(t, entities[1].Version)
}

func TestGroupByEntitiesProximityRight(t *testing.T) {
	// distLeft=40, distRight=5: 40 > 10 attaches right
	entities := GroupByEntities([]mention.Component{
		sw("Prev", 96, 100),
		c(mention.KindVersion, "2.1", 140, 145),
		sw("Cur", 150, 153),
	})
	require.Len(t, entities, 2)
	assert.Nil(t, entities[0].Version)
	require.NotNil(t, entities[1].Version)
}

func TestGroupByEntitiesProximityBoundary(t *testing.T) {
	// distLeft=20 == 2*distRight=20 stays left
	entities := GroupByEntities([]mention.Component{
		sw("Prev", 0, 10),
		c(mention.KindVersion, "1", 30, 31),
		sw("Cur", 41, 44),
	})
	require.NotNil(t, entities[0].Version)
	assert.Nil(t, entities[1].Version)
}

func TestGroupByEntitiesBeforeFirstName(t *testing.T) {
	entities := GroupByEntities([]mention.Component{
		c(mention.KindCreator, "Microsoft", 0, 9),
		sw("Excel", 10, 15),
		sw("Word", 30, 34),
	})
	require.Len(t, entities, 2)
	require.NotNil(t, entities[0].Creator)
	assert.Nil(t, entities[1].Creator)
}

func TestGroupByEntitiesOverlapsCurrentName(t *testing.T) {
	entities := GroupByEntities([]mention.Component{
		sw("Excel", 0, 5),
		sw("Word", 30, 34),
		c(mention.KindVersion, "34b", 32, 35),
	})
	assert.Nil(t, entities[0].Version)
	require.NotNil(t, entities[1].Version)
}

func TestGroupByEntitiesAfterLastName(t *testing.T) {
	entities := GroupByEntities([]mention.Component{
		sw("Excel", 0, 5),
		sw("Word", 10, 14),
		c(mention.KindVersion, "2016", 200, 204),
	})
	assert.Nil(t, entities[0].Version)
	require.NotNil(t, entities[1].Version)
	assert.Equal(t, "2016", entities[1].Version.Raw)
}

func TestGroupByEntitiesFreeField(t *testing.T) {
	entities := GroupByEntities([]mention.Component{
		sw("R", 0, 1),
		c(mention.KindVersion, "3.6", 2, 5),
		c(mention.KindVersion, "4.0", 10, 13),
		c(mention.KindURL, "https://r-project.org", 14, 35),
	})
	require.Len(t, entities, 1)
	require.NotNil(t, entities[0].Version)
	assert.Equal(t, "3.6", entities[0].Version.Raw, "second version is dropped")
	require.NotNil(t, entities[0].URL)
}

func TestGroupByEntitiesOccupiedTargetDrops(t *testing.T) {
	// the closer left entity already has a version, the component is not
	// rerouted to the right one
	entities := GroupByEntities([]mention.Component{
		sw("A", 0, 1),
		c(mention.KindVersion, "1", 2, 3),
		c(mention.KindVersion, "2", 4, 5),
		sw("B", 100, 101),
	})
	require.Len(t, entities, 2)
	assert.Equal(t, "1", entities[0].Version.Raw)
	assert.Nil(t, entities[1].Version)
}
