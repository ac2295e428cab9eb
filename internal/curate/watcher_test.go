package curate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glabrego/deploytidy/internal/dom"
	"github.com/glabrego/deploytidy/internal/settings"
)

func TestWatcher_StagingAndProduction(t *testing.T) {
	doc := mustDoc(t, page(
		deployment("s1", "staging"),
		deployment("s2", "staging"),
		deployment("s3", "staging"),
		deployment("p1", "production"),
	))
	e := NewEngine(doc, settings.Defaults(), WithLogger(quietLog()))
	e.Dispatch(InitEvent{})

	assert.Equal(t, []string{"s1", "s2"}, hiddenIDs(doc))
	assert.Equal(t, Tally{Visible: 2}, e.Stats().Successful)
	assert.Equal(t, Tally{Hidden: 2}, e.Stats().OldSuccessful)

	timeline, ok := doc.First(timelineShape)
	require.True(t, ok)
	_, err := doc.Append(timeline, deployment("p2", "production"))
	require.NoError(t, err)
	e.Drain(doc.TakeRecords)

	assert.Equal(t, []string{"s1", "s2", "p1"}, hiddenIDs(doc))
}

func TestWatcher_LateStatusLabelMovesEntry(t *testing.T) {
	doc := mustDoc(t, page(
		deployment("s1", "staging"),
		deployment("s2", "staging"),
		deployment("s3", "staging"),
	))
	e := NewEngine(doc, settings.Defaults(), WithLogger(quietLog()))
	e.Dispatch(InitEvent{})
	require.Equal(t, []string{"s1", "s2"}, hiddenIDs(doc))

	_, err := doc.Append(byID(t, doc, "s3"), `<span class="Label" title="Status: destroyed">Destroyed</span>`)
	require.NoError(t, err)
	e.Drain(doc.TakeRecords)

	s3 := byID(t, doc, "s3")
	assert.True(t, s3.HasClass(markerDestroyed))
	assert.False(t, s3.HasClass(markerOld))
	assert.Equal(t, "destroyed", s3.Data(DataKey))
	assert.False(t, byID(t, doc, "s2").HasClass(markerOld), "s2 is now the most recent staging deployment")

	incremental := doc.String()
	e.Dispatch(InitEvent{})
	assert.Equal(t, incremental, doc.String(), "incremental result matches a full pass")
}

func TestWatcher_LabelOnNestedDeploymentThenDisable(t *testing.T) {
	doc := mustDoc(t, page(
		nestedDeployment("item-a", "a", "staging"),
		nestedDeployment("item-b", "b", "staging"),
	))
	e := NewEngine(doc, settings.Defaults(), WithLogger(quietLog()))
	e.Dispatch(InitEvent{})
	require.Equal(t, []string{"a"}, hiddenIDs(doc))

	_, err := doc.Append(byID(t, doc, "item-a"), `<span class="Label" title="Status: destroyed">Destroyed</span>`)
	require.NoError(t, err)
	e.Drain(doc.TakeRecords)

	assert.Equal(t, []string{"item-a"}, hiddenIDs(doc), "the item now carries the destroyed marker instead")
	assert.Equal(t, Unclassified.String(), byID(t, doc, "a").Data(DataKey))

	incremental := doc.String()
	e.Dispatch(InitEvent{})
	assert.Equal(t, incremental, doc.String(), "incremental result matches a full pass")

	e.Dispatch(SettingsChangedEvent{Settings: map[string]any{settings.KeyEnabled: false}})
	assert.Empty(t, hiddenIDs(doc))
}

func TestWatcher_InsertedStatusItems(t *testing.T) {
	doc := mustDoc(t, page(deployment("s1", "staging")))
	s := settings.Defaults()
	s.HideFailedDeployments = true
	e := NewEngine(doc, s, WithLogger(quietLog()))
	e.Dispatch(InitEvent{})

	timeline, ok := doc.First(timelineShape)
	require.True(t, ok)
	_, err := doc.Append(timeline, `<div class="page">`+destroyed("d1")+failed("f1")+`</div>`)
	require.NoError(t, err)
	e.Drain(doc.TakeRecords)

	assert.Equal(t, []string{"d1", "f1"}, hiddenIDs(doc))
}

func TestWatcher_IgnoresUnrelatedMutations(t *testing.T) {
	doc := mustDoc(t, page(deployment("s1", "staging")))
	e := NewEngine(doc, settings.Defaults(), WithLogger(quietLog()))
	title, ok := doc.First(dom.Shape{Tag: "title"})
	require.True(t, ok)
	before := doc.String()

	e.Dispatch(MutationEvent{Batch: []dom.Mutation{
		{Type: dom.ChildList, Target: doc.Body(), Added: []dom.Element{title}},
		{Type: dom.Attributes, Target: doc.Body(), AttributeName: expandedAttr},
	}})

	assert.Equal(t, before, doc.String())
}

func TestCollectTriggers_FoldsBatch(t *testing.T) {
	doc := mustDoc(t, page(
		deployment("s1", "staging"),
		destroyed("d1"),
		environmentsSection(false),
		loadMoreButton,
	))
	toggle, ok := doc.First(EnvironmentsToggle)
	require.True(t, ok)

	got := collectTriggers([]dom.Mutation{
		{Type: dom.ChildList, Added: []dom.Element{byID(t, doc, "s1"), byID(t, doc, "d1")}},
		{Type: dom.ChildList, Added: []dom.Element{byID(t, doc, "environments")}},
		{Type: dom.Attributes, Target: toggle, AttributeName: expandedAttr},
		{Type: dom.Attributes, Target: toggle, AttributeName: "class"},
	})

	assert.True(t, got.deployments)
	assert.Len(t, got.statusRoots, 1)
	assert.True(t, got.pagination)
	assert.True(t, got.environmentsSection)
	assert.True(t, got.environmentsList)
	assert.NotNil(t, got.toggle)
	assert.True(t, collectTriggers(nil).empty())
}
