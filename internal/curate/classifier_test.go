package curate

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glabrego/deploytidy/internal/dom"
	"github.com/glabrego/deploytidy/internal/dom/htmldoc"
	"github.com/glabrego/deploytidy/internal/settings"
)

var updateClassificationGolden = flag.Bool("update-classification-golden", false, "update classification golden files")

func entryID(e Entry) string {
	id, _ := e.Element.Attr("id")
	return id
}

func TestClassify_GroupsDeploymentsByEnvironment(t *testing.T) {
	doc := mustDoc(t, page(
		deployment("s1", "staging"),
		deployment("p1", "production"),
		deployment("s2", "staging"),
		deployment("s3", "staging"),
	))

	got := Classifier{}.Classify(doc)
	require.Len(t, got.Deployments, 4)
	assert.Empty(t, got.Statuses)

	want := map[string]Category{"s1": OldSuccessful, "p1": Successful, "s2": OldSuccessful, "s3": Successful}
	for _, entry := range got.Deployments {
		assert.Equal(t, want[entryID(entry)], entry.Category, entryID(entry))
		assert.Equal(t, entry.Category == Successful, entry.MostRecent)
	}
	assert.Equal(t, "production", got.Deployments[1].EnvironmentKey)
}

func TestClassify_UnknownEnvironment(t *testing.T) {
	doc := mustDoc(t, page(
		`<div class="TimelineItem" id="a" data-partial-name="deployment"><div class="TimelineItem-body">deployed</div></div>`,
		`<div class="TimelineItem" id="b" data-partial-name="deployment"><div class="TimelineItem-body"><a class="Link--primary text-bold">   </a></div></div>`,
	))

	got := Classifier{}.Deployments(doc)
	require.Len(t, got, 2)
	for _, entry := range got {
		assert.Equal(t, UnknownEnvironment, entry.EnvironmentKey)
	}
	assert.Equal(t, OldSuccessful, got[0].Category)
	assert.Equal(t, Successful, got[1].Category)
}

func TestClassify_StatusEntries(t *testing.T) {
	doc := mustDoc(t, page(
		destroyed("d1"),
		failed("f1"),
		`<div class="TimelineItem" id="both"><span class="Label" title="failed">x</span><span class="Label">Destroyed</span></div>`,
		`<div class="TimelineItem" id="plain"><span class="Label" title="Active">Active</span></div>`,
	))

	got := Classifier{}.Classify(doc)
	require.Len(t, got.Statuses, 3)
	assert.Equal(t, "d1", entryID(got.Statuses[0]))
	assert.Equal(t, Destroyed, got.Statuses[0].Category)
	assert.Equal(t, Failed, got.Statuses[1].Category)
	assert.Equal(t, Destroyed, got.Statuses[2].Category, "destroyed wins over failed")
}

func TestClassify_LabeledDeploymentIsNotSuccessful(t *testing.T) {
	doc := mustDoc(t, page(
		deployment("s1", "staging"),
		`<div class="TimelineItem" id="s2" data-partial-name="deployment"><div class="TimelineItem-body">`+
			`<a class="Link--primary text-bold">staging</a><span class="Label" title="destroyed">Destroyed</span></div></div>`,
	))

	got := Classifier{}.Classify(doc)
	require.Len(t, got.Deployments, 1)
	assert.Equal(t, "s1", entryID(got.Deployments[0]))
	assert.Equal(t, Successful, got.Deployments[0].Category, "only remaining staging entry is most recent")
	require.Len(t, got.Statuses, 1)
	assert.Equal(t, "s2", entryID(got.Statuses[0]))
}

func TestClassifyStatuses_ScopesToRoots(t *testing.T) {
	doc := mustDoc(t, page(
		destroyed("d1"),
		`<div id="wrapper">`+failed("f1")+destroyed("d2")+`</div>`,
	))

	label := byID(t, doc, "d1").Query(StatusLabelShape)[0]
	got := Classifier{}.ClassifyStatuses([]dom.Element{label, byID(t, doc, "wrapper")})

	ids := make([]string, 0, len(got))
	for _, entry := range got {
		ids = append(ids, entryID(entry))
	}
	assert.Equal(t, []string{"d1", "f1", "d2"}, ids)
}

func TestClassify_IsReadOnlyAndDeterministic(t *testing.T) {
	doc := mustDoc(t, page(
		deployment("s1", "staging"),
		destroyed("d1"),
		deployment("s2", "staging"),
	))
	before := doc.String()

	first := summarize(Classifier{}.Classify(doc).Entries(), settings.Defaults())
	second := summarize(Classifier{}.Classify(doc).Entries(), settings.Defaults())

	assert.Equal(t, first, second)
	assert.Equal(t, before, doc.String())
}

func summarize(entries []Entry, s settings.Snapshot) string {
	var b strings.Builder
	for _, entry := range entries {
		marker := Decide(s, entry)
		if marker == "" {
			marker = "-"
		}
		env := entry.EnvironmentKey
		if env == "" {
			env = "-"
		}
		fmt.Fprintf(&b, "id=%s category=%s env=%s marker=%s\n", entryID(entry), entry.Category, env, marker)
	}
	return b.String()
}

func TestClassify_GoldenSummary(t *testing.T) {
	doc := mustDoc(t, page(
		deployment("s1", "staging"),
		deployment("p1", "production"),
		destroyed("d1"),
		deployment("s2", "staging"),
		failed("f1"),
		deployment("s3", "staging"),
		deployment("p2", "production"),
	))

	got := summarize(Classifier{}.Classify(doc).Entries(), settings.Defaults())

	goldenPath := filepath.Join("testdata", "classification.golden")
	if *updateClassificationGolden {
		require.NoError(t, os.WriteFile(goldenPath, []byte(got), 0o644))
	}
	want, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t, string(want), got)
}

func FuzzClassify(f *testing.F) {
	f.Add(page(deployment("s1", "staging"), destroyed("d1"), loadMoreButton))
	f.Add(`<div class="TimelineItem" data-partial-name="deployment"><span class="Label" title="fail">`)
	f.Add("")

	f.Fuzz(func(t *testing.T, raw string) {
		doc, err := htmldoc.ParseString(raw)
		if err != nil {
			t.Skip()
		}
		got := Classifier{}.Classify(doc)
		for _, entry := range got.Deployments {
			if entry.Category != Successful && entry.Category != OldSuccessful {
				t.Fatalf("deployment entry classified as %s", entry.Category)
			}
		}
		for _, entry := range got.Statuses {
			if entry.Category != Destroyed && entry.Category != Failed {
				t.Fatalf("status entry classified as %s", entry.Category)
			}
		}
	})
}

func TestClassifier_StaleListsDeclassifiedElements(t *testing.T) {
	doc := mustDoc(t, page(
		nestedDeployment("item-a", "a", "staging"),
		deployment("s1", "staging"),
		failed("f1"),
		`<div class="TimelineItem" id="gone" data-deploytidy="failed"></div>`,
		`<div id="done" data-deploytidy="unclassified"></div>`,
	))
	for _, id := range []string{"a", "s1", "f1"} {
		byID(t, doc, id).SetData(DataKey, OldSuccessful.String())
	}
	_, err := doc.Append(byID(t, doc, "item-a"), `<span class="Label" title="Deployment failure">Failed</span>`)
	require.NoError(t, err)

	var ids []string
	for _, el := range (Classifier{}).Stale(doc) {
		id, _ := el.Attr("id")
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"a", "gone"}, ids)
}
