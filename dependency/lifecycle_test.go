package dependency

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/amonks/prereq/item"
	"github.com/amonks/prereq/prefs"
)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *item.Store
	prefs  *prefs.Memory
	engine *Engine
	tags   RoleTags
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := item.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: store,
		prefs: prefs.NewMemory(),
	}
	f.engine = New(store, f.prefs, Options{})

	for _, role := range Roles() {
		tag, err := store.CreateTag(string(role))
		if err != nil {
			t.Fatalf("create tag: %v", err)
		}
		if err := f.engine.Tags().Configure(f.ctx, role, tag.ID); err != nil {
			t.Fatalf("configure %s: %v", role, err)
		}
	}
	f.tags, err = f.engine.Tags().ResolveAll(f.ctx)
	if err != nil {
		t.Fatalf("resolve tags: %v", err)
	}
	return f
}

func (f *fixture) create(name string, opts item.CreateOptions) *item.Item {
	f.t.Helper()
	it, err := f.store.Create(name, opts)
	if err != nil {
		f.t.Fatalf("create %q: %v", name, err)
	}
	return it
}

func (f *fixture) item(id string) *item.Item {
	f.t.Helper()
	it, err := f.store.Item(id)
	if err != nil {
		f.t.Fatalf("get %s: %v", id, err)
	}
	return it
}

func (f *fixture) links() []Link {
	f.t.Helper()
	links, err := f.engine.Links().All(f.ctx)
	if err != nil {
		f.t.Fatalf("read links: %v", err)
	}
	return links
}

func TestCreateLink_AnnotatesTagsAndStores(t *testing.T) {
	f := newFixture(t)
	prereq := f.create("Buy paint", item.CreateOptions{Note: "blue"})
	dep := f.create("Paint fence", item.CreateOptions{})
	if err := f.store.AddTag(prereq.ID, f.tags.Marker); err != nil {
		t.Fatalf("mark: %v", err)
	}

	if err := f.engine.CreateLink(f.ctx, prereq.ID, dep.ID); err != nil {
		t.Fatalf("create link: %v", err)
	}

	gotPrereq := f.item(prereq.ID)
	gotDep := f.item(dep.ID)

	wantPrereqNote := "[DEPENDANT: omnifocus:///task/" + dep.ID + "] Paint fence\n\nblue"
	if gotPrereq.Note != wantPrereqNote {
		t.Fatalf("prerequisite note = %q, want %q", gotPrereq.Note, wantPrereqNote)
	}
	wantDepNote := "[PREREQUISITE: omnifocus:///task/" + prereq.ID + "] Buy paint\n\n"
	if gotDep.Note != wantDepNote {
		t.Fatalf("dependant note = %q, want %q", gotDep.Note, wantDepNote)
	}

	if !gotPrereq.HasTag(f.tags.Prerequisite) {
		t.Fatal("expected prerequisite tag")
	}
	if gotPrereq.HasTag(f.tags.Marker) {
		t.Fatal("expected marker tag to be cleared")
	}
	if !gotDep.HasTag(f.tags.Dependant) {
		t.Fatal("expected dependant tag")
	}

	want := []Link{{PrerequisiteID: prereq.ID, DependantID: dep.ID}}
	if got := f.links(); !slices.Equal(got, want) {
		t.Fatalf("links = %v, want %v", got, want)
	}
}

func TestCreateLink_PutsProjectOnHold(t *testing.T) {
	f := newFixture(t)
	prereq := f.create("Get permit", item.CreateOptions{})
	project, root, err := f.store.CreateProject("Build shed", item.ProjectOptions{})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	if err := f.engine.CreateLink(f.ctx, prereq.ID, root.ID); err != nil {
		t.Fatalf("create link: %v", err)
	}
	status, err := f.store.ProjectStatus(project.ID)
	if err != nil {
		t.Fatalf("project status: %v", err)
	}
	if status != item.ProjectOnHold {
		t.Fatalf("project status = %q, want %q", status, item.ProjectOnHold)
	}

	if err := f.engine.RemoveLink(f.ctx, prereq.ID, root.ID); err != nil {
		t.Fatalf("remove link: %v", err)
	}
	status, err = f.store.ProjectStatus(project.ID)
	if err != nil {
		t.Fatalf("project status: %v", err)
	}
	if status != item.ProjectActive {
		t.Fatalf("project status = %q, want %q", status, item.ProjectActive)
	}
}

func TestCreateLink_LeavesDoneProjectAlone(t *testing.T) {
	f := newFixture(t)
	prereq := f.create("Get permit", item.CreateOptions{})
	project, root, err := f.store.CreateProject("Build shed", item.ProjectOptions{})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := f.store.SetProjectStatus(project.ID, item.ProjectDone); err != nil {
		t.Fatalf("set status: %v", err)
	}

	if err := f.engine.CreateLink(f.ctx, prereq.ID, root.ID); err != nil {
		t.Fatalf("create link: %v", err)
	}
	status, err := f.store.ProjectStatus(project.ID)
	if err != nil {
		t.Fatalf("project status: %v", err)
	}
	if status != item.ProjectDone {
		t.Fatalf("project status = %q, want %q", status, item.ProjectDone)
	}
}

func TestCreateLink_Preconditions(t *testing.T) {
	f := newFixture(t)
	a := f.create("A", item.CreateOptions{})
	b := f.create("B", item.CreateOptions{})
	if err := f.engine.CreateLink(f.ctx, a.ID, b.ID); err != nil {
		t.Fatalf("create link: %v", err)
	}
	before := f.links()

	tests := []struct {
		name         string
		prerequisite string
		dependant    string
		want         error
	}{
		{name: "self", prerequisite: a.ID, dependant: a.ID, want: ErrSelfLink},
		{name: "missing prerequisite", prerequisite: "nope", dependant: b.ID, want: item.ErrItemNotFound},
		{name: "missing dependant", prerequisite: a.ID, dependant: "nope", want: item.ErrItemNotFound},
		{name: "duplicate", prerequisite: a.ID, dependant: b.ID, want: ErrDuplicateLink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.engine.CreateLink(f.ctx, tt.prerequisite, tt.dependant)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !IsPrecondition(err) {
				t.Fatalf("expected precondition error, got %T", err)
			}
			if got := f.links(); !slices.Equal(got, before) {
				t.Fatalf("links changed: %v", got)
			}
		})
	}
}

func TestCreateLink_SequentialCascadeLinksFirstChildOnly(t *testing.T) {
	f := newFixture(t)
	prereq := f.create("P", item.CreateOptions{})
	group := f.create("G", item.CreateOptions{Sequential: true})
	a := f.create("A", item.CreateOptions{Parent: group.ID})
	b := f.create("B", item.CreateOptions{Parent: group.ID})
	c := f.create("C", item.CreateOptions{Parent: group.ID})

	if err := f.engine.CreateLink(f.ctx, prereq.ID, group.ID); err != nil {
		t.Fatalf("create link: %v", err)
	}

	want := []Link{
		{PrerequisiteID: prereq.ID, DependantID: group.ID},
		{PrerequisiteID: prereq.ID, DependantID: a.ID},
	}
	if got := f.links(); !slices.Equal(got, want) {
		t.Fatalf("links = %v, want %v", got, want)
	}
	for _, id := range []string{b.ID, c.ID} {
		if f.item(id).HasTag(f.tags.Dependant) {
			t.Fatalf("expected %s to be untouched", id)
		}
	}
}

func TestCreateLink_ParallelCascadeLinksEveryChild(t *testing.T) {
	f := newFixture(t)
	prereq := f.create("P", item.CreateOptions{})
	group := f.create("G", item.CreateOptions{})
	a := f.create("A", item.CreateOptions{Parent: group.ID})
	b := f.create("B", item.CreateOptions{Parent: group.ID})
	c := f.create("C", item.CreateOptions{Parent: group.ID})

	if err := f.engine.CreateLink(f.ctx, prereq.ID, group.ID); err != nil {
		t.Fatalf("create link: %v", err)
	}

	want := []Link{
		{PrerequisiteID: prereq.ID, DependantID: group.ID},
		{PrerequisiteID: prereq.ID, DependantID: a.ID},
		{PrerequisiteID: prereq.ID, DependantID: b.ID},
		{PrerequisiteID: prereq.ID, DependantID: c.ID},
	}
	if got := f.links(); !slices.Equal(got, want) {
		t.Fatalf("links = %v, want %v", got, want)
	}

	note := f.item(prereq.ID).Note
	for _, id := range []string{group.ID, a.ID, b.ID, c.ID} {
		if _, ok := stripAnnotation(note, labelDependant, DefaultScheme, id); !ok {
			t.Fatalf("expected prerequisite note to reference %s, got %q", id, note)
		}
	}
}

func TestCreateLink_CascadeRecursesIntoNestedGroups(t *testing.T) {
	f := newFixture(t)
	prereq := f.create("P", item.CreateOptions{})
	outer := f.create("Outer", item.CreateOptions{})
	inner := f.create("Inner", item.CreateOptions{Parent: outer.ID, Sequential: true})
	first := f.create("First", item.CreateOptions{Parent: inner.ID})
	f.create("Second", item.CreateOptions{Parent: inner.ID})

	if err := f.engine.CreateLink(f.ctx, prereq.ID, outer.ID); err != nil {
		t.Fatalf("create link: %v", err)
	}

	want := []Link{
		{PrerequisiteID: prereq.ID, DependantID: outer.ID},
		{PrerequisiteID: prereq.ID, DependantID: inner.ID},
		{PrerequisiteID: prereq.ID, DependantID: first.ID},
	}
	if got := f.links(); !slices.Equal(got, want) {
		t.Fatalf("links = %v, want %v", got, want)
	}
}

func TestCreateLink_CascadeDescendsThroughLinkedChild(t *testing.T) {
	f := newFixture(t)
	prereq := f.create("P", item.CreateOptions{})
	outer := f.create("Outer", item.CreateOptions{})
	inner := f.create("Inner", item.CreateOptions{Parent: outer.ID})
	if err := f.engine.CreateLink(f.ctx, prereq.ID, inner.ID); err != nil {
		t.Fatalf("link inner: %v", err)
	}
	leaf := f.create("Leaf", item.CreateOptions{Parent: inner.ID})

	if err := f.engine.CreateLink(f.ctx, prereq.ID, outer.ID); err != nil {
		t.Fatalf("link outer: %v", err)
	}

	want := []Link{
		{PrerequisiteID: prereq.ID, DependantID: inner.ID},
		{PrerequisiteID: prereq.ID, DependantID: outer.ID},
		{PrerequisiteID: prereq.ID, DependantID: leaf.ID},
	}
	if got := f.links(); !slices.Equal(got, want) {
		t.Fatalf("links = %v, want %v", got, want)
	}
	if !f.item(leaf.ID).HasTag(f.tags.Dependant) {
		t.Fatal("expected leaf to be tagged as a dependant")
	}
	innerNote := f.item(inner.ID).Note
	if strings.Count(innerNote, "[PREREQUISITE:") != 1 {
		t.Fatalf("expected inner to be annotated once, got %q", innerNote)
	}
}

func TestCreateLinkFromSelection_GatherDataBeforeWriteReport(t *testing.T) {
	tests := []struct {
		name      string
		inProject bool
	}{
		{name: "standalone item"},
		{name: "project root", inProject: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			gather := f.create("Gather data", item.CreateOptions{})
			var report *item.Item
			var projectID string
			selection := Selection{}
			if tt.inProject {
				project, root, err := f.store.CreateProject("Write report", item.ProjectOptions{})
				if err != nil {
					t.Fatalf("create project: %v", err)
				}
				report, projectID = root, project.ID
				selection.Projects = []string{project.ID}
			} else {
				report = f.create("Write report", item.CreateOptions{})
				selection.Items = []string{report.ID}
			}

			if err := f.engine.MarkPending(f.ctx, gather.ID); err != nil {
				t.Fatalf("mark: %v", err)
			}
			link, err := f.engine.CreateLinkFromSelection(f.ctx, selection)
			if err != nil {
				t.Fatalf("create link: %v", err)
			}

			want := Link{PrerequisiteID: gather.ID, DependantID: report.ID}
			if link != want {
				t.Fatalf("link = %v, want %v", link, want)
			}
			if got := f.links(); !slices.Equal(got, []Link{want}) {
				t.Fatalf("links = %v, want [%v]", got, want)
			}

			gotGather := f.item(gather.ID)
			if !gotGather.HasTag(f.tags.Prerequisite) || gotGather.HasTag(f.tags.Marker) {
				t.Fatalf("gather tags = %v", gotGather.Tags)
			}
			wantGatherNote := "[DEPENDANT: omnifocus:///task/" + report.ID + "] Write report\n\n"
			if gotGather.Note != wantGatherNote {
				t.Fatalf("gather note = %q, want %q", gotGather.Note, wantGatherNote)
			}
			if gotGather.Due != nil {
				t.Fatalf("gather due = %v, want nil", gotGather.Due)
			}

			gotReport := f.item(report.ID)
			if !gotReport.HasTag(f.tags.Dependant) {
				t.Fatalf("report tags = %v", gotReport.Tags)
			}
			wantReportNote := "[PREREQUISITE: omnifocus:///task/" + gather.ID + "] Gather data\n\n"
			if gotReport.Note != wantReportNote {
				t.Fatalf("report note = %q, want %q", gotReport.Note, wantReportNote)
			}

			if tt.inProject {
				status, err := f.store.ProjectStatus(projectID)
				if err != nil {
					t.Fatalf("project status: %v", err)
				}
				if status != item.ProjectOnHold {
					t.Fatalf("project status = %q, want %q", status, item.ProjectOnHold)
				}
			}
		})
	}
}

func TestRemoveLink_RemovesCascade(t *testing.T) {
	f := newFixture(t)
	prereq := f.create("P", item.CreateOptions{})
	group := f.create("G", item.CreateOptions{})
	a := f.create("A", item.CreateOptions{Parent: group.ID})
	b := f.create("B", item.CreateOptions{Parent: group.ID})

	if err := f.engine.CreateLink(f.ctx, prereq.ID, group.ID); err != nil {
		t.Fatalf("create link: %v", err)
	}
	if err := f.engine.RemoveLink(f.ctx, prereq.ID, group.ID); err != nil {
		t.Fatalf("remove link: %v", err)
	}

	if got := f.links(); len(got) != 0 {
		t.Fatalf("expected no links, got %v", got)
	}
	for _, id := range []string{prereq.ID, group.ID, a.ID, b.ID} {
		got := f.item(id)
		if got.Note != "" {
			t.Fatalf("expected %s note cleared, got %q", id, got.Note)
		}
		if len(got.Tags) != 0 {
			t.Fatalf("expected %s tags cleared, got %v", id, got.Tags)
		}
	}
}

func TestRemoveLink_KeepsSharedTags(t *testing.T) {
	f := newFixture(t)
	prereq := f.create("P", item.CreateOptions{})
	first := f.create("D1", item.CreateOptions{})
	second := f.create("D2", item.CreateOptions{})
	other := f.create("Q", item.CreateOptions{})

	for _, link := range [][2]string{{prereq.ID, first.ID}, {prereq.ID, second.ID}, {other.ID, first.ID}} {
		if err := f.engine.CreateLink(f.ctx, link[0], link[1]); err != nil {
			t.Fatalf("create link: %v", err)
		}
	}

	if err := f.engine.RemoveLink(f.ctx, prereq.ID, first.ID); err != nil {
		t.Fatalf("remove link: %v", err)
	}

	if !f.item(prereq.ID).HasTag(f.tags.Prerequisite) {
		t.Fatal("expected prerequisite tag to remain while D2 depends on it")
	}
	gotFirst := f.item(first.ID)
	if !gotFirst.HasTag(f.tags.Dependant) {
		t.Fatal("expected dependant tag to remain while Q blocks it")
	}
	wantNote := "[PREREQUISITE: omnifocus:///task/" + other.ID + "] Q\n\n"
	if gotFirst.Note != wantNote {
		t.Fatalf("dependant note = %q, want %q", gotFirst.Note, wantNote)
	}
}

func TestRemoveLink_MissingEndpoint(t *testing.T) {
	f := newFixture(t)
	prereq := f.create("P", item.CreateOptions{Note: "keep"})
	dep := f.create("D", item.CreateOptions{})

	if err := f.engine.CreateLink(f.ctx, prereq.ID, dep.ID); err != nil {
		t.Fatalf("create link: %v", err)
	}
	if _, err := f.store.Delete(dep.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := f.engine.RemoveLink(f.ctx, prereq.ID, dep.ID); err != nil {
		t.Fatalf("remove link: %v", err)
	}
	got := f.item(prereq.ID)
	if got.Note != "keep" {
		t.Fatalf("note = %q, want %q", got.Note, "keep")
	}
	if got.HasTag(f.tags.Prerequisite) {
		t.Fatal("expected prerequisite tag removed")
	}
	if links := f.links(); len(links) != 0 {
		t.Fatalf("expected no links, got %v", links)
	}
}

func TestRemoveLink_Idempotent(t *testing.T) {
	f := newFixture(t)
	prereq := f.create("P", item.CreateOptions{})
	dep := f.create("D", item.CreateOptions{Note: "body"})

	if err := f.engine.CreateLink(f.ctx, prereq.ID, dep.ID); err != nil {
		t.Fatalf("create link: %v", err)
	}
	if err := f.engine.RemoveLink(f.ctx, prereq.ID, dep.ID); err != nil {
		t.Fatalf("remove link: %v", err)
	}
	first := *f.item(dep.ID)

	if err := f.engine.RemoveLink(f.ctx, prereq.ID, dep.ID); err != nil {
		t.Fatalf("remove link again: %v", err)
	}
	second := *f.item(dep.ID)
	if first.Note != second.Note || !slices.Equal(first.Tags, second.Tags) || !first.UpdatedAt.Equal(second.UpdatedAt) {
		t.Fatalf("second removal changed the item: %+v -> %+v", first, second)
	}
}

func TestRemoveLink_StripsLegacyAnnotation(t *testing.T) {
	f := newFixture(t)
	prereq := f.create("P", item.CreateOptions{})
	dep := f.create("D", item.CreateOptions{})

	if err := f.engine.CreateLink(f.ctx, prereq.ID, dep.ID); err != nil {
		t.Fatalf("create link: %v", err)
	}
	legacy := "[ DEPENDANT: omnifocus:///task/" + dep.ID + " ] D\n\nnotes"
	if err := f.store.SetNote(prereq.ID, legacy); err != nil {
		t.Fatalf("set note: %v", err)
	}

	if err := f.engine.RemoveLink(f.ctx, prereq.ID, dep.ID); err != nil {
		t.Fatalf("remove link: %v", err)
	}
	if got := f.item(prereq.ID).Note; got != "notes" {
		t.Fatalf("note = %q, want %q", got, "notes")
	}
}

func TestCreateLink_TagSetupRunsOnce(t *testing.T) {
	store, err := item.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	ctx := context.Background()
	memory := prefs.NewMemory()

	var calls []Role
	setup := SetupFunc(func(ctx context.Context, role Role) (string, error) {
		calls = append(calls, role)
		tag, err := store.CreateTag(string(role))
		if err != nil {
			return "", err
		}
		return tag.ID, nil
	})
	engine := New(store, memory, Options{Setup: setup})

	a, _ := store.Create("A", item.CreateOptions{})
	b, _ := store.Create("B", item.CreateOptions{})
	c, _ := store.Create("C", item.CreateOptions{})

	if err := engine.CreateLink(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("create link: %v", err)
	}
	if !slices.Equal(calls, Roles()) {
		t.Fatalf("setup calls = %v, want %v", calls, Roles())
	}
	if err := engine.CreateLink(ctx, a.ID, c.ID); err != nil {
		t.Fatalf("create second link: %v", err)
	}
	if len(calls) != len(Roles()) {
		t.Fatalf("expected setup to run once per role, got %v", calls)
	}
}

func TestCreateLink_TagSetupCancelled(t *testing.T) {
	store, err := item.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	ctx := context.Background()

	calls := 0
	setup := SetupFunc(func(context.Context, Role) (string, error) {
		calls++
		return "", ErrSetupCancelled
	})
	engine := New(store, prefs.NewMemory(), Options{Setup: setup})

	a, _ := store.Create("A", item.CreateOptions{})
	b, _ := store.Create("B", item.CreateOptions{})

	err = engine.CreateLink(ctx, a.ID, b.ID)
	if !errors.Is(err, ErrTagNotConfigured) || !IsPrecondition(err) {
		t.Fatalf("expected tag-not-configured precondition, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("setup calls = %d, want 1", calls)
	}
	got, _ := store.Item(b.ID)
	if got.Note != "" || len(got.Tags) != 0 {
		t.Fatalf("expected dependant untouched, got %+v", got)
	}
	links, _ := engine.Links().All(ctx)
	if len(links) != 0 {
		t.Fatalf("expected no links, got %v", links)
	}
}

func TestCreateLink_SetupThatConfiguresNothing(t *testing.T) {
	store, err := item.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	calls := 0
	setup := SetupFunc(func(context.Context, Role) (string, error) {
		calls++
		return "", nil
	})
	engine := New(store, prefs.NewMemory(), Options{Setup: setup})
	a, _ := store.Create("A", item.CreateOptions{})
	b, _ := store.Create("B", item.CreateOptions{})

	err = engine.CreateLink(context.Background(), a.ID, b.ID)
	if !errors.Is(err, ErrTagNotConfigured) {
		t.Fatalf("expected ErrTagNotConfigured, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("setup calls = %d, want 1", calls)
	}
}
