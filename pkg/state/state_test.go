package state

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleTree() Node {
	return Group(map[string]Node{
		"name": Leaf("Ada"),
		"tags": Leaf([]string{"a", "b"}),
		"address": Group(map[string]Node{
			"city": Leaf("London"),
			"geo": Group(map[string]Node{
				"lat": Leaf("51.5"),
			}),
		}),
	})
}

func TestResolve(t *testing.T) {
	tree := sampleTree()

	got, ok := Resolve(tree, "address.geo.lat")
	if !ok || got != "51.5" {
		t.Fatalf("Resolve nested = %v, %v", got, ok)
	}

	if _, ok := Resolve(tree, "address.zip"); ok {
		t.Fatalf("expected missing leaf to report false")
	}
	if _, ok := Resolve(tree, "contact.email"); ok {
		t.Fatalf("expected missing intermediate to report false")
	}
	if _, ok := Resolve(tree, "name.first"); ok {
		t.Fatalf("expected leaf in intermediate position to report false")
	}
	if _, ok := Resolve(tree, ""); ok {
		t.Fatalf("expected empty path to report false")
	}
}

func TestResolveGroupReturnsPlainMap(t *testing.T) {
	got, ok := Resolve(sampleTree(), "address.geo")
	if !ok {
		t.Fatalf("expected group to resolve")
	}
	if diff := cmp.Diff(map[string]any{"lat": "51.5"}, got); diff != "" {
		t.Fatalf("group value mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignRoundTrip(t *testing.T) {
	cases := []struct {
		path  string
		value any
	}{
		{"name", "Grace"},
		{"address.city", "Paris"},
		{"address.geo.lng", "-0.12"},
		{"contact.phone.mobile", "555"},
		{"tags", []string{"x"}},
		{"count", 0},
		{"flag", false},
	}
	for _, tc := range cases {
		tree := Assign(sampleTree(), tc.path, tc.value)
		got, ok := Resolve(tree, tc.path)
		if !ok {
			t.Fatalf("%s: expected value after assign", tc.path)
		}
		if diff := cmp.Diff(tc.value, got); diff != "" {
			t.Fatalf("%s: round trip mismatch (-want +got):\n%s", tc.path, diff)
		}
	}
}

func TestAssignDoesNotMutateInput(t *testing.T) {
	before := sampleTree()
	want := before.Interface()

	after := Assign(before, "address.geo.lat", "0")
	_ = Assign(after, "address.city", "Rome")

	if diff := cmp.Diff(want, before.Interface()); diff != "" {
		t.Fatalf("input tree mutated (-want +got):\n%s", diff)
	}
	if got, _ := Resolve(after, "address.city"); got != "London" {
		t.Fatalf("intermediate tree mutated, city = %v", got)
	}
}

func TestAssignReplacesLeafIntermediate(t *testing.T) {
	tree := Assign(sampleTree(), "name.first", "Ada")
	got, ok := Resolve(tree, "name.first")
	if !ok || got != "Ada" {
		t.Fatalf("expected leaf replaced by group, got %v %v", got, ok)
	}
}

func TestAssignEmptyPathIsNoop(t *testing.T) {
	tree := sampleTree()
	if diff := cmp.Diff(tree.Interface(), Assign(tree, "", "x").Interface()); diff != "" {
		t.Fatalf("empty path changed tree (-want +got):\n%s", diff)
	}
}

func TestLeafCopiesSlices(t *testing.T) {
	values := []string{"a"}
	tree := Assign(EmptyGroup(), "tags", values)
	values[0] = "mutated"

	got, _ := Resolve(tree, "tags")
	if diff := cmp.Diff([]string{"a"}, got); diff != "" {
		t.Fatalf("leaf aliased caller slice (-want +got):\n%s", diff)
	}

	got.([]string)[0] = "changed"
	again, _ := Resolve(tree, "tags")
	if diff := cmp.Diff([]string{"a"}, again); diff != "" {
		t.Fatalf("resolve leaked internal slice (-want +got):\n%s", diff)
	}
}

func TestLeafCopiesOtherSliceAndMapTypes(t *testing.T) {
	counts := []int{1, 2}
	labels := map[string]string{"en": "Yes"}
	nested := map[string][]int{"scores": {7}}
	tree := Assign(EmptyGroup(), "counts", counts)
	tree = Assign(tree, "labels", labels)
	tree = Assign(tree, "nested", nested)
	artifact := tree.Clone()

	counts[0] = 99
	labels["en"] = "No"
	nested["scores"][0] = 0

	want := map[string]any{
		"counts": []int{1, 2},
		"labels": map[string]string{"en": "Yes"},
		"nested": map[string][]int{"scores": {7}},
	}
	if diff := cmp.Diff(want, tree.Interface()); diff != "" {
		t.Fatalf("tree aliased caller values (-want +got):\n%s", diff)
	}

	got, _ := Resolve(artifact, "nested")
	got.(map[string][]int)["scores"][0] = -1
	if diff := cmp.Diff(want, artifact.Interface()); diff != "" {
		t.Fatalf("resolve leaked clone internals (-want +got):\n%s", diff)
	}
}

func TestPaths(t *testing.T) {
	want := []string{"address.city", "address.geo.lat", "name", "tags"}
	if diff := cmp.Diff(want, Paths(sampleTree())); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	tree := sampleTree()
	data, err := tree.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Node
	if err := decoded.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]any{
		"name": "Ada",
		"tags": []any{"a", "b"},
		"address": map[string]any{
			"city": "London",
			"geo":  map[string]any{"lat": "51.5"},
		},
	}
	if diff := cmp.Diff(want, decoded.Interface()); diff != "" {
		t.Fatalf("decoded tree mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := NewStore(sampleTree())
	snapshot := store.Snapshot()
	root := store.Root()

	store.Set("address.city", "Berlin")

	if got, _ := Resolve(snapshot, "address.city"); got != "London" {
		t.Fatalf("snapshot observed later write: %v", got)
	}
	if got, _ := Resolve(root, "address.city"); got != "London" {
		t.Fatalf("earlier root observed later write: %v", got)
	}
	if got, _ := store.Get("address.city"); got != "Berlin" {
		t.Fatalf("store did not apply write: %v", got)
	}
}

func TestNewStoreNormalisesLeafRoot(t *testing.T) {
	store := NewStore(Leaf("x"))
	if !store.Root().IsGroup() {
		t.Fatalf("expected group root")
	}
	store.Reset(Leaf(1))
	if !store.Root().IsGroup() || store.Root().Len() != 0 {
		t.Fatalf("expected empty group after reset with leaf")
	}
}
