package process

import (
	"reflect"
	"testing"
)

func TestClassifyRuntimeImports(t *testing.T) {
	modules := []ModuleFiles{
		{Module: 1, Files: []FileID{10, 11}},
		{Module: 2, Files: []FileID{20}},
		{Module: 3, Files: []FileID{30}},
		{Module: 4, Files: []FileID{40}},
	}
	imports := []FileImport{
		{From: 10, To: 20},
		{From: 20, To: 30},
		{From: 11, To: 40, IsTypeOnly: true},
	}

	groups := Classify(modules, imports)

	if groups.GroupCount != 2 {
		t.Fatalf("GroupCount = %d, want 2", groups.GroupCount)
	}
	if !AreSameProcess(1, 3, groups) {
		t.Error("modules 1 and 3 are linked through 2 and should share a process")
	}
	if AreSameProcess(1, 4, groups) {
		t.Error("a type-only import must not join modules 1 and 4")
	}
	if got, want := groups.Members(0), []ModuleID{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("Members(0) = %v, want %v", got, want)
	}
}

func TestClassifyIsolatedModules(t *testing.T) {
	modules := []ModuleFiles{
		{Module: 5, Files: nil},
		{Module: 6, Files: []FileID{60}},
		{Module: 7, Files: nil},
	}

	groups := Classify(modules, nil)

	if groups.GroupCount != 3 {
		t.Fatalf("GroupCount = %d, want 3", groups.GroupCount)
	}
	for _, m := range []ModuleID{5, 6, 7} {
		if _, ok := groups.GroupOf(m); !ok {
			t.Errorf("module %d has no group", m)
		}
	}
	if AreSameProcess(5, 7, groups) {
		t.Error("two file-less modules must not share a group")
	}
}

func TestClassifyMajorityComponent(t *testing.T) {
	// Module 1 owns files in two components: {10, 11} joined with module 2,
	// and {12} joined with module 3. The larger side wins.
	modules := []ModuleFiles{
		{Module: 1, Files: []FileID{10, 11, 12}},
		{Module: 2, Files: []FileID{20}},
		{Module: 3, Files: []FileID{30}},
	}
	imports := []FileImport{
		{From: 10, To: 20},
		{From: 11, To: 20},
		{From: 12, To: 30},
	}

	groups := Classify(modules, imports)

	if !AreSameProcess(1, 2, groups) {
		t.Error("module 1 should join the component holding two of its files")
	}
	if AreSameProcess(1, 3, groups) {
		t.Error("module 1 should not join the minority component")
	}
}

func TestClassifyMajorityTieSmallestComponent(t *testing.T) {
	// One file on each side: the component whose smallest file id is lower wins.
	modules := []ModuleFiles{
		{Module: 1, Files: []FileID{50, 15}},
		{Module: 2, Files: []FileID{51}},
		{Module: 3, Files: []FileID{16}},
	}
	imports := []FileImport{
		{From: 50, To: 51},
		{From: 15, To: 16},
	}

	groups := Classify(modules, imports)

	if !AreSameProcess(1, 3, groups) {
		t.Error("tie should go to the component containing file 15")
	}
	if AreSameProcess(1, 2, groups) {
		t.Error("module 1 should not join the component containing file 50")
	}
}

func TestClassifySharedFile(t *testing.T) {
	tests := []struct {
		name     string
		modules  []ModuleFiles
		imports  []FileImport
		wantSame map[[2]ModuleID]bool
	}{
		{
			name: "shared file without imports",
			modules: []ModuleFiles{
				{Module: 1, Files: []FileID{5}},
				{Module: 2, Files: []FileID{5}},
			},
			wantSame: map[[2]ModuleID]bool{{1, 2}: false},
		},
		{
			// File 5 belongs to module 2, which has more members in it, so
			// the import from 5 joins module 2 with module 3 but not module 1.
			name: "owner takes the imports",
			modules: []ModuleFiles{
				{Module: 1, Files: []FileID{4, 5}, Symbols: []int{3, 1}},
				{Module: 2, Files: []FileID{5}, Symbols: []int{4}},
				{Module: 3, Files: []FileID{6}},
			},
			imports: []FileImport{{From: 5, To: 6}},
			wantSame: map[[2]ModuleID]bool{
				{1, 2}: false,
				{2, 3}: true,
				{1, 3}: false,
			},
		},
		{
			name: "equal counts go to the smaller module id",
			modules: []ModuleFiles{
				{Module: 2, Files: []FileID{5}, Symbols: []int{2}},
				{Module: 1, Files: []FileID{5}, Symbols: []int{2}},
				{Module: 3, Files: []FileID{6}},
			},
			imports: []FileImport{{From: 6, To: 5}},
			wantSame: map[[2]ModuleID]bool{
				{1, 3}: true,
				{2, 3}: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := Classify(tt.modules, tt.imports)
			for _, m := range tt.modules {
				if _, ok := groups.GroupOf(m.Module); !ok {
					t.Errorf("module %d has no group", m.Module)
				}
			}
			for pair, want := range tt.wantSame {
				if got := AreSameProcess(pair[0], pair[1], groups); got != want {
					t.Errorf("AreSameProcess(%d, %d) = %v, want %v", pair[0], pair[1], got, want)
				}
			}
		})
	}
}

func TestClassifyInputOrderIndependent(t *testing.T) {
	modules := []ModuleFiles{
		{Module: 3, Files: []FileID{30}},
		{Module: 1, Files: []FileID{10}},
		{Module: 2, Files: []FileID{20}},
	}
	imports := []FileImport{{From: 30, To: 20}}

	a := Classify(modules, imports)
	b := Classify([]ModuleFiles{modules[1], modules[2], modules[0]}, imports)

	if !reflect.DeepEqual(a.ModuleToGroup, b.ModuleToGroup) {
		t.Errorf("groupings differ: %v vs %v", a.ModuleToGroup, b.ModuleToGroup)
	}
	if got := a.ModuleToGroup[1]; got != 0 {
		t.Errorf("module 1 group = %d, want 0", got)
	}
}

func TestAreSameProcessEquivalence(t *testing.T) {
	modules := []ModuleFiles{
		{Module: 1, Files: []FileID{1}},
		{Module: 2, Files: []FileID{2}},
		{Module: 3, Files: []FileID{3}},
		{Module: 4, Files: []FileID{4}},
		{Module: 5, Files: []FileID{5}},
	}
	imports := []FileImport{
		{From: 1, To: 2},
		{From: 3, To: 2},
		{From: 4, To: 5},
	}
	groups := Classify(modules, imports)

	ids := []ModuleID{1, 2, 3, 4, 5}
	for _, a := range ids {
		if !AreSameProcess(a, a, groups) {
			t.Errorf("not reflexive for %d", a)
		}
		for _, b := range ids {
			if AreSameProcess(a, b, groups) != AreSameProcess(b, a, groups) {
				t.Errorf("not symmetric for %d,%d", a, b)
			}
			for _, c := range ids {
				if AreSameProcess(a, b, groups) && AreSameProcess(b, c, groups) && !AreSameProcess(a, c, groups) {
					t.Errorf("not transitive for %d,%d,%d", a, b, c)
				}
			}
		}
	}
}

func TestAreSameProcessMissingModule(t *testing.T) {
	groups := Classify([]ModuleFiles{
		{Module: 1, Files: []FileID{1}},
		{Module: 2, Files: []FileID{2}},
	}, nil)

	if !AreSameProcess(1, 99, groups) {
		t.Error("unknown module should default to same process")
	}
	if !AreSameProcess(98, 99, groups) {
		t.Error("two unknown modules should default to same process")
	}
	if !AreSameProcess(1, 2, nil) {
		t.Error("nil grouping should default to same process")
	}
	if AreSameProcess(1, 2, groups) {
		t.Error("known isolated modules are in different processes")
	}
}

func TestCrossGroupPairs(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{4, 6},
		{7, 21},
	}

	for _, tt := range tests {
		modules := make([]ModuleFiles, tt.count)
		for i := range modules {
			modules[i] = ModuleFiles{Module: ModuleID(i + 1)}
		}
		groups := Classify(modules, nil)

		pairs := CrossGroupPairs(groups)
		if len(pairs) != tt.want {
			t.Errorf("count=%d: got %d pairs, want %d", tt.count, len(pairs), tt.want)
		}
		for _, p := range pairs {
			if p.A >= p.B {
				t.Errorf("pair %v is not ordered", p)
			}
		}
	}
}

func TestClassifyModuleEdges(t *testing.T) {
	groups := ClassifyModuleEdges(
		[]ModuleID{1, 2, 3},
		[]ModuleEdge{
			{From: 1, To: 2},
			{From: 2, To: 3, IsTypeOnly: true},
			{From: 3, To: 42},
		},
	)

	if groups.GroupCount != 2 {
		t.Fatalf("GroupCount = %d, want 2", groups.GroupCount)
	}
	if !AreSameProcess(1, 2, groups) {
		t.Error("1 and 2 share a runtime import")
	}
	if AreSameProcess(2, 3, groups) {
		t.Error("type-only edge should not join 2 and 3")
	}
}
