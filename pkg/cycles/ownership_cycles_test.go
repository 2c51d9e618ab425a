package cycles

import (
	"reflect"
	"testing"

	"github.com/ritzau/orgchart/pkg/model"
)

func chart(nodes []string, edges ...[2]string) *model.Graph {
	g := model.NewGraph()
	for _, id := range nodes {
		g.AddNode(&model.Node{ID: id, Name: id})
	}
	for _, e := range edges {
		g.AddEdge(&model.Edge{ID: e[0] + e[1], FromNode: e[0], ToNode: e[1], Percentage: 50})
	}
	return g
}

func TestFindOwnershipCycles(t *testing.T) {
	tests := []struct {
		name  string
		graph *model.Graph
		want  [][]string
	}{
		{
			name:  "no cycles",
			graph: chart([]string{"A", "B", "C"}, [2]string{"A", "B"}, [2]string{"B", "C"}),
			want:  nil,
		},
		{
			name:  "cross holding",
			graph: chart([]string{"A", "B"}, [2]string{"A", "B"}, [2]string{"B", "A"}),
			want:  [][]string{{"A", "B"}},
		},
		{
			name: "three entity ring",
			graph: chart([]string{"A", "B", "C"},
				[2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "A"}),
			want: [][]string{{"A", "B", "C"}},
		},
		{
			name: "two separate rings",
			graph: chart([]string{"A", "B", "C", "D", "E"},
				[2]string{"A", "B"}, [2]string{"B", "A"},
				[2]string{"C", "D"}, [2]string{"D", "E"}, [2]string{"E", "C"}),
			want: [][]string{{"A", "B"}, {"C", "D", "E"}},
		},
		{
			name:  "self owned",
			graph: chart([]string{"A", "B"}, [2]string{"A", "B"}, [2]string{"B", "B"}),
			want:  [][]string{{"B"}},
		},
		{
			name:  "dangling edge ignored",
			graph: chart([]string{"A"}, [2]string{"A", "Ghost"}, [2]string{"Ghost", "A"}),
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got [][]string
			for _, c := range FindOwnershipCycles(tt.graph) {
				got = append(got, c.Entities)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindOwnershipCycles() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindOwnershipCyclesNilGraph(t *testing.T) {
	if got := FindOwnershipCycles(nil); len(got) != 0 {
		t.Errorf("expected no cycles for nil graph, got %v", got)
	}
}
