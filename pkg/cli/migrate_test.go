package cli_test

import (
	"testing"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/notifyme/pkg/cli"
)

func TestDefineFirestoreIndexes(t *testing.T) {
	config := cli.DefineFirestoreIndexes()

	gt.Value(t, config).NotNil()
	gt.A(t, config.Collections).Length(1)
	col := config.Collections[0]
	gt.Equal(t, col.Name, "notices")

	// 2 filter fields x 4 order fields x 2 directions + author/category + org dashboard
	gt.A(t, col.Indexes).Length(18)

	t.Run("org dashboard index", func(t *testing.T) {
		last := col.Indexes[len(col.Indexes)-1]
		gt.A(t, last.Fields).Length(2)
		gt.Equal(t, last.Fields[0].Path, "assignedOrg")
		gt.Equal(t, last.Fields[1].Path, "createdAt")
		gt.Equal(t, last.Fields[1].Order, fireconf.OrderDescending)
	})

	t.Run("every composite index starts with an equality field", func(t *testing.T) {
		for _, idx := range col.Indexes {
			first := idx.Fields[0].Path
			if first != "authorId" && first != "category" && first != "assignedOrg" {
				t.Errorf("unexpected first field: %s", first)
			}
		}
	})
}
